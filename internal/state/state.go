package state

import (
	"context"
	"fmt"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// FSM states.
const (
	Idle       = "idle"
	OneFlipped = "oneFlipped"
	Evaluating = "evaluating"
	Complete   = "complete"
)

// Card is a single board position.
type Card struct {
	Index   int
	Value   string
	Flipped bool
	Matched bool
}

// SettleTicket identifies the pending mismatch a Settle call resolves.
type SettleTicket struct {
	Session uuid.UUID
	Seq     int
}

// Listener receives every event the engine emits.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now for start and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithListener registers a listener for emitted events.
func WithListener(l Listener) Option {
	return func(s *State) { s.Listener = l }
}

// WithSession fixes the session identity instead of generating one.
func WithSession(id uuid.UUID) Option {
	return func(s *State) { s.Session = id }
}

// State is a single live game: the board, flip window, counters and the
// FSM that drives them.
type State struct {
	Session      uuid.UUID
	Difficulty   config.Difficulty
	Cards        []Card
	Window       []int // indices of face-up, unmatched cards; 0 to 2 entries
	MatchedPairs int
	Moves        int
	Score        int
	StartedAt    time.Time
	Result       *scoring.Result
	FSM          *fsm.FSM
	Listener     Listener

	now     func() time.Time
	seq     int
	pending *SettleTicket
	events  []Event
}

// NewState builds a game over cards. The deck must hold exactly two cards
// per pair of the difficulty.
func NewState(d config.Difficulty, cards []Card, opts ...Option) (*State, error) {
	if d.Pairs < 1 {
		return nil, &config.ConfigurationError{Difficulty: d.Name, Reason: fmt.Sprintf("pair count %d is below 1", d.Pairs)}
	}
	if len(cards) != d.Cards() {
		return nil, &config.ConfigurationError{Difficulty: d.Name, Reason: fmt.Sprintf("deck has %d cards, want %d", len(cards), d.Cards())}
	}

	s := &State{
		Difficulty: d,
		Cards:      make([]Card, len(cards)),
		Window:     make([]int, 0, 2),
		now:        time.Now,
	}
	copy(s.Cards, cards)
	for _, opt := range opts {
		opt(s)
	}
	if s.Session == uuid.Nil {
		s.Session = uuid.New()
	}
	s.StartedAt = s.now()

	s.FSM = fsm.NewFSM(
		Idle,
		getStateTransitions(),
		getStateCallbacks(s),
	)

	return s, nil
}

// Flip turns the card at index face-up and resolves the flip window when it
// fills. Illegal flips are ignored and yield no events.
func (s *State) Flip(index int) []Event {
	s.events = nil
	_ = s.FSM.Event(context.Background(), "flip", index)
	return s.drain()
}

// Settle turns a mismatched pair face-down again. A ticket from another
// session or an older mismatch is ignored.
func (s *State) Settle(ticket SettleTicket) []Event {
	s.events = nil
	_ = s.FSM.Event(context.Background(), "settle", ticket)
	return s.drain()
}

// Cancel settles a pending mismatch right away: the pair turns face-down,
// the game goes back to idle and a timer already scheduled for the ticket
// has no effect.
func (s *State) Cancel() []Event {
	ticket, ok := s.Pending()
	if !ok {
		return nil
	}
	return s.Settle(ticket)
}

func getStateTransitions() []fsm.EventDesc {
	return fsm.Events{
		{Name: "flip", Src: []string{Idle}, Dst: OneFlipped},
		{Name: "flip", Src: []string{OneFlipped}, Dst: Evaluating},

		// Resolution of a full window
		{Name: "match", Src: []string{Evaluating}, Dst: Idle},
		{Name: "finish", Src: []string{Evaluating}, Dst: Complete},
		{Name: "settle", Src: []string{Evaluating}, Dst: Idle},
	}
}

func getStateCallbacks(s *State) map[string]fsm.Callback {
	return fsm.Callbacks{
		"before_flip": func(ctx context.Context, e *fsm.Event) {
			index, ok := argInt(e)
			if !ok || !s.CanFlip(index) {
				e.Cancel()
			}
		},
		"enter_" + OneFlipped: func(ctx context.Context, e *fsm.Event) {
			index, _ := argInt(e)
			s.reveal(index)
		},
		"enter_" + Evaluating: func(ctx context.Context, e *fsm.Event) {
			index, _ := argInt(e)
			s.reveal(index)
			s.Moves++

			first, second := s.Window[0], s.Window[1]
			if s.Cards[first].Value != s.Cards[second].Value {
				s.seq++
				ticket := SettleTicket{Session: s.Session, Seq: s.seq}
				s.pending = &ticket
				s.emit(Event{
					Kind:   MismatchFound,
					Cards:  s.cardsAt(first, second),
					Ticket: ticket,
				})
				return
			}

			s.Cards[first].Matched = true
			s.Cards[second].Matched = true
			s.Window = s.Window[:0]
			s.MatchedPairs++
			points := scoring.ScoreForMatch(s.Difficulty, s.Difficulty.Pairs, s.Moves)
			s.Score += points
			s.emit(Event{
				Kind:   MatchFound,
				Cards:  s.cardsAt(first, second),
				Points: points,
			})

			if s.MatchedPairs == s.Difficulty.Pairs {
				_ = e.FSM.Event(ctx, "finish")
				return
			}
			_ = e.FSM.Event(ctx, "match")
		},
		"enter_" + Complete: func(ctx context.Context, e *fsm.Event) {
			result := scoring.FinalScore(s.Progress(), s.now())
			s.Result = &result
			s.emit(Event{Kind: SessionComplete, Points: result.Score, Result: &result})
		},
		"before_settle": func(ctx context.Context, e *fsm.Event) {
			if len(e.Args) == 0 {
				e.Cancel()
				return
			}
			ticket, ok := e.Args[0].(SettleTicket)
			if !ok || s.pending == nil || ticket != *s.pending {
				e.Cancel()
			}
		},
		"after_settle": func(ctx context.Context, e *fsm.Event) {
			for _, i := range s.Window {
				s.Cards[i].Flipped = false
			}
			settled := s.cardsAt(s.Window...)
			s.Window = s.Window[:0]
			s.pending = nil
			s.emit(Event{Kind: CardsSettled, Cards: settled})
		},
	}
}
