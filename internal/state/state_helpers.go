package state

import (
	"go-pairs/internal/scoring"

	"github.com/looplab/fsm"
)

// CanFlip reports whether a flip on index would be accepted.
func (s *State) CanFlip(index int) bool {
	if s.IsComplete() || len(s.Window) >= 2 {
		return false
	}
	if index < 0 || index >= len(s.Cards) {
		return false
	}
	c := s.Cards[index]
	return !c.Matched && !c.Flipped
}

func (s *State) IsComplete() bool {
	return s.MatchedPairs == s.Difficulty.Pairs
}

// Current returns the FSM state name.
func (s *State) Current() string {
	return s.FSM.Current()
}

// Pending returns the ticket for the unresolved mismatch, if any.
func (s *State) Pending() (SettleTicket, bool) {
	if s.pending == nil {
		return SettleTicket{}, false
	}
	return *s.pending, true
}

// Progress snapshots the counters the final score is computed from.
func (s *State) Progress() scoring.Progress {
	return scoring.Progress{
		Difficulty:   s.Difficulty,
		MatchedPairs: s.MatchedPairs,
		Moves:        s.Moves,
		RunningScore: s.Score,
		StartedAt:    s.StartedAt,
	}
}

func (s *State) reveal(index int) {
	s.Cards[index].Flipped = true
	s.Window = append(s.Window, index)
	s.emit(Event{Kind: CardFlipped, Cards: s.cardsAt(index)})
}

func (s *State) cardsAt(indices ...int) []Card {
	cards := make([]Card, 0, len(indices))
	for _, i := range indices {
		cards = append(cards, s.Cards[i])
	}
	return cards
}

func (s *State) emit(e Event) {
	e.Session = s.Session
	s.events = append(s.events, e)
	if s.Listener != nil {
		s.Listener.OnEvent(e)
	}
}

func (s *State) drain() []Event {
	events := s.events
	s.events = nil
	return events
}

func argInt(e *fsm.Event) (int, bool) {
	if len(e.Args) == 0 {
		return 0, false
	}
	i, ok := e.Args[0].(int)
	return i, ok
}
