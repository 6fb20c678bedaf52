package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"
)

// ErrNotFinished is returned when recording a game that is still running.
var ErrNotFinished = errors.New("game is not finished")

// Submitter publishes a finished game to a shared leaderboard.
type Submitter interface {
	Submit(ctx context.Context, playerName string, r scoring.Result) error
}

// SessionOptions configures a Session. Zero values fall back to defaults.
type SessionOptions struct {
	Alphabet   []string // overrides the table alphabet
	Rand       *rand.Rand
	Clock      func() time.Time
	Listener   state.Listener
	History    *scoring.History
	Submitter  Submitter
	PlayerName string
}

// Outcome reports how a finished game was recorded.
type Outcome struct {
	Result    scoring.Result
	Rating    scoring.Rating
	HighScore bool
	Submitted bool
	// Offline is set when the leaderboard rejected or could not be reached;
	// the game is still in the local history.
	Offline   bool
	SubmitErr error
}

// Session owns exactly one live game at a time. Starting a new game
// discards the previous one together with any pending settle ticket.
type Session struct {
	Table       config.Table
	Difficulty  config.Difficulty
	CurrentGame *Game
	PlayerName  string

	alphabet  []string
	rng       *rand.Rand
	clock     func() time.Time
	listener  state.Listener
	history   *scoring.History
	submitter Submitter
	saved     bool
	submitted bool
	outcome   Outcome
}

// NewSession starts a game at the named difficulty.
func NewSession(table config.Table, difficulty string, opts SessionOptions) (*Session, error) {
	s := &Session{
		Table:      table,
		PlayerName: strings.TrimSpace(opts.PlayerName),
		alphabet:   opts.Alphabet,
		rng:        opts.Rand,
		clock:      opts.Clock,
		listener:   opts.Listener,
		history:    opts.History,
		submitter:  opts.Submitter,
	}
	if len(s.alphabet) == 0 {
		s.alphabet = table.Alphabet()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	if err := s.Start(difficulty); err != nil {
		return nil, err
	}
	return s, nil
}

// Start replaces the current game with a new one at difficulty.
func (s *Session) Start(difficulty string) error {
	d, err := s.Table.Lookup(difficulty)
	if err != nil {
		return err
	}

	opts := []state.Option{state.WithClock(s.clock)}
	if s.listener != nil {
		opts = append(opts, state.WithListener(s.listener))
	}
	g, err := NewGame(d, s.alphabet, s.rng, opts...)
	if err != nil {
		return err
	}

	s.Cancel()
	s.Difficulty = d
	s.CurrentGame = g
	s.saved = false
	s.submitted = false
	s.outcome = Outcome{}
	return nil
}

// Restart deals a new game at the current difficulty.
func (s *Session) Restart() error {
	return s.Start(s.Difficulty.Name)
}

// Flip forwards a card selection to the live game.
func (s *Session) Flip(index int) []state.Event {
	if s.CurrentGame == nil {
		return nil
	}
	return s.CurrentGame.Flip(index)
}

// Settle forwards a settle ticket. Tickets issued by a game that has since
// been replaced carry another session id and are ignored.
func (s *Session) Settle(ticket state.SettleTicket) []state.Event {
	if s.CurrentGame == nil || ticket.Session != s.CurrentGame.State.Session {
		return nil
	}
	return s.CurrentGame.Settle(ticket)
}

// Cancel settles the live game's pending mismatch, if any.
func (s *Session) Cancel() []state.Event {
	if s.CurrentGame == nil {
		return nil
	}
	return s.CurrentGame.State.Cancel()
}

// Record stores the finished game in the local history and submits it to
// the leaderboard. A failed submit marks the outcome offline rather than
// failing, and a failed history save is returned after the submit has been
// tried. Calling Record again retries only the steps that failed.
func (s *Session) Record(ctx context.Context) (Outcome, error) {
	if s.CurrentGame == nil || !s.CurrentGame.IsFinished() {
		return Outcome{}, ErrNotFinished
	}
	result := *s.CurrentGame.Result()
	outcome := s.outcome
	outcome.Result = result
	outcome.Rating = scoring.Performance(s.Difficulty.Pairs, result.Moves)

	var saveErr error
	if s.history != nil && !s.saved {
		previous, err := s.history.Record(s.PlayerName, result)
		if err != nil {
			saveErr = fmt.Errorf("failed to record game: %w", err)
		} else {
			s.saved = true
			outcome.HighScore = previous.GotHighScore(result)
		}
	}

	if s.submitter != nil && !s.submitted {
		name := s.PlayerName
		if name == "" {
			name = scoring.AnonymousPlayer
		}
		if err := s.submitter.Submit(ctx, name, result); err != nil {
			outcome.Offline = true
			outcome.SubmitErr = err
		} else {
			s.submitted = true
			outcome.Submitted = true
			outcome.Offline = false
			outcome.SubmitErr = nil
		}
	}

	s.outcome = outcome
	return outcome, saveErr
}
