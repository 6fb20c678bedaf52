package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"
)

// Player name bounds, in characters after trimming.
const (
	MinNameLength = 2
	MaxNameLength = 20
)

// ValidName reports whether name, once trimmed, fits the name bounds.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= MinNameLength && n <= MaxNameLength
}

// ValidationError is a submission the API rejects with 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Submission is the body of POST /api/ranking.
type Submission struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Moves      int    `json:"moves"`
	Time       string `json:"time"`
	Difficulty string `json:"difficulty"`
	Efficiency int    `json:"efficiency"`
}

// SubmissionFromResult builds the submission for a finished game.
func SubmissionFromResult(playerName string, r scoring.Result) Submission {
	return Submission{
		PlayerName: playerName,
		Score:      r.Score,
		Moves:      r.Moves,
		Time:       r.ElapsedTime,
		Difficulty: r.Difficulty,
		Efficiency: r.EfficiencyPercent,
	}
}

// Publisher is notified of every stored entry.
type Publisher interface {
	Publish(Entry)
}

// Service validates submissions and stores them.
type Service struct {
	store     *Store
	table     config.Table
	publisher Publisher
	now       func() time.Time
}

// NewService creates a Service. publisher may be nil.
func NewService(store *Store, table config.Table, publisher Publisher) *Service {
	return &Service{store: store, table: table, publisher: publisher, now: time.Now}
}

// Validate checks a submission and returns it normalised into an Entry.
func (s *Service) Validate(sub Submission) (Entry, error) {
	name := strings.TrimSpace(sub.PlayerName)
	if !ValidName(name) {
		return Entry{}, &ValidationError{Message: fmt.Sprintf("name must be between %d and %d characters", MinNameLength, MaxNameLength)}
	}
	if sub.Score < 0 || sub.Moves < 0 {
		return Entry{}, &ValidationError{Message: "invalid data"}
	}
	if sub.Efficiency < 0 || sub.Efficiency > 100 {
		return Entry{}, &ValidationError{Message: "efficiency must be between 0 and 100"}
	}

	d, err := s.table.Lookup(sub.Difficulty)
	if err != nil {
		return Entry{}, &ValidationError{Message: fmt.Sprintf("unknown difficulty %q", sub.Difficulty)}
	}
	elapsed, err := scoring.ParseElapsed(sub.Time)
	if err != nil {
		return Entry{}, &ValidationError{Message: err.Error()}
	}

	return Entry{
		PlayerName:  name,
		Score:       sub.Score,
		Moves:       sub.Moves,
		Time:        scoring.FormatElapsed(elapsed),
		ElapsedSecs: int(elapsed / time.Second),
		Difficulty:  d.Name,
		Efficiency:  sub.Efficiency,
	}, nil
}

// Submit validates, stores and publishes a submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (Entry, error) {
	e, err := s.Validate(sub)
	if err != nil {
		return Entry{}, err
	}
	e.Date = s.now().UTC()

	if err := s.store.Insert(ctx, &e); err != nil {
		return Entry{}, err
	}
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
	return e, nil
}

// Global returns the global ranking, optionally for one difficulty.
func (s *Service) Global(ctx context.Context, difficulty string, limit int) ([]Entry, error) {
	if difficulty != "" && !s.table.Has(difficulty) {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown difficulty %q", difficulty)}
	}
	return s.store.Global(ctx, difficulty, limit)
}

// Player returns the ranking entries matching a player name.
func (s *Service) Player(ctx context.Context, name string) ([]Entry, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Message: "player name is required"}
	}
	return s.store.Player(ctx, name, MaxPlayerEntries)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
