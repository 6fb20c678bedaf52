package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"
)

// MockStorage implements scoring.ScoreStorage for testing
type MockStorage struct {
	Entries    []scoring.HistoryEntry
	SaveCalled bool
	Err        error
}

func (m *MockStorage) LoadAll() ([]scoring.HistoryEntry, error) {
	return m.Entries, nil
}

func (m *MockStorage) SaveAll(entries []scoring.HistoryEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entries = entries
	m.SaveCalled = true
	return nil
}

// MockSubmitter records submissions and optionally fails them.
type MockSubmitter struct {
	Names   []string
	Results []scoring.Result
	Err     error
}

func (m *MockSubmitter) Submit(ctx context.Context, playerName string, r scoring.Result) error {
	if m.Err != nil {
		return m.Err
	}
	m.Names = append(m.Names, playerName)
	m.Results = append(m.Results, r)
	return nil
}

func newTestSession(t *testing.T, difficulty string, opts SessionOptions) *Session {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(3))
	}
	sess, err := NewSession(config.Default(), difficulty, opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return sess
}

// pairsOf groups card indices by symbol.
func pairsOf(cards []state.Card) map[string][]int {
	pairs := make(map[string][]int)
	for _, c := range cards {
		pairs[c.Value] = append(pairs[c.Value], c.Index)
	}
	return pairs
}

// mismatchOf returns two indices holding different symbols.
func mismatchOf(cards []state.Card) (int, int) {
	for i := 1; i < len(cards); i++ {
		if cards[i].Value != cards[0].Value {
			return 0, i
		}
	}
	return 0, 0
}

func solve(sess *Session) []state.Event {
	var last []state.Event
	for _, idx := range pairsOf(sess.CurrentGame.State.Cards) {
		sess.Flip(idx[0])
		last = sess.Flip(idx[1])
	}
	return last
}

func TestSession_Init(t *testing.T) {
	sess := newTestSession(t, "Medium", SessionOptions{})

	if sess.Difficulty.Name != "medium" {
		t.Errorf("Expected difficulty medium, got %q", sess.Difficulty.Name)
	}
	if sess.CurrentGame == nil {
		t.Fatal("CurrentGame should be initialized")
	}
	if len(sess.CurrentGame.State.Cards) != 12 {
		t.Errorf("Expected 12 cards, got %d", len(sess.CurrentGame.State.Cards))
	}
}

func TestSession_UnknownDifficulty(t *testing.T) {
	_, err := NewSession(config.Default(), "nightmare", SessionOptions{})
	if !errors.Is(err, config.ErrUnknownDifficulty) {
		t.Errorf("Expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestSession_AlphabetTooShort(t *testing.T) {
	_, err := NewSession(config.Default(), "hard", SessionOptions{Alphabet: []string{"a", "b", "c"}})
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
}

func TestSession_RestartIgnoresOldTicket(t *testing.T) {
	sess := newTestSession(t, "easy", SessionOptions{})
	old := sess.CurrentGame

	a, b := mismatchOf(old.State.Cards)
	sess.Flip(a)
	events := sess.Flip(b)
	ticket := events[len(events)-1].Ticket

	if err := sess.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if sess.CurrentGame == old {
		t.Fatal("Expected Restart to replace the game")
	}
	if sess.CurrentGame.State.Session == old.State.Session {
		t.Error("Expected a new session id after restart")
	}

	if events := sess.Settle(ticket); len(events) != 0 {
		t.Errorf("Expected the old ticket to be ignored, got %d events", len(events))
	}
	if _, ok := old.State.Pending(); ok {
		t.Error("Expected the old game's ticket to be cancelled")
	}
	if sess.CurrentGame.State.Moves != 0 {
		t.Errorf("Expected a fresh game, got %d moves", sess.CurrentGame.State.Moves)
	}
}

func TestSession_SettleCurrentTicket(t *testing.T) {
	sess := newTestSession(t, "easy", SessionOptions{})
	a, b := mismatchOf(sess.CurrentGame.State.Cards)
	sess.Flip(a)
	events := sess.Flip(b)

	if got := sess.Settle(events[len(events)-1].Ticket); len(got) != 1 {
		t.Fatalf("Expected one settle event, got %d", len(got))
	}
	if sess.CurrentGame.State.Current() != state.Idle {
		t.Errorf("Expected idle, got %q", sess.CurrentGame.State.Current())
	}
}

func TestSession_RecordNotFinished(t *testing.T) {
	sess := newTestSession(t, "easy", SessionOptions{})
	if _, err := sess.Record(context.Background()); !errors.Is(err, ErrNotFinished) {
		t.Errorf("Expected ErrNotFinished, got %v", err)
	}
}

func TestSession_RecordSubmitsAndSaves(t *testing.T) {
	store := &MockStorage{}
	submitter := &MockSubmitter{}
	start := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	now := start
	sess := newTestSession(t, "easy", SessionOptions{
		History:    scoring.NewHistory(store),
		Submitter:  submitter,
		PlayerName: " Alice ",
		Clock:      func() time.Time { return now },
	})

	now = start.Add(5 * time.Second)
	events := solve(sess)
	if events[len(events)-1].Kind != state.SessionComplete {
		t.Fatalf("Expected the last event to be SessionComplete, got %v", events[len(events)-1].Kind)
	}

	outcome, err := sess.Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if outcome.Result.Score != 650 {
		t.Errorf("Expected score 650, got %d", outcome.Result.Score)
	}
	if !outcome.Submitted || outcome.Offline {
		t.Errorf("Expected a successful submit, got %+v", outcome)
	}
	if !outcome.HighScore {
		t.Error("Expected the first game to be a high score")
	}
	if outcome.Rating.Tier != "perfect" {
		t.Errorf("Expected perfect rating, got %q", outcome.Rating.Tier)
	}
	if len(store.Entries) != 1 || store.Entries[0].PlayerName != "Alice" {
		t.Errorf("Expected Alice in the history, got %+v", store.Entries)
	}
	if len(submitter.Names) != 1 || submitter.Names[0] != "Alice" {
		t.Errorf("Expected one submission for Alice, got %v", submitter.Names)
	}

	// A second Record call does not duplicate the entry.
	if _, err := sess.Record(context.Background()); err != nil {
		t.Fatalf("Second Record failed: %v", err)
	}
	if len(store.Entries) != 1 || len(submitter.Results) != 1 {
		t.Error("Expected Record to be idempotent")
	}
}

func TestSession_RecordOffline(t *testing.T) {
	store := &MockStorage{}
	sess := newTestSession(t, "easy", SessionOptions{
		History:   scoring.NewHistory(store),
		Submitter: &MockSubmitter{Err: errors.New("connection refused")},
	})
	solve(sess)

	outcome, err := sess.Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !outcome.Offline || outcome.Submitted || outcome.SubmitErr == nil {
		t.Errorf("Expected an offline outcome, got %+v", outcome)
	}
	if !store.SaveCalled || store.Entries[0].PlayerName != scoring.AnonymousPlayer {
		t.Errorf("Expected the game saved locally as %s, got %+v", scoring.AnonymousPlayer, store.Entries)
	}
}

func TestSession_ListenerSeesEveryGame(t *testing.T) {
	var completions int
	sess := newTestSession(t, "easy", SessionOptions{
		Listener: state.ListenerFunc(func(e state.Event) {
			if e.Kind == state.SessionComplete {
				completions++
			}
		}),
	})

	solve(sess)
	if err := sess.Restart(); err != nil {
		t.Fatal(err)
	}
	solve(sess)

	if completions != 2 {
		t.Errorf("Expected 2 completions, got %d", completions)
	}
}

func TestSession_RecordSubmitsWhenHistoryFails(t *testing.T) {
	store := &MockStorage{Err: errors.New("disk full")}
	submitter := &MockSubmitter{}
	sess := newTestSession(t, "easy", SessionOptions{
		History:    scoring.NewHistory(store),
		Submitter:  submitter,
		PlayerName: "Alice",
	})
	solve(sess)

	outcome, err := sess.Record(context.Background())
	if err == nil {
		t.Fatal("Expected the history error to be returned")
	}
	if !outcome.Submitted {
		t.Errorf("Expected the game to be submitted anyway, got %+v", outcome)
	}
	if len(submitter.Results) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(submitter.Results))
	}

	// Once storage recovers, a retry saves the game without submitting again.
	store.Err = nil
	outcome, err = sess.Record(context.Background())
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if len(store.Entries) != 1 {
		t.Errorf("Expected the game in the history after retry, got %d entries", len(store.Entries))
	}
	if len(submitter.Results) != 1 {
		t.Errorf("Expected no second submission, got %d", len(submitter.Results))
	}
	if !outcome.Submitted || !outcome.HighScore {
		t.Errorf("Expected a submitted high score, got %+v", outcome)
	}
}

func TestSession_RecordRetriesFailedSubmit(t *testing.T) {
	store := &MockStorage{}
	submitter := &MockSubmitter{Err: errors.New("connection refused")}
	sess := newTestSession(t, "easy", SessionOptions{
		History:   scoring.NewHistory(store),
		Submitter: submitter,
	})
	solve(sess)

	if outcome, _ := sess.Record(context.Background()); !outcome.Offline {
		t.Fatalf("Expected an offline outcome, got %+v", outcome)
	}
	submitter.Err = nil
	outcome, err := sess.Record(context.Background())
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !outcome.Submitted || outcome.Offline || outcome.SubmitErr != nil {
		t.Errorf("Expected the retry to submit, got %+v", outcome)
	}
	if len(store.Entries) != 1 {
		t.Errorf("Expected one history entry, got %d", len(store.Entries))
	}
}

func TestSession_RatingUsesFewestMoves(t *testing.T) {
	sess := newTestSession(t, "easy", SessionOptions{})
	for i := 0; i < 4; i++ {
		a, b := mismatchOf(sess.CurrentGame.State.Cards)
		sess.Flip(a)
		events := sess.Flip(b)
		sess.Settle(events[len(events)-1].Ticket)
	}
	solve(sess)

	outcome, err := sess.Record(context.Background())
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if outcome.Result.Moves != 8 {
		t.Fatalf("Expected 8 moves, got %d", outcome.Result.Moves)
	}
	if outcome.Result.PerfectBonus == 0 {
		t.Error("Expected the perfect bonus for 8 moves")
	}
	if outcome.Rating.Tier != "perfect" {
		t.Errorf("Expected perfect rating, got %q", outcome.Rating.Tier)
	}
	if got := scoring.Rate(outcome.Result.EfficiencyPercent).Tier; got != "average" {
		t.Errorf("Expected the ranking efficiency tier to stay average, got %q", got)
	}
}

func TestSession_CancelKeepsGamePlayable(t *testing.T) {
	sess := newTestSession(t, "easy", SessionOptions{})
	a, b := mismatchOf(sess.CurrentGame.State.Cards)
	sess.Flip(a)
	ticket := sess.Flip(b)[1].Ticket

	sess.Cancel()
	if events := sess.Settle(ticket); len(events) != 0 {
		t.Errorf("Expected the cancelled ticket to be ignored, got %d events", len(events))
	}
	if events := solve(sess); events[len(events)-1].Kind != state.SessionComplete {
		t.Error("Expected the game to be finishable after Cancel")
	}
}
