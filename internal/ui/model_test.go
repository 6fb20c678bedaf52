package ui

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"go-pairs/internal/config"
	"go-pairs/internal/game"
	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

// MockRanking implements Ranking and game.Submitter for testing
type MockRanking struct {
	Entries   []leaderboard.Entry
	Submitted []string
	Err       error
}

func (m *MockRanking) Health(ctx context.Context) error { return m.Err }

func (m *MockRanking) Submit(ctx context.Context, playerName string, r scoring.Result) error {
	if m.Err != nil {
		return m.Err
	}
	m.Submitted = append(m.Submitted, playerName)
	return nil
}

func (m *MockRanking) Global(ctx context.Context, difficulty string, limit int) ([]leaderboard.Entry, error) {
	return m.Entries, m.Err
}

func (m *MockRanking) Player(ctx context.Context, name string) ([]leaderboard.Entry, error) {
	return m.Entries, m.Err
}

// MockNames implements NameStore for testing
type MockNames struct {
	Name  string
	Saved []string
}

func (m *MockNames) PlayerName() string { return m.Name }

func (m *MockNames) SetPlayerName(name string) error {
	m.Name = name
	m.Saved = append(m.Saved, name)
	return nil
}

func newTestModel(t *testing.T, ranking *MockRanking, opts Options) *Model {
	t.Helper()
	sessOpts := game.SessionOptions{
		Rand:    rand.New(rand.NewSource(11)),
		History: opts.History,
	}
	if ranking != nil {
		sessOpts.Submitter = ranking
		opts.Ranking = ranking
	}
	sess, err := game.NewSession(config.Default(), "easy", sessOpts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	opts.Session = sess
	return NewModel(opts)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func flipAt(m *Model, index int) tea.Cmd {
	m.cursor = index
	return press(m, "enter")
}

func pairIndices(cards []state.Card) [][2]int {
	seen := make(map[string]int)
	var pairs [][2]int
	for _, c := range cards {
		if first, ok := seen[c.Value]; ok {
			pairs = append(pairs, [2]int{first, c.Index})
			continue
		}
		seen[c.Value] = c.Index
	}
	return pairs
}

func solveModel(m *Model) {
	for _, p := range pairIndices(m.Session.CurrentGame.State.Cards) {
		flipAt(m, p[0])
		flipAt(m, p[1])
	}
}

func TestCursorMovement(t *testing.T) {
	m := newTestModel(t, nil, Options{})

	steps := []struct {
		key  string
		want int
	}{
		{"left", 0},
		{"up", 0},
		{"right", 1},
		{"l", 2},
		{"down", 6},
		{"down", 6},
		{"right", 7},
		{"right", 7},
		{"k", 3},
		{"h", 2},
	}
	for _, s := range steps {
		press(m, s.key)
		if m.cursor != s.want {
			t.Errorf("After %q expected cursor %d, got %d", s.key, s.want, m.cursor)
		}
	}
}

func TestMismatchSchedulesSettle(t *testing.T) {
	m := newTestModel(t, nil, Options{})
	st := m.Session.CurrentGame.State

	a, b := 0, -1
	for i := 1; i < len(st.Cards); i++ {
		if st.Cards[i].Value != st.Cards[0].Value {
			b = i
			break
		}
	}
	flipAt(m, a)
	if cmd := flipAt(m, b); cmd == nil {
		t.Fatal("Expected a settle command after a mismatch")
	}

	ticket, ok := st.Pending()
	if !ok {
		t.Fatal("Expected a pending settle ticket")
	}
	if !strings.Contains(m.message, "No match") {
		t.Errorf("Expected mismatch message, got %q", m.message)
	}

	// Flips are ignored until the pair settles.
	c := 1
	for c == b {
		c++
	}
	flipAt(m, c)
	if st.Cards[c].Flipped {
		t.Error("Expected flip to be blocked while cards are settling")
	}

	m.Update(settleMsg{ticket: ticket})
	if st.Cards[a].Flipped || st.Cards[b].Flipped {
		t.Error("Expected mismatched cards to be face-down after settling")
	}
	if _, ok := st.Pending(); ok {
		t.Error("Expected no pending ticket after settling")
	}
	if st.Moves != 1 {
		t.Errorf("Expected 1 move, got %d", st.Moves)
	}
}

func TestStaleSettleAfterRestart(t *testing.T) {
	m := newTestModel(t, nil, Options{})
	cards := m.Session.CurrentGame.State.Cards
	b := 1
	for cards[b].Value == cards[0].Value {
		b++
	}
	flipAt(m, 0)
	flipAt(m, b)
	ticket, _ := m.Session.CurrentGame.State.Pending()

	press(m, "r")
	fresh := m.Session.CurrentGame.State
	flipAt(m, 0)
	m.Update(settleMsg{ticket: ticket})

	if !fresh.Cards[0].Flipped {
		t.Error("Expected stale settle to leave the new game untouched")
	}
}

func TestCompletionRecordsGame(t *testing.T) {
	ranking := &MockRanking{}
	history := scoring.NewHistory(&scoring.MemoryStorage{})
	var bell bytes.Buffer
	m := newTestModel(t, ranking, Options{History: history, Bell: &bell})
	m.Session.PlayerName = "Ada"

	solveModel(m)

	if m.screen != screenResult {
		t.Fatalf("Expected result screen, got %v", m.screen)
	}
	if !m.recording {
		t.Fatal("Expected recording to be in progress")
	}

	// Restart waits for the record to finish.
	g := m.Session.CurrentGame
	press(m, "r")
	if m.Session.CurrentGame != g || m.screen != screenResult {
		t.Error("Expected restart to be blocked while recording")
	}

	m.Update(m.recordCmd()())
	if m.recording {
		t.Error("Expected recording to be finished")
	}
	if m.outcome == nil || !m.outcome.Submitted {
		t.Fatalf("Expected submitted outcome, got %+v", m.outcome)
	}
	if len(ranking.Submitted) != 1 || ranking.Submitted[0] != "Ada" {
		t.Errorf("Expected one submission by Ada, got %v", ranking.Submitted)
	}
	if len(m.history5) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(m.history5))
	}
	if !strings.Contains(m.View(), "Final score") {
		t.Error("Expected result view to show the final score")
	}

	m.bellCmd()()
	if bell.String() != "\a" {
		t.Errorf("Expected a bell, got %q", bell.String())
	}

	press(m, "r")
	if m.screen != screenPlay || m.Session.CurrentGame == g {
		t.Error("Expected a new game after restart")
	}
}

func TestCompletionOffline(t *testing.T) {
	ranking := &MockRanking{Err: errors.New("connection refused")}
	m := newTestModel(t, ranking, Options{History: scoring.NewHistory(&scoring.MemoryStorage{})})

	solveModel(m)
	m.Update(m.recordCmd()())

	if m.outcome == nil || !m.outcome.Offline {
		t.Fatalf("Expected offline outcome, got %+v", m.outcome)
	}
	if m.conn != connOffline {
		t.Errorf("Expected offline status, got %v", m.conn)
	}
	if !strings.Contains(m.View(), "saved locally") {
		t.Error("Expected offline notice in result view")
	}
}

func TestNamePrompt(t *testing.T) {
	names := &MockNames{}
	m := newTestModel(t, nil, Options{Names: names, AskName: true})

	if m.screen != screenName {
		t.Fatalf("Expected name screen, got %v", m.screen)
	}
	press(m, "A", "d", "a", "q", "enter")

	if m.screen != screenPlay {
		t.Errorf("Expected play screen, got %v", m.screen)
	}
	if m.Session.PlayerName != "Adaq" {
		t.Errorf("Expected player name Adaq, got %q", m.Session.PlayerName)
	}
	if len(names.Saved) != 1 || names.Saved[0] != "Adaq" {
		t.Errorf("Expected name to be remembered, got %v", names.Saved)
	}
}

func TestNamePromptRejectsShortName(t *testing.T) {
	names := &MockNames{}
	m := newTestModel(t, nil, Options{Names: names, AskName: true})

	press(m, "A", "enter")
	if m.screen != screenName {
		t.Fatalf("Expected to stay on the name screen, got %v", m.screen)
	}
	if m.Session.PlayerName != "" || len(names.Saved) != 0 {
		t.Errorf("Expected the short name to be rejected, got %q", m.Session.PlayerName)
	}
	if !strings.Contains(m.View(), "between 2 and 20 characters") {
		t.Error("Expected the name bounds in the prompt")
	}

	press(m, "l", "enter")
	if m.screen != screenPlay || m.Session.PlayerName != "Al" {
		t.Errorf("Expected to play as Al, got %q", m.Session.PlayerName)
	}
	if m.nameErr != "" {
		t.Errorf("Expected the error to clear, got %q", m.nameErr)
	}
}

func TestNamePromptRejectsLongName(t *testing.T) {
	m := newTestModel(t, nil, Options{AskName: true})

	press(m, strings.Repeat("x", 20), "enter")
	if m.screen != screenPlay {
		t.Fatalf("Expected 20 characters to be accepted, got screen %v", m.screen)
	}

	m = newTestModel(t, nil, Options{AskName: true})
	m.nameInput.CharLimit = 0
	press(m, strings.Repeat("x", 21), "enter")
	if m.screen != screenName {
		t.Errorf("Expected 21 characters to be rejected, got screen %v", m.screen)
	}
}

func TestInvalidRememberedNameIgnored(t *testing.T) {
	m := newTestModel(t, nil, Options{Names: &MockNames{Name: "Z"}})
	if m.Session.PlayerName != "" {
		t.Errorf("Expected the invalid remembered name to be ignored, got %q", m.Session.PlayerName)
	}
}

func TestRememberedName(t *testing.T) {
	m := newTestModel(t, nil, Options{Names: &MockNames{Name: "Grace"}, AskName: true})

	if m.nameInput.Value() != "Grace" {
		t.Errorf("Expected prompt prefilled with Grace, got %q", m.nameInput.Value())
	}
	press(m, "esc")
	if m.screen != screenPlay || m.Session.PlayerName != "Grace" {
		t.Errorf("Expected to play as Grace, got %q", m.Session.PlayerName)
	}
}

func TestHistoryScreen(t *testing.T) {
	storage := &scoring.MemoryStorage{}
	history := scoring.NewHistory(storage)
	for _, score := range []int{300, 650} {
		if _, err := history.Record("Ada", scoring.Result{Score: score, Difficulty: "easy", ElapsedTime: "00:10"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	m := newTestModel(t, nil, Options{History: history})

	press(m, "s")
	if m.screen != screenHistory {
		t.Fatalf("Expected history screen, got %v", m.screen)
	}
	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][2] != "650" {
		t.Errorf("Expected newest game first, got %v", rows[0])
	}

	press(m, "esc")
	if m.screen != screenPlay {
		t.Errorf("Expected to return to play screen, got %v", m.screen)
	}
}

func TestRankingScreen(t *testing.T) {
	ranking := &MockRanking{Entries: []leaderboard.Entry{
		{PlayerName: "Ada", Score: 650, Moves: 4, Time: "00:05", Difficulty: "easy", Efficiency: 100},
		{PlayerName: "Bob", Score: 420, Moves: 9, Time: "00:40", Difficulty: "easy", Efficiency: 44},
	}}
	m := newTestModel(t, ranking, Options{})

	cmd := press(m, "g")
	if m.screen != screenRanking {
		t.Fatalf("Expected ranking screen, got %v", m.screen)
	}
	if cmd == nil {
		t.Fatal("Expected a ranking load command")
	}
	m.Update(cmd())

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Ada" || rows[0][7] != scoring.Rate(100).Label {
		t.Errorf("Unexpected first row %v", rows[0])
	}

	// The player tab needs a name.
	if cmd := press(m, "tab"); cmd != nil {
		t.Error("Expected no request for an anonymous player")
	}
	if !strings.Contains(m.View(), "Play under a name") {
		t.Error("Expected hint for anonymous player")
	}
}

func TestRankingScreenWithoutServer(t *testing.T) {
	m := newTestModel(t, nil, Options{})

	if cmd := press(m, "g"); cmd != nil {
		t.Error("Expected no command without a ranking server")
	}
	if !strings.Contains(m.View(), "No ranking server configured") {
		t.Error("Expected notice about missing ranking server")
	}
}

func TestStatusLine(t *testing.T) {
	m := newTestModel(t, &MockRanking{}, Options{})

	view := m.View()
	for _, want := range []string{"SCORE: 0", "MOVES: 0", "PAIRS: 0/4", "TIME: 00:0"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	m.Update(healthMsg{err: errors.New("down")})
	if !strings.Contains(m.View(), "offline") {
		t.Error("Expected offline indicator")
	}
	m.Update(healthMsg{})
	if !strings.Contains(m.View(), "online") {
		t.Error("Expected online indicator")
	}
}

func TestNextDifficulty(t *testing.T) {
	m := newTestModel(t, nil, Options{})

	press(m, "d")
	if m.Session.Difficulty.Name != "medium" {
		t.Errorf("Expected medium, got %s", m.Session.Difficulty.Name)
	}
	if len(m.Session.CurrentGame.State.Cards) != 12 {
		t.Errorf("Expected 12 cards, got %d", len(m.Session.CurrentGame.State.Cards))
	}
	press(m, "d", "d")
	if m.Session.Difficulty.Name != "easy" {
		t.Errorf("Expected to wrap to easy, got %s", m.Session.Difficulty.Name)
	}
}
