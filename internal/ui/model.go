// Package ui is the Bubble Tea front end: the board, the result screen and
// the local history and shared ranking tables.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go-pairs/internal/game"
	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultSettleDelay is how long a mismatched pair stays face-up.
const DefaultSettleDelay = time.Second

const requestTimeout = 5 * time.Second

type screen int

const (
	screenName screen = iota
	screenPlay
	screenResult
	screenHistory
	screenRanking
)

type rankingTab int

const (
	tabGlobal rankingTab = iota
	tabPlayer
)

type connStatus int

const (
	connDisabled connStatus = iota
	connUnknown
	connOnline
	connOffline
)

// Ranking is the shared leaderboard as the UI sees it.
type Ranking interface {
	Health(ctx context.Context) error
	Global(ctx context.Context, difficulty string, limit int) ([]leaderboard.Entry, error)
	Player(ctx context.Context, name string) ([]leaderboard.Entry, error)
}

// NameStore remembers the player name between runs.
type NameStore interface {
	PlayerName() string
	SetPlayerName(name string) error
}

// Options configures a Model.
type Options struct {
	Session     *game.Session
	History     *scoring.History
	Names       NameStore
	Ranking     Ranking
	SettleDelay time.Duration
	// Bell receives a terminal bell on mismatches and completions; nil
	// keeps the game silent.
	Bell io.Writer
	// AskName shows the name prompt before the first game.
	AskName bool
}

// TickMsg refreshes the clock on the status line.
type TickMsg time.Time

type settleMsg struct {
	ticket state.SettleTicket
}

type healthMsg struct {
	err error
}

type recordedMsg struct {
	outcome game.Outcome
	err     error
}

type rankingMsg struct {
	tab     rankingTab
	entries []leaderboard.Entry
	err     error
}

// Model is the Bubble Tea model for a play session.
type Model struct {
	Session *game.Session

	history     *scoring.History
	names       NameStore
	ranking     Ranking
	settleDelay time.Duration
	bell        io.Writer
	now         func() time.Time

	screen    screen
	back      screen
	cursor    int
	keys      KeyMap
	help      help.Model
	nameInput textinput.Model
	table     table.Model

	message    string
	nameErr    string
	conn       connStatus
	recording  bool
	outcome    *game.Outcome
	recordErr  error
	history5   []scoring.HistoryEntry
	tableErr   error
	rankingTab rankingTab
	width      int
	height     int
}

// NewModel creates the model for opts.Session.
func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = scoring.AnonymousPlayer
	ti.CharLimit = leaderboard.MaxNameLength
	ti.Prompt = "Name: "

	m := &Model{
		Session:     opts.Session,
		history:     opts.History,
		names:       opts.Names,
		ranking:     opts.Ranking,
		settleDelay: opts.SettleDelay,
		bell:        opts.Bell,
		now:         time.Now,
		screen:      screenPlay,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		nameInput:   ti,
		width:       80,
		height:      24,
	}
	if m.settleDelay <= 0 {
		m.settleDelay = DefaultSettleDelay
	}
	if m.ranking != nil {
		m.conn = connUnknown
	}

	if m.Session.PlayerName == "" && m.names != nil {
		if name := m.names.PlayerName(); leaderboard.ValidName(name) {
			m.Session.PlayerName = name
		}
	}
	if opts.AskName {
		m.screen = screenName
		m.nameInput.SetValue(m.Session.PlayerName)
		m.nameInput.Focus()
	}
	m.table = m.newTable(nil)
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) settleCmd(ticket state.SettleTicket) tea.Cmd {
	return tea.Tick(m.settleDelay, func(time.Time) tea.Msg {
		return settleMsg{ticket: ticket}
	})
}

func (m *Model) healthCmd() tea.Cmd {
	if m.ranking == nil {
		return nil
	}
	r := m.ranking
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return healthMsg{err: r.Health(ctx)}
	}
}

func (m *Model) recordCmd() tea.Cmd {
	sess := m.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		outcome, err := sess.Record(ctx)
		return recordedMsg{outcome: outcome, err: err}
	}
}

func (m *Model) rankingCmd(tab rankingTab) tea.Cmd {
	r := m.ranking
	name := m.Session.PlayerName
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			entries []leaderboard.Entry
			err     error
		)
		if tab == tabPlayer {
			entries, err = r.Player(ctx, name)
		} else {
			entries, err = r.Global(ctx, "", leaderboard.MaxGlobalEntries)
		}
		return rankingMsg{tab: tab, entries: entries, err: err}
	}
}

func (m *Model) bellCmd() tea.Cmd {
	if m.bell == nil {
		return nil
	}
	w := m.bell
	return func() tea.Msg {
		_, _ = io.WriteString(w, "\a")
		return nil
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.healthCmd()}
	if m.screen == screenName {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case settleMsg:
		return m, m.handleEvents(m.Session.Settle(msg.ticket))

	case healthMsg:
		if msg.err != nil {
			m.conn = connOffline
		} else {
			m.conn = connOnline
		}
		return m, nil

	case recordedMsg:
		m.recording = false
		m.recordErr = msg.err
		if !errors.Is(msg.err, game.ErrNotFinished) {
			m.outcome = &msg.outcome
			if msg.outcome.Offline {
				m.conn = connOffline
			} else if msg.outcome.Submitted {
				m.conn = connOnline
			}
		}
		if m.history != nil {
			if sh, err := m.history.Load(); err == nil {
				m.history5 = sh.GetNScoreEntries(5)
			}
		}
		return m, nil

	case rankingMsg:
		if m.screen != screenRanking || msg.tab != m.rankingTab {
			return m, nil
		}
		m.tableErr = msg.err
		if msg.err != nil {
			m.conn = connOffline
			m.table.SetRows(nil)
			return m, nil
		}
		m.conn = connOnline
		m.table.SetRows(rankingRows(msg.entries))
		m.table.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenName:
			return m.updateName(msg)
		case screenPlay:
			return m.updatePlay(msg)
		case screenResult:
			return m.updateResult(msg)
		case screenHistory, screenRanking:
			return m.updateTable(msg)
		}
	}

	if m.screen == screenName {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name != "" && !leaderboard.ValidName(name) {
			m.nameErr = fmt.Sprintf("Name must be between %d and %d characters.", leaderboard.MinNameLength, leaderboard.MaxNameLength)
			return m, nil
		}
		m.nameErr = ""
		m.Session.PlayerName = name
		if name != "" && m.names != nil {
			if err := m.names.SetPlayerName(name); err != nil {
				m.message = "Could not remember your name: " + err.Error()
			}
		}
		m.nameInput.Blur()
		m.screen = screenPlay
		return m, nil
	case "esc":
		m.nameInput.Blur()
		m.screen = screenPlay
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.columns()
	total := len(m.Session.CurrentGame.State.Cards)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor-cols >= 0 {
			m.cursor -= cols
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor+cols < total {
			m.cursor += cols
		}
	case key.Matches(msg, m.keys.Left):
		if m.cursor%cols > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor%cols < cols-1 && m.cursor+1 < total {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Flip):
		return m, m.handleEvents(m.Session.Flip(m.cursor))
	case key.Matches(msg, m.keys.Restart):
		return m, m.restart(m.Session.Difficulty.Name)
	case key.Matches(msg, m.keys.Difficulty):
		return m, m.restart(m.nextDifficulty())
	case key.Matches(msg, m.keys.History):
		m.openHistory()
	case key.Matches(msg, m.keys.Ranking):
		return m, m.openRanking()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Restart), key.Matches(msg, m.keys.Flip):
		return m, m.restart(m.Session.Difficulty.Name)
	case key.Matches(msg, m.keys.Difficulty):
		return m, m.restart(m.nextDifficulty())
	case key.Matches(msg, m.keys.History):
		// The history file is being written until the record finishes.
		if !m.recording {
			m.openHistory()
		}
	case key.Matches(msg, m.keys.Ranking):
		return m, m.openRanking()
	}
	return m, nil
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.screen = m.back
		return m, nil
	case m.screen == screenRanking && key.Matches(msg, m.keys.Tab):
		m.rankingTab = (m.rankingTab + 1) % 2
		return m, m.loadRanking()
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleEvents reacts to engine events and schedules follow-up commands.
func (m *Model) handleEvents(events []state.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range events {
		switch e.Kind {
		case state.MatchFound:
			m.message = greenStyle.Render("Match! +" + itoa(e.Points))
		case state.MismatchFound:
			m.message = redStyle.Render("No match.")
			cmds = append(cmds, m.settleCmd(e.Ticket), m.bellCmd())
		case state.CardsSettled:
			m.message = ""
		case state.SessionComplete:
			m.screen = screenResult
			m.recording = true
			m.outcome = nil
			m.recordErr = nil
			cmds = append(cmds, m.recordCmd(), m.bellCmd())
		}
	}
	return tea.Batch(cmds...)
}

// restart deals a new game. It waits while the finished game is still
// being recorded, since recording reads the current game.
func (m *Model) restart(difficulty string) tea.Cmd {
	if m.recording {
		return nil
	}
	if err := m.Session.Start(difficulty); err != nil {
		m.message = redStyle.Render(err.Error())
		return nil
	}
	m.screen = screenPlay
	m.cursor = 0
	m.message = ""
	m.outcome = nil
	return nil
}

func (m *Model) nextDifficulty() string {
	names := m.Session.Table.Names()
	for i, n := range names {
		if n == m.Session.Difficulty.Name {
			return names[(i+1)%len(names)]
		}
	}
	return m.Session.Difficulty.Name
}

func (m *Model) openHistory() {
	m.back = m.screen
	m.screen = screenHistory
	m.tableErr = nil
	m.table = m.newTable(historyColumns())
	if m.history == nil {
		return
	}
	sh, err := m.history.Load()
	if err != nil {
		m.tableErr = err
		return
	}
	m.table.SetRows(historyRows(sh.Entries))
}

func (m *Model) openRanking() tea.Cmd {
	m.back = m.screen
	m.screen = screenRanking
	return m.loadRanking()
}

func (m *Model) loadRanking() tea.Cmd {
	m.tableErr = nil
	m.table = m.newTable(rankingColumns())
	if m.ranking == nil {
		return nil
	}
	if m.rankingTab == tabPlayer && strings.TrimSpace(m.Session.PlayerName) == "" {
		return nil
	}
	return m.rankingCmd(m.rankingTab)
}

func (m *Model) columns() int {
	cols := m.Session.Difficulty.Columns
	if cols <= 0 {
		cols = 4
	}
	return cols
}

func (m *Model) tableHeight() int {
	return max(5, m.height-8)
}

func (m *Model) newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	t.SetStyles(tableStyles())
	return t
}
