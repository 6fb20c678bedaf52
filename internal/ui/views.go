package ui

import (
	"fmt"
	"strconv"
	"strings"

	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"
	"go-pairs/internal/state"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const faceDown = "░░"

func (m *Model) View() string {
	switch m.screen {
	case screenName:
		return m.viewName()
	case screenResult:
		return m.viewResult()
	case screenHistory:
		return m.viewTable("HISTORY", "")
	case screenRanking:
		return m.viewTable("RANKING", m.viewTabs())
	}
	return m.viewPlay()
}

func (m *Model) viewName() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PAIRS") + "\n\n")
	b.WriteString("Who is playing? Leave empty to play as " + scoring.AnonymousPlayer + ".\n\n")
	b.WriteString(m.nameInput.View() + "\n")
	if m.nameErr != "" {
		b.WriteString(redStyle.Render(m.nameErr) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: start • esc: skip • ctrl+c: quit"))
	return b.String()
}

func (m *Model) viewPlay() string {
	st := m.Session.CurrentGame.State
	display := titleStyle.Render("PAIRS · "+strings.ToUpper(st.Difficulty.Name)) + "\n"
	display += m.RenderBoard() + "\n"
	display += scoreStyle.Render(m.statusLine()) + "\n"
	if m.message != "" {
		display += m.message + "\n"
	}
	display += "\n" + helpStyle.Render(m.help.View(m.keys))
	return display
}

// RenderBoard draws the cards in a grid with the cursor highlighted.
func (m *Model) RenderBoard() string {
	st := m.Session.CurrentGame.State
	cols := m.columns()
	_, pending := st.Pending()

	var rows []string
	for start := 0; start < len(st.Cards); start += cols {
		end := min(start+cols, len(st.Cards))
		cells := make([]string, 0, cols)
		for _, c := range st.Cards[start:end] {
			cells = append(cells, m.renderCard(c, pending))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderCard(c state.Card, pending bool) string {
	style := cardStyle
	face := faceDown

	switch {
	case c.Matched:
		face = c.Value
		style = style.BorderForeground(matchedBorder).Faint(true)
	case c.Flipped && pending:
		face = c.Value
		style = style.BorderForeground(mismatchBorder)
	case c.Flipped:
		face = c.Value
		style = style.BorderForeground(faceUpBorder)
	}
	if c.Index == m.cursor && m.screen == screenPlay {
		style = style.BorderForeground(cursorBorder).Bold(true).Faint(false)
	}
	return style.Render(face)
}

func (m *Model) statusLine() string {
	st := m.Session.CurrentGame.State
	elapsed := scoring.FormatElapsed(m.now().Sub(st.StartedAt))
	if st.Result != nil {
		elapsed = st.Result.ElapsedTime
	}

	line := "SCORE: " + itoa(st.Score) + " | " +
		"MOVES: " + itoa(st.Moves) + " | " +
		"PAIRS: " + fmt.Sprintf("%d/%d", st.MatchedPairs, st.Difficulty.Pairs) + " | " +
		"TIME: " + elapsed
	if name := m.Session.PlayerName; name != "" {
		line += " | " + name
	}
	return line + m.connBadge()
}

func (m *Model) connBadge() string {
	switch m.conn {
	case connOnline:
		return " " + greenStyle.Render("● online")
	case connOffline:
		return " " + redStyle.Render("○ offline")
	case connUnknown:
		return " " + helpStyle.Render("○ connecting")
	}
	return ""
}

func (m *Model) viewResult() string {
	st := m.Session.CurrentGame.State
	var b strings.Builder

	b.WriteString(m.RenderBoard() + "\n\n")

	if st.Result == nil {
		return b.String()
	}
	r := *st.Result
	rating := scoring.Performance(st.Difficulty.Pairs, r.Moves)
	b.WriteString(ratingStyles[rating.Tier].Render(rating.Label) + "\n")
	b.WriteString(greenStyle.Render(fmt.Sprintf("Final score: %d", r.Score)) + "\n")
	b.WriteString(fmt.Sprintf("  Matches:       %d\n", st.Score))
	b.WriteString(fmt.Sprintf("  Time bonus:    %d\n", r.TimeBonus))
	b.WriteString(fmt.Sprintf("  Perfect bonus: %d\n", r.PerfectBonus))
	b.WriteString(fmt.Sprintf("  Moves: %d | Time: %s | Efficiency: %d%%\n", r.Moves, r.ElapsedTime, r.EfficiencyPercent))

	if m.recordErr != nil {
		b.WriteString("\n" + redStyle.Render("Could not save score: "+m.recordErr.Error()) + "\n")
	}
	switch {
	case m.recording:
		b.WriteString("\nSaving score...\n")
	case m.outcome != nil:
		if m.outcome.HighScore {
			b.WriteString("\n" + boldStyle.Render("You got a high score! Top 5 scores:"))
			for _, e := range m.history5 {
				b.WriteString(fmt.Sprintf("\n  * %d by %s on %s (%s)", e.Score, e.PlayerName, e.Date.Format("Jan 02 15:04"), e.Difficulty))
			}
			b.WriteString("\n")
		}
		if m.outcome.Submitted {
			b.WriteString("\n" + greenStyle.Render("Score submitted to the global ranking.") + "\n")
		} else if m.outcome.Offline {
			b.WriteString("\n" + redStyle.Render("Ranking server offline: score saved locally.") + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("r: play again • d: next difficulty • s: history • g: ranking • q: quit"))
	return b.String()
}

func (m *Model) viewTabs() string {
	global, mine := inactiveTab, inactiveTab
	if m.rankingTab == tabGlobal {
		global = activeTab
	} else {
		mine = activeTab
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, global.Render("Global"), mine.Render("Mine"))
}

func (m *Model) viewTable(title, tabs string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + m.connBadge() + "\n")
	if tabs != "" {
		b.WriteString(tabs + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.tableErr != nil:
		b.WriteString(redStyle.Render("Could not load: "+m.tableErr.Error()) + "\n")
	case m.screen == screenRanking && m.ranking == nil:
		b.WriteString("No ranking server configured (use --server).\n")
	case m.screen == screenRanking && m.rankingTab == tabPlayer && strings.TrimSpace(m.Session.PlayerName) == "":
		b.WriteString("Play under a name to see your own ranking.\n")
	case len(m.table.Rows()) == 0:
		b.WriteString("Nothing here yet.\n")
	default:
		b.WriteString(m.table.View() + "\n")
	}

	keys := "↑/↓: scroll • esc: back • q: quit"
	if m.screen == screenRanking {
		keys = "tab: global/mine • " + keys
	}
	b.WriteString("\n" + helpStyle.Render(keys))
	return b.String()
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "Player", Width: 14},
		{Title: "Score", Width: 7},
		{Title: "Moves", Width: 6},
		{Title: "Time", Width: 6},
		{Title: "Level", Width: 7},
		{Title: "Eff", Width: 5},
		{Title: "Date", Width: 13},
	}
}

func historyRows(entries []scoring.HistoryEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			itoa(i + 1),
			e.PlayerName,
			itoa(e.Score),
			itoa(e.Moves),
			e.ElapsedTime,
			e.Difficulty,
			itoa(e.EfficiencyPercent) + "%",
			e.Date.Local().Format("Jan 02 15:04"),
		}
	}
	return rows
}

func rankingColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Player", Width: 20},
		{Title: "Score", Width: 7},
		{Title: "Moves", Width: 6},
		{Title: "Time", Width: 6},
		{Title: "Level", Width: 7},
		{Title: "Eff", Width: 5},
		{Title: "Rating", Width: 18},
	}
}

func rankingRows(entries []leaderboard.Entry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			itoa(i + 1),
			e.PlayerName,
			itoa(e.Score),
			itoa(e.Moves),
			e.Time,
			e.Difficulty,
			itoa(e.Efficiency) + "%",
			scoring.Rate(e.Efficiency).Label,
		}
	}
	return rows
}

func columnTitles(cols []table.Column) []string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	return titles
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
