package ui

import (
	"fmt"
	"io"

	"go-pairs/internal/config"
	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

func printTable(w io.Writer, headers []string, rows [][]string) error {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return boldStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// PrintHistory writes the local history as a table, newest first.
func PrintHistory(w io.Writer, entries []scoring.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No games played yet.")
		return err
	}
	rows := historyRows(entries)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return printTable(w, columnTitles(historyColumns()), out)
}

// PrintRanking writes leaderboard entries as a table in rank order.
func PrintRanking(w io.Writer, entries []leaderboard.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No rankings yet.")
		return err
	}
	rows := rankingRows(entries)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return printTable(w, columnTitles(rankingColumns()), out)
}

// PrintDifficulties writes the difficulty table.
func PrintDifficulties(w io.Writer, t config.Table) error {
	var rows [][]string
	for _, d := range t.Difficulties() {
		rows = append(rows, []string{
			d.Name,
			itoa(d.Pairs),
			itoa(d.Cards()),
			fmt.Sprintf("%.1fx", d.Multiplier),
			itoa(d.BaseScore),
			itoa(d.TimeBonus),
			itoa(d.PerfectBonus),
		})
	}
	return printTable(w, []string{"Level", "Pairs", "Cards", "Mult", "Base", "Time bonus", "Perfect"}, rows)
}
