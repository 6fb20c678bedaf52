package ui

import "github.com/charmbracelet/lipgloss"

var (
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // mismatches, offline
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // matches, online
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // status line
	boldStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	activeTab   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	faceUpBorder   = lipgloss.Color("11")
	matchedBorder  = lipgloss.Color("10")
	mismatchBorder = lipgloss.Color("9")
	cursorBorder   = lipgloss.Color("212")
)

// ratingStyles colours each performance tier on the result screen.
var ratingStyles = map[string]lipgloss.Style{
	"perfect":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
	"excellent": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	"good":      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
	"average":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	"practice":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
}
