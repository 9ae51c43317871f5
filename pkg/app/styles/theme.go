package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	Primary    = lipgloss.Color("#E4572E")
	Secondary  = lipgloss.Color("#F3A712")
	Success    = lipgloss.Color("#A8C686")
	Warning    = lipgloss.Color("#F3A712")
	Error      = lipgloss.Color("#D64550")
	Info       = lipgloss.Color("#669BBC")
	Muted      = lipgloss.Color("#6C757D")
	Surface    = lipgloss.Color("#2B2D42")
	Foreground = lipgloss.Color("#EDF2F4")

	RoundedBorder = lipgloss.RoundedBorder()
	ThickBorder   = lipgloss.ThickBorder()
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(Foreground)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Series cards in lists
	CardStyle = lipgloss.NewStyle().
			Border(RoundedBorder).
			BorderForeground(Muted).
			Padding(0, 1)

	ActiveCardStyle = lipgloss.NewStyle().
			Border(ThickBorder).
			BorderForeground(Primary).
			Padding(0, 1)

	// Badges next to series titles
	HotBadge = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Primary).
			Padding(0, 1).
			Bold(true)

	TagStyle = lipgloss.NewStyle().
			Foreground(Info)

	ViewsStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Border(RoundedBorder).
			BorderForeground(Muted).
			Padding(1, 4).
			Align(lipgloss.Center)

	StatusActive = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	StatusCompleted = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	StatusError = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	ProgressBarStyle = lipgloss.NewStyle().
				Foreground(Primary)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Surface).
			Padding(0, 2).
			Bold(true)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Padding(0, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true).
			MarginTop(1)

	InputStyle = lipgloss.NewStyle().
			Border(RoundedBorder).
			BorderForeground(Muted).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(RoundedBorder).
				BorderForeground(Primary).
				Padding(0, 1)
)

// StatusStyle picks the style for an import status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "downloading", "storing":
		return StatusActive
	case "complete":
		return StatusCompleted
	case "error":
		return StatusError
	default:
		return MutedStyle
	}
}
