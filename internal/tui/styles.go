package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the dashboard.
type Theme struct {
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color
	Primary       lipgloss.Color
	Accent        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Border        lipgloss.Color
	Selection     lipgloss.Color
}

var TokyoNight = Theme{
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),
	Primary:       lipgloss.Color("#7aa2f7"),
	Accent:        lipgloss.Color("#7dcfff"),
	Success:       lipgloss.Color("#9ece6a"),
	Warning:       lipgloss.Color("#e0af68"),
	Error:         lipgloss.Color("#f7768e"),
	Border:        lipgloss.Color("#3b4261"),
	Selection:     lipgloss.Color("#33467c"),
}

const MaxWidth = 100

func contentWidth(terminalWidth int) int {
	if terminalWidth <= 0 || terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

type Styles struct {
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Badge       lipgloss.Style
	Card        lipgloss.Style
	CardTitle   lipgloss.Style
	Up          lipgloss.Style
	Down        lipgloss.Style
	Row         lipgloss.Style
	RowSelected lipgloss.Style
	Overdue     lipgloss.Style
	Error       lipgloss.Style
	Flash       lipgloss.Style
	StatusBar   lipgloss.Style
}

func NewStyles(t Theme) *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Tab: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 2),

		TabActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Error).
			Padding(0, 1).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1).
			MarginRight(1),

		CardTitle: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		Up: lipgloss.NewStyle().
			Foreground(t.Warning),

		Down: lipgloss.NewStyle().
			Foreground(t.Success),

		Row: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		RowSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		Overdue: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(t.Error),

		Flash: lipgloss.NewStyle().
			Foreground(t.Success),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
	}
}
