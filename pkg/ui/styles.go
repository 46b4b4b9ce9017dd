package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Primary   = lipgloss.Color("#7D56F4")
	Secondary = lipgloss.Color("#00D4AA")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
	Bright  = lipgloss.Color("#FAFAFA")

	// Interest tiers
	TierHigh   = lipgloss.Color("#FF6B6B")
	TierMedium = lipgloss.Color("#FFD93D")
	TierLow    = lipgloss.Color("#6BCB77")
)

// Pre-configured styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Bright).
			Background(Primary).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Bold(true).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	OKStyle = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Primary)
)

// GradeStyle colors a security grade.
func GradeStyle(grade string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch grade {
	case "A", "B":
		return base.Foreground(lipgloss.Color("#000000")).Background(Success)
	case "C":
		return base.Foreground(lipgloss.Color("#000000")).Background(Warning)
	default:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Error)
	}
}

// TierStyle colors an interest tier label.
func TierStyle(tier string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch tier {
	case "high":
		return base.Foreground(TierHigh)
	case "medium":
		return base.Foreground(TierMedium)
	case "low":
		return base.Foreground(TierLow)
	default:
		return base.Foreground(Muted)
	}
}
