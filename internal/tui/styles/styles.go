package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	GiphyPurple = lipgloss.Color("#9933FF")
	GiphyGreen  = lipgloss.Color("#00FF99")
	SlateDark   = lipgloss.Color("#1F2937")
	SlateLight  = lipgloss.Color("#374151")
	DimGray     = lipgloss.Color("#6B7280")
	LightGray   = lipgloss.Color("#9CA3AF")
	White       = lipgloss.Color("#F9FAFB")
	Red         = lipgloss.Color("#EF4444")
	Yellow      = lipgloss.Color("#FBBF24")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(GiphyPurple)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(GiphyPurple)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(GiphyGreen)

	LabelStyle = lipgloss.NewStyle().
			Foreground(DimGray).
			Width(10)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	MatchStyle = lipgloss.NewStyle().
			Foreground(GiphyGreen).
			Bold(true)

	MatchSelectedStyle = lipgloss.NewStyle().
				Foreground(GiphyGreen).
				Background(SlateLight).
				Bold(true)
)

// Badge styles, one per content rating
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(GiphyPurple).
			Padding(0, 1)

	MatureBadgeStyle = lipgloss.NewStyle().
				Foreground(SlateDark).
				Background(Yellow).
				Padding(0, 1)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(GiphyPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(GiphyPurple)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

var SpinnerStyle = lipgloss.NewStyle().Foreground(GiphyPurple)

// RatingBadge renders a rating such as "pg-13" as an uppercase badge
func RatingBadge(rating string) string {
	if rating == "" {
		return ""
	}
	label := strings.ToUpper(rating)
	if label == "R" || label == "PG-13" {
		return MatureBadgeStyle.Render(label)
	}
	return BadgeStyle.Render(label)
}

// Truncate shortens s to width runes, ending in an ellipsis when cut
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
