package tui

import "github.com/charmbracelet/lipgloss"

// ────────────────────────────────────────────────────────────
// Palette
// ────────────────────────────────────────────────────────────
//
// Every color lives here. The tab bar fade blends these toward colorBg,
// so each entry must stay a #rrggbb literal.

var (
	colorBg        = lipgloss.Color("#0f1512")
	colorBgPanel   = lipgloss.Color("#17201b")
	colorBgSurface = lipgloss.Color("#1e2923")

	colorText      = lipgloss.Color("#e8f0ea")
	colorTextDim   = lipgloss.Color("#94a89b")
	colorTextMuted = lipgloss.Color("#4d5d53")

	colorBlue   = lipgloss.Color("#5fb3f9")
	colorGreen  = lipgloss.Color("#4cd07d")
	colorRed    = lipgloss.Color("#ef5f57")
	colorYellow = lipgloss.Color("#f0b441")
	colorPurple = lipgloss.Color("#b592ff")
	colorCyan   = lipgloss.Color("#6fdcc9")

	colorDivider   = lipgloss.Color("#2c3a32")
	colorHighlight = lipgloss.Color("#2f7d57")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorGreen)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	headerPointsStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorYellow)
)

// Screen chrome
var (
	screenStyle = lipgloss.NewStyle().
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			MarginTop(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDivider).
			Padding(0, 1)

	cardSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBlue).
				Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	goodStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	badStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	pointsStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(2, 4)
)

// Lists and sub-tabs
var (
	itemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true).
				Padding(0, 1)

	subTabStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Padding(0, 1)

	subTabActiveStyle = lipgloss.NewStyle().
				Foreground(colorBg).
				Background(colorBlue).
				Bold(true).
				Padding(0, 1)

	chartBarStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	chartBarPeakStyle = lipgloss.NewStyle().
				Foreground(colorGreen)
)

// Modal
var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBlue).
			Background(colorBgPanel).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgSurface).
				Bold(true).
				Padding(0, 1)
)

// Search bar
var (
	searchBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)
)

// Onboarding
var (
	onboardingIconStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	dotStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dotActiveStyle = lipgloss.NewStyle().
			Foreground(colorBlue)
)
