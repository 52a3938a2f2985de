// Package theme defines color themes for the subkill TUI dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	SurfaceHover lipgloss.Color // Selected card, active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // Modal and focused card borders
	TextDim      lipgloss.Color // Hints, cancelled subscriptions
	TextMuted    lipgloss.Color // Labels, meta lines
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	// Money roles.
	Spend lipgloss.Color // what the user pays
	Waste lipgloss.Color // money burnt on unused subscriptions
	Saved lipgloss.Color // money saved by cancelling
	Trial lipgloss.Color // trial badges
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Spend:        lipgloss.Color("#4385BE"),
	Waste:        lipgloss.Color("#D14D41"),
	Saved:        lipgloss.Color("#879A39"),
	Trial:        lipgloss.Color("#D0A215"),
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	AccentBright: lipgloss.Color("#B4D0FB"),
	Spend:        lipgloss.Color("#89B4FA"),
	Waste:        lipgloss.Color("#F38BA8"),
	Saved:        lipgloss.Color("#A6E3A1"),
	Trial:        lipgloss.Color("#F9E2AF"),
}

// Telegram mirrors the dark palette of the mini-app.
var Telegram = Theme{
	Name:         "telegram",
	Background:   lipgloss.Color("#17212B"),
	Surface:      lipgloss.Color("#232E3C"),
	SurfaceHover: lipgloss.Color("#2B5278"),
	Border:       lipgloss.Color("#304050"),
	BorderAccent: lipgloss.Color("#5288C1"),
	TextDim:      lipgloss.Color("#5D6D7E"),
	TextMuted:    lipgloss.Color("#708499"),
	TextPrimary:  lipgloss.Color("#F5F5F5"),
	Accent:       lipgloss.Color("#5288C1"),
	AccentBright: lipgloss.Color("#6AB3F3"),
	Spend:        lipgloss.Color("#6AB3F3"),
	Waste:        lipgloss.Color("#FF3B30"),
	Saved:        lipgloss.Color("#4CD964"),
	Trial:        lipgloss.Color("#FFCC00"),
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Spend:        lipgloss.Color("4"),
	Waste:        lipgloss.Color("1"),
	Saved:        lipgloss.Color("2"),
	Trial:        lipgloss.Color("3"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, Telegram, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// ForCardClass picks the name color for a subscription card class.
func (t Theme) ForCardClass(class string) lipgloss.Color {
	switch class {
	case "cancelled":
		return t.TextDim
	case "trial":
		return t.Trial
	case "unused":
		return t.Waste
	case "active-used":
		return t.Saved
	}
	return t.TextPrimary
}
