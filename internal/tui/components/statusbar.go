package components

import (
	"strings"

	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar shows.
type StatusInfo struct {
	Toast    string // replaces the key hints while set
	Badge    view.UserBadge
	DataAge  string
	Busy     bool
	Offline  bool
	KeyHints string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Foreground(t.TextMuted)
	toastStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Foreground(t.AccentBright).
		Bold(true)
	premiumStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Foreground(t.Trial).
		Bold(true)
	savedStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Foreground(t.Saved)

	left := barStyle.Render(" " + info.KeyHints)
	if info.Toast != "" {
		left = toastStyle.Render(" " + info.Toast)
	}

	var right []string
	if info.Badge.Name != "" {
		name := barStyle.Render(info.Badge.Name)
		if info.Badge.Premium {
			name = premiumStyle.Render("⭐ ") + name
		}
		right = append(right, name+barStyle.Render(" · ")+savedStyle.Render("💰 "+info.Badge.Saved))
	}
	switch {
	case info.Busy:
		right = append(right, barStyle.Render("⟳"))
	case info.Offline:
		right = append(right, barStyle.Render("офлайн"))
	}
	if info.DataAge != "" {
		right = append(right, barStyle.Render(info.DataAge))
	}
	rightStr := strings.Join(right, barStyle.Render("  ")) + barStyle.Render(" ")

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)
	return left + barStyle.Render(strings.Repeat(" ", padding)) + rightStr
}
