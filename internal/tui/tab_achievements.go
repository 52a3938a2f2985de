package tui

import (
	"strings"

	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderAchievementsTab(snap state.Snapshot, cw int) string {
	t := theme.Active
	v := view.Achievements(snap.Achievements)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	lockedStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var earned strings.Builder
	if v.EarnedEmpty != "" {
		earned.WriteString(descStyle.Render(v.EarnedEmpty))
	}
	for i, c := range v.Earned {
		if i > 0 {
			earned.WriteString("\n")
		}
		earned.WriteString(nameStyle.Render(c.Emoji + " " + c.Name))
		earned.WriteString("\n")
		earned.WriteString(descStyle.Render("   " + c.Description))
	}

	out := components.ContentCard("🏆 Полученные", earned.String(), cw)
	if !v.ShowLocked {
		return out
	}

	var locked strings.Builder
	for i, c := range v.Locked {
		if i > 0 {
			locked.WriteString("\n")
		}
		locked.WriteString(lockedStyle.Render(c.Emoji + " " + c.Name + " · " + c.Description))
	}
	return out + "\n" + components.ContentCard("Ещё не открыты", locked.String(), cw)
}
