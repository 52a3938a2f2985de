package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// barBlocks are eighth-width blocks for sub-cell bar precision.
var barBlocks = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// CategoryBars renders the category breakdown as horizontal bars scaled to
// the largest category. Rows are expected in display order.
func CategoryBars(rows []view.CategoryRow, width int) string {
	if len(rows) == 0 {
		return ""
	}
	t := theme.Active

	nameW := 0
	labelW := 0
	peak := 0.0
	for _, r := range rows {
		nameW = max(nameW, lipgloss.Width(r.Name))
		labelW = max(labelW, lipgloss.Width(r.Label))
		peak = max(peak, r.Amount)
	}
	nameW = min(nameW, width/3)
	barW := max(width-nameW-labelW-4, 4)
	if peak <= 0 {
		peak = 1
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Spend).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	fill := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		name := truncateWidth(r.Name, nameW)
		bar := hbar(r.Amount/peak, barW)
		lines = append(lines,
			nameStyle.Render(name)+
				fill.Render(strings.Repeat(" ", nameW-lipgloss.Width(name)+1))+
				barStyle.Render(bar)+
				fill.Render(strings.Repeat(" ", barW-lipgloss.Width(bar)+1))+
				labelStyle.Render(fmt.Sprintf("%*s", labelW, r.Label)))
	}
	return strings.Join(lines, "\n")
}

// hbar renders frac (0-1) of width cells using eighth blocks.
func hbar(frac float64, width int) string {
	frac = clamp01(frac)
	eighths := int(frac * float64(width*8))
	full := eighths / 8
	rem := eighths % 8

	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	if rem > 0 {
		b.WriteRune(barBlocks[rem-1])
	}
	if frac > 0 && full == 0 && rem == 0 {
		b.WriteRune(barBlocks[0])
	}
	return b.String()
}

func truncateWidth(s string, limit int) string {
	if lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
