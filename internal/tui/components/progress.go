package components

import (
	"fmt"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// HealthBar renders the health score as a bar colored by score band.
func HealthBar(score int, barWidth int) string {
	t := theme.Active
	color := cli.ScoreColor(score)
	pct := clamp01(float64(score) / 100)

	bar := progress.New(
		progress.WithSolidFill(color),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	scoreStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(pct) + spaceStyle.Render(" ") + scoreStyle.Render(fmt.Sprintf("%d/100", score))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
