// Package components provides reusable TUI widgets for the subkill dashboard.
package components

import (
	"strings"

	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Metric is one money tile of the analytics tab.
type Metric struct {
	Label string
	Value string
	Color lipgloss.Color // value color; TextPrimary when empty
}

// MetricCard renders a small metric card with a label and a colored value.
// outerWidth is the total rendered width including border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	contentWidth := max(outerWidth-2, 10) // subtract border

	color := m.Color
	if color == "" {
		color = t.TextPrimary
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)

	return cardStyle.Render(labelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value))
}

// MetricCardRow renders a row of metric cards side by side.
// totalWidth is the full row width; cards sum to exactly that.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(metrics))

	rendered := make([]string, 0, len(metrics))
	for i, m := range metrics {
		rendered = append(rendered, MetricCard(m, widths[i]))
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered content card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active

	contentWidth := max(outerWidth-2, 10) // subtract border chars

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += body

	return cardStyle.Render(content)
}

// CardRow joins pre-rendered card strings horizontally. Shorter cards are
// padded with the background color so the row has no unstyled gaps.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	t := theme.Active

	tallest := 0
	for _, c := range cards {
		tallest = max(tallest, lipgloss.Height(c))
	}

	padded := make([]string, len(cards))
	for i, c := range cards {
		padded[i] = lipgloss.PlaceVertical(tallest, lipgloss.Top, c,
			lipgloss.WithWhitespaceBackground(t.Background))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10) // 2 border + 2 padding
}

// SubscriptionRow renders one subscription card as a two-line list entry.
func SubscriptionRow(card view.SubscriptionCard, selected bool, width int) string {
	t := theme.Active

	bg := t.Surface
	marker := "  "
	if selected {
		bg = t.SurfaceHover
		marker = "▶ "
	}

	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(bg)
	nameStyle := lipgloss.NewStyle().Foreground(t.ForCardClass(card.Class)).Background(bg).Bold(true)
	priceStyle := lipgloss.NewStyle().Foreground(t.Spend).Background(bg).Bold(true)
	periodStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(bg)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(bg)
	fill := lipgloss.NewStyle().Background(bg)

	if card.Class == "cancelled" {
		nameStyle = nameStyle.Strikethrough(true)
		priceStyle = priceStyle.Foreground(t.TextDim)
	}

	left := markerStyle.Render(marker) + fill.Render(card.Icon+" ") + nameStyle.Render(card.Name) +
		fill.Render(" "+card.Usage)
	right := priceStyle.Render(card.Price) + periodStyle.Render(card.Period+" ")
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	line1 := left + fill.Render(strings.Repeat(" ", gap)) + right

	meta := fill.Render("    ") + metaStyle.Render(card.Meta)
	line2 := meta + fill.Render(strings.Repeat(" ", max(width-lipgloss.Width(meta), 0)))

	return line1 + "\n" + line2
}
