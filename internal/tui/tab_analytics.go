package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderAnalyticsTab(snap state.Snapshot, cw int) string {
	t := theme.Active
	panel := view.Analytics(snap.Analytics)

	if !panel.Visible {
		emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)
		return "\n" + emptyStyle.Render("  Аналитика ещё не загружена")
	}

	var b strings.Builder

	if panel.PainBanner {
		b.WriteString(a.painBanner(cw))
		b.WriteString("\n")
	}

	// Health score
	healthBody := components.HealthBar(panel.HealthScore, max(components.CardInnerWidth(cw)-12, 10))
	b.WriteString(components.ContentCard(panel.HealthEmoji+" Здоровье подписок", healthBody, cw))
	b.WriteString("\n")

	// Money tiles
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Траты в месяц", Value: panel.TotalMonthly, Color: t.Spend},
		{Label: "Впустую", Value: panel.WastedMonthly, Color: t.Waste},
		{Label: "Сэкономлено", Value: panel.SavedMonthly, Color: t.Saved},
	}, cw))
	b.WriteString("\n")
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Траты в год", Value: panel.TotalYearly},
		{Label: "Впустую в год", Value: panel.WastedYearly, Color: t.Waste},
		{Label: "Активных / отменено", Value: strconv.Itoa(panel.ActiveCount) + " / " + strconv.Itoa(panel.CancelledCount)},
	}, cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)

	// Investments
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	savedStyle := lipgloss.NewStyle().Foreground(t.Saved).Background(t.Surface).Bold(true)
	investBody := mutedStyle.Render("Если вкладывать впустую потраченное в S&P 500:") + "\n" +
		mutedStyle.Render("через 5 лет  ") + savedStyle.Render(panel.Invest5y) + "\n" +
		mutedStyle.Render("через 10 лет ") + savedStyle.Render(panel.Invest10y)
	investCard := components.ContentCard("📈 Инвестиции", investBody, halves[0])

	// Categories
	catBody := components.CategoryBars(panel.Categories, components.CardInnerWidth(halves[1]))
	if catBody == "" {
		catBody = mutedStyle.Render(panel.CategoriesEmpty)
	}
	catCard := components.ContentCard(fmt.Sprintf("📁 По категориям (%d)", len(panel.Categories)), catBody, halves[1])

	b.WriteString(components.CardRow([]string{investCard, catCard}))
	return b.String()
}
