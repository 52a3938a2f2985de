package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// rowHeight is the number of lines one SubscriptionRow occupies.
const rowHeight = 2

func (a App) subscriptionCards() []view.SubscriptionCard {
	return view.Subscriptions(a.snapshot().Subscriptions, a.now()).Cards
}

func (a App) subscriptionCount() int {
	return len(a.snapshot().Subscriptions)
}

func (a App) updateSubscriptions(key string) (tea.Model, tea.Cmd) {
	cards := a.subscriptionCards()

	switch key {
	case "j", "down":
		if a.cursor < len(cards)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g":
		a.cursor = 0
	case "G":
		a.cursor = max(len(cards)-1, 0)
	case "enter":
		if a.cursor < len(cards) {
			a.openModal(cards[a.cursor].ID)
		}
	}
	return a, nil
}

func (a App) renderSubscriptionsTab(snap state.Snapshot, cw, h int) string {
	t := theme.Active
	list := view.Subscriptions(snap.Subscriptions, a.now())

	var b strings.Builder

	if snap.Analytics != nil {
		panel := view.Analytics(snap.Analytics)
		summaryStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
		b.WriteString(summaryStyle.Render(fmt.Sprintf(" %d активных · %s/мес · впустую %s/мес",
			panel.ActiveCount, panel.TotalMonthly, panel.WastedMonthly)))
		b.WriteString("\n")
		if panel.PainBanner {
			b.WriteString(a.painBanner(cw))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if len(list.Cards) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)
		b.WriteString(emptyStyle.Render("  " + list.Empty))
		return b.String()
	}

	used := lipgloss.Height(b.String()) - 1
	visible := max((h-used)/rowHeight, 1)
	offset := max(a.cursor-visible+1, 0)
	end := min(offset+visible, len(list.Cards))

	rows := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, components.SubscriptionRow(list.Cards[i], i == a.cursor, cw))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}
