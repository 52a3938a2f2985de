package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxModalWidth = 72

// modalState is the UI-only part of the detail modal. Which subscription is
// open lives in the store.
type modalState struct {
	usageCursor int
	confirming  bool
	alts        *view.AlternativesView
	altsFor     int64
}

func (a *App) openModal(id int64) {
	sub, ok := a.ctl.Store().Subscription(id)
	if !ok {
		return
	}
	a.ctl.Dispatch(context.Background(), controller.OpenModal{SubID: id})

	d := view.Detail(sub, a.now())
	a.modal = modalState{usageCursor: max(slices.Index(model.UsageLevels, d.Usage), 0)}
}

func (a App) updateModal(key string) (tea.Model, tea.Cmd) {
	sub, ok := a.snapshot().OpenSubscription()
	if !ok {
		return a, nil
	}

	if a.modal.confirming {
		switch key {
		case "y", "enter":
			return a.mutate(controller.CancelSubscription{SubID: sub.ID})
		case "n", "esc":
			a.modal.confirming = false
		}
		return a, nil
	}

	switch key {
	case "esc", "q":
		a.apply(controller.CloseModal{})
		a.modal = modalState{}
	case "j", "down":
		a.modal.usageCursor = min(a.modal.usageCursor+1, len(model.UsageLevels)-1)
	case "k", "up":
		a.modal.usageCursor = max(a.modal.usageCursor-1, 0)
	case "enter":
		level := model.UsageLevels[a.modal.usageCursor]
		return a.mutate(controller.SaveUsage{SubID: sub.ID, Level: level})
	case "x":
		if view.Detail(sub, a.now()).CanCancel {
			a.modal.confirming = true
		}
	case "a":
		if a.offline {
			return a, a.setToast(ToastOffline)
		}
		loading := view.LoadingAlternatives()
		a.modal.alts = &loading
		a.modal.altsFor = sub.ID
		a.pending++
		return a, a.dispatch(controller.FindAlternatives{SubID: sub.ID, Name: sub.Name})
	}
	return a, nil
}

func (a App) renderModal(sub model.Subscription, cw int) string {
	t := theme.Active
	d := view.Detail(sub, a.now())
	w := min(cw, maxModalWidth)

	lineStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Waste).Background(t.Surface).Bold(true)

	var b strings.Builder
	for _, line := range d.Lines {
		b.WriteString(lineStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Как часто пользуешься?"))
	b.WriteString("\n")
	for i, level := range model.UsageLevels {
		label := fmt.Sprintf("%s %s", cli.UsageEmoji(level), cli.UsageLabel(level))
		if level == d.Usage {
			label += " ✓"
		}
		if i == a.modal.usageCursor {
			b.WriteString(selectedStyle.Render("▶ " + label))
		} else {
			b.WriteString(mutedStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}

	if a.modal.confirming {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(d.CancelHint))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("[y] да  [n] нет"))
		b.WriteString("\n")
	}

	if a.modal.alts != nil && a.modal.altsFor == sub.ID {
		b.WriteString("\n")
		b.WriteString(renderAlternatives(*a.modal.alts, components.CardInnerWidth(w)))
		b.WriteString("\n")
	}

	if !d.CanCancel {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Подписка уже отменена"))
	}

	card := components.ContentCard(d.Title, strings.TrimRight(b.String(), "\n"), w)
	return lipgloss.PlaceHorizontal(cw, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func renderAlternatives(v view.AlternativesView, width int) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	priceStyle := lipgloss.NewStyle().Foreground(t.Saved).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("💡 Альтернативы"))
	if v.Message != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(v.Message))
		return b.String()
	}

	nameW := 0
	for _, r := range v.Rows {
		nameW = max(nameW, lipgloss.Width(r.Name))
	}
	nameW = min(nameW, width/2)

	for _, r := range v.Rows {
		name := truncStr(r.Name, nameW)
		b.WriteString("\n")
		b.WriteString(nameStyle.Render(name + strings.Repeat(" ", max(nameW-lipgloss.Width(name), 0)+2)))
		b.WriteString(priceStyle.Render(r.Price))
		b.WriteString(mutedStyle.Render("  " + r.Coverage))
	}
	return b.String()
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
