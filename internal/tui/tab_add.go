package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	tileWidth    = 24
	maxFormWidth = 64
)

var errBadDate = errors.New("дата в формате ГГГГ-ММ-ДД")

// addState tracks the add tab: the catalog cursor, and the huh form while
// it is open. vals is shared with the form's field bindings.
type addState struct {
	tileCursor int
	form       *huh.Form
	vals       *controller.Form
}

func (a App) formWidth() int {
	return min(a.contentWidth()-4, maxFormWidth)
}

func gridColumns(cw int) int {
	return max(cw/tileWidth, 1)
}

func (a App) popular() view.PopularGrid {
	return view.Popular(a.snapshot().Popular)
}

func (a App) updateAddGrid(key string) (tea.Model, tea.Cmd) {
	tiles := a.popular().Tiles
	cols := gridColumns(a.contentWidth())

	switch key {
	case "l":
		a.add.tileCursor = min(a.add.tileCursor+1, max(len(tiles)-1, 0))
	case "h":
		a.add.tileCursor = max(a.add.tileCursor-1, 0)
	case "j", "down":
		if a.add.tileCursor+cols < len(tiles) {
			a.add.tileCursor += cols
		}
	case "k", "up":
		if a.add.tileCursor-cols >= 0 {
			a.add.tileCursor -= cols
		}
	case "enter":
		if a.add.tileCursor < len(tiles) {
			a.ctl.Dispatch(context.Background(), controller.QuickAdd{Entry: tiles[a.add.tileCursor].Prefill})
			return a, a.openAddForm()
		}
	case "n":
		return a, a.openAddForm()
	}
	return a, nil
}

// openAddForm builds a form over the controller's current values.
func (a *App) openAddForm() tea.Cmd {
	vals := a.ctl.Form()
	a.add.vals = &vals
	a.add.form = NewAddForm(a.add.vals, a.popular().Categories).WithWidth(a.formWidth())
	return a.add.form.Init()
}

func (a App) updateAddForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.add.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.add.form = f
	}

	switch a.add.form.State {
	case huh.StateCompleted:
		vals := *a.add.vals
		a.ctl.SetForm(vals)
		a.add.form = nil
		return a.mutate(controller.Submit{Form: vals})
	case huh.StateAborted:
		a.ctl.SetForm(*a.add.vals)
		a.add.form = nil
		return a, nil
	}

	return a, cmd
}

// NewAddForm builds the add-subscription form over vals.
func NewAddForm(vals *controller.Form, categories []view.CategoryOption) *huh.Form {
	catOpts := make([]huh.Option[string], 0, len(categories)+1)
	known := false
	for _, c := range categories {
		catOpts = append(catOpts, huh.NewOption(c.Name, c.Key))
		known = known || c.Key == vals.Category
	}
	if !known {
		if vals.Category == "" {
			vals.Category = "other"
		}
		catOpts = append(catOpts, huh.NewOption(cli.CategoryIcon(vals.Category)+" "+vals.Category, vals.Category))
	}

	cycleOpts := make([]huh.Option[string], 0, len(model.BillingCycles))
	for _, c := range model.BillingCycles {
		cycleOpts = append(cycleOpts, huh.NewOption(c.Name, c.Key))
	}
	if vals.Cycle == "" {
		vals.Cycle = model.CycleMonthly
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Название").
				Placeholder("Netflix").
				Value(&vals.Name),
			huh.NewInput().
				Title("Цена, ₽").
				Placeholder("999").
				Value(&vals.Price),
			huh.NewSelect[string]().
				Title("Категория").
				Options(catOpts...).
				Value(&vals.Category),
			huh.NewSelect[string]().
				Title("Период").
				Options(cycleOpts...).
				Value(&vals.Cycle),
			huh.NewInput().
				Title("Следующее списание").
				Placeholder("ГГГГ-ММ-ДД, можно пропустить").
				Validate(validateDate).
				Value(&vals.Date),
			huh.NewConfirm().
				Title("Пробный период?").
				Affirmative("Да").
				Negative("Нет").
				Value(&vals.Trial),
		),
	).WithShowHelp(true).WithTheme(huh.ThemeCharm())
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, ok := cli.ParseDate(s); !ok {
		return errBadDate
	}
	return nil
}

func (a App) renderAddTab(snap state.Snapshot, cw int) string {
	t := theme.Active

	if a.add.form != nil {
		card := components.ContentCard("➕ Новая подписка", a.add.form.View(), a.formWidth()+4)
		return lipgloss.PlaceHorizontal(cw, lipgloss.Center, card,
			lipgloss.WithWhitespaceBackground(t.Background))
	}

	grid := view.Popular(snap.Popular)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)

	var b strings.Builder
	b.WriteString(mutedStyle.Render(" Популярные · enter чтобы добавить, n чтобы ввести вручную"))
	b.WriteString("\n\n")

	if len(grid.Tiles) == 0 {
		b.WriteString(mutedStyle.Render("  Каталог недоступен"))
		return b.String()
	}

	cols := gridColumns(cw)
	widths := components.LayoutRow(cw, cols)
	rows := make([]string, 0, len(grid.Tiles)/cols+1)
	for start := 0; start < len(grid.Tiles); start += cols {
		end := min(start+cols, len(grid.Tiles))
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cards = append(cards, renderTile(grid.Tiles[i], i == a.add.tileCursor, widths[i-start]))
		}
		rows = append(rows, components.CardRow(cards))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}

func renderTile(tile view.PopularTile, selected bool, outerWidth int) string {
	t := theme.Active

	border := t.Border
	if selected {
		border = t.BorderAccent
	}
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(max(outerWidth-2, 8)).
		Padding(0, 1)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(selected)
	priceStyle := lipgloss.NewStyle().Foreground(t.Spend).Background(t.Surface)

	icon := cli.CategoryIcon(tile.Prefill.Category)
	name := truncStr(tile.Name, max(outerWidth-8, 4))
	return cardStyle.Render(nameStyle.Render(icon+" "+name) + "\n" + priceStyle.Render(tile.Price))
}
