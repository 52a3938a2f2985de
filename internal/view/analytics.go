package view

import (
	"cmp"
	"slices"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/model"
)

// EmptyCategories is shown when no category has spend.
const EmptyCategories = "Нет данных"

// CategoryRow is one line of the per-category breakdown.
type CategoryRow struct {
	Name   string
	Amount float64
	Label  string // "999₽/мес"
}

// AnalyticsPanel is the rendered analytics tab. Visible is false until the
// first successful analytics fetch.
type AnalyticsPanel struct {
	Visible bool

	HealthScore int
	HealthColor string
	HealthEmoji string
	HealthBar   float64 // 0-1

	TotalMonthly  string
	WastedMonthly string
	SavedMonthly  string
	TotalYearly   string
	WastedYearly  string

	ActiveCount    int
	CancelledCount int

	Invest5y  string
	Invest10y string

	Categories      []CategoryRow
	CategoriesEmpty string

	PainBanner bool
}

// Analytics renders the analytics tab.
func Analytics(a *model.Analytics) AnalyticsPanel {
	if a == nil {
		return AnalyticsPanel{}
	}

	score := min(max(a.HealthScore, 0), 100)
	p := AnalyticsPanel{
		Visible:        true,
		HealthScore:    a.HealthScore,
		HealthColor:    cli.ScoreColor(a.HealthScore),
		HealthEmoji:    a.HealthEmoji,
		HealthBar:      float64(score) / 100,
		TotalMonthly:   cli.FormatRubles(a.TotalMonthly),
		WastedMonthly:  cli.FormatRubles(a.WastedMonthly),
		SavedMonthly:   cli.FormatRubles(a.SavedMonthly),
		TotalYearly:    cli.FormatRubles(a.TotalYearly),
		WastedYearly:   cli.FormatRubles(a.WastedYearly),
		ActiveCount:    a.ActiveCount,
		CancelledCount: a.CancelledCount,
		Invest5y:       cli.FormatRubles(a.Investments.SP5005y),
		Invest10y:      cli.FormatRubles(a.Investments.SP50010y),
		Categories:     SortCategories(a.Categories),
		PainBanner:     a.WastedMonthly > 0,
	}
	if len(p.Categories) == 0 {
		p.CategoriesEmpty = EmptyCategories
	}
	return p
}

// SortCategories orders categories by descending amount, breaking ties by
// name so output is deterministic.
func SortCategories(cats map[string]float64) []CategoryRow {
	rows := make([]CategoryRow, 0, len(cats))
	for name, amount := range cats {
		rows = append(rows, CategoryRow{
			Name:   name,
			Amount: amount,
			Label:  cli.FormatRubles(amount) + "/мес",
		})
	}
	slices.SortFunc(rows, func(a, b CategoryRow) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return rows
}
