package view

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/model"
)

const (
	// MaxPopular caps the quick-add grid.
	MaxPopular = 12
	// MaxLocked caps the locked achievements list.
	MaxLocked = 6

	EmptyAchievements   = "Пока нет ачивок. Начни экономить!"
	AlternativesLoading = "🔍 Ищу..."
	AlternativesNone    = "Альтернативы не найдены"
	AlternativesFailed  = "Ошибка загрузки"
)

// QuickAdd prefills the add form from a catalog entry.
type QuickAdd struct {
	Name     string
	Price    string
	Category string
	Cycle    string
}

// PopularTile is one quick-add tile.
type PopularTile struct {
	Name    string
	Price   string
	Prefill QuickAdd
}

// CategoryOption is one entry of the add form's category selector.
type CategoryOption struct {
	Key  string
	Name string
}

// PopularGrid is the rendered quick-add catalog.
type PopularGrid struct {
	Tiles      []PopularTile
	Categories []CategoryOption
}

// Popular renders at most MaxPopular tiles and the category options.
func Popular(catalog *model.PopularCatalog) PopularGrid {
	if catalog == nil {
		return PopularGrid{}
	}

	entries := catalog.Subscriptions
	if len(entries) > MaxPopular {
		entries = entries[:MaxPopular]
	}

	g := PopularGrid{Tiles: make([]PopularTile, 0, len(entries))}
	for _, e := range entries {
		g.Tiles = append(g.Tiles, PopularTile{
			Name:  e.Name,
			Price: cli.FormatPerMonth(e.Price),
			Prefill: QuickAdd{
				Name:     e.Name,
				Price:    strconv.FormatFloat(e.Price, 'f', -1, 64),
				Category: e.Category,
				Cycle:    model.CycleMonthly,
			},
		})
	}
	g.Categories = CategoryOptions(catalog.Categories)
	return g
}

// CategoryOptions sorts the key to display-name mapping by key.
func CategoryOptions(categories map[string]string) []CategoryOption {
	opts := make([]CategoryOption, 0, len(categories))
	for key, name := range categories {
		opts = append(opts, CategoryOption{Key: key, Name: name})
	}
	slices.SortFunc(opts, func(a, b CategoryOption) int {
		return strings.Compare(a.Key, b.Key)
	})
	return opts
}

// AchievementCard is one rendered achievement.
type AchievementCard struct {
	Emoji       string
	Name        string
	Description string
	Locked      bool
}

// AchievementsView is the rendered achievements tab.
type AchievementsView struct {
	Earned      []AchievementCard
	EarnedEmpty string
	Locked      []AchievementCard
	ShowLocked  bool
}

// Achievements renders earned achievements and up to MaxLocked locked ones.
func Achievements(a *model.Achievements) AchievementsView {
	var v AchievementsView
	if a == nil {
		v.EarnedEmpty = EmptyAchievements
		return v
	}

	for _, ach := range a.Earned {
		v.Earned = append(v.Earned, AchievementCard{
			Emoji:       ach.Emoji,
			Name:        ach.Name,
			Description: ach.Description,
		})
	}
	if len(v.Earned) == 0 {
		v.EarnedEmpty = EmptyAchievements
	}

	locked := a.Locked
	if len(locked) > MaxLocked {
		locked = locked[:MaxLocked]
	}
	for _, ach := range locked {
		v.Locked = append(v.Locked, AchievementCard{
			Emoji:       "🔒",
			Name:        ach.Name,
			Description: ach.Description,
			Locked:      true,
		})
	}
	v.ShowLocked = len(v.Locked) > 0
	return v
}

// AlternativeRow is one rendered alternative.
type AlternativeRow struct {
	Name     string
	Price    string
	Coverage string
}

// AlternativesView is the modal's alternatives panel. Message is set for the
// loading, not-found and error states; Rows otherwise.
type AlternativesView struct {
	Rows    []AlternativeRow
	Message string
}

// LoadingAlternatives is the panel while a search is in flight.
func LoadingAlternatives() AlternativesView {
	return AlternativesView{Message: AlternativesLoading}
}

// Alternatives renders a finished search.
func Alternatives(alts []model.Alternative, err error) AlternativesView {
	if err != nil {
		return AlternativesView{Message: AlternativesFailed}
	}
	if len(alts) == 0 {
		return AlternativesView{Message: AlternativesNone}
	}

	rows := make([]AlternativeRow, 0, len(alts))
	for _, alt := range alts {
		price := "🆓 Бесплатно"
		if alt.Price != 0 {
			price = cli.FormatPerMonth(alt.Price)
		}
		rows = append(rows, AlternativeRow{
			Name:     alt.Name,
			Price:    price,
			Coverage: fmt.Sprintf("Покрытие: %s%%", strconv.FormatFloat(alt.Coverage, 'f', -1, 64)),
		})
	}
	return AlternativesView{Rows: rows}
}
