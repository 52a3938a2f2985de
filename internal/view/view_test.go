package view

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/subkill/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestSubscriptionsEmpty(t *testing.T) {
	l := Subscriptions(nil, now)
	assert.Empty(t, l.Cards)
	assert.Equal(t, EmptySubscriptions, l.Empty)
}

func TestSubscriptionsSortStable(t *testing.T) {
	subs := []model.Subscription{
		{ID: 1, Status: model.StatusCancelled},
		{ID: 2, Status: model.StatusActive},
		{ID: 3, Status: "archived"},
		{ID: 4, Status: model.StatusTrial},
		{ID: 5, Status: model.StatusActive},
		{ID: 6, Status: model.StatusPaused},
		{ID: 7, Status: model.StatusCancelled},
	}

	l := Subscriptions(subs, now)
	var ids []int64
	for _, c := range l.Cards {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{2, 5, 4, 6, 1, 7, 3}, ids)
	assert.Empty(t, l.Empty)

	// Input untouched.
	assert.Equal(t, int64(1), subs[0].ID)
}

func TestSubscriptionCard(t *testing.T) {
	l := Subscriptions([]model.Subscription{{
		ID:               1,
		Name:             "Netflix",
		MonthlyPrice:     999,
		Category:         "streaming",
		CategoryName:     "Стриминг",
		Status:           model.StatusActive,
		UsageLevel:       model.UsageHigh,
		DaysUntilBilling: intp(3),
	}}, now)

	require.Len(t, l.Cards, 1)
	c := l.Cards[0]
	assert.Equal(t, "🎬", c.Icon)
	assert.Equal(t, "🟢", c.Usage)
	assert.Equal(t, "999₽", c.Price)
	assert.Equal(t, "/мес", c.Period)
	assert.Equal(t, "Стриминг • ⏰ через 3 дн.", c.Meta)
	assert.Equal(t, "active-used", c.Class)
}

func TestSubscriptionMetaVariants(t *testing.T) {
	trial := model.Subscription{
		CategoryName:     "Музыка",
		Status:           model.StatusTrial,
		IsTrial:          true,
		TrialEndDate:     strp("2026-03-08"),
		DaysUntilBilling: intp(1),
	}
	assert.Equal(t, "Музыка • 🆓 Trial: 7 дн.", subscriptionMeta(trial, now))

	cancelled := model.Subscription{
		CategoryName:     "Облако",
		Status:           model.StatusCancelled,
		DaysUntilBilling: intp(-2),
	}
	assert.Equal(t, "Облако • ❌ Отменена", subscriptionMeta(cancelled, now))
}

func TestAnalyticsPanel(t *testing.T) {
	assert.False(t, Analytics(nil).Visible)

	p := Analytics(&model.Analytics{
		TotalMonthly:  12345,
		WastedMonthly: 500,
		HealthScore:   65,
		Categories:    map[string]float64{"music": 169, "cloud": 169, "streaming": 999},
		Investments:   model.Investments{SP5005y: 40000, SP50010y: 1500000},
	})

	assert.True(t, p.Visible)
	assert.Equal(t, "#ffcc00", p.HealthColor)
	assert.InDelta(t, 0.65, p.HealthBar, 1e-9)
	assert.Equal(t, "12 345₽", p.TotalMonthly)
	assert.Equal(t, "1.5 млн ₽", p.Invest10y)
	assert.True(t, p.PainBanner)
	require.Len(t, p.Categories, 3)
	assert.Equal(t, "streaming", p.Categories[0].Name)
	assert.Equal(t, "cloud", p.Categories[1].Name)
	assert.Equal(t, "music", p.Categories[2].Name)
	assert.Equal(t, "999₽/мес", p.Categories[0].Label)
	assert.Empty(t, p.CategoriesEmpty)

	empty := Analytics(&model.Analytics{})
	assert.Equal(t, EmptyCategories, empty.CategoriesEmpty)
	assert.False(t, empty.PainBanner)
}

func TestPopularCapped(t *testing.T) {
	var entries []model.PopularSubscription
	for i := range 20 {
		entries = append(entries, model.PopularSubscription{Name: fmt.Sprintf("S%d", i), Price: 199, Category: "music"})
	}
	g := Popular(&model.PopularCatalog{
		Subscriptions: entries,
		Categories:    map[string]string{"vpn": "VPN", "ai": "AI", "music": "Музыка"},
	})

	require.Len(t, g.Tiles, MaxPopular)
	assert.Equal(t, "199₽/мес", g.Tiles[0].Price)
	assert.Equal(t, QuickAdd{Name: "S0", Price: "199", Category: "music", Cycle: model.CycleMonthly}, g.Tiles[0].Prefill)
	assert.Equal(t, []CategoryOption{{"ai", "AI"}, {"music", "Музыка"}, {"vpn", "VPN"}}, g.Categories)
}

func TestAchievements(t *testing.T) {
	v := Achievements(&model.Achievements{})
	assert.Equal(t, EmptyAchievements, v.EarnedEmpty)
	assert.False(t, v.ShowLocked)

	var locked []model.Achievement
	for i := range 9 {
		locked = append(locked, model.Achievement{Key: fmt.Sprint(i), Emoji: "🏆", Name: fmt.Sprint(i)})
	}
	v = Achievements(&model.Achievements{
		Earned: []model.Achievement{{Emoji: "🎯", Name: "Первый шаг"}},
		Locked: locked,
	})
	assert.Empty(t, v.EarnedEmpty)
	assert.True(t, v.ShowLocked)
	require.Len(t, v.Locked, MaxLocked)
	for _, c := range v.Locked {
		assert.Equal(t, "🔒", c.Emoji)
	}
}

func TestAlternatives(t *testing.T) {
	assert.Equal(t, AlternativesLoading, LoadingAlternatives().Message)
	assert.Equal(t, AlternativesFailed, Alternatives(nil, errors.New("x")).Message)
	assert.Equal(t, AlternativesNone, Alternatives(nil, nil).Message)

	v := Alternatives([]model.Alternative{
		{Name: "VK Музыка", Price: 0, Coverage: 80},
		{Name: "Okko", Price: 199, Coverage: 65.5},
	}, nil)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "🆓 Бесплатно", v.Rows[0].Price)
	assert.Equal(t, "Покрытие: 80%", v.Rows[0].Coverage)
	assert.Equal(t, "199₽/мес", v.Rows[1].Price)
	assert.Equal(t, "Покрытие: 65.5%", v.Rows[1].Coverage)
}

func TestDetail(t *testing.T) {
	sub := model.Subscription{
		ID:               4,
		Name:             "Яндекс Плюс",
		Price:            2990,
		MonthlyPrice:     249.17,
		CategoryName:     "Стриминг",
		BillingCycleName: "Ежегодно",
		Status:           model.StatusTrial,
		IsTrial:          true,
		TrialEndDate:     strp("2026-03-04"),
		NextBillingDate:  strp("2026-03-04"),
		Notes:            strp("семейная"),
	}
	d := Detail(sub, now)

	assert.Equal(t, "Яндекс Плюс", d.Title)
	assert.Equal(t, model.UsageUnknown, d.Usage)
	assert.True(t, d.CanCancel)
	assert.Equal(t, []string{
		"💰 Цена: 2 990₽ (Ежегодно)",
		"📅 В месяц: 249₽",
		"📁 Категория: Стриминг",
		"📊 Статус: trial",
		"⏰ Списание: 2026-03-04 (через 3 дн.)",
		"🆓 Trial: 3 дн. осталось",
		"📝 семейная",
	}, d.Lines)
	assert.Equal(t, "Отменить Яндекс Плюс? Экономия: 249₽/мес", d.CancelHint)

	sub.Status = model.StatusCancelled
	assert.False(t, Detail(sub, now).CanCancel)
}

func TestRenderingIsIdempotent(t *testing.T) {
	subs := []model.Subscription{{ID: 1, Status: model.StatusTrial}, {ID: 2, Status: model.StatusActive}}
	assert.Equal(t, Subscriptions(subs, now), Subscriptions(subs, now))

	cats := map[string]float64{"a": 1, "b": 1, "c": 2}
	first := SortCategories(cats)
	for range 10 {
		assert.Equal(t, first, SortCategories(cats))
	}
}

func TestBadge(t *testing.T) {
	assert.False(t, Badge(nil).Premium)
	b := Badge(&model.User{Username: "ivan", IsPremium: true, TotalSaved: 1500})
	assert.True(t, b.Premium)
	assert.Equal(t, "ivan", b.Name)
	assert.True(t, strings.HasSuffix(b.Saved, "₽"))
}
