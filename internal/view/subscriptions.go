// Package view turns store snapshots into display-ready view models.
// Every function here is pure: the same input always yields the same output.
package view

import (
	"fmt"
	"slices"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/model"
)

// EmptySubscriptions is shown when the user tracks nothing.
const EmptySubscriptions = "Нет подписок. Добавь первую!"

// SubscriptionCard is one row of the subscription list.
type SubscriptionCard struct {
	ID     int64
	Icon   string
	Usage  string
	Name   string
	Price  string
	Period string
	Meta   string
	Class  string
}

// SubscriptionList is the rendered subscriptions tab. Empty is set iff Cards
// is empty.
type SubscriptionList struct {
	Cards []SubscriptionCard
	Empty string
}

// StatusRank orders subscriptions for display. Unknown statuses sort last.
func StatusRank(s model.Status) int {
	switch s {
	case model.StatusActive:
		return 0
	case model.StatusTrial:
		return 1
	case model.StatusPaused:
		return 2
	case model.StatusCancelled:
		return 3
	}
	return 9
}

// SortSubscriptions returns a copy ordered by status rank, keeping the
// original order within each rank.
func SortSubscriptions(subs []model.Subscription) []model.Subscription {
	sorted := slices.Clone(subs)
	slices.SortStableFunc(sorted, func(a, b model.Subscription) int {
		return StatusRank(a.Status) - StatusRank(b.Status)
	})
	return sorted
}

// Subscriptions renders the list tab.
func Subscriptions(subs []model.Subscription, now time.Time) SubscriptionList {
	if len(subs) == 0 {
		return SubscriptionList{Empty: EmptySubscriptions}
	}

	sorted := SortSubscriptions(subs)
	cards := make([]SubscriptionCard, 0, len(sorted))
	for _, sub := range sorted {
		cards = append(cards, SubscriptionCard{
			ID:     sub.ID,
			Icon:   cli.CategoryIcon(sub.Category),
			Usage:  cli.UsageEmoji(sub.UsageLevel),
			Name:   sub.Name,
			Price:  cli.FormatRubles(sub.MonthlyPrice),
			Period: "/мес",
			Meta:   subscriptionMeta(sub, now),
			Class:  cli.CardClass(sub),
		})
	}
	return SubscriptionList{Cards: cards}
}

func subscriptionMeta(sub model.Subscription, now time.Time) string {
	meta := sub.CategoryName

	switch {
	case sub.IsTrial && sub.TrialEndDate != nil:
		if d, ok := cli.DaysUntil(*sub.TrialEndDate, now); ok {
			meta += fmt.Sprintf(" • 🆓 Trial: %d дн.", d)
		}
	case sub.DaysUntilBilling != nil && *sub.DaysUntilBilling >= 0:
		meta += fmt.Sprintf(" • ⏰ через %d дн.", *sub.DaysUntilBilling)
	}

	if sub.Status == model.StatusCancelled {
		meta += " • ❌ Отменена"
	}
	return meta
}
