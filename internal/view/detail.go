package view

import (
	"fmt"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/model"
)

// SubscriptionDetail is the modal opened from a subscription card.
type SubscriptionDetail struct {
	ID         int64
	Title      string
	Lines      []string
	Usage      model.UsageLevel
	CanCancel  bool
	CancelHint string // confirmation prompt for the cancel action
}

// Detail renders the modal body for sub.
func Detail(sub model.Subscription, now time.Time) SubscriptionDetail {
	lines := []string{
		fmt.Sprintf("💰 Цена: %s (%s)", cli.FormatRubles(sub.Price), sub.BillingCycleName),
		"📅 В месяц: " + cli.FormatRubles(sub.MonthlyPrice),
		"📁 Категория: " + sub.CategoryName,
		"📊 Статус: " + string(sub.Status),
	}

	if sub.NextBillingDate != nil && *sub.NextBillingDate != "" {
		if d, ok := cli.DaysUntil(*sub.NextBillingDate, now); ok {
			lines = append(lines, fmt.Sprintf("⏰ Списание: %s (через %d дн.)", *sub.NextBillingDate, d))
		}
	}
	if sub.IsTrial && sub.TrialEndDate != nil {
		if d, ok := cli.DaysUntil(*sub.TrialEndDate, now); ok {
			lines = append(lines, fmt.Sprintf("🆓 Trial: %d дн. осталось", d))
		}
	}
	if sub.Notes != nil && *sub.Notes != "" {
		lines = append(lines, "📝 "+*sub.Notes)
	}

	usage := sub.UsageLevel
	if usage == "" {
		usage = model.UsageUnknown
	}

	return SubscriptionDetail{
		ID:         sub.ID,
		Title:      sub.Name,
		Lines:      lines,
		Usage:      usage,
		CanCancel:  sub.Status != model.StatusCancelled,
		CancelHint: CancelPrompt(sub),
	}
}

// CancelPrompt is the confirmation question for cancelling sub.
func CancelPrompt(sub model.Subscription) string {
	return fmt.Sprintf("Отменить %s? Экономия: %s/мес", sub.Name, cli.FormatRubles(sub.MonthlyPrice))
}

// UserBadge is the header's user summary.
type UserBadge struct {
	Name    string
	Premium bool
	Saved   string
}

// Badge renders the user header. A nil user renders nothing.
func Badge(u *model.User) UserBadge {
	if u == nil {
		return UserBadge{}
	}
	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	return UserBadge{
		Name:    name,
		Premium: u.IsPremium,
		Saved:   cli.FormatRubles(u.TotalSaved),
	}
}
