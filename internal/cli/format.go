// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/subkill/internal/model"
)

const (
	currencySign = "₽"
	millionWord  = " млн "
	// ru-RU groups thousands with a no-break space.
	groupSep = " "
)

// FormatMoney formats an optional ruble amount for display.
// nil -> "0₽", 999 -> "999₽", 12345 -> "12 345₽", 1500000 -> "1.5 млн ₽".
func FormatMoney(amount *float64) string {
	if amount == nil {
		return "0" + currencySign
	}
	return FormatRubles(*amount)
}

// FormatRubles formats a ruble amount rounded to whole rubles.
func FormatRubles(amount float64) string {
	num := roundHalfUp(amount)
	if num >= 1_000_000 {
		return fmt.Sprintf("%.1f", num/1_000_000) + millionWord + currencySign
	}
	return groupDigits(int64(num), groupSep) + currencySign
}

// FormatMoneyPrecise formats an amount with kopecks, e.g. "12.34₽".
func FormatMoneyPrecise(amount float64) string {
	return fmt.Sprintf("%.2f%s", amount, currencySign)
}

// FormatPerMonth formats a catalog price as "<price>₽/мес" without rounding.
func FormatPerMonth(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64) + currencySign + "/мес"
}

// ParseMoney reverses FormatRubles. It accepts both the grouped and the
// "млн" forms and reports false for anything else.
func ParseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, currencySign) {
		return 0, false
	}
	s = strings.TrimSuffix(s, currencySign)

	scale := 1.0
	if strings.HasSuffix(s, millionWord) {
		s = strings.TrimSuffix(s, millionWord)
		scale = 1_000_000
	}
	s = strings.ReplaceAll(s, groupSep, "")
	s = strings.ReplaceAll(s, " ", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func groupDigits(n int64, sep string) string {
	if n < 0 {
		return "-" + groupDigits(-n, sep)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteString(sep)
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// ParseDate accepts the backend's ISO dates ("2006-01-02", interpreted as UTC
// midnight) and full RFC 3339 timestamps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// DaysUntil returns the number of days from now to date, rounded up.
// Past dates yield zero or negative values.
func DaysUntil(date string, now time.Time) (int, bool) {
	target, ok := ParseDate(date)
	if !ok {
		return 0, false
	}
	days := target.Sub(now).Hours() / 24
	return int(math.Ceil(days)), true
}

// ScoreColor maps a 0-100 health score to a traffic-light hex color.
func ScoreColor(score int) string {
	switch {
	case score >= 80:
		return "#4cd964"
	case score >= 60:
		return "#ffcc00"
	case score >= 40:
		return "#ff9500"
	default:
		return "#ff3b30"
	}
}

var categoryIcons = map[string]string{
	"streaming":    "🎬",
	"music":        "🎵",
	"cloud":        "☁️",
	"productivity": "📝",
	"education":    "📚",
	"fitness":      "💪",
	"gaming":       "🎮",
	"news":         "📰",
	"social":       "📱",
	"vpn":          "🔐",
	"ai":           "🤖",
	"design":       "🎨",
	"development":  "💻",
	"finance":      "💰",
	"food":         "🍕",
	"transport":    "🚗",
	"dating":       "❤️",
	"other":        "📦",
}

// CategoryIcon returns the emoji for a category key.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "📦"
}

// UsageEmoji returns the colored dot for a usage level.
func UsageEmoji(level model.UsageLevel) string {
	switch level {
	case model.UsageHigh:
		return "🟢"
	case model.UsageMedium:
		return "🟡"
	case model.UsageLow:
		return "🔴"
	case model.UsageNone:
		return "⚫"
	default:
		return "⚪"
	}
}

// CardClass classifies a subscription for styling.
func CardClass(sub model.Subscription) string {
	switch {
	case sub.Status == model.StatusCancelled:
		return "cancelled"
	case sub.IsTrial:
		return "trial"
	case sub.UsageLevel == model.UsageNone || sub.UsageLevel == model.UsageLow:
		return "unused"
	case sub.UsageLevel == model.UsageHigh || sub.UsageLevel == model.UsageMedium:
		return "active-used"
	}
	return ""
}

var usageLabels = map[model.UsageLevel]string{
	model.UsageHigh:    "Активно",
	model.UsageMedium:  "Иногда",
	model.UsageLow:     "Редко",
	model.UsageNone:    "Не использую",
	model.UsageUnknown: "Не оценено",
}

// UsageLabel returns the human name of a usage level, "?" for unknown keys.
func UsageLabel(level model.UsageLevel) string {
	if s, ok := usageLabels[level]; ok {
		return s
	}
	return "?"
}
