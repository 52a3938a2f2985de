package model

// User is the profile returned by GET /api/user/{userId}.
type User struct {
	ID             int64   `json:"id"`
	TelegramID     int64   `json:"telegram_id"`
	Username       string  `json:"username"`
	FirstName      string  `json:"first_name"`
	IsPremium      bool    `json:"is_premium"`
	PremiumUntil   *string `json:"premium_until"`
	TotalSaved     float64 `json:"total_saved"`
	TotalCancelled int     `json:"total_cancelled"`
	CurrentStreak  int     `json:"current_streak"`
	SubscriberType string  `json:"subscriber_type"`
	ReferralCode   string  `json:"referral_code"`
}
