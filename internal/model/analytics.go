package model

// Analytics is the server-computed spend snapshot for one user.
// It is replaced wholesale on every reload.
type Analytics struct {
	TotalMonthly   float64            `json:"total_monthly"`
	WastedMonthly  float64            `json:"wasted_monthly"`
	SavedMonthly   float64            `json:"saved_monthly"`
	TotalYearly    float64            `json:"total_yearly"`
	WastedYearly   float64            `json:"wasted_yearly"`
	HealthScore    int                `json:"health_score"`
	HealthEmoji    string             `json:"health_emoji"`
	ActiveCount    int                `json:"active_count"`
	CancelledCount int                `json:"cancelled_count"`
	Categories     map[string]float64 `json:"categories"`
	Investments    Investments        `json:"investments"`
	PainCounter    *PainCounter       `json:"pain_counter"`
}

// Investments projects what the wasted money would grow to if invested.
type Investments struct {
	MonthlyAmount float64 `json:"monthly_amount"`
	SP5005y       float64 `json:"sp500_5y"`
	SP50010y      float64 `json:"sp500_10y"`
}

// PainCounter seeds the live "money wasted" extrapolation.
type PainCounter struct {
	PerMinute float64 `json:"per_minute"`
	Today     float64 `json:"today"`
	Month     float64 `json:"month"`
	Year      float64 `json:"year"`
}

// Achievement is a gamified milestone.
type Achievement struct {
	Key         string `json:"key"`
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AchievedAt  string `json:"achieved_at,omitempty"`
}

// Achievements is the body of GET /api/achievements/{userId}.
type Achievements struct {
	Earned []Achievement `json:"earned"`
	Locked []Achievement `json:"locked"`
}

// LeaderboardEntry is one row of the global savings leaderboard.
type LeaderboardEntry struct {
	Position  int     `json:"position"`
	Name      string  `json:"name"`
	Saved     float64 `json:"saved"`
	Cancelled int     `json:"cancelled"`
}

// Leaderboard is the body of GET /api/leaderboard.
type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"leaderboard"`
	TotalSaved float64            `json:"total_saved"`
	TotalUsers int                `json:"total_users"`
}
