// Package model defines the data types exchanged with the SubKiller backend.
package model

// Status is the lifecycle state of a tracked subscription.
type Status string

// Subscription statuses.
const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// UsageLevel is the user's self-reported utilization tier.
type UsageLevel string

// Usage levels.
const (
	UsageHigh    UsageLevel = "high"
	UsageMedium  UsageLevel = "medium"
	UsageLow     UsageLevel = "low"
	UsageNone    UsageLevel = "none"
	UsageUnknown UsageLevel = "unknown"
)

// UsageLevels lists the levels in the order they are offered to the user.
var UsageLevels = []UsageLevel{UsageHigh, UsageMedium, UsageLow, UsageNone, UsageUnknown}

// Billing cycles accepted by the backend.
const (
	CycleWeekly    = "weekly"
	CycleMonthly   = "monthly"
	CycleQuarterly = "quarterly"
	CycleYearly    = "yearly"
)

// BillingCycles maps cycle keys to display names, in form order.
var BillingCycles = []struct{ Key, Name string }{
	{CycleMonthly, "Ежемесячно"},
	{CycleYearly, "Ежегодно"},
	{CycleQuarterly, "Ежеквартально"},
	{CycleWeekly, "Еженедельно"},
}

// Subscription is a tracked recurring subscription as returned by the API.
// MonthlyPrice is normalized server-side and never recomputed by the client.
type Subscription struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Price            float64    `json:"price"`
	MonthlyPrice     float64    `json:"monthly_price"`
	Category         string     `json:"category"`
	CategoryName     string     `json:"category_name"`
	BillingCycle     string     `json:"billing_cycle"`
	BillingCycleName string     `json:"billing_cycle_name"`
	Status           Status     `json:"status"`
	UsageLevel       UsageLevel `json:"usage_level"`
	IsTrial          bool       `json:"is_trial"`
	TrialEndDate     *string    `json:"trial_end_date"`
	NextBillingDate  *string    `json:"next_billing_date"`
	DaysUntilBilling *int       `json:"days_until_billing"`
	LastUsed         *string    `json:"last_used,omitempty"`
	Notes            *string    `json:"notes"`
	CreatedAt        string     `json:"created_at,omitempty"`
}

// SubscriptionsResponse is the body of GET /api/subscriptions/{userId}.
type SubscriptionsResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// NewSubscription is the body of POST /api/subscriptions/{userId}.
type NewSubscription struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
	BillingCycle    string  `json:"billing_cycle"`
	IsTrial         bool    `json:"is_trial"`
	NextBillingDate *string `json:"next_billing_date,omitempty"`
	TrialEndDate    *string `json:"trial_end_date,omitempty"`
}

// SubscriptionPatch is the body of PUT /api/subscriptions/{userId}/{subId}.
// Nil fields are left untouched by the server.
type SubscriptionPatch struct {
	UsageLevel      *UsageLevel `json:"usage_level,omitempty"`
	Price           *float64    `json:"price,omitempty"`
	NextBillingDate *string     `json:"next_billing_date,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
}

// CreateResult is returned by the add endpoint.
type CreateResult struct {
	Status         string `json:"status"`
	SubscriptionID int64  `json:"subscription_id"`
}

// CancelResult is returned by the delete endpoint.
type CancelResult struct {
	Status       string  `json:"status"`
	SavedMonthly float64 `json:"saved_monthly"`
}

// PopularSubscription is a template used to prefill the add form.
type PopularSubscription struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// PopularCatalog is the body of GET /api/popular-subscriptions.
type PopularCatalog struct {
	Subscriptions []PopularSubscription `json:"subscriptions"`
	Categories    map[string]string     `json:"categories"`
}

// Alternative is a cheaper replacement candidate for a subscription.
type Alternative struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Coverage float64 `json:"coverage"`
}

// AlternativesResponse is the body of GET /api/alternatives/{name}.
type AlternativesResponse struct {
	Alternatives []Alternative `json:"alternatives"`
}
