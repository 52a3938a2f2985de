package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/theirongolddev/subkill/internal/model"
)

// Bundle is the result of a full dashboard load. Each section carries its own
// error; a nil field with a non-nil error means that section failed.
type Bundle struct {
	User    *model.User
	UserErr error

	Subscriptions []model.Subscription
	SubsErr       error

	Analytics    *model.Analytics
	AnalyticsErr error

	Popular    *model.PopularCatalog
	PopularErr error

	Achievements    *model.Achievements
	AchievementsErr error

	FetchedAt time.Time
}

// Errors returns the per-section errors that are set.
func (b *Bundle) Errors() []error {
	var errs []error
	for _, err := range []error{b.UserErr, b.SubsErr, b.AnalyticsErr, b.PopularErr, b.AchievementsErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Err joins all section errors, or returns nil when every fetch succeeded.
func (b *Bundle) Err() error {
	return errors.Join(b.Errors()...)
}

// FailedSections names the sections whose fetch failed.
func (b *Bundle) FailedSections() []string {
	var names []string
	for _, sec := range []struct {
		name string
		err  error
	}{
		{"user", b.UserErr},
		{"subscriptions", b.SubsErr},
		{"analytics", b.AnalyticsErr},
		{"popular", b.PopularErr},
		{"achievements", b.AchievementsErr},
	} {
		if sec.err != nil {
			names = append(names, sec.name)
		}
	}
	return names
}

// NetworkFailed reports whether any request failed without a response.
func (b *Bundle) NetworkFailed() bool {
	for _, err := range b.Errors() {
		if IsNetwork(err) {
			return true
		}
	}
	return false
}

// LoadAll fetches the whole dashboard in two phases: user, subscriptions and
// analytics concurrently, then popular subscriptions and achievements in
// sequence. No section's failure stops the others.
func (c *Client) LoadAll(ctx context.Context, userID int64) *Bundle {
	b := &Bundle{}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.User, b.UserErr = c.GetUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		b.Subscriptions, b.SubsErr = c.GetSubscriptions(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		b.Analytics, b.AnalyticsErr = c.GetAnalytics(ctx, userID)
	}()
	wg.Wait()

	b.Popular, b.PopularErr = c.GetPopularSubscriptions(ctx)
	b.Achievements, b.AchievementsErr = c.GetAchievements(ctx, userID)

	b.FetchedAt = time.Now()
	return b
}
