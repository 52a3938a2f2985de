// Package state holds the dashboard's in-memory record of the last loaded data.
package state

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/model"
)

// Snapshot is an immutable copy of the store's contents.
type Snapshot struct {
	UserID             int64
	User               *model.User
	Subscriptions      []model.Subscription
	Analytics          *model.Analytics
	Popular            *model.PopularCatalog
	Achievements       *model.Achievements
	OpenSubscriptionID int64 // 0 when no modal is open
	LoadedAt           time.Time
	Generation         uint64
}

// OpenSubscription returns the subscription bound to the modal, if any.
func (s Snapshot) OpenSubscription() (model.Subscription, bool) {
	if s.OpenSubscriptionID == 0 {
		return model.Subscription{}, false
	}
	return findSubscription(s.Subscriptions, s.OpenSubscriptionID)
}

// Store is written by a single owner and read through Snapshot.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New creates an empty store for the given host user.
func New(userID int64) *Store {
	return &Store{snap: Snapshot{UserID: userID}}
}

// Snapshot returns a copy that later writes cannot affect.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

// Apply replaces every section whose fetch succeeded. Failed sections keep
// their previous value. Overlapping reloads all apply in completion order.
func (s *Store) Apply(b *api.Bundle) {
	if b == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.UserErr == nil && b.User != nil {
		u := *b.User
		u.PremiumUntil = clonePtr(u.PremiumUntil)
		s.snap.User = &u
	}
	if b.SubsErr == nil && b.Subscriptions != nil {
		s.snap.Subscriptions = cloneSubscriptions(b.Subscriptions)
	}
	if b.AnalyticsErr == nil && b.Analytics != nil {
		s.snap.Analytics = cloneAnalytics(b.Analytics)
	}
	if b.PopularErr == nil && b.Popular != nil {
		s.snap.Popular = clonePopular(b.Popular)
	}
	if b.AchievementsErr == nil && b.Achievements != nil {
		s.snap.Achievements = cloneAchievements(b.Achievements)
	}

	s.snap.Generation++
	s.snap.LoadedAt = b.FetchedAt
	if s.snap.LoadedAt.IsZero() {
		s.snap.LoadedAt = time.Now()
	}
}

// UserID returns the host user the store belongs to.
func (s *Store) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.UserID
}

// Restore replaces the whole record, e.g. from an on-disk cache.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = cloneSnapshot(snap)
}

// Open binds the modal to a subscription. Unknown ids are ignored and
// reported as false.
func (s *Store) Open(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := findSubscription(s.snap.Subscriptions, id); !ok {
		return false
	}
	s.snap.OpenSubscriptionID = id
	return true
}

// Close clears the modal binding and nothing else.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.OpenSubscriptionID = 0
}

// Subscription looks up a subscription by id.
func (s *Store) Subscription(id int64) (model.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findSubscription(s.snap.Subscriptions, id)
}

func findSubscription(subs []model.Subscription, id int64) (model.Subscription, bool) {
	for _, sub := range subs {
		if sub.ID == id {
			return sub, true
		}
	}
	return model.Subscription{}, false
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	if s.User != nil {
		u := *s.User
		u.PremiumUntil = clonePtr(u.PremiumUntil)
		out.User = &u
	}
	out.Subscriptions = cloneSubscriptions(s.Subscriptions)
	out.Analytics = cloneAnalytics(s.Analytics)
	out.Popular = clonePopular(s.Popular)
	out.Achievements = cloneAchievements(s.Achievements)
	return out
}

func cloneSubscriptions(subs []model.Subscription) []model.Subscription {
	if subs == nil {
		return nil
	}
	out := make([]model.Subscription, len(subs))
	for i, sub := range subs {
		sub.TrialEndDate = clonePtr(sub.TrialEndDate)
		sub.NextBillingDate = clonePtr(sub.NextBillingDate)
		sub.DaysUntilBilling = clonePtr(sub.DaysUntilBilling)
		sub.LastUsed = clonePtr(sub.LastUsed)
		sub.Notes = clonePtr(sub.Notes)
		out[i] = sub
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAnalytics(a *model.Analytics) *model.Analytics {
	if a == nil {
		return nil
	}
	out := *a
	out.Categories = maps.Clone(a.Categories)
	if a.PainCounter != nil {
		pc := *a.PainCounter
		out.PainCounter = &pc
	}
	return &out
}

func clonePopular(p *model.PopularCatalog) *model.PopularCatalog {
	if p == nil {
		return nil
	}
	return &model.PopularCatalog{
		Subscriptions: slices.Clone(p.Subscriptions),
		Categories:    maps.Clone(p.Categories),
	}
}

func cloneAchievements(a *model.Achievements) *model.Achievements {
	if a == nil {
		return nil
	}
	return &model.Achievements{
		Earned: slices.Clone(a.Earned),
		Locked: slices.Clone(a.Locked),
	}
}
