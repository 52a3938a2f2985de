package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/metrics"
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/pain"
	"github.com/theirongolddev/subkill/internal/store"
)

type fakeLoader struct {
	mu      sync.Mutex
	bundles []*api.Bundle
	calls   int
}

func (f *fakeLoader) LoadAll(context.Context, int64) *api.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bundles[min(f.calls, len(f.bundles)-1)]
	f.calls++
	return b
}

func bundle(total float64, perMinute float64, subs int) *api.Bundle {
	list := make([]model.Subscription, subs)
	for i := range list {
		list[i] = model.Subscription{ID: int64(i + 1), Name: "Sub", Status: model.StatusActive}
	}
	return &api.Bundle{
		User:          &model.User{ID: 9},
		Subscriptions: list,
		Analytics: &model.Analytics{
			TotalMonthly: total,
			HealthScore:  70,
			PainCounter:  &model.PainCounter{PerMinute: perMinute, Today: 10},
		},
		Popular:      &model.PopularCatalog{},
		Achievements: &model.Achievements{},
		FetchedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func failedBundle() *api.Bundle {
	err := errors.New("down")
	return &api.Bundle{
		UserErr: err, SubsErr: err, AnalyticsErr: err, PopularErr: err, AchievementsErr: err,
		FetchedAt: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestDiffSummaries(t *testing.T) {
	prev := Summary{Subscriptions: 3, TotalMonthly: 1500, WastedMonthly: 400, SavedMonthly: 0, HealthScore: 60}
	curr := Summary{Subscriptions: 2, TotalMonthly: 1001, WastedMonthly: 0, SavedMonthly: 499, HealthScore: 85}

	delta := diffSummaries(prev, curr)
	if delta.Subscriptions != -1 {
		t.Fatalf("Subscriptions delta = %d, want -1", delta.Subscriptions)
	}
	if math.Abs(delta.TotalMonthly+499) > 1e-9 {
		t.Fatalf("TotalMonthly delta = %.2f, want -499", delta.TotalMonthly)
	}
	if delta.HealthScore != 25 {
		t.Fatalf("HealthScore delta = %d, want 25", delta.HealthScore)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSummaries(curr, curr).isZero() {
		t.Fatal("identical summaries produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{UserID: 1, EventsBuffer: 2}, &fakeLoader{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestReloadEmitsSnapshotThenDelta(t *testing.T) {
	loader := &fakeLoader{bundles: []*api.Bundle{
		bundle(1000, 0, 2),
		bundle(1000, 0, 2),
		bundle(1500, 0, 3),
		failedBundle(),
	}}
	s := New(Config{UserID: 9}, loader, WithClock(pain.NewManualClock(time.Unix(0, 0))))
	defer s.counter.Stop()
	ctx := context.Background()

	s.reloadOnce(ctx)
	s.reloadOnce(ctx) // unchanged: no event
	s.reloadOnce(ctx)
	s.reloadOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 3)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, EventDelta, events[1].Type)
	require.NotNil(t, events[1].Delta)
	assert.Equal(t, 1, events[1].Delta.Subscriptions)
	assert.InDelta(t, 500, events[1].Delta.TotalMonthly, 1e-9)
	assert.Equal(t, EventReloadFailed, events[2].Type)
	assert.Contains(t, events[2].Error, "down")

	st := s.snapshotStatus()
	assert.Equal(t, int64(4), st.ReloadCount)
	assert.Equal(t, 3, st.Summary.Subscriptions, "failed reload keeps the last summary")
	assert.Len(t, st.FailedSections, 5)
}

func TestPainTicksReachSubscribers(t *testing.T) {
	clock := pain.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := New(Config{UserID: 9}, &fakeLoader{bundles: []*api.Bundle{bundle(1000, 60, 1)}}, WithClock(clock))
	defer s.counter.Stop()

	ch := make(chan Event, 16)
	s.addSubscriber(ch)

	s.reloadOnce(context.Background())
	<-ch // snapshot event

	clock.Advance(5)

	var last Event
	deadline := time.After(2 * time.Second)
	for got := 0; got < 5; {
		select {
		case ev := <-ch:
			require.Equal(t, EventPainTick, ev.Type)
			last = ev
			got++
		case <-deadline:
			t.Fatalf("received %d pain ticks, want 5", got)
		}
	}
	require.NotNil(t, last.Pain)
	assert.InDelta(t, 15, last.Pain.Accumulated, 1e-9)
	assert.Equal(t, "15.00₽", last.Pain.Amount)

	s.mu.RLock()
	assert.Len(t, s.events, 1, "pain ticks are not kept in history")
	s.mu.RUnlock()
}

func TestStatusEndpointAndMetrics(t *testing.T) {
	m := metrics.New()
	s := New(Config{UserID: 9, APIURL: "http://backend"}, &fakeLoader{bundles: []*api.Bundle{bundle(999, 0, 1)}},
		WithMetrics(m), WithClock(pain.NewManualClock(time.Unix(0, 0))))
	defer s.counter.Stop()
	s.reloadOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(9), st.UserID)
	assert.InDelta(t, 999, st.Summary.TotalMonthly, 1e-9)
	assert.False(t, st.Pain.Running)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestRateLimitPerRemoteAddr(t *testing.T) {
	s := New(Config{UserID: 1, RateLimit: 0.001, RateBurst: 2}, &fakeLoader{})
	h := s.Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own budget")
}

func TestRestoreCachedSeedsSummary(t *testing.T) {
	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	first := New(Config{UserID: 9}, &fakeLoader{bundles: []*api.Bundle{bundle(777, 0, 2)}},
		WithCache(cache), WithClock(pain.NewManualClock(time.Unix(0, 0))))
	first.reloadOnce(context.Background())
	first.counter.Stop()

	second := New(Config{UserID: 9}, &fakeLoader{}, WithCache(cache))
	second.restoreCached()
	st := second.snapshotStatus()
	assert.Equal(t, 2, st.Summary.Subscriptions)
	assert.InDelta(t, 777, st.Summary.TotalMonthly, 1e-9)

	reloads, err := cache.RecentReloads(9, 5)
	require.NoError(t, err)
	require.Len(t, reloads, 1)
	assert.True(t, reloads[0].OK)
}
