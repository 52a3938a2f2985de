package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dashboardServer serves every dashboard endpoint, failing the paths in fail
// with a 500, and records the order requests arrive in.
func dashboardServer(t *testing.T, fail map[string]bool) (*httptest.Server, func() []string) {
	t.Helper()

	var mu sync.Mutex
	var seen []string
	bodies := map[string]string{
		"/api/user/9":                `{"id":1,"telegram_id":9,"is_premium":true}`,
		"/api/subscriptions/9":       `{"subscriptions":[{"id":1,"name":"Netflix","monthly_price":999,"status":"active"}]}`,
		"/api/analytics/9":           `{"total_monthly":999,"health_score":70,"pain_counter":{"per_minute":0.02,"today":10}}`,
		"/api/popular-subscriptions": `{"subscriptions":[{"name":"Spotify","price":169,"category":"music"}],"categories":{"music":"Музыка"}}`,
		"/api/achievements/9":        `{"earned":[],"locked":[{"key":"first","emoji":"🎯","name":"Первый шаг"}]}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()

		if fail[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

func TestLoadAllSuccess(t *testing.T) {
	srv, seen := dashboardServer(t, nil)

	b := New(srv.URL).LoadAll(context.Background(), 9)
	require.NoError(t, b.Err())
	assert.False(t, b.NetworkFailed())

	require.NotNil(t, b.User)
	assert.True(t, b.User.IsPremium)
	assert.Len(t, b.Subscriptions, 1)
	require.NotNil(t, b.Analytics.PainCounter)
	assert.Equal(t, 10.0, b.Analytics.PainCounter.Today)
	assert.Equal(t, "Музыка", b.Popular.Categories["music"])
	assert.Len(t, b.Achievements.Locked, 1)
	assert.False(t, b.FetchedAt.IsZero())

	order := seen()
	require.Len(t, order, 5)
	assert.ElementsMatch(t, []string{"/api/user/9", "/api/subscriptions/9", "/api/analytics/9"}, order[:3])
	assert.Equal(t, []string{"/api/popular-subscriptions", "/api/achievements/9"}, order[3:])
}

func TestLoadAllPartialFailure(t *testing.T) {
	srv, seen := dashboardServer(t, map[string]bool{"/api/analytics/9": true})

	b := New(srv.URL).LoadAll(context.Background(), 9)

	assert.True(t, IsStatus(b.AnalyticsErr, http.StatusInternalServerError))
	assert.Nil(t, b.Analytics)
	assert.NoError(t, b.UserErr)
	assert.NoError(t, b.SubsErr)
	assert.Len(t, b.Subscriptions, 1)
	assert.NotNil(t, b.Popular)
	assert.NotNil(t, b.Achievements)
	assert.False(t, b.NetworkFailed())
	assert.Len(t, seen(), 5)
}

func TestLoadAllNetworkFailure(t *testing.T) {
	srv, _ := dashboardServer(t, nil)
	url := srv.URL
	srv.Close()

	b := New(url).LoadAll(context.Background(), 9)
	assert.True(t, b.NetworkFailed())
	assert.Len(t, b.Errors(), 5)
}
