package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/subkill/internal/metrics"
	"github.com/theirongolddev/subkill/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestGetSubscriptionsDecodes(t *testing.T) {
	var gotPath, gotInit, gotReqID string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		gotInit = r.Header.Get("X-Telegram-Init-Data")
		gotReqID = r.Header.Get("X-Request-ID")
		return jsonResponse(http.StatusOK, `{"subscriptions":[{"id":7,"name":"Netflix","monthly_price":999,"category":"streaming","status":"active"}]}`), nil
	})}

	c := New("http://backend.test/", WithHTTPClient(hc), WithInitData("query_id=1&hash=x"))
	subs, err := c.GetSubscriptions(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, "/api/subscriptions/42", gotPath)
	assert.Equal(t, "query_id=1&hash=x", gotInit)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, int64(7), subs[0].ID)
	assert.Equal(t, 999.0, subs[0].MonthlyPrice)
	assert.Equal(t, model.StatusActive, subs[0].Status)
}

func TestGetSubscriptionsEmptyBodyYieldsEmptySlice(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})}
	subs, err := New("http://backend.test", WithHTTPClient(hc)).GetSubscriptions(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}

func TestStatusError(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"detail":"User not found"}`), nil
	})}
	_, err := New("http://backend.test", WithHTTPClient(hc)).GetUser(context.Background(), 1)
	require.Error(t, err)

	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsNetwork(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "user", se.Endpoint)
}

func TestNetworkError(t *testing.T) {
	boom := errors.New("connection refused")
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})}
	m := metrics.New()
	_, err := New("http://backend.test", WithHTTPClient(hc), WithMetrics(m)).GetAnalytics(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsStatus(err, 0))
}

func TestDecodeError(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"health_score": "not a number"`), nil
	})}
	_, err := New("http://backend.test", WithHTTPClient(hc)).GetAnalytics(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFindAlternativesEscapesName(t *testing.T) {
	var rawPath string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		rawPath = r.URL.EscapedPath()
		return jsonResponse(http.StatusOK, `{"alternatives":[{"name":"VK Музыка","price":0,"coverage":80}]}`), nil
	})}
	alts, err := New("http://backend.test", WithHTTPClient(hc)).FindAlternatives(context.Background(), "Яндекс Плюс/Семья")
	require.NoError(t, err)
	require.Len(t, alts, 1)

	assert.True(t, strings.HasPrefix(rawPath, "/api/alternatives/"))
	assert.NotContains(t, strings.TrimPrefix(rawPath, "/api/alternatives/"), "/")
	assert.Equal(t, 80.0, alts[0].Coverage)
}

func TestMutationsSendBodies(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var calls []call

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls = append(calls, call{r.Method, r.URL.Path, body})

		switch r.Method {
		case http.MethodPost:
			_, _ = io.WriteString(w, `{"status":"ok","subscription_id":11}`)
		case http.MethodPut:
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"status":"ok","saved_monthly":500}`)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	created, err := c.AddSubscription(ctx, 5, model.NewSubscription{
		Name: "Netflix", Price: 999, Category: "streaming", BillingCycle: model.CycleMonthly,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.SubscriptionID)

	level := model.UsageLow
	require.NoError(t, c.UpdateSubscription(ctx, 5, 11, model.SubscriptionPatch{UsageLevel: &level}))

	res, err := c.DeleteSubscription(ctx, 5, 11)
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.SavedMonthly)

	require.Len(t, calls, 3)
	assert.Equal(t, "/api/subscriptions/5", calls[0].path)
	assert.Equal(t, "Netflix", calls[0].body["name"])
	assert.NotContains(t, calls[0].body, "next_billing_date")

	assert.Equal(t, "/api/subscriptions/5/11", calls[1].path)
	assert.Equal(t, map[string]any{"usage_level": "low"}, calls[1].body)

	assert.Equal(t, http.MethodDelete, calls[2].method)
}

func TestHealthAndLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = io.WriteString(w, `{"status":"ok","service":"SubKiller"}`)
		case "/api/leaderboard":
			_, _ = io.WriteString(w, `{"leaderboard":[{"position":1,"name":"ivan***","saved":1200,"cancelled":3}],"total_saved":1200,"total_users":10}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	lb, err := c.GetLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "ivan***", lb.Entries[0].Name)
	assert.Equal(t, 10, lb.TotalUsers)
}
