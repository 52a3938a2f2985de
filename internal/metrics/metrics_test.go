package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.InstrumentHandler(m.Handler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveRequestAndReload(t *testing.T) {
	m := New()
	m.ObserveRequest("subscriptions", "200", 10*time.Millisecond)
	m.ObserveRequest("subscriptions", "200", 20*time.Millisecond)
	m.ObserveRequest("analytics", "network", time.Millisecond)
	m.RecordReload(true)
	m.RecordReload(false)
	m.SetPain(12.5, 3)

	body := scrape(t, m)
	assert.Contains(t, body, `subkill_api_requests_total{endpoint="subscriptions",status="200"} 2`)
	assert.Contains(t, body, `subkill_api_requests_total{endpoint="analytics",status="network"} 1`)
	assert.Contains(t, body, `subkill_dashboard_reloads_total{result="failed"} 1`)
	assert.Contains(t, body, "subkill_pain_accumulated_rubles 12.5")
	assert.Contains(t, body, "subkill_pain_per_minute_rubles 3")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("user", "200", time.Second)
	m.RecordReload(true)
	m.SetPain(1, 1)
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	m := New()
	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	assert.Contains(t, scrape(t, m), `subkill_http_requests_total{method="GET",path="/v1/status",status="418"} 1`)
}
