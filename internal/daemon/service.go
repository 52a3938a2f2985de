// Package daemon provides the long-running background dashboard service: it
// reloads the user's dashboard on an interval, runs the live pain counter and
// serves both over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/metrics"
	"github.com/theirongolddev/subkill/internal/pain"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	UserID       int64
	APIURL       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	RateLimit    rate.Limit // requests per second per remote address
	RateBurst    int
}

// Loader fetches a full dashboard. *api.Client satisfies it.
type Loader interface {
	LoadAll(ctx context.Context, userID int64) *api.Bundle
}

// Summary is a compact dashboard state for status/event payloads.
type Summary struct {
	At             time.Time `json:"at"`
	Generation     uint64    `json:"generation"`
	Subscriptions  int       `json:"subscriptions"`
	ActiveCount    int       `json:"active_count"`
	CancelledCount int       `json:"cancelled_count"`
	TotalMonthly   float64   `json:"total_monthly"`
	WastedMonthly  float64   `json:"wasted_monthly"`
	SavedMonthly   float64   `json:"saved_monthly"`
	HealthScore    int       `json:"health_score"`
}

// Delta captures summary changes between reloads.
type Delta struct {
	Subscriptions int     `json:"subscriptions"`
	TotalMonthly  float64 `json:"total_monthly"`
	WastedMonthly float64 `json:"wasted_monthly"`
	SavedMonthly  float64 `json:"saved_monthly"`
	HealthScore   int     `json:"health_score"`
}

func (d Delta) isZero() bool {
	return d.Subscriptions == 0 &&
		d.TotalMonthly == 0 &&
		d.WastedMonthly == 0 &&
		d.SavedMonthly == 0 &&
		d.HealthScore == 0
}

// PainReading is the live counter as served to clients.
type PainReading struct {
	Running     bool    `json:"running"`
	PerMinute   float64 `json:"per_minute"`
	Accumulated float64 `json:"accumulated"`
	Amount      string  `json:"amount,omitempty"`
	Today       string  `json:"today,omitempty"`
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventDelta        = "dashboard_delta"
	EventReloadFailed = "reload_failed"
	EventPainTick     = "pain_tick"
)

// Event is emitted whenever the dashboard or the pain counter changes.
// Pain ticks are streamed live but not kept in the event history.
type Event struct {
	ID        int64        `json:"id,omitempty"`
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Summary   *Summary     `json:"summary,omitempty"`
	Delta     *Delta       `json:"delta,omitempty"`
	Pain      *PainReading `json:"pain,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt         time.Time   `json:"started_at"`
	LastReloadAt      time.Time   `json:"last_reload_at"`
	ReloadIntervalSec int         `json:"reload_interval_sec"`
	ReloadCount       int64       `json:"reload_count"`
	UserID            int64       `json:"user_id"`
	APIURL            string      `json:"api_url,omitempty"`
	Summary           Summary     `json:"summary"`
	Pain              PainReading `json:"pain"`
	LastError         string      `json:"last_error,omitempty"`
	FailedSections    []string    `json:"failed_sections,omitempty"`
	EventCount        int         `json:"event_count"`
	SubscriberCount   int         `json:"subscriber_count"`
}

// Option configures a Service.
type Option func(*Service)

// WithCache persists every applied snapshot and seeds the store on start.
func WithCache(c *store.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics exposes collectors at /metrics and instruments the API.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces the pain counter's clock.
func WithClock(c pain.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	loader  Loader
	store   *state.Store
	cache   *store.Cache
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	clock   pain.Clock
	counter *pain.Counter

	mu             sync.RWMutex
	startedAt      time.Time
	lastReloadAt   time.Time
	reloadCount    int64
	lastError      string
	failedSections []string
	hasSummary     bool
	summary        Summary
	nextEventID    int64
	events         []Event

	nextSubID int
	subs      map[int]chan Event

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// New returns a new daemon service with the provided config.
func New(cfg Config, loader Loader, opts ...Option) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 10
	}

	s := &Service{
		cfg:       cfg,
		loader:    loader,
		store:     state.New(cfg.UserID),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	s.counter = pain.NewCounter(s.clock, s.onPainTick)
	return s
}

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	var h http.Handler = mux
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
		h = s.metrics.InstrumentHandler(h)
	}
	return s.rateLimit(h)
}

// Run starts HTTP endpoints and reloading until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer s.counter.Stop()

	s.restoreCached()
	s.reloadOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.reloadOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// restoreCached seeds the store from the on-disk cache so status is useful
// before the first reload completes.
func (s *Service) restoreCached() {
	if s.cache == nil {
		return
	}
	snap, ok, err := s.cache.LoadSnapshot(s.cfg.UserID)
	if err != nil {
		s.log.WithError(err).Warn("reading cached snapshot")
		return
	}
	if !ok {
		return
	}
	s.store.Restore(snap)

	s.mu.Lock()
	s.summary = summaryFromSnapshot(snap)
	s.hasSummary = true
	s.mu.Unlock()
}

func (s *Service) reloadOnce(ctx context.Context) {
	start := time.Now()
	b := s.loader.LoadAll(ctx, s.cfg.UserID)
	s.store.Apply(b)
	snap := s.store.Snapshot()
	failed := b.FailedSections()

	s.metrics.RecordReload(len(failed) == 0)
	if b.AnalyticsErr == nil && snap.Analytics != nil {
		st := s.counter.Restart(snap.Analytics.PainCounter)
		s.metrics.SetPain(st.Accumulated(), st.PerMinute)
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":    s.cfg.UserID,
		"generation": snap.Generation,
		"duration":   time.Since(start).Round(time.Millisecond),
	})
	if err := b.Err(); err != nil {
		log.WithError(err).WithField("failed", failed).Warn("dashboard reload incomplete")
	} else {
		log.Debug("dashboard reloaded")
	}

	if s.cache != nil {
		if err := s.cache.SaveSnapshot(snap); err != nil {
			s.log.WithError(err).Warn("caching snapshot")
		}
		if err := s.cache.RecordReload(s.cfg.UserID, snap.LoadedAt, failed); err != nil {
			s.log.WithError(err).Warn("recording reload")
		}
	}

	now := snap.LoadedAt
	sum := summaryFromSnapshot(snap)

	var events []Event

	s.mu.Lock()
	prev := s.summary
	prevExists := s.hasSummary

	s.lastReloadAt = now
	s.reloadCount++
	s.failedSections = failed
	s.lastError = ""
	if err := b.Err(); err != nil {
		s.lastError = err.Error()
	}

	if len(failed) == len(allSections) {
		s.nextEventID++
		events = append(events, Event{
			ID:        s.nextEventID,
			Type:      EventReloadFailed,
			Timestamp: now,
			Error:     s.lastError,
		})
	} else {
		s.hasSummary = true
		s.summary = sum
		if !prevExists {
			s.nextEventID++
			events = append(events, Event{
				ID:        s.nextEventID,
				Type:      EventSnapshot,
				Timestamp: now,
				Summary:   &sum,
			})
		} else if delta := diffSummaries(prev, sum); !delta.isZero() {
			s.nextEventID++
			events = append(events, Event{
				ID:        s.nextEventID,
				Type:      EventDelta,
				Timestamp: now,
				Summary:   &sum,
				Delta:     &delta,
			})
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.publishEvent(ev)
	}
}

// allSections is what a full load fetches. A reload where every one of them
// failed leaves the summary untouched.
var allSections = [...]string{"user", "subscriptions", "analytics", "popular", "achievements"}

func (s *Service) onPainTick(st pain.State) {
	s.metrics.SetPain(st.Accumulated(), st.PerMinute)
	r := readingFromState(st)
	s.broadcast(Event{
		Type:      EventPainTick,
		Timestamp: time.Now(),
		Pain:      &r,
	})
}

func readingFromState(st pain.State) PainReading {
	if !st.Running {
		return PainReading{}
	}
	d := st.Display()
	return PainReading{
		Running:     true,
		PerMinute:   st.PerMinute,
		Accumulated: st.Accumulated(),
		Amount:      d.Amount,
		Today:       d.Today,
	}
}

func summaryFromSnapshot(snap state.Snapshot) Summary {
	sum := Summary{
		At:            snap.LoadedAt,
		Generation:    snap.Generation,
		Subscriptions: len(snap.Subscriptions),
	}
	if a := snap.Analytics; a != nil {
		sum.ActiveCount = a.ActiveCount
		sum.CancelledCount = a.CancelledCount
		sum.TotalMonthly = a.TotalMonthly
		sum.WastedMonthly = a.WastedMonthly
		sum.SavedMonthly = a.SavedMonthly
		sum.HealthScore = a.HealthScore
	}
	return sum
}

func diffSummaries(prev, curr Summary) Delta {
	return Delta{
		Subscriptions: curr.Subscriptions - prev.Subscriptions,
		TotalMonthly:  curr.TotalMonthly - prev.TotalMonthly,
		WastedMonthly: curr.WastedMonthly - prev.WastedMonthly,
		SavedMonthly:  curr.SavedMonthly - prev.SavedMonthly,
		HealthScore:   curr.HealthScore - prev.HealthScore,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}
	s.mu.Unlock()

	s.broadcast(ev)
}

// broadcast delivers ev to every stream subscriber without blocking; slow
// subscribers miss events.
func (s *Service) broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Service) snapshotStatus() Status {
	reading := readingFromState(s.counter.State())

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:         s.startedAt,
		LastReloadAt:      s.lastReloadAt,
		ReloadIntervalSec: int(s.cfg.Interval.Seconds()),
		ReloadCount:       s.reloadCount,
		UserID:            s.cfg.UserID,
		APIURL:            s.cfg.APIURL,
		Summary:           s.summary,
		Pain:              reading,
		LastError:         s.lastError,
		FailedSections:    s.failedSections,
		EventCount:        len(s.events),
		SubscriberCount:   len(s.subs),
	}
}

func (s *Service) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiterFor(r.RemoteAddr).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) limiterFor(remoteAddr string) *rate.Limiter {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	l, ok := s.limiters[host]
	if !ok {
		l = rate.NewLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
		s.limiters[host] = l
	}
	return l
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	st := s.snapshotStatus()
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Summary:   &st.Summary,
		Pain:      &st.Pain,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
