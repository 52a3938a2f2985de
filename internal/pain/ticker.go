package pain

import (
	"sync"
	"time"

	"github.com/theirongolddev/subkill/internal/model"
)

// Clock abstracts time for the Counter.
type Clock interface {
	Now() time.Time
	// Tick returns a channel that fires every d and a func that stops it.
	Tick(d time.Duration) (<-chan time.Time, func())
}

// RealClock is backed by the time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Tick starts a time.Ticker.
func (RealClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Counter owns a running State and the single timer driving it. Restart
// stops the previous timer before starting a new one, so at most one timer
// is ever active.
type Counter struct {
	clock  Clock
	onTick func(State)

	mu    sync.Mutex
	state State
	gen   uint64
	stop  func()
}

// NewCounter creates an idle counter. onTick, if non-nil, is called from the
// timer goroutine after every tick.
func NewCounter(clock Clock, onTick func(State)) *Counter {
	if clock == nil {
		clock = RealClock{}
	}
	return &Counter{clock: clock, onTick: onTick}
}

// Restart replaces the current state with a fresh one seeded from pc.
func (c *Counter) Restart(pc *model.PainCounter) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.state = Start(pc, c.clock.Now())
	if !c.state.Running {
		return c.state
	}

	ch, stop := c.clock.Tick(Interval)
	done := make(chan struct{})
	c.stop = func() {
		stop()
		close(done)
	}
	go c.run(c.gen, ch, done)
	return c.state
}

// Stop halts the timer and leaves the counter idle.
func (c *Counter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.state = State{}
}

// State returns the latest state.
func (c *Counter) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Counter) stopLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.gen++
}

func (c *Counter) run(gen uint64, ch <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ch:
			c.mu.Lock()
			if gen != c.gen {
				c.mu.Unlock()
				return
			}
			c.state = c.state.Tick()
			s := c.state
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(s)
			}
		}
	}
}

// ManualClock is a Clock whose ticks are fired explicitly.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

// NewManualClock creates a clock frozen at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the clock's current time.
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Tick registers a ticker that fires on Advance.
func (m *ManualClock) Tick(time.Duration) (<-chan time.Time, func()) {
	t := &manualTicker{ch: make(chan time.Time)}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t.ch, func() {
		m.mu.Lock()
		t.stopped = true
		m.mu.Unlock()
	}
}

// Advance moves time forward n intervals, delivering one tick per interval
// to every live ticker. Each delivery blocks until received.
func (m *ManualClock) Advance(n int) {
	for range n {
		m.mu.Lock()
		m.now = m.now.Add(Interval)
		now := m.now
		var live []*manualTicker
		for _, t := range m.tickers {
			if !t.stopped {
				live = append(live, t)
			}
		}
		m.mu.Unlock()

		for _, t := range live {
			t.ch <- now
		}
	}
}
