// Package pain extrapolates the "money wasted today" counter between reloads.
package pain

import (
	"math"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/model"
)

// Interval is the tick period of a running counter.
const Interval = time.Second

// State is either idle (Running false) or a running extrapolation.
// The zero value is idle.
type State struct {
	Running   bool
	PerMinute float64
	Baseline  float64
	Start     time.Time
	Ticks     int64
}

// Start begins a fresh counter from the server's snapshot. Any previous
// accumulation is discarded. A missing or non-positive rate yields idle.
func Start(pc *model.PainCounter, now time.Time) State {
	if pc == nil || pc.PerMinute <= 0 {
		return State{}
	}
	return State{
		Running:   true,
		PerMinute: pc.PerMinute,
		Baseline:  pc.Today,
		Start:     now,
	}
}

// Tick advances a running counter by one interval. Idle states are returned
// unchanged.
func (s State) Tick() State {
	if !s.Running {
		return s
	}
	s.Ticks++
	return s
}

// PerSecond is the increment applied on each tick.
func (s State) PerSecond() float64 {
	return s.PerMinute / 60
}

// Accumulated is the counter's value after the ticks observed so far.
func (s State) Accumulated() float64 {
	return s.Baseline + s.PerSecond()*float64(s.Ticks)
}

// AccumulatedAt derives the value from wall time alone: the baseline plus one
// increment per whole interval elapsed since Start.
func AccumulatedAt(s State, now time.Time) float64 {
	if !s.Running {
		return s.Baseline
	}
	elapsed := max(0, now.Sub(s.Start))
	periods := math.Floor(float64(elapsed) / float64(Interval))
	return s.Baseline + s.PerSecond()*periods
}

// Display is the rendered pair shown in the pain banner.
type Display struct {
	Amount string // "12.34₽"
	Today  string // "Сегодня: 12₽"
}

// Display renders the current value.
func (s State) Display() Display {
	v := s.Accumulated()
	return Display{
		Amount: cli.FormatMoneyPrecise(v),
		Today:  "Сегодня: " + cli.FormatRubles(v),
	}
}
