// Package stats aggregates recent engine latencies for the API.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
}

// Snapshot is a point-in-time aggregate of the samples in the window.
// Durations are in microseconds; a TOC run is usually far below a millisecond.
type Snapshot struct {
	Count    int     `json:"count"`
	Changed  int     `json:"changed"`
	Failed   int     `json:"failed"`
	Headings int     `json:"headings"`
	MinUs    int64   `json:"min_us"`
	MaxUs    int64   `json:"max_us"`
	AvgUs    float64 `json:"avg_us"`
	P50Us    float64 `json:"p50_us"`
	P95Us    float64 `json:"p95_us"`
	P99Us    float64 `json:"p99_us"`
}

// Outcome describes one engine run.
type Outcome struct {
	Duration time.Duration
	Headings int
	Changed  bool
	Failed   bool
}

// Window keeps engine outcomes within a rolling time window.
type Window struct {
	mu       sync.Mutex
	samples  []sample
	outcomes []Outcome
	maxAge   time.Duration
	now      func() time.Time
}

// NewWindow returns a window that forgets samples older than maxAge
// (one hour when maxAge is not positive).
func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples:  make([]sample, 0, 256),
		outcomes: make([]Outcome, 0, 256),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Record adds one outcome.
func (w *Window) Record(o Outcome) {
	if o.Duration < 0 {
		o.Duration = 0
	}
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.samples = append(w.samples, sample{at: now, duration: o.Duration})
	w.outcomes = append(w.outcomes, o)
}

// Snapshot aggregates the samples currently in the window.
func (w *Window) Snapshot() Snapshot {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return Snapshot{}
	}

	snap := Snapshot{Count: len(w.samples)}
	values := make([]int64, 0, len(w.samples))
	var sum int64
	for i, sm := range w.samples {
		us := sm.duration.Microseconds()
		values = append(values, us)
		sum += us
		o := w.outcomes[i]
		snap.Headings += o.Headings
		if o.Changed {
			snap.Changed++
		}
		if o.Failed {
			snap.Failed++
		}
	}
	slices.Sort(values)

	snap.MinUs = values[0]
	snap.MaxUs = values[len(values)-1]
	snap.AvgUs = float64(sum) / float64(len(values))
	snap.P50Us = percentile(values, 50)
	snap.P95Us = percentile(values, 95)
	snap.P99Us = percentile(values, 99)
	return snap
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	keep := 0
	for i, sm := range w.samples {
		if !sm.at.Before(cutoff) {
			w.samples[keep] = sm
			w.outcomes[keep] = w.outcomes[i]
			keep++
		}
	}
	w.samples = w.samples[:keep]
	w.outcomes = w.outcomes[:keep]
}

func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + ((hi - lo) * weight)
}
