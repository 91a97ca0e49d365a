package pipeline

import (
	"slices"
	"sync"
	"time"
)

type loadSample struct {
	at         time.Time
	durationMs int64
	status     JobStatus
}

// LoadStatsSnapshot aggregates the reloads inside the window.
type LoadStatsSnapshot struct {
	Count    int               `json:"count"`
	ByStatus map[JobStatus]int `json:"by_status"`
	MinMs    int64             `json:"min_ms"`
	MaxMs    int64             `json:"max_ms"`
	AvgMs    float64           `json:"avg_ms"`
	P50Ms    float64           `json:"p50_ms"`
	P95Ms    float64           `json:"p95_ms"`
	P99Ms    float64           `json:"p99_ms"`
	WindowS  float64           `json:"window_s"`
}

// LoadStats keeps reload latencies and outcomes for a rolling window.
type LoadStats struct {
	mu      sync.Mutex
	samples []loadSample
	window  time.Duration
}

func NewLoadStats(window time.Duration) *LoadStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LoadStats{
		samples: make([]loadSample, 0, 64),
		window:  window,
	}
}

// Record adds one finished reload.
func (s *LoadStats) Record(d time.Duration, status JobStatus) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(now)
	s.samples = append(s.samples, loadSample{at: now, durationMs: ms, status: status})
}

func (s *LoadStats) Snapshot() LoadStatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpiredLocked(now)

	snap := LoadStatsSnapshot{
		ByStatus: make(map[JobStatus]int),
		WindowS:  s.window.Seconds(),
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, len(s.samples))
	var sum int64
	for i, sm := range s.samples {
		values[i] = sm.durationMs
		sum += sm.durationMs
		snap.ByStatus[sm.status]++
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = quantile(values, 0.50)
	snap.P95Ms = quantile(values, 0.95)
	snap.P99Ms = quantile(values, 0.99)
	return snap
}

func (s *LoadStats) dropExpiredLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm loadSample) bool {
		return sm.at.Before(cutoff)
	})
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []int64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * q
	lower := int(pos)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	frac := pos - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*frac
}
