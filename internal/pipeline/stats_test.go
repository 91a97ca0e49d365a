package pipeline

import (
	"testing"
	"time"
)

func TestLoadStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLoadStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, StatusCompleted)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLoadStatsCountsOutcomes(t *testing.T) {
	stats := NewLoadStats(time.Hour)
	stats.Record(time.Millisecond, StatusCompleted)
	stats.Record(time.Millisecond, StatusUnchanged)
	stats.Record(time.Millisecond, StatusUnchanged)
	stats.Record(time.Millisecond, StatusFailed)

	snap := stats.Snapshot()
	if snap.ByStatus[StatusUnchanged] != 2 || snap.ByStatus[StatusFailed] != 1 || snap.ByStatus[StatusCompleted] != 1 {
		t.Fatalf("unexpected outcome counts %v", snap.ByStatus)
	}
	if snap.WindowS != 3600 {
		t.Fatalf("expected window=3600s, got %f", snap.WindowS)
	}
}

func TestLoadStatsDropsExpiredSamples(t *testing.T) {
	stats := NewLoadStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, StatusCompleted)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after expiry, got %d", snap.Count)
	}

	stats.Record(200*time.Millisecond, StatusCompleted)
	snap = stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected a single 200ms sample, got %+v", snap)
	}
}

func TestLoadStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLoadStats(time.Hour)
	stats.Record(-10*time.Millisecond, StatusFailed)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}
