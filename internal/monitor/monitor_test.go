package monitor

import (
	"testing"
	"time"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	m := New(WithInterval(time.Hour)) // tests drive counters directly
	t.Cleanup(m.Stop)
	return m
}

func TestMonitor_HitRate(t *testing.T) {
	m := newTestMonitor(t)

	m.TrackCacheHit()
	m.TrackCacheHit()
	m.TrackCacheHit()
	m.TrackCacheMiss()

	s := m.Snapshot()
	if s.CacheHits != 3 {
		t.Errorf("CacheHits = %d, want 3", s.CacheHits)
	}
	if s.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", s.CacheMisses)
	}
	if s.CacheHitRate != 0.75 {
		t.Errorf("CacheHitRate = %v, want 0.75", s.CacheHitRate)
	}
}

func TestMonitor_HitRate_NoLookups(t *testing.T) {
	m := newTestMonitor(t)

	if got := m.Snapshot().CacheHitRate; got != 0 {
		t.Errorf("CacheHitRate with no lookups = %v, want 0", got)
	}
}

func TestMonitor_Snapshot_Counters(t *testing.T) {
	m := newTestMonitor(t)

	m.TrackNetworkRequest()
	m.TrackNetworkRequest()
	m.TrackFrameDrop()

	s := m.Snapshot()
	if s.NetworkRequests != 2 {
		t.Errorf("NetworkRequests = %d, want 2", s.NetworkRequests)
	}
	if s.FrameDrops != 1 {
		t.Errorf("FrameDrops = %d, want 1", s.FrameDrops)
	}
	if s.SampledAt.IsZero() {
		t.Error("SampledAt is zero, want initial sample timestamp")
	}
	if s.Goroutines <= 0 {
		t.Errorf("Goroutines = %d, want > 0", s.Goroutines)
	}
}

func TestMonitor_CheckIssues_NoneTriggered(t *testing.T) {
	m := newTestMonitor(t)

	m.TrackCacheHit()
	m.TrackCacheHit()

	if issues := m.CheckIssues(); len(issues) != 0 {
		t.Errorf("CheckIssues() = %v, want none", issues)
	}
}

func TestMonitor_CheckIssues_LowHitRate(t *testing.T) {
	m := newTestMonitor(t)

	m.TrackCacheHit()
	m.TrackCacheMiss()
	m.TrackCacheMiss()
	m.TrackCacheMiss()

	if !hasIssue(m.CheckIssues(), IssueLowHitRate) {
		t.Error("CheckIssues() missing low_hit_rate at 25% hit rate")
	}
}

func TestMonitor_CheckIssues_LowHitRateNeedsLookups(t *testing.T) {
	m := newTestMonitor(t)

	// Zero lookups means a 0 hit rate, but the issue must not fire.
	if hasIssue(m.CheckIssues(), IssueLowHitRate) {
		t.Error("CheckIssues() reported low_hit_rate with no lookups tracked")
	}
}

func TestMonitor_CheckIssues_FrameDrops(t *testing.T) {
	m := newTestMonitor(t)

	for i := 0; i < frameDropCeiling; i++ {
		m.TrackFrameDrop()
	}
	if hasIssue(m.CheckIssues(), IssueFrameDrops) {
		t.Error("CheckIssues() reported frame_drops at the ceiling, want strictly above")
	}

	m.TrackFrameDrop()
	if !hasIssue(m.CheckIssues(), IssueFrameDrops) {
		t.Error("CheckIssues() missing frame_drops above the ceiling")
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := New(WithInterval(10 * time.Millisecond))
	m.Stop()
	m.Stop()
}

func hasIssue(issues []Issue, want Issue) bool {
	for _, issue := range issues {
		if issue == want {
			return true
		}
	}
	return false
}
