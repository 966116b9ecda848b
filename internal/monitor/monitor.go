// Package monitor provides a passive runtime performance sampler: a
// fixed-interval loop that reads process counters and exposes the latest
// snapshot plus threshold-based issue detection. The monitor never returns
// errors; platform reads that fail degrade to zero values.
package monitor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Issue identifies a triggered performance threshold.
type Issue string

const (
	// IssueHighMemory fires when heap usage exceeds memoryCeilingBytes.
	IssueHighMemory Issue = "high_memory"
	// IssueLowHitRate fires when the cache hit rate drops below minHitRate
	// (only once at least one lookup has been tracked).
	IssueLowHitRate Issue = "low_hit_rate"
	// IssueFrameDrops fires when the tracked frame-drop count exceeds
	// frameDropCeiling.
	IssueFrameDrops Issue = "frame_drops"
)

// Thresholds are fixed at compile time, not configurable per instance.
const (
	memoryCeilingBytes = 512 << 20
	minHitRate         = 0.5
	frameDropCeiling   = 60

	defaultInterval = 5 * time.Second

	// cpuWindow is the number of recent CPU samples summarized in the
	// snapshot.
	cpuWindow = 12
)

// Snapshot is a point-in-time performance reading. Counter-derived fields
// are computed at read time; platform-sampled fields carry the values of
// the most recent tick.
type Snapshot struct {
	MemoryUsed      uint64
	CPUPercent      float64
	CPUMean         float64
	CPUStdDev       float64
	CacheHitRate    float64 // ratio in [0, 1]
	NetworkRequests int64
	CacheHits       int64
	CacheMisses     int64
	FrameDrops      int64
	Goroutines      int
	Uptime          time.Duration
	SampledAt       time.Time
}

// Monitor samples process counters on a fixed interval. Counters are
// monotonically increasing for the monitor's lifetime; there is no reset
// short of creating a new monitor.
type Monitor struct {
	logger   *zap.Logger
	interval time.Duration
	start    time.Time

	networkRequests atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	frameDrops      atomic.Int64

	proc        procfs.Proc
	hasProc     bool
	lastCPUTime float64
	lastTick    time.Time

	mu         sync.RWMutex
	sampled    Snapshot
	cpuSamples []float64

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling interval. Default is 5s.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a monitor and starts its sampling loop.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		logger:   zap.NewNop(),
		interval: defaultInterval,
		start:    time.Now(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	// procfs is unavailable on some platforms; CPU readings degrade to 0.
	if proc, err := procfs.Self(); err == nil {
		m.proc = proc
		m.hasProc = true
	} else {
		m.logger.Debug("procfs unavailable, CPU sampling disabled", zap.Error(err))
	}

	m.lastTick = time.Now()
	m.sample()
	go m.run()

	return m
}

// run is the sampling loop.
func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

// Stop terminates the sampling loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// TrackNetworkRequest records one outbound network request.
func (m *Monitor) TrackNetworkRequest() { m.networkRequests.Add(1) }

// TrackCacheHit records one cache lookup served from cache.
func (m *Monitor) TrackCacheHit() { m.cacheHits.Add(1) }

// TrackCacheMiss records one cache lookup that fell through.
func (m *Monitor) TrackCacheMiss() { m.cacheMisses.Add(1) }

// TrackFrameDrop records one dropped frame reported by the render layer.
func (m *Monitor) TrackFrameDrop() { m.frameDrops.Add(1) }

// Snapshot returns the latest computed values. Never blocks on sampling;
// counter-derived fields are current as of the call.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.sampled
	m.mu.RUnlock()

	s.NetworkRequests = m.networkRequests.Load()
	s.CacheHits = m.cacheHits.Load()
	s.CacheMisses = m.cacheMisses.Load()
	s.FrameDrops = m.frameDrops.Load()
	s.CacheHitRate = m.hitRate()
	s.Goroutines = runtime.NumGoroutine()
	s.Uptime = time.Since(m.start)
	return s
}

// CheckIssues evaluates the fixed thresholds and returns the set of
// triggered issue kinds.
func (m *Monitor) CheckIssues() []Issue {
	var issues []Issue

	m.mu.RLock()
	memoryUsed := m.sampled.MemoryUsed
	m.mu.RUnlock()

	if memoryUsed > memoryCeilingBytes {
		issues = append(issues, IssueHighMemory)
	}
	if lookups := m.cacheHits.Load() + m.cacheMisses.Load(); lookups > 0 && m.hitRate() < minHitRate {
		issues = append(issues, IssueLowHitRate)
	}
	if m.frameDrops.Load() > frameDropCeiling {
		issues = append(issues, IssueFrameDrops)
	}

	return issues
}

// hitRate returns hits/(hits+misses), guarded to 0 with no lookups.
func (m *Monitor) hitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// sample reads the platform counters and stores a new snapshot.
func (m *Monitor) sample() {
	now := time.Now()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	cpu := m.sampleCPU(now)

	m.mu.Lock()
	m.cpuSamples = append(m.cpuSamples, cpu)
	if len(m.cpuSamples) > cpuWindow {
		m.cpuSamples = m.cpuSamples[len(m.cpuSamples)-cpuWindow:]
	}
	m.sampled = Snapshot{
		MemoryUsed: ms.HeapAlloc,
		CPUPercent: cpu,
		CPUMean:    stat.Mean(m.cpuSamples, nil),
		SampledAt:  now,
	}
	if len(m.cpuSamples) > 1 {
		m.sampled.CPUStdDev = stat.StdDev(m.cpuSamples, nil)
	}
	m.mu.Unlock()
}

// sampleCPU estimates CPU usage since the previous tick as a percentage.
// Any procfs failure degrades to 0.
func (m *Monitor) sampleCPU(now time.Time) float64 {
	if !m.hasProc {
		return 0
	}

	st, err := m.proc.Stat()
	if err != nil {
		m.logger.Debug("reading proc stat failed", zap.Error(err))
		return 0
	}

	total := st.CPUTime()
	elapsed := now.Sub(m.lastTick).Seconds()
	used := total - m.lastCPUTime
	m.lastCPUTime = total
	m.lastTick = now

	if elapsed <= 0 || used < 0 {
		return 0
	}
	return used / elapsed * 100
}
