// ABOUTME: In-memory collector for operation timings, counters and threshold alerts.
// ABOUTME: Wraps store and monitor operations; metrics reset on process restart.

package metrics

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

const (
	// DefaultMaxOperationDuration is the duration above which an
	// operation triggers an alert.
	DefaultMaxOperationDuration = 100 * time.Millisecond

	// DefaultMaxMemoryBytes is the heap size above which a memory
	// check triggers an alert.
	DefaultMaxMemoryBytes = 50 << 20 // 50MB
)

// OperationStats holds accumulated timing data for one named operation.
type OperationStats struct {
	Count           uint64
	Errors          uint64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	MaxDuration     time.Duration
}

// Alert records a threshold violation. Alerts accumulate until cleared.
type Alert struct {
	Operation string
	Message   string
	Timestamp time.Time
}

// Snapshot is a read-only copy of the collector's state.
type Snapshot struct {
	Operations  map[string]OperationStats
	Alerts      []Alert
	CacheHits   uint64
	CacheMisses uint64
	ErrorCount  uint64
	LastUpdated time.Time
}

// Collector measures wall-clock durations of named operations and raises
// logged, non-fatal alerts when thresholds are exceeded. Safe for
// concurrent use.
type Collector struct {
	mu          sync.Mutex
	ops         map[string]*OperationStats
	alerts      []Alert
	cacheHits   uint64
	cacheMisses uint64
	errorCount  uint64
	lastUpdated time.Time

	maxDuration time.Duration
	maxMemory   uint64
	logger      *slog.Logger
}

// NewCollector creates a collector with default thresholds.
// Pass nil logger for default.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		ops:         make(map[string]*OperationStats),
		maxDuration: DefaultMaxOperationDuration,
		maxMemory:   DefaultMaxMemoryBytes,
		logger:      logger.With("component", "metrics"),
	}
}

// Measure runs fn, records its duration under name, and returns fn's error.
func (c *Collector) Measure(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Observe(name, time.Since(start), err)
	return err
}

// Observe records one completed operation.
func (c *Collector) Observe(name string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.ops[name]
	if !ok {
		st = &OperationStats{}
		c.ops[name] = st
	}
	st.Count++
	st.TotalDuration += d
	st.AverageDuration = st.TotalDuration / time.Duration(st.Count)
	if d > st.MaxDuration {
		st.MaxDuration = d
	}
	if err != nil {
		st.Errors++
		c.errorCount++
	}
	c.lastUpdated = time.Now()

	if d > c.maxDuration {
		c.alertLocked(name, fmt.Sprintf("operation %q exceeded duration threshold: %v", name, d))
	}
}

// CacheHit records one dedupe-cache hit.
func (c *Collector) CacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheHits++
	c.lastUpdated = time.Now()
}

// CacheMiss records one dedupe-cache miss.
func (c *Collector) CacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheMisses++
	c.lastUpdated = time.Now()
}

// CheckMemory samples the current heap size and raises an alert if it
// exceeds the memory threshold. Returns the sampled size in bytes.
func (c *Collector) CheckMemory(context string) uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ms.HeapAlloc > c.maxMemory {
		c.alertLocked(context, fmt.Sprintf("memory in %q exceeded threshold: %dMB", context, ms.HeapAlloc>>20))
	}
	return ms.HeapAlloc
}

// alertLocked appends and logs an alert. Must be called with mu held.
func (c *Collector) alertLocked(op, msg string) {
	c.alerts = append(c.alerts, Alert{
		Operation: op,
		Message:   msg,
		Timestamp: time.Now(),
	})
	c.logger.Warn("performance alert", "operation", op, "message", msg)
}

// Snapshot returns a copy of all accumulated metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops := make(map[string]OperationStats, len(c.ops))
	for name, st := range c.ops {
		ops[name] = *st
	}
	alerts := make([]Alert, len(c.alerts))
	copy(alerts, c.alerts)
	return Snapshot{
		Operations:  ops,
		Alerts:      alerts,
		CacheHits:   c.cacheHits,
		CacheMisses: c.cacheMisses,
		ErrorCount:  c.errorCount,
		LastUpdated: c.lastUpdated,
	}
}

// Alerts returns a copy of the accumulated alerts.
func (c *Collector) Alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// ClearAlerts discards all accumulated alerts.
func (c *Collector) ClearAlerts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = nil
}
