// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the statistics of one run at a point in time.
type Snapshot struct {
	ElapsedSeconds float64
	Resolve        *OperationSnapshot
	Download       *OperationSnapshot
	Store          *OperationSnapshot
	Rescale        *OperationSnapshot
}

// Operation names for the collector.
const (
	OpResolve  = "resolve"
	OpDownload = "download"
	OpStore    = "store"
	OpRescale  = "rescale"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation. A non-nil err counts as a failure.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if err != nil {
		m.Failures++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Time runs fn and records its duration under op.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordTiming(op, time.Since(start), err)
	return err
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		ElapsedSeconds: time.Since(c.startTime).Seconds(),
		Resolve:        snapshotOp(c.ops[OpResolve]),
		Download:       snapshotOp(c.ops[OpDownload]),
		Store:          snapshotOp(c.ops[OpStore]),
		Rescale:        snapshotOp(c.ops[OpRescale]),
	}
}

// LogValue renders the snapshot as a slog group, skipping empty operations.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Float64("elapsed_s", s.ElapsedSeconds)}
	for _, op := range []struct {
		name string
		snap *OperationSnapshot
	}{
		{OpResolve, s.Resolve},
		{OpDownload, s.Download},
		{OpStore, s.Store},
		{OpRescale, s.Rescale},
	} {
		if op.snap == nil {
			continue
		}
		attrs = append(attrs, slog.Group(op.name,
			slog.Int64("count", op.snap.Count),
			slog.Int64("failures", op.snap.Failures),
			slog.Float64("avg_ms", op.snap.AvgTimeMs),
			slog.Int64("max_ms", op.snap.MaxTimeMs),
		))
	}
	return slog.GroupValue(attrs...)
}
