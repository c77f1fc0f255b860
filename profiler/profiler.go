// Package profiler - Lightweight timing and counter statistics for replay runs.
package profiler

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	Sum   float64
	Min   float64
	Max   float64
	Count int64
}

// Avg returns the mean of the recorded values.
func (t MetricTracker) Avg() float64 {
	if t.Count == 0 {
		return 0
	}
	return t.Sum / float64(t.Count)
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Count int64
}

// Avg returns the mean duration.
func (t TimeTracker) Avg() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// Profiler records operation timings and custom metrics. It is safe for
// concurrent use. A nil *Profiler is valid and records nothing.
type Profiler struct {
	mu         sync.Mutex
	startTime  time.Time
	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{
		startTime:  time.Now(),
		metrics:    make(map[string]*MetricTracker),
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - A function to call when the operation completes.
//
// @example
// done := p.StartOperation("advance")
// defer done()
func (p *Profiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.RecordOperation(name, time.Since(start))
	}
}

// RecordOperation records one completed operation.
func (p *Profiler) RecordOperation(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &TimeTracker{Min: d, Max: d}
		p.operations[name] = t
	}
	t.Total += d
	t.Count++
	if d < t.Min {
		t.Min = d
	}
	if d > t.Max {
		t.Max = d
	}
}

// RecordMetric records a custom metric value.
func (p *Profiler) RecordMetric(name string, value float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.metrics[name]
	if !ok {
		t = &MetricTracker{Min: value, Max: value}
		p.metrics[name] = t
	}
	t.Sum += value
	t.Count++
	if value < t.Min {
		t.Min = value
	}
	if value > t.Max {
		t.Max = value
	}
}

// Operation returns a copy of the tracker for name.
func (p *Profiler) Operation(name string) (TimeTracker, bool) {
	if p == nil {
		return TimeTracker{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.operations[name]
	if !ok {
		return TimeTracker{}, false
	}
	return *t, true
}

// Metric returns a copy of the tracker for name.
func (p *Profiler) Metric(name string) (MetricTracker, bool) {
	if p == nil {
		return MetricTracker{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.metrics[name]
	if !ok {
		return MetricTracker{}, false
	}
	return *t, true
}

// Report logs one line per operation and metric, plus a memory summary.
func (p *Profiler) Report(logger *slog.Logger) {
	if p == nil || logger == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Info("profile",
		"uptime", time.Since(p.startTime).Truncate(time.Millisecond),
		"heap_alloc", formatBytes(mem.HeapAlloc),
		"gc_cycles", mem.NumGC,
	)

	for _, name := range sortedKeys(p.operations) {
		t := p.operations[name]
		logger.Info("operation",
			"name", name,
			"count", t.Count,
			"avg", t.Avg().Truncate(time.Microsecond),
			"min", t.Min.Truncate(time.Microsecond),
			"max", t.Max.Truncate(time.Microsecond),
		)
	}
	for _, name := range sortedKeys(p.metrics) {
		t := p.metrics[name]
		logger.Info("metric", "name", name, "count", t.Count, "sum", t.Sum, "avg", t.Avg(), "min", t.Min, "max", t.Max)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
