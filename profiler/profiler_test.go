package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_Operations(t *testing.T) {
	p := New()
	p.RecordOperation("advance", 2*time.Millisecond)
	p.RecordOperation("advance", 4*time.Millisecond)

	op, ok := p.Operation("advance")
	require.True(t, ok)
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, 3*time.Millisecond, op.Avg())
	assert.Equal(t, 2*time.Millisecond, op.Min)
	assert.Equal(t, 4*time.Millisecond, op.Max)

	done := p.StartOperation("write")
	done()
	_, ok = p.Operation("write")
	assert.True(t, ok)
}

func TestProfiler_Metrics(t *testing.T) {
	p := New()
	p.RecordMetric("detections", 3)
	p.RecordMetric("detections", 5)

	m, ok := p.Metric("detections")
	require.True(t, ok)
	assert.Equal(t, 8.0, m.Sum)
	assert.Equal(t, 4.0, m.Avg())
	assert.Equal(t, 3.0, m.Min)
	assert.Equal(t, 5.0, m.Max)
}

func TestProfiler_NilIsNoop(t *testing.T) {
	var p *Profiler
	p.RecordOperation("x", time.Second)
	p.RecordMetric("y", 1)
	p.StartOperation("z")()
	_, ok := p.Operation("x")
	assert.False(t, ok)
}

func TestProfiler_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := New()
	p.RecordOperation("advance", time.Millisecond)
	p.RecordMetric("crossings", 1)
	p.Report(logger)

	out := buf.String()
	assert.Contains(t, out, "name=advance")
	assert.Contains(t, out, "name=crossings")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
