package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-traffic/cmd/trafficctl/app/options"
	"github.com/nvr-ai/go-traffic/config"
	"github.com/nvr-ai/go-traffic/sink"
)

const sceneYAML = `
lines:
  - from: [50, 0]
    to: [50, 200]
    description: gate
regions: []
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunReplay_WritesLogs(t *testing.T) {
	dir := t.TempDir()
	dets := writeFile(t, dir, "dets.txt", "1,1,30,90,40,110,0\n2,1,60,90,70,110,0\n3,1,90,90,100,110,0\n")
	sc := writeFile(t, dir, "scene.yaml", sceneYAML)

	cfg := config.DefaultConfig()
	cfg.FrameRate = 10
	r := options.NewReplay()
	r.Detections = dets
	r.Scene = sc
	r.Logs = filepath.Join(dir, "logs")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, runReplay(context.Background(), cfg, r, logger))

	frameLog, err := os.ReadFile(filepath.Join(r.Logs, frameLogName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(frameLog)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "frame,obj_id,x1,y1,x2,y2,label,line_1", lines[0])
	assert.Equal(t, "1,1,30,90,40,110,0,0", lines[1])
	assert.Equal(t, "2,1,60,90,70,110,0,1", lines[2])

	violations, err := os.ReadFile(filepath.Join(r.Logs, violationLogName))
	require.NoError(t, err)
	assert.Equal(t, "frame,obj_id,label,x1,y1,x2,y2,stop_seconds", strings.TrimSpace(string(violations)))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseLog(t *testing.T) {
	full := errors.New("disk full")

	var err error
	closeLog(&err, closerFunc(func() error { return full }), frameLogName)
	assert.ErrorIs(t, err, full)
	assert.ErrorContains(t, err, frameLogName)

	closeLog(&err, closerFunc(func() error { return errors.New("later") }), violationLogName)
	assert.ErrorIs(t, err, full, "the first error wins")

	err = nil
	closeLog(&err, closerFunc(func() error { return nil }), frameLogName)
	assert.NoError(t, err)
}

func TestRunReplay_NeedsFrameRate(t *testing.T) {
	dir := t.TempDir()
	r := options.NewReplay()
	r.Detections = writeFile(t, dir, "dets.txt", "1,1,30,90,40,110,0\n")
	r.Logs = filepath.Join(dir, "logs")

	err := runReplay(context.Background(), config.DefaultConfig(), r, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorContains(t, err, "frame rate unknown")
}

func TestRunReplay_Cancelled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.FrameRate = 10
	r := options.NewReplay()
	r.Detections = writeFile(t, dir, "dets.txt", "1,1,30,90,40,110,0\n")
	r.Logs = filepath.Join(dir, "logs")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, runReplay(ctx, cfg, r, slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestRunExport(t *testing.T) {
	dir := t.TempDir()
	e := options.NewExport()
	e.Detections = writeFile(t, dir, "dets.txt", "1,4,96,414,98,416,0\n2,4,97,400,99,430,3\n")
	e.Out = filepath.Join(dir, "out", "output.json")

	n, err := runExport(config.DefaultConfig(), e)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(e.Out)
	require.NoError(t, err)
	var points []sink.TrackPoint
	require.NoError(t, json.Unmarshal(data, &points))
	require.Len(t, points, 2)
	assert.Equal(t, 4, points[0].ID)
	assert.Equal(t, "truck_s", points[1].Label)
	assert.InDelta(t, 37.401383, points[0].GPS.Lat, 1e-9)
	assert.InDelta(t, 127.112679, points[0].GPS.Lng, 1e-9)
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"replay", "export"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}
