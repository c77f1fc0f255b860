package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-traffic/events"
	"github.com/nvr-ai/go-traffic/geo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, events.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, []string{"car", "bus_s", "bus_m", "truck_s", "truck_m", "truck_x", "bike"}, cfg.LabelNames())
	assert.Equal(t, "truck_m", cfg.LabelSet().Name(4))
}

func TestDecode_OverridesDefaults(t *testing.T) {
	doc := `
frame_rate: 29.97
stop_threshold_seconds: 5
enforcement_start_hour: 22
enforcement_end_hour: 6
labels:
  7: police
geo:
  mode: homography
  points:
    - {pixel: [809, 168], gps: [37.40105982169699, 127.11294216334416]}
    - {pixel: [990, 195], gps: [37.40109597434296, 127.11282504155552]}
    - {pixel: [1313, 721], gps: [37.40151269314831, 127.1128284898534]}
    - {pixel: [856, 710], gps: [37.40150924020716, 127.11290613188024]}
`
	cfg, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 29.97, cfg.FrameRate)
	assert.Equal(t, 5.0, cfg.StopThresholdSeconds)
	assert.Equal(t, 10, cfg.MaxDisplacementPixels, "unset fields keep defaults")
	assert.Equal(t, 22, cfg.Policy().EnforcementStartHour)
	assert.Equal(t, map[int]string{7: "police"}, cfg.Labels, "labels replace the defaults")
	assert.Equal(t, "police", cfg.LabelSet().Name(7))
	assert.Equal(t, "Label:0", cfg.LabelSet().Name(0))
	assert.Equal(t, geo.ModeHomography, cfg.Geo.Mode)

	_, err = cfg.Geo.Build()
	assert.NoError(t, err)
}

func TestDecode_Labels(t *testing.T) {
	cfg, err := Decode(strings.NewReader("labels:\n  0: car\n  7: police\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "police"}, cfg.LabelNames())
	_, ok := cfg.LabelSet().Lookup(1)
	assert.False(t, ok, "default codes are dropped")

	cfg, err = Decode(strings.NewReader("frame_rate: 25\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Labels, cfg.Labels, "no labels key keeps the defaults")

	_, err = Decode(strings.NewReader("labels: {}\n"))
	assert.True(t, errors.Is(err, ErrInvalid))

	cfg, err = Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDecode_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "negative frame rate", doc: "frame_rate: -1"},
		{name: "zero displacement", doc: "max_displacement_pixels: 0"},
		{name: "hour out of range", doc: "enforcement_start_hour: 24"},
		{name: "bad geo", doc: "geo: {mode: linear, points: []}"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			require.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader("min_frames: -3"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.StopThresholdSeconds)

	path := filepath.Join(t.TempDir(), "traffic.yaml")
	var buf bytes.Buffer
	want := DefaultConfig()
	want.FrameRate = 15
	require.NoError(t, want.Save(&buf))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
