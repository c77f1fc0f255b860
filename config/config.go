// Package config - Runtime configuration for the traffic event pipeline.
package config

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-traffic/common"
	"github.com/nvr-ai/go-traffic/events"
	"github.com/nvr-ai/go-traffic/geo"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the pipeline thresholds and collaborator settings. Values are
// loaded from YAML over DefaultConfig and are not changed after startup.
type Config struct {
	// FrameRate overrides the source frame rate; 0 means read it from the video.
	FrameRate float64 `yaml:"frame_rate"`

	StopThresholdSeconds  float64 `yaml:"stop_threshold_seconds"`
	MaxDisplacementPixels int     `yaml:"max_displacement_pixels"`
	MinFrames             int     `yaml:"min_frames"`
	EnforcementStartHour  int     `yaml:"enforcement_start_hour"`
	EnforcementEndHour    int     `yaml:"enforcement_end_hour"`

	EnforceableClasses []string       `yaml:"enforceable_classes"`
	ExemptClasses      []string       `yaml:"exempt_classes"`
	Labels             map[int]string `yaml:"labels"`

	// Geo calibrates the pixel to GPS projection used by exports.
	Geo geo.Calibration `yaml:"geo"`
}

// DefaultConfig returns a Config populated with the reference thresholds.
func DefaultConfig() *Config {
	p := events.DefaultPolicy()
	labels := make(map[int]string, len(common.DefaultLabels))
	for _, l := range common.DefaultLabels {
		labels[l.Code] = l.Name
	}
	return &Config{
		StopThresholdSeconds:  p.StopThresholdSeconds,
		MaxDisplacementPixels: p.MaxDisplacementPixels,
		MinFrames:             p.MinFrames,
		EnforcementStartHour:  p.EnforcementStartHour,
		EnforcementEndHour:    p.EnforcementEndHour,
		EnforceableClasses:    p.EnforceableClasses,
		ExemptClasses:         p.ExemptClasses,
		Labels:                labels,
		Geo:                   geo.DefaultCalibration(),
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.FrameRate < 0:
		return errors.Wrapf(ErrInvalid, "frame_rate %v < 0", c.FrameRate)
	case c.StopThresholdSeconds < 0:
		return errors.Wrapf(ErrInvalid, "stop_threshold_seconds %v < 0", c.StopThresholdSeconds)
	case c.MaxDisplacementPixels <= 0:
		return errors.Wrapf(ErrInvalid, "max_displacement_pixels %d <= 0", c.MaxDisplacementPixels)
	case c.MinFrames < 0:
		return errors.Wrapf(ErrInvalid, "min_frames %d < 0", c.MinFrames)
	case c.EnforcementStartHour < 0 || c.EnforcementStartHour > 23:
		return errors.Wrapf(ErrInvalid, "enforcement_start_hour %d", c.EnforcementStartHour)
	case c.EnforcementEndHour < 0 || c.EnforcementEndHour > 24:
		return errors.Wrapf(ErrInvalid, "enforcement_end_hour %d", c.EnforcementEndHour)
	case len(c.Labels) == 0:
		return errors.Wrap(ErrInvalid, "labels must not be empty")
	}
	return c.Geo.Validate()
}

// Policy converts the thresholds for the violation evaluator.
func (c *Config) Policy() events.Policy {
	return events.Policy{
		StopThresholdSeconds:  c.StopThresholdSeconds,
		MaxDisplacementPixels: c.MaxDisplacementPixels,
		MinFrames:             c.MinFrames,
		EnforcementStartHour:  c.EnforcementStartHour,
		EnforcementEndHour:    c.EnforcementEndHour,
		EnforceableClasses:    append([]string(nil), c.EnforceableClasses...),
		ExemptClasses:         append([]string(nil), c.ExemptClasses...),
	}
}

// LabelSet builds the class label table.
func (c *Config) LabelSet() *common.LabelSet {
	return common.FromMap(c.Labels)
}

// Decode reads YAML over the defaults and validates the result. A labels key
// replaces the default label table rather than merging into it.
func Decode(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		if hasKey(root, "labels") {
			cfg.Labels = nil
		}
		if err := root.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func hasKey(n *yaml.Node, key string) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Load reads configuration from the given YAML file. A missing file yields
// DefaultConfig; an empty path does too.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}

// LabelNames returns label names ordered by code.
func (c *Config) LabelNames() []string {
	codes := make([]int, 0, len(c.Labels))
	for code := range c.Labels {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	names := make([]string, len(codes))
	for i, code := range codes {
		names[i] = c.Labels[code]
	}
	return names
}
