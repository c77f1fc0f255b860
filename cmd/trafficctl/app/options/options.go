// Package options - Command line flags for trafficctl.
package options

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/nvr-ai/go-traffic/config"
)

// Global holds the flags shared by every subcommand.
type Global struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewGlobal creates the global options with defaults.
func NewGlobal() *Global {
	return &Global{LogLevel: "info", LogFormat: "json"}
}

// AddFlags registers the global flags.
func (g *Global) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&g.ConfigPath, "config", "c", g.ConfigPath, "Path to the YAML configuration; defaults apply when unset or missing.")
	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&g.LogFormat, "log-format", g.LogFormat, "Log format: json or text.")
}

// Logger builds the structured logger selected by the flags.
func (g *Global) Logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", g.LogLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch g.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", g.LogFormat)
	}
}

// Config loads the configuration file.
func (g *Global) Config() (*config.Config, error) {
	return config.Load(g.ConfigPath)
}

// Replay holds the flags of the replay command.
type Replay struct {
	Detections   string
	Scene        string
	Video        string
	Output       string
	Snapshots    string
	Logs         string
	SnapshotSize uint
}

// NewReplay creates replay options with defaults.
func NewReplay() *Replay {
	return &Replay{Logs: "logs", SnapshotSize: 256}
}

// AddFlags registers the replay flags.
func (r *Replay) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&r.Detections, "detections", "d", r.Detections, "Detection table: frame,obj_id,x1,y1,x2,y2,label per line.")
	fs.StringVarP(&r.Scene, "scene", "s", r.Scene, "YAML file with counting lines and stop regions.")
	fs.StringVar(&r.Video, "video", r.Video, "Source video; sets the frame rate and enables the annotated output.")
	fs.StringVarP(&r.Output, "output", "o", r.Output, "Annotated video to write; requires --video.")
	fs.StringVar(&r.Snapshots, "snapshots", r.Snapshots, "Directory for violation snapshots; requires --video.")
	fs.StringVar(&r.Logs, "logs", r.Logs, "Directory for the frame and violation logs.")
	fs.UintVar(&r.SnapshotSize, "snapshot-size", r.SnapshotSize, "Longest side of a violation snapshot in pixels.")
}

// Validate checks flag combinations.
func (r *Replay) Validate() error {
	if r.Detections == "" {
		return errors.New("--detections is required")
	}
	if r.Video == "" && (r.Output != "" || r.Snapshots != "") {
		return errors.New("--output and --snapshots require --video")
	}
	return nil
}

// Export holds the flags of the export command.
type Export struct {
	Detections string
	Out        string
}

// NewExport creates export options with defaults.
func NewExport() *Export {
	return &Export{Out: "output.json"}
}

// AddFlags registers the export flags.
func (e *Export) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&e.Detections, "detections", "d", e.Detections, "Detection table to project.")
	fs.StringVar(&e.Out, "out", e.Out, "JSON file to write.")
}

// Validate checks required flags.
func (e *Export) Validate() error {
	if e.Detections == "" {
		return errors.New("--detections is required")
	}
	return nil
}
