package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-traffic/cmd/trafficctl/app/options"
	"github.com/nvr-ai/go-traffic/config"
	"github.com/nvr-ai/go-traffic/controller"
	"github.com/nvr-ai/go-traffic/profiler"
	"github.com/nvr-ai/go-traffic/render"
	"github.com/nvr-ai/go-traffic/scene"
	"github.com/nvr-ai/go-traffic/sink"
	"github.com/nvr-ai/go-traffic/util"
)

const (
	frameLogName     = "frame_log.csv"
	violationLogName = "illegal_log.csv"
)

func newReplayCommand(g *options.Global) *cobra.Command {
	r := options.NewReplay()

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a detection table through the event pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.Validate(); err != nil {
				return err
			}
			logger, err := setup(g)
			if err != nil {
				return err
			}
			cfg, err := g.Config()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runReplay(ctx, cfg, r, logger)
		},
	}
	r.AddFlags(cmd.Flags())
	return cmd
}

func runReplay(ctx context.Context, cfg *config.Config, r *options.Replay, logger *slog.Logger) (err error) {
	table, err := util.LoadDetectionFile(r.Detections)
	if err != nil {
		return err
	}
	logger.Info("detections loaded", "path", r.Detections, "detections", table.Len(), "frames", len(table.Frames()))

	sc := scene.New()
	if r.Scene != "" {
		if sc, err = scene.LoadFile(r.Scene); err != nil {
			return err
		}
	}
	logger.Info("scene loaded", "lines", len(sc.Lines()), "regions", len(sc.Regions()))

	var capture *gocv.VideoCapture
	fps := cfg.FrameRate
	if r.Video != "" {
		if capture, err = gocv.VideoCaptureFile(r.Video); err != nil {
			return errors.Wrapf(err, "open video %s", r.Video)
		}
		defer capture.Close()
		if fps == 0 {
			fps = capture.Get(gocv.VideoCaptureFPS)
		}
	}
	if fps <= 0 {
		return errors.New("frame rate unknown: pass --video or set frame_rate in the config")
	}

	projector, err := cfg.Geo.Build()
	if err != nil {
		return err
	}

	prof := profiler.New()
	labels := cfg.LabelSet()
	p, err := controller.New(sc, controller.Config{
		FrameRate: fps,
		Policy:    cfg.Policy(),
		Labels:    labels,
		Logger:    logger,
		Profiler:  prof,
	})
	if err != nil {
		return err
	}

	frameLog, err := sink.CreateFrameLog(filepath.Join(r.Logs, frameLogName))
	if err != nil {
		return err
	}
	defer closeLog(&err, frameLog, frameLogName)
	violationLog, err := sink.CreateViolationLog(filepath.Join(r.Logs, violationLogName))
	if err != nil {
		return err
	}
	defer closeLog(&err, violationLog, violationLogName)
	sinks := []controller.Sink{frameLog, violationLog}

	var stats controller.ReplayStats
	if capture == nil {
		stats, err = p.Replay(ctx, table, sinks...)
	} else {
		v := &videoReplay{
			capture:      capture,
			overlay:      render.NewOverlay(projector),
			labels:       labels,
			snapshots:    r.Snapshots,
			snapshotSize: r.SnapshotSize,
			logger:       logger,
		}
		if r.Output != "" {
			w := int(capture.Get(gocv.VideoCaptureFrameWidth))
			h := int(capture.Get(gocv.VideoCaptureFrameHeight))
			if v.writer, err = gocv.VideoWriterFile(r.Output, "MJPG", fps, w, h, true); err != nil {
				return errors.Wrapf(err, "create video %s", r.Output)
			}
			defer v.writer.Close()
		}
		stats, err = v.run(ctx, p, table, sinks...)
	}

	logger.Info("replay finished",
		"session", p.Session(),
		"frames", stats.Frames,
		"rejected", stats.Rejected,
		"crossings", stats.Crossings,
		"violations", stats.Violations,
		"line_counts", p.LineCounts(),
	)
	prof.Report(logger)

	if errors.Is(err, context.Canceled) {
		logger.Warn("replay interrupted")
		return nil
	}
	return err
}

// closeLog closes c, keeping the first error of the run in *errp.
func closeLog(errp *error, c io.Closer, name string) {
	if err := c.Close(); err != nil && *errp == nil {
		*errp = errors.Wrapf(err, "close %s", name)
	}
}
