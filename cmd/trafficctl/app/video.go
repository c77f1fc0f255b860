package app

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-traffic/common"
	"github.com/nvr-ai/go-traffic/controller"
	"github.com/nvr-ai/go-traffic/render"
)

// videoReplay advances the pipeline once per decoded video frame, numbering
// frames from 1 so they line up with the detection table.
type videoReplay struct {
	capture      *gocv.VideoCapture
	writer       *gocv.VideoWriter
	overlay      *render.Overlay
	labels       *common.LabelSet
	snapshots    string
	snapshotSize uint
	logger       *slog.Logger
}

func (v *videoReplay) run(ctx context.Context, p *controller.Pipeline, src controller.FrameSource, sinks ...controller.Sink) (controller.ReplayStats, error) {
	var stats controller.ReplayStats

	img := gocv.NewMat()
	defer img.Close()

	for frame := 1; ; frame++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if ok := v.capture.Read(&img); !ok || img.Empty() {
			v.logger.Debug("video ended", "frame", frame-1)
			break
		}

		ev, err := p.Advance(frame, src.Detections(frame))
		if err != nil {
			stats.Rejected++
			v.logger.Warn("frame rejected", "frame", frame, "error", err)
			if v.writer != nil {
				if err := v.writer.Write(img); err != nil {
					return stats, errors.Wrapf(err, "write frame %d", frame)
				}
			}
			continue
		}
		stats.Frames++
		stats.Crossings += len(ev.Crossings)
		stats.Violations += len(ev.Violations)

		for _, s := range sinks {
			if err := s.Consume(ev); err != nil {
				return stats, errors.Wrapf(err, "frame %d", frame)
			}
		}

		// Snapshots are taken before the overlay is drawn.
		if v.snapshots != "" {
			for _, vio := range ev.Violations {
				path := render.SnapshotPath(v.snapshots, vio.Frame, vio.ObjectID)
				if err := render.WriteSnapshot(path, img, vio.BBox, v.snapshotSize); err != nil {
					v.logger.Warn("snapshot failed", "frame", frame, "obj_id", vio.ObjectID, "error", err)
				}
			}
		}

		if v.writer != nil {
			sc := p.Scene()
			v.overlay.DrawScene(&img, sc.Lines(), sc.Regions(), p.LineCounts())
			v.overlay.DrawFrame(&img, ev, v.labels.Name)
			if err := v.writer.Write(img); err != nil {
				return stats, errors.Wrapf(err, "write frame %d", frame)
			}
		}
	}

	if frames := src.Frames(); len(frames) > 0 && frames[len(frames)-1] > stats.Frames+stats.Rejected {
		v.logger.Warn("detections past the end of the video were ignored", "last_detection_frame", frames[len(frames)-1])
	}
	return stats, nil
}
