package controller

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/common"
)

// FrameSource supplies detections grouped by frame.
type FrameSource interface {
	// Frames returns the frame indices that have detections, ascending.
	Frames() []int
	// Detections returns the detections of one frame in table order.
	Detections(frame int) []common.Detection
}

// Sink consumes the events of each advanced frame.
type Sink interface {
	Consume(ev FrameEvents) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev FrameEvents) error

// Consume calls f.
func (f SinkFunc) Consume(ev FrameEvents) error {
	return f(ev)
}

// ReplayStats summarises one replay.
type ReplayStats struct {
	Frames     int
	Rejected   int
	Crossings  int
	Violations int
}

// Replay advances every frame of src in order and hands the events to sinks.
//
// A frame rejected by Advance is logged and skipped. A sink error stops the
// replay. Cancelling ctx stops before the next frame; the frame in progress is
// always completed.
//
// Arguments:
//   - ctx: Cancels playback between frames.
//   - src: The detection table.
//   - sinks: Event consumers, called in order for every accepted frame.
//
// Returns:
//   - ReplayStats: Counts over the accepted frames.
//   - error: A sink error, or ctx.Err() on cancellation.
func (p *Pipeline) Replay(ctx context.Context, src FrameSource, sinks ...Sink) (ReplayStats, error) {
	var stats ReplayStats
	for _, frame := range src.Frames() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ev, err := p.Advance(frame, src.Detections(frame))
		if err != nil {
			stats.Rejected++
			p.logger.Warn("frame rejected", "frame", frame, "error", err)
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
	}
	return stats, nil
}
