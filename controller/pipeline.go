// Package controller - The frame event pipeline that drives crossing, dwell and violation detection.
package controller

import (
	"image"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/common"
	"github.com/nvr-ai/go-traffic/events"
	"github.com/nvr-ai/go-traffic/geometry"
	"github.com/nvr-ai/go-traffic/profiler"
	"github.com/nvr-ai/go-traffic/scene"
)

var (
	// ErrFrameOrder is returned when a frame index does not advance.
	ErrFrameOrder = errors.New("frame index must increase")
	// ErrFrameMismatch is returned when a detection belongs to another frame.
	ErrFrameMismatch = errors.New("detection frame does not match")
)

// Config configures a Pipeline. It is read once at construction.
type Config struct {
	// FrameRate of the source video in frames per second.
	FrameRate float64
	// Policy holds the violation thresholds; the zero value means
	// events.DefaultPolicy().
	Policy events.Policy
	// Labels maps class codes to names; nil means common.DefaultLabels.
	Labels *common.LabelSet
	// Clock drives the enforcement window; nil means the system clock.
	Clock events.Clock
	// Logger receives debug events; nil means slog.Default().
	Logger *slog.Logger
	// Profiler, if set, times every Advance call.
	Profiler *profiler.Profiler
}

// CrossingEvent is a newly counted line crossing.
type CrossingEvent struct {
	Frame    int
	ObjectID int
	LineID   int
	// Count is the line count after this crossing.
	Count int
}

// ViolationEvent is a newly flagged stationary object.
type ViolationEvent struct {
	Frame           int
	ObjectID        int
	DurationSeconds float64
	BBox            image.Rectangle
	Class           int
	Label           string
}

// ObjectState is the per-detection outcome of one frame, aligned with the
// LineIDs and RegionIDs of the enclosing FrameEvents.
type ObjectState struct {
	Detection common.Detection
	Centroid  geometry.Point
	// Crossed[i] reports whether the object has ever crossed line LineIDs[i].
	Crossed []bool
	// Inside[i] reports whether the centroid is inside region RegionIDs[i].
	Inside []bool
	Dwell  events.DwellTransition
}

// FrameEvents is everything newly observed while advancing one frame.
type FrameEvents struct {
	Frame      int
	LineIDs    []int
	RegionIDs  []int
	Crossings  []CrossingEvent
	Violations []ViolationEvent
	Exits      []events.DwellTransition
	Objects    []ObjectState
}

// TrackState is the per-object session memory.
type TrackState struct {
	ObjectID     int
	Previous     *geometry.Point
	LastFrame    int
	CrossedLines []int
	Dwell        *events.DwellRecord
	Flagged      bool
}

type track struct {
	previous  geometry.Point
	lastFrame int
}

// Pipeline owns the state of one session over one video and detection table.
//
// Every call to Advance is one atomic frame step guarded by a single mutex, so
// a UI goroutine may edit the scene or read counts while playback runs.
type Pipeline struct {
	mu         sync.Mutex
	scene      *scene.Scene
	labels     *common.LabelSet
	logger     *slog.Logger
	profiler   *profiler.Profiler
	tracks     map[int]*track
	crossing   *events.CrossingDetector
	dwell      *events.DwellTracker
	violations *events.ViolationEvaluator
	lastFrame  int
	session    uuid.UUID
}

// New creates a pipeline over the given scene with empty session state.
//
// Arguments:
//   - sc: The line and region tables; edits between frames are picked up.
//   - cfg: Frame rate, thresholds and collaborators.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: When the frame rate is not positive or the policy is unusable.
func New(sc *scene.Scene, cfg Config) (*Pipeline, error) {
	if sc == nil {
		sc = scene.New()
	}
	dwell, err := events.NewDwellTracker(cfg.FrameRate)
	if err != nil {
		return nil, err
	}
	policy := cfg.Policy
	if policy.IsZero() {
		policy = events.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	labels := cfg.Labels
	if labels == nil {
		labels = common.NewLabelSet(common.DefaultLabels...)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		scene:      sc,
		labels:     labels,
		logger:     logger,
		profiler:   cfg.Profiler,
		tracks:     make(map[int]*track),
		crossing:   events.NewCrossingDetector(),
		dwell:      dwell,
		violations: events.NewViolationEvaluator(policy, labels, cfg.Clock),
		session:    uuid.New(),
	}, nil
}

// Session identifies the current session; Reset starts a new one.
func (p *Pipeline) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.String()
}

// Scene returns the scene the pipeline reads lines and regions from.
func (p *Pipeline) Scene() *scene.Scene {
	return p.scene
}

// Advance processes the detections of one frame.
//
// All detections are validated before any state changes; an invalid detection
// rejects the whole frame and leaves the session untouched, and later frames
// can still be advanced.
//
// Arguments:
//   - frame: The frame index, greater than the previous advanced frame.
//   - dets: The detections of this frame, processed in order.
//
// Returns:
//   - FrameEvents: The events fired in this frame.
//   - error: ErrFrameOrder, ErrFrameMismatch or common.ErrInvalidDetection.
func (p *Pipeline) Advance(frame int, dets []common.Detection) (FrameEvents, error) {
	defer p.profiler.StartOperation("advance")()

	p.mu.Lock()
	defer p.mu.Unlock()

	if frame <= p.lastFrame {
		return FrameEvents{}, errors.Wrapf(ErrFrameOrder, "frame %d after %d", frame, p.lastFrame)
	}
	for _, d := range dets {
		if d.Frame != frame {
			return FrameEvents{}, errors.Wrapf(ErrFrameMismatch, "object %d has frame %d, advancing %d", d.ObjectID, d.Frame, frame)
		}
		if err := d.Validate(); err != nil {
			return FrameEvents{}, errors.Wrapf(err, "frame %d rejected", frame)
		}
	}

	lines := p.scene.Lines()
	regions := p.scene.Regions()
	out := FrameEvents{
		Frame:     frame,
		LineIDs:   lineIDs(lines),
		RegionIDs: regionIDs(regions),
		Objects:   make([]ObjectState, 0, len(dets)),
	}

	for _, d := range dets {
		out.Objects = append(out.Objects, p.step(&out, d, lines, regions))
	}
	p.lastFrame = frame

	p.profiler.RecordMetric("detections", float64(len(dets)))
	return out, nil
}

func (p *Pipeline) step(out *FrameEvents, d common.Detection, lines []scene.Line, regions []scene.Region) ObjectState {
	pos := d.Centroid()

	var prev *geometry.Point
	t, seen := p.tracks[d.ObjectID]
	if seen {
		prevPos := t.previous
		prev = &prevPos
	}

	for _, lineID := range p.crossing.Evaluate(d.ObjectID, prev, pos, lines) {
		ev := CrossingEvent{Frame: d.Frame, ObjectID: d.ObjectID, LineID: lineID, Count: p.crossing.Count(lineID)}
		out.Crossings = append(out.Crossings, ev)
		p.logger.Debug("line crossed", "frame", d.Frame, "object", d.ObjectID, "line", lineID, "count", ev.Count)
	}

	tr := p.dwell.Update(d.ObjectID, d.Frame, pos, regions)
	switch {
	case tr.Inside():
		c := events.Candidate{
			ObjectID:        d.ObjectID,
			Class:           d.Class,
			DurationSeconds: tr.DurationSeconds,
			Displacement:    tr.Displacement,
			Frames:          tr.Frames,
			HasCrossedLine:  p.crossing.HasCrossed(d.ObjectID),
		}
		if p.violations.ShouldFlag(c) && p.violations.Flag(d.ObjectID) {
			ev := ViolationEvent{
				Frame:           d.Frame,
				ObjectID:        d.ObjectID,
				DurationSeconds: tr.DurationSeconds,
				BBox:            d.Rect(),
				Class:           d.Class,
				Label:           p.labels.Name(d.Class),
			}
			out.Violations = append(out.Violations, ev)
			p.logger.Info("stationary violation", "session", p.session.String(), "frame", d.Frame, "object", d.ObjectID,
				"label", ev.Label, "seconds", ev.DurationSeconds)
		}
	case tr.Exited():
		out.Exits = append(out.Exits, tr)
		p.logger.Debug("dwell ended", "frame", d.Frame, "object", d.ObjectID,
			"seconds", tr.DurationSeconds, "displacement", tr.Displacement)
	}

	if !seen {
		t = &track{}
		p.tracks[d.ObjectID] = t
	}
	t.previous = pos
	t.lastFrame = d.Frame

	crossed := make([]bool, len(lines))
	for i, l := range lines {
		crossed[i] = p.crossing.Crossed(d.ObjectID, l.ID)
	}
	return ObjectState{
		Detection: d,
		Centroid:  pos,
		Crossed:   crossed,
		Inside:    events.InsideRegions(pos, regions),
		Dwell:     tr,
	}
}

// Reset ends the session and starts a new one: previous positions, crossing
// memory, line counts, dwell records and flagged objects are all cleared.
// The scene is left untouched.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracks = make(map[int]*track)
	p.crossing.Reset()
	p.dwell.Reset()
	p.violations.Reset()
	p.lastFrame = 0
	p.session = uuid.New()
}

// LineCounts returns the crossing count of every line that has one.
func (p *Pipeline) LineCounts() map[int]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crossing.Counts()
}

// LineCount returns the crossing count of one line.
func (p *Pipeline) LineCount(lineID int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crossing.Count(lineID)
}

// Track returns the session memory of one object.
func (p *Pipeline) Track(objectID int) (TrackState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tracks[objectID]
	if !ok {
		return TrackState{}, false
	}
	prev := t.previous
	st := TrackState{
		ObjectID:     objectID,
		Previous:     &prev,
		LastFrame:    t.lastFrame,
		CrossedLines: p.crossing.CrossedLines(objectID),
		Flagged:      p.violations.Flagged(objectID),
	}
	if rec, ok := p.dwell.Record(objectID); ok {
		st.Dwell = &rec
	}
	return st, true
}

// Objects returns the sorted ids of every object seen this session.
func (p *Pipeline) Objects() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]int, 0, len(p.tracks))
	for id := range p.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func lineIDs(lines []scene.Line) []int {
	ids := make([]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}

func regionIDs(regions []scene.Region) []int {
	ids := make([]int, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids
}
