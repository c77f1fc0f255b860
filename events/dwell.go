package events

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/geometry"
	"github.com/nvr-ai/go-traffic/scene"
)

// ErrFrameRate is returned for a non-positive frame rate.
var ErrFrameRate = errors.New("frame rate must be positive")

// TransitionKind is the outcome of one dwell update.
type TransitionKind int

const (
	// TransitionNone means the object is outside every region and was not dwelling.
	TransitionNone TransitionKind = iota
	// TransitionEntered means the object entered the region union this frame.
	TransitionEntered
	// TransitionContinued means the object stayed inside the region union.
	TransitionContinued
	// TransitionExited means the object left the region union; its record is gone.
	TransitionExited
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionNone:
		return "none"
	case TransitionEntered:
		return "entered"
	case TransitionContinued:
		return "continued"
	case TransitionExited:
		return "exited"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// DwellRecord is the occupancy interval of one object inside the region union.
type DwellRecord struct {
	StartFrame   int
	LastFrame    int
	LastPosition geometry.Point
	// LastStep is the Manhattan distance between the last two inside positions.
	LastStep int
}

// DwellTransition describes one dwell update.
type DwellTransition struct {
	ObjectID   int
	Kind       TransitionKind
	StartFrame int
	// Frame is the frame of the update.
	Frame int
	// Frames is the inside span in frames: current frame minus start while
	// inside, last inside frame minus start on exit.
	Frames          int
	DurationSeconds float64
	// Displacement is the Manhattan distance between the last two inside positions.
	Displacement int
}

// Inside reports whether the object is inside after this update.
func (t DwellTransition) Inside() bool {
	return t.Kind == TransitionEntered || t.Kind == TransitionContinued
}

// Exited reports whether the object left the region union in this update.
func (t DwellTransition) Exited() bool {
	return t.Kind == TransitionExited
}

// DwellTracker tracks, per object, continuous occupancy of the union of all regions.
//
// Regions are not tracked individually: an object inside any region is Inside.
// Leaving deletes the record, so a later re-entry starts a fresh interval.
type DwellTracker struct {
	frameRate float64
	records   map[int]*DwellRecord
}

// NewDwellTracker creates a tracker for the given source frame rate.
func NewDwellTracker(frameRate float64) (*DwellTracker, error) {
	if frameRate <= 0 {
		return nil, errors.Wrapf(ErrFrameRate, "got %v", frameRate)
	}
	return &DwellTracker{frameRate: frameRate, records: make(map[int]*DwellRecord)}, nil
}

// FrameRate returns the frame rate durations are computed with.
func (t *DwellTracker) FrameRate() float64 {
	return t.frameRate
}

// Update advances the dwell state of one object.
//
// Arguments:
//   - objectID: The tracked object.
//   - frame: The current frame index, not lower than the previous update.
//   - pos: The object centroid.
//   - regions: The current region table.
//
// Returns:
//   - DwellTransition: The transition taken by this update.
func (t *DwellTracker) Update(objectID, frame int, pos geometry.Point, regions []scene.Region) DwellTransition {
	inside := InsideAny(pos, regions)
	rec, dwelling := t.records[objectID]

	switch {
	case inside && !dwelling:
		t.records[objectID] = &DwellRecord{StartFrame: frame, LastFrame: frame, LastPosition: pos}
		return DwellTransition{ObjectID: objectID, Kind: TransitionEntered, StartFrame: frame, Frame: frame}

	case inside:
		rec.LastStep = geometry.Manhattan(rec.LastPosition, pos)
		rec.LastFrame = frame
		rec.LastPosition = pos
		return DwellTransition{
			ObjectID:        objectID,
			Kind:            TransitionContinued,
			StartFrame:      rec.StartFrame,
			Frame:           frame,
			Frames:          frame - rec.StartFrame,
			DurationSeconds: t.seconds(frame - rec.StartFrame),
			Displacement:    rec.LastStep,
		}

	case dwelling:
		delete(t.records, objectID)
		return DwellTransition{
			ObjectID:        objectID,
			Kind:            TransitionExited,
			StartFrame:      rec.StartFrame,
			Frame:           frame,
			Frames:          rec.LastFrame - rec.StartFrame,
			DurationSeconds: t.seconds(rec.LastFrame - rec.StartFrame),
			Displacement:    rec.LastStep,
		}

	default:
		return DwellTransition{ObjectID: objectID, Kind: TransitionNone, Frame: frame}
	}
}

// Record returns a copy of the active record for objectID.
func (t *DwellTracker) Record(objectID int) (DwellRecord, bool) {
	rec, ok := t.records[objectID]
	if !ok {
		return DwellRecord{}, false
	}
	return *rec, true
}

// Active returns the number of objects currently dwelling.
func (t *DwellTracker) Active() int {
	return len(t.records)
}

// Reset drops every record.
func (t *DwellTracker) Reset() {
	t.records = make(map[int]*DwellRecord)
}

func (t *DwellTracker) seconds(frames int) float64 {
	return float64(frames) / t.frameRate
}

// InsideAny reports whether pos is inside at least one region.
func InsideAny(pos geometry.Point, regions []scene.Region) bool {
	for _, r := range regions {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// InsideRegions reports membership of pos for each region, in table order.
func InsideRegions(pos geometry.Point, regions []scene.Region) []bool {
	out := make([]bool, len(regions))
	for i, r := range regions {
		out[i] = r.Contains(pos)
	}
	return out
}
