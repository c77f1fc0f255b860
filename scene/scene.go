// Package scene - Counting lines and stop-detection regions drawn over a camera view.
package scene

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/geometry"
)

// RegionVertices is the number of vertices every region must have.
const RegionVertices = 4

var (
	// ErrRegionVertices is returned when a region does not have exactly four vertices.
	ErrRegionVertices = errors.New("region must have exactly 4 vertices")
	// ErrDescription is returned when a line or region has an empty description.
	ErrDescription = errors.New("description must not be empty")
	// ErrNotFound is returned when a line or region id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDegenerateLine is returned when both line endpoints coincide.
	ErrDegenerateLine = errors.New("line endpoints must differ")
)

// Line is a counting line.
type Line struct {
	ID          int
	P1, P2      geometry.Point
	Description string
}

// Region is a four-vertex stop-detection polygon, vertices in click order.
type Region struct {
	ID          int
	Points      [RegionVertices]geometry.Point
	Description string
}

// NewRegion validates the vertex count and builds a region without an id.
//
// Arguments:
//   - points: Exactly four vertices in click order.
//   - description: Non-empty operator description.
//
// Returns:
//   - Region: The region, with ID zero until added to a Scene.
//   - error: ErrRegionVertices or ErrDescription.
func NewRegion(points []geometry.Point, description string) (Region, error) {
	if len(points) != RegionVertices {
		return Region{}, errors.Wrapf(ErrRegionVertices, "got %d", len(points))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Region{}, ErrDescription
	}
	r := Region{Description: description}
	copy(r.Points[:], points)
	return r, nil
}

// Polygon returns the region vertices as a slice.
func (r Region) Polygon() []geometry.Point {
	return r.Points[:]
}

// Contains reports whether p lies inside the region or on its boundary.
func (r Region) Contains(p geometry.Point) bool {
	return geometry.PointInPolygon(p, r.Points[:])
}

// Center returns the integer mean of the vertices, used to place labels.
func (r Region) Center() geometry.Point {
	var sx, sy int
	for _, p := range r.Points {
		sx += p.X
		sy += p.Y
	}
	return geometry.Pt(sx/RegionVertices, sy/RegionVertices)
}

// Midpoint returns the truncated midpoint of the line.
func (l Line) Midpoint() geometry.Point {
	return geometry.Centroid(l.P1.X, l.P1.Y, l.P2.X, l.P2.Y)
}

type opKind int

const (
	opLine opKind = iota
	opRegion
)

type op struct {
	kind   opKind
	line   Line
	region Region
}

// Scene holds the line and region tables for one camera view.
//
// Identifiers are assigned at creation, start at 1 and are never reused within
// a scene, so per-object memories keyed by line id stay unambiguous after a
// line is deleted. Scene is safe for concurrent use.
type Scene struct {
	mu         sync.RWMutex
	lines      []Line
	regions    []Region
	nextLine   int
	nextRegion int
	undo       []op
	redo       []op
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{nextLine: 1, nextRegion: 1}
}

// AddLine adds a counting line and returns it with its assigned id.
func (s *Scene) AddLine(p1, p2 geometry.Point, description string) (Line, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Line{}, ErrDescription
	}
	if p1 == p2 {
		return Line{}, errors.Wrapf(ErrDegenerateLine, "at %v", p1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := Line{ID: s.nextLine, P1: p1, P2: p2, Description: description}
	s.nextLine++
	s.lines = append(s.lines, l)
	s.undo = append(s.undo, op{kind: opLine, line: l})
	s.redo = nil
	return l, nil
}

// AddRegion adds a region built by NewRegion and returns it with its assigned id.
func (s *Scene) AddRegion(r Region) (Region, error) {
	if strings.TrimSpace(r.Description) == "" {
		return Region{}, ErrDescription
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextRegion
	s.nextRegion++
	s.regions = append(s.regions, r)
	s.undo = append(s.undo, op{kind: opRegion, region: r})
	s.redo = nil
	return r, nil
}

// RemoveLine deletes a line by id. The line also leaves the undo history, so
// Undo and Redo cannot bring it back.
func (s *Scene) RemoveLine(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.lines {
		if l.ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.undo = dropOp(s.undo, opLine, id)
			s.redo = dropOp(s.redo, opLine, id)
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "line %d", id)
}

// RemoveRegion deletes a region by id and drops it from the undo history.
func (s *Scene) RemoveRegion(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.regions {
		if r.ID == id {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			s.undo = dropOp(s.undo, opRegion, id)
			s.redo = dropOp(s.redo, opRegion, id)
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "region %d", id)
}

// Undo removes the most recently added line or region. It reports false when
// there is nothing to undo.
func (s *Scene) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, last)

	switch last.kind {
	case opLine:
		s.lines = removeLine(s.lines, last.line.ID)
	case opRegion:
		s.regions = removeRegion(s.regions, last.region.ID)
	}
	return true
}

// Redo re-adds the most recently undone line or region with its original id.
func (s *Scene) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}
	last := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, last)

	switch last.kind {
	case opLine:
		s.lines = append(s.lines, last.line)
	case opRegion:
		s.regions = append(s.regions, last.region)
	}
	return true
}

// Reset clears both tables and the undo history. Id counters keep running so
// a line drawn after a reset never shares an id with one a pipeline has
// already counted.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.regions = nil
	s.undo = nil
	s.redo = nil
}

// Lines returns a snapshot of the line table.
func (s *Scene) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line(nil), s.lines...)
}

// Regions returns a snapshot of the region table.
func (s *Scene) Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Region(nil), s.regions...)
}

// Line looks up a line by id.
func (s *Scene) Line(id int) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

func removeLine(lines []Line, id int) []Line {
	for i, l := range lines {
		if l.ID == id {
			return append(lines[:i], lines[i+1:]...)
		}
	}
	return lines
}

func removeRegion(regions []Region, id int) []Region {
	for i, r := range regions {
		if r.ID == id {
			return append(regions[:i], regions[i+1:]...)
		}
	}
	return regions
}

func dropOp(ops []op, kind opKind, id int) []op {
	out := ops[:0]
	for _, o := range ops {
		if o.kind == kind && o.id() == id {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (o op) id() int {
	if o.kind == opLine {
		return o.line.ID
	}
	return o.region.ID
}
