package events

import (
	"sort"

	"github.com/nvr-ai/go-traffic/geometry"
	"github.com/nvr-ai/go-traffic/scene"
)

// CrossingDetector counts line crossings, at most once per (object, line) pair.
type CrossingDetector struct {
	crossed map[int]map[int]struct{}
	counts  map[int]int
}

// NewCrossingDetector creates a detector with empty memory.
func NewCrossingDetector() *CrossingDetector {
	return &CrossingDetector{
		crossed: make(map[int]map[int]struct{}),
		counts:  make(map[int]int),
	}
}

// Evaluate tests the trajectory segment prev->cur of one object against every
// line the object has not crossed yet.
//
// Detection relies on the last two observed positions only; a crossing that
// happens entirely between skipped frames is missed.
//
// Arguments:
//   - objectID: The tracked object.
//   - prev: Previous observed centroid, nil on first sighting.
//   - cur: Current centroid.
//   - lines: The current line table.
//
// Returns:
//   - []int: Ids of lines crossed in this step, in line-table order.
func (d *CrossingDetector) Evaluate(objectID int, prev *geometry.Point, cur geometry.Point, lines []scene.Line) []int {
	if prev == nil {
		return nil
	}

	var fired []int
	for _, l := range lines {
		if d.Crossed(objectID, l.ID) {
			continue
		}
		if !geometry.SegmentsIntersect(*prev, cur, l.P1, l.P2) {
			continue
		}
		set, ok := d.crossed[objectID]
		if !ok {
			set = make(map[int]struct{})
			d.crossed[objectID] = set
		}
		set[l.ID] = struct{}{}
		d.counts[l.ID]++
		fired = append(fired, l.ID)
	}
	return fired
}

// Crossed reports whether objectID has already been counted on lineID.
func (d *CrossingDetector) Crossed(objectID, lineID int) bool {
	_, ok := d.crossed[objectID][lineID]
	return ok
}

// HasCrossed reports whether objectID has crossed any line this session.
func (d *CrossingDetector) HasCrossed(objectID int) bool {
	return len(d.crossed[objectID]) > 0
}

// CrossedLines returns the sorted ids of lines crossed by objectID.
func (d *CrossingDetector) CrossedLines(objectID int) []int {
	ids := make([]int, 0, len(d.crossed[objectID]))
	for id := range d.crossed[objectID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Count returns the number of distinct objects counted on lineID.
func (d *CrossingDetector) Count(lineID int) int {
	return d.counts[lineID]
}

// Counts returns a copy of all line counts keyed by line id.
func (d *CrossingDetector) Counts() map[int]int {
	out := make(map[int]int, len(d.counts))
	for id, n := range d.counts {
		out[id] = n
	}
	return out
}

// Reset forgets every crossing and zeroes the counts.
func (d *CrossingDetector) Reset() {
	d.crossed = make(map[int]map[int]struct{})
	d.counts = make(map[int]int)
}
