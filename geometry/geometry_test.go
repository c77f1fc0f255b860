package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentsIntersect(t *testing.T) {
	line := [2]Point{Pt(0, 0), Pt(100, 0)}

	testCases := []struct {
		name     string
		a, b     Point
		expected bool
	}{
		{name: "crosses downward", a: Pt(50, -10), b: Pt(50, 10), expected: true},
		{name: "crosses upward", a: Pt(50, 10), b: Pt(50, -10), expected: true},
		{name: "diagonal crossing", a: Pt(10, -5), b: Pt(30, 5), expected: true},
		{name: "stops short", a: Pt(50, -10), b: Pt(50, -1), expected: false},
		{name: "parallel", a: Pt(0, 10), b: Pt(100, 10), expected: false},
		{name: "beyond line end", a: Pt(150, -10), b: Pt(150, 10), expected: false},
		{name: "stationary", a: Pt(50, 10), b: Pt(50, 10), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SegmentsIntersect(tc.a, tc.b, line[0], line[1]))
		})
	}
}

func TestSegmentsIntersect_MultipleLines(t *testing.T) {
	line1 := [2]Point{Pt(200, 400), Pt(800, 400)}
	line2 := [2]Point{Pt(200, 500), Pt(800, 500)}

	assert.True(t, SegmentsIntersect(Pt(300, 390), Pt(300, 410), line1[0], line1[1]))
	assert.False(t, SegmentsIntersect(Pt(300, 390), Pt(300, 410), line2[0], line2[1]))
	assert.True(t, SegmentsIntersect(Pt(400, 490), Pt(400, 510), line2[0], line2[1]))
	assert.False(t, SegmentsIntersect(Pt(100, 300), Pt(100, 310), line1[0], line1[1]))
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(100, 0), Pt(100, 100), Pt(0, 100)}
	arrow := []Point{Pt(0, 0), Pt(100, 50), Pt(0, 100), Pt(50, 50)}
	bowtie := []Point{Pt(0, 0), Pt(100, 100), Pt(100, 0), Pt(0, 100)}

	testCases := []struct {
		name     string
		poly     []Point
		p        Point
		expected bool
	}{
		{name: "square center", poly: square, p: Pt(50, 50), expected: true},
		{name: "square edge", poly: square, p: Pt(100, 40), expected: true},
		{name: "square top edge", poly: square, p: Pt(40, 0), expected: true},
		{name: "square vertex", poly: square, p: Pt(0, 0), expected: true},
		{name: "square right of edge", poly: square, p: Pt(101, 40), expected: false},
		{name: "square left of edge", poly: square, p: Pt(-1, 50), expected: false},
		{name: "square below", poly: square, p: Pt(50, 101), expected: false},
		{name: "concave tip", poly: arrow, p: Pt(75, 45), expected: true},
		{name: "concave notch", poly: arrow, p: Pt(20, 45), expected: false},
		{name: "self-intersecting lobe", poly: bowtie, p: Pt(20, 50), expected: true},
		{name: "self-intersecting gap", poly: bowtie, p: Pt(50, 20), expected: false},
		{name: "degenerate polygon", poly: square[:2], p: Pt(50, 0), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PointInPolygon(tc.p, tc.poly))
		})
	}
}

func TestPointInPolygon_WindingIndependent(t *testing.T) {
	cw := []Point{Pt(0, 0), Pt(100, 0), Pt(100, 100), Pt(0, 100)}
	ccwOrder := []Point{Pt(0, 100), Pt(100, 100), Pt(100, 0), Pt(0, 0)}

	for _, p := range []Point{Pt(50, 50), Pt(0, 50), Pt(150, 50), Pt(99, 1)} {
		assert.Equal(t, PointInPolygon(p, cw), PointInPolygon(p, ccwOrder), "point %v", p)
	}
}

func TestCentroidAndManhattan(t *testing.T) {
	assert.Equal(t, Pt(15, 20), Centroid(10, 10, 21, 31))
	assert.Equal(t, Pt(50, 50), Centroid(40, 40, 60, 60))
	assert.Equal(t, 7, Manhattan(Pt(1, 2), Pt(4, 6)))
	assert.Equal(t, 0, Manhattan(Pt(5, 5), Pt(5, 5)))
}
