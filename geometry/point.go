// Package geometry - Integer pixel geometry used by the crossing and dwell detectors.
package geometry

import (
	"fmt"
	"image"
)

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// FromImage converts an image.Point.
func FromImage(p image.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

// Image converts the point into an image.Point for drawing.
func (p Point) Image() image.Point {
	return image.Pt(p.X, p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Manhattan returns |a.X-b.X| + |a.Y-b.Y|.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Centroid returns the midpoint of a box using integer truncation toward zero.
//
// Arguments:
//   - x1, y1: Top-left corner.
//   - x2, y2: Bottom-right corner.
//
// Returns:
//   - Point: The truncated midpoint.
//
// @example
// c := Centroid(10, 10, 21, 31) // (15, 20)
func Centroid(x1, y1, x2, y2 int) Point {
	return Point{X: (x1 + x2) / 2, Y: (y1 + y2) / 2}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
