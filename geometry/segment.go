package geometry

// ccw reports whether x, y, z are in strict counter-clockwise order (in image
// coordinates the y axis points down, which only mirrors the sense of rotation).
func ccw(x, y, z Point) bool {
	return int64(z.Y-x.Y)*int64(y.X-x.X) > int64(y.Y-x.Y)*int64(z.X-x.X)
}

// SegmentsIntersect reports whether segment AB crosses segment CD.
//
// The test is the classic strict orientation check: the endpoints of each
// segment must lie on opposite sides of the other. Collinear, touching and
// zero-length segments are not special-cased and may report either value;
// callers depend on this exact behavior, so it must not be changed to a
// closed-segment test.
//
// Arguments:
//   - a, b: The trajectory segment (previous and current position).
//   - c, d: The segment to test against (a counting line).
//
// Returns:
//   - bool: True when the segments properly cross.
//
// @example
// SegmentsIntersect(Pt(50, -10), Pt(50, 10), Pt(0, 0), Pt(100, 0)) // true
func SegmentsIntersect(a, b, c, d Point) bool {
	return ccw(a, c, d) != ccw(b, c, d) && ccw(a, b, c) != ccw(a, b, d)
}
