package geometry

// OnSegment reports whether p lies on the closed segment ab.
func OnSegment(p, a, b Point) bool {
	cross := int64(b.X-a.X)*int64(p.Y-a.Y) - int64(b.Y-a.Y)*int64(p.X-a.X)
	if cross != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

// PointInPolygon reports whether p lies inside the polygon or on its boundary.
//
// Vertices are taken in the given order, with an implicit closing edge from the
// last vertex back to the first. Points on any edge (including vertices) are
// inside. Otherwise the crossing-number (even-odd) rule decides, so
// self-intersecting polygons report the regions covered an odd number of times.
// All arithmetic is exact integer math; no rounding is involved.
//
// Arguments:
//   - p: The point to test.
//   - poly: Polygon vertices, at least three.
//
// Returns:
//   - bool: True when p is inside or on the boundary.
//
// @example
// square := []Point{Pt(0, 0), Pt(100, 0), Pt(100, 100), Pt(0, 100)}
// PointInPolygon(Pt(50, 50), square)  // true
// PointInPolygon(Pt(100, 40), square) // true, on the boundary
// PointInPolygon(Pt(101, 40), square) // false
func PointInPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if OnSegment(p, poly[j], poly[i]) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[j], poly[i]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		// p.X < a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y), multiplied through by dy.
		dy := int64(b.Y - a.Y)
		lhs := int64(p.X-a.X) * dy
		rhs := int64(p.Y-a.Y) * int64(b.X-a.X)
		if dy > 0 && lhs < rhs || dy < 0 && lhs > rhs {
			inside = !inside
		}
	}

	return inside
}
