package geometry

import "testing"

func BenchmarkSegmentsIntersect(b *testing.B) {
	p1, p2 := Pt(0, 0), Pt(100, 100)
	p3, p4 := Pt(0, 100), Pt(100, 0)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = SegmentsIntersect(p1, p2, p3, p4)
	}
}

// BenchmarkPointInPolygon_Quad uses the four-vertex regions the scene stores.
func BenchmarkPointInPolygon_Quad(b *testing.B) {
	quad := []Point{Pt(10, 10), Pt(400, 30), Pt(380, 300), Pt(20, 280)}
	p := Pt(200, 150)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = PointInPolygon(p, quad)
	}
}
