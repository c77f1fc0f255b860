// Package render - Draws the scene and per-frame events onto video frames.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-traffic/controller"
	"github.com/nvr-ai/go-traffic/geo"
	"github.com/nvr-ai/go-traffic/scene"
)

var (
	lineColor     = color.RGBA{0, 255, 255, 0}
	regionColor   = color.RGBA{255, 0, 255, 0}
	centroidColor = color.RGBA{0, 0, 255, 0}
	markerColor   = color.RGBA{0, 0, 255, 0}
	textColor     = color.RGBA{255, 255, 255, 0}
	gpsColor      = color.RGBA{255, 255, 0, 0}
)

// classColors is indexed by class code modulo its length.
var classColors = []color.RGBA{
	{0, 255, 0, 0},
	{255, 128, 0, 0},
	{255, 0, 0, 0},
	{0, 128, 255, 0},
	{128, 0, 255, 0},
	{0, 255, 128, 0},
	{255, 255, 0, 0},
}

// ClassColor returns the box color for a class code.
func ClassColor(class int) color.RGBA {
	if class < 0 {
		class = -class
	}
	return classColors[class%len(classColors)]
}

// Overlay remembers which objects were flagged so their marker persists on
// later frames.
type Overlay struct {
	flagged   map[int]struct{}
	projector geo.Projector
}

// NewOverlay creates an overlay with no flagged objects. When projector is
// not nil every centroid is labelled with its latitude and longitude.
func NewOverlay(projector geo.Projector) *Overlay {
	return &Overlay{flagged: make(map[int]struct{}), projector: projector}
}

// Reset forgets flagged objects, matching a pipeline reset.
func (o *Overlay) Reset() {
	o.flagged = make(map[int]struct{})
}

// Flagged reports whether the overlay has seen a violation for the object.
func (o *Overlay) Flagged(objectID int) bool {
	_, ok := o.flagged[objectID]
	return ok
}

// DrawScene draws every line with its id, description and count, and every
// region as a closed outline with vertex dots and a label at its center.
func (o *Overlay) DrawScene(img *gocv.Mat, lines []scene.Line, regions []scene.Region, counts map[int]int) {
	for _, l := range lines {
		gocv.Line(img, l.P1.Image(), l.P2.Image(), lineColor, 2)
		gocv.Circle(img, l.P1.Image(), 4, lineColor, -1)
		gocv.Circle(img, l.P2.Image(), 4, lineColor, -1)
		label := fmt.Sprintf("line %d: %d", l.ID, counts[l.ID])
		if l.Description != "" {
			label = fmt.Sprintf("line %d %s: %d", l.ID, l.Description, counts[l.ID])
		}
		gocv.PutText(img, label, l.Midpoint().Image().Add(image.Pt(5, -5)), gocv.FontHersheyPlain, 1.2, lineColor, 2)
	}

	for _, r := range regions {
		outline := make([]image.Point, 0, len(r.Points))
		for _, p := range r.Points {
			outline = append(outline, p.Image())
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{outline})
		gocv.Polylines(img, pv, true, regionColor, 2)
		pv.Close()
		for _, p := range outline {
			gocv.Circle(img, p, 3, regionColor, -1)
		}
		label := fmt.Sprintf("area %d", r.ID)
		if r.Description != "" {
			label = fmt.Sprintf("area %d %s", r.ID, r.Description)
		}
		gocv.PutText(img, label, r.Center().Image(), gocv.FontHersheyPlain, 1.2, regionColor, 2)
	}
}

// GPSLabelOrigin is the text origin of a centroid's coordinate label.
func GPSLabelOrigin(centroid image.Point) image.Point {
	return centroid.Add(image.Pt(5, 15))
}

// DrawFrame draws the boxes, centroids and violation markers of one frame.
func (o *Overlay) DrawFrame(img *gocv.Mat, ev controller.FrameEvents, labelOf func(int) string) {
	for _, v := range ev.Violations {
		o.flagged[v.ObjectID] = struct{}{}
	}

	for _, obj := range ev.Objects {
		d := obj.Detection
		rect := d.Rect()
		gocv.Rectangle(img, rect, ClassColor(d.Class), 2)
		gocv.Circle(img, obj.Centroid.Image(), 3, centroidColor, -1)
		if o.projector != nil {
			lat, lon := o.projector.Project(float64(obj.Centroid.X), float64(obj.Centroid.Y))
			gocv.PutText(img, fmt.Sprintf("(%.6f, %.6f)", lat, lon), GPSLabelOrigin(obj.Centroid.Image()),
				gocv.FontHersheySimplex, 0.4, gpsColor, 1)
		}

		label := fmt.Sprintf("#%d", d.ObjectID)
		if labelOf != nil {
			label = fmt.Sprintf("#%d %s", d.ObjectID, labelOf(d.Class))
		}
		gocv.PutText(img, label, rect.Min.Add(image.Pt(0, -4)), gocv.FontHersheyPlain, 0.8, ClassColor(d.Class), 2)

		if o.Flagged(d.ObjectID) {
			gocv.Rectangle(img, rect.Inset(-4), markerColor, 3)
			gocv.PutText(img, "STOPPED", image.Pt(rect.Min.X, rect.Max.Y+14), gocv.FontHersheyPlain, 1.0, markerColor, 2)
		}
	}

	gocv.PutText(img, fmt.Sprintf("frame %d", ev.Frame), image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, textColor, 2)
}
