package sink

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/common"
	"github.com/nvr-ai/go-traffic/controller"
	"github.com/nvr-ai/go-traffic/geo"
)

// GPS is a projected position.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TrackPoint is one exported detection.
type TrackPoint struct {
	Frame    int     `json:"frame"`
	ID       int     `json:"id"`
	GPS      GPS     `json:"gps"`
	Altitude float64 `json:"altitude"`
	Label    string  `json:"label"`
}

// TrackExport buffers projected detection centroids and writes them as one
// indented JSON array on Close.
type TrackExport struct {
	w         io.Writer
	projector geo.Projector
	labels    *common.LabelSet
	points    []TrackPoint
}

// NewTrackExport creates an export writing to w.
func NewTrackExport(w io.Writer, projector geo.Projector, labels *common.LabelSet) *TrackExport {
	if labels == nil {
		labels = common.NewLabelSet(common.DefaultLabels...)
	}
	return &TrackExport{w: w, projector: projector, labels: labels}
}

// Add projects the centroid of one detection. The centroid uses the exact box
// midpoint, not the truncated pixel centroid. Unknown classes export as "unknown".
func (e *TrackExport) Add(d common.Detection) {
	cx := float64(d.X1+d.X2) / 2
	cy := float64(d.Y1+d.Y2) / 2
	lat, lng := e.projector.Project(cx, cy)

	label, ok := e.labels.Lookup(d.Class)
	if !ok {
		label = "unknown"
	}
	e.points = append(e.points, TrackPoint{
		Frame: d.Frame,
		ID:    d.ObjectID,
		GPS:   GPS{Lat: lat, Lng: lng},
		Label: label,
	})
}

// Consume adds every detection of one frame.
func (e *TrackExport) Consume(ev controller.FrameEvents) error {
	for _, obj := range ev.Objects {
		e.Add(obj.Detection)
	}
	return nil
}

// Len returns the number of buffered points.
func (e *TrackExport) Len() int {
	return len(e.points)
}

// Close writes the buffered points and closes w if it is an io.Closer.
func (e *TrackExport) Close() error {
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	points := e.points
	if points == nil {
		points = []TrackPoint{}
	}
	if err := enc.Encode(points); err != nil {
		return errors.Wrap(err, "encode track export")
	}
	if c, ok := e.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
