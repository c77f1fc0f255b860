// Package common - Detection records shared by the loader, the event pipeline and the sinks.
package common

import (
	"fmt"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/geometry"
)

// ErrInvalidDetection is returned when a detection violates its invariants.
var ErrInvalidDetection = errors.New("invalid detection")

// Detection is one externally produced bounding box for one tracked object in one frame.
type Detection struct {
	// Frame is the 1-based frame index.
	Frame int
	// ObjectID is the tracker-assigned identity of the object.
	ObjectID int
	// X1,Y1 is the top-left corner; X2,Y2 the bottom-right corner.
	X1, Y1, X2, Y2 int
	// Class is the integer class label code.
	Class int
}

// Validate checks the frame index and box ordering.
//
// Returns:
//   - error: ErrInvalidDetection wrapped with the offending values, or nil.
func (d Detection) Validate() error {
	if d.Frame < 1 {
		return errors.Wrapf(ErrInvalidDetection, "object %d: frame %d < 1", d.ObjectID, d.Frame)
	}
	if d.X1 >= d.X2 || d.Y1 >= d.Y2 {
		return errors.Wrapf(ErrInvalidDetection, "object %d frame %d: box (%d,%d)-(%d,%d) is not ordered",
			d.ObjectID, d.Frame, d.X1, d.Y1, d.X2, d.Y2)
	}
	return nil
}

// Centroid returns the truncated midpoint of the box.
func (d Detection) Centroid() geometry.Point {
	return geometry.Centroid(d.X1, d.Y1, d.X2, d.Y2)
}

// Rect converts the box to an image.Rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X1, d.Y1, d.X2, d.Y2)
}

func (d Detection) String() string {
	return fmt.Sprintf("frame %d object %d class %d: (%d, %d), (%d, %d)",
		d.Frame, d.ObjectID, d.Class, d.X1, d.Y1, d.X2, d.Y2)
}
