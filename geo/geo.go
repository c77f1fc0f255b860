// Package geo - Pixel to GPS projection for exported tracks.
//
// Two calibrations are supported: a two-point linear interpolation along the
// image x axis, and a four-point planar homography solved with gonum. Both map
// directly into latitude/longitude offsets from the first calibration point,
// which is adequate over the few hundred meters a single camera covers.
package geo

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Mode names a calibration model.
type Mode string

const (
	// ModeLinear interpolates along x between two calibration points.
	ModeLinear Mode = "linear"
	// ModeHomography fits a planar homography to four calibration points.
	ModeHomography Mode = "homography"
)

// ErrCalibration is returned for unusable calibration points.
var ErrCalibration = errors.New("invalid geo calibration")

// Projector maps source-frame pixels to latitude and longitude.
type Projector interface {
	Project(x, y float64) (lat, lon float64)
}

// ControlPoint ties one pixel to its surveyed GPS position.
type ControlPoint struct {
	// Pixel is [x, y].
	Pixel [2]float64 `yaml:"pixel" json:"pixel"`
	// GPS is [lat, lon].
	GPS [2]float64 `yaml:"gps" json:"gps"`
}

// Calibration selects a model and its control points.
type Calibration struct {
	Mode   Mode           `yaml:"mode"`
	Points []ControlPoint `yaml:"points"`
}

// DefaultCalibration returns the linear calibration of the reference camera.
func DefaultCalibration() Calibration {
	return Calibration{
		Mode: ModeLinear,
		Points: []ControlPoint{
			{Pixel: [2]float64{97, 415}, GPS: [2]float64{37.401383, 127.112679}},
			{Pixel: [2]float64{1342, 452}, GPS: [2]float64{37.401371, 127.113207}},
		},
	}
}

// Validate checks the point count for the mode.
func (c Calibration) Validate() error {
	switch c.Mode {
	case ModeLinear:
		if len(c.Points) != 2 {
			return errors.Wrapf(ErrCalibration, "linear needs 2 points, got %d", len(c.Points))
		}
		if c.Points[0].Pixel[0] == c.Points[1].Pixel[0] {
			return errors.Wrap(ErrCalibration, "linear points share the same x")
		}
	case ModeHomography:
		if len(c.Points) != 4 {
			return errors.Wrapf(ErrCalibration, "homography needs 4 points, got %d", len(c.Points))
		}
	default:
		return errors.Wrapf(ErrCalibration, "unknown mode %q", c.Mode)
	}
	return nil
}

// Build returns the projector for the calibration.
func (c Calibration) Build() (Projector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Mode == ModeLinear {
		return NewLinear(c.Points[0], c.Points[1]), nil
	}
	return NewHomography(c.Points)
}

// Linear interpolates latitude and longitude by the x ratio between two points.
type Linear struct {
	a, b ControlPoint
}

// NewLinear creates a linear projector.
func NewLinear(a, b ControlPoint) *Linear {
	return &Linear{a: a, b: b}
}

// Project ignores y; the reference road runs along the image x axis.
func (l *Linear) Project(x, _ float64) (float64, float64) {
	ratio := (x - l.a.Pixel[0]) / (l.b.Pixel[0] - l.a.Pixel[0])
	lat := l.a.GPS[0] + ratio*(l.b.GPS[0]-l.a.GPS[0])
	lon := l.a.GPS[1] + ratio*(l.b.GPS[1]-l.a.GPS[1])
	return lat, lon
}

// Pixel and GPS offsets are rescaled before solving so the system stays well
// conditioned: pixel offsets are in the thousands, GPS offsets around 1e-4.
const (
	pixelScale = 1e-3
	gpsScale   = 1e4
)

// Homography is a planar projective map from pixels to GPS offsets.
type Homography struct {
	h      [9]float64
	pixel0 [2]float64
	origin [2]float64
}

// NewHomography solves the 8x8 direct linear transform for four control
// points, with h33 fixed to 1.
//
// Arguments:
//   - pts: Exactly four control points, no three collinear in pixel space.
//
// Returns:
//   - *Homography: The fitted projector.
//   - error: ErrCalibration when the system is singular.
func NewHomography(pts []ControlPoint) (*Homography, error) {
	if len(pts) != 4 {
		return nil, errors.Wrapf(ErrCalibration, "homography needs 4 points, got %d", len(pts))
	}
	hm := &Homography{pixel0: pts[0].Pixel, origin: pts[0].GPS}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i, p := range pts {
		x, y := hm.normalize(p.Pixel[0], p.Pixel[1])
		u := (p.GPS[0] - hm.origin[0]) * gpsScale
		v := (p.GPS[1] - hm.origin[1]) * gpsScale
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, errors.Wrap(ErrCalibration, err.Error())
	}

	for i := 0; i < 8; i++ {
		hm.h[i] = sol.AtVec(i)
	}
	hm.h[8] = 1
	return hm, nil
}

// Project applies the homography.
func (hm *Homography) Project(x, y float64) (float64, float64) {
	x, y = hm.normalize(x, y)
	h := hm.h
	w := h[6]*x + h[7]*y + h[8]
	u := (h[0]*x + h[1]*y + h[2]) / w
	v := (h[3]*x + h[4]*y + h[5]) / w
	return hm.origin[0] + u/gpsScale, hm.origin[1] + v/gpsScale
}

func (hm *Homography) normalize(x, y float64) (float64, float64) {
	return (x - hm.pixel0[0]) * pixelScale, (y - hm.pixel0[1]) * pixelScale
}
