package scene

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-traffic/geometry"
)

// File is the on-disk YAML form of a scene. Coordinates are [x, y] pairs in
// source-frame pixels. Ids are assigned in file order.
type File struct {
	Lines   []LineSpec   `yaml:"lines"`
	Regions []RegionSpec `yaml:"regions"`
}

// LineSpec describes one line in a scene file.
type LineSpec struct {
	Description string `yaml:"description"`
	From        [2]int `yaml:"from"`
	To          [2]int `yaml:"to"`
}

// RegionSpec describes one region in a scene file.
type RegionSpec struct {
	Description string   `yaml:"description"`
	Points      [][2]int `yaml:"points"`
}

// Load decodes a scene file and builds a Scene from it.
func Load(r io.Reader) (*Scene, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode scene")
	}
	return f.Build()
}

// LoadFile reads a scene from a YAML file.
func LoadFile(path string) (*Scene, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open scene %s", path)
	}
	defer fh.Close()

	s, err := Load(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "scene %s", path)
	}
	return s, nil
}

// Build validates every entry and adds it to a new Scene.
func (f File) Build() (*Scene, error) {
	s := New()
	for i, ls := range f.Lines {
		if _, err := s.AddLine(toPoint(ls.From), toPoint(ls.To), ls.Description); err != nil {
			return nil, errors.Wrapf(err, "line #%d", i+1)
		}
	}
	for i, rs := range f.Regions {
		pts := make([]geometry.Point, len(rs.Points))
		for j, p := range rs.Points {
			pts[j] = toPoint(p)
		}
		r, err := NewRegion(pts, rs.Description)
		if err != nil {
			return nil, errors.Wrapf(err, "region #%d", i+1)
		}
		if _, err := s.AddRegion(r); err != nil {
			return nil, errors.Wrapf(err, "region #%d", i+1)
		}
	}
	return s, nil
}

// Write encodes the current tables of s as YAML.
func Write(w io.Writer, s *Scene) error {
	var f File
	for _, l := range s.Lines() {
		f.Lines = append(f.Lines, LineSpec{
			Description: l.Description,
			From:        [2]int{l.P1.X, l.P1.Y},
			To:          [2]int{l.P2.X, l.P2.Y},
		})
	}
	for _, r := range s.Regions() {
		rs := RegionSpec{Description: r.Description}
		for _, p := range r.Points {
			rs.Points = append(rs.Points, [2]int{p.X, p.Y})
		}
		f.Regions = append(f.Regions, rs)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "encode scene")
	}
	return enc.Close()
}

func toPoint(v [2]int) geometry.Point {
	return geometry.Pt(v[0], v[1])
}
