// Package util - Reading the externally produced per-frame detection table.
package util

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/common"
)

// DetectionColumns is the number of columns in a detection row:
// frame, object id, x1, y1, x2, y2, class label.
const DetectionColumns = 7

// ErrMalformedRow is returned for rows with the wrong column count or non-integer fields.
var ErrMalformedRow = errors.New("malformed detection row")

// DetectionTable maps frame indices to their detections, in file order.
type DetectionTable struct {
	frames map[int][]common.Detection
	order  []int
}

// NewDetectionTable groups detections by frame.
func NewDetectionTable(dets []common.Detection) *DetectionTable {
	t := &DetectionTable{frames: make(map[int][]common.Detection)}
	for _, d := range dets {
		t.add(d)
	}
	t.sortFrames()
	return t
}

func (t *DetectionTable) add(d common.Detection) {
	if _, ok := t.frames[d.Frame]; !ok {
		t.order = append(t.order, d.Frame)
	}
	t.frames[d.Frame] = append(t.frames[d.Frame], d)
}

func (t *DetectionTable) sortFrames() {
	sort.Ints(t.order)
}

// Frames returns the frame indices that have detections, ascending. Frames
// need not be contiguous.
func (t *DetectionTable) Frames() []int {
	return append([]int(nil), t.order...)
}

// Detections returns the detections of one frame.
func (t *DetectionTable) Detections(frame int) []common.Detection {
	return t.frames[frame]
}

// Len returns the total number of detections.
func (t *DetectionTable) Len() int {
	n := 0
	for _, dets := range t.frames {
		n += len(dets)
	}
	return n
}

// ReadDetections parses comma-separated integer rows
// "frame,obj_id,x1,y1,x2,y2,label". Blank lines are skipped.
//
// Arguments:
//   - r: The table source.
//
// Returns:
//   - *DetectionTable: Detections grouped by frame.
//   - error: ErrMalformedRow with the line number, or a read error.
//
// @example
// table, err := ReadDetections(strings.NewReader("1,7,10,10,20,20,0\n"))
func ReadDetections(r io.Reader) (*DetectionTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	t := &DetectionTable{frames: make(map[int][]common.Detection)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read detections")
		}
		line, _ := cr.FieldPos(0)

		d, err := parseRow(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		t.add(d)
	}
	t.sortFrames()
	return t, nil
}

// LoadDetectionFile reads a detection table from disk.
func LoadDetectionFile(path string) (*DetectionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open detections %s", path)
	}
	defer f.Close()

	t, err := ReadDetections(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}

func parseRow(rec []string) (common.Detection, error) {
	if len(rec) != DetectionColumns {
		return common.Detection{}, errors.Wrapf(ErrMalformedRow, "want %d columns, got %d", DetectionColumns, len(rec))
	}
	var v [DetectionColumns]int
	for i, field := range rec {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return common.Detection{}, errors.Wrapf(ErrMalformedRow, "column %d: %q is not an integer", i+1, field)
		}
		v[i] = n
	}
	return common.Detection{
		Frame:    v[0],
		ObjectID: v[1],
		X1:       v[2],
		Y1:       v[3],
		X2:       v[4],
		Y2:       v[5],
		Class:    v[6],
	}, nil
}
