package sink

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/controller"
)

// FrameLog writes one CSV row per detection per frame.
//
// The header is written with the first frame and lists one column per line and
// region defined at that moment. Later rows keep those columns: lines or
// regions deleted afterwards log 0, lines or regions added afterwards are not
// logged.
type FrameLog struct {
	w         *csv.Writer
	closer    io.Closer
	lineIDs   []int
	regionIDs []int
	started   bool
}

// NewFrameLog writes to w. If w is an io.Closer, Close closes it.
func NewFrameLog(w io.Writer) *FrameLog {
	l := &FrameLog{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// CreateFrameLog creates (truncating) a frame log file.
func CreateFrameLog(path string) (*FrameLog, error) {
	f, err := create(path)
	if err != nil {
		return nil, err
	}
	return NewFrameLog(f), nil
}

// Consume appends the rows of one frame.
func (l *FrameLog) Consume(ev controller.FrameEvents) error {
	if !l.started {
		l.lineIDs = append([]int(nil), ev.LineIDs...)
		l.regionIDs = append([]int(nil), ev.RegionIDs...)
		if err := l.w.Write(l.header()); err != nil {
			return errors.Wrap(err, "write frame log header")
		}
		l.started = true
	}

	linePos := index(ev.LineIDs)
	regionPos := index(ev.RegionIDs)
	for _, obj := range ev.Objects {
		d := obj.Detection
		row := []string{
			strconv.Itoa(ev.Frame),
			strconv.Itoa(d.ObjectID),
			strconv.Itoa(d.X1),
			strconv.Itoa(d.Y1),
			strconv.Itoa(d.X2),
			strconv.Itoa(d.Y2),
			strconv.Itoa(d.Class),
		}
		for _, id := range l.lineIDs {
			row = append(row, flag(obj.Crossed, linePos, id))
		}
		for _, id := range l.regionIDs {
			row = append(row, flag(obj.Inside, regionPos, id))
		}
		if err := l.w.Write(row); err != nil {
			return errors.Wrap(err, "write frame log row")
		}
	}

	l.w.Flush()
	return errors.Wrap(l.w.Error(), "flush frame log")
}

// Close flushes and closes the underlying writer.
func (l *FrameLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return errors.Wrap(err, "flush frame log")
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *FrameLog) header() []string {
	h := []string{"frame", "obj_id", "x1", "y1", "x2", "y2", "label"}
	for _, id := range l.lineIDs {
		h = append(h, "line_"+strconv.Itoa(id))
	}
	for _, id := range l.regionIDs {
		h = append(h, "area_"+strconv.Itoa(id))
	}
	return h
}

func index(ids []int) map[int]int {
	m := make(map[int]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

func flag(values []bool, pos map[int]int, id int) string {
	i, ok := pos[id]
	if ok && i < len(values) && values[i] {
		return "1"
	}
	return "0"
}
