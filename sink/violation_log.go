package sink

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-traffic/controller"
)

// ViolationLog writes one CSV row per flagged object.
type ViolationLog struct {
	w      *csv.Writer
	closer io.Closer
}

// NewViolationLog writes the header to w immediately.
func NewViolationLog(w io.Writer) (*ViolationLog, error) {
	l := &ViolationLog{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	if err := l.w.Write([]string{"frame", "obj_id", "label", "x1", "y1", "x2", "y2", "stop_seconds"}); err != nil {
		return nil, errors.Wrap(err, "write violation log header")
	}
	l.w.Flush()
	return l, errors.Wrap(l.w.Error(), "flush violation log")
}

// CreateViolationLog creates (truncating) a violation log file.
func CreateViolationLog(path string) (*ViolationLog, error) {
	f, err := create(path)
	if err != nil {
		return nil, err
	}
	l, err := NewViolationLog(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Consume appends the violations of one frame.
func (l *ViolationLog) Consume(ev controller.FrameEvents) error {
	if len(ev.Violations) == 0 {
		return nil
	}
	for _, v := range ev.Violations {
		row := []string{
			strconv.Itoa(v.Frame),
			strconv.Itoa(v.ObjectID),
			v.Label,
			strconv.Itoa(v.BBox.Min.X),
			strconv.Itoa(v.BBox.Min.Y),
			strconv.Itoa(v.BBox.Max.X),
			strconv.Itoa(v.BBox.Max.Y),
			strconv.FormatFloat(math.Round(v.DurationSeconds*10)/10, 'f', 1, 64),
		}
		if err := l.w.Write(row); err != nil {
			return errors.Wrap(err, "write violation row")
		}
	}
	l.w.Flush()
	return errors.Wrap(l.w.Error(), "flush violation log")
}

// Close flushes and closes the underlying writer.
func (l *ViolationLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return errors.Wrap(err, "flush violation log")
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return f, nil
}
