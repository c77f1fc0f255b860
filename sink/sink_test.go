package sink

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-traffic/common"
	"github.com/nvr-ai/go-traffic/controller"
	"github.com/nvr-ai/go-traffic/geo"
)

func frame(n int, lineIDs, regionIDs []int, objs ...controller.ObjectState) controller.FrameEvents {
	return controller.FrameEvents{Frame: n, LineIDs: lineIDs, RegionIDs: regionIDs, Objects: objs}
}

func obj(id int, crossed, inside []bool) controller.ObjectState {
	return controller.ObjectState{
		Detection: common.Detection{ObjectID: id, X1: 1, Y1: 2, X2: 3, Y2: 4, Class: 5},
		Crossed:   crossed,
		Inside:    inside,
	}
}

func TestFrameLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewFrameLog(&buf)

	require.NoError(t, l.Consume(frame(1, []int{1, 2}, []int{1},
		obj(7, []bool{false, true}, []bool{true}),
	)))
	// Line 1 deleted and line 3 added after the header was written.
	require.NoError(t, l.Consume(frame(2, []int{2, 3}, []int{1},
		obj(7, []bool{true, true}, []bool{false}),
	)))
	require.NoError(t, l.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"frame,obj_id,x1,y1,x2,y2,label,line_1,line_2,area_1",
		"1,7,1,2,3,4,5,0,1,1",
		"2,7,1,2,3,4,5,0,1,0",
	}, lines)
}

func TestViolationLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "illegal_parking.csv")
	l, err := CreateViolationLog(path)
	require.NoError(t, err)

	require.NoError(t, l.Consume(controller.FrameEvents{Frame: 3}))
	require.NoError(t, l.Consume(controller.FrameEvents{
		Frame: 81,
		Violations: []controller.ViolationEvent{{
			Frame: 81, ObjectID: 1, DurationSeconds: 8.04, BBox: image.Rect(40, 40, 60, 60), Class: 0, Label: "car",
		}},
	}))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "frame,obj_id,label,x1,y1,x2,y2,stop_seconds\n81,1,car,40,40,60,60,8.0\n", string(data))
}

func TestTrackExport(t *testing.T) {
	projector := geo.NewLinear(
		geo.ControlPoint{Pixel: [2]float64{0, 0}, GPS: [2]float64{10, 20}},
		geo.ControlPoint{Pixel: [2]float64{100, 0}, GPS: [2]float64{11, 21}},
	)
	var buf bytes.Buffer
	e := NewTrackExport(&buf, projector, nil)

	e.Add(common.Detection{Frame: 1, ObjectID: 2, X1: 40, Y1: 0, X2: 61, Y2: 10, Class: 0})
	require.NoError(t, e.Consume(frame(2, nil, nil, controller.ObjectState{
		Detection: common.Detection{Frame: 2, ObjectID: 3, X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 99},
	})))
	assert.Equal(t, 2, e.Len())
	require.NoError(t, e.Close())

	var got []TrackPoint
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "car", got[0].Label)
	assert.InDelta(t, 10.505, got[0].GPS.Lat, 1e-9)
	assert.InDelta(t, 20.505, got[0].GPS.Lng, 1e-9)
	assert.Equal(t, "unknown", got[1].Label)
	assert.Equal(t, 3, got[1].ID)
}

func TestTrackExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	e := NewTrackExport(&buf, geo.NewLinear(geo.ControlPoint{}, geo.ControlPoint{Pixel: [2]float64{1, 0}}), nil)
	require.NoError(t, e.Close())
	assert.Equal(t, "[]\n", buf.String())
}
