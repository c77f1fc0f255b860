package scene

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-traffic/geometry"
)

func square() []geometry.Point {
	return []geometry.Point{geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.Pt(100, 100), geometry.Pt(0, 100)}
}

func TestNewRegion(t *testing.T) {
	_, err := NewRegion(square()[:3], "triangle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegionVertices))

	_, err = NewRegion(append(square(), geometry.Pt(5, 5)), "pentagon")
	assert.True(t, errors.Is(err, ErrRegionVertices))

	_, err = NewRegion(square(), "   ")
	assert.True(t, errors.Is(err, ErrDescription))

	r, err := NewRegion(square(), " bus stop ")
	require.NoError(t, err)
	assert.Equal(t, "bus stop", r.Description)
	assert.True(t, r.Contains(geometry.Pt(50, 50)))
	assert.True(t, r.Contains(geometry.Pt(100, 100)))
	assert.False(t, r.Contains(geometry.Pt(200, 50)))
	assert.Equal(t, geometry.Pt(50, 50), r.Center())
}

func TestScene_IDsAreStable(t *testing.T) {
	s := New()

	l1, err := s.AddLine(geometry.Pt(0, 0), geometry.Pt(100, 0), "north")
	require.NoError(t, err)
	l2, err := s.AddLine(geometry.Pt(0, 50), geometry.Pt(100, 50), "south")
	require.NoError(t, err)
	assert.Equal(t, 1, l1.ID)
	assert.Equal(t, 2, l2.ID)

	require.NoError(t, s.RemoveLine(2))
	l3, err := s.AddLine(geometry.Pt(0, 70), geometry.Pt(100, 70), "exit")
	require.NoError(t, err)
	assert.Equal(t, 3, l3.ID, "deleted ids are not reused")

	err = s.RemoveLine(2)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.AddLine(geometry.Pt(1, 1), geometry.Pt(1, 1), "dot")
	assert.True(t, errors.Is(err, ErrDegenerateLine))
	_, err = s.AddLine(geometry.Pt(1, 1), geometry.Pt(2, 2), "")
	assert.True(t, errors.Is(err, ErrDescription))
}

func TestScene_UndoRedo(t *testing.T) {
	s := New()
	_, err := s.AddLine(geometry.Pt(0, 0), geometry.Pt(100, 0), "north")
	require.NoError(t, err)
	r, err := NewRegion(square(), "stop")
	require.NoError(t, err)
	_, err = s.AddRegion(r)
	require.NoError(t, err)

	require.True(t, s.Undo())
	assert.Empty(t, s.Regions())
	assert.Len(t, s.Lines(), 1)

	require.True(t, s.Undo())
	assert.Empty(t, s.Lines())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	require.True(t, s.Redo())
	assert.False(t, s.Redo())

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ID)
	regions := s.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, 1, regions[0].ID)

	s.Reset()
	assert.Empty(t, s.Lines())
	assert.Empty(t, s.Regions())
	assert.False(t, s.Undo())

	l, err := s.AddLine(geometry.Pt(0, 0), geometry.Pt(1, 1), "again")
	require.NoError(t, err)
	assert.Equal(t, 2, l.ID, "ids keep counting after reset")
	r, err = s.AddRegion(r)
	require.NoError(t, err)
	assert.Equal(t, 2, r.ID)
}

func TestScene_RemovedItemsLeaveHistory(t *testing.T) {
	s := New()
	l1, err := s.AddLine(geometry.Pt(0, 0), geometry.Pt(100, 0), "north")
	require.NoError(t, err)
	_, err = s.AddLine(geometry.Pt(0, 50), geometry.Pt(100, 50), "south")
	require.NoError(t, err)
	r, err := NewRegion(square(), "stop")
	require.NoError(t, err)
	r, err = s.AddRegion(r)
	require.NoError(t, err)

	require.NoError(t, s.RemoveRegion(r.ID))
	require.NoError(t, s.RemoveLine(2))

	require.True(t, s.Undo(), "undoes the remaining line add")
	assert.Empty(t, s.Lines())
	assert.False(t, s.Undo(), "removed items are not in the history")

	require.True(t, s.Redo())
	assert.False(t, s.Redo())
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, l1, lines[0])
	assert.Empty(t, s.Regions(), "a removed region is never redone")

	require.NoError(t, s.RemoveLine(l1.ID))
	assert.False(t, s.Undo())
	assert.False(t, s.Redo())
}

func TestLoadAndWrite(t *testing.T) {
	doc := `
lines:
  - description: stop line
    from: [200, 400]
    to: [800, 400]
regions:
  - description: bus stop
    points: [[0, 0], [100, 0], [100, 100], [0, 100]]
`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, Line{ID: 1, P1: geometry.Pt(200, 400), P2: geometry.Pt(800, 400), Description: "stop line"}, lines[0])
	regions := s.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, "bus stop", regions[0].Description)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	again, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Lines(), again.Lines())
	assert.Equal(t, s.Regions(), again.Regions())
}

func TestLoad_RejectsBadRegion(t *testing.T) {
	doc := `
regions:
  - description: triangle
    points: [[0, 0], [100, 0], [100, 100]]
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegionVertices))
}
