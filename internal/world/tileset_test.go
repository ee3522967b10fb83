package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketsRotate(t *testing.T) {
	s := Sockets{1, 1, 0, 0}

	assert.Equal(t, Sockets{1, 0, 0, 1}, s.Rotate(1))
	assert.Equal(t, Sockets{0, 0, 1, 1}, s.Rotate(2))
	assert.Equal(t, Sockets{0, 1, 1, 0}, s.Rotate(3))
	assert.Equal(t, s, s.Rotate(4))
	assert.Equal(t, s.Rotate(3), s.Rotate(-1))
	// Pure: the receiver is untouched.
	assert.Equal(t, Sockets{1, 1, 0, 0}, s)
}

func TestSocketsKey(t *testing.T) {
	assert.Equal(t, "0110", Sockets{0, 1, 1, 0}.Key())
	assert.Equal(t, "1111", Sockets{1, 1, 1, 1}.Key())
}

func TestDefaultTileSetMatchesRoadTypes(t *testing.T) {
	ts := MustDefaultTileSet()
	require.Equal(t, 12, ts.Len())

	want := map[RoadType]struct {
		name    string
		sockets Sockets
	}{
		RoadCrossroad:  {"CROSSROAD", Sockets{1, 1, 1, 1}},
		RoadEmpty:      {"EMPTY", Sockets{0, 0, 0, 0}},
		RoadRightTurn:  {"RIGHT_TURN", Sockets{1, 1, 0, 0}},
		RoadStraight:   {"STRAIGHT", Sockets{1, 0, 1, 0}},
		RoadTJunctDown: {"T_JUNCT_DOWN", Sockets{0, 1, 1, 1}},
		RoadRightTurn2: {"RIGHT_TURN2", Sockets{1, 0, 0, 1}},
		RoadRightTurn3: {"RIGHT_TURN3", Sockets{0, 0, 1, 1}},
		RoadRightTurn4: {"RIGHT_TURN4", Sockets{0, 1, 1, 0}},
		RoadStraight2:  {"STRAIGHT2", Sockets{0, 1, 0, 1}},
		RoadTJunct2:    {"T_JUNCT2", Sockets{1, 1, 1, 0}},
		RoadTJunct3:    {"T_JUNCT3", Sockets{1, 1, 0, 1}},
		RoadTJunct4:    {"T_JUNCT4", Sockets{1, 0, 1, 1}},
	}
	for rt, w := range want {
		assert.Equal(t, w.name, ts.Name(rt), "name of %d", rt)
		assert.Equal(t, w.sockets, ts.Sockets(rt), "sockets of %s", w.name)
	}
}

func TestTileSetDeduplicatesSymmetricRotations(t *testing.T) {
	ts, err := NewTileSet([]Archetype{
		{Name: "CROSSROAD", Sockets: Sockets{1, 1, 1, 1}},
		{Name: "STRAIGHT", Sockets: Sockets{1, 0, 1, 0}},
		{Name: "ODD", Sockets: Sockets{1, 2, 3, 4}},
	})
	require.NoError(t, err)

	// Crossroad: 1, straight: 2, asymmetric: 4.
	assert.Equal(t, 7, ts.Len())

	seen := make(map[string]bool)
	for _, v := range ts.Variants() {
		key := v.Sockets.Key()
		assert.False(t, seen[key], "duplicate signature %s", key)
		seen[key] = true
	}
}

func TestTileSetTypeOfIsBijection(t *testing.T) {
	ts := MustDefaultTileSet()
	for i := 0; i < ts.Len(); i++ {
		rt := RoadType(i)
		assert.Equal(t, rt, ts.TypeOf(ts.Sockets(rt)))
	}
	// Dead ends are not part of the road set.
	assert.Equal(t, RoadNone, ts.TypeOf(Sockets{1, 0, 0, 0}))
}

func TestTileSetAnalyse(t *testing.T) {
	ts := MustDefaultTileSet()

	above := ts.Allowed(RoadStraight, Up)
	for i := 0; i < ts.Len(); i++ {
		rt := RoadType(i)
		assert.Equal(t, ts.Sockets(rt)[Down] == 1, above.Has(rt), "%s above STRAIGHT", ts.Name(rt))
	}

	left := ts.Allowed(RoadEmpty, Left)
	assert.True(t, left.Has(RoadEmpty))
	assert.True(t, left.Has(RoadRightTurn3)) // 0011: right side is 0
	assert.False(t, left.Has(RoadCrossroad))
}

func TestDefaultTileSetIsShared(t *testing.T) {
	assert.Same(t, MustDefaultTileSet(), MustDefaultTileSet())
}

func TestNewTileSetRejectsEmpty(t *testing.T) {
	_, err := NewTileSet(nil)
	assert.ErrorIs(t, err, ErrEmptyTileSet)
}
