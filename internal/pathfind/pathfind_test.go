package pathfind

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tilecity/internal/world"
)

func at(x, z int) world.Position {
	return world.Position{X: x * world.CellSpacing, Z: z * world.CellSpacing}
}

func place(m *world.Map, pos world.Position, s world.Sockets) {
	m.Set(&world.Tile{Position: pos, Sockets: s})
}

// corridor lays n vertical straight tiles from (0,0) upward.
func corridor(n int) *world.Map {
	m := world.NewMap(n)
	for z := 0; z < n; z++ {
		place(m, at(0, z), world.Sockets{1, 0, 1, 0})
	}
	return m
}

func TestFindPathDegenerate(t *testing.T) {
	// No tile is needed when start and end coincide.
	f := New(world.NewMap(1))
	path, err := f.FindPath(at(3, 3), at(3, 3))
	require.NoError(t, err)
	assert.Equal(t, []world.Position{at(3, 3)}, path)
}

func TestFindPathCorridor(t *testing.T) {
	for _, n := range []int{2, 3, 8, 20} {
		f := New(corridor(n))
		path, err := f.FindPath(at(0, 0), at(0, n-1))
		require.NoError(t, err, "n=%d", n)
		require.Len(t, path, n)
		for z, pos := range path {
			assert.Equal(t, at(0, z), pos)
		}
		assert.InDelta(t, float64((n-1)*world.CellSpacing), Length(path), 1e-9)
	}
}

func TestFindPathCorridorReversed(t *testing.T) {
	f := New(corridor(5))
	path, err := f.FindPath(at(0, 4), at(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []world.Position{at(0, 4), at(0, 3), at(0, 2), at(0, 1), at(0, 0)}, path)
}

func TestFindPathUnreachable(t *testing.T) {
	m := corridor(3)
	// Isolated tile with no connectors.
	place(m, at(2, 1), world.Sockets{})

	f := New(m)
	path, err := f.FindPath(at(0, 0), at(2, 1))
	assert.ErrorIs(t, err, ErrNoPath)
	assert.Nil(t, path)

	// From the isolated tile nothing is reachable either.
	_, err = f.FindPath(at(2, 1), at(0, 0))
	assert.ErrorIs(t, err, ErrNoPath)

	// Goal off the map.
	_, err = f.FindPath(at(0, 0), at(9, 9))
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestFindPathNoStartTile(t *testing.T) {
	f := New(corridor(2))
	_, err := f.FindPath(at(5, 5), at(0, 0))
	assert.ErrorIs(t, err, ErrNoTile)
}

func TestFindPathFollowsConnectors(t *testing.T) {
	// A U-shaped road; (0,0) and (1,0) touch but share no connector.
	//   (0,1) -- (1,1)
	//     |        |
	//   (0,0)    (1,0)
	m := world.NewMap(2)
	place(m, at(0, 0), world.Sockets{1, 0, 0, 0})
	place(m, at(0, 1), world.Sockets{0, 1, 1, 0})
	place(m, at(1, 1), world.Sockets{0, 0, 1, 1})
	place(m, at(1, 0), world.Sockets{1, 0, 0, 0})

	f := New(m)
	path, err := f.FindPath(at(0, 0), at(1, 0))
	require.NoError(t, err)
	assert.Equal(t, []world.Position{at(0, 0), at(0, 1), at(1, 1), at(1, 0)}, path)
}

func TestFindPathDeterministicTies(t *testing.T) {
	// Open 3x3 crossroads grid: many equal-score routes.
	m := world.NewMap(3)
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			place(m, at(x, z), world.Sockets{1, 1, 1, 1})
		}
	}

	f := New(m, WithDeterministicTies())
	first, err := f.FindPath(at(0, 0), at(2, 2))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.FindPath(at(0, 0), at(2, 2))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, at(0, 0), first[0])
	assert.Equal(t, at(2, 2), first[len(first)-1])
}

func TestFindPathOnGeneratedMap(t *testing.T) {
	g, err := world.NewGenerator(world.MustDefaultTileSet(), 8, rand.New(rand.NewSource(21)))
	require.NoError(t, err)
	m, err := g.Generate(context.Background())
	require.NoError(t, err)

	// Route from the first road tile to every other tile; each hop must
	// leave through a connector.
	var roads []*world.Tile
	for _, tile := range m.Ordered() {
		if tile.Sockets != (world.Sockets{}) {
			roads = append(roads, tile)
		}
	}
	require.NotEmpty(t, roads)

	f := New(g)
	start := roads[0].Position
	for _, target := range roads[1:] {
		path, err := f.FindPath(start, target.Position)
		if err != nil {
			assert.ErrorIs(t, err, ErrNoPath)
			continue
		}
		assert.Equal(t, start, path[0])
		assert.Equal(t, target.Position, path[len(path)-1])
		for i := 1; i < len(path); i++ {
			from, _ := m.Get(path[i-1])
			assert.InDelta(t, float64(world.CellSpacing), world.Distance(path[i-1], path[i]), 1e-9)
			connected := false
			for _, d := range world.Directions {
				if from.Connects(d) && from.Position.Neighbor(d) == path[i] {
					connected = true
				}
			}
			assert.True(t, connected, "hop %s -> %s", path[i-1], path[i])
		}
	}
}
