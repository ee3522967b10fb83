// Package pathfind finds routes across the generated road tiles.
// The search is best-first: cost so far is the hop count, the heuristic is
// straight-line distance to the goal. The first route that reaches the goal
// wins, so results are good but not guaranteed shortest.
package pathfind

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/tilecity/internal/world"
)

var (
	// ErrNoPath is returned when every reachable tile is explored without
	// meeting the goal.
	ErrNoPath = errors.New("pathfind: no path")
	// ErrNoTile is returned when the start position has no tile.
	ErrNoTile = errors.New("pathfind: no tile at position")
)

// TileLookup resolves a world position to the tile placed there.
// *world.Map and *world.Generator both satisfy it.
type TileLookup interface {
	GetTile(pos world.Position) (*world.Tile, bool)
}

// node is one discovered tile. Nodes live in an arena slice and refer to
// their parent by index; the root has parent -1.
type node struct {
	tile   *world.Tile
	parent int
	steps  int
	dist   float64
}

func (n node) score() float64 {
	return float64(n.steps) + n.dist
}

// Option customises a Finder.
type Option func(*Finder)

// WithDeterministicTies breaks equal scores by position (X, then Z) instead
// of discovery order, so equivalent maps always yield the same route.
func WithDeterministicTies() Option {
	return func(f *Finder) {
		f.lexTies = true
	}
}

// Finder searches one tile graph. It holds no per-search state and may be
// reused.
type Finder struct {
	tiles   TileLookup
	lexTies bool
}

// New creates a Finder over tiles.
func New(tiles TileLookup, opts ...Option) *Finder {
	f := &Finder{tiles: tiles}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindPath returns the positions from start to end inclusive.
func (f *Finder) FindPath(start, end world.Position) ([]world.Position, error) {
	if start == end {
		return []world.Position{start}, nil
	}
	first, ok := f.tiles.GetTile(start)
	if !ok {
		return nil, fmt.Errorf("%w: start %s", ErrNoTile, start)
	}

	arena := []node{{tile: first, parent: -1, dist: world.Distance(start, end)}}
	visited := mapset.New[world.Position]()
	visited.Put(start)

	var queue []int
	current := 0
	for {
		goal, found := f.expand(&arena, &queue, visited, current, end)
		if found {
			current = goal
			break
		}
		if len(queue) == 0 {
			return nil, fmt.Errorf("%w: %s to %s after %d tiles", ErrNoPath, start, end, len(arena))
		}
		f.order(arena, queue)
		current = queue[0]
		queue = queue[1:]
	}

	return reconstruct(arena, current), nil
}

// expand queues every unvisited neighbour the current tile connects to.
// It stops at the first neighbour on the goal and returns its index.
func (f *Finder) expand(arena *[]node, queue *[]int, visited mapset.Set[world.Position], current int, end world.Position) (int, bool) {
	cur := (*arena)[current]
	valid := cur.tile.ValidDirections()
	for _, d := range world.Directions {
		if valid[d] == 0 {
			continue
		}
		pos := cur.tile.Position.Neighbor(d)
		if visited.Has(pos) {
			continue
		}
		next, ok := f.tiles.GetTile(pos)
		if !ok {
			continue
		}
		visited.Put(pos)
		*arena = append(*arena, node{
			tile:   next,
			parent: current,
			steps:  cur.steps + 1,
			dist:   world.Distance(pos, end),
		})
		idx := len(*arena) - 1
		*queue = append(*queue, idx)
		if pos == end {
			return idx, true
		}
	}
	return 0, false
}

// order sorts the open queue by score. The sort is stable, so equal scores
// keep discovery order unless deterministic ties are on.
func (f *Finder) order(arena []node, queue []int) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := arena[queue[i]], arena[queue[j]]
		if a.score() != b.score() {
			return a.score() < b.score()
		}
		if f.lexTies {
			return a.tile.Position.Less(b.tile.Position)
		}
		return false
	})
}

// reconstruct walks parent indices back to the root and reverses the result.
func reconstruct(arena []node, goal int) []world.Position {
	var path []world.Position
	for i := goal; i >= 0; i = arena[i].parent {
		path = append(path, arena[i].tile.Position)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Length returns the world-space length of a path.
func Length(path []world.Position) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += world.Distance(path[i-1], path[i])
	}
	return total
}
