// Map generation using wave function collapse.
// Cells start with every road type and are collapsed one at a time, lowest
// entropy first; neighbours are narrowed to types whose facing sockets match.
// An empty cell throws the whole grid away and generation starts over.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/tilecity/internal/entropy"
)

var (
	// ErrGenerationFailed is returned once a generator exceeds its restart cap.
	ErrGenerationFailed = errors.New("world: map generation failed")
	// ErrEmptyTileSet is returned when no archetypes are supplied.
	ErrEmptyTileSet = errors.New("world: empty tile set")
	// ErrInvalidSize is returned for a non-positive map size.
	ErrInvalidSize = errors.New("world: map size must be positive")
)

// GenState is the generator's lifecycle stage.
type GenState uint8

const (
	StateNotStarted GenState = iota
	StateCollapsing
	StateRestarting // contradiction hit; grid was reset this step
	StateFinalizing
	StateDone
	StateFailed
)

func (s GenState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateCollapsing:
		return "collapsing"
	case StateRestarting:
		return "restarting"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenConfig holds map generation parameters.
type GenConfig struct {
	Size        int   // Cells per side
	Seed        int64 // Random seed (0 = random)
	MaxRestarts int   // Restart cap (0 = unbounded)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:        16,
		Seed:        0,
		MaxRestarts: 1000,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Size:        5,
		Seed:        42,
		MaxRestarts: 200,
	}
}

// GenOption customises a Generator.
type GenOption func(*Generator)

// WithMaxRestarts caps how many contradictions a generator tolerates before
// giving up with ErrGenerationFailed. Zero means no cap.
func WithMaxRestarts(n int) GenOption {
	return func(g *Generator) {
		g.maxRestarts = n
	}
}

// Generator builds a Map from a TileSet. It is driven step by step with
// Collapse so callers decide how much work to do per frame; Generate runs it
// to completion.
type Generator struct {
	tiles       *TileSet
	size        int
	rng         *rand.Rand
	maxRestarts int

	cells     []*Cell // index = x + z*size
	generated []*Tile // creation order
	m         *Map

	state    GenState
	restarts int
	steps    int
	err      error
}

// NewGenerator creates a generator for a size×size grid.
func NewGenerator(ts *TileSet, size int, rng *rand.Rand, opts ...GenOption) (*Generator, error) {
	if ts == nil || ts.Len() == 0 {
		return nil, ErrEmptyTileSet
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(entropy.Seed()))
	}
	g := &Generator{
		tiles: ts,
		size:  size,
		rng:   rng,
		m:     NewMap(size),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Reset discards any generated content and counters and prepares a fresh grid.
func (g *Generator) Reset() {
	g.restarts = 0
	g.steps = 0
	g.err = nil
	g.startOver()
	g.state = StateCollapsing
}

// startOver clears generated tiles and refills every cell with all options.
func (g *Generator) startOver() {
	g.generated = nil
	g.m.Clear()
	g.cells = make([]*Cell, g.size*g.size)
	for i := range g.cells {
		g.cells[i] = newCell(g.tiles.all())
	}
}

// Collapse runs one generation step: materialise collapsed cells, collapse
// the lowest-entropy cell, and propagate constraints. When every cell is
// collapsed it finalises the map and marks the generator done.
func (g *Generator) Collapse() {
	switch g.state {
	case StateDone, StateFailed:
		return
	case StateNotStarted:
		g.Reset()
	case StateRestarting:
		g.state = StateCollapsing
	}
	if len(g.cells) == 0 {
		return
	}
	g.steps++

	g.materialize()

	idx, ok := g.nextCell()
	if !ok {
		g.state = StateFinalizing
		// Twice, so corrections between diagonal neighbours settle.
		g.finalize()
		g.finalize()
		g.state = StateDone
		slog.Debug("map collapse complete",
			"size", g.size,
			"steps", g.steps,
			"restarts", g.restarts,
		)
		return
	}

	cell := g.cells[idx]
	if cell.Entropy() < 1 {
		g.restart(idx)
		return
	}

	opts := cell.Sorted()
	pick := opts[g.rng.Intn(len(opts))]
	cell.Collapsed = true
	cell.Options = mapset.New[RoadType]()
	cell.Options.Put(pick)

	g.propagate()
}

// restart throws the grid away after a contradiction at cell idx.
func (g *Generator) restart(idx int) {
	g.restarts++
	if g.maxRestarts > 0 && g.restarts > g.maxRestarts {
		g.err = fmt.Errorf("%w: %d restarts on %dx%d grid", ErrGenerationFailed, g.maxRestarts, g.size, g.size)
		g.state = StateFailed
		slog.Warn("map generation gave up", "restarts", g.restarts, "size", g.size)
		return
	}
	slog.Debug("map contradiction, restarting",
		"cell", g.cellPosition(idx),
		"restarts", g.restarts,
	)
	g.startOver()
	g.state = StateRestarting
}

// materialize places a tile for every collapsed cell, reusing the cell's
// tile from earlier passes.
func (g *Generator) materialize() {
	for idx, cell := range g.cells {
		if !cell.Collapsed {
			continue
		}
		t, ok := cell.Single()
		if !ok {
			continue
		}
		if cell.tile != nil {
			cell.tile.Type = t
			cell.tile.Sockets = g.tiles.Sockets(t)
			continue
		}
		cell.tile = &Tile{
			Type:     t,
			Sockets:  g.tiles.Sockets(t),
			Position: g.cellPosition(idx),
		}
		g.generated = append(g.generated, cell.tile)
		g.m.Set(cell.tile)
	}
}

// nextCell picks uniformly among the uncollapsed cells tied for the fewest
// remaining options. ok is false once every cell is collapsed.
func (g *Generator) nextCell() (idx int, ok bool) {
	minEntropy := -1
	var tied []int
	for i, cell := range g.cells {
		if cell.Collapsed {
			continue
		}
		e := cell.Entropy()
		switch {
		case minEntropy < 0 || e < minEntropy:
			minEntropy = e
			tied = append(tied[:0], i)
		case e == minEntropy:
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 {
		return 0, false
	}
	return tied[g.rng.Intn(len(tied))], true
}

// propagate rebuilds the option set of every uncollapsed cell from its
// in-grid neighbours. Off-grid sides impose no constraint. Collapsed cells
// carry over untouched.
func (g *Generator) propagate() {
	next := make([]*Cell, len(g.cells))
	for z := 0; z < g.size; z++ {
		for x := 0; x < g.size; x++ {
			idx := x + z*g.size
			if g.cells[idx].Collapsed {
				next[idx] = g.cells[idx]
				continue
			}
			options := g.tiles.all()
			for _, d := range Directions {
				nIdx, ok := g.neighborIndex(x, z, d)
				if !ok {
					continue
				}
				g.constrain(options, g.cells[nIdx], d)
			}
			next[idx] = newCell(options)
		}
	}
	g.cells = next
}

// constrain removes from options every type that cannot sit on side
// d.Opposite() of any option left in neighbor.
func (g *Generator) constrain(options mapset.Set[RoadType], neighbor *Cell, d Direction) {
	allowed := mapset.New[RoadType]()
	neighbor.Options.Each(func(o RoadType) {
		g.tiles.Allowed(o, d.Opposite()).Each(allowed.Put)
	})
	var drop []RoadType
	options.Each(func(t RoadType) {
		if !allowed.Has(t) {
			drop = append(drop, t)
		}
	})
	for _, t := range drop {
		options.Remove(t)
	}
}

// finalize re-derives each tile's signature from the facing sockets of its
// world-space neighbours (0 where none exists). Tiles whose derived
// signature has no road type are left as they are.
func (g *Generator) finalize() {
	for _, tile := range g.generated {
		var derived Sockets
		for _, d := range Directions {
			if n, ok := g.m.Get(tile.Position.Neighbor(d)); ok {
				derived[d] = n.Sockets[d.Opposite()]
			}
		}
		t := g.tiles.TypeOf(derived)
		if t == RoadNone {
			continue
		}
		tile.Type = t
		tile.Sockets = g.tiles.Sockets(t)
	}
}

func (g *Generator) neighborIndex(x, z int, d Direction) (int, bool) {
	off := d.Offset()
	nx, nz := x+off.X, z+off.Z
	if nx < 0 || nz < 0 || nx >= g.size || nz >= g.size {
		return 0, false
	}
	return nx + nz*g.size, true
}

func (g *Generator) cellPosition(idx int) Position {
	return Position{X: (idx % g.size) * CellSpacing, Z: (idx / g.size) * CellSpacing}
}

// Generate runs Collapse until the map is done, the restart cap is hit, or
// ctx is cancelled.
func (g *Generator) Generate(ctx context.Context) (*Map, error) {
	g.Reset()
	for !g.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.Collapse()
		if g.err != nil {
			return nil, g.err
		}
	}
	return g.m, nil
}

// Done reports whether the map is complete. Callers that drive Collapse
// themselves poll this.
func (g *Generator) Done() bool {
	return g.state == StateDone
}

// State returns the lifecycle stage.
func (g *Generator) State() GenState { return g.state }

// Err returns the failure that stopped generation, if any.
func (g *Generator) Err() error { return g.err }

// Restarts returns how many contradictions forced a restart since Reset.
func (g *Generator) Restarts() int { return g.restarts }

// Steps returns how many Collapse calls did work since Reset.
func (g *Generator) Steps() int { return g.steps }

// Size returns the cells per side.
func (g *Generator) Size() int { return g.size }

// Map returns the map being generated.
func (g *Generator) Map() *Map { return g.m }

// Cells returns the current grid, index x + z*size.
func (g *Generator) Cells() []*Cell { return g.cells }

// GetTile returns the generated tile at pos, if any.
func (g *Generator) GetTile(pos Position) (*Tile, bool) {
	return g.m.Get(pos)
}

// RemoveGeneratedContent drops every generated tile and cell and returns
// the generator to its initial state.
func (g *Generator) RemoveGeneratedContent() {
	g.generated = nil
	g.cells = nil
	g.m.Clear()
	g.state = StateNotStarted
	g.restarts = 0
	g.steps = 0
	g.err = nil
}

// GenStats summarises a finished generation run.
type GenStats struct {
	Seed     int64
	Size     int
	Steps    int
	Restarts int
	Counts   map[RoadType]int
}

// Generate creates a complete road map from the default tile set.
func Generate(ctx context.Context, cfg GenConfig) (*Map, GenStats, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.Seed()
	}
	stats := GenStats{Seed: seed, Size: cfg.Size}

	g, err := NewGenerator(MustDefaultTileSet(), cfg.Size, rand.New(rand.NewSource(seed)), WithMaxRestarts(cfg.MaxRestarts))
	if err != nil {
		return nil, stats, err
	}
	m, err := g.Generate(ctx)
	stats.Steps = g.Steps()
	stats.Restarts = g.Restarts()
	if err != nil {
		return nil, stats, fmt.Errorf("generate %dx%d map (seed %d): %w", cfg.Size, cfg.Size, seed, err)
	}
	stats.Counts = m.TypeCounts()
	return m, stats, nil
}
