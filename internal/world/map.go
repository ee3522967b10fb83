package world

import (
	"fmt"
	"sort"
)

// Tile is a placed map unit: a road type at a world position.
type Tile struct {
	Type     RoadType `json:"type"`
	Sockets  Sockets  `json:"sockets"`
	Position Position `json:"position"`
}

// ValidDirections returns the connector code on each side of the tile.
// A nonzero entry means an agent may leave the tile that way.
func (t *Tile) ValidDirections() [NumDirections]int {
	return t.Sockets
}

// Connects reports whether the tile has a connector facing d.
func (t *Tile) Connects(d Direction) bool {
	return t.Sockets[d] != 0
}

// Map holds the generated tiles keyed by world position.
type Map struct {
	Tiles map[Position]*Tile `json:"-"`
	Size  int                `json:"size"` // Cells per side
}

// NewMap creates an empty square map with the given cells per side.
func NewMap(size int) *Map {
	return &Map{
		Tiles: make(map[Position]*Tile),
		Size:  size,
	}
}

// Get returns the tile at the given position, if one is placed there.
func (m *Map) Get(pos Position) (*Tile, bool) {
	t, ok := m.Tiles[pos]
	return t, ok
}

// GetTile is Get under the name the pathfinder looks for.
func (m *Map) GetTile(pos Position) (*Tile, bool) {
	return m.Get(pos)
}

// Set places a tile at its own position, replacing any previous tile.
func (m *Map) Set(t *Tile) {
	m.Tiles[t.Position] = t
}

// Clear removes every tile.
func (m *Map) Clear() {
	m.Tiles = make(map[Position]*Tile)
}

// Len returns the number of placed tiles.
func (m *Map) Len() int {
	return len(m.Tiles)
}

// InBounds reports whether pos is a tile slot on this map.
func (m *Map) InBounds(pos Position) bool {
	if pos.X%CellSpacing != 0 || pos.Z%CellSpacing != 0 {
		return false
	}
	x, z := pos.X/CellSpacing, pos.Z/CellSpacing
	return x >= 0 && z >= 0 && x < m.Size && z < m.Size
}

// Ordered returns all tiles sorted by X, then Z.
func (m *Map) Ordered() []*Tile {
	out := make([]*Tile, 0, len(m.Tiles))
	for _, t := range m.Tiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position.Less(out[j].Position)
	})
	return out
}

// TypeCounts returns how many tiles of each road type the map holds.
func (m *Map) TypeCounts() map[RoadType]int {
	counts := make(map[RoadType]int)
	for _, t := range m.Tiles {
		counts[t.Type]++
	}
	return counts
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(size=%d, tiles=%d)", m.Size, m.Len())
}
