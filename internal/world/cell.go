package world

import "github.com/zyedidia/generic/mapset"

// Cell is a grid slot during generation: the road types still legal there
// and whether it has been collapsed to one of them.
type Cell struct {
	Collapsed bool
	Options   mapset.Set[RoadType]

	// tile is reused across materialize passes once the cell is collapsed.
	tile *Tile
}

func newCell(options mapset.Set[RoadType]) *Cell {
	return &Cell{Options: options}
}

// Sorted returns the remaining options in ascending order.
func (c *Cell) Sorted() []RoadType {
	return sortedTypes(c.Options)
}

// Entropy is the number of remaining options.
func (c *Cell) Entropy() int {
	return c.Options.Size()
}

// Single returns the only remaining option of a collapsed cell.
func (c *Cell) Single() (RoadType, bool) {
	if c.Options.Size() != 1 {
		return RoadNone, false
	}
	opts := c.Sorted()
	return opts[0], true
}
