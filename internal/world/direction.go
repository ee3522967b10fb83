// Package world provides the tile grid, road archetypes, and the
// wave-function-collapse map generator.
// Tiles sit on a square grid in world space, CellSpacing units apart.
package world

import (
	"fmt"
	"math"
)

// CellSpacing is the world-space distance between neighbouring tile centres.
const CellSpacing = 10

// Position is a world-space tile coordinate on the ground plane.
type Position struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Add returns p shifted by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Z: p.Z + o.Z}
}

// Scale returns p with both components multiplied by n.
func (p Position) Scale(n int) Position {
	return Position{X: p.X * n, Z: p.Z * n}
}

// Less orders positions by X, then Z.
func (p Position) Less(o Position) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Z < o.Z
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Z)
}

// Direction is one of the four cardinal socket directions.
type Direction uint8

const (
	Up    Direction = iota // +Z
	Right                  // +X
	Down                   // -Z
	Left                   // -X
)

// NumDirections is the number of socket directions on a tile.
const NumDirections = 4

// Directions lists every direction in socket order.
var Directions = [NumDirections]Direction{Up, Right, Down, Left}

// directionOffsets defines the unit grid step for each direction.
var directionOffsets = [NumDirections]Position{
	{X: 0, Z: 1},
	{X: 1, Z: 0},
	{X: 0, Z: -1},
	{X: -1, Z: 0},
}

// Opposite returns the direction facing back toward d.
func (d Direction) Opposite() Direction {
	return (d + 2) % NumDirections
}

// Offset returns the unit grid step for d.
func (d Direction) Offset() Position {
	return directionOffsets[d]
}

// Neighbor returns the world position of the tile next to p in direction d.
func (p Position) Neighbor(d Direction) Position {
	return p.Add(d.Offset().Scale(CellSpacing))
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Distance returns the straight-line distance between two positions.
func Distance(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dz*dz)
}
