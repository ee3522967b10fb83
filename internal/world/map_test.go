package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapInBounds(t *testing.T) {
	m := NewMap(3)
	cases := map[Position]bool{
		{X: 0, Z: 0}:   true,
		{X: 20, Z: 20}: true,
		{X: 10, Z: 0}:  true,
		{X: 30, Z: 0}:  false,
		{X: -10, Z: 0}: false,
		{X: 5, Z: 10}:  false,
	}
	for pos, want := range cases {
		assert.Equal(t, want, m.InBounds(pos), pos.String())
	}
}

func TestMapOrdered(t *testing.T) {
	m := NewMap(2)
	m.Set(&Tile{Position: Position{X: 10, Z: 0}})
	m.Set(&Tile{Position: Position{X: 0, Z: 10}})
	m.Set(&Tile{Position: Position{X: 0, Z: 0}})

	var got []Position
	for _, tile := range m.Ordered() {
		got = append(got, tile.Position)
	}
	assert.Equal(t, []Position{{X: 0, Z: 0}, {X: 0, Z: 10}, {X: 10, Z: 0}}, got)
}
