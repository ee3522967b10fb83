package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLand(m *Map, seed int64, cfg LandConfig) []float64 {
	lv := NewLandValue(m, seed, cfg)
	var out []float64
	for x := 0; x < m.Size; x++ {
		for z := 0; z < m.Size; z++ {
			out = append(out, lv.At(Position{X: x * CellSpacing, Z: z * CellSpacing}))
		}
	}
	return out
}

func TestLandValueStaysInUnitRange(t *testing.T) {
	m := NewMap(12)
	for _, cfg := range []LandConfig{
		DefaultLandConfig(),
		{Octaves: 6, Frequency: 0.3, Persistence: 1, Lacunarity: 3},
		{Octaves: 0, Frequency: 0.1, Persistence: -2, Lacunarity: 0},
	} {
		for _, v := range sampleLand(m, 5, cfg) {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestLandValueFollowsConfig(t *testing.T) {
	m := NewMap(10)
	base := DefaultLandConfig()
	assert.Equal(t, sampleLand(m, 3, base), sampleLand(m, 3, base), "same seed, same field")

	more := base
	more.Octaves = 6
	assert.NotEqual(t, sampleLand(m, 3, base), sampleLand(m, 3, more))

	flat := base
	flat.Persistence = 0.9
	assert.NotEqual(t, sampleLand(m, 3, base), sampleLand(m, 3, flat))

	assert.Zero(t, NewLandValue(m, 3, base).At(Position{X: 999, Z: 999}), "off the map")
}

func TestLandLayersWeightsSumToOne(t *testing.T) {
	layers := LandConfig{Octaves: 4, Frequency: 0.2, Persistence: 0.5, Lacunarity: 2}.layers()
	require.Len(t, layers, 4)

	sum := 0.0
	for _, l := range layers {
		sum += l.weight
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.InDelta(t, 0.2, layers[0].freq, 1e-9)
	assert.InDelta(t, 1.6, layers[3].freq, 1e-9)
	assert.Greater(t, layers[0].weight, layers[3].weight)

	assert.Len(t, LandConfig{Frequency: 0.2}.layers(), 1, "octaves below one clamp to a single layer")
}
