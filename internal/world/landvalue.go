// Land value: a fractal simplex field over the map's tile slots.
// Higher values mark more desirable building plots.
package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// LandConfig shapes the land-value field.
type LandConfig struct {
	Octaves     int     `yaml:"octaves"`     // Noise layers summed per slot
	Frequency   float64 `yaml:"frequency"`   // Base frequency in cells
	Persistence float64 `yaml:"persistence"` // Amplitude kept per layer, in (0, 1]
	Lacunarity  float64 `yaml:"lacunarity"`  // Frequency gain per layer
}

// DefaultLandConfig returns broad districts with mild local variation.
func DefaultLandConfig() LandConfig {
	return LandConfig{Octaves: 3, Frequency: 0.15, Persistence: 0.5, Lacunarity: 2}
}

// layer is one weighted noise octave.
type layer struct {
	freq, weight float64
}

// layers expands cfg into normalised octaves whose weights sum to 1.
// Out-of-range settings fall back to a single octave at the base frequency.
func (cfg LandConfig) layers() []layer {
	n := max(cfg.Octaves, 1)
	persistence := cfg.Persistence
	if persistence <= 0 || persistence > 1 {
		persistence = 1
	}
	lacunarity := cfg.Lacunarity
	if lacunarity <= 0 {
		lacunarity = 1
	}

	out := make([]layer, n)
	freq, amp, sum := cfg.Frequency, 1.0, 0.0
	for i := range out {
		out[i] = layer{freq: freq, weight: amp}
		sum += amp
		freq *= lacunarity
		amp *= persistence
	}
	for i := range out {
		out[i].weight /= sum
	}
	return out
}

// LandValue maps each tile slot to a desirability in [0, 1].
type LandValue struct {
	values map[Position]float64
}

// NewLandValue samples the field described by cfg over every slot of m.
func NewLandValue(m *Map, seed int64, cfg LandConfig) *LandValue {
	noise := opensimplex.NewNormalized(seed + 7)
	layers := cfg.layers()
	lv := &LandValue{values: make(map[Position]float64, m.Size*m.Size)}
	for x := 0; x < m.Size; x++ {
		for z := 0; z < m.Size; z++ {
			v := 0.0
			for _, l := range layers {
				v += l.weight * noise.Eval2(float64(x)*l.freq, float64(z)*l.freq)
			}
			lv.values[Position{X: x * CellSpacing, Z: z * CellSpacing}] = v
		}
	}
	return lv
}

// At returns the land value at pos, or 0 off the map.
func (lv *LandValue) At(pos Position) float64 {
	return lv.values[pos]
}
