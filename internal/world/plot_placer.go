// Plot placement: finds empty tiles beside roads for buildings.
package world

import "sort"

// Plot is a candidate building lot.
type Plot struct {
	Position Position
	Access   Position // Road tile the plot faces
	Score    float64  // Land value at the plot
}

// PlacePlots returns up to n empty tiles that touch a road, best land value
// first. A plot touches a road when a neighbouring tile has a connector.
// Ties are broken by position so placement is deterministic.
func PlacePlots(m *Map, lv *LandValue, n int) []Plot {
	var candidates []Plot
	for _, t := range m.Ordered() {
		if t.Sockets != (Sockets{}) {
			continue
		}
		access, ok := roadAccess(m, t.Position)
		if !ok {
			continue
		}
		candidates = append(candidates, Plot{
			Position: t.Position,
			Access:   access,
			Score:    lv.At(t.Position),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if n >= 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// roadAccess returns the first neighbouring tile that carries a road.
func roadAccess(m *Map, pos Position) (Position, bool) {
	for _, d := range Directions {
		n, ok := m.Get(pos.Neighbor(d))
		if !ok {
			continue
		}
		for _, s := range n.Sockets {
			if s != 0 {
				return n.Position, true
			}
		}
	}
	return Position{}, false
}
