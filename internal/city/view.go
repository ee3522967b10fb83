package city

import (
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/economy"
	"github.com/talgya/tilecity/internal/world"
)

// EntityView is a display snapshot of one entity.
type EntityView struct {
	ID       uuid.UUID         `json:"id"`
	Kind     string            `json:"kind"`
	Position world.Position    `json:"position"`
	Access   *world.Position   `json:"access,omitempty"`
	Values   map[string]string `json:"values"`
}

func viewOf(id uuid.UUID, kind string, pos world.Position, access *world.Position, e economy.Inspectable) EntityView {
	return EntityView{ID: id, Kind: kind, Position: pos, Access: access, Values: e.AskForValues()}
}

// Entities lists every building and citizen, filtered by kind when kind is
// not empty. Callers must hold at least the read lock (see View).
func (c *City) Entities(kind string) []EntityView {
	var out []EntityView
	want := func(k string) bool { return kind == "" || kind == k }

	if want("house") {
		for _, h := range c.Houses {
			out = append(out, viewOf(h.ID, "house", h.Position, &h.Access, h))
		}
	}
	if want("company") {
		for _, co := range c.Companies {
			out = append(out, viewOf(co.ID, "company", co.Position, &co.Access, co))
		}
	}
	if want("shop") {
		for _, s := range c.Shops {
			out = append(out, viewOf(s.ID, "shop", s.Position, &s.Access, s))
		}
	}
	if want("citizen") {
		for _, ct := range c.Citizens {
			out = append(out, viewOf(ct.ID, "citizen", ct.Position, nil, ct))
		}
	}
	return out
}

// TreasuryValues returns the treasury and debt snapshots merged.
func (c *City) TreasuryValues() map[string]string {
	v := c.Treasury.AskForValues()
	for k, val := range c.Debt.AskForValues() {
		if k == "Name" {
			continue
		}
		v[k] = val
	}
	return v
}

// FindPath routes between two road tiles.
func (c *City) FindPath(from, to world.Position) ([]world.Position, error) {
	return c.Router.FindPath(from, to)
}
