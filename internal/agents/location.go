package agents

import "github.com/talgya/tilecity/internal/world"

// Location is an optional world position: a citizen may not know where it
// works or shops yet.
type Location struct {
	pos world.Position
	ok  bool
}

// Some returns a location holding pos.
func Some(pos world.Position) Location {
	return Location{pos: pos, ok: true}
}

// None returns the empty location.
func None() Location {
	return Location{}
}

// Get returns the position and whether one is set.
func (l Location) Get() (world.Position, bool) {
	return l.pos, l.ok
}

// IsSome reports whether a position is set.
func (l Location) IsSome() bool { return l.ok }

func (l Location) String() string {
	if !l.ok {
		return "none"
	}
	return l.pos.String()
}
