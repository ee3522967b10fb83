package agents

import "github.com/talgya/tilecity/internal/world"

// Trip walks a path one waypoint per step. A cancelled trip never
// arrives; the traveller checks Canceled at every step.
type Trip struct {
	path     []world.Position
	next     int
	canceled bool
}

// NewTrip starts a trip along path. The first waypoint is the start.
func NewTrip(path []world.Position) *Trip {
	t := &Trip{path: path}
	if len(path) > 0 {
		t.next = 1
	}
	return t
}

// Advance moves up to n waypoints and returns the position reached and
// whether it is the destination.
func (t *Trip) Advance(n int) (world.Position, bool) {
	if len(t.path) == 0 || t.canceled {
		return world.Position{}, false
	}
	for ; n > 0 && t.next < len(t.path); n-- {
		t.next++
	}
	return t.path[t.next-1], t.Done()
}

// Done reports whether the destination has been reached.
func (t *Trip) Done() bool {
	return !t.canceled && len(t.path) > 0 && t.next >= len(t.path)
}

// Cancel abandons the trip.
func (t *Trip) Cancel() { t.canceled = true }

// Canceled reports whether the trip was abandoned.
func (t *Trip) Canceled() bool { return t.canceled }

// Remaining returns the number of waypoints still ahead.
func (t *Trip) Remaining() int {
	return len(t.path) - t.next
}

// Destination returns the last waypoint.
func (t *Trip) Destination() (world.Position, bool) {
	if len(t.path) == 0 {
		return world.Position{}, false
	}
	return t.path[len(t.path)-1], true
}
