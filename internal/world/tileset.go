package world

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// Sockets holds one connector code per direction, indexed by Direction.
// For roads 0 means no connection and 1 means a road leaves that edge.
type Sockets [NumDirections]int

// Rotate returns the socket signature rotated by n quarter turns.
// out[i] = s[(i+n) mod 4]; negative n rotates the other way.
func (s Sockets) Rotate(n int) Sockets {
	var out Sockets
	for i := range s {
		out[i] = s[((i+n)%NumDirections+NumDirections)%NumDirections]
	}
	return out
}

// Key concatenates the four socket values, e.g. "0110".
func (s Sockets) Key() string {
	key := make([]byte, 0, NumDirections*2)
	for _, v := range s {
		key = strconv.AppendInt(key, int64(v), 10)
	}
	return string(key)
}

// RoadType is an index into a TileSet. Each value names one distinct
// socket signature.
type RoadType int

// RoadNone marks a signature with no matching road type.
const RoadNone RoadType = -1

// Road types produced by NewTileSet(DefaultArchetypes()).
const (
	RoadCrossroad RoadType = iota
	RoadEmpty
	RoadRightTurn
	RoadStraight
	RoadTJunctDown
	RoadRightTurn2
	RoadRightTurn3
	RoadRightTurn4
	RoadStraight2
	RoadTJunct2
	RoadTJunct3
	RoadTJunct4
)

// Archetype is a base tile design before rotation.
// Family names the rotated variants (Family2, Family3, ...); Name is used
// when Family is empty.
type Archetype struct {
	Name    string
	Family  string
	Sockets Sockets
}

// DefaultArchetypes returns the road pieces the city map is built from.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{Name: "CROSSROAD", Sockets: Sockets{1, 1, 1, 1}},
		{Name: "EMPTY", Sockets: Sockets{0, 0, 0, 0}},
		{Name: "RIGHT_TURN", Sockets: Sockets{1, 1, 0, 0}},
		{Name: "STRAIGHT", Sockets: Sockets{1, 0, 1, 0}},
		{Name: "T_JUNCT_DOWN", Family: "T_JUNCT", Sockets: Sockets{0, 1, 1, 1}},
	}
}

// Variant is one deduplicated entry of a TileSet.
type Variant struct {
	Name     string
	Sockets  Sockets
	Base     int // index of the archetype it was rotated from
	Rotation int // quarter turns applied to the archetype
}

// TileSet is the deduplicated, analysed set of tile variants a generator
// collapses cells into. RoadType values index Variants.
type TileSet struct {
	variants []Variant
	byKey    map[string]RoadType

	// edges[t][d] holds every type that may sit on side d of type t.
	edges [][NumDirections]mapset.Set[RoadType]
}

// NewTileSet expands every archetype into its four rotations, drops
// rotations whose signature already exists (first occurrence wins), and
// precomputes neighbour compatibility.
func NewTileSet(archetypes []Archetype) (*TileSet, error) {
	if len(archetypes) == 0 {
		return nil, ErrEmptyTileSet
	}

	candidates := make([]Variant, 0, len(archetypes)*5)
	for i, a := range archetypes {
		candidates = append(candidates, Variant{Name: a.Name, Sockets: a.Sockets, Base: i})
	}
	for i, a := range archetypes {
		for n := 1; n <= NumDirections; n++ {
			candidates = append(candidates, Variant{
				Sockets:  a.Sockets.Rotate(n),
				Base:     i,
				Rotation: n,
			})
		}
	}

	ts := &TileSet{byKey: make(map[string]RoadType)}
	familyCount := make(map[int]int)
	for _, v := range candidates {
		key := v.Sockets.Key()
		if _, dup := ts.byKey[key]; dup {
			continue
		}
		if v.Rotation > 0 {
			a := archetypes[v.Base]
			family := a.Family
			if family == "" {
				family = a.Name
			}
			familyCount[v.Base]++
			v.Name = fmt.Sprintf("%s%d", family, familyCount[v.Base]+1)
		}
		ts.byKey[key] = RoadType(len(ts.variants))
		ts.variants = append(ts.variants, v)
	}

	ts.analyse()
	return ts, nil
}

// MustDefaultTileSet returns the tile set for DefaultArchetypes. It is built
// once and shared; tile sets are read-only after construction.
func MustDefaultTileSet() *TileSet {
	return defaultTileSet()
}

var defaultTileSet = sync.OnceValue(func() *TileSet {
	ts, err := NewTileSet(DefaultArchetypes())
	if err != nil {
		panic(err)
	}
	return ts
})

// analyse records, for each type and direction, the types whose opposite
// socket matches.
func (ts *TileSet) analyse() {
	ts.edges = make([][NumDirections]mapset.Set[RoadType], len(ts.variants))
	for t, v := range ts.variants {
		for _, d := range Directions {
			allowed := mapset.New[RoadType]()
			for u, other := range ts.variants {
				if other.Sockets[d.Opposite()] == v.Sockets[d] {
					allowed.Put(RoadType(u))
				}
			}
			ts.edges[t][d] = allowed
		}
	}
}

// Len returns the number of distinct road types.
func (ts *TileSet) Len() int {
	return len(ts.variants)
}

// Variants returns a copy of the variant table in RoadType order.
func (ts *TileSet) Variants() []Variant {
	out := make([]Variant, len(ts.variants))
	copy(out, ts.variants)
	return out
}

// Sockets returns the signature of t.
func (ts *TileSet) Sockets(t RoadType) Sockets {
	return ts.variants[t].Sockets
}

// Name returns a readable name for t.
func (ts *TileSet) Name(t RoadType) string {
	if t < 0 || int(t) >= len(ts.variants) {
		return "NONE"
	}
	return ts.variants[t].Name
}

// TypeOf returns the road type with signature s, or RoadNone.
func (ts *TileSet) TypeOf(s Sockets) RoadType {
	if t, ok := ts.byKey[s.Key()]; ok {
		return t
	}
	return RoadNone
}

// Allowed returns the types that may sit on side d of t.
// The returned set is shared; callers must not modify it.
func (ts *TileSet) Allowed(t RoadType, d Direction) mapset.Set[RoadType] {
	return ts.edges[t][d]
}

// all returns a fresh set holding every road type.
func (ts *TileSet) all() mapset.Set[RoadType] {
	s := mapset.New[RoadType]()
	for t := range ts.variants {
		s.Put(RoadType(t))
	}
	return s
}

// sortedTypes returns the members of s in ascending order.
func sortedTypes(s mapset.Set[RoadType]) []RoadType {
	out := make([]RoadType, 0, s.Size())
	s.Each(func(t RoadType) {
		out = append(out, t)
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
