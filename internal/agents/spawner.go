// Citizen spawning: moves one resident into every empty house with a
// generated name and a little starting money.
package agents

import (
	"math/rand"

	"github.com/talgya/tilecity/internal/economy"
)

// Spawner creates citizens for the city.
type Spawner struct {
	rng  *rand.Rand
	deps Deps
	cfg  Config
}

// NewSpawner creates a citizen spawner with the given seed.
func NewSpawner(seed int64, deps Deps, cfg Config) *Spawner {
	return &Spawner{
		rng:  rand.New(rand.NewSource(seed + 300)),
		deps: deps,
		cfg:  cfg,
	}
}

// SpawnResidents moves a citizen into every house that has no owner and
// returns the new citizens in house order.
func (s *Spawner) SpawnResidents(houses []*economy.House) []*Citizen {
	citizens := make([]*Citizen, 0, len(houses))
	for _, h := range houses {
		if h.Owner() != nil {
			continue
		}
		citizens = append(citizens, s.SpawnOne(h))
	}
	return citizens
}

// SpawnOne moves a single citizen into h.
func (s *Spawner) SpawnOne(h *economy.House) *Citizen {
	cfg := s.cfg
	cfg.StartingMoney = s.startingMoney()
	return NewCitizen(s.generateName(), h, s.deps, cfg)
}

// Starting money varies by up to half the configured amount either way.
func (s *Spawner) startingMoney() int {
	base := s.cfg.StartingMoney
	spread := base / 2
	if spread <= 0 {
		return max(base, 0)
	}
	return base - spread + s.rng.Intn(2*spread+1)
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var firstNames = []string{
	"Ada", "Bruno", "Clara", "Dmitri", "Elena", "Felix", "Greta",
	"Hiro", "Ines", "Jonas", "Kaia", "Luca", "Maya", "Noor",
	"Otto", "Paula", "Rafael", "Sofia", "Tomas", "Uma", "Viktor",
	"Wanda", "Yusuf", "Zoe",
}

var lastNames = []string{
	"Baker", "Carter", "Fischer", "Gallo", "Hayes", "Jansen", "Keller",
	"Lindqvist", "Moreau", "Novak", "Ortega", "Petrov", "Quinlan",
	"Rossi", "Sato", "Tanaka", "Vargas", "Weber", "Young", "Zimmer",
}
