package economy

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/world"
)

// HomeOwner is the resident a house charges rent to.
type HomeOwner interface {
	// PayRent pays as much of amount as the owner can and returns it.
	PayRent(amount int) int
	Money() int
	Happiness() float64
	Destroy()
}

// HouseConfig holds a house's starting values and per-level changes.
type HouseConfig struct {
	Resources        int `yaml:"resources" json:"resources"`
	DecayRate        int `yaml:"decay_rate" json:"decay_rate"` // Resources used per day
	DecayIncrease    int `yaml:"decay_increase" json:"decay_increase"`
	Rent             int `yaml:"rent" json:"rent"` // Per week
	RentIncrease     int `yaml:"rent_increase" json:"rent_increase"`
	Capacity         int `yaml:"capacity" json:"capacity"`
	CapacityIncrease int `yaml:"capacity_increase" json:"capacity_increase"`
	Level            int `yaml:"level" json:"level"`
	MaxLevel         int `yaml:"max_level" json:"max_level"`
}

// House stores a household's resources and charges rent. Resources decay
// daily; each week rent is collected and then the house levels up or down.
type House struct {
	ID       uuid.UUID      `json:"id"`
	Position world.Position `json:"position"`
	Access   world.Position `json:"access"`

	resources        int
	decayRate        int
	decayIncrease    int
	rent             int
	rentIncrease     int
	capacity         int
	capacityIncrease int
	level            int
	maxLevel         int

	depletions int  // Days this week the house was empty
	ranOut     bool // Resources hit zero this week

	owner    HomeOwner
	treasury *Treasury
	debt     *DebtManager
	sched    Scheduler
}

// NewHouse creates a house and subscribes it to the engine. Rent is
// registered before the status review so rent is always taken first.
func NewHouse(sched Scheduler, treasury *Treasury, debt *DebtManager, cfg HouseConfig, pos, access world.Position) *House {
	h := &House{
		ID:               uuid.New(),
		Position:         pos,
		Access:           access,
		resources:        cfg.Resources,
		decayRate:        cfg.DecayRate,
		decayIncrease:    cfg.DecayIncrease,
		rent:             cfg.Rent,
		rentIncrease:     cfg.RentIncrease,
		capacity:         cfg.Capacity,
		capacityIncrease: cfg.CapacityIncrease,
		level:            cfg.Level,
		maxLevel:         cfg.MaxLevel,
		treasury:         treasury,
		debt:             debt,
		sched:            sched,
	}
	sched.Subscribe(engine.KindDay, engine.KeyFor(h.ID, "decay"), h.decay)
	sched.Subscribe(engine.KindWeek, engine.KeyFor(h.ID, "rent"), h.collectRent)
	sched.Subscribe(engine.KindWeek, engine.KeyFor(h.ID, "review"), h.reviewStatus)
	return h
}

// SetOwner links the resident. Only the first owner is kept.
func (h *House) SetOwner(o HomeOwner) {
	if h.owner != nil {
		return
	}
	h.owner = o
}

// Owner returns the resident, if any.
func (h *House) Owner() HomeOwner { return h.owner }

// AddResources stores delivered goods.
func (h *House) AddResources(n int) {
	if n <= 0 {
		return
	}
	h.resources += n
}

func (h *House) Resources() int { return h.resources }
func (h *House) DecayRate() int { return h.decayRate }
func (h *House) Rent() int { return h.rent }
func (h *House) Capacity() int { return h.capacity }
func (h *House) Level() int { return h.level }
func (h *House) MaxLevel() int { return h.maxLevel }
func (h *House) Depletions() int { return h.depletions }
func (h *House) RanOut() bool { return h.ranOut }

// Wanted is how many items the house can still store.
func (h *House) Wanted() int {
	return max(h.capacity-h.resources, 0)
}

func (h *House) decay() {
	switch {
	case h.resources > h.decayRate:
		h.resources -= h.decayRate
	case h.resources > 0:
		h.resources = 0
		h.ranOut = true
		h.depletions++
	default:
		h.depletions++
	}
}

// collectRent moves the week's rent to the treasury. Whatever the owner
// cannot pay becomes public debt.
func (h *House) collectRent() {
	if h.owner == nil {
		return
	}
	paid := h.owner.PayRent(h.rent)
	h.treasury.AddMoney(paid)
	if paid < h.rent {
		h.debt.AddToDebt(float64(h.rent - paid))
	}
}

// reviewStatus levels the house up after a good week and down after a
// week with two or more empty days.
func (h *House) reviewStatus() {
	switch {
	case h.owner != nil && !h.ranOut && h.owner.Money() >= h.rent && h.level < h.maxLevel:
		h.changeLevel(1)
	case h.depletions >= 2 && h.level > 0:
		h.changeLevel(-1)
	}
	h.ranOut = false
	h.depletions = 0
}

func (h *House) changeLevel(delta int) {
	delta = clamp(delta, -1, 1)
	h.level += delta
	h.decayRate += h.decayIncrease * delta
	h.capacity += h.capacityIncrease * delta
	h.rent += h.rentIncrease * delta
}

// Destroy unsubscribes the house and removes its resident.
func (h *House) Destroy() {
	h.sched.Unsubscribe(engine.KindDay, engine.KeyFor(h.ID, "decay"))
	h.sched.Unsubscribe(engine.KindWeek, engine.KeyFor(h.ID, "rent"))
	h.sched.Unsubscribe(engine.KindWeek, engine.KeyFor(h.ID, "review"))
	if h.owner != nil {
		h.owner.Destroy()
	}
}

func (h *House) AskForValues() map[string]string {
	v := map[string]string{
		"Name":              "House",
		"Level":             fmt.Sprint(h.level),
		"MaxLevel":          fmt.Sprint(h.maxLevel),
		"Resources":         humanize.Comma(int64(h.resources)),
		"Resource Capacity": humanize.Comma(int64(h.capacity)),
		"Rent":              humanize.Comma(int64(h.rent)),
	}
	if h.owner != nil {
		v["Home Owner Money"] = humanize.Comma(int64(h.owner.Money()))
		v["Home Owner Happiness"] = fmt.Sprintf("%.2f%%", h.owner.Happiness())
	}
	return v
}
