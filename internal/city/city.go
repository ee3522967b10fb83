// Package city ties the generated road map, the economy and the citizens
// together and drives them from one engine.
package city

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/economy"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/pathfind"
	"github.com/talgya/tilecity/internal/world"
)

// ErrNoPlots is returned when the map has no building plot beside a road.
var ErrNoPlots = errors.New("no building plots")

// Config sizes the city and holds the starting terms of every entity.
type Config struct {
	Houses    int `yaml:"houses"`
	Companies int `yaml:"companies"`
	Shops     int `yaml:"shops"`

	StartingMoney     int `yaml:"starting_money"` // Treasury main account
	StartingFunds     int `yaml:"starting_funds"` // Treasury development funds
	JobSuccessPercent int `yaml:"job_success_percent"`
	ExpPerShift       int `yaml:"exp_per_shift"`
	ExpPerSale        int `yaml:"exp_per_sale"`

	Land    world.LandConfig      `yaml:"land"`
	Engine  engine.Config         `yaml:"engine"`
	Debt    economy.DebtConfig    `yaml:"debt"`
	House   economy.HouseConfig   `yaml:"house"`
	Company economy.CompanyConfig `yaml:"company"`
	Shop    economy.ShopConfig    `yaml:"shop"`
	Citizen agents.Config         `yaml:"citizen"`
}

// DefaultConfig returns a small, balanced city.
func DefaultConfig() Config {
	return Config{
		Houses:            24,
		Companies:         4,
		Shops:             3,
		StartingMoney:     1000,
		StartingFunds:     500,
		JobSuccessPercent: 50,
		ExpPerShift:       2,
		ExpPerSale:        1,
		Land:              world.DefaultLandConfig(),
		Engine:            engine.DefaultConfig(),
		Debt:              economy.DebtConfig{MinTax: 0.1, MaxTax: 0.4, Ceiling: 5000},
		House: economy.HouseConfig{
			Resources:        20,
			DecayRate:        3,
			DecayIncrease:    1,
			Rent:             30,
			RentIncrease:     15,
			Capacity:         30,
			CapacityIncrease: 10,
			Level:            0,
			MaxLevel:         3,
		},
		Company: economy.CompanyConfig{
			BusinessConfig:   economy.BusinessConfig{MaxLevel: 3, ExpRequired: 100, ExpMultiplier: 1.5},
			Capacity:         6,
			CapacityIncrease: 3,
			Pay:              25,
			PayIncrease:      5,
		},
		Shop: economy.ShopConfig{
			BusinessConfig: economy.BusinessConfig{MaxLevel: 3, ExpRequired: 80, ExpMultiplier: 1.5},
			StockPerWeek:   60,
			StockIncrease:  30,
			Price:          4,
		},
		Citizen: agents.Config{
			Speed:         1,
			StartingMoney: 150,
			Weights:       economy.HappinessWeights{Wage: 40, Tax: 20, Resource: 25, HouseLevel: 15},
		},
	}
}

// Option customises a City.
type Option func(*City)

// WithRecorder journals weekly reports and events.
func WithRecorder(r Recorder) Option {
	return func(c *City) {
		c.recorder = r
	}
}

// WithEngineOptions passes extra options to the city's engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *City) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// City holds the complete simulation state. The engine holds mu for every
// step; readers go through View.
type City struct {
	mu sync.RWMutex

	Map    *world.Map
	Land   *world.LandValue
	Gen    world.GenStats
	Engine *engine.Engine

	Treasury *economy.Treasury
	Debt     *economy.DebtManager
	Market   *agents.Market
	Router   *pathfind.Finder

	Houses    []*economy.House
	Companies []*economy.Company
	Shops     []*economy.Shop
	Citizens  []*agents.Citizen

	Events []Event
	Stats  Stats

	cfg        Config
	recorder   Recorder
	listeners  []func(Summary)
	engineOpts []engine.Option
	pending    []Event // Not yet journalled

	houseLevels map[uuid.UUID]int
}

// New builds a city on m: plots are placed by land value and filled with
// houses, companies and shops, then one citizen moves into every house.
func New(m *world.Map, gen world.GenStats, cfg Config, opts ...Option) (*City, error) {
	c := &City{
		Map:  m,
		Gen:  gen,
		cfg:  cfg,
		Land: world.NewLandValue(m, gen.Seed, cfg.Land),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Engine = engine.NewEngine(cfg.Engine, append([]engine.Option{engine.WithLock(&c.mu)}, c.engineOpts...)...)
	c.Treasury = economy.NewTreasury(cfg.StartingMoney)
	c.Treasury.AddFunds(cfg.StartingFunds)
	c.Debt = economy.NewDebtManager(c.Engine, c.Treasury, cfg.Debt)
	c.Market = agents.NewMarket(rand.New(rand.NewSource(gen.Seed+100)), cfg.JobSuccessPercent)
	c.Router = pathfind.New(m)

	if err := c.build(); err != nil {
		return nil, err
	}

	deps := agents.Deps{Sched: c.Engine, Debt: c.Debt, Market: c.Market, Router: c.Router}
	c.Citizens = agents.NewSpawner(gen.Seed, deps, cfg.Citizen).SpawnResidents(c.Houses)

	// Registered last so reports see the week's rent and taxes.
	c.Engine.Subscribe(engine.KindDay, "city/daily", c.daily)
	c.Engine.Subscribe(engine.KindWeek, "city/invest", c.invest)
	c.Engine.Subscribe(engine.KindWeek, "city/report", c.weekly)

	c.houseLevels = make(map[uuid.UUID]int, len(c.Houses))
	for _, h := range c.Houses {
		c.houseLevels[h.ID] = h.Level()
	}
	c.updateStats()
	slog.Info("city built",
		"houses", len(c.Houses),
		"companies", len(c.Companies),
		"shops", len(c.Shops),
		"citizens", len(c.Citizens),
	)
	return c, nil
}

// build assigns the best plots round-robin: a house, a company, a shop,
// until every count is met or the plots run out.
func (c *City) build() error {
	want := c.cfg.Houses + c.cfg.Companies + c.cfg.Shops
	plots := world.PlacePlots(c.Map, c.Land, want)
	if len(plots) == 0 {
		return ErrNoPlots
	}
	if len(plots) < want {
		slog.Warn("fewer plots than buildings", "plots", len(plots), "wanted", want)
	}

	rng := rand.New(rand.NewSource(c.Gen.Seed + 200))
	houses, companies, shops := c.cfg.Houses, c.cfg.Companies, c.cfg.Shops
	for i := 0; i < len(plots); {
		if houses > 0 && i < len(plots) {
			c.Houses = append(c.Houses, economy.NewHouse(c.Engine, c.Treasury, c.Debt, c.cfg.House, plots[i].Position, plots[i].Access))
			houses--
			i++
		}
		if companies > 0 && i < len(plots) {
			co := economy.NewCompany(c.Treasury, c.cfg.Company, plots[i].Position, plots[i].Access, rand.New(rand.NewSource(rng.Int63())))
			c.Companies = append(c.Companies, co)
			c.Market.AddCompany(co)
			companies--
			i++
		}
		if shops > 0 && i < len(plots) {
			s := economy.NewShop(c.Engine, c.Treasury, c.cfg.Shop, plots[i].Position, plots[i].Access)
			c.Shops = append(c.Shops, s)
			c.Market.AddShop(s)
			shops--
			i++
		}
		if houses+companies+shops == 0 {
			break
		}
	}
	return nil
}

// View runs fn with the simulation state read-locked.
func (c *City) View(fn func(c *City)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c)
}

// Update runs fn with the simulation state write-locked.
func (c *City) Update(fn func(c *City)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// OnSummary registers fn to receive every daily and weekly summary. fn runs
// on the engine goroutine and must not block.
func (c *City) OnSummary(fn func(Summary)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Citizen looks up a citizen by ID.
func (c *City) Citizen(id uuid.UUID) (*agents.Citizen, bool) {
	for _, ct := range c.Citizens {
		if ct.ID == id {
			return ct, true
		}
	}
	return nil, false
}
