// Package agents provides the citizens who live in the city: where they
// work, shop and sleep, and how they travel between those places.
// Every tick a citizen either advances its current trip or decides on the
// next one: work first, then shopping, then home.
package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/economy"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/pathfind"
	"github.com/talgya/tilecity/internal/world"
)

// Router plans trips across the road network.
type Router interface {
	FindPath(start, end world.Position) ([]world.Position, error)
}

// Activity is what a citizen is doing right now.
type Activity uint8

const (
	ActivityIdle Activity = iota
	ActivityToWork
	ActivityToShop
	ActivityToHome
)

func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivityToWork:
		return "commuting"
	case ActivityToShop:
		return "shopping"
	case ActivityToHome:
		return "going home"
	default:
		return "unknown"
	}
}

// Shopping starts once the house holds less than this many days of
// resources.
const restockDays = 3

// Minimum budget a citizen keeps before it will go shopping.
const shoppingReserve = 10

// Config holds per-citizen tuning.
type Config struct {
	Speed         int                      `yaml:"speed" json:"speed"` // Waypoints per tick
	StartingMoney int                      `yaml:"starting_money" json:"starting_money"`
	Weights       economy.HappinessWeights `yaml:"happiness" json:"happiness"`
}

// Deps are the shared systems a citizen talks to.
type Deps struct {
	Sched  economy.Scheduler
	Debt   *economy.DebtManager
	Market *Market
	Router Router
}

// Citizen lives in one house, works for at most one company and shops for
// its household.
type Citizen struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Position world.Position `json:"position"`

	cfg    Config
	deps   Deps
	wallet *economy.Wallet
	house  *economy.House

	employer  *economy.Company
	workplace Location
	shop      *economy.Shop
	shopAt    Location

	trip     *Trip
	activity Activity
	basket   int

	beenToWork  bool
	workBlocked bool // Workplace unreachable today
	shopBlocked bool // No reachable shop today

	destroyed bool
}

// NewCitizen moves a citizen into house and subscribes it to the engine.
func NewCitizen(name string, house *economy.House, deps Deps, cfg Config) *Citizen {
	c := &Citizen{
		ID:       uuid.New(),
		Name:     name,
		Position: house.Access,
		cfg:      cfg,
		deps:     deps,
		wallet:   economy.NewWallet(deps.Debt),
		house:    house,
	}
	if c.cfg.Speed < 1 {
		c.cfg.Speed = 1
	}
	c.wallet.AddMoney(cfg.StartingMoney)
	c.wallet.ResetWeeklyCount()
	house.SetOwner(c)

	deps.Sched.Subscribe(engine.KindTick, engine.KeyFor(c.ID, "evaluate"), c.Evaluate)
	deps.Sched.Subscribe(engine.KindDay, engine.KeyFor(c.ID, "ready"), c.ReadyToWork)
	deps.Debt.SignUp(engine.KeyFor(c.ID, "taxes"), c.PayTaxes)
	return c
}

// EntityID identifies the citizen to businesses.
func (c *Citizen) EntityID() uuid.UUID { return c.ID }

// Wallet returns the citizen's wallet.
func (c *Citizen) Wallet() *economy.Wallet { return c.wallet }

// House returns the citizen's home.
func (c *Citizen) House() *economy.House { return c.house }

// Employer returns the company the citizen works for, if any.
func (c *Citizen) Employer() *economy.Company { return c.employer }

// Workplace returns where the citizen works.
func (c *Citizen) Workplace() Location { return c.workplace }

// Activity returns what the citizen is doing.
func (c *Citizen) Activity() Activity { return c.activity }

// Basket returns the items carried home.
func (c *Citizen) Basket() int { return c.basket }

// Traveling reports whether a trip is under way.
func (c *Citizen) Traveling() bool { return c.trip != nil }

// BeenToWork reports whether the citizen has worked today.
func (c *Citizen) BeenToWork() bool { return c.beenToWork }

// Money returns the wallet balance.
func (c *Citizen) Money() int { return c.wallet.Money() }

// ItemsToBuy is the space left in the house, less what is already carried.
func (c *Citizen) ItemsToBuy() int {
	return max(c.house.Wanted()-c.basket, 0)
}

// AddToBasket carries bought items.
func (c *Citizen) AddToBasket(n int) {
	if n <= 0 {
		return
	}
	c.basket += n
}

// Evaluate runs once per tick: advance the current trip, otherwise pick
// the next errand.
func (c *Citizen) Evaluate() {
	if c.destroyed {
		return
	}
	if c.trip != nil {
		c.travel()
		return
	}
	if c.goToWork() || c.goShopping() {
		return
	}
	c.goHome()
}

func (c *Citizen) travel() {
	if c.trip.Canceled() {
		c.trip = nil
		c.activity = ActivityIdle
		return
	}
	pos, arrived := c.trip.Advance(c.cfg.Speed)
	c.Position = pos
	if arrived {
		c.trip = nil
		c.arrive()
	}
}

func (c *Citizen) arrive() {
	switch c.activity {
	case ActivityToWork:
		if c.employer != nil {
			c.employer.Work(c)
		}
		c.beenToWork = true
	case ActivityToShop:
		if c.shop != nil {
			c.shop.Sell(c)
		}
		c.shop = nil
		c.shopAt = None()
	case ActivityToHome:
		c.house.AddResources(c.basket)
		c.basket = 0
	}
	c.activity = ActivityIdle
}

// goToWork heads to work if the citizen has not worked today, applying for
// a job first when it has none.
func (c *Citizen) goToWork() bool {
	if c.beenToWork || c.workBlocked {
		return false
	}
	if !c.workplace.IsSome() {
		c.applyForJob()
	}
	dest, ok := c.workplace.Get()
	if !ok {
		return false
	}
	if !c.setTarget(dest, ActivityToWork) {
		c.workBlocked = true
		return false
	}
	return true
}

func (c *Citizen) applyForJob() {
	company, ok := c.deps.Market.FindWork(c)
	if !ok {
		return
	}
	c.employer = company
	c.workplace = Some(company.Access)
	slog.Debug("citizen hired", "citizen", c.Name, "company", company.ID)
}

// goShopping heads to a shop when the house is running low and the budget
// allows.
func (c *Citizen) goShopping() bool {
	if c.shopBlocked || c.ItemsToBuy() <= 0 {
		return false
	}
	if c.house.Resources() >= c.house.DecayRate()*restockDays || c.wallet.Budget() <= shoppingReserve {
		return false
	}
	if !c.shopAt.IsSome() {
		shop, ok := c.deps.Market.FindShop()
		if !ok {
			return false
		}
		c.shop = shop
		c.shopAt = Some(shop.Access)
	}
	dest, _ := c.shopAt.Get()
	if !c.setTarget(dest, ActivityToShop) {
		c.shop = nil
		c.shopAt = None()
		c.shopBlocked = true
		return false
	}
	return true
}

func (c *Citizen) goHome() {
	if c.Position == c.house.Access {
		if c.basket > 0 {
			c.house.AddResources(c.basket)
			c.basket = 0
		}
		return
	}
	c.setTarget(c.house.Access, ActivityToHome)
}

// setTarget plans a trip from the current position. An unreachable target
// leaves the citizen where it is.
func (c *Citizen) setTarget(dest world.Position, activity Activity) bool {
	path, err := c.deps.Router.FindPath(c.Position, dest)
	if err != nil {
		if !errors.Is(err, pathfind.ErrNoPath) && !errors.Is(err, pathfind.ErrNoTile) {
			slog.Warn("citizen route failed", "citizen", c.Name, "error", err)
		}
		slog.Debug("citizen cannot reach destination",
			"citizen", c.Name,
			"from", c.Position,
			"to", dest,
			"activity", activity,
		)
		return false
	}
	c.trip = NewTrip(path)
	c.activity = activity
	return true
}

// ReadyToWork starts a new working day.
func (c *Citizen) ReadyToWork() {
	c.beenToWork = false
	c.workBlocked = false
	c.shopBlocked = false
}

// JobLost clears the workplace when the employer closes.
func (c *Citizen) JobLost(company *economy.Company) {
	if c.employer != company {
		return
	}
	c.employer = nil
	c.workplace = None()
	if c.activity == ActivityToWork && c.trip != nil {
		c.trip.Cancel()
	}
}

// ShopClosed forgets a shop that was removed from the market.
func (c *Citizen) ShopClosed(shop *economy.Shop) {
	if c.shop != shop {
		return
	}
	c.shop = nil
	c.shopAt = None()
	if c.activity == ActivityToShop && c.trip != nil {
		c.trip.Cancel()
	}
}

// PayRent pays as much of amount as the budget allows.
func (c *Citizen) PayRent(amount int) int {
	payment := min(amount, max(c.wallet.Budget(), 0))
	if !c.wallet.RemoveMoney(payment) {
		return 0
	}
	return payment
}

// PayTaxes settles the week's tax on earnings. Whatever the budget cannot
// cover goes back onto the public debt.
func (c *Citizen) PayTaxes() {
	owed := c.deps.Debt.PayOffDebt(float64(c.wallet.Taxable()))
	w := c.wallet.ResetWeeklyCount()
	paid := min(int(owed), max(w.Budget(), 0))
	if !w.RemoveMoney(paid) {
		paid = 0
	}
	if unpaid := owed - float64(paid); unpaid > 0 {
		c.deps.Debt.AddToDebt(unpaid)
		slog.Debug("taxes unpaid", "citizen", c.Name, "owed", owed, "paid", paid)
	}
}

// Happiness scores the citizen's week in [0, 100].
func (c *Citizen) Happiness() float64 {
	return economy.Happiness(c.cfg.Weights, economy.HappinessInputs{
		Earnings:      c.wallet.Taxable(),
		Rent:          c.house.Rent(),
		Tax:           c.deps.Debt.Tax(),
		MinTax:        c.deps.Debt.MinTax(),
		MaxTax:        c.deps.Debt.MaxTax(),
		ItemsToBuy:    c.ItemsToBuy(),
		AvgShopPrice:  c.deps.Market.AverageShopPrice(),
		Depletions:    c.house.Depletions(),
		HouseLevel:    c.house.Level(),
		MaxHouseLevel: c.house.MaxLevel(),
	})
}

// Destroy removes the citizen from the simulation. A trip in progress is
// cancelled.
func (c *Citizen) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.trip != nil {
		c.trip.Cancel()
	}
	c.deps.Sched.Unsubscribe(engine.KindTick, engine.KeyFor(c.ID, "evaluate"))
	c.deps.Sched.Unsubscribe(engine.KindDay, engine.KeyFor(c.ID, "ready"))
	c.deps.Debt.CancelSignUp(engine.KeyFor(c.ID, "taxes"))
	if c.employer != nil {
		c.employer.Quit(c)
		c.employer = nil
	}
	c.workplace = None()
}

// Destroyed reports whether the citizen has been removed.
func (c *Citizen) Destroyed() bool { return c.destroyed }

func (c *Citizen) AskForValues() map[string]string {
	return map[string]string{
		"Name":      c.Name,
		"Money":     humanize.Comma(int64(c.wallet.Money())),
		"Budget":    humanize.Comma(int64(c.wallet.Budget())),
		"Activity":  c.activity.String(),
		"Workplace": c.workplace.String(),
		"Happiness": fmt.Sprintf("%.2f%%", c.Happiness()),
	}
}
