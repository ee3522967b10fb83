package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tilecity/internal/engine"
)

func testHouseConfig(resources int) HouseConfig {
	return HouseConfig{
		Resources:        resources,
		DecayRate:        4,
		DecayIncrease:    1,
		Rent:             30,
		RentIncrease:     10,
		Capacity:         20,
		CapacityIncrease: 5,
		Level:            1,
		MaxLevel:         3,
	}
}

type houseFixture struct {
	eng      *engine.Engine
	treasury *Treasury
	debt     *DebtManager
	house    *House
	owner    *resident
}

func newHouseFixture(t *testing.T, resources, money int) *houseFixture {
	t.Helper()
	eng := engine.NewEngine(engine.DefaultConfig())
	tr := NewTreasury(0)
	debt := NewDebtManager(eng, tr, DebtConfig{MinTax: 0.1, MaxTax: 0.4, Ceiling: 1000})
	h := NewHouse(eng, tr, debt, testHouseConfig(resources), origin, origin)
	owner := newResident(money)
	h.SetOwner(owner)
	h.SetOwner(newResident(0))
	require.Same(t, owner, h.Owner())
	return &houseFixture{eng: eng, treasury: tr, debt: debt, house: h, owner: owner}
}

func (f *houseFixture) week() {
	for i := 0; i < 24*7; i++ {
		f.eng.Step()
	}
}

func TestHouseLevelsUpAfterGoodWeek(t *testing.T) {
	f := newHouseFixture(t, 100, 1000)
	f.week()

	assert.Equal(t, 72, f.house.Resources())
	assert.Equal(t, 30, f.treasury.Money(), "rent collected before review")
	assert.Equal(t, 970, f.owner.Money())
	assert.Equal(t, 2, f.house.Level())
	assert.Equal(t, 40, f.house.Rent())
	assert.Equal(t, 25, f.house.Capacity())
	assert.Equal(t, 5, f.house.DecayRate())
	assert.Zero(t, f.house.Depletions(), "weekly counters reset")
}

func TestHouseLevelsDownAfterRunningOut(t *testing.T) {
	f := newHouseFixture(t, 10, 1000)

	// 10 -> 6 -> 2 -> 0, then four empty days.
	for i := 0; i < 24*6; i++ {
		f.eng.Step()
	}
	assert.True(t, f.house.RanOut())
	assert.Equal(t, 4, f.house.Depletions())

	for i := 0; i < 24; i++ {
		f.eng.Step()
	}
	assert.Zero(t, f.house.Level())
	assert.Equal(t, 20, f.house.Rent())
	assert.Equal(t, 15, f.house.Capacity())
	assert.False(t, f.house.RanOut())
}

func TestUnpaidRentBecomesDebt(t *testing.T) {
	f := newHouseFixture(t, 100, 12)
	f.week()

	assert.Equal(t, 12, f.treasury.Money())
	assert.InDelta(t, 18, f.debt.Debt(), 1e-9)
	assert.Equal(t, 1, f.house.Level(), "owner could not afford the next level")
}

func TestHouseResourcesAndDestroy(t *testing.T) {
	f := newHouseFixture(t, 5, 0)
	assert.Equal(t, 15, f.house.Wanted())
	f.house.AddResources(-3)
	f.house.AddResources(20)
	assert.Equal(t, 25, f.house.Resources())
	assert.Zero(t, f.house.Wanted())

	v := f.house.AskForValues()
	assert.Equal(t, "25", v["Resources"])
	assert.Equal(t, "50.00%", v["Home Owner Happiness"])

	f.house.Destroy()
	assert.False(t, f.eng.Subscribed(engine.KindDay, engine.KeyFor(f.house.ID, "decay")))
	assert.False(t, f.eng.Subscribed(engine.KindWeek, engine.KeyFor(f.house.ID, "rent")))
	assert.False(t, f.eng.Subscribed(engine.KindWeek, engine.KeyFor(f.house.ID, "review")))
}

func TestHappinessComponents(t *testing.T) {
	w := HappinessWeights{Wage: 40, Tax: 20, Resource: 20, HouseLevel: 20}
	in := HappinessInputs{
		Earnings:      200,
		Rent:          50,
		Tax:           0.1,
		MinTax:        0.1,
		MaxTax:        0.4,
		ItemsToBuy:    2,
		AvgShopPrice:  10,
		Depletions:    0,
		HouseLevel:    1,
		MaxHouseLevel: 2,
	}
	// Wage: 200 - (50 + 20 + 20) = 110 left, capped at one rent: 1.
	assert.InDelta(t, 40+20+20+10, Happiness(w, in), 1e-9)

	in.Tax = 0.25
	in.Depletions = 7
	in.Earnings = 0
	// Tax halfway between min and max; no resources; no wage.
	assert.InDelta(t, 10+0+10, Happiness(w, in), 1e-9)

	in.Earnings = 100
	// 100 - (50 + 25 + 20) = 5 left: 5/50 of the wage weight.
	assert.InDelta(t, 4+10+0+10, Happiness(w, in), 1e-9)
}
