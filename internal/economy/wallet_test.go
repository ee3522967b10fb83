package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tilecity/internal/engine"
)

type fixedTax float64

func (f fixedTax) Tax() float64 { return float64(f) }

func TestWalletBudgetHoldsBackTax(t *testing.T) {
	w := NewWallet(fixedTax(0.2))
	w.AddMoney(100)

	assert.Equal(t, 100, w.Money())
	assert.Equal(t, 100, w.Taxable())
	assert.Equal(t, 80, w.Budget())

	assert.False(t, w.RemoveMoney(81))
	assert.True(t, w.RemoveMoney(80))
	assert.Equal(t, 20, w.Money())
	assert.Zero(t, w.Budget())

	w.ResetWeeklyCount()
	assert.Equal(t, 20, w.Budget())
}

func TestWalletIgnoresNonPositivePayments(t *testing.T) {
	w := NewWallet(nil)
	w.AddMoney(0)
	w.AddMoney(-5)
	assert.Zero(t, w.Money())
	assert.Zero(t, w.Taxable())
}

func TestTreasuryAccounts(t *testing.T) {
	tr := NewTreasury(500)
	assert.Equal(t, 500, tr.Money())
	assert.Zero(t, tr.Funds())

	tr.AddFunds(30)
	assert.True(t, tr.RemoveFunds(20))
	assert.False(t, tr.RemoveFunds(20))
	assert.Equal(t, 10, tr.Funds())

	tr.AddMoney(50)
	assert.True(t, tr.RemoveMoney(550), "treasury money is untaxed")
	assert.Zero(t, tr.Money())

	v := tr.AskForValues()
	assert.Equal(t, "0", v["Money"])
	assert.Equal(t, "10", v["Funds"])
}

func newDebtManager(t *testing.T) (*engine.Engine, *Treasury, *DebtManager) {
	t.Helper()
	eng := engine.NewEngine(engine.DefaultConfig())
	tr := NewTreasury(0)
	d := NewDebtManager(eng, tr, DebtConfig{MinTax: 0.1, MaxTax: 0.35, Ceiling: 1000})
	require.InDelta(t, 0.1, d.Tax(), 1e-9)
	return eng, tr, d
}

func TestReviewTaxScalesWithDebt(t *testing.T) {
	_, _, d := newDebtManager(t)

	d.AddToDebt(500)
	d.ReviewTax()
	assert.InDelta(t, 0.25, d.Tax(), 1e-9)

	d.AddToDebt(5000)
	d.ReviewTax()
	assert.InDelta(t, 0.35, d.Tax(), 1e-9, "capped at max")
}

func TestPayOffDebtSplitsDevelopmentShare(t *testing.T) {
	_, tr, d := newDebtManager(t)
	d.AddToDebt(100)
	d.ReviewTax() // 0.1 + 0.3*0.1 = 0.13

	owed := d.PayOffDebt(1000)
	// 130 total: 100 development, 30 debt.
	assert.InDelta(t, 130, owed, 1e-9)
	assert.InDelta(t, 70, d.Debt(), 1e-9)
	assert.Equal(t, 100, tr.Funds())
}

func TestPayOffDebtNeverOverpays(t *testing.T) {
	_, tr, d := newDebtManager(t)
	d.AddToDebt(10)
	d.ReviewTax()

	// 1030 taxed; 30 would go to debt but only 10 is owed.
	owed := d.PayOffDebt(10000)
	assert.InDelta(t, 1010, owed, 1e-9)
	assert.Zero(t, d.Debt())
	assert.Equal(t, 1000, tr.Funds())
}

func TestPayOffDebtRedirectsDevelopment(t *testing.T) {
	_, tr, d := newDebtManager(t)
	d.AddToDebt(1000)
	d.ReviewTax() // 0.4 capped to 0.35
	require.True(t, d.ToggleDevelopmentTarget())

	owed := d.PayOffDebt(100)
	// 35 total, all of it to debt.
	assert.InDelta(t, 35, owed, 1e-9)
	assert.InDelta(t, 965, d.Debt(), 1e-9)
	assert.Zero(t, tr.Funds())
}

func TestWeeklyReviewBeforeCollection(t *testing.T) {
	eng, _, d := newDebtManager(t)
	d.AddToDebt(1000)

	var seen []float64
	d.SignUp("citizen", func() { seen = append(seen, d.Tax()) })
	d.SignUp("citizen", func() { seen = append(seen, -1) })
	assert.Equal(t, 1, d.Taxpayers())

	for i := 0; i < 24*7; i++ {
		eng.Step()
	}
	require.Len(t, seen, 1)
	assert.InDelta(t, 0.35, seen[0], 1e-9, "taxpayers see the reviewed rate")

	d.CancelSignUp("citizen")
	d.CancelSignUp("citizen")
	assert.Zero(t, d.Taxpayers())
}
