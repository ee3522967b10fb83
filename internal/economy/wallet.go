// Package economy models the city's money: citizen wallets, the player's
// treasury, public debt and tax, and the businesses and houses that move
// money between them on the engine's clock.
package economy

import (
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/engine"
)

// Scheduler is the part of the engine entities subscribe through.
type Scheduler interface {
	Subscribe(kind engine.Kind, key engine.Key, fn engine.Callback)
	Unsubscribe(kind engine.Kind, key engine.Key)
}

// TaxRate reports the current weekly tax on earned income.
type TaxRate interface {
	Tax() float64
}

// Entity is anything that carries a wallet and can visit a business.
type Entity interface {
	EntityID() uuid.UUID
	Wallet() *Wallet
}

// Inspectable entities expose a display snapshot of their state.
type Inspectable interface {
	AskForValues() map[string]string
}

// Wallet holds money and tracks how much of it was earned this week.
// Earned money is taxed at the end of the week, so it is held back from
// the spendable budget.
type Wallet struct {
	money   int
	taxable int
	rates   TaxRate // nil means untaxed
}

// NewWallet creates an empty wallet taxed at rates.
func NewWallet(rates TaxRate) *Wallet {
	return &Wallet{rates: rates}
}

// Money returns the wallet balance.
func (w *Wallet) Money() int { return w.money }

// Taxable returns the money earned since the last weekly reset.
func (w *Wallet) Taxable() int { return w.taxable }

// Budget is the balance minus the tax owed on this week's earnings.
func (w *Wallet) Budget() int {
	if w.rates == nil {
		return w.money
	}
	return w.money - int(float64(w.taxable)*w.rates.Tax())
}

// AddMoney credits a payment. Non-positive payments are ignored.
func (w *Wallet) AddMoney(payment int) {
	if payment <= 0 {
		return
	}
	w.taxable += payment
	w.money += payment
}

// RemoveMoney debits cost if the budget covers it.
func (w *Wallet) RemoveMoney(cost int) bool {
	if cost > w.Budget() {
		return false
	}
	w.money -= cost
	return true
}

// ResetWeeklyCount clears this week's taxable earnings.
func (w *Wallet) ResetWeeklyCount() *Wallet {
	w.taxable = 0
	return w
}
