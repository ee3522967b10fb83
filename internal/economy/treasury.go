package economy

import (
	"github.com/dustin/go-humanize"
)

// Treasury is the player's purse. Money pays for construction and
// receives rent; Funds is the tax account that pays for business
// development. Neither account is taxed.
type Treasury struct {
	main  *Wallet
	funds *Wallet
}

// NewTreasury creates a treasury holding starting money.
func NewTreasury(starting int) *Treasury {
	t := &Treasury{
		main:  NewWallet(nil),
		funds: NewWallet(nil),
	}
	t.main.AddMoney(starting)
	t.main.ResetWeeklyCount()
	return t
}

// Money returns the main balance.
func (t *Treasury) Money() int { return t.main.Money() }

// Funds returns the development balance.
func (t *Treasury) Funds() int { return t.funds.Money() }

// AddMoney credits the main account.
func (t *Treasury) AddMoney(amount int) { t.main.AddMoney(amount) }

// RemoveMoney debits the main account if it holds enough.
func (t *Treasury) RemoveMoney(amount int) bool {
	return t.main.ResetWeeklyCount().RemoveMoney(amount)
}

// AddFunds credits the development account.
func (t *Treasury) AddFunds(amount int) { t.funds.AddMoney(amount) }

// RemoveFunds debits the development account if it holds enough.
func (t *Treasury) RemoveFunds(amount int) bool {
	return t.funds.ResetWeeklyCount().RemoveMoney(amount)
}

func (t *Treasury) AskForValues() map[string]string {
	return map[string]string{
		"Name":  "Treasury",
		"Money": humanize.Comma(int64(t.Money())),
		"Funds": humanize.Comma(int64(t.Funds())),
	}
}
