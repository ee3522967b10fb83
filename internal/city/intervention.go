package city

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/agents"
	"github.com/talgya/tilecity/internal/economy"
)

var (
	ErrUnknownEntity     = errors.New("unknown entity")
	ErrInsufficientMoney = errors.New("insufficient treasury money")
)

// Demolish removes the house, company or shop with the given ID. A
// demolished house takes its resident with it; a closed company lays off
// its workers. Callers must hold the write lock (see Update).
func (c *City) Demolish(id uuid.UUID) (string, error) {
	if i := slices.IndexFunc(c.Houses, func(h *economy.House) bool { return h.ID == id }); i >= 0 {
		h := c.Houses[i]
		owner, _ := h.Owner().(*agents.Citizen)
		h.Destroy()
		c.Houses = slices.Delete(c.Houses, i, i+1)
		delete(c.houseLevels, id)
		if owner != nil {
			c.Citizens = slices.DeleteFunc(c.Citizens, func(ct *agents.Citizen) bool { return ct == owner })
		}
		return c.demolished(fmt.Sprintf("House at %s was demolished", h.Position)), nil
	}

	if i := slices.IndexFunc(c.Companies, func(co *economy.Company) bool { return co.ID == id }); i >= 0 {
		co := c.Companies[i]
		laidOff := co.Workers()
		c.Market.RemoveCompany(co)
		co.Destroy()
		c.Companies = slices.Delete(c.Companies, i, i+1)
		return c.demolished(fmt.Sprintf("Company at %s closed, %d workers laid off", co.Position, laidOff)), nil
	}

	if i := slices.IndexFunc(c.Shops, func(s *economy.Shop) bool { return s.ID == id }); i >= 0 {
		s := c.Shops[i]
		c.Market.RemoveShop(s)
		s.Destroy()
		for _, ct := range c.Citizens {
			ct.ShopClosed(s)
		}
		c.Shops = slices.Delete(c.Shops, i, i+1)
		return c.demolished(fmt.Sprintf("Shop at %s closed", s.Position)), nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownEntity, id)
}

func (c *City) demolished(desc string) string {
	c.Emit("admin", desc)
	c.updateStats()
	slog.Info("demolition", "description", desc)
	return desc
}

// ToggleDevelopmentTarget switches the development share between treasury
// funds and debt repayment.
func (c *City) ToggleDevelopmentTarget() string {
	target := "development funds"
	if c.Debt.ToggleDevelopmentTarget() {
		target = "debt repayment"
	}
	desc := "Development share now goes to " + target
	c.Emit("admin", desc)
	slog.Info("development target changed", "target", target)
	return desc
}

// FundDevelopment moves amount from the treasury's main account into its
// development funds.
func (c *City) FundDevelopment(amount int) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("amount must be positive, got %d", amount)
	}
	if !c.Treasury.RemoveMoney(amount) {
		return "", fmt.Errorf("%w: have %d, need %d", ErrInsufficientMoney, c.Treasury.Money(), amount)
	}
	c.Treasury.AddFunds(amount)
	desc := fmt.Sprintf("%s moved into development funds", humanize.Comma(int64(amount)))
	c.Emit("admin", desc)
	c.updateStats()
	slog.Info("development funded", "amount", amount)
	return desc, nil
}
