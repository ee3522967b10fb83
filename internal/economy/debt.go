package economy

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/engine"
)

// Portion of every taxed payment that goes to development funds.
const developmentShare = 0.1

// Extra tax charged at full debt, on top of the minimum.
const debtTaxSpread = 0.3

// DebtConfig holds the tax policy.
type DebtConfig struct {
	MinTax  float64 `yaml:"min_tax" json:"min_tax"`
	MaxTax  float64 `yaml:"max_tax" json:"max_tax"`
	Ceiling float64 `yaml:"debt_ceiling" json:"debt_ceiling"` // Debt at which tax is highest
}

// DebtManager tracks public debt and sets the weekly tax from it. Each
// week it reviews the tax, then collects from every signed-up taxpayer.
type DebtManager struct {
	debt     float64
	tax      float64
	cfg      DebtConfig
	treasury *Treasury

	// Development cost pays off debt instead of going to funds.
	devCostPaysOffDebt bool

	taxpayers *engine.Registry
	sched     Scheduler
}

const (
	keyDebtReview  engine.Key = "debt/review"
	keyDebtCollect engine.Key = "debt/collect"
)

// NewDebtManager creates a debt manager and subscribes it to the weekly
// boundary.
func NewDebtManager(sched Scheduler, treasury *Treasury, cfg DebtConfig) *DebtManager {
	d := &DebtManager{
		tax:       cfg.MinTax,
		cfg:       cfg,
		treasury:  treasury,
		taxpayers: engine.NewRegistry(),
		sched:     sched,
	}
	sched.Subscribe(engine.KindWeek, keyDebtReview, d.ReviewTax)
	sched.Subscribe(engine.KindWeek, keyDebtCollect, d.collect)
	d.ReviewTax()
	return d
}

// Tax returns the current tax rate.
func (d *DebtManager) Tax() float64 { return d.tax }

// Debt returns the outstanding debt.
func (d *DebtManager) Debt() float64 { return d.debt }

// MinTax returns the lowest rate the manager charges.
func (d *DebtManager) MinTax() float64 { return d.cfg.MinTax }

// MaxTax returns the highest rate the manager charges.
func (d *DebtManager) MaxTax() float64 { return d.cfg.MaxTax }

// AddToDebt records unpaid money.
func (d *DebtManager) AddToDebt(amount float64) {
	d.debt += amount
}

// ToggleDevelopmentTarget switches whether the development share is used
// to pay off debt first. It returns the new setting.
func (d *DebtManager) ToggleDevelopmentTarget() bool {
	d.devCostPaysOffDebt = !d.devCostPaysOffDebt
	return d.devCostPaysOffDebt
}

// PayOffDebt takes tax on a week's earnings. The development share goes to
// the treasury's funds and the rest pays down debt, never below zero. It
// returns the total the taxpayer owes.
func (d *DebtManager) PayOffDebt(earnings float64) float64 {
	total := earnings * d.tax
	dev := earnings * developmentShare
	payment := max(total-dev, 0)

	if payment > d.debt {
		payment = d.debt
	} else if d.devCostPaysOffDebt {
		dev, payment = d.redirect(dev, payment)
	}

	d.debt -= payment
	d.treasury.AddFunds(int(dev))
	return dev + payment
}

// redirect moves the development share onto the remaining debt.
func (d *DebtManager) redirect(dev, payment float64) (float64, float64) {
	remaining := d.debt - payment
	if remaining > dev {
		return 0, payment + dev
	}
	return dev - remaining, payment + remaining
}

// ReviewTax sets the rate from the debt: the minimum plus a share of
// debtTaxSpread proportional to debt/ceiling, capped at the maximum.
func (d *DebtManager) ReviewTax() {
	ratio := 1.0
	if d.cfg.Ceiling > 0 {
		ratio = min(d.debt/d.cfg.Ceiling, 1)
	} else if d.debt <= 0 {
		ratio = 0
	}
	d.tax = min(d.cfg.MinTax+debtTaxSpread*ratio, d.cfg.MaxTax)
}

// SignUp registers a taxpayer; it is charged every week after the review.
func (d *DebtManager) SignUp(key engine.Key, pay engine.Callback) {
	d.taxpayers.Add(key, pay)
}

// CancelSignUp removes a taxpayer.
func (d *DebtManager) CancelSignUp(key engine.Key) {
	d.taxpayers.Remove(key)
}

// Taxpayers returns the number of signed-up taxpayers.
func (d *DebtManager) Taxpayers() int { return d.taxpayers.Len() }

func (d *DebtManager) collect() {
	before := d.debt
	d.taxpayers.Invoke()
	slog.Debug("taxes collected",
		"taxpayers", d.taxpayers.Len(),
		"tax", fmt.Sprintf("%.3f", d.tax),
		"debt_paid", humanize.Comma(int64(before-d.debt)),
		"debt", humanize.Comma(int64(d.debt)),
	)
}

// Destroy unsubscribes the manager from the engine.
func (d *DebtManager) Destroy() {
	d.sched.Unsubscribe(engine.KindWeek, keyDebtReview)
	d.sched.Unsubscribe(engine.KindWeek, keyDebtCollect)
}

func (d *DebtManager) AskForValues() map[string]string {
	return map[string]string{
		"Name":      "Debt",
		"Debt":      humanize.Comma(int64(d.debt)),
		"Tax":       fmt.Sprintf("%.1f%%", d.tax*100),
		"Taxpayers": humanize.Comma(int64(d.taxpayers.Len())),
	}
}
