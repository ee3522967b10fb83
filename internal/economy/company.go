package economy

import (
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/tilecity/internal/world"
)

// Worker is an entity a company can employ.
type Worker interface {
	Entity
	// JobLost is called when the employer closes.
	JobLost(c *Company)
}

// CompanyConfig holds a company's starting terms and level-up gains.
type CompanyConfig struct {
	BusinessConfig   `yaml:",inline"`
	Capacity         int `yaml:"capacity" json:"capacity"`
	CapacityIncrease int `yaml:"capacity_increase" json:"capacity_increase"`
	Pay              int `yaml:"pay" json:"pay"` // Paid per shift
	PayIncrease      int `yaml:"pay_increase" json:"pay_increase"`
}

// Company employs workers and pays them for each shift.
type Company struct {
	Business

	capacity         int
	capacityIncrease int
	pay              int
	payIncrease      int

	workers []Worker
	hired   map[uuid.UUID]bool
	shifts  int

	rng        *rand.Rand
	chanceRate int
	successNum int
}

// NewCompany creates a company at pos whose visitors use the road tile at
// access.
func NewCompany(treasury *Treasury, cfg CompanyConfig, pos, access world.Position, rng *rand.Rand) *Company {
	c := &Company{
		Business:         newBusiness("Company", treasury, cfg.BusinessConfig, pos, access),
		capacity:         cfg.Capacity,
		capacityIncrease: cfg.CapacityIncrease,
		pay:              cfg.Pay,
		payIncrease:      cfg.PayIncrease,
		hired:            make(map[uuid.UUID]bool),
		rng:              rng,
	}
	c.onLevelUp = c.levelUp
	return c
}

// Apply checks an application. It succeeds when the company has room and
// num matches the company's number for the given success percentage.
func (c *Company) Apply(num, successPercent int) bool {
	if !c.Available() {
		return false
	}
	c.drawNumber(successPercent)
	return c.successNum == num
}

// drawNumber picks the winning application number from [0, 100/percent).
// It is redrawn only when the percentage changes.
func (c *Company) drawNumber(percent int) {
	if percent == c.chanceRate || percent <= 0 {
		return
	}
	c.chanceRate = percent
	c.successNum = c.rng.Intn(max(100/percent, 1))
}

// Available reports whether the company has an open position.
func (c *Company) Available() bool {
	return len(c.workers) < c.capacity
}

// Hire adds w to the payroll. It reports false when full or already hired.
func (c *Company) Hire(w Worker) bool {
	if !c.Available() || c.hired[w.EntityID()] {
		return false
	}
	c.hired[w.EntityID()] = true
	c.workers = append(c.workers, w)
	return true
}

// Quit removes w from the payroll.
func (c *Company) Quit(w Worker) {
	id := w.EntityID()
	if !c.hired[id] {
		return
	}
	delete(c.hired, id)
	for i, other := range c.workers {
		if other.EntityID() == id {
			c.workers = append(c.workers[:i], c.workers[i+1:]...)
			break
		}
	}
}

// Employs reports whether w works here.
func (c *Company) Employs(w Worker) bool {
	return c.hired[w.EntityID()]
}

// Work pays w for a shift. It reports false when w is not employed here.
func (c *Company) Work(w Worker) bool {
	if !c.hired[w.EntityID()] {
		return false
	}
	w.Wallet().AddMoney(c.pay)
	c.shifts++
	return true
}

// TakeShifts returns the shifts worked since the last call and resets the
// count.
func (c *Company) TakeShifts() int {
	n := c.shifts
	c.shifts = 0
	return n
}

// Pay returns the wage per shift.
func (c *Company) Pay() int { return c.pay }

// Capacity returns the number of positions.
func (c *Company) Capacity() int { return c.capacity }

// Workers returns the number of employees.
func (c *Company) Workers() int { return len(c.workers) }

func (c *Company) levelUp() {
	c.capacity += c.capacityIncrease
	c.pay += c.payIncrease
}

// Destroy lets every employee go.
func (c *Company) Destroy() {
	workers := c.workers
	c.workers = nil
	c.hired = make(map[uuid.UUID]bool)
	for _, w := range workers {
		w.JobLost(c)
	}
}

func (c *Company) AskForValues() map[string]string {
	v := c.baseValues()
	v["Employees"] = humanize.Comma(int64(len(c.workers)))
	v["Employee Capacity"] = humanize.Comma(int64(c.capacity))
	v["Employee Payment"] = humanize.Comma(int64(c.pay))
	return v
}
