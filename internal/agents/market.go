package agents

import (
	"math"
	"math/rand"
	"slices"

	"github.com/talgya/tilecity/internal/economy"
)

// Market is the job board and shop directory citizens consult.
type Market struct {
	companies []*economy.Company
	shops     []*economy.Shop

	rng            *rand.Rand
	successPercent int // Chance an application succeeds, 1..100
}

// NewMarket creates an empty market.
func NewMarket(rng *rand.Rand, successPercent int) *Market {
	return &Market{rng: rng, successPercent: min(max(successPercent, 1), 100)}
}

// SuccessPercent returns the job application success chance.
func (m *Market) SuccessPercent() int { return m.successPercent }

func (m *Market) AddCompany(c *economy.Company) {
	if !slices.Contains(m.companies, c) {
		m.companies = append(m.companies, c)
	}
}

func (m *Market) RemoveCompany(c *economy.Company) {
	m.companies = slices.DeleteFunc(m.companies, func(o *economy.Company) bool { return o == c })
}

func (m *Market) AddShop(s *economy.Shop) {
	if !slices.Contains(m.shops, s) {
		m.shops = append(m.shops, s)
	}
}

func (m *Market) RemoveShop(s *economy.Shop) {
	m.shops = slices.DeleteFunc(m.shops, func(o *economy.Shop) bool { return o == s })
}

// Companies returns the registered companies in registration order.
func (m *Market) Companies() []*economy.Company { return m.companies }

// Shops returns the registered shops in registration order.
func (m *Market) Shops() []*economy.Shop { return m.shops }

// FindWork draws an application number and sends it to every company.
// One of the companies that accept is picked at random and hires w.
func (m *Market) FindWork(w economy.Worker) (*economy.Company, bool) {
	num := m.rng.Intn(max(100/m.successPercent, 1))

	var accepted []*economy.Company
	for _, c := range m.companies {
		if c.Apply(num, m.successPercent) {
			accepted = append(accepted, c)
		}
	}
	if len(accepted) == 0 {
		return nil, false
	}
	c := accepted[m.rng.Intn(len(accepted))]
	if !c.Hire(w) {
		return nil, false
	}
	return c, true
}

// FindShop returns a random shop that still has stock.
func (m *Market) FindShop() (*economy.Shop, bool) {
	candidates := slices.Clone(m.shops)
	for len(candidates) > 0 {
		i := m.rng.Intn(len(candidates))
		if candidates[i].Available() {
			return candidates[i], true
		}
		candidates = slices.Delete(candidates, i, i+1)
	}
	return nil, false
}

// AverageShopPrice is the mean item price, rounded up. Zero with no shops.
func (m *Market) AverageShopPrice() int {
	if len(m.shops) == 0 {
		return 0
	}
	total := 0
	for _, s := range m.shops {
		total += s.Price()
	}
	return int(math.Ceil(float64(total) / float64(len(m.shops))))
}
