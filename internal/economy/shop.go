package economy

import (
	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/world"
)

// Shopper is an entity that buys goods for its household.
type Shopper interface {
	Entity
	ItemsToBuy() int
	AddToBasket(n int)
}

// ShopConfig holds a shop's stock, price and level-up gains.
type ShopConfig struct {
	BusinessConfig `yaml:",inline"`
	StockPerWeek   int `yaml:"stock_per_week" json:"stock_per_week"`
	StockIncrease  int `yaml:"stock_increase" json:"stock_increase"`
	Price          int `yaml:"price" json:"price"`
}

// Shop sells goods from a stock that is refilled every week.
type Shop struct {
	Business

	stockPerWeek  int
	stockIncrease int
	stock         int
	price         int
	sold          int

	sched Scheduler
}

// NewShop creates a stocked shop and subscribes its weekly restock.
func NewShop(sched Scheduler, treasury *Treasury, cfg ShopConfig, pos, access world.Position) *Shop {
	s := &Shop{
		Business:      newBusiness("Shop", treasury, cfg.BusinessConfig, pos, access),
		stockPerWeek:  cfg.StockPerWeek,
		stockIncrease: cfg.StockIncrease,
		stock:         cfg.StockPerWeek,
		price:         max(cfg.Price, 1),
		sched:         sched,
	}
	s.onLevelUp = s.levelUp
	sched.Subscribe(engine.KindWeek, engine.KeyFor(s.ID, "replenish"), s.Replenish)
	return s
}

// Available reports whether the shop has stock.
func (s *Shop) Available() bool { return s.stock > 0 }

// Price returns the price per item.
func (s *Shop) Price() int { return s.price }

// Stock returns the items left this week.
func (s *Shop) Stock() int { return s.stock }

// Sell sells the shopper as many items as its budget, its wants and the
// stock allow. It returns the number of items sold.
func (s *Shop) Sell(shopper Shopper) int {
	if s.stock <= 0 {
		return 0
	}
	wallet := shopper.Wallet()
	goods := min(wallet.Budget()/s.price, shopper.ItemsToBuy(), s.stock)
	if goods <= 0 {
		return 0
	}
	if !wallet.RemoveMoney(goods * s.price) {
		return 0
	}
	s.stock -= goods
	s.sold += goods
	shopper.AddToBasket(goods)
	return goods
}

// TakeSales returns the items sold since the last call and resets the
// count.
func (s *Shop) TakeSales() int {
	n := s.sold
	s.sold = 0
	return n
}

// Replenish refills the stock to the weekly amount.
func (s *Shop) Replenish() {
	s.stock = s.stockPerWeek
}

func (s *Shop) levelUp() {
	s.stockPerWeek += s.stockIncrease
	s.stock = s.stockPerWeek
}

// Destroy unsubscribes the shop from the engine.
func (s *Shop) Destroy() {
	s.sched.Unsubscribe(engine.KindWeek, engine.KeyFor(s.ID, "replenish"))
}

func (s *Shop) AskForValues() map[string]string {
	v := s.baseValues()
	v["Stock"] = humanize.Comma(int64(s.stock))
	v["Stock Capacity"] = humanize.Comma(int64(s.stockPerWeek))
	v["Cost of Items"] = humanize.Comma(int64(s.price))
	return v
}
