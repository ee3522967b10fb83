package city

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Event is a notable occurrence in the city.
type Event struct {
	Tick        uint64 `json:"tick"`
	Category    string `json:"category"` // "economy", "housing", "admin"
	Description string `json:"description"`
}

// Stats tracks aggregate city statistics.
type Stats struct {
	Population   int     `json:"population"`
	Employed     int     `json:"employed"`
	Traveling    int     `json:"traveling"`
	TotalMoney   int     `json:"total_money"` // Held by citizens
	AvgHappiness float64 `json:"avg_happiness"`
	AvgHouse     float64 `json:"avg_house_level"`
	ShopStock    int     `json:"shop_stock"`
	Treasury     int     `json:"treasury"`
	Funds        int     `json:"funds"`
	Debt         float64 `json:"debt"`
	Tax          float64 `json:"tax"`
}

// Summary is pushed to listeners at every day and week boundary.
type Summary struct {
	Kind  string `json:"kind"` // "day" or "week"
	Tick  uint64 `json:"tick"`
	Time  string `json:"time"`
	Stats Stats  `json:"stats"`
}

// Report is the weekly snapshot written to the journal.
type Report struct {
	Week         uint64    `json:"week" db:"week"`
	Tick         uint64    `json:"tick" db:"tick"`
	Treasury     int       `json:"treasury" db:"treasury"`
	Funds        int       `json:"funds" db:"funds"`
	Debt         float64   `json:"debt" db:"debt"`
	Tax          float64   `json:"tax" db:"tax"`
	Population   int       `json:"population" db:"population"`
	Employed     int       `json:"employed" db:"employed"`
	AvgHappiness float64   `json:"avg_happiness" db:"avg_happiness"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Recorder persists reports and events. Failures are logged and never stop
// the simulation.
type Recorder interface {
	SaveWeeklyReport(ctx context.Context, r Report) error
	SaveEvents(ctx context.Context, events []Event) error
}

// Emit records an event.
func (c *City) Emit(category, description string) {
	e := Event{Tick: c.Engine.Ticks(), Category: category, Description: description}
	c.Events = append(c.Events, e)
	c.pending = append(c.pending, e)
	if len(c.Events) > maxEvents {
		c.Events = c.Events[len(c.Events)-maxEvents:]
	}
}

// RecentEvents returns up to n of the newest events, oldest first.
func (c *City) RecentEvents(n int) []Event {
	if n <= 0 || n > len(c.Events) {
		n = len(c.Events)
	}
	out := make([]Event, n)
	copy(out, c.Events[len(c.Events)-n:])
	return out
}

func (c *City) daily() {
	c.updateStats()
	slog.Info("daily report",
		"time", c.Engine.Now(),
		"population", c.Stats.Population,
		"employed", c.Stats.Employed,
		"avg_happiness", fmt.Sprintf("%.1f", c.Stats.AvgHappiness),
		"citizen_money", humanize.Comma(int64(c.Stats.TotalMoney)),
		"treasury", humanize.Comma(int64(c.Stats.Treasury)),
	)
	c.publish("day")
}

// invest spends development funds on business experience: every shift
// worked and every item sold this week earn their configured share.
func (c *City) invest() {
	for _, co := range c.Companies {
		before := co.Level()
		co.AddExperience(co.TakeShifts() * c.cfg.ExpPerShift)
		if co.Level() > before {
			c.Emit("economy", fmt.Sprintf("Company at %s grew to level %d (%d positions)", co.Position, co.Level(), co.Capacity()))
		}
	}
	for _, s := range c.Shops {
		before := s.Level()
		s.AddExperience(s.TakeSales() * c.cfg.ExpPerSale)
		if s.Level() > before {
			c.Emit("economy", fmt.Sprintf("Shop at %s grew to level %d", s.Position, s.Level()))
		}
	}
}

func (c *City) weekly() {
	c.reviewHousing()
	c.updateStats()
	r := Report{
		Week:         c.Engine.Weeks(),
		Tick:         c.Engine.Ticks(),
		Treasury:     c.Stats.Treasury,
		Funds:        c.Stats.Funds,
		Debt:         c.Stats.Debt,
		Tax:          c.Stats.Tax,
		Population:   c.Stats.Population,
		Employed:     c.Stats.Employed,
		AvgHappiness: c.Stats.AvgHappiness,
		CreatedAt:    time.Now().UTC(),
	}
	slog.Info("weekly summary",
		"week", r.Week,
		"treasury", humanize.Comma(int64(r.Treasury)),
		"funds", humanize.Comma(int64(r.Funds)),
		"debt", humanize.Comma(int64(r.Debt)),
		"tax", fmt.Sprintf("%.1f%%", r.Tax*100),
		"events_this_week", len(c.pending),
	)
	c.journal(r)
	c.publish("week")
}

// reviewHousing emits an event for every house whose level changed since
// the previous week.
func (c *City) reviewHousing() {
	for _, h := range c.Houses {
		prev, seen := c.houseLevels[h.ID]
		c.houseLevels[h.ID] = h.Level()
		if !seen || prev == h.Level() {
			continue
		}
		verb := "improved"
		if h.Level() < prev {
			verb = "declined"
		}
		c.Emit("housing", fmt.Sprintf("House at %s %s to level %d", h.Position, verb, h.Level()))
	}
}

func (c *City) journal(r Report) {
	events := c.pending
	c.pending = nil
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.recorder.SaveWeeklyReport(ctx, r); err != nil {
		slog.Error("weekly report save failed", "week", r.Week, "error", err)
	}
	if len(events) == 0 {
		return
	}
	if err := c.recorder.SaveEvents(ctx, events); err != nil {
		slog.Error("event save failed", "count", len(events), "error", err)
	}
}

func (c *City) publish(kind string) {
	s := Summary{Kind: kind, Tick: c.Engine.Ticks(), Time: c.Engine.Now(), Stats: c.Stats}
	for _, fn := range c.listeners {
		fn(s)
	}
}

func (c *City) updateStats() {
	st := Stats{
		Treasury: c.Treasury.Money(),
		Funds:    c.Treasury.Funds(),
		Debt:     c.Debt.Debt(),
		Tax:      c.Debt.Tax(),
	}
	happiness := 0.0
	for _, ct := range c.Citizens {
		st.Population++
		st.TotalMoney += ct.Money()
		happiness += ct.Happiness()
		if ct.Employer() != nil {
			st.Employed++
		}
		if ct.Traveling() {
			st.Traveling++
		}
	}
	if st.Population > 0 {
		st.AvgHappiness = happiness / float64(st.Population)
	}
	levels := 0
	for _, h := range c.Houses {
		levels += h.Level()
	}
	if len(c.Houses) > 0 {
		st.AvgHouse = float64(levels) / float64(len(c.Houses))
	}
	for _, s := range c.Shops {
		st.ShopStock += s.Stock()
	}
	c.Stats = st
}
