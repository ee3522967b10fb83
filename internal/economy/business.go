package economy

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"

	"github.com/talgya/tilecity/internal/world"
)

// BusinessConfig holds the progression shared by every business kind.
type BusinessConfig struct {
	MaxLevel      int     `yaml:"max_level" json:"max_level"`
	ExpRequired   float64 `yaml:"exp_required" json:"exp_required"`     // Exp for the first level up
	ExpMultiplier float64 `yaml:"exp_multiplier" json:"exp_multiplier"` // Requirement growth per level
}

// Business is the progression core embedded by companies and shops. The
// player spends development funds on experience; enough experience raises
// the level, and each kind decides what a level is worth.
type Business struct {
	ID       uuid.UUID      `json:"id"`
	Kind     string         `json:"kind"`
	Position world.Position `json:"position"`
	Access   world.Position `json:"access"` // Road tile visitors travel to

	exp         int
	level       int
	maxLevel    int
	expRequired float64
	multiplier  float64

	treasury  *Treasury
	onLevelUp func()
}

func newBusiness(kind string, treasury *Treasury, cfg BusinessConfig, pos, access world.Position) Business {
	return Business{
		ID:          uuid.New(),
		Kind:        kind,
		Position:    pos,
		Access:      access,
		maxLevel:    cfg.MaxLevel,
		expRequired: cfg.ExpRequired,
		multiplier:  cfg.ExpMultiplier,
		treasury:    treasury,
	}
}

// Level returns the current level, starting at 0.
func (b *Business) Level() int { return b.level }

// MaxLevel returns the highest level.
func (b *Business) MaxLevel() int { return b.maxLevel }

// Exp returns the experience towards the next level.
func (b *Business) Exp() int { return b.exp }

// ExpRequired returns the experience the next level costs.
func (b *Business) ExpRequired() float64 { return b.expRequired }

// AtMaxLevel reports whether the business can level no further.
func (b *Business) AtMaxLevel() bool { return b.level >= b.maxLevel }

// AddExperience buys up to exp experience with development funds and
// levels up as many times as it pays for. Experience left over once the
// top level is reached is not charged. It returns the funds spent.
func (b *Business) AddExperience(exp int) int {
	if exp <= 0 || b.AtMaxLevel() {
		return 0
	}
	exp = min(exp, b.treasury.Funds())
	if exp <= 0 {
		return 0
	}

	b.exp += exp
	spent := exp
	for !b.AtMaxLevel() && float64(b.exp) >= b.expRequired {
		b.exp -= int(b.expRequired)
		b.level++
		b.expRequired *= b.multiplier
		if b.onLevelUp != nil {
			b.onLevelUp()
		}
		slog.Debug("business levelled up", "kind", b.Kind, "id", b.ID, "level", b.level)
	}
	if b.AtMaxLevel() {
		spent = clamp(spent-b.exp, 0, spent)
		b.exp = 0
	}

	b.treasury.RemoveFunds(spent)
	return spent
}

func (b *Business) baseValues() map[string]string {
	return map[string]string{
		"Name":     b.Kind,
		"Level":    fmt.Sprint(b.level),
		"MaxLevel": fmt.Sprint(b.maxLevel),
		"Exp":      fmt.Sprintf("%d/%.0f", b.exp, b.expRequired),
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
