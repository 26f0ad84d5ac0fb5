package strategy

import (
	"fmt"

	"grid_go/internal/domain"
)

// GridPlanner computes the ladder of evenly spaced price levels eligible
// for resting buy orders below the current market price. It is stateless
// and deterministic; all arithmetic is integer cents.
type GridPlanner struct {
	incrementCents domain.Cents
	depth          int
}

// NewGridPlanner creates a new instance.
func NewGridPlanner(incrementCents domain.Cents, depth int) *GridPlanner {
	if incrementCents <= 0 {
		panic(fmt.Sprintf("GridPlanner: increment must be positive, got %d", incrementCents))
	}
	if depth <= 0 {
		panic(fmt.Sprintf("GridPlanner: depth must be positive, got %d", depth))
	}
	return &GridPlanner{
		incrementCents: incrementCents,
		depth:          depth,
	}
}

// RoundDown returns the nearest increment multiple at or below price.
func (g *GridPlanner) RoundDown(priceCents domain.Cents) domain.Cents {
	return (priceCents / g.incrementCents) * g.incrementCents
}

// Levels returns the rounded-down current price plus the previous
// depth-1 increment multiples, descending. The result always has
// exactly depth entries.
func (g *GridPlanner) Levels(priceCents domain.Cents) []domain.Cents {
	nearest := g.RoundDown(priceCents)
	levels := make([]domain.Cents, g.depth)
	for i := range levels {
		levels[i] = nearest - domain.Cents(i)*g.incrementCents
	}
	return levels
}

// IncrementCents returns the ladder spacing.
func (g *GridPlanner) IncrementCents() domain.Cents {
	return g.incrementCents
}

// Depth returns the ladder depth, which doubles as the cap on occupied
// price levels.
func (g *GridPlanner) Depth() int {
	return g.depth
}
