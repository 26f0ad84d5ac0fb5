package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EngineState aggregates every mutable value of the trading engine: the
// resting order books, open positions, occupied price levels, cash budget
// and realized P&L. It is owned by a single Engine instance and threaded
// explicitly through all book operations; nothing here is global.
type EngineState struct {
	BuyOrders  []BuyOrder
	SellOrders []SellOrder
	Positions  map[int64]Position
	Occupied   map[Cents]struct{}

	Budget      decimal.Decimal
	RealizedPnL decimal.Decimal

	LastPriceCents    Cents // 0 until the first completed tick
	PositionIDCounter int64
}

// NewEngineState returns the defaults used on first run and whenever the
// snapshot is missing or corrupt: full starting cash, empty books.
func NewEngineState(startingBudget decimal.Decimal) *EngineState {
	return &EngineState{
		Positions:   make(map[int64]Position),
		Occupied:    make(map[Cents]struct{}),
		Budget:      startingBudget,
		RealizedPnL: decimal.Zero,
	}
}

// IsOccupied reports whether a live order claims the price level.
func (s *EngineState) IsOccupied(price Cents) bool {
	_, ok := s.Occupied[price]
	return ok
}

// Occupy marks a price level as claimed.
func (s *EngineState) Occupy(price Cents) {
	s.Occupied[price] = struct{}{}
}

// Free releases a price level.
func (s *EngineState) Free(price Cents) {
	delete(s.Occupied, price)
}

// HasOrderAt reports whether any live buy or sell rests at the level.
func (s *EngineState) HasOrderAt(price Cents) bool {
	for _, o := range s.BuyOrders {
		if o.PriceCents == price {
			return true
		}
	}
	for _, o := range s.SellOrders {
		if o.PriceCents == price {
			return true
		}
	}
	return false
}

// LowestSell returns the lowest resting sell price, if any sells exist.
func (s *EngineState) LowestSell() (Cents, bool) {
	if len(s.SellOrders) == 0 {
		return 0, false
	}
	lowest := s.SellOrders[0].PriceCents
	for _, o := range s.SellOrders[1:] {
		if o.PriceCents < lowest {
			lowest = o.PriceCents
		}
	}
	return lowest, true
}

// HighestBuy returns the highest resting buy price, if any buys exist.
func (s *EngineState) HighestBuy() (Cents, bool) {
	if len(s.BuyOrders) == 0 {
		return 0, false
	}
	highest := s.BuyOrders[0].PriceCents
	for _, o := range s.BuyOrders[1:] {
		if o.PriceCents > highest {
			highest = o.PriceCents
		}
	}
	return highest, true
}

// NextPositionID allocates a fresh position id. Ids are strictly
// increasing and never reused, even across restarts.
func (s *EngineState) NextPositionID() int64 {
	s.PositionIDCounter++
	return s.PositionIDCounter
}

// Verify checks the state invariants and returns the first violation
// found. depth is the occupied-level cap (ladder depth).
func (s *EngineState) Verify(depth int) error {
	if s.Budget.IsNegative() {
		return fmt.Errorf("budget is negative: %s", s.Budget)
	}
	if len(s.Occupied) > depth {
		return fmt.Errorf("occupied levels %d exceed cap %d", len(s.Occupied), depth)
	}
	for _, o := range s.SellOrders {
		if _, ok := s.Positions[o.PositionID]; !ok {
			return fmt.Errorf("sell at %s references missing position %d", o.PriceCents, o.PositionID)
		}
	}
	for price := range s.Occupied {
		if !s.HasOrderAt(price) {
			return fmt.Errorf("occupied level %s has no live order", price)
		}
	}
	return nil
}
