package engine

import (
	"log/slog"

	"grid_go/internal/domain"
)

// pruneUnoccupied drops occupied price levels that left the ladder window
// and have no live order claiming them. A level claimed by a live order
// always survives: resting sells tied to open positions persist until
// filled even after they leave the window. Idempotent for a given ladder.
func (e *Engine) pruneUnoccupied(levels []domain.Cents) {
	inLadder := make(map[domain.Cents]struct{}, len(levels))
	for _, l := range levels {
		inLadder[l] = struct{}{}
	}

	for price := range e.state.Occupied {
		if _, ok := inLadder[price]; ok {
			continue
		}
		if e.state.HasOrderAt(price) {
			continue
		}
		e.state.Free(price)
		slog.Info("Removed stale price level",
			slog.String("price", price.String()))
	}
}

// placeBuys inserts a fixed-size buy order at each unoccupied ladder
// level, nearest-to-price first, while the occupied cap and budget allow.
// Levels within one increment of the lowest resting sell are skipped so a
// fresh buy never collides with the exit of an open position.
func (e *Engine) placeBuys(levels []domain.Cents) {
	lowestSell, hasSell := e.state.LowestSell()

	for _, price := range levels {
		if price <= 0 || e.state.IsOccupied(price) {
			continue
		}
		if len(e.state.Occupied) >= e.cfg.Depth {
			continue
		}
		order := domain.BuyOrder{PriceCents: price, Quantity: e.cfg.OrderQuantity}
		if e.state.Budget.LessThan(order.Cost()) {
			continue
		}
		if hasSell && price >= lowestSell-e.cfg.IncrementCents {
			slog.Info("Skipping buy too close to resting sells",
				slog.String("price", price.String()),
				slog.String("lowest_sell", lowestSell.String()))
			continue
		}

		e.state.BuyOrders = append(e.state.BuyOrders, order)
		e.state.Occupy(price)
		slog.Info("Placed buy limit order",
			slog.String("price", price.String()),
			slog.String("quantity", order.Quantity.String()))
	}
}

// addRunawayBuy chases a price that moved more than the runaway distance
// above the highest resting buy by synthesizing one buy at the rounded
// current price. Skipped when a position was already opened at that exact
// level, a resting sell is within one increment, the level is taken, the
// cap is reached, or the budget does not cover the order.
func (e *Engine) addRunawayBuy(currentPriceCents domain.Cents) {
	highestBuy, ok := e.state.HighestBuy()
	if !ok {
		return
	}
	if currentPriceCents <= highestBuy+e.cfg.RunawayCents {
		return
	}

	price := e.planner.RoundDown(currentPriceCents)

	for _, pos := range e.state.Positions {
		if pos.BuyPriceCents == price {
			slog.Info("Skipping runaway buy, level already executed",
				slog.String("price", price.String()))
			return
		}
	}
	for _, sell := range e.state.SellOrders {
		diff := sell.PriceCents - price
		if diff < 0 {
			diff = -diff
		}
		if diff < e.cfg.IncrementCents {
			slog.Info("Skipping runaway buy, conflicts with resting sell",
				slog.String("price", price.String()),
				slog.String("sell", sell.PriceCents.String()))
			return
		}
	}

	order := domain.BuyOrder{PriceCents: price, Quantity: e.cfg.OrderQuantity}
	if price <= 0 || e.state.IsOccupied(price) ||
		len(e.state.Occupied) >= e.cfg.Depth ||
		e.state.Budget.LessThan(order.Cost()) {
		return
	}

	e.state.BuyOrders = append(e.state.BuyOrders, order)
	e.state.Occupy(price)
	slog.Info("Price ran away, added new buy",
		slog.String("price", price.String()))
}

// removeBuy deletes the first resting buy at the given level.
func (e *Engine) removeBuy(price domain.Cents) {
	for i, o := range e.state.BuyOrders {
		if o.PriceCents == price {
			e.state.BuyOrders = append(e.state.BuyOrders[:i], e.state.BuyOrders[i+1:]...)
			return
		}
	}
}

// removeSell deletes the resting sell linked to the given position.
func (e *Engine) removeSell(positionID int64) {
	for i, o := range e.state.SellOrders {
		if o.PositionID == positionID {
			e.state.SellOrders = append(e.state.SellOrders[:i], e.state.SellOrders[i+1:]...)
			return
		}
	}
}

// hasSellAt reports whether a sell already rests at the level.
func (e *Engine) hasSellAt(price domain.Cents) bool {
	for _, o := range e.state.SellOrders {
		if o.PriceCents == price {
			return true
		}
	}
	return false
}
