package engine

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
)

// executeBuys fills every resting buy whose level the price has reached,
// provided the budget covers the cost. Each fill debits the budget, opens
// a position with a fresh id, pairs it with a sell one increment above,
// and opportunistically extends the grid with a deeper buy below the fill.
// Orders appended during the pass are not themselves candidates this tick.
func (e *Engine) executeBuys(currentPriceCents domain.Cents, at time.Time) {
	resting := make([]domain.BuyOrder, len(e.state.BuyOrders))
	copy(resting, e.state.BuyOrders)

	for _, order := range resting {
		if order.PriceCents < currentPriceCents {
			continue
		}
		cost := order.Cost()
		if e.state.Budget.LessThan(cost) {
			continue
		}

		e.state.Budget = e.state.Budget.Sub(cost)
		e.removeBuy(order.PriceCents)
		e.state.Free(order.PriceCents)

		id := e.state.NextPositionID()
		e.state.Positions[id] = domain.Position{
			ID:            id,
			BuyPriceCents: order.PriceCents,
			Quantity:      order.Quantity,
		}

		slog.Info("Executed buy order",
			slog.String("price", order.PriceCents.String()),
			slog.String("quantity", order.Quantity.String()),
			slog.Int64("position_id", id),
			slog.String("budget", e.state.Budget.StringFixed(2)))
		e.metrics.RecordBuyFill()
		e.recordTrade(at, domain.ActionBuy, order.PriceCents, order.Quantity, decimal.Zero)

		e.placePairedSell(order, id)
		e.placeExtensionBuy(order)
	}
}

// placePairedSell rests the exit order one increment above the fill,
// linked to the freshly opened position. An identical-price sell already
// resting means the level is taken and the new exit is skipped.
func (e *Engine) placePairedSell(filled domain.BuyOrder, positionID int64) {
	sellPrice := filled.PriceCents + e.cfg.IncrementCents
	if e.hasSellAt(sellPrice) {
		slog.Info("Skipping duplicate sell order",
			slog.String("price", sellPrice.String()))
		return
	}

	e.state.SellOrders = append(e.state.SellOrders, domain.SellOrder{
		PriceCents: sellPrice,
		Quantity:   filled.Quantity,
		PositionID: positionID,
	})
	e.state.Occupy(sellPrice)
	slog.Info("Placed sell limit order",
		slog.String("price", sellPrice.String()),
		slog.String("quantity", filled.Quantity.String()),
		slog.Int64("position_id", positionID))
}

// placeExtensionBuy rests a deeper buy below the fill price so a falling
// market keeps accumulating inventory beyond the ladder window.
func (e *Engine) placeExtensionBuy(filled domain.BuyOrder) {
	price := filled.PriceCents - e.cfg.ExtensionCents
	order := domain.BuyOrder{PriceCents: price, Quantity: filled.Quantity}
	if price <= 0 || e.state.IsOccupied(price) ||
		len(e.state.Occupied) >= e.cfg.Depth ||
		e.state.Budget.LessThan(order.Cost()) {
		return
	}

	e.state.BuyOrders = append(e.state.BuyOrders, order)
	e.state.Occupy(price)
	slog.Info("Placed extension buy below fill",
		slog.String("price", price.String()),
		slog.String("quantity", order.Quantity.String()))
}

// executeSells fills every resting sell the price has reached. Each fill
// credits the budget, closes the linked position exactly once and adds
// its profit to the realized total. A sell whose position is missing is
// logged and settled with zero P&L instead of failing the tick.
func (e *Engine) executeSells(currentPriceCents domain.Cents, at time.Time) {
	resting := make([]domain.SellOrder, len(e.state.SellOrders))
	copy(resting, e.state.SellOrders)

	for _, order := range resting {
		if currentPriceCents < order.PriceCents {
			continue
		}

		e.state.Budget = e.state.Budget.Add(order.Proceeds())
		e.removeSell(order.PositionID)
		e.state.Free(order.PriceCents)

		profit := decimal.Zero
		if pos, ok := e.state.Positions[order.PositionID]; ok {
			profit = order.PriceCents.Decimal().Sub(pos.BuyPriceCents.Decimal()).Mul(order.Quantity)
			e.state.RealizedPnL = e.state.RealizedPnL.Add(profit)
			delete(e.state.Positions, order.PositionID)
		} else {
			slog.Warn("No matching position found for sell",
				slog.String("price", order.PriceCents.String()),
				slog.Int64("position_id", order.PositionID))
		}

		slog.Info("Executed sell order",
			slog.String("price", order.PriceCents.String()),
			slog.String("quantity", order.Quantity.String()),
			slog.String("profit_loss", profit.StringFixed(2)),
			slog.String("budget", e.state.Budget.StringFixed(2)))
		e.metrics.RecordSellFill()
		e.recordTrade(at, domain.ActionSell, order.PriceCents, order.Quantity, profit)
	}
}

// recordTrade appends a fill to the audit trail. Failures are logged and
// never roll back the in-memory state changes already applied.
func (e *Engine) recordTrade(at time.Time, action string, price domain.Cents, qty, profit decimal.Decimal) {
	if e.trades == nil {
		return
	}
	trade := &domain.Trade{
		Timestamp:  at,
		Action:     action,
		Ticker:     e.cfg.Ticker,
		Price:      price.Decimal(),
		Quantity:   qty,
		ProfitLoss: profit.Round(2),
		Budget:     e.state.Budget.Round(2),
	}
	if err := e.trades.Record(trade); err != nil {
		slog.Error("Failed to record trade", slog.Any("error", err))
	}
}
