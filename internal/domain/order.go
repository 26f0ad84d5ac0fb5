package domain

import "github.com/shopspring/decimal"

// Trade actions recorded in the audit trail.
const (
	ActionBuy  = "Buy"
	ActionSell = "Sell"
)

// BuyOrder is a resting intent to buy at a price level. At most one live
// buy claims a given level.
type BuyOrder struct {
	PriceCents Cents           `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Cost returns the cash debited when the order fills.
func (o BuyOrder) Cost() decimal.Decimal {
	return o.PriceCents.Decimal().Mul(o.Quantity)
}

// SellOrder is a resting intent to sell, linked to the position it closes.
// The link is by position id, not by price/quantity matching, so two open
// lots with identical price and quantity can never be confused.
type SellOrder struct {
	PriceCents Cents           `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	PositionID int64           `json:"position_id"`
}

// Proceeds returns the cash credited when the order fills.
func (o SellOrder) Proceeds() decimal.Decimal {
	return o.PriceCents.Decimal().Mul(o.Quantity)
}

// Position is an open inventory lot created by a buy fill and consumed
// exactly once by its linked sell fill.
type Position struct {
	ID            int64           `json:"id"`
	BuyPriceCents Cents           `json:"buy_price"`
	Quantity      decimal.Decimal `json:"quantity"`
}
