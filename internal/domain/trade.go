package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one row of the append-only fill audit trail, consumed by
// external reporting. The engine writes it and never reads it back.
type Trade struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time       `gorm:"index" json:"timestamp"`
	Action     string          `json:"action"` // "Buy" or "Sell"
	Ticker     string          `gorm:"index" json:"ticker"`
	Price      decimal.Decimal `gorm:"type:numeric" json:"price"`
	Quantity   decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	ProfitLoss decimal.Decimal `gorm:"type:numeric" json:"profit_loss"`
	Budget     decimal.Decimal `gorm:"type:numeric" json:"budget"`
	CreatedAt  time.Time       `json:"created_at"`
}
