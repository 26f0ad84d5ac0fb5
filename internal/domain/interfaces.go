package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest traded price for an instrument.
type Quote struct {
	Price decimal.Decimal
	At    time.Time
}

// Feed supplies the latest quote for a ticker. Implementations return
// (nil, nil) when no data is available (closed session, empty payload)
// rather than an error; errors are reserved for transport failures.
type Feed interface {
	FetchLatest(ctx context.Context, ticker string) (*Quote, error)
}

// TradeRecorder is the append-only fill audit trail. Writes are
// best-effort: the engine logs failures and never rolls back a fill.
type TradeRecorder interface {
	Record(trade *Trade) error
}

// StateStore persists the full engine state between ticks. Save must be
// atomic: a crash mid-write never corrupts the last good snapshot.
type StateStore interface {
	Save(state *EngineState) error
	Load() (*EngineState, error)
}
