package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ticksCompleted  atomic.Uint64
	buyFills        atomic.Uint64
	sellFills       atomic.Uint64
	feedFailures    atomic.Uint64
	persistFailures atomic.Uint64
	errorsTotal     atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one fully completed engine tick.
func (m *Metrics) RecordTick() {
	m.ticksCompleted.Add(1)
}

// RecordBuyFill records an executed buy order.
func (m *Metrics) RecordBuyFill() {
	m.buyFills.Add(1)
}

// RecordSellFill records an executed sell order.
func (m *Metrics) RecordSellFill() {
	m.sellFills.Add(1)
}

// RecordFeedFailure records a failed market data fetch.
func (m *Metrics) RecordFeedFailure() {
	m.feedFailures.Add(1)
}

// RecordPersistFailure records a failed snapshot save.
func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksCompleted  uint64
	BuyFills        uint64
	SellFills       uint64
	FeedFailures    uint64
	PersistFailures uint64
	ErrorsTotal     uint64
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TicksCompleted:  m.ticksCompleted.Load(),
		BuyFills:        m.buyFills.Load(),
		SellFills:       m.sellFills.Load(),
		FeedFailures:    m.feedFailures.Load(),
		PersistFailures: m.persistFailures.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksCompleted.Store(0)
	m.buyFills.Store(0)
	m.sellFills.Store(0)
	m.feedFailures.Store(0)
	m.persistFailures.Store(0)
	m.errorsTotal.Store(0)
}
