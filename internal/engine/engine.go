package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
	"grid_go/internal/infra"
	"grid_go/internal/strategy"
)

// TickResult classifies the outcome of one engine tick so callers and
// tests can assert on outcomes instead of log text.
type TickResult int

const (
	TickOK TickResult = iota
	TickSessionClosed
	TickNoData
	TickPersistError
)

// String returns the string representation of TickResult
func (r TickResult) String() string {
	switch r {
	case TickOK:
		return "OK"
	case TickSessionClosed:
		return "SESSION_CLOSED"
	case TickNoData:
		return "NO_DATA"
	case TickPersistError:
		return "PERSIST_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config holds the tunable parameters of the grid engine.
type Config struct {
	Ticker         string
	StartingBudget decimal.Decimal
	OrderQuantity  decimal.Decimal
	IncrementCents domain.Cents
	Depth          int

	// RunawayCents is how far the price must move above the highest
	// resting buy before the engine chases it with a fresh order.
	RunawayCents domain.Cents
	// ExtensionCents is how far below a buy fill the secondary buy rests.
	ExtensionCents domain.Cents

	TickInterval time.Duration
	RetryDelay   time.Duration
	ClosedDelay  time.Duration

	// Location is the exchange timezone used by the session clock.
	Location *time.Location
}

// Engine is the single-threaded tick orchestrator: prune, place, fill,
// account, persist. One tick runs to full completion before the next
// starts, so no locking is needed anywhere in the state.
type Engine struct {
	cfg     Config
	planner *strategy.GridPlanner
	state   *domain.EngineState

	feed    domain.Feed
	trades  domain.TradeRecorder
	store   domain.StateStore
	metrics *infra.Metrics

	now func() time.Time
}

// New creates an engine and restores its state from the store, falling
// back to a fresh state with the full starting budget when no usable
// snapshot exists.
func New(cfg Config, feed domain.Feed, trades domain.TradeRecorder, store domain.StateStore) (*Engine, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}
	if state == nil {
		state = domain.NewEngineState(cfg.StartingBudget)
		slog.Info("No snapshot found, starting fresh",
			slog.String("budget", cfg.StartingBudget.String()))
	} else {
		slog.Info("Restored engine state",
			slog.String("budget", state.Budget.StringFixed(2)),
			slog.Int("buy_orders", len(state.BuyOrders)),
			slog.Int("sell_orders", len(state.SellOrders)),
			slog.Int("positions", len(state.Positions)))
	}

	return &Engine{
		cfg:     cfg,
		planner: strategy.NewGridPlanner(cfg.IncrementCents, cfg.Depth),
		state:   state,
		feed:    feed,
		trades:  trades,
		store:   store,
		metrics: infra.GlobalMetrics,
		now:     time.Now,
	}, nil
}

// State exposes the engine state for status readers and tests. The
// engine is single-threaded; callers must not hold the pointer across
// ticks.
func (e *Engine) State() *domain.EngineState {
	return e.state
}

// Tick runs one full cycle of the state machine in strict order:
// session check, fetch, plan, prune, place, runaway, fill buys, fill
// sells, persist. The snapshot is written only after every step
// completed, so a crash or error never persists a partial mutation.
func (e *Engine) Tick(ctx context.Context) TickResult {
	now := e.now().In(e.cfg.Location)
	if !domain.IsSessionOpen(now) {
		return TickSessionClosed
	}

	quote, err := e.feed.FetchLatest(ctx, e.cfg.Ticker)
	if err != nil {
		e.metrics.RecordFeedFailure()
		slog.Warn("Feed fetch failed", slog.Any("error", err))
		return TickNoData
	}
	if quote == nil {
		slog.Info("No market data available, possibly closed session")
		return TickNoData
	}

	priceCents := domain.CentsFromDecimal(quote.Price)
	direction := e.direction(priceCents)
	e.state.LastPriceCents = priceCents

	levels := e.planner.Levels(priceCents)
	e.pruneUnoccupied(levels)
	e.placeBuys(levels)
	e.addRunawayBuy(priceCents)
	e.executeBuys(priceCents, quote.At)
	e.executeSells(priceCents, quote.At)

	if err := e.state.Verify(e.cfg.Depth); err != nil {
		slog.Warn("State invariant violated", slog.Any("error", err))
	}
	e.logStatus(priceCents, direction)

	if err := e.store.Save(e.state); err != nil {
		e.metrics.RecordPersistFailure()
		slog.Error("Failed to save snapshot, state kept in memory",
			slog.Any("error", err))
		return TickPersistError
	}

	e.metrics.RecordTick()
	return TickOK
}

// direction compares the normalized price against the previous tick.
func (e *Engine) direction(priceCents domain.Cents) string {
	switch {
	case e.state.LastPriceCents == 0:
		return "none"
	case priceCents > e.state.LastPriceCents:
		return "up"
	case priceCents < e.state.LastPriceCents:
		return "down"
	default:
		return "flat"
	}
}

// logStatus emits one structured line per tick summarizing the book.
func (e *Engine) logStatus(priceCents domain.Cents, direction string) {
	slog.Info("Tick status",
		slog.String("price", priceCents.String()),
		slog.String("direction", direction),
		slog.Int("buy_orders", len(e.state.BuyOrders)),
		slog.Int("sell_orders", len(e.state.SellOrders)),
		slog.Int("occupied", len(e.state.Occupied)),
		slog.Int("positions", len(e.state.Positions)),
		slog.String("budget", e.state.Budget.StringFixed(2)),
		slog.String("realized_pnl", e.state.RealizedPnL.StringFixed(2)))
}

// Run loops Tick until the context is cancelled. The process may only
// stop between ticks; because persistence follows a fully completed
// tick, shutdown never leaves partial state behind.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("Engine started",
		slog.String("ticker", e.cfg.Ticker),
		slog.String("increment", e.cfg.IncrementCents.String()),
		slog.Int("depth", e.cfg.Depth))

	for {
		result := e.safeTick(ctx)

		var delay time.Duration
		switch result {
		case TickSessionClosed:
			slog.Info("Market is closed, waiting for session to open")
			delay = e.cfg.ClosedDelay
		case TickNoData, TickPersistError:
			delay = e.cfg.RetryDelay
		default:
			delay = e.cfg.TickInterval
		}

		select {
		case <-ctx.Done():
			slog.Info("Engine stopping")
			return
		case <-time.After(delay):
		}
	}
}

// safeTick recovers any panic inside the tick so one bad cycle is logged
// and retried instead of taking the process down mid-session.
func (e *Engine) safeTick(ctx context.Context) (result TickResult) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordError()
			slog.Error("Tick panicked", slog.Any("panic", r))
			result = TickNoData
		}
	}()
	return e.Tick(ctx)
}
