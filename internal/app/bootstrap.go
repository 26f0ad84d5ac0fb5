package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"grid_go/internal/domain"
	"grid_go/internal/engine"
	"grid_go/internal/infra"
	"grid_go/internal/infra/storage"
	"grid_go/internal/infra/stream"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	TradeLog  *storage.TradeLog
	Snapshots *storage.SnapshotStore
	Feed      domain.Feed

	streamWorker *stream.Worker
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, storage)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Grid Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Trade audit log (DB)
	tradeLog, err := storage.NewTradeLog(cfg.Storage.TradeDB)
	if err != nil {
		return err
	}
	b.TradeLog = tradeLog
	slog.Info("✅ Trade log initialized", slog.String("path", cfg.Storage.TradeDB))

	// 4. Snapshot store
	snapshots, err := storage.NewSnapshotStore(cfg.Storage.StateFile)
	if err != nil {
		return err
	}
	b.Snapshots = snapshots
	slog.Info("✅ Snapshot store ready", slog.String("path", cfg.Storage.StateFile))

	return nil
}

// StartFeed wires the market data source selected in the config.
func (b *Bootstrap) StartFeed(ctx context.Context) error {
	cfg := b.Config
	switch cfg.Feed.Source {
	case "stream":
		worker := stream.NewWorker(cfg.Feed.Stream.WSURL, cfg.Trading.Ticker, cfg.Feed.Stream.StaleAfterSec)
		if err := worker.Connect(ctx); err != nil {
			return err
		}
		b.streamWorker = worker
		b.Feed = worker
		slog.Info("✅ Stream feed started", slog.String("url", cfg.Feed.Stream.WSURL))
	default:
		b.Feed = infra.NewYahooFeedWithConfig(cfg.Feed.Yahoo.URL, cfg.Feed.Yahoo.TimeoutSec)
		slog.Info("✅ Yahoo feed ready")
	}
	return nil
}

// StopFeed disconnects a streaming feed, if one is running.
func (b *Bootstrap) StopFeed() {
	if b.streamWorker != nil {
		b.streamWorker.Disconnect()
	}
}

// EngineConfig converts the loaded configuration into engine parameters.
func (b *Bootstrap) EngineConfig() (engine.Config, error) {
	cfg := b.Config

	loc, err := time.LoadLocation(cfg.Trading.Timezone)
	if err != nil {
		return engine.Config{}, &domain.ConfigError{Field: "trading.timezone", Err: err}
	}

	return engine.Config{
		Ticker:         cfg.Trading.Ticker,
		StartingBudget: cfg.Trading.StartingBudget,
		OrderQuantity:  cfg.Trading.OrderQuantity,
		IncrementCents: domain.CentsFromDecimal(cfg.Trading.PriceIncrement),
		Depth:          cfg.Trading.LadderDepth,
		RunawayCents:   domain.CentsFromDecimal(cfg.Trading.RunawayDistance),
		ExtensionCents: domain.CentsFromDecimal(cfg.Trading.ExtensionDistance),
		TickInterval:   time.Duration(cfg.Trading.TickIntervalSec) * time.Second,
		RetryDelay:     time.Duration(cfg.Trading.RetryDelaySec) * time.Second,
		ClosedDelay:    time.Duration(cfg.Trading.ClosedDelaySec) * time.Second,
		Location:       loc,
	}, nil
}

// configPath resolves the configuration file, overridable via GRID_CONFIG.
func configPath() string {
	if path := os.Getenv("GRID_CONFIG"); path != "" {
		return path
	}
	return "configs/config.yaml"
}
