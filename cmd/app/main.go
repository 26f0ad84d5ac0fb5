package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"grid_go/internal/app"
	"grid_go/internal/engine"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Local overrides (.env) before anything reads the environment
	_ = godotenv.Load()

	// 2. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Market data feed
	if err := bootstrap.StartFeed(ctx); err != nil {
		slog.Error("❌ Failed to start feed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.StopFeed()

	// 6. Engine (restores state from the last snapshot)
	engCfg, err := bootstrap.EngineConfig()
	if err != nil {
		slog.Error("❌ Invalid engine configuration", slog.Any("error", err))
		os.Exit(1)
	}

	eng, err := engine.New(engCfg, bootstrap.Feed, bootstrap.TradeLog, bootstrap.Snapshots)
	if err != nil {
		slog.Error("❌ Failed to build engine", slog.Any("error", err))
		os.Exit(1)
	}

	slog.InfoContext(ctx, "✨ Grid engine fully operational. Press Ctrl+C to exit.")

	// Blocks until shutdown signal; the engine only stops between ticks.
	eng.Run(ctx)

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
