package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
app:
  name: "Grid Go"
  version: "test"
trading:
  ticker: "NQ=F"
  starting_budget: "1000000"
  price_increment: "10"
  ladder_depth: 10
  order_quantity: "0.1"
  runaway_distance: "10"
  extension_distance: "100"
  tick_interval_sec: 15
  retry_delay_sec: 15
  closed_delay_sec: 60
  timezone: "America/New_York"
feed:
  source: "yahoo"
  yahoo:
    url: "https://example.com/v8/finance/chart"
    timeout_sec: 10
storage:
  state_file: "data/bot_state.json"
  trade_db: "data/trades.db"
logging:
  level: "info"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Trading.Ticker != "NQ=F" {
		t.Errorf("expected ticker NQ=F, got %s", cfg.Trading.Ticker)
	}
	if cfg.Trading.LadderDepth != 10 {
		t.Errorf("expected depth 10, got %d", cfg.Trading.LadderDepth)
	}
	if cfg.Trading.StartingBudget.String() != "1000000" {
		t.Errorf("expected budget 1000000, got %s", cfg.Trading.StartingBudget)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("GRID_TICKER", "ES=F")
	t.Setenv("GRID_STATE_FILE", "/tmp/other_state.json")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Trading.Ticker != "ES=F" {
		t.Errorf("expected env-overridden ticker ES=F, got %s", cfg.Trading.Ticker)
	}
	if cfg.Storage.StateFile != "/tmp/other_state.json" {
		t.Errorf("expected env-overridden state file, got %s", cfg.Storage.StateFile)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Missing Ticker", func(t *testing.T) {
		var cfg Config
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation failure")
		}
	})

	t.Run("Bad Feed Source", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validYAML))
		if err != nil {
			t.Fatal(err)
		}
		cfg.Feed.Source = "carrier-pigeon"
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation failure for unknown feed source")
		}
	})

	t.Run("Bad Stream URL", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validYAML))
		if err != nil {
			t.Fatal(err)
		}
		cfg.Feed.Source = "stream"
		cfg.Feed.Stream.WSURL = "http://not-a-ws-url"
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation failure for non-ws URL")
		}
	})
}
