package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every setting of the application. Values loaded from the
// YAML file can be overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Ticker            string          `yaml:"ticker"`
		StartingBudget    decimal.Decimal `yaml:"starting_budget"`
		PriceIncrement    decimal.Decimal `yaml:"price_increment"`
		LadderDepth       int             `yaml:"ladder_depth"`
		OrderQuantity     decimal.Decimal `yaml:"order_quantity"`
		RunawayDistance   decimal.Decimal `yaml:"runaway_distance"`
		ExtensionDistance decimal.Decimal `yaml:"extension_distance"`
		TickIntervalSec   int             `yaml:"tick_interval_sec"`
		RetryDelaySec     int             `yaml:"retry_delay_sec"`
		ClosedDelaySec    int             `yaml:"closed_delay_sec"`
		Timezone          string          `yaml:"timezone"`
	} `yaml:"trading"`

	Feed struct {
		Source string `yaml:"source"` // "yahoo" or "stream"
		Yahoo  struct {
			URL        string `yaml:"url"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"yahoo"`
		Stream struct {
			WSURL         string `yaml:"ws_url"`
			StaleAfterSec int    `yaml:"stale_after_sec"`
		} `yaml:"stream"`
	} `yaml:"feed"`

	Storage struct {
		StateFile string `yaml:"state_file"`
		TradeDB   string `yaml:"trade_db"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Trading.Ticker == "" {
		return fmt.Errorf("trading ticker is required")
	}
	if !c.Trading.StartingBudget.IsPositive() {
		return fmt.Errorf("starting budget must be positive")
	}
	if !c.Trading.PriceIncrement.IsPositive() {
		return fmt.Errorf("price increment must be positive")
	}
	if c.Trading.LadderDepth <= 0 {
		return fmt.Errorf("ladder depth must be positive")
	}
	if !c.Trading.OrderQuantity.IsPositive() {
		return fmt.Errorf("order quantity must be positive")
	}
	if c.Trading.TickIntervalSec <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}

	switch c.Feed.Source {
	case "yahoo":
		if c.Feed.Yahoo.URL == "" {
			return fmt.Errorf("yahoo feed URL is required")
		}
	case "stream":
		if !hasPrefix(c.Feed.Stream.WSURL, "ws://") && !hasPrefix(c.Feed.Stream.WSURL, "wss://") {
			return fmt.Errorf("invalid stream WS URL: %s", c.Feed.Stream.WSURL)
		}
	default:
		return fmt.Errorf("unknown feed source: %s", c.Feed.Source)
	}

	if c.Storage.StateFile == "" {
		return fmt.Errorf("state file path is required")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if ticker := os.Getenv("GRID_TICKER"); ticker != "" {
		cfg.Trading.Ticker = ticker
	}
	if budget := os.Getenv("GRID_STARTING_BUDGET"); budget != "" {
		if d, err := decimal.NewFromString(budget); err == nil {
			cfg.Trading.StartingBudget = d
		}
	}
	if stateFile := os.Getenv("GRID_STATE_FILE"); stateFile != "" {
		cfg.Storage.StateFile = stateFile
	}
	if tradeDB := os.Getenv("GRID_TRADE_DB"); tradeDB != "" {
		cfg.Storage.TradeDB = tradeDB
	}
}
