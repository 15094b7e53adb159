package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/autotrader/market"
)

// Config is the complete bot configuration. It is loaded once at startup,
// validated, and passed by reference; nothing mutates it afterwards.
type Config struct {
	Alpaca   AlpacaConfig   `yaml:"alpaca"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Universe UniverseConfig `yaml:"universe"`
	Bot      BotConfig      `yaml:"bot"`
	Journal  JournalConfig  `yaml:"journal"`
	Charts   ChartConfig    `yaml:"charts"`
}

// AlpacaConfig holds API credentials and environment selection. Credentials
// left empty here fall back to the standard environment variables.
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Paper     bool   `yaml:"paper"`
}

type StrategyConfig struct {
	Name          string  `yaml:"name"`
	Timeframe     string  `yaml:"timeframe"`
	ShortWindow   int     `yaml:"short_window"`
	LongWindow    int     `yaml:"long_window"`
	PositionLimit int     `yaml:"position_limit"`
	NotionalUSD   float64 `yaml:"notional_usd"`
}

type RiskConfig struct {
	// DrawdownLimit is negative: -0.05 halts at a 5% drop.
	DrawdownLimit float64 `yaml:"drawdown_limit"`
	// TrailPercent is in percentage points: 2.0 for a 2% trail.
	TrailPercent float64 `yaml:"trail_percent"`
}

type UniverseConfig struct {
	Symbols []string `yaml:"symbols"`
	Dynamic bool     `yaml:"dynamic"`
	TopN    int      `yaml:"top_n"`
	// RefreshInterval is accepted for compatibility but inert: the
	// universe is computed once at startup and never refreshed.
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
}

type BotConfig struct {
	Heartbeat string `yaml:"heartbeat"`
	Backoff   string `yaml:"backoff"`
}

type JournalConfig struct {
	Type       string `yaml:"type"` // "none", "csv" or "sqlite"
	OrdersFile string `yaml:"orders_file,omitempty"`
	EquityFile string `yaml:"equity_file,omitempty"`
	DBPath     string `yaml:"db_path,omitempty"`
}

type ChartConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoadFromFile loads and validates a YAML config. Credentials from the
// environment (APCA_API_KEY_ID / APCA_API_SECRET_KEY) fill any the file
// leaves blank.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Alpaca.APIKey == "" {
		c.Alpaca.APIKey = os.Getenv("APCA_API_KEY_ID")
	}
	if c.Alpaca.APISecret == "" {
		c.Alpaca.APISecret = os.Getenv("APCA_API_SECRET_KEY")
	}
}

// Heartbeat returns the parsed heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	d, _ := time.ParseDuration(c.Bot.Heartbeat)
	return d
}

// BackoffInterval returns the parsed per-cycle error backoff.
func (c *Config) BackoffInterval() time.Duration {
	d, _ := time.ParseDuration(c.Bot.Backoff)
	return d
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if _, err := market.ParseTimeframe(c.Strategy.Timeframe); err != nil {
		return fmt.Errorf("strategy.timeframe: %w", err)
	}
	if c.Strategy.ShortWindow <= 0 {
		return fmt.Errorf("strategy.short_window must be positive")
	}
	if c.Strategy.LongWindow <= c.Strategy.ShortWindow {
		return fmt.Errorf("strategy.long_window must exceed short_window")
	}
	if c.Strategy.PositionLimit <= 0 {
		return fmt.Errorf("strategy.position_limit must be positive")
	}
	if c.Strategy.NotionalUSD <= 0 {
		return fmt.Errorf("strategy.notional_usd must be positive")
	}
	if c.Risk.DrawdownLimit >= 0 {
		return fmt.Errorf("risk.drawdown_limit must be negative (e.g. -0.05)")
	}
	if c.Risk.TrailPercent <= 0 {
		return fmt.Errorf("risk.trail_percent must be positive")
	}
	if len(c.Universe.Symbols) == 0 && !c.Universe.Dynamic {
		return fmt.Errorf("universe: need static symbols or dynamic enabled")
	}
	if c.Universe.Dynamic && c.Universe.TopN <= 0 {
		return fmt.Errorf("universe.top_n must be positive when dynamic is enabled")
	}
	if d, err := time.ParseDuration(c.Bot.Heartbeat); err != nil || d <= 0 {
		return fmt.Errorf("bot.heartbeat must be a positive duration")
	}
	if d, err := time.ParseDuration(c.Bot.Backoff); err != nil || d <= 0 {
		return fmt.Errorf("bot.backoff must be a positive duration")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal orders_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if c.Charts.Enabled && c.Charts.Dir == "" {
		return fmt.Errorf("charts.dir required when charts are enabled")
	}
	return nil
}

// Default returns a configuration with sensible defaults: paper trading,
// 1-minute SMA 10/30 on SPY and BTC/USD, $100 notional orders, 5-position
// cap, -5% drawdown halt with 2% trailing stops.
func Default() *Config {
	return &Config{
		Alpaca: AlpacaConfig{
			Paper: true,
		},
		Strategy: StrategyConfig{
			Name:          "sma-cross",
			Timeframe:     "1Min",
			ShortWindow:   10,
			LongWindow:    30,
			PositionLimit: 5,
			NotionalUSD:   100,
		},
		Risk: RiskConfig{
			DrawdownLimit: -0.05,
			TrailPercent:  2.0,
		},
		Universe: UniverseConfig{
			Symbols: []string{"SPY", "BTC/USD"},
			Dynamic: true,
			TopN:    20,
		},
		Bot: BotConfig{
			Heartbeat: "15s",
			Backoff:   "30s",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./autotrader.db",
		},
		Charts: ChartConfig{
			Enabled: true,
			Dir:     "./charts",
		},
	}
}
