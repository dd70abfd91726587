// Package config handles configuration loading and validation for hypeflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Notifications NotificationsConfig `yaml:"notifications"`
	Billing       BillingConfig       `yaml:"billing"`
	Database      DatabaseConfig      `yaml:"database"`
	DataDir       string              `yaml:"-"` // set by caller, not from config file
}

// NotificationsConfig controls the notification producers.
type NotificationsConfig struct {
	GenerateInterval  time.Duration   `yaml:"generate_interval"`
	PortfolioInterval time.Duration   `yaml:"portfolio_interval"`
	MarketInterval    time.Duration   `yaml:"market_interval"`
	Portfolio         PortfolioAlerts `yaml:"portfolio"`
	Market            MarketAlerts    `yaml:"market"`
}

// PortfolioAlerts tunes the simulated portfolio monitor.
type PortfolioAlerts struct {
	Baseline  float64 `yaml:"baseline"`
	Noise     float64 `yaml:"noise"`
	AlertPct  float64 `yaml:"alert_pct"`  // alert when |change| exceeds this
	UrgentPct float64 `yaml:"urgent_pct"` // mark urgent when |change| exceeds this
}

// MarketAlerts tunes the market movement monitor.
type MarketAlerts struct {
	AlertPct  float64 `yaml:"alert_pct"`
	UrgentPct float64 `yaml:"urgent_pct"`
}

// BillingConfig controls the simulated payment processor and usage counters.
type BillingConfig struct {
	PaymentDelay  time.Duration `yaml:"payment_delay"`
	SuccessRate   float64       `yaml:"success_rate"`
	UsageTTL      time.Duration `yaml:"usage_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Notifications: NotificationsConfig{
			GenerateInterval:  30 * time.Second,
			PortfolioInterval: 60 * time.Second,
			MarketInterval:    45 * time.Second,
			Portfolio: PortfolioAlerts{
				Baseline:  125000,
				Noise:     5000,
				AlertPct:  2,
				UrgentPct: 5,
			},
			Market: MarketAlerts{
				AlertPct:  5,
				UrgentPct: 10,
			},
		},
		Billing: BillingConfig{
			PaymentDelay:  2 * time.Second,
			SuccessRate:   0.9,
			UsageTTL:      48 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	n := &c.Notifications
	if n.GenerateInterval == 0 {
		n.GenerateInterval = d.Notifications.GenerateInterval
	}
	if n.PortfolioInterval == 0 {
		n.PortfolioInterval = d.Notifications.PortfolioInterval
	}
	if n.MarketInterval == 0 {
		n.MarketInterval = d.Notifications.MarketInterval
	}
	if n.Portfolio.Baseline == 0 {
		n.Portfolio.Baseline = d.Notifications.Portfolio.Baseline
	}
	if n.Portfolio.AlertPct == 0 {
		n.Portfolio.AlertPct = d.Notifications.Portfolio.AlertPct
	}
	if n.Portfolio.UrgentPct == 0 {
		n.Portfolio.UrgentPct = d.Notifications.Portfolio.UrgentPct
	}
	if n.Market.AlertPct == 0 {
		n.Market.AlertPct = d.Notifications.Market.AlertPct
	}
	if n.Market.UrgentPct == 0 {
		n.Market.UrgentPct = d.Notifications.Market.UrgentPct
	}

	b := &c.Billing
	if b.SuccessRate == 0 {
		b.SuccessRate = d.Billing.SuccessRate
	}
	if b.UsageTTL == 0 {
		b.UsageTTL = d.Billing.UsageTTL
	}
	if b.SweepInterval == 0 {
		b.SweepInterval = d.Billing.SweepInterval
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = d.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = d.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = d.Database.BusyTimeout
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	n := c.Notifications
	if n.GenerateInterval <= 0 || n.PortfolioInterval <= 0 || n.MarketInterval <= 0 {
		return fmt.Errorf("notifications intervals must be positive")
	}

	if c.Billing.PaymentDelay < 0 {
		return fmt.Errorf("billing.payment_delay cannot be negative")
	}
	if c.Billing.SweepInterval <= 0 {
		return fmt.Errorf("billing.sweep_interval must be positive")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	return nil
}

// DatabasePath returns the SQLite database file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "hypeflow.db")
}

// LogFile returns the default log file location.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "hypeflow.log")
}
