package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// threshold ranges and file accessibility. The configPath argument specifies
// the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validatePortfolioAlerts(),
		c.validateMarketAlerts(),
		c.validateBilling(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Billing.SweepInterval > c.Billing.UsageTTL {
		warnings = append(warnings, ValidationWarning{
			Category: "Billing",
			Item:     "sweep_interval",
			Message:  "sweep runs less often than usage counters expire",
		})
	}

	n := c.Notifications
	for _, iv := range []struct {
		name string
		d    time.Duration
	}{
		{"generate_interval", n.GenerateInterval},
		{"portfolio_interval", n.PortfolioInterval},
		{"market_interval", n.MarketInterval},
	} {
		if iv.d < time.Second {
			warnings = append(warnings, ValidationWarning{
				Category: "Notifications",
				Item:     iv.name,
				Message:  fmt.Sprintf("interval %s will flood the history", iv.d),
			})
		}
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func (c *Config) validatePortfolioAlerts() error {
	p := c.Notifications.Portfolio
	var errs criterio.FieldErrorsBuilder

	if p.AlertPct < 0 {
		errs = errs.Append("notifications.portfolio.alert_pct", fmt.Errorf("must not be negative, got %v", p.AlertPct))
	}
	if p.Baseline <= 0 {
		errs = errs.Append("notifications.portfolio.baseline", fmt.Errorf("must be positive, got %v", p.Baseline))
	}
	if p.Noise < 0 || p.Noise >= p.Baseline {
		errs = errs.Append("notifications.portfolio.noise", fmt.Errorf("must be in [0, baseline), got %v", p.Noise))
	}
	if p.UrgentPct < p.AlertPct {
		errs = errs.Append("notifications.portfolio.urgent_pct", fmt.Errorf("must be at least alert_pct (%v)", p.AlertPct))
	}

	return errs.ToError()
}

func (c *Config) validateMarketAlerts() error {
	m := c.Notifications.Market
	var errs criterio.FieldErrorsBuilder

	if m.AlertPct < 0 {
		errs = errs.Append("notifications.market.alert_pct", fmt.Errorf("must not be negative, got %v", m.AlertPct))
	}
	if m.UrgentPct < m.AlertPct {
		errs = errs.Append("notifications.market.urgent_pct", fmt.Errorf("must be at least alert_pct (%v)", m.AlertPct))
	}

	return errs.ToError()
}

func (c *Config) validateBilling() error {
	b := c.Billing
	var errs criterio.FieldErrorsBuilder

	if b.SuccessRate <= 0 || b.SuccessRate > 1 {
		errs = errs.Append("billing.success_rate", fmt.Errorf("must be in (0, 1], got %v", b.SuccessRate))
	}
	if b.UsageTTL < 24*time.Hour {
		errs = errs.Append("billing.usage_ttl", fmt.Errorf("must cover at least one day, got %s", b.UsageTTL))
	}

	return errs.ToError()
}
