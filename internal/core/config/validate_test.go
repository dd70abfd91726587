package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_RunsStructuralValidation(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = ""

	err := cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory")
}

func TestValidateDeep_ConfigFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}

func TestValidateDeep_MissingDataDirIsFine(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = filepath.Join(t.TempDir(), "later")

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_Thresholds(t *testing.T) {
	cfg := validConfig(t)
	cfg.Notifications.Portfolio.AlertPct = -1
	cfg.Notifications.Portfolio.Noise = cfg.Notifications.Portfolio.Baseline
	cfg.Notifications.Market.AlertPct = 20
	cfg.Notifications.Market.UrgentPct = 10

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "notifications.portfolio.alert_pct")
	assert.Contains(t, fields, "notifications.portfolio.noise")
	assert.Contains(t, fields, "notifications.market.urgent_pct")
	assert.NotContains(t, fields, "notifications.portfolio.urgent_pct")
}

func TestValidateDeep_Billing(t *testing.T) {
	cfg := validConfig(t)
	cfg.Billing.SuccessRate = 1.5
	cfg.Billing.UsageTTL = time.Hour

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	assert.Equal(t, "billing.success_rate", fieldErrs[0].Field)
	assert.Equal(t, "billing.usage_ttl", fieldErrs[1].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.Billing.SweepInterval = 72 * time.Hour
	cfg.Notifications.MarketInterval = 100 * time.Millisecond

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)

	items := []string{warnings[0].Item, warnings[1].Item}
	assert.ElementsMatch(t, []string{"sweep_interval", "market_interval"}, items)
}

func TestWarnings_StableOrder(t *testing.T) {
	cfg := validConfig(t)
	cfg.Notifications.GenerateInterval = 10 * time.Millisecond
	cfg.Notifications.PortfolioInterval = 20 * time.Millisecond
	cfg.Notifications.MarketInterval = 30 * time.Millisecond

	want := []string{"generate_interval", "portfolio_interval", "market_interval"}
	for range 20 {
		warnings := cfg.Warnings()
		items := make([]string, 0, len(warnings))
		for _, w := range warnings {
			items = append(items, w.Item)
		}
		require.Equal(t, want, items)
	}
}
