package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/remittance-engine/config"
	"github.com/warp/remittance-engine/generic"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "./data/remittance.db", cfg.Storage.Path)
	assert.Empty(t, cfg.Directory.Path)
	assert.Equal(t, 20, cfg.Reports.GraceDay)
	assert.Equal(t, generic.DefaultBaseline, cfg.Reports.Baseline)
	assert.Equal(t, config.DefaultSecret, cfg.Auth.Secret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Reminders.Enabled)
	assert.Equal(t, time.Hour, cfg.Reminders.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("REMIT_STORAGE_DRIVER", "JSONFILE")
	t.Setenv("REMIT_STORAGE_PATH", "/var/lib/remit")
	t.Setenv("REMIT_REPORTS_GRACE_DAY", "15")
	t.Setenv("REMIT_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REMIT_AUTH_TOKEN_TTL", "30m")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverJSONFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/remit", cfg.Storage.Path)
	assert.Equal(t, 15, cfg.Reports.GraceDay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  cors_origins: ["https://finance.basra.example"]
storage:
  driver: memory
reports:
  grace_day: 10
  baseline_from: 2022
  baseline_to: 2026
reminders:
  enabled: true
  interval: 15m
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://finance.basra.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Reports.GraceDay)
	assert.Equal(t, generic.BaselineYears{From: 2022, To: 2026}, cfg.Reports.Baseline)
	assert.True(t, cfg.Reminders.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Reminders.Interval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("REMIT_REPORTS_GRACE_DAY", "29")

	_, err := config.Load("")
	assert.ErrorContains(t, err, "reports.grace_day")
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Storage: config.StorageConfig{Driver: config.DriverSQLite, Path: "x.db"},
			Reports: config.ReportsConfig{GraceDay: 20, Baseline: generic.DefaultBaseline},
			Auth:    config.AuthConfig{Secret: "s"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"missing path", func(c *config.Config) { c.Storage.Path = "" }, "storage.path"},
		{"grace day zero", func(c *config.Config) { c.Reports.GraceDay = 0 }, "reports.grace_day"},
		{"grace day past 28", func(c *config.Config) { c.Reports.GraceDay = 29 }, "reports.grace_day"},
		{"inverted baseline", func(c *config.Config) { c.Reports.Baseline = generic.BaselineYears{From: 2028, To: 2020} }, "reports.baseline"},
		{"empty secret", func(c *config.Config) { c.Auth.Secret = "" }, "auth.secret"},
		{"reminders without interval", func(c *config.Config) { c.Reminders.Enabled = true }, "reminders.interval"},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestValidate_MemoryNeedsNoPath(t *testing.T) {
	c := config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Reports: config.ReportsConfig{GraceDay: 1, Baseline: generic.DefaultBaseline},
		Auth:    config.AuthConfig{Secret: "s"},
	}
	assert.NoError(t, c.Validate())
}
