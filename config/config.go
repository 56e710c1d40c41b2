/*
Package config loads server settings from defaults, an optional config
file, a .env file and REMIT_* environment variables.

PRECEDENCE (highest first):
  1. explicit overrides from command-line flags (applied by cmd/server)
  2. environment variables, e.g. REMIT_SERVER_PORT, REMIT_STORAGE_DRIVER
  3. .env file in the working directory (loaded into the environment)
  4. config file (YAML/JSON/TOML, any format viper reads)
  5. defaults below

KEYS:
  server.port            HTTP port
  server.cors_origins    allowed origins
  storage.driver         sqlite | jsonfile | memory
  storage.path           database file or data directory
  directory.path         directory YAML override (empty = embedded Basra)
  reports.grace_day      last grace day of the month
  reports.baseline_from  first baseline year
  reports.baseline_to    last baseline year
  auth.secret            JWT signing secret
  auth.token_ttl         session lifetime
  reminders.enabled      run the reminder scheduler
  reminders.interval     scheduler tick
  log.level              debug | info | warn | error
  log.development        console encoder instead of JSON
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/remittance-engine/generic"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverJSONFile = "jsonfile"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Directory DirectoryConfig
	Reports   ReportsConfig
	Auth      AuthConfig
	Reminders RemindersConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type StorageConfig struct {
	Driver string
	Path   string
}

type DirectoryConfig struct {
	Path string
}

type ReportsConfig struct {
	GraceDay int
	Baseline generic.BaselineYears
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type RemindersConfig struct {
	Enabled  bool
	Interval time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

// DefaultSecret is only acceptable for local runs.
const DefaultSecret = "change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "./data/remittance.db")
	v.SetDefault("directory.path", "")
	v.SetDefault("reports.grace_day", 20)
	v.SetDefault("reports.baseline_from", generic.DefaultBaseline.From)
	v.SetDefault("reports.baseline_to", generic.DefaultBaseline.To)
	v.SetDefault("auth.secret", DefaultSecret)
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("reminders.enabled", false)
	v.SetDefault("reminders.interval", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("REMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			CORSOrigins: splitList(v.GetStringSlice("server.cors_origins")),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Path:   v.GetString("storage.path"),
		},
		Directory: DirectoryConfig{Path: v.GetString("directory.path")},
		Reports: ReportsConfig{
			GraceDay: v.GetInt("reports.grace_day"),
			Baseline: generic.BaselineYears{
				From: v.GetInt("reports.baseline_from"),
				To:   v.GetInt("reports.baseline_to"),
			},
		},
		Auth: AuthConfig{
			Secret:   v.GetString("auth.secret"),
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		Reminders: RemindersConfig{
			Enabled:  v.GetBool("reminders.enabled"),
			Interval: v.GetDuration("reminders.interval"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverSQLite, DriverJSONFile, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver != DriverMemory && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path: required"))
	}
	if c.Reports.GraceDay < 1 || c.Reports.GraceDay > 28 {
		errs = append(errs, fmt.Errorf("reports.grace_day: %d not in 1..28", c.Reports.GraceDay))
	}
	if c.Reports.Baseline.From > c.Reports.Baseline.To {
		errs = append(errs, fmt.Errorf("reports.baseline: from %d after to %d", c.Reports.Baseline.From, c.Reports.Baseline.To))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret: required"))
	}
	if c.Reminders.Enabled && c.Reminders.Interval <= 0 {
		errs = append(errs, errors.New("reminders.interval: must be positive"))
	}
	return errors.Join(errs...)
}

// splitList accepts both a YAML list and a comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
