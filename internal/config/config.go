package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/finanzas-dev/finanzas/internal/logger"
)

// FileName is the config file looked up in the data directory.
const FileName = "finanzas.yaml"

// Config represents the top-level finanzas.yaml configuration.
type Config struct {
	User     UserConfig       `yaml:"user"`
	Currency CurrencyConfig   `yaml:"currency"`
	Store    StoreConfig      `yaml:"store"`
	Log      logger.LogConfig `yaml:"log"`
	Credits  CreditsConfig    `yaml:"credits"`
}

// UserConfig identifies whose documents the CLI reads and writes.
type UserConfig struct {
	ID string `yaml:"id"`
}

// CurrencyConfig names the home currency of accounts and the foreign
// currency of the USD pool (ISO 4217 codes).
type CurrencyConfig struct {
	Home    string `yaml:"home"`
	Foreign string `yaml:"foreign"`
}

// StoreConfig selects the document backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite; memory keeps nothing past one command and is for tests
	Path   string `yaml:"path"`   // relative paths resolve against the config dir
	LogSQL bool   `yaml:"log_sql"`
}

// CreditsConfig tunes prepayment matching.
type CreditsConfig struct {
	Tolerance string `yaml:"tolerance"` // decimal, e.g. "0.01"
}

// Load reads a finanzas.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(userID string) *Config {
	return &Config{
		User: UserConfig{ID: userID},
		Currency: CurrencyConfig{
			Home:    "ARS",
			Foreign: "USD",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "finanzas.db",
		},
		Log: logger.DefaultConfig(),
		Credits: CreditsConfig{
			Tolerance: "0.01",
		},
	}
}

// ApplyEnv overrides fields from FINANZAS_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("FINANZAS_USER_ID", &c.User.ID)
	set("FINANZAS_CURRENCY_HOME", &c.Currency.Home)
	set("FINANZAS_CURRENCY_FOREIGN", &c.Currency.Foreign)
	set("FINANZAS_STORE_DRIVER", &c.Store.Driver)
	set("FINANZAS_STORE_PATH", &c.Store.Path)
	set("FINANZAS_LOG_LEVEL", &c.Log.Level)
	set("FINANZAS_LOG_FORMAT", &c.Log.Format)
	set("FINANZAS_LOG_OUTPUT", &c.Log.Output)
	set("FINANZAS_CREDITS_TOLERANCE", &c.Credits.Tolerance)

	if v := strings.TrimSpace(getenv("FINANZAS_STORE_LOG_SQL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing FINANZAS_STORE_LOG_SQL %q: %w", v, err)
		}
		c.Store.LogSQL = b
	}
	return nil
}

// StorePath resolves the store path against dir.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}
