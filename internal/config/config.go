package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/database"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Refdata  RefdataConfig  `mapstructure:"refdata"`
	Symbols  SymbolsConfig  `mapstructure:"symbols"`
	Coinbase CoinbaseConfig `mapstructure:"coinbase"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path   string `mapstructure:"path"`
	Driver string `mapstructure:"driver"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// RefdataConfig points at the reference data file. Empty means built-in
// defaults.
type RefdataConfig struct {
	Path string `mapstructure:"path"`
}

// SymbolsConfig controls exchange lookups.
type SymbolsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Offline  bool          `mapstructure:"offline"`
}

// CoinbaseConfig holds Coinbase report settings.
type CoinbaseConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// EnvPrefix prefixes every environment override, e.g. STATEMENTS_DATABASE_PATH.
const EnvPrefix = "STATEMENTS"

// Load reads configuration from .env, file and env. Env var overrides use
// prefix STATEMENTS_.
func Load() (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "statements", "statements.db"))
	v.SetDefault("database.driver", database.DriverSQLite3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("refdata.path", filepath.Join(home, ".config", "statements", "refdata.toml"))
	v.SetDefault("symbols.cache_ttl", "24h")
	v.SetDefault("symbols.offline", false)
	v.SetDefault("coinbase.default_currency", "GBP")

	v.SetConfigType("toml")

	cfgPath := os.Getenv(EnvPrefix + "_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "statements"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the default location may not.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings that would only fail later, mid-run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("config: database.path is empty")
	}
	switch c.Database.Driver {
	case database.DriverSQLite3, database.DriverSQLite:
	default:
		return fmt.Errorf("config: database.driver %q is not one of %s, %s", c.Database.Driver, database.DriverSQLite3, database.DriverSQLite)
	}
	c.Coinbase.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Coinbase.DefaultCurrency))
	if !canonical.IsFiat(c.Coinbase.DefaultCurrency) {
		return fmt.Errorf("config: coinbase.default_currency %q is not an ISO 4217 currency", c.Coinbase.DefaultCurrency)
	}
	if c.Symbols.CacheTTL < 0 {
		return fmt.Errorf("config: symbols.cache_ttl %s is negative", c.Symbols.CacheTTL)
	}
	return nil
}
