package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setupConfigTest isolates HOME and blanks overrides. Viper treats empty
// variables as unset. t.Setenv rules out t.Parallel here.
func setupConfigTest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STATEMENTS_CONFIG", "")
	for _, k := range []string{"STATEMENTS_DATABASE_PATH", "STATEMENTS_DATABASE_DRIVER", "STATEMENTS_LOG_LEVEL", "STATEMENTS_COINBASE_DEFAULT_CURRENCY"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setupConfigTest(t)

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "statements", "statements.db"), c.Database.Path)
	require.Equal(t, "sqlite3", c.Database.Driver)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, 24*time.Hour, c.Symbols.CacheTTL)
	require.False(t, c.Symbols.Offline)
	require.Equal(t, "GBP", c.Coinbase.DefaultCurrency)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := setupConfigTest(t)

	path := filepath.Join(home, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
driver = "sqlite"

[symbols]
cache_ttl = "30m"
offline = true

[coinbase]
default_currency = "eur"
`), 0o600))
	t.Setenv("STATEMENTS_CONFIG", path)
	t.Setenv("STATEMENTS_LOG_LEVEL", "debug")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", c.Database.Driver)
	require.Equal(t, 30*time.Minute, c.Symbols.CacheTTL)
	require.True(t, c.Symbols.Offline)
	require.Equal(t, "EUR", c.Coinbase.DefaultCurrency)
	require.Equal(t, "debug", c.Log.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	home := setupConfigTest(t)

	t.Setenv("STATEMENTS_COINBASE_DEFAULT_CURRENCY", "ETH")
	_, err := Load()
	require.ErrorContains(t, err, "default_currency")

	t.Setenv("STATEMENTS_COINBASE_DEFAULT_CURRENCY", "USD")
	t.Setenv("STATEMENTS_DATABASE_DRIVER", "postgres")
	_, err = Load()
	require.ErrorContains(t, err, "database.driver")

	t.Setenv("STATEMENTS_DATABASE_DRIVER", "")
	t.Setenv("STATEMENTS_CONFIG", filepath.Join(home, "missing.toml"))
	_, err = Load()
	require.ErrorContains(t, err, "read config")
}
