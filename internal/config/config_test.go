package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Ledger.Backoff)
	assert.Equal(t, "snapshot", cfg.Ledger.PricePolicy)
}

func TestConfig_ConnectionString(t *testing.T) {
	var cfg config.Config
	cfg.DB.User = "app"
	cfg.DB.Password = "secret"
	cfg.DB.Host = "db"
	cfg.DB.Port = 5433
	cfg.DB.Name = "books"
	cfg.DB.SSLMode = "require"

	assert.Equal(t, "postgres://app:secret@db:5433/books?sslmode=require", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("EXCHANGE_PRICE_POLICY", "current")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "current", cfg.Ledger.PricePolicy)
	assert.Equal(t, 2, cfg.Ledger.MaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"Driver", "STORE_DRIVER", "sqlite"},
		{"PricePolicy", "EXCHANGE_PRICE_POLICY", "lowest"},
		{"Attempts", "LEDGER_MAX_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
