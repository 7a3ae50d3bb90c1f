package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.BackendPostgres, cfg.Ledger.Backend)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 10, cfg.Ledger.LowStockThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CartTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "MEMORY")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "500")
	t.Setenv("REDIS_CART_TTL", "90m")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APP_ORG_NAME", "Hospital Central")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.LockTimeout, "entero = milisegundos")
	assert.Equal(t, 90*time.Minute, cfg.Redis.CartTTL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "Hospital Central", cfg.App.OrgName)
}

func TestLoad_DuracionInvalidaUsaDefecto(t *testing.T) {
	t.Setenv("LEDGER_LOCK_TIMEOUT", "pronto")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout)
}

func TestLoad_BackendDesconocido(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "mysql")

	_, err := config.Load()

	assert.ErrorContains(t, err, "LEDGER_BACKEND")
}

func TestValidate(t *testing.T) {
	base := config.Config{Ledger: config.LedgerConfig{Backend: config.BackendMemory, LockTimeout: time.Second}}
	require.NoError(t, base.Validate())

	sinTimeout := base
	sinTimeout.Ledger.LockTimeout = 0
	assert.Error(t, sinTimeout.Validate())

	umbral := base
	umbral.Ledger.LowStockThreshold = -1
	assert.Error(t, umbral.Validate())
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "suministros", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/suministros?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://otro"
	assert.Equal(t, "postgresql://otro", c.ConnectionString())
}
