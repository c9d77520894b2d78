package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Minute, cfg.ReconciliacionInterval)
	assert.Equal(t, 10*time.Second, cfg.CajaLockTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.InDelta(t, 20.0, cfg.RateLimitRPS, 0.001)
	assert.False(t, cfg.DBAutoMigrate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RECONCILIACION_INTERVAL", "30s")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("RECAUDACION_NOTIFY_EMAIL", "gerencia@tienda.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.ReconciliacionInterval)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, "gerencia@tienda.test", cfg.RecaudacionNotifyEmail)
}
