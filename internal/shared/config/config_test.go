package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.App.IsProductionLike())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 8, cfg.Billing.SweepConcurrency)
	assert.Equal(t, 30*24*time.Hour, cfg.Billing.GrantValidity)
	assert.Equal(t, 3, cfg.Billing.ActivationDays)
	assert.Equal(t, "pixelmuse", cfg.Metrics.Namespace)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PIXELMUSE_BILLING_SWEEP_CONCURRENCY", "3")
	t.Setenv("PIXELMUSE_LOG_LEVEL", "debug")
	t.Setenv("CRON_SECRET", "s3cr3t")
	t.Setenv("PIXELMUSE_DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Billing.SweepConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3cr3t", cfg.Billing.CronSecret)
	assert.Equal(t, "pw", cfg.Database.Password)
}

func TestLoad_ProductionRequiresCronSecret(t *testing.T) {
	t.Setenv("PIXELMUSE_APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron_secret")

	t.Setenv("CRON_SECRET", "s3cr3t")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProductionLike())
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  env: staging
billing:
  cron_secret: from-file
  sweep_concurrency: 2
storage:
  bucket: reports
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProductionLike())
	assert.Equal(t, "from-file", cfg.Billing.CronSecret)
	assert.Equal(t, 2, cfg.Billing.SweepConcurrency)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "sweeps", cfg.Storage.Prefix)
}

func TestLoadFrom_MissingExplicitFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:     AppConfig{Env: "development"},
			Billing: BillingConfig{SweepConcurrency: 1, GrantValidity: time.Hour},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Billing.SweepConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Billing.GrantValidity = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.App.Env = "staging"
	assert.Error(t, cfg.Validate())
}
