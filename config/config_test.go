package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/config"
	"github.com/warp/shiftpay/payroll"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "shiftpay.db", cfg.DB.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, payroll.DefaultBatchLimit, cfg.Payroll.BatchLimit)
	assert.False(t, cfg.Payroll.AutoFinalize)

	st, err := cfg.Payroll.Setting()
	require.NoError(t, err)
	assert.True(t, st.NormalWorkHoursPerMonth.Equal(payroll.DefaultSetting("").NormalWorkHoursPerMonth))
	assert.Equal(t, payroll.OvertimeMonthly, st.OvertimeCalculationType)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// GIVEN: A YAML file and an environment override
	path := filepath.Join(dir, "shiftpay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
log:
  level: debug
  format: console
payroll:
  batch_limit: 2
  defaults:
    overtime_calculation_type: hourly
`), 0o600))
	t.Setenv("SHIFTPAY_SERVER_PORT", "9090")

	// WHEN: Loading
	cfg, err := config.Load(path)

	// THEN: Env beats file, file beats defaults
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Payroll.BatchLimit)

	st, err := cfg.Payroll.Setting()
	require.NoError(t, err)
	assert.Equal(t, payroll.OvertimeHourly, st.OvertimeCalculationType)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHIFTPAY_DB_PATH=from-dotenv.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SHIFTPAY_DB_PATH") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DB.Path)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := config.Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *config.Config) { c.DB.Path = "" }},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"zero batch limit", func(c *config.Config) { c.Payroll.BatchLimit = 0 }},
		{"negative grace days", func(c *config.Config) { c.Payroll.GraceDays = -1 }},
		{"bad default rate", func(c *config.Config) { c.Payroll.Defaults.OvertimeRate1 = "abc" }},
		{"zero default rate", func(c *config.Config) { c.Payroll.Defaults.OvertimeRate2 = "0" }},
		{"unknown calculation type", func(c *config.Config) { c.Payroll.Defaults.OvertimeCalculationType = "WEEKLY" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
