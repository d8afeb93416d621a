/*
Package config loads the application configuration.

PRECEDENCE (highest first):
  1. Environment variables, prefixed SHIFTPAY_ (server.port -> SHIFTPAY_SERVER_PORT)
  2. A .env file in the working directory, loaded into the environment
  3. The YAML config file (explicit path, or ./config/config.yaml, ./config.yaml)
  4. Defaults below

SECTIONS:
  server:  HTTP port, CORS origins, timeouts
  db:      SQLite path
  log:     zap level and format (json | console)
  payroll: Run concurrency, auto-finalize scheduler, defaults for tenants
           without a stored setting
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/warp/shiftpay/payroll"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Payroll PayrollConfig `mapstructure:"payroll"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	// Path is a file path or ":memory:".
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PayrollConfig struct {
	BatchLimit int `mapstructure:"batch_limit"`

	// AutoFinalize finalizes open periods GraceDays after they end.
	AutoFinalize     bool          `mapstructure:"auto_finalize"`
	FinalizeInterval time.Duration `mapstructure:"finalize_interval"`
	GraceDays        int           `mapstructure:"grace_days"`

	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig mirrors payroll.Setting. Values are strings so they parse
// into exact decimals.
type DefaultsConfig struct {
	NormalWorkHoursPerDay   string `mapstructure:"normal_work_hours_per_day"`
	NormalWorkHoursPerMonth string `mapstructure:"normal_work_hours_per_month"`
	OvertimeRate1           string `mapstructure:"overtime_rate_1"`
	OvertimeRate2           string `mapstructure:"overtime_rate_2"`
	OvertimeRateWeekend1    string `mapstructure:"overtime_rate_weekend_1"`
	OvertimeRateWeekend2    string `mapstructure:"overtime_rate_weekend_2"`
	OvertimeRateWeekend3    string `mapstructure:"overtime_rate_weekend_3"`
	OvertimeCalculationType string `mapstructure:"overtime_calculation_type"`
}

// Load reads the configuration. path may be empty to search the default
// locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("db.path", "shiftpay.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	d := payroll.DefaultSetting("")
	v.SetDefault("payroll.batch_limit", payroll.DefaultBatchLimit)
	v.SetDefault("payroll.auto_finalize", false)
	v.SetDefault("payroll.finalize_interval", "1h")
	v.SetDefault("payroll.grace_days", 3)
	v.SetDefault("payroll.defaults.normal_work_hours_per_day", d.NormalWorkHoursPerDay.String())
	v.SetDefault("payroll.defaults.normal_work_hours_per_month", d.NormalWorkHoursPerMonth.String())
	v.SetDefault("payroll.defaults.overtime_rate_1", d.OvertimeRate1.String())
	v.SetDefault("payroll.defaults.overtime_rate_2", d.OvertimeRate2.String())
	v.SetDefault("payroll.defaults.overtime_rate_weekend_1", d.OvertimeRateWeekend1.String())
	v.SetDefault("payroll.defaults.overtime_rate_weekend_2", d.OvertimeRateWeekend2.String())
	v.SetDefault("payroll.defaults.overtime_rate_weekend_3", d.OvertimeRateWeekend3.String())
	v.SetDefault("payroll.defaults.overtime_calculation_type", string(d.OvertimeCalculationType))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHIFTPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and that the payroll defaults form a valid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.DB.Path == "" {
		return errors.New("invalid config: db.path is required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Payroll.BatchLimit < 1 {
		return fmt.Errorf("invalid config: payroll.batch_limit must be at least 1, got %d", c.Payroll.BatchLimit)
	}
	if c.Payroll.AutoFinalize && c.Payroll.FinalizeInterval <= 0 {
		return errors.New("invalid config: payroll.finalize_interval must be positive")
	}
	if c.Payroll.GraceDays < 0 {
		return fmt.Errorf("invalid config: payroll.grace_days must not be negative, got %d", c.Payroll.GraceDays)
	}
	if _, err := c.Payroll.Setting(); err != nil {
		return fmt.Errorf("invalid config: payroll.defaults: %w", err)
	}
	return nil
}

// Setting converts the configured defaults into a payroll setting template.
func (p PayrollConfig) Setting() (payroll.Setting, error) {
	d := p.Defaults
	var s payroll.Setting
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"normal_work_hours_per_day", d.NormalWorkHoursPerDay, &s.NormalWorkHoursPerDay},
		{"normal_work_hours_per_month", d.NormalWorkHoursPerMonth, &s.NormalWorkHoursPerMonth},
		{"overtime_rate_1", d.OvertimeRate1, &s.OvertimeRate1},
		{"overtime_rate_2", d.OvertimeRate2, &s.OvertimeRate2},
		{"overtime_rate_weekend_1", d.OvertimeRateWeekend1, &s.OvertimeRateWeekend1},
		{"overtime_rate_weekend_2", d.OvertimeRateWeekend2, &s.OvertimeRateWeekend2},
		{"overtime_rate_weekend_3", d.OvertimeRateWeekend3, &s.OvertimeRateWeekend3},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return payroll.Setting{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	s.OvertimeCalculationType = payroll.OvertimeCalculationType(strings.ToUpper(d.OvertimeCalculationType))
	return s, s.Validate()
}
