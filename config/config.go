// Package config loads application configuration.
//
// Precedence: built-in defaults < optional external YAML file < environment
// variables (prefix BUDGET_, dots become underscores). The loaded Config is
// returned to the caller and injected where needed; there is no package-level
// configuration state.
package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultYAML is the built-in configuration. External files override it
// key by key.
const defaultYAML = `
server:
  port: ":8080"
  cors_origins:
    - "http://localhost:5173"
    - "http://localhost:8080"

database:
  path: "budget.db"

budget:
  weekly_limit: 12000
  anchor_weekday: "wednesday"
`

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Budget   BudgetConfig   `mapstructure:"budget"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds the SQLite backend settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BudgetConfig holds engine settings.
type BudgetConfig struct {
	WeeklyLimit   float64 `mapstructure:"weekly_limit"`
	AnchorWeekday string  `mapstructure:"anchor_weekday"`
}

// Load reads configuration. configPath is optional; when empty, the usual
// locations (., ./config, /etc/budget-engine, $HOME/.budget-engine) are
// searched for a config.yaml.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBufferString(defaultYAML)); err != nil {
		return nil, fmt.Errorf("failed to read built-in config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		external := viper.New()
		external.SetConfigName("config")
		external.SetConfigType("yaml")
		external.AddConfigPath(".")
		external.AddConfigPath("./config")
		external.AddConfigPath("/etc/budget-engine")
		external.AddConfigPath("$HOME/.budget-engine")
		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				return nil, fmt.Errorf("failed to merge config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("BUDGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one
	// explicitly for the env override to take effect.
	for _, key := range []string{
		"server.port",
		"database.path",
		"budget.weekly_limit",
		"budget.anchor_weekday",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if !strings.HasPrefix(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}
	if _, err := cfg.AnchorWeekday(); err != nil {
		return nil, err
	}
	if cfg.Budget.WeeklyLimit <= 0 {
		return nil, fmt.Errorf("weekly_limit must be positive, got %v", cfg.Budget.WeeklyLimit)
	}

	return &cfg, nil
}

// AnchorWeekday parses the configured anchor weekday name.
func (c *Config) AnchorWeekday() (time.Weekday, error) {
	weekdays := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	wd, ok := weekdays[strings.ToLower(c.Budget.AnchorWeekday)]
	if !ok {
		return 0, fmt.Errorf("unknown anchor_weekday %q", c.Budget.AnchorWeekday)
	}
	return wd, nil
}
