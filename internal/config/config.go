package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"supply-alerts/internal/logging"
)

const (
	// DefaultTransparencyURL is Tether's public transparency feed.
	DefaultTransparencyURL = "https://app.tether.to/transparency.json"
	// DefaultNtfyBaseURL is the public ntfy gateway.
	DefaultNtfyBaseURL = "https://ntfy.sh"
	// DefaultClickURL points at a supply chart for the alert click-through.
	DefaultClickURL = "https://studio.glassnode.com/charts/supply.Current?a=USDT&category=Supply"
)

// Config materialises application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logging      logging.Config     `mapstructure:"logging"`
	Transparency TransparencyConfig `mapstructure:"transparency"`
	Alerting     AlertingConfig     `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// TransparencyConfig covers the upstream feed.
type TransparencyConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines the supply threshold and routing.
type AlertingConfig struct {
	// SupplyMin is nil until set by config, environment or flag; zero and
	// negative minimums are valid.
	SupplyMin *float64   `mapstructure:"supply_min"`
	Ntfy      NtfyConfig `mapstructure:"ntfy"`
}

// NtfyConfig describes the ntfy push gateway.
type NtfyConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Topic          string        `mapstructure:"topic"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ClickURL       string        `mapstructure:"click_url"`
}

// Load builds configuration from .env, file, environment, and defaults.
// USDTWATCHER_ENV_FILE selects a dotenv file other than ./.env.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(os.Getenv("USDTWATCHER_ENV_FILE")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("USDTWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv populates the process environment from a dotenv file without
// overriding variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "usdtwatcher")
	v.SetDefault("app.environment", "production")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_age_days", 14)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("transparency.url", DefaultTransparencyURL)
	v.SetDefault("transparency.request_timeout", "30s")
	v.SetDefault("transparency.user_agent", "usdtwatcher/1.0")

	// no default: an unset minimum must stay distinguishable from zero
	_ = v.BindEnv("alerting.supply_min")
	v.SetDefault("alerting.ntfy.base_url", DefaultNtfyBaseURL)
	v.SetDefault("alerting.ntfy.topic", "")
	v.SetDefault("alerting.ntfy.request_timeout", "10s")
	v.SetDefault("alerting.ntfy.click_url", DefaultClickURL)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if err := validateHTTPURL("transparency.url", c.Transparency.URL); err != nil {
		return err
	}
	if c.Transparency.RequestTimeout < 0 {
		return fmt.Errorf("transparency.request_timeout cannot be negative")
	}
	if c.Alerting.Ntfy.RequestTimeout < 0 {
		return fmt.Errorf("alerting.ntfy.request_timeout cannot be negative")
	}
	if c.Alerting.Ntfy.ClickURL != "" {
		if err := validateHTTPURL("alerting.ntfy.click_url", c.Alerting.Ntfy.ClickURL); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCheck verifies the two inputs a supply check cannot run without.
func (c *Config) ValidateCheck() error {
	if strings.TrimSpace(c.Alerting.Ntfy.Topic) == "" {
		return fmt.Errorf("ntfy topic is required (--ntfy-topic or USDTWATCHER_ALERTING_NTFY_TOPIC)")
	}
	if c.Alerting.SupplyMin == nil {
		return fmt.Errorf("supply minimum is required (--supply-min or alerting.supply_min)")
	}
	if math.IsNaN(*c.Alerting.SupplyMin) || math.IsInf(*c.Alerting.SupplyMin, 0) {
		return fmt.Errorf("supply minimum must be a finite number, got %v", *c.Alerting.SupplyMin)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid url: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url", field)
	}
	return nil
}
