// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Query     QueryConfig     `mapstructure:"query"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ExchangesConfig holds market data provider configuration.
type ExchangesConfig struct {
	Enabled           []string      `mapstructure:"enabled"` // evaluation order is this order
	Product           string        `mapstructure:"product"`
	DepthLimit        int           `mapstructure:"depth_limit"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BitflyerURL       string        `mapstructure:"bitflyer_url"`
	CoincheckURL      string        `mapstructure:"coincheck_url"`
	BitbankURL        string        `mapstructure:"bitbank_url"`
}

// PipelineConfig holds monitoring cycle configuration.
type PipelineConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	RulesPath string        `mapstructure:"rules_path"`
}

// StorageConfig holds snapshot persistence configuration.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "jsonl" or "sqlite"
	Dir     string `mapstructure:"dir"`     // jsonl backend
	DSN     string `mapstructure:"dsn"`     // sqlite backend
}

// AlertingConfig holds notification channel configuration.
type AlertingConfig struct {
	ConsolePrefix  string            `mapstructure:"console_prefix"`
	ChatChannel    string            `mapstructure:"chat_channel"`
	WebhookURL     string            `mapstructure:"webhook_url"`
	WebhookTimeout time.Duration     `mapstructure:"webhook_timeout"`
	WebhookHeaders map[string]string `mapstructure:"webhook_headers"`
}

// QueryConfig holds the read-only query API configuration.
type QueryConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // "zipkin", "console" or empty
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("MON")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "MON_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "MON_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "MON_LOG_LEVEL", "LOG_LEVEL")

	// Exchanges
	v.BindEnv("exchanges.enabled", "MON_EXCHANGES")
	v.BindEnv("exchanges.product", "MON_PRODUCT")
	v.BindEnv("exchanges.fetch_timeout", "MON_FETCH_TIMEOUT")

	// Pipeline
	v.BindEnv("pipeline.interval", "MON_INTERVAL")
	v.BindEnv("pipeline.rules_path", "MON_RULES_PATH")

	// Storage
	v.BindEnv("storage.backend", "MON_STORAGE_BACKEND")
	v.BindEnv("storage.dir", "MON_STORAGE_DIR")
	v.BindEnv("storage.dsn", "MON_STORAGE_DSN")

	// Alerting
	v.BindEnv("alerting.webhook_url", "MON_WEBHOOK_URL", "WEBHOOK_URL")
	v.BindEnv("alerting.webhook_timeout", "MON_WEBHOOK_TIMEOUT")

	// Query
	v.BindEnv("query.port", "MON_QUERY_PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "MON_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "MON_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "MON_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "spread-monitor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Exchange defaults
	v.SetDefault("exchanges.enabled", []string{"bitFlyer", "Coincheck", "bitbank"})
	v.SetDefault("exchanges.product", "BTC_JPY")
	v.SetDefault("exchanges.depth_limit", 5)
	v.SetDefault("exchanges.fetch_timeout", "10s")
	v.SetDefault("exchanges.requests_per_minute", 60)
	v.SetDefault("exchanges.bitflyer_url", "https://api.bitflyer.com")
	v.SetDefault("exchanges.coincheck_url", "https://coincheck.com")
	v.SetDefault("exchanges.bitbank_url", "https://public.bitbank.cc")

	// Pipeline defaults
	v.SetDefault("pipeline.interval", "5s")
	v.SetDefault("pipeline.rules_path", "rules.json")

	// Storage defaults
	v.SetDefault("storage.backend", "jsonl")
	v.SetDefault("storage.dir", "storage_snapshots")
	v.SetDefault("storage.dsn", "spread-monitor.db")

	// Alerting defaults
	v.SetDefault("alerting.console_prefix", "[ALERT]")
	v.SetDefault("alerting.chat_channel", "#alerts")
	v.SetDefault("alerting.webhook_timeout", "10s")

	// Query defaults
	v.SetDefault("query.port", 8080)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "spread-monitor")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Exchanges.Enabled) == 0 {
		return fmt.Errorf("exchanges.enabled cannot be empty")
	}
	for _, name := range c.Exchanges.Enabled {
		switch name {
		case "bitFlyer", "Coincheck", "bitbank":
		default:
			return fmt.Errorf("unknown exchange: %s", name)
		}
	}
	if c.Pipeline.Interval <= 0 {
		return fmt.Errorf("pipeline.interval must be positive")
	}
	switch c.Storage.Backend {
	case "jsonl":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the jsonl backend")
		}
	case "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Alerting.WebhookURL != "" && c.Alerting.WebhookTimeout <= 0 {
		return fmt.Errorf("alerting.webhook_timeout must be positive")
	}
	return nil
}
