// Package config provides configuration management for the backtest
// completion pipeline.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App             AppConfig       `mapstructure:"app" validate:"required"`
	AggregateStore  StoreConfig     `mapstructure:"aggregate_store" validate:"required"`
	TimeseriesStore StoreConfig     `mapstructure:"timeseries_store" validate:"required"`
	Generator       GeneratorConfig `mapstructure:"generator" validate:"required"`
	Pipeline        PipelineConfig  `mapstructure:"pipeline" validate:"required"`
	Engine          EngineConfig    `mapstructure:"engine"`
	Metrics         MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Health          HealthConfig    `mapstructure:"health"`
	Tracing         TracingConfig   `mapstructure:"tracing"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// StoreConfig represents one physical database store. The pipeline uses
// two: the aggregate store (backtests, result snapshots) and the
// timeseries store (trade log entries, holding records).
type StoreConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// DSN returns a PostgreSQL DSN string for the store.
func (s *StoreConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode,
	)
}

// GeneratorConfig represents the external narrative generator service
type GeneratorConfig struct {
	URL                   string  `mapstructure:"url" validate:"required,url"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryMax              int     `mapstructure:"retry_max" validate:"gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// RequestTimeout returns the bound applied to each generator call.
func (g *GeneratorConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// PipelineConfig represents completion pipeline tuning
type PipelineConfig struct {
	Workers                  int    `mapstructure:"workers" validate:"required,gt=0"`
	QueueSize                int    `mapstructure:"queue_size" validate:"required,gt=0"`
	ChunkSize                int    `mapstructure:"chunk_size" validate:"required,gt=0"`
	JobMappingTTLHours       int    `mapstructure:"job_mapping_ttl_hours" validate:"required,gt=0"`
	StaleRunningAfterMinutes int    `mapstructure:"stale_running_after_minutes" validate:"required,gt=0"`
	WatchdogSchedule         string `mapstructure:"watchdog_schedule" validate:"required"`
}

// EngineConfig represents the optional engine callback listener
type EngineConfig struct {
	ListenerEnabled  bool   `mapstructure:"listener_enabled"`
	CallbackURL      string `mapstructure:"callback_url"`
	ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port string `mapstructure:"port"`
}

// TracingConfig represents AWS X-Ray tracing configuration
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DaemonAddr   string  `mapstructure:"daemon_addr"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
