// Package config provides configuration management for the backtest
// completion pipeline.
package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	expansionConfigPath   = "testdata/expansion_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	expectedNoErrorMsg    = "expected no error, got %v"
)

func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "backtest-pipeline" {
		t.Errorf("expected app name 'backtest-pipeline', got '%s'", cfg.App.Name)
	}

	if cfg.AggregateStore.Port != 5432 {
		t.Errorf("expected aggregate store port 5432, got %d", cfg.AggregateStore.Port)
	}

	if cfg.TimeseriesStore.Port != 5433 {
		t.Errorf("expected timeseries store port 5433, got %d", cfg.TimeseriesStore.Port)
	}

	if cfg.Pipeline.ChunkSize != 1000 {
		t.Errorf("expected chunk size 1000, got %d", cfg.Pipeline.ChunkSize)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_STORE_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_STORE_PASSWORD")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.AggregateStore.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.AggregateStore.Password)
	}
}

func TestLoadWithDefaultsToleratesMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.WatchdogSchedule != "*/15 * * * *" {
		t.Errorf("unexpected default watchdog schedule '%s'", cfg.Pipeline.WatchdogSchedule)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("unexpected default metrics path '%s'", cfg.Metrics.Path)
	}
}

func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsSameStore(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.TimeseriesStore = cfg.AggregateStore
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected error when both stores share one database")
	}
	if !strings.Contains(err.Error(), "same database") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateProductionRequiresSSL(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.App.Environment = "production"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for disabled SSL in production")
	}

	cfg.AggregateStore.SSLMode = "require"
	cfg.TimeseriesStore.SSLMode = "require"
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.App.Environment = "qa"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestValidateRejectsBadWatchdogSchedule(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.Pipeline.WatchdogSchedule = "every fortnight"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unparseable schedule")
	}
}

func TestValidateListenerRequiresCallbackURL(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.Engine.ListenerEnabled = true
	cfg.Engine.CallbackURL = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for listener without callback URL")
	}

	cfg.Engine.CallbackURL = "ws://engine:9000/callbacks"
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid listener config, got %v", err)
	}
}

func TestStoreDSN(t *testing.T) {
	store := StoreConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "backtests",
		User:     "svc",
		Password: "pw",
		SSLMode:  "require",
	}

	dsn := store.DSN()
	want := "postgres://svc:pw@db.internal:5432/backtests?sslmode=require"
	if dsn != want {
		t.Errorf("expected DSN %q, got %q", want, dsn)
	}
}
