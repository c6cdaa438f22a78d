package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected default environment production, got %q", cfg.Environment)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected default log level INFO, got %q", cfg.LogLevel)
	}
	if cfg.SettingsCacheTTLSeconds != 300 {
		t.Errorf("expected default settings cache TTL 300, got %d", cfg.SettingsCacheTTLSeconds)
	}
}

func TestLoadInvalidEnvironment(t *testing.T) {
	os.Setenv("LEAGR_ENVIRONMENT", "invalid-env")
	defer os.Unsetenv("LEAGR_ENVIRONMENT")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid environment, got none")
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	os.Setenv("LEAGR_LOG_LEVEL", "INVALID")
	defer os.Unsetenv("LEAGR_LOG_LEVEL")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid log level, got none")
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	os.Setenv("LEAGR_PORT", "9090")
	os.Setenv("LEAGR_DATA_DIR", "/tmp/leagr-data")
	defer os.Unsetenv("LEAGR_PORT")
	defer os.Unsetenv("LEAGR_DATA_DIR")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port overridden to 9090, got %q", cfg.Port)
	}
	if cfg.DataDir != "/tmp/leagr-data" {
		t.Errorf("expected data dir overridden, got %q", cfg.DataDir)
	}
}

func TestLoadUsePollingDefaultsFalseAndRespectsEnv(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.UsePolling {
		t.Error("expected use_polling to default to false")
	}

	os.Setenv("LEAGR_USE_POLLING", "true")
	defer os.Unsetenv("LEAGR_USE_POLLING")

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.UsePolling {
		t.Error("expected LEAGR_USE_POLLING=true to set UsePolling")
	}
}

func TestSummaryExposesFields(t *testing.T) {
	cfg := &Config{
		Port: "8080", DataDir: "./data", Environment: "production",
		LogLevel: "INFO", CORSOrigins: []string{"*"},
	}
	summary := cfg.Summary()
	if summary["port"] != cfg.Port {
		t.Error("expected port present in summary")
	}
	if summary["data_dir"] != cfg.DataDir {
		t.Error("expected data_dir present in summary")
	}
}
