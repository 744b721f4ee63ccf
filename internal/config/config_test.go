package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL",
		"STORAGE_BACKEND", "CONFIGS_DIR", "PARALLEL_COMPARE", "MAX_REQUEST_ITEMS",
	} {
		t.Setenv(key, "")
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.StorageBackend != StorageMemory || !cfg.ParallelCompare {
		t.Fatalf("unexpected solver defaults: %+v", cfg)
	}
	if cfg.MaxRequestItems != defaultMaxRequestItems || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("CONFIGS_DIR", "/tmp/configs")
	t.Setenv("PARALLEL_COMPARE", "false")
	t.Setenv("MAX_REQUEST_ITEMS", "500")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lower-cased log level, got %s", cfg.LogLevel)
	}
	if cfg.StorageBackend != StorageFile || cfg.ConfigsDir != "/tmp/configs" {
		t.Fatalf("unexpected storage settings: %s %s", cfg.StorageBackend, cfg.ConfigsDir)
	}
	if cfg.ParallelCompare || cfg.MaxRequestItems != 500 {
		t.Fatalf("unexpected solver settings: %+v", cfg)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARALLEL_COMPARE", "sometimes")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for malformed PARALLEL_COMPARE")
	}
}

func TestLoadYAMLOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("RATE_LIMIT_RPS", "3")

	path := writeYAML(t, `
port: "7000"
write_timeout: 30s
enable_request_logging: false
log_level: warn
rate_limit:
  burst: 5
storage:
  backend: file
  dir: ./saved
solver:
  parallel_compare: false
  max_request_items: 250
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7000" {
		t.Fatalf("expected YAML port, got %s", cfg.Port)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("expected 30s write timeout, got %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to be disabled")
	}
	if cfg.RateLimitRPS != 3 || cfg.RateLimitBurst != 5 {
		t.Fatalf("expected env rps and YAML burst, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.StorageBackend != StorageFile || cfg.ConfigsDir != "./saved" {
		t.Fatalf("unexpected storage settings: %s %s", cfg.StorageBackend, cfg.ConfigsDir)
	}
	if cfg.ParallelCompare || cfg.MaxRequestItems != 250 || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected solver settings: %+v", cfg)
	}
}

func TestLoadYAMLKeepsDefaultsForOmittedKeys(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "port: \"7000\"\n")

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging default to survive")
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected default rate limit, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(&CLIOverrides{ConfigFile: writeYAML(t, "port: [")}); err == nil {
		t.Fatalf("expected error for malformed YAML")
	}
	if _, err := Load(&CLIOverrides{ConfigFile: writeYAML(t, "idle_timeout: soon\n")}); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestCLIOverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	path := writeYAML(t, "port: \"7000\"\nsolver:\n  parallel_compare: true\n")

	port := "6000"
	rps := 0.0
	parallel := false
	items := 42
	cfg, err := Load(&CLIOverrides{
		ConfigFile:      path,
		Port:            &port,
		RateLimitRPS:    &rps,
		ParallelCompare: &parallel,
		MaxRequestItems: &items,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "6000" || cfg.RateLimitRPS != 0 || cfg.ParallelCompare || cfg.MaxRequestItems != 42 {
		t.Fatalf("expected CLI overrides to win, got %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		name    string
		mutate  func(*CLIOverrides)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(o *CLIOverrides) { v := "redis"; o.StorageBackend = &v },
			wantErr: "StorageBackend must be one of",
		},
		{
			name:    "unknown log level",
			mutate:  func(o *CLIOverrides) { v := "loud"; o.LogLevel = &v },
			wantErr: "LogLevel must be one of",
		},
		{
			name:    "negative burst",
			mutate:  func(o *CLIOverrides) { v := -1; o.RateLimitBurst = &v },
			wantErr: "RateLimitBurst must be >=",
		},
		{
			name:    "zero max items",
			mutate:  func(o *CLIOverrides) { v := 0; o.MaxRequestItems = &v },
			wantErr: "MaxRequestItems must be >",
		},
		{
			name:    "non-numeric port",
			mutate:  func(o *CLIOverrides) { v := "http"; o.Port = &v },
			wantErr: "Port",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			overrides := &CLIOverrides{}
			tc.mutate(overrides)

			_, err := Load(overrides)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
