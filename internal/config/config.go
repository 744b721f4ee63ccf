package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = "8080"
	defaultRateLimitRPS    = 25.0
	defaultRateLimitBurst  = 50
	defaultLogLevel        = "info"
	defaultStorageBackend  = StorageMemory
	defaultConfigsDir      = "data/configs"
	defaultMaxRequestItems = 10_000
)

// Storage backends accepted by StorageBackend.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `validate:"required,numeric"`
	ShutdownGracePeriod  time.Duration `validate:"gt=0"`
	ReadHeaderTimeout    time.Duration `validate:"gt=0"`
	WriteTimeout         time.Duration `validate:"gt=0"`
	IdleTimeout          time.Duration `validate:"gt=0"`
	EnableRequestLogging bool
	RateLimitRPS         float64 `validate:"gte=0"`
	RateLimitBurst       int     `validate:"gte=0"`
	LogLevel             string  `validate:"oneof=debug info warn error"`
	StorageBackend       string  `validate:"oneof=memory file"`
	ConfigsDir           string  `validate:"required_if=StorageBackend file"`
	ParallelCompare      bool
	MaxRequestItems      int `validate:"gt=0"`
}

// yamlConfig represents the YAML configuration file structure. Pointers
// distinguish an omitted key from an explicit zero.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Storage              yamlStorage   `yaml:"storage"`
	Solver               yamlSolver    `yaml:"solver"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlStorage struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type yamlSolver struct {
	ParallelCompare *bool `yaml:"parallel_compare"`
	MaxRequestItems *int  `yaml:"max_request_items"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not set.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
	LogLevel        *string
	StorageBackend  *string
	ConfigsDir      *string
	ParallelCompare *bool
	MaxRequestItems *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		StorageBackend:       defaultStorageBackend,
		ConfigsDir:           defaultConfigsDir,
		ParallelCompare:      true,
		MaxRequestItems:      defaultMaxRequestItems,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.Storage.Backend != "" {
		cfg.StorageBackend = strings.ToLower(yamlCfg.Storage.Backend)
	}
	if yamlCfg.Storage.Dir != "" {
		cfg.ConfigsDir = yamlCfg.Storage.Dir
	}

	if yamlCfg.Solver.ParallelCompare != nil {
		cfg.ParallelCompare = *yamlCfg.Solver.ParallelCompare
	}
	if yamlCfg.Solver.MaxRequestItems != nil {
		cfg.MaxRequestItems = *yamlCfg.Solver.MaxRequestItems
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if backend := env("STORAGE_BACKEND"); backend != "" {
		cfg.StorageBackend = strings.ToLower(backend)
	}

	if dir := env("CONFIGS_DIR"); dir != "" {
		cfg.ConfigsDir = dir
	}

	if parallel := env("PARALLEL_COMPARE"); parallel != "" {
		value, err := strconv.ParseBool(parallel)
		if err != nil {
			return fmt.Errorf("PARALLEL_COMPARE: %w", err)
		}
		cfg.ParallelCompare = value
	}

	if items := env("MAX_REQUEST_ITEMS"); items != "" {
		value, err := strconv.Atoi(items)
		if err != nil {
			return fmt.Errorf("MAX_REQUEST_ITEMS: %w", err)
		}
		cfg.MaxRequestItems = value
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}
	if overrides.StorageBackend != nil && *overrides.StorageBackend != "" {
		cfg.StorageBackend = strings.ToLower(*overrides.StorageBackend)
	}
	if overrides.ConfigsDir != nil && *overrides.ConfigsDir != "" {
		cfg.ConfigsDir = *overrides.ConfigsDir
	}
	if overrides.ParallelCompare != nil {
		cfg.ParallelCompare = *overrides.ParallelCompare
	}
	if overrides.MaxRequestItems != nil {
		cfg.MaxRequestItems = *overrides.MaxRequestItems
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s, got %v", fe.Field(), comparison(fe.Tag()), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func comparison(tag string) string {
	if tag == "gt" {
		return ">"
	}
	return ">="
}
