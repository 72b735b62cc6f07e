// Package config loads the searchcore configuration from YAML files with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the searchcore configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Monitor MonitorConfig `yaml:"monitor"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig holds API authentication settings. An empty key list disables
// authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings for the service binary.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds document/KV store connection settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Duration wraps time.Duration so YAML values like "300ms" or "5m" parse.
type Duration time.Duration

// UnmarshalYAML parses a duration string like "300ms" or "5m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SearchConfig holds the engine behavior toggles and bounds. The enable
// flags are tri-state: absent means enabled.
type SearchConfig struct {
	EnableCaching       *bool    `yaml:"enable_caching"`
	EnableFuzzyMatching *bool    `yaml:"enable_fuzzy_matching"`
	EnableAnalytics     *bool    `yaml:"enable_analytics"`
	DefaultLimit        int      `yaml:"default_limit"`
	MaxSearchTime       Duration `yaml:"max_search_time"`
	DebounceDelay       Duration `yaml:"debounce_delay"`
	DebounceMaxWait     Duration `yaml:"debounce_max_wait"`
}

// CacheConfig holds per-layer TTLs.
type CacheConfig struct {
	ResultsTTL      Duration `yaml:"results_ttl"`
	AutocompleteTTL Duration `yaml:"autocomplete_ttl"`
	AnalyticsTTL    Duration `yaml:"analytics_ttl"`
}

// MonitorConfig holds performance monitor settings.
type MonitorConfig struct {
	HistorySize int `yaml:"history_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "searchcore:"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxSearchTime <= 0 {
		c.Search.MaxSearchTime = Duration(5 * time.Second)
	}
	if c.Search.DebounceDelay <= 0 {
		c.Search.DebounceDelay = Duration(300 * time.Millisecond)
	}
	if c.Search.DebounceMaxWait <= 0 {
		c.Search.DebounceMaxWait = Duration(time.Second)
	}
	if c.Cache.ResultsTTL <= 0 {
		c.Cache.ResultsTTL = Duration(5 * time.Minute)
	}
	if c.Cache.AutocompleteTTL <= 0 {
		c.Cache.AutocompleteTTL = Duration(time.Minute)
	}
	if c.Cache.AnalyticsTTL <= 0 {
		c.Cache.AnalyticsTTL = Duration(10 * time.Minute)
	}
	if c.Monitor.HistorySize <= 0 {
		c.Monitor.HistorySize = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"memory\" or \"redis\", got %q", c.Store.Driver)
	}
	if c.Search.DebounceMaxWait < c.Search.DebounceDelay {
		return fmt.Errorf("search.debounce_max_wait must not be below search.debounce_delay")
	}
	return nil
}

// EnabledOr resolves a tri-state toggle: nil means the given default.
func EnabledOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
