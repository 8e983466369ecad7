package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docquery CLI configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Query     QueryConfig     `yaml:"query"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// SearchConfig holds search endpoint settings.
type SearchConfig struct {
	Endpoint         string `yaml:"endpoint"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	ProtectedContent bool   `yaml:"protected_content"`
	CompleteContext  bool   `yaml:"complete_context"`
	DefaultRows      int    `yaml:"default_rows"`
}

// QueryConfig describes the query the CLI runs.
type QueryConfig struct {
	DocumentType   string     `yaml:"document_type"`
	Text           string     `yaml:"text"`
	Filters        []Filter   `yaml:"filters"`
	Sort           []SortRule `yaml:"sort"`
	Fields         []string   `yaml:"fields"`
	Rows           int        `yaml:"rows"`
	Pages          int        `yaml:"pages"`
	IncludeDraft   bool       `yaml:"include_draft"`
	IncludeRetired bool       `yaml:"include_retired"`
}

// Filter is a field:value clause, or a raw clause when Field is empty.
type Filter struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
	Raw   string `yaml:"raw"`
}

// SortRule is a single sort directive.
type SortRule struct {
	Field string `yaml:"field"`
	Order string `yaml:"order"` // asc (default), desc
}

// SnapshotsConfig holds the snapshot store connection. Disabled when Addrs is empty.
type SnapshotsConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a snapshot store is configured.
func (s SnapshotsConfig) Enabled() bool { return len(s.Addrs) > 0 }

// MetricsConfig holds the metrics endpoint settings. Disabled when Addr is empty.
type MetricsConfig struct {
	Addr        string `yaml:"addr"`
	ShutdownSec int    `yaml:"shutdown_timeout_sec"`
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
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Search.DefaultRows <= 0 {
		c.Search.DefaultRows = 10
	}
	if c.Query.DocumentType == "" {
		c.Query.DocumentType = "record"
	}
	if c.Query.Pages <= 0 {
		c.Query.Pages = 1
	}
	if c.Snapshots.Driver == "" {
		c.Snapshots.Driver = "valkey"
	}
	if c.Snapshots.KeyPrefix == "" {
		c.Snapshots.KeyPrefix = "docquery:"
	}
	if c.Snapshots.TTLSec <= 0 {
		c.Snapshots.TTLSec = 86400
	}
	if c.Snapshots.ReadinessTimeout <= 0 {
		c.Snapshots.ReadinessTimeout = 10
	}
	if c.Metrics.ShutdownSec <= 0 {
		c.Metrics.ShutdownSec = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint is required")
	}
	if c.Query.Rows < 0 {
		return fmt.Errorf("query.rows must not be negative, got %d", c.Query.Rows)
	}
	for i, f := range c.Query.Filters {
		if f.Raw == "" && (f.Field == "" || f.Value == "") {
			return fmt.Errorf("query.filters[%d] needs field and value, or raw", i)
		}
	}
	for i, s := range c.Query.Sort {
		if s.Field == "" {
			return fmt.Errorf("query.sort[%d].field is required", i)
		}
		switch s.Order {
		case "", "asc", "desc":
			// ok
		default:
			return fmt.Errorf("query.sort[%d].order must be \"asc\" or \"desc\", got %q", i, s.Order)
		}
	}
	switch c.Snapshots.Driver {
	case "valkey", "redis":
		// ok
	default:
		return fmt.Errorf("snapshots.driver must be \"valkey\" or \"redis\", got %q", c.Snapshots.Driver)
	}
	return nil
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
