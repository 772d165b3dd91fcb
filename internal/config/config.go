package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the huectl configuration
type Config struct {
	Hue      HueConfig      `yaml:"hue"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Script   ScriptConfig   `yaml:"script"`
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge       string   `yaml:"bridge"`
	Token        string   `yaml:"token"`
	Timeout      Duration `yaml:"timeout"`        // HTTP timeout for bridge requests
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Max writes per second, negative disables (default: 10)
	DeviceType   string   `yaml:"device_type"`    // Device type used when registering a user
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the configured level, defaulting to info
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// CacheConfig contains light cache settings
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"` // If false, always fetch fresh state (default: false)
	TTL     Duration `yaml:"ttl"`     // Only used if enabled
}

// LedgerConfig contains command ledger settings
type LedgerConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// Retention returns the retention window as a duration
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ScriptConfig contains Lua script settings
type ScriptConfig struct {
	Timeout Duration `yaml:"timeout"` // Max run time of a script, 0 = no limit
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./huectl.sqlite"
	}

	// Hue defaults
	if cfg.Hue.Timeout == 0 {
		cfg.Hue.Timeout = Duration(30 * time.Second)
	}
	if cfg.Hue.RateLimitRPS == 0 {
		cfg.Hue.RateLimitRPS = 10.0 // 10 requests per second
	}
	if cfg.Hue.DeviceType == "" {
		cfg.Hue.DeviceType = "huectl#default"
	}

	// Cache defaults - caching is OFF by default (always fetch fresh state)
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(5 * time.Minute)
	}

	// Ledger defaults
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}
}

// envPattern matches ${VAR} or ${VAR:default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
