// Package config provides configuration types and loading for rulegate.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for rulegate.
type Config struct {
	// Server configures the HTTP API listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Audit configures where gate decisions are logged.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Rules configures the rule engine.
	Rules RulesConfig `yaml:"rules" mapstructure:"rules"`

	// DevMode enables development features (debug logging).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	// HTTPAddr is the listen address. Default: "127.0.0.1:8080".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr"`
	// SessionTimeout is the session idle expiry (e.g. "30m").
	SessionTimeout string `yaml:"session_timeout" mapstructure:"session_timeout" validate:"omitempty,duration"`
}

// AuditConfig configures decision logging.
type AuditConfig struct {
	// Output selects the decision log backend: "memory" or "sqlite".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,oneof=memory sqlite"`
	// SQLitePath is the database path. Required when Output is "sqlite".
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	// MemoryCapacity bounds the in-memory log. Default: 1000.
	MemoryCapacity int `yaml:"memory_capacity" mapstructure:"memory_capacity" validate:"omitempty,min=1"`
}

// RulesConfig configures the rule engine.
type RulesConfig struct {
	// CacheSize bounds the evaluation result cache. 0 disables caching;
	// nil (key unset) means the default of 256.
	CacheSize *int `yaml:"cache_size" mapstructure:"cache_size" validate:"omitempty,min=0"`
	// Custom declares operator-defined extension rules, registered after
	// the built-in catalog in declaration order.
	Custom []CustomRuleConfig `yaml:"custom" mapstructure:"custom" validate:"omitempty,dive"`
}

// CustomRuleConfig declares one operator-defined rule with a CEL condition.
// When the condition evaluates to true, the rule denies with Reason.
type CustomRuleConfig struct {
	// ID is the stable rule identifier (lower-case slug).
	ID string `yaml:"id" mapstructure:"id" validate:"required,rule_id"`
	// Category is "action" or "capability".
	Category string `yaml:"category" mapstructure:"category" validate:"required,oneof=action capability"`
	// Description is the positive planning-time phrasing.
	Description string `yaml:"description" mapstructure:"description" validate:"required"`
	// Condition is the CEL deny condition.
	Condition string `yaml:"condition" mapstructure:"condition" validate:"required"`
	// Reason is the violation message when the rule denies.
	Reason string `yaml:"reason" mapstructure:"reason" validate:"required"`
}

// Defaults applied by Load for fields left empty.
const (
	DefaultHTTPAddr       = "127.0.0.1:8080"
	DefaultAuditOutput    = "memory"
	DefaultMemoryCapacity = 1000
	DefaultCacheSize      = 256
)

// Load reads configuration from Viper (file plus environment overrides),
// applies defaults, and validates. A missing config file is not an error:
// rulegate serves the built-in catalog with defaults.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Audit.Output == "" {
		c.Audit.Output = DefaultAuditOutput
	}
	if c.Audit.MemoryCapacity == 0 {
		c.Audit.MemoryCapacity = DefaultMemoryCapacity
	}
	if c.Rules.CacheSize == nil {
		n := DefaultCacheSize
		c.Rules.CacheSize = &n
	}
}

// RuleCacheSize returns the configured cache bound after defaulting.
// An explicit 0 disables caching.
func (c *Config) RuleCacheSize() int {
	if c.Rules.CacheSize == nil {
		return DefaultCacheSize
	}
	return *c.Rules.CacheSize
}

// SessionTimeout parses the configured session timeout, falling back to zero
// (meaning "use the service default") when unset.
func (c *Config) SessionTimeout() time.Duration {
	if c.Server.SessionTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Server.SessionTimeout)
	if err != nil {
		// Validate() rejects unparseable durations before this is reached.
		return 0
	}
	return d
}
