package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulegate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadFrom(t *testing.T, content string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	InitViper(writeConfigFile(t, content))
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	// Point at a file that does not exist: defaults still apply.
	InitViper(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("http addr = %q, want %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Audit.Output != DefaultAuditOutput {
		t.Errorf("audit output = %q, want %q", cfg.Audit.Output, DefaultAuditOutput)
	}
	if cfg.Audit.MemoryCapacity != DefaultMemoryCapacity {
		t.Errorf("memory capacity = %d, want %d", cfg.Audit.MemoryCapacity, DefaultMemoryCapacity)
	}
	if cfg.RuleCacheSize() != DefaultCacheSize {
		t.Errorf("cache size = %d, want %d", cfg.RuleCacheSize(), DefaultCacheSize)
	}
	if cfg.SessionTimeout() != 0 {
		t.Errorf("session timeout = %v, want 0", cfg.SessionTimeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := loadFrom(t, `
server:
  http_addr: "0.0.0.0:9090"
  session_timeout: "15m"
audit:
  output: sqlite
  sqlite_path: /tmp/decisions.db
rules:
  cache_size: 64
dev_mode: true
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.SessionTimeout() != 15*time.Minute {
		t.Errorf("session timeout = %v, want 15m", cfg.SessionTimeout())
	}
	if cfg.Audit.Output != "sqlite" || cfg.Audit.SQLitePath != "/tmp/decisions.db" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.RuleCacheSize() != 64 {
		t.Errorf("cache size = %d", cfg.RuleCacheSize())
	}
	if !cfg.DevMode {
		t.Error("dev mode not set")
	}
}

func TestCacheSizeZeroDisablesCaching(t *testing.T) {
	// An explicit 0 must survive defaulting: it means "no cache", not
	// "use the default".
	cfg, err := loadFrom(t, `
rules:
  cache_size: 0
`)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.RuleCacheSize(); got != 0 {
		t.Errorf("cache size = %d, want 0", got)
	}
}

func TestLoadCustomRules(t *testing.T) {
	cfg, err := loadFrom(t, `
rules:
  custom:
    - id: custom/no-shopping-in-rain
      category: capability
      description: "no purchases while it rains"
      condition: 'capability == "buyItem" && weather == "raining"'
      reason: "no shopping in the rain"
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Rules.Custom) != 1 {
		t.Fatalf("got %d custom rules, want 1", len(cfg.Rules.Custom))
	}
	r := cfg.Rules.Custom[0]
	if r.ID != "custom/no-shopping-in-rain" || r.Category != "capability" {
		t.Errorf("custom rule = %+v", r)
	}
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("RULEGATE_SERVER_HTTP_ADDR", "0.0.0.0:7777")
	InitViper(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:7777" {
		t.Errorf("http addr = %q, want env override", cfg.Server.HTTPAddr)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "bad audit output",
			content: `
audit:
  output: kafka
`,
			wantMsg: "must be one of",
		},
		{
			name: "sqlite without path",
			content: `
audit:
  output: sqlite
`,
			wantMsg: "audit.sqlite_path is required",
		},
		{
			name: "bad session timeout",
			content: `
server:
  session_timeout: "soon"
`,
			wantMsg: "must be a duration",
		},
		{
			name: "bad custom rule id",
			content: `
rules:
  custom:
    - id: "Not A Slug"
      category: action
      description: d
      condition: "true"
      reason: r
`,
			wantMsg: "lower-case slug",
		},
		{
			name: "custom rule missing condition",
			content: `
rules:
  custom:
    - id: custom/x
      category: action
      description: d
      reason: r
`,
			wantMsg: "is required",
		},
		{
			name: "duplicate custom rule ids",
			content: `
rules:
  custom:
    - id: custom/x
      category: action
      description: d
      condition: "true"
      reason: r
    - id: custom/x
      category: capability
      description: d
      condition: "false"
      reason: r
`,
			wantMsg: "duplicate rule id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFrom(t, tt.content)
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRuleIDPattern(t *testing.T) {
	valid := []string{"weather", "weather/single-check", "equipment/play-games", "a1/b2-c3"}
	invalid := []string{"", "Weather", "weather//check", "weather/", "/weather", "weather check", "weather_check"}

	for _, id := range valid {
		if !ruleIDPattern.MatchString(id) {
			t.Errorf("%q rejected", id)
		}
	}
	for _, id := range invalid {
		if ruleIDPattern.MatchString(id) {
			t.Errorf("%q accepted", id)
		}
	}
}
