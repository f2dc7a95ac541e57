package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rulegate/rulegate/internal/adapter/outbound/memory"
	"github.com/rulegate/rulegate/internal/adapter/outbound/sqlite"
	"github.com/rulegate/rulegate/internal/config"
	"github.com/rulegate/rulegate/internal/domain/audit"
	"github.com/rulegate/rulegate/internal/domain/rule"
)

// newLogger builds the process logger. DevMode forces debug level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildEngine registers the built-in catalog followed by any configured
// extension rules.
func buildEngine(cfg *config.Config) (*rule.Engine, error) {
	rules := rule.Catalog()

	extensions := make([]rule.ExtensionConfig, 0, len(cfg.Rules.Custom))
	for _, c := range cfg.Rules.Custom {
		extensions = append(extensions, rule.ExtensionConfig{
			ID:          c.ID,
			Category:    rule.Category(c.Category),
			Description: c.Description,
			Condition:   c.Condition,
			Reason:      c.Reason,
		})
	}
	compiled, err := rule.CompileExtensions(extensions)
	if err != nil {
		return nil, fmt.Errorf("compile extension rules: %w", err)
	}
	rules = append(rules, compiled...)

	engine, err := rule.NewEngine(rules, rule.WithCacheSize(cfg.RuleCacheSize()))
	if err != nil {
		return nil, fmt.Errorf("build rule engine: %w", err)
	}
	return engine, nil
}

// buildAuditStore selects the decision-log backend from config.
func buildAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.Audit.Output {
	case "sqlite":
		store, err := sqlite.Open(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite audit store: %w", err)
		}
		return store, nil
	default:
		return memory.NewAuditStoreWithCapacity(cfg.Audit.MemoryCapacity), nil
	}
}
