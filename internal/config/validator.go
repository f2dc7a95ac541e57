package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ruleIDPattern matches stable rule identifiers: lower-case slugs with
// optional "/" namespacing, e.g. "weather/single-check".
var ruleIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-/][a-z0-9]+)*$`)

// RegisterCustomValidators registers rulegate-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("rule_id", validateRuleID); err != nil {
		return fmt.Errorf("failed to register rule_id validator: %w", err)
	}
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

func validateRuleID(fl validator.FieldLevel) bool {
	return ruleIDPattern.MatchString(fl.Field().String())
}

func validateDuration(fl validator.FieldLevel) bool {
	_, err := time.ParseDuration(fl.Field().String())
	return err == nil
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	// Cross-field: sqlite output needs a path.
	if c.Audit.Output == "sqlite" && strings.TrimSpace(c.Audit.SQLitePath) == "" {
		return errors.New("audit.sqlite_path is required when audit.output is \"sqlite\"")
	}

	// Cross-field: custom rule IDs must be unique (the engine would reject
	// them at startup anyway, but the config error is more actionable).
	seen := make(map[string]struct{}, len(c.Rules.Custom))
	for _, r := range c.Rules.Custom {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("rules.custom: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// formatValidationErrors converts validator errors into actionable messages.
func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldPath(fe)))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fieldPath(fe), fe.Param()))
		case "rule_id":
			msgs = append(msgs, fmt.Sprintf("%s must be a lower-case slug (got %q)", fieldPath(fe), fe.Value()))
		case "duration":
			msgs = append(msgs, fmt.Sprintf("%s must be a duration like \"30m\" (got %q)", fieldPath(fe), fe.Value()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fieldPath(fe), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fieldPath(fe), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// fieldPath renders a validator namespace like "Config.Rules.Custom[0].ID"
// as the YAML-ish "rules.custom[0].id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}
