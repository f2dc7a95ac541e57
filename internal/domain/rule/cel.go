package rule

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rulegate/rulegate/internal/domain/state"
)

// Safety limits for operator-supplied CEL conditions, matching the limits
// used for interactive policy expressions elsewhere in the stack.
const (
	maxExpressionLength = 1024
	maxNestingDepth     = 50
	maxCostBudget       = 100_000
)

// ExtensionConfig declares one operator-defined rule loaded from
// configuration. The condition is a CEL expression over the evaluation
// input; when it evaluates to true the rule denies with the configured
// reason.
type ExtensionConfig struct {
	ID          string
	Category    Category
	Description string
	Condition   string
	Reason      string
}

// NewExtensionEnvironment creates the CEL environment extension conditions
// compile against. Exposed variables:
//
//	capability      string  capability being invoked
//	activity        string  selected activity, "" when none
//	items           list    owned items in declaration order
//	purchases       list    purchase history in order, duplicates included
//	weather         string  known weather, "unknown" before any check
//	weather_checked bool    whether the weather has been checked
func NewExtensionEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("capability", cel.StringType),
		cel.Variable("activity", cel.StringType),
		cel.Variable("items", cel.ListType(cel.StringType)),
		cel.Variable("purchases", cel.ListType(cel.StringType)),
		cel.Variable("weather", cel.StringType),
		cel.Variable("weather_checked", cel.BoolType),
	)
}

// CompileExtensions compiles configured conditions into rules, ready to be
// appended after the built-in catalog. Compilation failures are startup
// errors; a rule set with an uncompilable condition must not be served.
func CompileExtensions(configs []ExtensionConfig) ([]Rule, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	env, err := NewExtensionEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create extension environment: %w", err)
	}

	rules := make([]Rule, 0, len(configs))
	for _, cfg := range configs {
		r, err := compileExtension(env, cfg)
		if err != nil {
			return nil, fmt.Errorf("extension rule %q: %w", cfg.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func compileExtension(env *cel.Env, cfg ExtensionConfig) (Rule, error) {
	if err := validateExpression(cfg.Condition); err != nil {
		return Rule{}, err
	}
	ast, issues := env.Compile(cfg.Condition)
	if issues != nil && issues.Err() != nil {
		return Rule{}, fmt.Errorf("compile condition: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return Rule{}, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return Rule{}, fmt.Errorf("build program: %w", err)
	}

	reason := cfg.Reason
	if reason == "" {
		reason = fmt.Sprintf("blocked by rule %q", cfg.ID)
	}
	return Rule{
		ID:          cfg.ID,
		Category:    cfg.Category,
		Description: cfg.Description,
		Check: func(snap state.Snapshot, p Params) Result {
			out, _, err := prg.Eval(activation(snap, p))
			if err != nil {
				// A condition that cannot be evaluated fails closed:
				// the action is blocked rather than silently allowed.
				return Deny(fmt.Sprintf("rule %q condition error: %v", cfg.ID, err))
			}
			if denied, ok := out.Value().(bool); ok && denied {
				return Deny(reason)
			}
			return Allow()
		},
	}, nil
}

// activation maps the evaluation input into CEL variables.
func activation(snap state.Snapshot, p Params) map[string]any {
	items := make([]string, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = string(it)
	}
	purchases := make([]string, len(snap.Purchases))
	for i, it := range snap.Purchases {
		purchases[i] = string(it)
	}
	activity := ""
	if p.Activity != nil {
		activity = string(*p.Activity)
	}
	return map[string]any{
		"capability":      string(p.Capability),
		"activity":        activity,
		"items":           items,
		"purchases":       purchases,
		"weather":         string(snap.Weather),
		"weather_checked": snap.WeatherChecked,
	}
}

// validateExpression enforces textual safety limits before compilation.
func validateExpression(expr string) error {
	if expr == "" {
		return errors.New("condition is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("condition too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("condition nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}
