// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rulegate/rulegate/internal/domain/audit"
	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/rule"
	"github.com/rulegate/rulegate/internal/domain/state"
)

// Result is the outcome of one capability invocation. A failed rule check is
// an ordinary Result with OK=false, never an error: callers replan from the
// message instead of parsing prose to tell outcomes apart.
type Result struct {
	// OK is true when the capability executed.
	OK bool `json:"ok"`
	// Message is the execution summary on success, or the violation reason
	// on rejection.
	Message string `json:"message"`
	// StateSummary is the session state after the call. On success it
	// reflects the mutation; on rejection the state is unchanged.
	StateSummary string `json:"state_summary"`
	// RuleID names the violated rule when OK is false.
	RuleID string `json:"rule_id,omitempty"`
}

// WeatherSource produces a weather condition for the checkWeather
// capability. The production source samples uniformly from the three known
// conditions; tests inject a fixed one.
type WeatherSource interface {
	Sample() state.Weather
}

// RandomWeather samples uniformly from sunny, raining, and snowing.
type RandomWeather struct{}

// Sample implements WeatherSource.
func (RandomWeather) Sample() state.Weather {
	conditions := []state.Weather{state.WeatherSunny, state.WeatherRaining, state.WeatherSnowing}
	return conditions[rand.IntN(len(conditions))]
}

// Gate wraps capability execution in rule enforcement for one session.
// Every invocation runs the full snapshot, evaluate, execute, respond cycle
// under the gate's mutex, so a capability's effect is always visible to the
// very next evaluation.
type Gate struct {
	mu        sync.Mutex
	sessionID string
	store     *state.Store
	engine    *rule.Engine
	weather   WeatherSource
	audit     audit.Store
	logger    *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithWeatherSource overrides the weather source.
func WithWeatherSource(src WeatherSource) GateOption {
	return func(g *Gate) {
		if src != nil {
			g.weather = src
		}
	}
}

// WithAuditStore enables decision logging.
func WithAuditStore(store audit.Store) GateOption {
	return func(g *Gate) { g.audit = store }
}

// WithLogger sets the gate logger.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSessionID tags the gate's log and audit records with a session ID.
func WithSessionID(id string) GateOption {
	return func(g *Gate) { g.sessionID = id }
}

// NewGate creates a gate over a fresh, empty session state.
// The rule engine is shared and immutable; the state store is owned.
func NewGate(engine *rule.Engine, opts ...GateOption) *Gate {
	g := &Gate{
		store:   state.NewStore(),
		engine:  engine,
		weather: RandomWeather{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke executes a capability with full rule enforcement:
// parse, snapshot, evaluate capability rules, evaluate action rules when an
// activity is selected, then execute against the live state and report the
// post-mutation summary.
//
// Violations come back as Result values. Errors are reserved for unknown
// capability identifiers, malformed parameters, and invariant breaches.
func (g *Gate) Invoke(ctx context.Context, capabilityID string, params map[string]string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := capability.ParseID(capabilityID)
	if err != nil {
		return Result{}, err
	}
	req, err := capability.ParseRequest(id, params)
	if err != nil {
		return Result{}, err
	}

	snap := g.store.Snapshot()
	ruleParams := rule.Params{Capability: id, Activity: req.Activity}

	violation := g.engine.Evaluate(rule.CategoryCapability, snap, ruleParams)
	if violation == nil && id == capability.ChooseActivity {
		violation = g.engine.Evaluate(rule.CategoryAction, snap, ruleParams)
	}
	if violation != nil {
		res := Result{
			Message:      violation.Reason,
			StateSummary: snap.Summary(),
			RuleID:       violation.RuleID,
		}
		g.logger.Debug("invocation blocked",
			"session_id", g.sessionID,
			"capability", id,
			"rule_id", violation.RuleID,
			"reason", violation.Reason)
		g.record(ctx, req, audit.DecisionDeny, violation, res.StateSummary)
		return res, nil
	}

	message, err := g.execute(req)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		OK:           true,
		Message:      message,
		StateSummary: g.store.Snapshot().Summary(),
	}
	g.logger.Debug("invocation executed",
		"session_id", g.sessionID,
		"capability", id,
		"state", res.StateSummary)
	g.record(ctx, req, audit.DecisionAllow, nil, res.StateSummary)
	return res, nil
}

// execute applies the capability effect to the live store. Callers hold the
// gate mutex and have already passed rule evaluation.
func (g *Gate) execute(req capability.Request) (string, error) {
	switch req.Capability {
	case capability.CheckWeather:
		w := g.weather.Sample()
		if w == state.WeatherUnknown {
			return "", fmt.Errorf("weather source returned unknown")
		}
		if err := g.store.SetWeather(w); err != nil {
			return "", fmt.Errorf("record weather: %w", err)
		}
		return fmt.Sprintf("weather check complete: it is %s", w), nil
	case capability.BuyItem:
		g.store.AddItem(*req.Item)
		return fmt.Sprintf("purchased %q and added it to the inventory", *req.Item), nil
	case capability.ChooseActivity:
		g.store.SetActivity(*req.Activity)
		return fmt.Sprintf("activity chosen: %s", *req.Activity), nil
	}
	return "", fmt.Errorf("%w: %q", capability.ErrUnknown, req.Capability)
}

// record appends a decision record. Audit failures are logged and absorbed:
// the decision log must never change an invocation's outcome.
func (g *Gate) record(ctx context.Context, req capability.Request, decision string, v *rule.Violation, summary string) {
	if g.audit == nil {
		return
	}
	rec := audit.Record{
		Timestamp:    time.Now().UTC(),
		SessionID:    g.sessionID,
		Capability:   string(req.Capability),
		Decision:     decision,
		StateSummary: summary,
	}
	if req.Activity != nil {
		rec.Activity = string(*req.Activity)
	}
	if v != nil {
		rec.RuleID = v.RuleID
		rec.Reason = v.Reason
	}
	if err := g.audit.Append(ctx, rec); err != nil {
		g.logger.Warn("audit append failed", "session_id", g.sessionID, "error", err)
	}
}

// DescribeRules returns the rule catalog in registration order for prompt
// building.
func (g *Gate) DescribeRules() []rule.Description {
	return g.engine.Descriptions()
}

// DescribeRulesText renders the catalog as a numbered block suitable for
// inclusion in a planner prompt.
func (g *Gate) DescribeRulesText() string {
	var b strings.Builder
	b.WriteString("Business rules:\n")
	for i, d := range g.engine.Descriptions() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Description)
	}
	return b.String()
}

// DescribeState returns the current state summary.
func (g *Gate) DescribeState() string {
	return g.store.Snapshot().Summary()
}

// Snapshot exposes the current session facts to inbound adapters.
func (g *Gate) Snapshot() state.Snapshot {
	return g.store.Snapshot()
}

// Reset clears the session state back to empty.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.Reset()
}
