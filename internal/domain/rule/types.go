// Package rule contains the declarative business-rule registry and the
// fail-fast evaluation engine the enforcement gate consults before every
// capability execution.
package rule

import (
	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/state"
)

// Category partitions rules by what they guard.
type Category string

const (
	// CategoryAction rules guard activity selection.
	CategoryAction Category = "action"
	// CategoryCapability rules guard capability invocation itself.
	CategoryCapability Category = "capability"
)

// Params carries the action parameters a rule may inspect alongside the
// state snapshot.
type Params struct {
	Capability capability.ID
	// Activity is set when the invocation selects an activity.
	Activity *state.Activity
}

// Result is the outcome of a single rule check.
type Result struct {
	// Allowed is true when the rule does not object.
	Allowed bool
	// Reason explains the objection. Empty when Allowed.
	Reason string
}

// Allow is the passing result.
func Allow() Result { return Result{Allowed: true} }

// Deny builds a failing result with the given reason.
func Deny(reason string) Result { return Result{Reason: reason} }

// Rule is one independent predicate. Rules are immutable once registered and
// the registry is append-only at startup: extension happens by appending
// entries, never by subclassing.
type Rule struct {
	// ID is the stable rule identifier, used in audit records and metrics.
	ID string
	// Category selects which evaluation pass runs this rule.
	Category Category
	// Description is the state-independent, positively phrased summary
	// rendered for upfront planning ("X requires Y"). It is distinct from
	// the violation reason, which names the specific failure.
	Description string
	// Check evaluates the rule against an immutable snapshot. It must be a
	// pure function of its inputs.
	Check func(state.Snapshot, Params) Result
}

// Violation is the transient value returned instead of executing a blocked
// capability. It is ordinary replanning input for the caller, not an error.
type Violation struct {
	// RuleID names the first failing rule.
	RuleID string
	// Reason is the actionable explanation for the caller.
	Reason string
}

// Description pairs a rule's category with its planning-time description,
// in registration order.
type Description struct {
	ID          string   `yaml:"id" json:"id"`
	Category    Category `yaml:"category" json:"category"`
	Description string   `yaml:"description" json:"description"`
}
