// Package audit contains domain types for the gate's decision log.
package audit

import "time"

// Decision constants for audit records.
const (
	// DecisionAllow indicates the capability executed.
	DecisionAllow = "allow"
	// DecisionDeny indicates a rule violation blocked execution.
	DecisionDeny = "deny"
)

// Record is one gate decision. Errors (unknown capability, malformed
// parameters) are not recorded: only evaluated outcomes are.
type Record struct {
	// Timestamp when the decision was made (UTC).
	Timestamp time.Time `json:"timestamp"`
	// SessionID identifies the session the invocation belonged to.
	SessionID string `json:"session_id"`
	// Capability is the invoked capability identifier.
	Capability string `json:"capability"`
	// Activity is the selected activity, when the capability selects one.
	Activity string `json:"activity,omitempty"`
	// Decision is allow or deny.
	Decision string `json:"decision"`
	// RuleID names the violated rule on deny.
	RuleID string `json:"rule_id,omitempty"`
	// Reason is the violation reason on deny.
	Reason string `json:"reason,omitempty"`
	// StateSummary is the session state after the invocation.
	StateSummary string `json:"state_summary"`
}
