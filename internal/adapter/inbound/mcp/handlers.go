package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/rule"
)

// --- Input/Output types ---

// CheckWeatherInput is empty: the weather check takes no parameters.
type CheckWeatherInput struct{}

// BuyItemInput defines parameters for the buy_item tool.
type BuyItemInput struct {
	Item string `json:"item" jsonschema:"item to purchase: tv, xbox, hiking boots, or goggles"`
}

// ChooseActivityInput defines parameters for the choose_activity tool.
type ChooseActivityInput struct {
	Activity string `json:"activity" jsonschema:"activity to choose: play games, go camping, or swimming"`
}

// InvokeOutput mirrors the gate result. Blocked invocations come back with
// ok=false and the violation reason; the state summary always reflects the
// state after the call so the model never needs a separate query.
type InvokeOutput struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message"`
	StateSummary string `json:"state_summary"`
	RuleID       string `json:"rule_id,omitempty"`
}

// RulesOutput lists the rule catalog.
type RulesOutput struct {
	Rules []rule.Description `json:"rules"`
	Text  string             `json:"text"`
}

// StateOutput carries the state summary.
type StateOutput struct {
	StateSummary string `json:"state_summary"`
}

// --- Handlers ---

func (s *Server) handleCheckWeather(ctx context.Context, _ *mcpsdk.CallToolRequest, _ CheckWeatherInput) (*mcpsdk.CallToolResult, InvokeOutput, error) {
	return s.invoke(ctx, capability.CheckWeather, nil)
}

func (s *Server) handleBuyItem(ctx context.Context, _ *mcpsdk.CallToolRequest, input BuyItemInput) (*mcpsdk.CallToolResult, InvokeOutput, error) {
	return s.invoke(ctx, capability.BuyItem, map[string]string{"item": input.Item})
}

func (s *Server) handleChooseActivity(ctx context.Context, _ *mcpsdk.CallToolRequest, input ChooseActivityInput) (*mcpsdk.CallToolResult, InvokeOutput, error) {
	return s.invoke(ctx, capability.ChooseActivity, map[string]string{"activity": input.Activity})
}

// invoke runs the gate and maps its taxonomy onto MCP: violations are
// ordinary outputs the model replans from, errors are tool errors.
func (s *Server) invoke(ctx context.Context, id capability.ID, params map[string]string) (*mcpsdk.CallToolResult, InvokeOutput, error) {
	result, err := s.gate.Invoke(ctx, string(id), params)
	if err != nil {
		return nil, InvokeOutput{}, err
	}
	out := InvokeOutput{
		OK:           result.OK,
		Message:      result.Message,
		StateSummary: result.StateSummary,
		RuleID:       result.RuleID,
	}
	return nil, out, nil
}

func (s *Server) handleDescribeRules(_ context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, RulesOutput, error) {
	return nil, RulesOutput{
		Rules: s.gate.DescribeRules(),
		Text:  s.gate.DescribeRulesText(),
	}, nil
}

func (s *Server) handleDescribeState(_ context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, StateOutput, error) {
	return nil, StateOutput{StateSummary: s.gate.DescribeState()}, nil
}
