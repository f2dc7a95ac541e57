// Package mcp exposes the enforcement gate as an MCP stdio server, so any
// MCP-speaking planner can invoke capabilities under rule enforcement.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rulegate/rulegate/internal/service"
)

// Server wraps the MCP SDK server around one gate. A stdio transport is one
// connection, which maps to exactly one session.
type Server struct {
	mcpServer *mcpsdk.Server
	gate      *service.Gate
	logger    *slog.Logger
}

// New creates an MCP server exposing the gate's capabilities as tools.
func New(gate *service.Gate, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		gate:   gate,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "rulegate",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all rulegate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "check_weather",
		Description: "Check the current weather. The result is recorded in session state; rules allow only one check per session.",
	}, s.handleCheckWeather)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "buy_item",
		Description: "Purchase an item (tv, xbox, hiking boots, goggles) and add it to the session inventory.",
	}, s.handleBuyItem)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "choose_activity",
		Description: "Choose an activity (play games, go camping, swimming). The choice is validated against the business rules; a blocked choice returns the violation reason.",
	}, s.handleChooseActivity)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "describe_rules",
		Description: "List the business rules in evaluation order, for planning before acting.",
	}, s.handleDescribeRules)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "describe_state",
		Description: "Show the current session state: inventory, weather, chosen activity.",
	}, s.handleDescribeState)
}
