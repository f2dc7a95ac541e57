// Package cmd provides the CLI commands for rulegate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulegate/rulegate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rulegate",
	Short: "rulegate - policy enforcement gate for tool-calling agents",
	Long: `rulegate intercepts every capability an agent tries to invoke, evaluates
it against a declarative rule set bound to session state, and either lets it
execute or returns the violation reason for replanning.

Quick start:
  1. Optionally create a config file: rulegate.yaml
  2. Run: rulegate serve

Configuration:
  Config is loaded from rulegate.yaml in the current directory,
  $HOME/.rulegate/, or /etc/rulegate/.

  Environment variables can override config values with the RULEGATE_ prefix.
  Example: RULEGATE_SERVER_HTTP_ADDR=:9090

Commands:
  serve       Start the HTTP API server
  mcp         Serve capabilities over MCP stdio (one session per connection)
  rules       Print the rule catalog for prompt building
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rulegate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
