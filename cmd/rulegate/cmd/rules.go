package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rulegate/rulegate/internal/config"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the rule catalog for prompt building",
	Long: `Print every registered rule in evaluation order: the built-in catalog
followed by configured extension rules. The text form is the numbered block a
prompt builder would embed before the planning loop starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		descriptions := engine.Descriptions()
		switch rulesOutput {
		case "yaml":
			out, err := yaml.Marshal(descriptions)
			if err != nil {
				return fmt.Errorf("marshal rules: %w", err)
			}
			cmd.Print(string(out))
		case "text":
			cmd.Println("Business rules:")
			for i, d := range descriptions {
				cmd.Printf("%d. %s\n", i+1, d.Description)
			}
		default:
			return fmt.Errorf("unknown output format %q (want text or yaml)", rulesOutput)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesOutput, "output", "text", "output format: text or yaml")
	rootCmd.AddCommand(rulesCmd)
}
