package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"helmsman-ai/helmsman/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, substitute environment variables, and
report every structural problem found.

Examples:
  # Validate the default config
  helmsman validate

  # Validate a specific file
  helmsman validate --config /etc/helmsman/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		fmt.Printf("  strategy:  %s\n", cfg.Strategy)
		fmt.Printf("  tasks:     %d\n", len(cfg.Tasks))
		fmt.Printf("  instances: %d\n", len(cfg.Instances))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
