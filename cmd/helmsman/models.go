package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"helmsman-ai/helmsman/pkg/config"
	"helmsman-ai/helmsman/pkg/providerfactory"
	"helmsman-ai/helmsman/pkg/providers"
)

var modelsKind string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models each configured backend offers",
	Long: `Query every configured instance's backend for its available models.

Discovery needs only the instance's kind, API key and endpoint, so it works
before any request has been dispatched.

Examples:
  # List models for every configured instance
  helmsman models

  # Only query anthropic instances
  helmsman models --kind anthropic`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		seen := make(map[string]bool)
		var failures int
		for _, ic := range cfg.Instances {
			if modelsKind != "" && ic.Kind != modelsKind {
				continue
			}
			// One query per backend endpoint is enough
			key := ic.Kind + "|" + ic.BaseURL
			if seen[key] {
				continue
			}
			seen[key] = true

			p, err := providerfactory.New(ic.Kind, providers.ProviderConfig{
				Name:    ic.Name,
				Kind:    ic.Kind,
				Model:   ic.Model,
				APIKey:  ic.APIKey,
				BaseURL: ic.BaseURL,
				Timeout: ic.Timeout,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", ic.Name, err)
				failures++
				continue
			}

			lister, ok := p.(providers.ModelLister)
			if !ok {
				fmt.Fprintf(os.Stderr, "%s: kind %s does not support model discovery\n", ic.Name, ic.Kind)
				p.Close()
				continue
			}

			models, err := lister.ListModels(ctx)
			p.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", ic.Name, err)
				failures++
				continue
			}

			fmt.Printf("%s (%s):\n", ic.Name, ic.Kind)
			for _, m := range models {
				fmt.Printf("  %s\n", m.ID)
			}
		}

		if failures > 0 {
			return fmt.Errorf("model discovery failed for %d backend(s)", failures)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsKind, "kind", "k", "", "only query instances of this kind")
	rootCmd.AddCommand(modelsCmd)
}
