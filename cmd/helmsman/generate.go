package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"helmsman-ai/helmsman/pkg/config"
	"helmsman-ai/helmsman/pkg/dispatch"
	"helmsman-ai/helmsman/pkg/telemetry/logging"
)

var generateFlags struct {
	task     string
	instance int
	stream   bool
}

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Run one generation request",
	Long: `Send a single prompt through the dispatcher and print the response.

Examples:
  # Route by strategy
  helmsman generate "Summarize the plot of Hamlet"

  # Route through a task
  helmsman generate --task summarize "..."

  # Pin a specific instance
  helmsman generate --instance 2 "..."

  # Stream the response
  helmsman generate --stream "Tell me a story"`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateFlags.task, "task", "t", "", "task name")
	generateCmd.Flags().IntVarP(&generateFlags.instance, "instance", "i", dispatch.NoInstance, "pin an instance id")
	generateCmd.Flags().BoolVar(&generateFlags.stream, "stream", false, "stream the response")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return err
	}

	manager, err := dispatch.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	req := dispatch.NewRequest(args[0]).
		WithTask(generateFlags.task).
		WithInstance(generateFlags.instance)

	ctx := cmd.Context()

	if generateFlags.stream {
		chunks, err := manager.GenerateStream(ctx, req)
		if err != nil {
			return err
		}
		for chunk := range chunks {
			if chunk.Error != nil {
				fmt.Fprintln(os.Stderr)
				return fmt.Errorf("stream failed: %w", chunk.Error)
			}
			fmt.Print(chunk.Delta)
		}
		fmt.Println()
		return nil
	}

	resp := manager.Generate(ctx, req)
	if !resp.Success {
		return resp.Err
	}

	fmt.Println(resp.Content)
	if verbose {
		fmt.Fprintf(os.Stderr, "instance=%s attempts=%d tokens=%d elapsed=%s\n",
			resp.Instance, resp.Attempts, resp.Usage.TotalTokens, resp.Elapsed)
	}
	return nil
}
