package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "helmsman",
	Short: "Helmsman - load-balancing dispatcher for LLM providers",
	Long: `Helmsman routes generation requests across a pool of interchangeable
LLM provider instances.

It provides:
  - Task-aware routing across OpenAI, Anthropic and OpenAI-compatible backends
  - Pluggable selection strategies (least recently used, lowest latency, random)
  - Automatic retry and failover with rate limit aware admission control
  - Sequential, concurrent batch and streaming execution modes
  - Usage accounting with Prometheus metrics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
