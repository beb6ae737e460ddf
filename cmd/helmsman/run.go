package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"helmsman-ai/helmsman/pkg/config"
	"helmsman-ai/helmsman/pkg/dispatch"
	"helmsman-ai/helmsman/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	watch    bool
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dispatcher as a long-lived process",
	Long: `Start the dispatcher, serve the Prometheus metrics endpoint, and keep
the instance pool alive until interrupted.

With --watch the configuration file is reloaded on change; the pool is
rebuilt atomically and in-flight requests on the old pool finish first.

Examples:
  # Start with default config
  helmsman run

  # Start with config reloading
  helmsman run --watch

  # Validate config without starting
  helmsman run --dry-run`,
	RunE: runDispatcher,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration on change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDispatcher(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	manager, err := dispatch.FromConfig(cfg)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	current := manager
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		current.Close()
	}()

	slog.Info("dispatcher started",
		"strategy", cfg.Strategy,
		"instances", len(cfg.Instances),
		"tasks", len(cfg.Tasks),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, manager.Metrics().Handler())
		metricsSrv = &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			slog.Info("metrics endpoint listening",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	if runFlags.watch {
		go func() {
			err := config.Watch(ctx, cfgFile, func(newCfg *config.Config) {
				rebuilt, err := dispatch.FromConfig(newCfg)
				if err != nil {
					slog.Error("failed to rebuild pool from new configuration", "error", err)
					return
				}
				mu.Lock()
				old := current
				current = rebuilt
				mu.Unlock()
				old.Close()
				slog.Info("instance pool rebuilt", "instances", len(newCfg.Instances))
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}

	return nil
}
