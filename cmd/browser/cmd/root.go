// Package cmd wires the browser's adapters, version mapper, and HTTP server
// into a single runnable command, following the same construct-validate-run
// shape as the reference CLI entrypoints in this codebase's lineage.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/snapvault/browser/internal/config"
	"github.com/snapvault/browser/internal/objectstore"
	"github.com/snapvault/browser/internal/snapshot"
	"github.com/snapvault/browser/internal/version"
	"github.com/snapvault/browser/pkg/api"
	"github.com/snapvault/browser/pkg/health"
	"github.com/snapvault/browser/pkg/metrics"
)

var rootCmd = &cobra.Command{
	Use:   "browser",
	Short: "snapshot-aware S3 object store version browser",
	Long:  "browser reconstructs deduplicated version timelines for S3 objects by correlating live object metadata with historical ZFS-snapshot filesystem state.",
}

func init() {
	pflags := rootCmd.PersistentFlags()
	pflags.String("config", "", "Path to an optional YAML config file overlay")
	pflags.Bool("verbose", false, "Enable verbose (debug) logging")
	pflags.VisitAll(func(flag *pflag.Flag) {
		viper.BindPFlag(flag.Name, flag)
	})
}

// NewRootCmd builds the root command. Config is resolved at Run time so
// flag parsing happens before any environment is read.
func NewRootCmd() *cobra.Command {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	}
	return rootCmd
}

func run(ctx context.Context) error {
	cfg := config.NewDefault()
	if path := viper.GetString("config"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := parseLogLevel(cfg.Global.LogLevel)
	if viper.GetBool("verbose") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clients, err := objectstore.NewClientManager(runCtx, cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize object store client: %w", err)
	}
	defer clients.Close()

	osa := objectstore.New(clients, logger)
	ssa := snapshot.New(cfg.Snapshot, logger)
	mapper := version.New(osa, ssa, logger)

	collector := metrics.New("snapvault")
	mapper.SetMetrics(collector)
	ssa.SetMetrics(collector)

	remoteFilter := config.LoadRemoteFilter(runCtx, ssa, cfg.Remote.ConfigPath)

	healthTracker := health.NewTracker(health.DefaultConfig())
	healthTracker.RegisterComponent("objectstore")
	healthTracker.RegisterComponent("snapshot")
	go healthTracker.StartHealthChecks(runCtx, func(component string) error {
		switch component {
		case "objectstore":
			return osa.HealthCheck(runCtx)
		case "snapshot":
			return ssa.HealthCheck(runCtx)
		default:
			return nil
		}
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Address = cfg.Global.ListenAddr
	server := api.New(
		serverCfg,
		cfg.Auth,
		cfg.Paging,
		osa,
		ssa,
		mapper,
		remoteFilter,
		healthTracker,
		collector,
		logger,
	)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- server.Start()
	}()

	select {
	case <-runCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			logger.Error("HTTP server exited unexpectedly", "error", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during graceful shutdown", "error", err)
		return err
	}
	logger.Info("exited cleanly")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
