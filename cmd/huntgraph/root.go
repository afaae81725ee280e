package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/huntgraph/config"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

// app carries the state shared by subcommands once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "huntgraph",
		Short: "Build attack path graphs from threat hunt findings",
		Long: `huntgraph turns threat hunt findings into a graph of hosts, users,
processes and findings that a visualization widget can render directly.

Use "huntgraph build" for one-off builds, "huntgraph serve" to expose the
builder over HTTP and NATS, and "huntgraph worker" to consume build jobs
from Redis. "huntgraph instances" lists the processes registered in etcd.`,
		PersistentPreRunE: a.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to huntgraph.yaml (or a directory containing it)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newBuildCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newWorkerCmd(a))
	rootCmd.AddCommand(newInstancesCmd(a))

	return rootCmd
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return newRootCmd().ExecuteContext(ctx)
}

// loadConfig is called before any command runs to load configuration
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	// stdout belongs to command output
	a.logger = telemetry.NewLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}
