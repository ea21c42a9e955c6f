// Command agentwalletd is the AgentWallet gateway daemon: it opens the
// BoltDB store, wires every governance component, and serves the HTTP
// surface until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentwallet/agentwallet/internal/gateway"
	"github.com/agentwallet/agentwallet/internal/gateway/config"
	"github.com/agentwallet/agentwallet/internal/pkg/applog"
	"github.com/agentwallet/agentwallet/internal/store/boltdb"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()

	cmd := &cobra.Command{
		Use:   "agentwalletd",
		Short: "agentwalletd serves AgentWallet's governance gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ListenAddress, "listen-address", opts.ListenAddress, "HTTP listen address")
	flags.StringVar(&opts.BoltPath, "bolt-path", opts.BoltPath, "BoltDB file path")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (debug, info, warn, error)")
	flags.DurationVar(&opts.DeadManSweepEvery, "deadman-sweep-interval", opts.DeadManSweepEvery, "dead-man switch sweep interval")
	flags.DurationVar(&opts.ReconcileEvery, "reconcile-interval", opts.ReconcileEvery, "reconciliation sweep interval")
	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("agentwallet")
	viper.AutomaticEnv()

	return cmd
}

func runDaemon(opts *config.Options) error {
	cfg, err := config.CreateConfigFromOptions(opts)
	if err != nil {
		return fmt.Errorf("complete config: %w", err)
	}
	applog.SetLevel(cfg.LogLevel)

	db, err := boltdb.Open(cfg.BoltPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return gateway.Run(ctx, cfg, db)
}
