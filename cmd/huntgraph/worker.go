package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/huntgraph/discovery"
	"github.com/zero-day-ai/huntgraph/worker"
)

var errMissingRedis = errors.New("worker requires redis.url (or HUNTGRAPH_REDIS_URL)")

func newWorkerCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the Redis build job worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Redis.Enabled() {
				return errMissingRedis
			}
			if cmd.Flags().Changed("concurrency") {
				a.cfg.Worker.Concurrency = concurrency
			}
			return runWorker(cmd.Context(), a)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "worker goroutines (overrides worker.concurrency)")
	return cmd
}

func runWorker(ctx context.Context, a *app) error {
	client, err := newRedisClient(a)
	if err != nil {
		return err
	}
	defer client.Close()

	// metrics are not exported by the worker process
	builder, shutdownTracing, err := newBuilder(a, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			a.logger.Warn("failed to shut down tracer provider", "error", err)
		}
	}()

	_, deregister, err := announce(ctx, a, discovery.KindWorker, "", map[string]string{
		"queue":       a.cfg.Worker.GetName(),
		"concurrency": strconv.Itoa(a.cfg.Worker.GetConcurrency()),
	})
	if err != nil {
		return err
	}
	defer deregister()

	return worker.Run(ctx, client, worker.Options{
		Queue:             a.cfg.Worker.GetName(),
		Concurrency:       a.cfg.Worker.GetConcurrency(),
		ShutdownTimeout:   a.cfg.Worker.GetShutdownTimeout(),
		HeartbeatInterval: a.cfg.Worker.GetHeartbeatInterval(),
		Builder:           builder,
		Logger:            a.logger,
	})
}
