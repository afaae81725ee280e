package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zero-day-ai/huntgraph"
	"github.com/zero-day-ai/huntgraph/api"
	"github.com/zero-day-ai/huntgraph/bus"
	"github.com/zero-day-ai/huntgraph/cache"
	"github.com/zero-day-ai/huntgraph/discovery"
	"github.com/zero-day-ai/huntgraph/health"
	"github.com/zero-day-ai/huntgraph/metrics"
	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

const healthWatchInterval = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API over HTTP",
		Long: `Serve starts the HTTP API. When configured it also serves gRPC health,
answers build requests from NATS and accepts jobs for the Redis queue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

// newBuilder wires the cache, metrics and tracer shared by every entry point.
func newBuilder(a *app, reg prometheus.Registerer) (*pipeline.Builder, func(context.Context) error, error) {
	graphCache, err := cache.New(a.cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}

	tp, shutdown := telemetry.NewTracerProvider(a.cfg.Tracing, a.logger)

	return &pipeline.Builder{
		Cache:   graphCache,
		Metrics: metrics.New(reg),
		Tracer:  telemetry.Tracer(tp),
		Logger:  a.logger,
	}, shutdown, nil
}

func newRedisClient(a *app) (*queue.RedisClient, error) {
	client, err := queue.NewRedisClient(queue.RedisOptions{
		URL:            a.cfg.Redis.URL,
		ConnectTimeout: a.cfg.Redis.GetConnectTimeout(),
	})
	if err != nil {
		return nil, huntgraph.NewNetworkError("queue.Connect", err)
	}
	return client, nil
}

func runServe(ctx context.Context, a *app) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	builder, shutdownTracing, err := newBuilder(a, reg)
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

	checks := map[string]health.Check{}

	var jobs queue.Client
	if a.cfg.Redis.Enabled() {
		client, err := newRedisClient(a)
		if err != nil {
			return err
		}
		defer client.Close()
		jobs = client
		checks["redis"] = func(ctx context.Context) health.Status {
			return health.PingCheck(ctx, "redis", client.Ping)
		}
	}

	advertise := a.cfg.Discovery.Advertise
	if advertise == "" {
		advertise = a.cfg.HTTP.Addr
	}
	registry, deregister, err := announce(ctx, a, discovery.KindAPI, advertise, nil)
	if err != nil {
		return err
	}
	defer deregister()
	if registry != nil {
		checks["etcd"] = func(ctx context.Context) health.Status {
			return health.PingCheck(ctx, "etcd", registry.Ping)
		}
	}

	var sub *bus.Subscriber
	if a.cfg.NATS.Enabled() {
		nc, err := bus.Connect(a.cfg.NATS.URL, a.logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		checks["nats"] = func(ctx context.Context) health.Status {
			return health.PingCheck(ctx, "nats", bus.Ping(nc))
		}

		sub = bus.NewSubscriber(nc, bus.Options{
			Subject:       a.cfg.NATS.Subject,
			ResultSubject: a.cfg.NATS.ResultSubject,
			QueueGroup:    a.cfg.NATS.QueueGroup,
			Builder:       builder,
			Logger:        a.logger,
		})
	}

	server, err := api.NewServer(api.Options{
		Builder:      builder,
		Queue:        jobs,
		QueueName:    a.cfg.Worker.GetName(),
		Checks:       checks,
		Gatherer:     reg,
		MaxBodyBytes: a.cfg.HTTP.GetMaxBodyBytes(),
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           server,
		ReadTimeout:       a.cfg.HTTP.GetReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcLis net.Listener
	if a.cfg.GRPC.Addr != "" {
		grpcLis, err = net.Listen("tcp", a.cfg.GRPC.Addr)
		if err != nil {
			return huntgraph.NewNetworkError("api.GRPCListen", err)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.GetShutdownTimeout())
		defer cancel()
		a.logger.Info("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if sub != nil {
		g.Go(func() error {
			return sub.Subscribe(gCtx)
		})
	}

	if grpcLis != nil {
		healthServer := api.NewGRPCHealthServer(checks, a.logger)
		g.Go(func() error {
			healthServer.Watch(gCtx, healthWatchInterval)
			return nil
		})
		g.Go(func() error {
			a.logger.Info("grpc health listening", "addr", grpcLis.Addr().String())
			return healthServer.Serve(gCtx, grpcLis)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
