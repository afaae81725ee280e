package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/huntgraph/discovery"
)

func newDiscoveryClient(a *app) (*discovery.Client, error) {
	d := a.cfg.Discovery
	cfg := discovery.Config{
		Endpoints: d.Endpoints,
		Namespace: d.Namespace,
		TTL:       d.TTL,
	}
	if d.TLS.Enabled {
		cfg.TLS = &discovery.TLSConfig{
			Enabled:  true,
			CertFile: d.TLS.CertFile,
			KeyFile:  d.TLS.KeyFile,
			CAFile:   d.TLS.CAFile,
		}
	}
	return discovery.NewClient(cfg, a.logger)
}

// announce registers this process when discovery is configured. The
// returned func deregisters it and closes the client; it is never nil.
func announce(ctx context.Context, a *app, kind, endpoint string, metadata map[string]string) (*discovery.Client, func(), error) {
	if !a.cfg.Discovery.Enabled() {
		return nil, func() {}, nil
	}

	client, err := newDiscoveryClient(a)
	if err != nil {
		return nil, nil, err
	}

	inst := discovery.Instance{
		Kind:       kind,
		InstanceID: kind + "-" + uuid.New().String()[:8],
		Endpoint:   endpoint,
		Metadata:   metadata,
		StartedAt:  time.Now().UTC(),
	}
	if err := client.Register(ctx, inst); err != nil {
		client.Close()
		return nil, nil, err
	}

	return client, func() {
		deregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Deregister(deregCtx, inst); err != nil {
			a.logger.Warn("failed to deregister instance", "instance_id", inst.InstanceID, "error", err)
		}
		client.Close()
	}, nil
}

func newInstancesCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List running huntgraph API servers and workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Discovery.Enabled() {
				return fmt.Errorf("instances requires discovery.endpoints (or HUNTGRAPH_DISCOVERY_ENDPOINTS)")
			}

			client, err := newDiscoveryClient(a)
			if err != nil {
				return err
			}
			defer client.Close()

			found, err := client.Discover(cmd.Context(), kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tINSTANCE\tENDPOINT\tUPTIME")
			for _, inst := range found {
				endpoint := inst.Endpoint
				if endpoint == "" {
					endpoint = "-"
				}
				uptime := time.Since(inst.StartedAt).Truncate(time.Second)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inst.Kind, inst.InstanceID, endpoint, uptime)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list this kind (api or worker)")
	return cmd
}
