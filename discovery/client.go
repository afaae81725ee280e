package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zero-day-ai/huntgraph"
)

var errClosed = errors.New("discovery client is closed")

// Client registers and lists instances. All methods are safe for
// concurrent use.
type Client struct {
	etcd      *clientv3.Client
	kv        clientv3.KV
	lease     clientv3.Lease
	namespace string
	ttl       int
	logger    *slog.Logger

	mu        sync.Mutex
	leases    map[string]clientv3.LeaseID // key: instance ID
	cancelFns map[string]context.CancelFunc
	wg        sync.WaitGroup
	closed    bool
	closedCh  chan struct{}
}

// NewClient connects to etcd and checks that it answers.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("discovery endpoints cannot be empty")
	}
	cfg = cfg.withDefaults()

	tlsConfig, err := clientTLS(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		TLS:         tlsConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	c := newClient(cli, cli, cfg, logger)
	c.etcd = cli

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		cli.Close()
		return nil, huntgraph.NewNetworkError("discovery.Connect", fmt.Errorf("etcd health check failed: %w", err))
	}

	return c, nil
}

func newClient(kv clientv3.KV, lease clientv3.Lease, cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		kv:        kv,
		lease:     lease,
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
		logger:    logger,
		leases:    make(map[string]clientv3.LeaseID),
		cancelFns: make(map[string]context.CancelFunc),
		closedCh:  make(chan struct{}),
	}
}

// Ping reads a key to confirm etcd is reachable. It fits health.PingCheck.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.kv.Get(ctx, c.prefix(""), clientv3.WithCountOnly())
	return err
}

// Register stores inst under a new lease and starts renewing it.
// Registering the same InstanceID again replaces the entry.
func (c *Client) Register(ctx context.Context, inst Instance) error {
	if inst.Kind == "" || inst.InstanceID == "" {
		return fmt.Errorf("instance kind and id are required")
	}
	if inst.StartedAt.IsZero() {
		inst.StartedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}

	if cancel, ok := c.cancelFns[inst.InstanceID]; ok {
		cancel()
		delete(c.cancelFns, inst.InstanceID)
	}

	grant, err := c.lease.Grant(ctx, int64(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	if _, err := c.kv.Put(ctx, c.key(inst.Kind, inst.InstanceID), string(data), clientv3.WithLease(grant.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	c.leases[inst.InstanceID] = grant.ID

	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[inst.InstanceID] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, grant.ID, inst.InstanceID)

	c.logger.Info("registered instance",
		"kind", inst.Kind,
		"instance_id", inst.InstanceID,
		"endpoint", inst.Endpoint,
	)
	return nil
}

// Deregister revokes the instance lease, which deletes its entry. Unknown
// instances are a no-op.
func (c *Client) Deregister(ctx context.Context, inst Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}

	if cancel, ok := c.cancelFns[inst.InstanceID]; ok {
		cancel()
		delete(c.cancelFns, inst.InstanceID)
	}

	leaseID, ok := c.leases[inst.InstanceID]
	if !ok {
		return nil
	}

	if _, err := c.lease.Revoke(ctx, leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	delete(c.leases, inst.InstanceID)
	return nil
}

// Discover lists registered instances of kind, or of every kind when kind
// is empty. Results are ordered by kind, then start time.
func (c *Client) Discover(ctx context.Context, kind string) ([]Instance, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, errClosed
	}

	resp, err := c.kv.Get(ctx, c.prefix(kind), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover instances: %w", err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			c.logger.Warn("skipping malformed instance entry", "key", string(kv.Key), "error", err)
			continue
		}
		instances = append(instances, inst)
	}

	sort.SliceStable(instances, func(i, j int) bool {
		if instances[i].Kind != instances[j].Kind {
			return instances[i].Kind < instances[j].Kind
		}
		return instances[i].StartedAt.Before(instances[j].StartedAt)
	})
	return instances, nil
}

// Close stops keepalives and closes the etcd connection. Leases are left
// to expire; call Deregister first for immediate removal.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[string]context.CancelFunc)
	close(c.closedCh)
	c.mu.Unlock()

	c.wg.Wait()

	if c.etcd != nil {
		return c.etcd.Close()
	}
	return nil
}

// keepalive renews the lease every TTL/3 until cancelled or the lease is lost.
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, instanceID string) {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Duration(c.ttl) * time.Second / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedCh:
			return
		case <-ticker.C:
			if _, err := c.lease.KeepAliveOnce(ctx, leaseID); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("lost instance lease", "instance_id", instanceID, "error", err)
				c.mu.Lock()
				// a re-register may have replaced this lease already
				if c.leases[instanceID] == leaseID {
					delete(c.leases, instanceID)
					delete(c.cancelFns, instanceID)
				}
				c.mu.Unlock()
				return
			}
		}
	}
}

func (c *Client) key(kind, instanceID string) string {
	return fmt.Sprintf("/%s/%s/%s", c.namespace, kind, instanceID)
}

func (c *Client) prefix(kind string) string {
	if kind == "" {
		return fmt.Sprintf("/%s/", c.namespace)
	}
	return fmt.Sprintf("/%s/%s/", c.namespace, kind)
}
