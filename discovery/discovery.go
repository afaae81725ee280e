// Package discovery announces running huntgraph processes in etcd so that
// callers can find API servers and see which workers are up.
//
// Each process registers an Instance under a lease. The lease is renewed
// every TTL/3; a process that dies without deregistering disappears once
// its lease expires.
//
//	/<namespace>/<kind>/<instance-id> -> Instance JSON
package discovery

import (
	"time"
)

// Instance kinds.
const (
	KindAPI    = "api"
	KindWorker = "worker"
)

// Instance describes one running huntgraph process.
type Instance struct {
	// Kind is "api" or "worker".
	Kind string `json:"kind"`

	// InstanceID is unique per process.
	InstanceID string `json:"instance_id"`

	// Endpoint is where an api instance serves HTTP ("host:port"). Empty
	// for workers.
	Endpoint string `json:"endpoint,omitempty"`

	// Metadata carries instance attributes such as the queue a worker
	// consumes.
	Metadata map[string]string `json:"metadata,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// Config holds the etcd connection settings.
type Config struct {
	// Endpoints is the list of etcd endpoints ("host:2379").
	Endpoints []string

	// Namespace prefixes every key. Default: huntgraph
	Namespace string

	// TTL is the lease time-to-live in seconds. Default: 30
	TTL int

	// DialTimeout bounds connection establishment. Default: 5s
	DialTimeout time.Duration

	// TLS enables mutual TLS when non-nil and Enabled.
	TLS *TLSConfig
}

// TLSConfig holds client certificate paths for etcd.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = "huntgraph"
	}
	if c.TTL <= 0 {
		c.TTL = 30
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	return c
}
