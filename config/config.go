// Package config provides loading of the huntgraph service configuration
// from huntgraph.yaml, .env files and HUNTGRAPH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/huntgraph"
)

// Config is the service configuration. Every section has usable defaults;
// Redis, NATS, gRPC and discovery are disabled until an address is configured.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Worker    WorkerConfig    `yaml:"worker"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// ShutdownTimeout bounds graceful shutdown.
	// Format: Go duration string (e.g., "30s")
	// Default: 15s
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// ReadTimeout applies to whole requests, body included.
	// Default: 10s
	ReadTimeout string `yaml:"read_timeout,omitempty"`

	// MaxBodyBytes caps request bodies. Default: 8 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty" validate:"gte=0"`
}

// GRPCConfig configures the gRPC health endpoint. Empty Addr disables it.
type GRPCConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// RedisConfig configures the build job queue. Empty URL disables it.
type RedisConfig struct {
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`

	// ConnectTimeout is the maximum time to wait for connection establishment.
	// Default: 5s
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
}

// NATSConfig configures the NATS subscriber. Empty URL disables it.
type NATSConfig struct {
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`

	// Subject carries build requests. Default: hunt.findings
	Subject string `yaml:"subject,omitempty"`

	// ResultSubject receives graphs for requests without a reply subject.
	// Default: hunt.graphs
	ResultSubject string `yaml:"result_subject,omitempty"`

	// QueueGroup load-balances requests across replicas. Default: huntgraph
	QueueGroup string `yaml:"queue_group,omitempty"`
}

// WorkerConfig configures queue-based graph building.
type WorkerConfig struct {
	// Name identifies the queue (huntgraph:<name>:queue). Default: graph
	Name string `yaml:"name,omitempty"`

	// Concurrency is the number of worker goroutines.
	// Default: 4
	Concurrency int `yaml:"concurrency,omitempty" validate:"gte=0"`

	// ShutdownTimeout is the time to wait for in-flight jobs.
	// Format: Go duration string (e.g., "30s", "1m")
	// Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// HeartbeatInterval is the interval between health heartbeats.
	// Default: 10s
	HeartbeatInterval string `yaml:"heartbeat_interval,omitempty"`
}

// CacheConfig configures the in-process graph cache.
type CacheConfig struct {
	// Size is the number of graphs kept. Zero disables caching.
	Size int `yaml:"size" validate:"gte=0"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=json text"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name,omitempty"`
	SampleRatio float64 `yaml:"sample_ratio,omitempty" validate:"gte=0,lte=1"`
}

// DiscoveryConfig configures instance registration in etcd. No endpoints
// disables it.
type DiscoveryConfig struct {
	Endpoints []string `yaml:"endpoints,omitempty" validate:"omitempty,dive,hostname_port"`

	// Namespace prefixes every key. Default: huntgraph
	Namespace string `yaml:"namespace,omitempty"`

	// TTL is the lease time-to-live in seconds. Default: 30
	TTL int `yaml:"ttl,omitempty" validate:"gte=0"`

	// Advertise is the HTTP endpoint announced for api instances.
	// Default: http.addr
	Advertise string `yaml:"advertise,omitempty"`

	TLS DiscoveryTLSConfig `yaml:"tls,omitempty"`
}

// DiscoveryTLSConfig holds client certificate paths for etcd.
type DiscoveryTLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file,omitempty" validate:"required_if=Enabled true"`
	KeyFile  string `yaml:"key_file,omitempty" validate:"required_if=Enabled true"`
	CAFile   string `yaml:"ca_file,omitempty" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxBodyBytes: 8 << 20,
		},
		NATS: NATSConfig{
			Subject:       "hunt.findings",
			ResultSubject: "hunt.graphs",
			QueueGroup:    "huntgraph",
		},
		Worker: WorkerConfig{
			Name:        "graph",
			Concurrency: 4,
		},
		Cache: CacheConfig{Size: 256},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			ServiceName: "huntgraph",
			SampleRatio: 1.0,
		},
		Discovery: DiscoveryConfig{
			Namespace: "huntgraph",
			TTL:       30,
		},
	}
}

// DefaultEnvFiles are the .env locations tried by Load, first match wins.
var DefaultEnvFiles = []string{".env", "/etc/huntgraph/.env"}

// Load builds the configuration in this order: defaults, the YAML file at
// path (if path is non-empty), the first readable env file, HUNTGRAPH_*
// environment variables. The result is validated before it is returned.
// Failures match huntgraph.ErrInvalidConfig.
//
// If path is a directory, huntgraph.yaml or huntgraph.yml inside it is used.
// When envFiles is empty, DefaultEnvFiles is used.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, huntgraph.NewConfigurationError("config.Load", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	loadEnvFile(envFiles)

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, huntgraph.NewConfigurationError("config.Load", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, huntgraph.NewConfigurationError("config.Load", err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"huntgraph.yaml", "huntgraph.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return fmt.Errorf("no huntgraph.yaml or huntgraph.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadEnvFile loads the first env file that exists. godotenv never
// overrides variables that are already set.
func loadEnvFile(paths []string) string {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// GetShutdownTimeout parses the shutdown timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (h HTTPConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(h.ShutdownTimeout, 15*time.Second)
}

// GetReadTimeout returns the request read timeout or the default value.
func (h HTTPConfig) GetReadTimeout() time.Duration {
	return parseDuration(h.ReadTimeout, 10*time.Second)
}

// GetMaxBodyBytes returns the request body limit or the default value.
func (h HTTPConfig) GetMaxBodyBytes() int64 {
	if h.MaxBodyBytes <= 0 {
		return 8 << 20
	}
	return h.MaxBodyBytes
}

// GetConnectTimeout returns the Redis connect timeout or the default value.
func (r RedisConfig) GetConnectTimeout() time.Duration {
	return parseDuration(r.ConnectTimeout, 5*time.Second)
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Enabled reports whether etcd endpoints are configured.
func (d DiscoveryConfig) Enabled() bool {
	return len(d.Endpoints) > 0
}

// Enabled reports whether a NATS URL is configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// GetShutdownTimeout parses the shutdown timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (w WorkerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(w.ShutdownTimeout, 30*time.Second)
}

// GetHeartbeatInterval parses the heartbeat interval string and returns a duration.
// Returns the default value if not set or invalid.
func (w WorkerConfig) GetHeartbeatInterval() time.Duration {
	return parseDuration(w.HeartbeatInterval, 10*time.Second)
}

// GetConcurrency returns the configured concurrency or the default value.
func (w WorkerConfig) GetConcurrency() int {
	if w.Concurrency <= 0 {
		return 4
	}
	return w.Concurrency
}

// GetName returns the queue name or the default value.
func (w WorkerConfig) GetName() string {
	if w.Name == "" {
		return "graph"
	}
	return w.Name
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
