package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HUNTGRAPH_"

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from HUNTGRAPH_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	str("HTTP_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout)
	str("GRPC_ADDR", &c.GRPC.Addr)
	str("REDIS_URL", &c.Redis.URL)
	str("NATS_URL", &c.NATS.URL)
	str("NATS_SUBJECT", &c.NATS.Subject)
	str("NATS_RESULT_SUBJECT", &c.NATS.ResultSubject)
	str("WORKER_NAME", &c.Worker.Name)
	str("WORKER_SHUTDOWN_TIMEOUT", &c.Worker.ShutdownTimeout)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("TRACING_SERVICE_NAME", &c.Tracing.ServiceName)

	str("DISCOVERY_ADVERTISE", &c.Discovery.Advertise)

	if v, ok := lookup(EnvPrefix + "DISCOVERY_ENDPOINTS"); ok && v != "" {
		c.Discovery.Endpoints = nil
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				c.Discovery.Endpoints = append(c.Discovery.Endpoints, ep)
			}
		}
	}

	if err := envInt(lookup, "WORKER_CONCURRENCY", &c.Worker.Concurrency); err != nil {
		return err
	}
	if err := envInt(lookup, "CACHE_SIZE", &c.Cache.Size); err != nil {
		return err
	}

	if v, ok := lookup(EnvPrefix + "TRACING_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sTRACING_ENABLED: %w", EnvPrefix, err)
		}
		c.Tracing.Enabled = enabled
	}

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	return nil
}

func envInt(lookup lookupFunc, key string, dst *int) error {
	v, ok := lookup(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}
