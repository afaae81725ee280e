// Package health provides the dependency checks behind the huntgraph
// health endpoints.
package health

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

// DefaultTimeout bounds a check when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Check reports the health of a single dependency.
type Check func(ctx context.Context) Status

// NetworkCheck verifies TCP connectivity to a host and port.
//
// Example:
//
//	status := health.NetworkCheck(ctx, "redis", 6379)
//	if status.IsUnhealthy() {
//	    log.Println("Cannot reach redis:6379")
//	}
func NetworkCheck(ctx context.Context, host string, port int) Status {
	if host == "" {
		return Unhealthy("host cannot be empty", nil)
	}

	if port <= 0 || port > 65535 {
		return Unhealthy(
			fmt.Sprintf("invalid port number: %d", port),
			map[string]any{"port": port},
		)
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Unhealthy(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"host":  host,
				"port":  port,
				"error": err.Error(),
			},
		)
	}
	conn.Close()

	return Healthy(fmt.Sprintf("successfully connected to %s", address))
}

// PingCheck runs ping and reports the named dependency unhealthy if it
// returns an error.
//
// Example:
//
//	status := health.PingCheck(ctx, "redis", queueClient.Ping)
func PingCheck(ctx context.Context, name string, ping func(context.Context) error) Status {
	if ping == nil {
		return Unhealthy(fmt.Sprintf("%s: no ping function", name), nil)
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return Unhealthy(
			fmt.Sprintf("%s unreachable", name),
			map[string]any{
				"name":  name,
				"error": err.Error(),
			},
		)
	}

	return Status{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%s reachable", name),
		Details: map[string]any{"latency_ms": time.Since(start).Milliseconds()},
	}
}

// Combine aggregates multiple health checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
func Combine(checks ...Status) Status {
	if len(checks) == 0 {
		return Healthy("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		msg := check.Message
		if msg == "" {
			msg = "unnamed check"
		}
		switch check.Status {
		case StatusUnhealthy:
			unhealthyChecks = append(unhealthyChecks, msg)
		case StatusDegraded:
			degradedChecks = append(degradedChecks, msg)
		case StatusHealthy:
			healthyCount++
		}
	}

	if len(unhealthyChecks) > 0 {
		return Unhealthy(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	if len(degradedChecks) > 0 {
		return Degraded(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	return Healthy(fmt.Sprintf("all %d check(s) passed", len(checks)))
}

// Report is the body of the HTTP health endpoint.
type Report struct {
	Status    string            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]Status `json:"checks"`
}

// Run executes the named checks concurrently and combines their results.
// With no checks the report is healthy.
func Run(ctx context.Context, checks map[string]Check) Report {
	results := make(map[string]Status, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			status := check(ctx)
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		s := results[name]
		if s.Message == "" {
			s.Message = name
		}
		statuses = append(statuses, s)
	}

	combined := Combine(statuses...)
	return Report{
		Status:    combined.Status,
		Message:   combined.Message,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
