package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints and that every duration string parses.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}

	var msgs []string

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return fmt.Errorf("validation error: %w", err)
		}
		for _, e := range validationErrs {
			msgs = append(msgs, formatValidationError(e))
		}
	}

	durations := map[string]string{
		"http.shutdown_timeout":     c.HTTP.ShutdownTimeout,
		"http.read_timeout":         c.HTTP.ReadTimeout,
		"redis.connect_timeout":     c.Redis.ConnectTimeout,
		"worker.shutdown_timeout":   c.Worker.ShutdownTimeout,
		"worker.heartbeat_interval": c.Worker.HeartbeatInterval,
	}
	for _, field := range sortedKeys(durations) {
		value := durations[field]
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			msgs = append(msgs, fmt.Sprintf("%s must be a Go duration (got: %q)", field, value))
		}
	}

	if len(msgs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return nil
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fieldPath)
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port (got: %v)", fieldPath, e.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", fieldPath, e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fieldPath, e.Tag())
	}
}

// formatFieldPath drops the root struct name: "Config.http.addr" becomes "http.addr".
func formatFieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
