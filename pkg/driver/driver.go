// Package driver manages the lifecycle of external-service clients.
//
// A Driver knows how to initialize, clean up, and health-check one kind of
// backing service (MongoDB, pooled HTTP client, object storage, local cache).
// The Container owns a registry of named drivers and guarantees that each
// named resource is initialized exactly once, no matter how many request
// handlers ask for it concurrently.
//
// Example usage:
//
//	state := driver.NewSharedState()
//	c := driver.NewContainer(state)
//	c.Register("mongo", driver.NewMongoDriver(), cfg.DriverOptions("mongo"))
//
//	inst, err := c.GetInstance(ctx, "mongo")
//	...
//	defer c.CleanupAll(context.Background())
package driver

import (
	"context"
	"time"
)

// Driver is the capability contract implemented once per backing service.
//
// Initialize builds a ready-to-use client instance from the given options.
// Cleanup releases the instance's resources; it is called at most once per
// instance, during shutdown. Healthcheck reports whether the instance is
// still usable; a nil error means healthy.
type Driver interface {
	Initialize(ctx context.Context, opts Options) (any, error)
	Cleanup(ctx context.Context, instance any) error
	Healthcheck(ctx context.Context, instance any) error
}

// Options is an immutable per-resource option map. It is constructed once at
// startup from configuration and shared read-only between the container and
// the driver; drivers must not mutate it.
type Options map[string]any

// String returns the string value for key, or def when absent or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int returns the integer value for key, tolerating the numeric types that
// YAML and JSON decoders produce. Returns def when absent or not numeric.
func (o Options) Int(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return def
	}
}

// Float64 returns the float value for key, or def when absent or not numeric.
func (o Options) Float64(key string, def float64) float64 {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// Bool returns the boolean value for key, or def when absent or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Duration returns the duration for key. Accepts time.Duration values,
// duration strings ("30s"), or bare numbers interpreted as milliseconds.
// Returns def when absent or unparseable.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
		return def
	case int:
		return time.Duration(d) * time.Millisecond
	case int64:
		return time.Duration(d) * time.Millisecond
	case float64:
		return time.Duration(d) * time.Millisecond
	default:
		return def
	}
}
