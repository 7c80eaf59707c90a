package driver

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned by GetInstance for an unknown resource name.
// Asking for an unregistered driver is a programming error, not a runtime
// condition, so it is surfaced immediately rather than retried.
var ErrNotRegistered = errors.New("driver not registered")

// ConfigError reports a missing or invalid required option. It is fatal and
// surfaced immediately; the container never caches an instance for it, so a
// corrected configuration can succeed on a later call.
type ConfigError struct {
	Driver string // driver name, e.g. "mongo"
	Option string // offending option key
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("driver %q: invalid configuration for option %q: %s", e.Driver, e.Option, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
