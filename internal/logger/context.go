package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging context.
type LogContext struct {
	TraceID    string    // trace ID for request correlation
	RequestID  string    // HTTP request ID assigned by the router
	ClientIP   string    // client IP address (without port)
	Platform   string    // delivery platform being queried (ubereats, foodpanda)
	Collection string    // document collection the current operation targets
	StartTime  time.Time // for duration calculation
}

// WithContext returns a new context carrying the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a request from the given client.
func NewLogContext(requestID, clientIP string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	cp := *lc
	return &cp
}

// WithPlatform returns a copy with the platform set.
func (lc *LogContext) WithPlatform(platform string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Platform = platform
	}
	return clone
}

// WithCollection returns a copy with the collection set.
func (lc *LogContext) WithCollection(collection string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Collection = collection
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
