package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently so
// that logs can be aggregated and queried across the whole service.
const (
	// Request correlation
	KeyTraceID   = "trace_id"
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"

	// Domain
	KeyPlatform   = "platform"   // delivery platform: ubereats, foodpanda
	KeyCollection = "collection" // document collection: store, menu_item, ...
	KeyDriver     = "driver"     // resource driver name: mongo, httpclient, ...
	KeyStoreID    = "store_id"
	KeyTags       = "tags"
	KeyBrands     = "brands"

	// Results & timing
	KeyCount      = "count"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// Err returns a slog attribute for an error value, tolerating nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// F is a convenience constructor for ad-hoc attributes whose value needs
// formatting, e.g. F("radius_km", "%.2f", r).
func F(key, format string, args ...any) slog.Attr {
	return slog.String(key, fmt.Sprintf(format, args...))
}
