package driver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// HTTPClientDriver manages a pooled http.Client shared by outbound callers
// (the recommendation-agent client in particular).
//
// Supported options:
//   - timeout: overall request timeout (default 240s)
//   - max_connections: pool-wide idle connection cap (default 100)
//   - max_keepalive: idle connections kept per host (default 20)
//   - keepalive_expiry: idle connection lifetime (default 5s)
type HTTPClientDriver struct{}

// NewHTTPClientDriver creates an HTTP client pool driver.
func NewHTTPClientDriver() *HTTPClientDriver {
	return &HTTPClientDriver{}
}

// Initialize builds the pooled client.
func (d *HTTPClientDriver) Initialize(ctx context.Context, opts Options) (any, error) {
	transport := &http.Transport{
		MaxIdleConns:        opts.Int("max_connections", 100),
		MaxIdleConnsPerHost: opts.Int("max_keepalive", 20),
		IdleConnTimeout:     opts.Duration("keepalive_expiry", 5*time.Second),
	}

	client := &http.Client{
		Timeout:   opts.Duration("timeout", 240*time.Second),
		Transport: transport,
	}

	logger.Info("http client pool initialized",
		"timeout", client.Timeout.String(),
		"max_connections", transport.MaxIdleConns)
	return client, nil
}

// Cleanup closes idle connections. In-flight requests are unaffected.
func (d *HTTPClientDriver) Cleanup(ctx context.Context, instance any) error {
	client, ok := instance.(*http.Client)
	if !ok || client == nil {
		return nil
	}
	client.CloseIdleConnections()
	return nil
}

// Healthcheck verifies the instance only. A pooled client has no backing
// connection of its own to probe; callers that need an active reachability
// check against a specific upstream use ProbeURL.
func (d *HTTPClientDriver) Healthcheck(ctx context.Context, instance any) error {
	client, ok := instance.(*http.Client)
	if !ok || client == nil {
		return fmt.Errorf("http client not initialized")
	}
	return nil
}

// ProbeURL issues a GET against url with a 5 second budget and reports
// whether the endpoint answered 2xx. Exposed for callers that want an
// active reachability check on top of Healthcheck.
func ProbeURL(ctx context.Context, client *http.Client, url string) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}
