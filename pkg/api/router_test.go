package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/drinkscout/drinkscout/pkg/catalog"
	"github.com/drinkscout/drinkscout/pkg/config"
	"github.com/drinkscout/drinkscout/pkg/driver"
	"github.com/drinkscout/drinkscout/pkg/query"
)

type emptyExecutor struct{}

func (emptyExecutor) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	return []bson.M{}, nil
}

type emptyFinder struct{}

func (emptyFinder) Find(ctx context.Context, collection string, filter bson.D, sort bson.D, limit int64) ([]bson.M, error) {
	return []bson.M{}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	c := driver.NewContainer(driver.NewSharedState())
	svc := catalog.NewService(query.NewEngine(emptyExecutor{}), emptyFinder{})
	return NewRouter(Services{
		Container:    c,
		Catalog:      svc,
		DefaultLimit: 100,
	}, 5*time.Second)
}

func TestRouterRoutes(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/health/drivers", "", http.StatusOK},
		{http.MethodGet, "/v1/drink-tags", "", http.StatusOK},
		{http.MethodGet, "/v1/brands", "", http.StatusOK},
		{http.MethodPost, "/v1/stores/search", `{"longitude":121.5,"latitude":25.0}`, http.StatusOK},
		{http.MethodPost, "/v1/drinks/search", `{"longitude":121.5,"latitude":25.0}`, http.StatusOK},
		{http.MethodPost, "/v1/recommend", `{"filter":{"longitude":121.5,"latitude":25.0}}`, http.StatusServiceUnavailable},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouterRootRedirects(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/health", rec.Header().Get("Location"))
}

func TestServerStartAndStop(t *testing.T) {
	cfg := config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		IdleTimeout:    time.Second,
		RequestTimeout: time.Second,
	}
	srv := NewServer(cfg, Services{DefaultLimit: 100})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	// Give the listener a moment to come up, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
