package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledConstructorsReturnNil(t *testing.T) {
	mu.Lock()
	registry = nil
	mu.Unlock()

	assert.False(t, IsEnabled())
	assert.Nil(t, NewQueryMetrics())
	assert.Nil(t, NewDriverMetrics())

	// Nil receivers must be safe to record on.
	var qm *QueryMetrics
	var dm *DriverMetrics
	assert.NotPanics(t, func() {
		qm.ObserveAggregate("store", time.Second)
		dm.RecordInit("mongo", time.Second, nil)
		dm.SetHealth(map[string]bool{"mongo": true})
	})
}

func TestEnabledMetricsCollect(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	qm := NewQueryMetrics()
	require.NotNil(t, qm)
	qm.ObserveAggregate("store", 125*time.Millisecond)
	qm.ObserveAggregate("menu_item", 40*time.Millisecond)

	dm := NewDriverMetrics()
	require.NotNil(t, dm)
	dm.RecordInit("mongo", 80*time.Millisecond, nil)
	dm.RecordInit("cachestore", 5*time.Millisecond, errors.New("disk full"))
	dm.SetHealth(map[string]bool{"mongo": true, "httpclient": false})

	families, err := GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["drinkscout_aggregation_duration_seconds"])
	assert.True(t, names["drinkscout_aggregations_total"])
	assert.True(t, names["drinkscout_driver_initializations_total"])
	assert.True(t, names["drinkscout_driver_healthy"])
}

func TestHandlerDisabled(t *testing.T) {
	mu.Lock()
	registry = nil
	mu.Unlock()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerEnabled(t *testing.T) {
	InitRegistry()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
