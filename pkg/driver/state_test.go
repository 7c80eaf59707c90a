package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "mongo_driver", SlotKey("mongo"))
	assert.Equal(t, "httpclient_driver", SlotKey("httpclient"))
	assert.Equal(t, "objectstore_driver", SlotKey("objectstore"))
	assert.Equal(t, "cachestore_driver", SlotKey("cachestore"))
}

func TestSharedStatePublishFirstWins(t *testing.T) {
	s := NewSharedState()
	first := &struct{ n int }{n: 1}
	second := &struct{ n int }{n: 2}

	s.Publish("mongo_driver", first)
	s.Publish("mongo_driver", second)

	got, found := s.Lookup("mongo_driver")
	require.True(t, found)
	assert.Same(t, first, got)
}

func TestSharedStateLookupMiss(t *testing.T) {
	s := NewSharedState()

	_, found := s.Lookup("mongo_driver")
	assert.False(t, found)
}

func TestSharedStateIgnoresNilInstance(t *testing.T) {
	s := NewSharedState()
	s.Publish("mongo_driver", nil)

	_, found := s.Lookup("mongo_driver")
	assert.False(t, found, "nil must never occupy a slot")
}

func TestSharedStateDrop(t *testing.T) {
	s := NewSharedState()
	s.Publish("cachestore_driver", &struct{}{})
	s.Drop("cachestore_driver")

	_, found := s.Lookup("cachestore_driver")
	assert.False(t, found)
}

func TestSharedStateNilReceiver(t *testing.T) {
	var s *SharedState

	_, found := s.Lookup("mongo_driver")
	assert.False(t, found)
	assert.NotPanics(t, func() {
		s.Publish("mongo_driver", &struct{}{})
		s.Drop("mongo_driver")
	})
}
