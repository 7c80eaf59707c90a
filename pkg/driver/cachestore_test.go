package driver

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStoreDriverLifecycle(t *testing.T) {
	d := NewCacheStoreDriver()
	ctx := context.Background()

	inst, err := d.Initialize(ctx, Options{"in_memory": true})
	require.NoError(t, err)

	db, ok := inst.(*badger.DB)
	require.True(t, ok)

	assert.NoError(t, d.Healthcheck(ctx, inst))

	require.NoError(t, d.Cleanup(ctx, inst))
	assert.True(t, db.IsClosed())
	assert.Error(t, d.Healthcheck(ctx, inst), "a closed store is unhealthy")
}

func TestCacheStoreDriverRequiresPath(t *testing.T) {
	d := NewCacheStoreDriver()

	_, err := d.Initialize(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestCacheStoreDriverOnDisk(t *testing.T) {
	d := NewCacheStoreDriver()
	ctx := context.Background()

	inst, err := d.Initialize(ctx, Options{"path": t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, d.Cleanup(ctx, inst))
}
