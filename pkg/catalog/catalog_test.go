package catalog

import (
	"context"
	"errors"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/drinkscout/drinkscout/pkg/query"
)

type findCall struct {
	collection string
	filter     bson.D
	sort       bson.D
	limit      int64
}

type fakeFinder struct {
	docs  []bson.M
	err   error
	calls []findCall
}

func (f *fakeFinder) Find(ctx context.Context, collection string, filter bson.D, sort bson.D, limit int64) ([]bson.M, error) {
	f.calls = append(f.calls, findCall{collection: collection, filter: filter, sort: sort, limit: limit})
	return f.docs, f.err
}

// fakeExecutor satisfies query.Executor with queued responses.
type fakeExecutor struct {
	responses [][]bson.M
}

func (f *fakeExecutor) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	if len(f.responses) == 0 {
		return nil, nil
	}
	docs := f.responses[0]
	f.responses = f.responses[1:]
	return docs, nil
}

func memoryCache(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestListDrinkTagsSortsByLength(t *testing.T) {
	finder := &fakeFinder{docs: []bson.M{
		{"name": "黑糖珍珠鮮奶", "count": 120},
		{"name": "奶茶", "count": 80},
		{"name": "烏龍茶", "count": 40},
	}}
	svc := NewService(query.NewEngine(&fakeExecutor{}), finder)

	tags, err := svc.ListDrinkTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 3)

	assert.Equal(t, "奶茶", tags[0].Name, "shortest tag leads")
	assert.Equal(t, "烏龍茶", tags[1].Name)
	assert.Equal(t, "黑糖珍珠鮮奶", tags[2].Name)

	require.Len(t, finder.calls, 1)
	call := finder.calls[0]
	assert.Equal(t, CollectionDrinkTag, call.collection)
	assert.Equal(t, bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: 5}}}}, call.filter)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}}, call.sort)
	assert.Equal(t, int64(1000), call.limit)
}

func TestListDrinkTagsCached(t *testing.T) {
	finder := &fakeFinder{docs: []bson.M{{"name": "奶茶", "count": 80}}}
	svc := NewService(query.NewEngine(&fakeExecutor{}), finder, WithCache(memoryCache(t)))

	first, err := svc.ListDrinkTags(context.Background())
	require.NoError(t, err)

	second, err := svc.ListDrinkTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, finder.calls, 1, "the second call must be served from the cache")
}

func TestListBrandsFilter(t *testing.T) {
	finder := &fakeFinder{docs: []bson.M{
		{"name": "五十嵐", "has_chain": true, "chain_count": 42},
	}}
	svc := NewService(query.NewEngine(&fakeExecutor{}), finder)

	brands, err := svc.ListBrands(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "五十嵐", brands[0].Name)
	assert.Equal(t, 42, brands[0].ChainCount)

	call := finder.calls[0]
	assert.Equal(t, CollectionBrand, call.collection)
	assert.Equal(t, bson.D{
		{Key: "has_chain", Value: true},
		{Key: "chain_count", Value: bson.D{{Key: "$gt", Value: 1}}},
		{Key: "platforms", Value: "ubereats"},
	}, call.filter)
	assert.Equal(t, bson.D{{Key: "chain_count", Value: -1}}, call.sort)
}

func TestListBrandsFinderError(t *testing.T) {
	boom := errors.New("cursor lost")
	svc := NewService(query.NewEngine(&fakeExecutor{}), &fakeFinder{err: boom})

	_, err := svc.ListBrands(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestListSimplifiedDrinks(t *testing.T) {
	exec := &fakeExecutor{responses: [][]bson.M{
		// Store phase.
		{{
			"store_id": "A", "platform": "ubereats", "name": "Store A",
			"rating":            bson.M{"value": 4.5, "review_count": 10},
			"distance_in_meter": 500.0, "distance_in_km": 0.5,
		}},
		// Menu phase.
		{{
			"item_id": "i1", "store_id": "A", "platform": "ubereats",
			"name": "珍珠奶茶", "description": "經典", "price": 60.0,
		}},
	}}
	svc := NewService(query.NewEngine(exec), &fakeFinder{})

	drinks, err := svc.ListSimplifiedDrinks(context.Background(), query.Filter{})
	require.NoError(t, err)
	require.Len(t, drinks, 1)

	assert.Equal(t, query.SimplifiedDrink{
		Name:        "珍珠奶茶",
		Description: "經典",
		StoreID:     "A",
		StoreName:   "Store A",
		StoreURL:    "https://www.ubereats.com/tw/store/A",
	}, drinks[0])
}
