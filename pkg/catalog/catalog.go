// Package catalog is the service layer over the query engine: store and
// drink searches, plus the slow-moving tag and brand listings, which are
// cached locally.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	badger "github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/drinkscout/drinkscout/pkg/query"
)

// Collection names used by the listings.
const (
	CollectionDrinkTag = "drink_tag"
	CollectionBrand    = "brand"
)

// DrinkTag is a searchable tag with its corpus frequency.
type DrinkTag struct {
	Name  string `bson:"name" json:"name"`
	Count int    `bson:"count" json:"count"`
}

// Brand is a chain brand aggregated across stores.
type Brand struct {
	Name       string   `bson:"name" json:"name"`
	HasChain   bool     `bson:"has_chain" json:"has_chain"`
	ChainCount int      `bson:"chain_count" json:"chain_count"`
	Platforms  []string `bson:"platforms,omitempty" json:"platforms,omitempty"`
}

// DocumentFinder runs plain filtered queries. Satisfied by
// query.MongoExecutor.
type DocumentFinder interface {
	Find(ctx context.Context, collection string, filter bson.D, sort bson.D, limit int64) ([]bson.M, error)
}

// Tag and brand listings barely change between scrape runs, so they are
// served from the local cache for a short window.
const (
	DefaultCacheTTL = 10 * time.Minute

	cacheKeyDrinkTags = "catalog/drink_tags"
	cacheKeyBrands    = "catalog/brands"

	listingLimit = 1000
	minTagCount  = 5
)

// Service exposes the catalog operations.
type Service struct {
	engine *query.Engine
	finder DocumentFinder
	cache  *badger.DB
	ttl    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables listing caching on the given store.
func WithCache(db *badger.DB) Option {
	return func(s *Service) { s.cache = db }
}

// WithCacheTTL overrides the listing cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// NewService creates a catalog service. Without WithCache, listings hit the
// database every time.
func NewService(engine *query.Engine, finder DocumentFinder, opts ...Option) *Service {
	s := &Service{engine: engine, finder: finder, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListStores returns stores matching the filter with their matched menus.
func (s *Service) ListStores(ctx context.Context, f query.Filter) ([]query.StoreWithMenu, error) {
	return s.engine.FindDrinkStoresWithMenu(ctx, f)
}

// ListDrinks returns drinks matching the filter with store context.
func (s *Service) ListDrinks(ctx context.Context, f query.Filter) ([]query.Drink, error) {
	return s.engine.FindDrinks(ctx, f)
}

// ListSimplifiedDrinks returns the reduced drink shape handed to the
// recommendation agent, trimmed to keep the prompt small.
func (s *Service) ListSimplifiedDrinks(ctx context.Context, f query.Filter) ([]query.SimplifiedDrink, error) {
	drinks, err := s.engine.FindDrinks(ctx, f)
	if err != nil {
		return nil, err
	}

	simplified := make([]query.SimplifiedDrink, 0, len(drinks))
	for _, d := range drinks {
		simplified = append(simplified, query.SimplifiedDrink{
			Name:        d.Name,
			Description: d.Description,
			StoreID:     d.StoreID,
			StoreName:   d.StoreName,
			StoreURL:    d.StoreURL,
		})
	}
	return simplified, nil
}

// ListDrinkTags returns tags seen more than minTagCount times, most frequent
// first in the store query, then reordered by ascending tag length so short
// generic tags lead the list.
func (s *Service) ListDrinkTags(ctx context.Context) ([]DrinkTag, error) {
	var cached []DrinkTag
	if s.cacheGet(cacheKeyDrinkTags, &cached) {
		return cached, nil
	}

	docs, err := s.finder.Find(ctx, CollectionDrinkTag,
		bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: minTagCount}}}},
		bson.D{{Key: "count", Value: -1}},
		listingLimit)
	if err != nil {
		return nil, fmt.Errorf("list drink tags: %w", err)
	}

	tags, err := query.DecodeAll[DrinkTag](docs)
	if err != nil {
		return nil, fmt.Errorf("list drink tags: %w", err)
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return utf8.RuneCountInString(tags[i].Name) < utf8.RuneCountInString(tags[j].Name)
	})

	s.cacheSet(ctx, cacheKeyDrinkTags, tags)
	return tags, nil
}

// ListBrands returns chain brands with more than one branch, largest chain
// first. Only brands present on ubereats are listed; its store pages are
// the ones the agent links to.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	var cached []Brand
	if s.cacheGet(cacheKeyBrands, &cached) {
		return cached, nil
	}

	docs, err := s.finder.Find(ctx, CollectionBrand,
		bson.D{
			{Key: "has_chain", Value: true},
			{Key: "chain_count", Value: bson.D{{Key: "$gt", Value: 1}}},
			{Key: "platforms", Value: query.PlatformUberEats},
		},
		bson.D{{Key: "chain_count", Value: -1}},
		listingLimit)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	brands, err := query.DecodeAll[Brand](docs)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	s.cacheSet(ctx, cacheKeyBrands, brands)
	return brands, nil
}
