// Package query implements the geo/text search engine over the store and
// menu_item collections.
//
// Searches run in phases: a geospatial phase against store, a full-text
// phase against menu_item, and an in-memory join that merges the two result
// sets, ranks them, and strips the ephemeral ranking fields. The phases are
// separate pipelines because MongoDB requires both $geoNear and $text to be
// the first stage of their pipeline, so they can never be combined.
package query

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// Collection names the engine queries.
const (
	CollectionStore    = "store"
	CollectionMenuItem = "menu_item"
)

// DefaultMinDrinkPrice filters out non-drink menu entries (utensils,
// bag fees) that slip into the menu_item collection.
const DefaultMinDrinkPrice = 20.0

// Engine executes multi-phase searches through an Executor.
type Engine struct {
	exec     Executor
	minPrice float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinDrinkPrice overrides the price floor applied to drink searches.
func WithMinDrinkPrice(min float64) Option {
	return func(e *Engine) { e.minPrice = min }
}

// NewEngine creates an engine over exec.
func NewEngine(exec Executor, opts ...Option) *Engine {
	e := &Engine{exec: exec, minPrice: DefaultMinDrinkPrice}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// scoredItem carries the ephemeral relevance score alongside a menu item.
// The score participates in ranking only and never reaches callers.
type scoredItem struct {
	MenuItem  `bson:",inline"`
	TextScore float64 `bson:"text_score"`
}

// FindDrinkStoresWithMenu finds stores matching the filter and attaches
// their matched menu items.
//
// With drink tags the search is three-phase: the tag search on menu_item
// yields the candidate (store_id, platform) set, the geo query on store is
// restricted to that set, and a final menu query supplies the items to
// join. Stores are then ordered by how many of their items matched,
// descending; ties keep the store-phase order. Without tags the geo query
// runs unrestricted and the join attaches full menus in store-phase order.
func (e *Engine) FindDrinkStoresWithMenu(ctx context.Context, f Filter) ([]StoreWithMenu, error) {
	var restriction []storePair

	if len(f.DrinkTags) > 0 {
		pairs, err := e.matchingStorePairs(ctx, f.DrinkTags, f.Platform)
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			return []StoreWithMenu{}, nil
		}
		restriction = pairs
	}

	stores, err := e.qualifyingStores(ctx, f, restriction)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return []StoreWithMenu{}, nil
	}

	return e.joinMenus(ctx, stores, f.DrinkTags)
}

// FindDrinks finds menu items matching the filter and attaches their owning
// store's display fields.
//
// The store phase runs first; when it matches nothing the search ends
// without touching menu_item. Items whose owning store did not survive the
// store phase are dropped from the result. With drink tags items are
// ordered by descending relevance; ties keep the item-phase order.
func (e *Engine) FindDrinks(ctx context.Context, f Filter) ([]Drink, error) {
	stores, err := e.qualifyingStores(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return []Drink{}, nil
	}

	pairs := make([]storePair, 0, len(stores))
	storeIndex := make(map[storePair]Store, len(stores))
	for _, s := range stores {
		pairs = append(pairs, s.pair())
		storeIndex[s.pair()] = s
	}

	withTags := len(f.DrinkTags) > 0

	pipeline := mongo.Pipeline{}
	if withTags {
		pipeline = append(pipeline, textSearchStage(f.DrinkTags))
	}
	pipeline = append(pipeline,
		priceFloorStage(e.minPrice),
		pairRestrictionStage(pairs),
	)
	if withTags {
		pipeline = append(pipeline, textScoreStage())
	}
	pipeline = append(pipeline, menuItemProjectionStage(withTags))
	if withTags {
		pipeline = append(pipeline, textScoreSortStage())
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, limitStage(f.Limit))
	}

	docs, err := e.exec.Aggregate(ctx, CollectionMenuItem, pipeline)
	if err != nil {
		return nil, fmt.Errorf("drink search: %w", err)
	}
	items, err := DecodeAll[scoredItem](docs)
	if err != nil {
		return nil, fmt.Errorf("drink search: %w", err)
	}

	type rankedDrink struct {
		drink Drink
		score float64
	}
	ranked := make([]rankedDrink, 0, len(items))
	dropped := 0

	for _, item := range items {
		store, ok := storeIndex[item.pair()]
		if !ok {
			dropped++
			continue
		}
		ranked = append(ranked, rankedDrink{
			drink: mergeDrink(item.MenuItem, store),
			score: item.TextScore,
		})
	}
	if dropped > 0 {
		logger.DebugCtx(ctx, "dropped menu items without a qualifying store",
			logger.KeyCount, dropped)
	}

	if withTags {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].score > ranked[j].score
		})
	}

	drinks := make([]Drink, 0, len(ranked))
	for _, r := range ranked {
		drinks = append(drinks, r.drink)
	}
	return drinks, nil
}

// FindNearbyStores returns stores within radiusKM of the point, nearest
// first, without menus. limit <= 0 means unlimited.
func (e *Engine) FindNearbyStores(ctx context.Context, longitude, latitude, radiusKM float64, limit int64) ([]Store, error) {
	pipeline := mongo.Pipeline{
		geoNearStage(longitude, latitude, radiusKM),
		storeProjectionStage(),
	}
	if limit > 0 {
		pipeline = append(pipeline, limitStage(limit))
	}

	docs, err := e.exec.Aggregate(ctx, CollectionStore, pipeline)
	if err != nil {
		return nil, fmt.Errorf("nearby store search: %w", err)
	}
	return DecodeAll[Store](docs)
}

// SearchMenuItems finds items whose name matches term, case-insensitively,
// optionally restricted to specific stores and a platform. limit <= 0 means
// unlimited.
func (e *Engine) SearchMenuItems(ctx context.Context, term string, storeIDs []string, platform string, limit int64) ([]MenuItem, error) {
	pipeline := mongo.Pipeline{
		nameRegexMatchStage(term, storeIDs, platform),
		menuItemProjectionStage(false),
	}
	if limit > 0 {
		pipeline = append(pipeline, limitStage(limit))
	}

	docs, err := e.exec.Aggregate(ctx, CollectionMenuItem, pipeline)
	if err != nil {
		return nil, fmt.Errorf("menu item search: %w", err)
	}
	return DecodeAll[MenuItem](docs)
}

// matchingStorePairs resolves which stores carry at least one item matching
// the tag search.
func (e *Engine) matchingStorePairs(ctx context.Context, tags []string, platform string) ([]storePair, error) {
	docs, err := e.exec.Aggregate(ctx, CollectionMenuItem, distinctPairsPipeline(tags, platform))
	if err != nil {
		return nil, fmt.Errorf("tag candidate search: %w", err)
	}

	type pairDoc struct {
		StoreID  string `bson:"store_id"`
		Platform string `bson:"platform"`
	}
	decoded, err := DecodeAll[pairDoc](docs)
	if err != nil {
		return nil, fmt.Errorf("tag candidate search: %w", err)
	}

	pairs := make([]storePair, 0, len(decoded))
	for _, d := range decoded {
		pairs = append(pairs, storePair{StoreID: d.StoreID, Platform: d.Platform})
	}
	return pairs, nil
}

// qualifyingStores runs the geospatial store phase. restriction, when
// non-empty, limits the result to the given identities.
func (e *Engine) qualifyingStores(ctx context.Context, f Filter, restriction []storePair) ([]Store, error) {
	pipeline := mongo.Pipeline{
		geoNearStage(f.Longitude, f.Latitude, f.RadiusKM()),
		attributeMatchStage(f.Platform, f.RatingRange, f.ReviewCountRange),
	}
	if len(restriction) > 0 {
		pipeline = append(pipeline, pairRestrictionStage(restriction))
	}
	if len(f.Brands) > 0 {
		pipeline = append(pipeline, brandMatchStage(f.Brands))
	}
	pipeline = append(pipeline, storeProjectionStage())

	docs, err := e.exec.Aggregate(ctx, CollectionStore, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}
	return DecodeAll[Store](docs)
}

// joinMenus fetches the menu items belonging to the stores and merges them
// in memory. With tags the menu query is the tag search with relevance
// scoring and the stores are reordered by matched-item count.
func (e *Engine) joinMenus(ctx context.Context, stores []Store, tags []string) ([]StoreWithMenu, error) {
	pairs := make([]storePair, 0, len(stores))
	for _, s := range stores {
		pairs = append(pairs, s.pair())
	}

	withTags := len(tags) > 0

	pipeline := mongo.Pipeline{}
	if withTags {
		pipeline = append(pipeline,
			textSearchStage(tags),
			pairRestrictionStage(pairs),
			textScoreStage(),
			menuItemProjectionStage(true),
			textScoreSortStage(),
		)
	} else {
		pipeline = append(pipeline,
			pairRestrictionStage(pairs),
			menuItemProjectionStage(false),
		)
	}

	docs, err := e.exec.Aggregate(ctx, CollectionMenuItem, pipeline)
	if err != nil {
		return nil, fmt.Errorf("menu join: %w", err)
	}
	items, err := DecodeAll[scoredItem](docs)
	if err != nil {
		return nil, fmt.Errorf("menu join: %w", err)
	}

	menus := make(map[storePair][]MenuItem, len(stores))
	for _, item := range items {
		menus[item.pair()] = append(menus[item.pair()], item.MenuItem)
	}

	type rankedStore struct {
		store StoreWithMenu
		hits  int
	}
	ranked := make([]rankedStore, 0, len(stores))
	for _, s := range stores {
		menu := menus[s.pair()]
		if menu == nil {
			menu = []MenuItem{}
		}
		ranked = append(ranked, rankedStore{
			store: StoreWithMenu{Store: s, Menu: menu},
			hits:  len(menus[s.pair()]),
		})
	}

	// Hit-count ranking applies only to tag searches. The sort is stable
	// with no secondary key: equal hit counts keep the store-phase order.
	if withTags {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].hits > ranked[j].hits
		})
	}

	result := make([]StoreWithMenu, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, r.store)
	}
	return result, nil
}

// mergeDrink combines a menu item with its owning store's display fields.
// The store URL prefers the scraped source URL and falls back to the
// platform template.
func mergeDrink(item MenuItem, store Store) Drink {
	url := store.SourceURL
	if url == "" {
		url = StoreURL(store.StoreID, store.Platform)
	}
	return Drink{
		ItemID:      item.ItemID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		ImageURL:    item.ImageURL,
		Category:    item.Category,
		IsPopular:   item.IsPopular,
		Options:     item.Options,
		StoreID:     store.StoreID,
		Platform:    store.Platform,
		StoreName:   store.Name,
		StoreURL:    url,
		BrandName:   store.Brand,
	}
}
