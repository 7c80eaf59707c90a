package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stageValue unwraps a single-element stage like {"$match": ...}.
func stageValue(t *testing.T, stage bson.D, key string) bson.D {
	t.Helper()
	require.Len(t, stage, 1)
	require.Equal(t, key, stage[0].Key)
	value, ok := stage[0].Value.(bson.D)
	require.True(t, ok, "stage value must be a document")
	return value
}

func fieldValue(t *testing.T, doc bson.D, key string) any {
	t.Helper()
	for _, e := range doc {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("field %q not found in %v", key, doc)
	return nil
}

func TestGeoNearStage(t *testing.T) {
	stage := geoNearStage(121.5, 25.04, 3.0)
	body := stageValue(t, stage, "$geoNear")

	assert.Equal(t, "distance_in_meter", fieldValue(t, body, "distanceField"))
	assert.Equal(t, 3000.0, fieldValue(t, body, "maxDistance"), "radius converts to meters")
	assert.Equal(t, true, fieldValue(t, body, "spherical"))

	near := fieldValue(t, body, "near").(bson.D)
	assert.Equal(t, "Point", fieldValue(t, near, "type"))
	assert.Equal(t, bson.A{121.5, 25.04}, fieldValue(t, near, "coordinates"),
		"GeoJSON order is longitude then latitude")
}

func TestTextSearchStageJoinsTags(t *testing.T) {
	stage := textSearchStage([]string{"青茶", "奶茶"})
	match := stageValue(t, stage, "$match")
	text := fieldValue(t, match, "$text").(bson.D)

	assert.Equal(t, "青茶 奶茶", fieldValue(t, text, "$search"))
}

func TestAttributeMatchStageTautologyWhenEmpty(t *testing.T) {
	stage := attributeMatchStage("", nil, nil)
	match := stageValue(t, stage, "$match")

	assert.Equal(t, bson.D{{Key: "$expr", Value: true}}, match,
		"an empty filter still emits an always-true match stage")
}

func TestAttributeMatchStageComposesFilters(t *testing.T) {
	stage := attributeMatchStage("ubereats",
		&FloatRange{Min: 4.0, Max: 5.0},
		&IntRange{Min: 100, Max: 5000})
	match := stageValue(t, stage, "$match")

	assert.Equal(t, "ubereats", fieldValue(t, match, "platform"))

	rating := fieldValue(t, match, "rating.value").(bson.D)
	assert.Equal(t, 4.0, fieldValue(t, rating, "$gte"))
	assert.Equal(t, 5.0, fieldValue(t, rating, "$lte"))

	reviews := fieldValue(t, match, "rating.review_count").(bson.D)
	assert.Equal(t, 100, fieldValue(t, reviews, "$gte"))
	assert.Equal(t, 5000, fieldValue(t, reviews, "$lte"))
}

func TestBrandMatchStageCaseInsensitive(t *testing.T) {
	stage := brandMatchStage([]string{"五十嵐", "CoCo"})
	match := stageValue(t, stage, "$match")
	or := fieldValue(t, match, "$or").(bson.A)
	require.Len(t, or, 2)

	first := or[0].(bson.D)
	regex := fieldValue(t, first, "name").(primitive.Regex)
	assert.Equal(t, "五十嵐", regex.Pattern)
	assert.Equal(t, "i", regex.Options)
}

func TestDistinctPairsPipelineTextFirst(t *testing.T) {
	p := distinctPairsPipeline([]string{"青茶"}, "ubereats")
	require.GreaterOrEqual(t, len(p), 3)

	match := stageValue(t, p[0], "$match")
	assert.Contains(t, keysOf(match), "$text", "the text search must be the first stage")

	platform := stageValue(t, p[1], "$match")
	assert.Equal(t, "ubereats", fieldValue(t, platform, "platform"))
}

func TestStoreProjectionDerivesKilometers(t *testing.T) {
	body := stageValue(t, storeProjectionStage(), "$project")

	km := fieldValue(t, body, "distance_in_km").(bson.D)
	round := fieldValue(t, km, "$round").(bson.A)
	require.Len(t, round, 2)
	assert.Equal(t, 2, round[1], "rounded to two decimals")

	divide := fieldValue(t, round[0].(bson.D), "$divide").(bson.A)
	assert.Equal(t, bson.A{"$distance_in_meter", 1000}, divide)
}

func TestMenuItemProjectionScoreToggle(t *testing.T) {
	without := stageValue(t, menuItemProjectionStage(false), "$project")
	assert.NotContains(t, keysOf(without), "text_score")

	with := stageValue(t, menuItemProjectionStage(true), "$project")
	assert.Contains(t, keysOf(with), "text_score")
}

func TestNameRegexMatchStage(t *testing.T) {
	bare := stageValue(t, nameRegexMatchStage("烏龍", nil, ""), "$match")
	expr := fieldValue(t, bare, "$expr").(bson.D)
	regex := fieldValue(t, expr, "$regexMatch").(bson.D)
	assert.Equal(t, "$name", fieldValue(t, regex, "input"))
	assert.Equal(t, "i", fieldValue(t, regex, "options"))

	restricted := stageValue(t, nameRegexMatchStage("烏龍", []string{"A"}, "foodpanda"), "$match")
	expr = fieldValue(t, restricted, "$expr").(bson.D)
	and := fieldValue(t, expr, "$and").(bson.A)
	assert.Len(t, and, 3)
}

func keysOf(doc bson.D) []string {
	keys := make([]string, 0, len(doc))
	for _, e := range doc {
		keys = append(keys, e.Key)
	}
	return keys
}
