package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pipeline builders. All of them are pure: they assemble stages from their
// arguments and never touch the database.
//
// Two stage-ordering rules are load-bearing and enforced by construction:
// $geoNear must be the first stage of its pipeline, and $text may only
// appear in the first stage and at most once per pipeline. Geo and text
// stages never share a pipeline; they run against different collections.

// geoNearStage computes the distance from the given point into
// distance_in_meter and drops documents beyond radiusKM.
func geoNearStage(longitude, latitude, radiusKM float64) bson.D {
	return bson.D{{Key: "$geoNear", Value: bson.D{
		{Key: "near", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{longitude, latitude}},
		}},
		{Key: "distanceField", Value: "distance_in_meter"},
		{Key: "maxDistance", Value: radiusKM * 1000},
		{Key: "spherical", Value: true},
	}}}
}

// textSearchStage matches documents against the tag list, space-joined into
// a single search string so every tag contributes to the relevance score.
func textSearchStage(tags []string) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{
		{Key: "$text", Value: bson.D{
			{Key: "$search", Value: strings.Join(tags, " ")},
		}},
	}}}
}

// attributeMatchStage composes the independent store attribute predicates.
// When none applies it emits an always-true match so the pipeline shape
// stays uniform.
func attributeMatchStage(platform string, rating *FloatRange, reviews *IntRange) bson.D {
	filters := bson.D{}

	if platform != "" {
		filters = append(filters, bson.E{Key: "platform", Value: platform})
	}
	if rating != nil {
		filters = append(filters, bson.E{Key: "rating.value", Value: bson.D{
			{Key: "$gte", Value: rating.Min},
			{Key: "$lte", Value: rating.Max},
		}})
	}
	if reviews != nil {
		filters = append(filters, bson.E{Key: "rating.review_count", Value: bson.D{
			{Key: "$gte", Value: reviews.Min},
			{Key: "$lte", Value: reviews.Max},
		}})
	}

	if len(filters) == 0 {
		filters = bson.D{{Key: "$expr", Value: true}}
	}
	return bson.D{{Key: "$match", Value: filters}}
}

// brandMatchStage matches the store name against any of the brands,
// case-insensitively.
func brandMatchStage(brands []string) bson.D {
	conditions := bson.A{}
	for _, brand := range brands {
		conditions = append(conditions, bson.D{
			{Key: "name", Value: primitive.Regex{Pattern: brand, Options: "i"}},
		})
	}
	return bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: conditions}}}}
}

// pairRestrictionStage limits documents to the given (store_id, platform)
// identities.
func pairRestrictionStage(pairs []storePair) bson.D {
	conditions := bson.A{}
	for _, p := range pairs {
		conditions = append(conditions, bson.D{
			{Key: "store_id", Value: p.StoreID},
			{Key: "platform", Value: p.Platform},
		})
	}
	return bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: conditions}}}}
}

// distinctPairsPipeline extracts the distinct (store_id, platform)
// identities of menu items matching the tag search.
func distinctPairsPipeline(tags []string, platform string) mongo.Pipeline {
	p := mongo.Pipeline{textSearchStage(tags)}
	if platform != "" {
		p = append(p, bson.D{{Key: "$match", Value: bson.D{{Key: "platform", Value: platform}}}})
	}
	p = append(p,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "store_id", Value: "$store_id"},
				{Key: "platform", Value: "$platform"},
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "store_id", Value: "$_id.store_id"},
			{Key: "platform", Value: "$_id.platform"},
		}}},
	)
	return p
}

// storeProjectionStage shapes store output and derives distance_in_km,
// rounded to two decimals, from the $geoNear distance field.
func storeProjectionStage() bson.D {
	return bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 0},
		{Key: "store_id", Value: 1},
		{Key: "platform", Value: 1},
		{Key: "name", Value: 1},
		{Key: "brand", Value: 1},
		{Key: "address", Value: 1},
		{Key: "rating", Value: 1},
		{Key: "cuisines", Value: 1},
		{Key: "source_url", Value: 1},
		{Key: "distance_in_meter", Value: 1},
		{Key: "distance_in_km", Value: bson.D{
			{Key: "$round", Value: bson.A{
				bson.D{{Key: "$divide", Value: bson.A{"$distance_in_meter", 1000}}},
				2,
			}},
		}},
	}}}
}

// menuItemProjectionStage shapes menu item output. withScore additionally
// carries the ephemeral text relevance score for ranking.
func menuItemProjectionStage(withScore bool) bson.D {
	fields := bson.D{
		{Key: "_id", Value: 0},
		{Key: "item_id", Value: 1},
		{Key: "store_id", Value: 1},
		{Key: "platform", Value: 1},
		{Key: "name", Value: 1},
		{Key: "category", Value: 1},
		{Key: "description", Value: 1},
		{Key: "price", Value: 1},
		{Key: "image_url", Value: 1},
		{Key: "is_popular", Value: 1},
		{Key: "options", Value: 1},
	}
	if withScore {
		fields = append(fields, bson.E{Key: "text_score", Value: 1})
	}
	return bson.D{{Key: "$project", Value: fields}}
}

// textScoreStage materializes the $text relevance score into text_score.
func textScoreStage() bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: "text_score", Value: bson.D{{Key: "$meta", Value: "textScore"}}},
	}}}
}

// textScoreSortStage orders by descending relevance.
func textScoreSortStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: "text_score", Value: bson.D{{Key: "$meta", Value: "textScore"}}},
	}}}
}

// priceFloorStage drops items cheaper than the floor.
func priceFloorStage(min float64) bson.D {
	return bson.D{{Key: "$match", Value: bson.D{
		{Key: "price", Value: bson.D{{Key: "$gte", Value: min}}},
	}}}
}

// limitStage caps the result size.
func limitStage(n int64) bson.D {
	return bson.D{{Key: "$limit", Value: n}}
}

// nameRegexMatchStage matches item names against term case-insensitively,
// optionally restricted to specific store ids and a platform. Unlike the
// tag search this does not use the text index, so it carries no relevance
// score.
func nameRegexMatchStage(term string, storeIDs []string, platform string) bson.D {
	conditions := bson.A{
		bson.D{{Key: "$regexMatch", Value: bson.D{
			{Key: "input", Value: "$name"},
			{Key: "regex", Value: term},
			{Key: "options", Value: "i"},
		}}},
	}
	if len(storeIDs) > 0 {
		conditions = append(conditions, bson.D{{Key: "$in", Value: bson.A{"$store_id", storeIDs}}})
	}
	if platform != "" {
		conditions = append(conditions, bson.D{{Key: "$eq", Value: bson.A{"$platform", platform}}})
	}

	var expr any
	if len(conditions) == 1 {
		expr = conditions[0]
	} else {
		expr = bson.D{{Key: "$and", Value: conditions}}
	}
	return bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: expr}}}}
}
