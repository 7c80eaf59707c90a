package query

// DefaultRadiusKM is the search radius applied when a filter carries no
// explicit distance range.
const DefaultRadiusKM = 5.0

// FloatRange is an inclusive [Min, Max] interval.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IntRange is an inclusive [Min, Max] interval.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Filter is a search request against the store and menu_item collections.
// Nil range pointers mean "no constraint".
type Filter struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	DrinkTags []string `json:"drink_tags,omitempty"`
	Brands    []string `json:"brands,omitempty"`

	ReviewCountRange *IntRange   `json:"review_count_range,omitempty"`
	RatingRange      *FloatRange `json:"rating_range,omitempty"`

	// DistanceRange is expressed in meters; its upper bound becomes the
	// search radius.
	DistanceRange *IntRange `json:"distance_range,omitempty"`

	Platform string `json:"platform,omitempty"`
	Limit    int64  `json:"limit,omitempty"`
}

// RadiusKM resolves the search radius in kilometers: the upper bound of the
// distance range converted from meters, or DefaultRadiusKM when no range is
// set.
func (f Filter) RadiusKM() float64 {
	if f.DistanceRange == nil {
		return DefaultRadiusKM
	}
	return float64(f.DistanceRange.Max) / 1000
}
