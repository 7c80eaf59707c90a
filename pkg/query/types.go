package query

// Rating is the embedded review summary on a store document.
type Rating struct {
	Value       float64 `bson:"value" json:"value"`
	ReviewCount int     `bson:"review_count" json:"review_count"`
}

// Store is a store document as returned by the geo phase. A store is
// uniquely identified by (store_id, platform); the same physical shop
// listed on two delivery platforms is two stores.
type Store struct {
	StoreID   string   `bson:"store_id" json:"store_id"`
	Platform  string   `bson:"platform" json:"platform"`
	Name      string   `bson:"name" json:"name"`
	Brand     string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Address   string   `bson:"address,omitempty" json:"address,omitempty"`
	Rating    Rating   `bson:"rating" json:"rating"`
	Cuisines  []string `bson:"cuisines,omitempty" json:"cuisines,omitempty"`
	SourceURL string   `bson:"source_url,omitempty" json:"source_url,omitempty"`

	// Populated by the $geoNear stage and its derived projection.
	DistanceInMeter float64 `bson:"distance_in_meter" json:"distance_in_meter"`
	DistanceInKM    float64 `bson:"distance_in_km" json:"distance_in_km"`
}

// MenuItem is a menu item document. Items reference their owning store by
// (store_id, platform); the reference may dangle when the store has been
// delisted, which is tolerated rather than treated as an error.
type MenuItem struct {
	ItemID      string  `bson:"item_id" json:"item_id"`
	StoreID     string  `bson:"store_id" json:"store_id"`
	Platform    string  `bson:"platform" json:"platform"`
	Name        string  `bson:"name" json:"name"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64 `bson:"price" json:"price"`
	ImageURL    string  `bson:"image_url,omitempty" json:"image_url,omitempty"`
	IsPopular   bool    `bson:"is_popular" json:"is_popular"`
	Options     []any   `bson:"options,omitempty" json:"options,omitempty"`
}

// StoreWithMenu is a store joined with its matched menu items.
type StoreWithMenu struct {
	Store `bson:",inline"`

	Menu []MenuItem `json:"menu"`
}

// Drink is a menu item merged with its owning store's display fields.
type Drink struct {
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category,omitempty"`
	IsPopular   bool    `json:"is_popular"`
	Options     []any   `json:"options,omitempty"`

	StoreID   string `json:"store_id"`
	Platform  string `json:"platform"`
	StoreName string `json:"store_name"`
	StoreURL  string `json:"store_url,omitempty"`
	BrandName string `json:"brand_name,omitempty"`
}

// SimplifiedDrink is the reduced shape handed to the recommendation agent.
type SimplifiedDrink struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StoreID     string `json:"store_id"`
	StoreName   string `json:"store_name"`
	StoreURL    string `json:"store_url,omitempty"`
}

// storePair is the composite store identity used for restriction stages and
// in-memory joins.
type storePair struct {
	StoreID  string
	Platform string
}

func (s Store) pair() storePair    { return storePair{StoreID: s.StoreID, Platform: s.Platform} }
func (m MenuItem) pair() storePair { return storePair{StoreID: m.StoreID, Platform: m.Platform} }
