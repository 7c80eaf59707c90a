package query

// Supported delivery platforms.
const (
	PlatformUberEats  = "ubereats"
	PlatformFoodpanda = "foodpanda"
)

// StoreURL builds the public page URL for a store on its platform. Unknown
// platforms yield an empty string.
func StoreURL(storeID, platform string) string {
	switch platform {
	case PlatformUberEats:
		return "https://www.ubereats.com/tw/store/" + storeID
	case PlatformFoodpanda:
		return "https://www.foodpanda.com.tw/restaurant/" + storeID
	default:
		return ""
	}
}
