package catalog

import (
	"sort"
	"strings"
)

// SearchIndexAll is the wildcard search index used when no mapping applies.
const SearchIndexAll = "All"

// searchIndexes is the remote API's fixed category enumeration.
var searchIndexes = map[string]bool{
	"All":                     true,
	"Apparel":                 true,
	"Appliances":              true,
	"Automotive":              true,
	"Baby":                    true,
	"Beauty":                  true,
	"Books":                   true,
	"Computers":               true,
	"Electronics":             true,
	"Fashion":                 true,
	"GardenAndOutdoor":        true,
	"GiftCards":               true,
	"GroceryAndGourmetFood":   true,
	"HealthPersonalCare":      true,
	"HomeAndKitchen":          true,
	"Industrial":              true,
	"Jewelry":                 true,
	"KindleStore":             true,
	"Luggage":                 true,
	"MoviesAndTV":             true,
	"Music":                   true,
	"MusicalInstruments":      true,
	"OfficeProducts":          true,
	"PetSupplies":             true,
	"Software":                true,
	"SportsAndOutdoors":       true,
	"ToolsAndHomeImprovement": true,
	"ToysAndGames":            true,
	"VideoGames":              true,
	"Watches":                 true,
}

// ValidSearchIndex reports whether value belongs to the remote vocabulary.
func ValidSearchIndex(value string) bool {
	return searchIndexes[value]
}

// searchIndexMap maps human category labels to search indexes. It is plain
// data so it can be extended and tested independently of the matching
// algorithm.
var searchIndexMap = map[string]string{
	"All":                 "All",
	"Apparel":             "Apparel",
	"Appliances":          "Appliances",
	"Automotive":          "Automotive",
	"Baby":                "Baby",
	"Beauty":              "Beauty",
	"Books":               "Books",
	"Camera":              "Electronics",
	"Car":                 "Automotive",
	"Clothing":            "Apparel",
	"Computer":            "Computers",
	"Computers":           "Computers",
	"Electronics":         "Electronics",
	"Fashion":             "Fashion",
	"Food":                "GroceryAndGourmetFood",
	"Furniture":           "HomeAndKitchen",
	"Games":               "ToysAndGames",
	"Garden":              "GardenAndOutdoor",
	"Gift Cards":          "GiftCards",
	"Grocery":             "GroceryAndGourmetFood",
	"Health":              "HealthPersonalCare",
	"Home":                "HomeAndKitchen",
	"Industrial":          "Industrial",
	"Jewelry":             "Jewelry",
	"Kindle":              "KindleStore",
	"Kitchen":             "HomeAndKitchen",
	"Laptop":              "Computers",
	"Luggage":             "Luggage",
	"Mobile":              "Electronics",
	"Movies":              "MoviesAndTV",
	"Music":               "Music",
	"Musical Instruments": "MusicalInstruments",
	"Office":              "OfficeProducts",
	"Outdoors":            "SportsAndOutdoors",
	"Personal Care":       "HealthPersonalCare",
	"Pet":                 "PetSupplies",
	"Pets":                "PetSupplies",
	"Phone":               "Electronics",
	"Shoes":               "Fashion",
	"Software":            "Software",
	"Sports":              "SportsAndOutdoors",
	"Television":          "Electronics",
	"Tools":               "ToolsAndHomeImprovement",
	"Toys":                "ToysAndGames",
	"TV":                  "Electronics",
	"Video Games":         "VideoGames",
	"Watches":             "Watches",
}

// searchIndexKeysByLength caches table keys sorted longest-first so
// containment prefers specific terms ("Video Games") over generic ones
// ("Games").
var searchIndexKeysByLength = func() []string {
	keys := make([]string, 0, len(searchIndexMap))
	for key := range searchIndexMap {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ResolveSearchIndex maps an arbitrary human category label to a value from
// the fixed search-index vocabulary. It is deterministic, side-effect-free
// and total: any input, including the empty string, resolves to a valid
// index, defaulting to All.
func ResolveSearchIndex(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SearchIndexAll
	}

	// Exact key match.
	if index, ok := searchIndexMap[trimmed]; ok {
		return index
	}

	// Case-insensitive key match.
	lower := strings.ToLower(trimmed)
	for key, index := range searchIndexMap {
		if strings.ToLower(key) == lower {
			return index
		}
	}

	// Substring containment, longest key first.
	for _, key := range searchIndexKeysByLength {
		if strings.Contains(lower, strings.ToLower(key)) {
			return searchIndexMap[key]
		}
	}

	return SearchIndexAll
}
