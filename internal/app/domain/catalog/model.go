package catalog

// Item is the normalized view of a catalog product returned by search and
// lookup operations.
type Item struct {
	ASIN      string  `json:"asin"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	ImageURL  string  `json:"image_url,omitempty"`
	Brand     string  `json:"brand,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Available bool    `json:"available"`
}

// SearchParams scopes a SearchItems call.
type SearchParams struct {
	Keywords    string
	SearchIndex string
	ItemCount   int
	ItemPage    int
	MinPrice    float64
	MaxPrice    float64
	Brand       string
}

// SearchResult is the payload of a successful SearchItems call.
type SearchResult struct {
	Items       []Item `json:"items"`
	TotalCount  int    `json:"total_count"`
	SearchIndex string `json:"search_index"`
}

// GetItemsResult is the payload of a successful GetItems call.
type GetItemsResult struct {
	Items []Item `json:"items"`
}

// BrowseNode is a node in the remote category hierarchy.
type BrowseNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Children []BrowseNode `json:"children,omitempty"`
	Ancestor *BrowseNode  `json:"ancestor,omitempty"`
}

// BrowseNodesResult is the payload of a successful GetBrowseNodes call.
type BrowseNodesResult struct {
	Nodes []BrowseNode `json:"nodes"`
}
