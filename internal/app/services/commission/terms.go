package commission

// termHint pairs a product-name term with a category hint. A hint matches a
// rule whose name or search index contains it, case-insensitively.
type termHint struct {
	Term string
	Hint string
}

// termHints is the static term-sniffing table, scanned in order. It is plain
// data so it can be extended and tested independently of the matching
// algorithm. Terms are matched on word boundaries only: "led" must not match
// inside "sealed".
var termHints = []termHint{
	// electronics
	{"tv", "Electronics"},
	{"television", "Electronics"},
	{"led", "Electronics"},
	{"oled", "Electronics"},
	{"monitor", "Electronics"},
	{"laptop", "Computers"},
	{"notebook", "Computers"},
	{"desktop", "Computers"},
	{"keyboard", "Computers"},
	{"phone", "Electronics"},
	{"smartphone", "Electronics"},
	{"tablet", "Electronics"},
	{"headphone", "Electronics"},
	{"headphones", "Electronics"},
	{"earbuds", "Electronics"},
	{"speaker", "Electronics"},
	{"camera", "Electronics"},
	{"drone", "Electronics"},
	{"router", "Electronics"},
	{"charger", "Electronics"},
	// appliances
	{"refrigerator", "Appliances"},
	{"fridge", "Appliances"},
	{"freezer", "Appliances"},
	{"dishwasher", "Appliances"},
	{"washer", "Appliances"},
	{"dryer", "Appliances"},
	{"microwave", "Appliances"},
	{"oven", "Appliances"},
	{"vacuum", "Appliances"},
	{"air conditioner", "Appliances"},
	// fashion
	{"shirt", "Apparel"},
	{"t-shirt", "Apparel"},
	{"jeans", "Apparel"},
	{"dress", "Fashion"},
	{"jacket", "Apparel"},
	{"hoodie", "Apparel"},
	{"shoes", "Fashion"},
	{"sneakers", "Fashion"},
	{"boots", "Fashion"},
	{"sandals", "Fashion"},
	{"watch", "Watches"},
	{"necklace", "Jewelry"},
	{"bracelet", "Jewelry"},
	{"earrings", "Jewelry"},
	{"ring", "Jewelry"},
	{"handbag", "Fashion"},
	{"backpack", "Luggage"},
	{"suitcase", "Luggage"},
	// grocery
	{"coffee", "Grocery"},
	{"tea", "Grocery"},
	{"chocolate", "Grocery"},
	{"snack", "Grocery"},
	{"cereal", "Grocery"},
	{"pasta", "Grocery"},
	{"sauce", "Grocery"},
	// beauty and health
	{"shampoo", "Beauty"},
	{"conditioner", "Beauty"},
	{"lipstick", "Beauty"},
	{"makeup", "Beauty"},
	{"perfume", "Beauty"},
	{"moisturizer", "Beauty"},
	{"vitamin", "Health"},
	{"supplement", "Health"},
	{"protein", "Health"},
	{"toothpaste", "Health"},
	// home and kitchen
	{"sofa", "Home"},
	{"mattress", "Home"},
	{"pillow", "Home"},
	{"curtain", "Home"},
	{"lamp", "Home"},
	{"cookware", "Kitchen"},
	{"blender", "Kitchen"},
	{"kettle", "Kitchen"},
	{"knife", "Kitchen"},
	{"pan", "Kitchen"},
	// tools
	{"drill", "Tools"},
	{"screwdriver", "Tools"},
	{"wrench", "Tools"},
	{"hammer", "Tools"},
	// toys and games
	{"toy", "Toys"},
	{"lego", "Toys"},
	{"puzzle", "Toys"},
	{"board game", "Toys"},
	{"playstation", "VideoGames"},
	{"xbox", "VideoGames"},
	{"nintendo", "VideoGames"},
	// books and media
	{"book", "Books"},
	{"novel", "Books"},
	{"paperback", "Books"},
	{"hardcover", "Books"},
	{"kindle", "Kindle"},
	{"vinyl", "Music"},
	// instruments
	{"guitar", "Musical"},
	{"piano", "Musical"},
	{"violin", "Musical"},
	// sports and outdoors
	{"bicycle", "Sports"},
	{"bike", "Sports"},
	{"treadmill", "Sports"},
	{"dumbbell", "Sports"},
	{"yoga", "Sports"},
	{"tent", "Outdoor"},
	{"sleeping bag", "Outdoor"},
	// baby and pets
	{"stroller", "Baby"},
	{"diaper", "Baby"},
	{"crib", "Baby"},
	{"dog", "Pet"},
	{"cat", "Pet"},
	{"aquarium", "Pet"},
	// office and auto
	{"printer", "Office"},
	{"stapler", "Office"},
	{"tire", "Automotive"},
	{"motor oil", "Automotive"},
	{"car seat", "Automotive"},
}
