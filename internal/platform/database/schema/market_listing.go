package schema

// MarketListingTable represents the 'market.listing' table
type MarketListingTable struct {
	Table       string
	ID          string
	Slug        string
	Title       string
	Description string
	PriceCents  string
	Currency    string
	Category    string
	Location    string
	SellerID    string
	Status      string
	ExpiresAt   string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// MarketListing is the schema definition for market.listing
var MarketListing = MarketListingTable{
	Table:       "market.listing",
	ID:          "id",
	Slug:        "slug",
	Title:       "title",
	Description: "description",
	PriceCents:  "pricecents",
	Currency:    "currency",
	Category:    "category",
	Location:    "location",
	SellerID:    "sellerid",
	Status:      "status",
	ExpiresAt:   "expiresat",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

// Columns returns the column names repositories select and scan, in order.
// DeletedAt is a filter column only and is deliberately excluded.
func (t MarketListingTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Title, t.Description, t.PriceCents, t.Currency,
		t.Category, t.Location, t.SellerID, t.Status, t.ExpiresAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
