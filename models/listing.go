package models

// Sort keys accepted by the product listing.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListingParams are the user supplied knobs of GET /products.
type ListingParams struct {
	Page     int    `json:"page" validate:"gte=1"`
	Limit    int    `json:"limit" validate:"gte=1"`
	Search   string `json:"search"`
	Category string `json:"category"`
	Sort     string `json:"sort" validate:"omitempty,oneof=price_asc price_desc name_asc name_desc"`
}

// DefaultListingParams returns the params used when the query string is empty.
func DefaultListingParams() ListingParams {
	return ListingParams{Page: DefaultPage, Limit: DefaultLimit}
}

// ListingPage is one page of the catalog.
type ListingPage struct {
	Products    []Product `json:"products"`
	TotalPages  int64     `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}

// TotalPages returns ceil(matchCount / limit). limit must be positive.
func TotalPages(matchCount int64, limit int) int64 {
	l := int64(limit)
	pages := matchCount / l
	if matchCount%l != 0 {
		pages++
	}
	return pages
}
