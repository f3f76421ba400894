package store

import (
	"math"
	"regexp"
	"strings"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SortField names a sortable product field.
type SortField string

const (
	SortNatural SortField = ""
	SortByPrice SortField = "price"
	SortByName  SortField = "name"
)

// ListingQuery is a validated, backend neutral description of one
// catalog page: a conjunction of filters, an order and a window.
type ListingQuery struct {
	Search   string
	Category string
	SortBy   SortField
	Desc     bool
	Skip     int64
	Limit    int64
}

// NewListingQuery translates listing params into a query. Params must
// already be validated: page and limit are at least 1 and sort is one of
// the known keys or empty. A window beyond the int64 range is clamped to
// math.MaxInt64, which is past any real collection.
func NewListingQuery(p models.ListingParams) ListingQuery {
	q := ListingQuery{
		Search:   strings.TrimSpace(p.Search),
		Category: strings.TrimSpace(p.Category),
		Skip:     windowStart(int64(p.Page), int64(p.Limit)),
		Limit:    int64(p.Limit),
	}
	switch p.Sort {
	case models.SortPriceAsc:
		q.SortBy = SortByPrice
	case models.SortPriceDesc:
		q.SortBy, q.Desc = SortByPrice, true
	case models.SortNameAsc:
		q.SortBy = SortByName
	case models.SortNameDesc:
		q.SortBy, q.Desc = SortByName, true
	}
	return q
}

// windowStart returns (page-1)*limit, saturating at math.MaxInt64.
func windowStart(page, limit int64) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return (page - 1) * limit
}

// Filter returns the MongoDB filter document. Search is matched as a
// literal, case-insensitive substring of the name.
func (q ListingQuery) Filter() bson.D {
	filter := bson.D{}
	if q.Search != "" {
		filter = append(filter, bson.E{Key: "name", Value: primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}
	return filter
}

// Sort returns the MongoDB sort document. _id is always the last key so
// equal prices or names, and the natural order, come back the same way on
// every call.
func (q ListingQuery) Sort() bson.D {
	if q.SortBy == SortNatural {
		return bson.D{{Key: "_id", Value: 1}}
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	return bson.D{{Key: string(q.SortBy), Value: dir}, {Key: "_id", Value: 1}}
}

// FindOptions returns the sort and window as driver options.
func (q ListingQuery) FindOptions() *options.FindOptions {
	return options.Find().SetSort(q.Sort()).SetSkip(q.Skip).SetLimit(q.Limit)
}

// Matches reports whether p passes the query's filter.
func (q ListingQuery) Matches(p models.Product) bool {
	if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	return true
}

// Less orders a before b under the query's sort. It returns false for
// ties so a stable sort keeps natural order among them.
func (q ListingQuery) Less(a, b models.Product) bool {
	switch q.SortBy {
	case SortByPrice:
		if q.Desc {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	case SortByName:
		if q.Desc {
			return a.Name > b.Name
		}
		return a.Name < b.Name
	}
	return false
}
