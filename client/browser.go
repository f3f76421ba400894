package client

import (
	"context"

	"go-storefront/models"
)

// DefaultPageSize is how many products the shop front shows per page.
const DefaultPageSize = 9

// BrowseState is the part of the listing a shopper controls.
type BrowseState struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     string
}

func (s BrowseState) params() models.ListingParams {
	return models.ListingParams{
		Page:     s.Page,
		Limit:    s.Limit,
		Search:   s.Search,
		Category: s.Category,
		Sort:     s.Sort,
	}
}

// Browser mirrors the product listing on the client. Every change of
// search, category or sort goes back to page 1. A change is only kept
// once the matching page has been fetched, so a failed request leaves
// the previous page on screen.
type Browser struct {
	client     *Client
	state      BrowseState
	products   []models.Product
	totalPages int64
}

// NewBrowser creates a Browser showing pageSize products per page. A
// pageSize below 1 uses DefaultPageSize.
func NewBrowser(c *Client, pageSize int) *Browser {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Browser{
		client:   c,
		state:    BrowseState{Page: 1, Limit: pageSize},
		products: []models.Product{},
	}
}

// Load fetches the page for the current state.
func (b *Browser) Load(ctx context.Context) error {
	return b.fetch(ctx, b.state)
}

// SetSearch filters by a name substring.
func (b *Browser) SetSearch(ctx context.Context, search string) error {
	next := b.state
	next.Search, next.Page = search, 1
	return b.fetch(ctx, next)
}

// SetCategory filters by category; empty shows all categories.
func (b *Browser) SetCategory(ctx context.Context, category string) error {
	next := b.state
	next.Category, next.Page = category, 1
	return b.fetch(ctx, next)
}

// SetSort changes the order; empty is the store's natural order.
func (b *Browser) SetSort(ctx context.Context, sort string) error {
	next := b.state
	next.Sort, next.Page = sort, 1
	return b.fetch(ctx, next)
}

// Next moves forward one page, stopping at the last page.
func (b *Browser) Next(ctx context.Context) error {
	if !b.HasNext() {
		return nil
	}
	next := b.state
	next.Page++
	return b.fetch(ctx, next)
}

// Prev moves back one page, stopping at page 1.
func (b *Browser) Prev(ctx context.Context) error {
	if !b.HasPrev() {
		return nil
	}
	next := b.state
	next.Page--
	return b.fetch(ctx, next)
}

// Delete removes a product through the API and reloads the current page.
func (b *Browser) Delete(ctx context.Context, id string) error {
	if err := b.client.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if err := b.fetch(ctx, b.state); err != nil {
		return err
	}
	// The last page may have emptied out.
	if len(b.products) == 0 && b.state.Page > 1 {
		next := b.state
		next.Page = int(b.totalPages)
		if next.Page < 1 {
			next.Page = 1
		}
		return b.fetch(ctx, next)
	}
	return nil
}

func (b *Browser) State() BrowseState { return b.state }

func (b *Browser) Products() []models.Product { return b.products }

func (b *Browser) TotalPages() int64 { return b.totalPages }

func (b *Browser) HasNext() bool { return int64(b.state.Page) < b.totalPages }

func (b *Browser) HasPrev() bool { return b.state.Page > 1 }

func (b *Browser) fetch(ctx context.Context, next BrowseState) error {
	page, err := b.client.ListProducts(ctx, next.params())
	if err != nil {
		return err
	}
	b.state = next
	b.products = page.Products
	b.totalPages = page.TotalPages
	return nil
}
