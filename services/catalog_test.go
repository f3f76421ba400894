package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	admin    = models.Caller{ID: primitive.NewObjectID(), IsAdmin: true}
	customer = models.Caller{ID: primitive.NewObjectID()}
)

// MockProductStore is a testify mock of store.ProductStore.
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) List(ctx context.Context, q store.ListingQuery) ([]models.Product, int64, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *MockProductStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductStore) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]string)
	return c, args.Error(1)
}

func (m *MockProductStore) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductStore) Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	args := m.Called(ctx, id, u)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductStore) AppendReview(ctx context.Context, productID, reviewID primitive.ObjectID) error {
	return m.Called(ctx, productID, reviewID).Error(0)
}

// failingReviews fails DeleteByProduct and delegates everything else.
type failingReviews struct {
	*store.MemoryReviewStore
}

func (failingReviews) DeleteByProduct(context.Context, primitive.ObjectID) (int64, error) {
	return 0, errors.New("connection reset")
}

// mapCache is an in-process utils.Cache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type catalogFixture struct {
	svc      *CatalogService
	products *store.MemoryProductStore
	reviews  *store.MemoryReviewStore
	cache    *mapCache
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		products: store.NewMemoryProductStore(),
		reviews:  store.NewMemoryReviewStore(),
		cache:    newMapCache(),
	}
	f.svc = NewCatalogService(f.products, f.reviews, f.cache, time.Minute, utils.DiscardLogger())
	return f
}

func productInput(name string, price float64, category string) models.ProductInput {
	stock := 5
	return models.ProductInput{
		Name:        name,
		Description: name + " description",
		Price:       &price,
		Category:    category,
		Image:       "https://img.test/" + name + ".png",
		Stock:       &stock,
	}
}

func (f *catalogFixture) create(t *testing.T, name string, price float64, category string) *models.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), admin, productInput(name, price, category))
	require.NoError(t, err)
	return p
}

func rating(n int) *int { return &n }

func productNames(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestListPriceDescFirstPage(t *testing.T) {
	f := newCatalogFixture()
	f.create(t, "ten", 10, "A")
	f.create(t, "thirty", 30, "A")
	f.create(t, "twenty", 20, "A")

	page, err := f.svc.List(context.Background(), models.ListingParams{Page: 1, Limit: 2, Sort: models.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"thirty", "twenty"}, productNames(page.Products))
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestListRejectsBadParamsBeforeStore(t *testing.T) {
	products := new(MockProductStore)
	svc := NewCatalogService(products, store.NewMemoryReviewStore(), nil, time.Minute, utils.DiscardLogger())

	tests := []struct {
		name   string
		params models.ListingParams
		field  string
	}{
		{"zero page", models.ListingParams{Page: 0, Limit: 10}, "page"},
		{"negative limit", models.ListingParams{Page: 1, Limit: -1}, "limit"},
		{"unknown sort", models.ListingParams{Page: 1, Limit: 10, Sort: "rating"}, "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.params)
			require.True(t, utils.IsKind(err, utils.KindValidation))
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			require.Len(t, appErr.Fields, 1)
			assert.Equal(t, tt.field, appErr.Fields[0].Field)
		})
	}
	products.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListEmptyCatalog(t *testing.T) {
	f := newCatalogFixture()
	page, err := f.svc.List(context.Background(), models.DefaultListingParams())
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
	assert.Equal(t, int64(0), page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestListPagesCoverMatchSet(t *testing.T) {
	f := newCatalogFixture()
	for i := 0; i < 7; i++ {
		f.create(t, fmt.Sprintf("item-%d", i), float64(i), "A")
	}
	ctx := context.Background()

	for limit := 1; limit <= 8; limit++ {
		first, err := f.svc.List(ctx, models.ListingParams{Page: 1, Limit: limit})
		require.NoError(t, err)
		assert.Equal(t, int64((7+limit-1)/limit), first.TotalPages, "limit %d", limit)

		seen := map[string]bool{}
		for page := 1; page <= int(first.TotalPages); page++ {
			res, err := f.svc.List(ctx, models.ListingParams{Page: page, Limit: limit})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Products), limit)
			for _, p := range res.Products {
				assert.False(t, seen[p.Name], "%s repeated", p.Name)
				seen[p.Name] = true
			}
		}
		assert.Len(t, seen, 7, "limit %d", limit)
	}
}

func TestListHugeLimit(t *testing.T) {
	f := newCatalogFixture()
	f.create(t, "a", 1, "A")
	f.create(t, "b", 2, "A")
	f.create(t, "c", 3, "A")

	page, err := f.svc.List(context.Background(), models.ListingParams{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)
	assert.Equal(t, int64(1), page.TotalPages)

	page, err = f.svc.List(context.Background(), models.ListingParams{Page: 2, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestListHugePage(t *testing.T) {
	f := newCatalogFixture()
	f.create(t, "a", 1, "A")
	f.create(t, "b", 2, "A")
	f.create(t, "c", 3, "A")

	for _, limit := range []int{2, math.MaxInt / 2, math.MaxInt} {
		page, err := f.svc.List(context.Background(), models.ListingParams{Page: math.MaxInt, Limit: limit})
		require.NoError(t, err, "limit %d", limit)
		assert.NotNil(t, page.Products)
		assert.Empty(t, page.Products)
		assert.Equal(t, models.TotalPages(3, limit), page.TotalPages)
		assert.Equal(t, math.MaxInt, page.CurrentPage)
	}
}

func TestListFilters(t *testing.T) {
	f := newCatalogFixture()
	f.create(t, "Wireless Mouse", 20, "Accessories")
	f.create(t, "MOUSE PAD", 5, "Accessories")
	f.create(t, "Gaming Mouse", 60, "Gaming")
	f.create(t, "Keyboard", 40, "Accessories")
	ctx := context.Background()

	page, err := f.svc.List(ctx, models.ListingParams{Page: 1, Limit: 10, Search: "mouse"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wireless Mouse", "MOUSE PAD", "Gaming Mouse"}, productNames(page.Products))

	page, err = f.svc.List(ctx, models.ListingParams{Page: 1, Limit: 10, Search: "mouse", Category: "Accessories"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wireless Mouse", "MOUSE PAD"}, productNames(page.Products))

	page, err = f.svc.List(ctx, models.ListingParams{Page: 1, Limit: 10, Category: "accessories"})
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	page, err = f.svc.List(ctx, models.ListingParams{Page: 1, Limit: 10, Search: "m.use"})
	require.NoError(t, err)
	assert.Empty(t, page.Products, "search is a literal substring")
}

func TestListSortsAreMirrored(t *testing.T) {
	f := newCatalogFixture()
	f.create(t, "b", 2, "A")
	f.create(t, "c", 3, "A")
	f.create(t, "a", 1, "A")
	ctx := context.Background()

	list := func(sort string) []string {
		page, err := f.svc.List(ctx, models.ListingParams{Page: 1, Limit: 10, Sort: sort})
		require.NoError(t, err)
		return productNames(page.Products)
	}

	assert.Equal(t, []string{"a", "b", "c"}, list(models.SortPriceAsc))
	assert.Equal(t, []string{"c", "b", "a"}, list(models.SortPriceDesc))
	assert.Equal(t, []string{"a", "b", "c"}, list(models.SortNameAsc))
	assert.Equal(t, []string{"c", "b", "a"}, list(models.SortNameDesc))
	assert.Equal(t, list(""), list(""), "natural order is stable")
}

func TestListStoreFailure(t *testing.T) {
	products := new(MockProductStore)
	products.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("no reachable servers"))
	svc := NewCatalogService(products, store.NewMemoryReviewStore(), nil, time.Minute, utils.DiscardLogger())

	_, err := svc.List(context.Background(), models.DefaultListingParams())
	assert.True(t, utils.IsKind(err, utils.KindInternal))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Server error", appErr.Message)
	products.AssertExpectations(t)
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, customer, productInput("Mouse", 20, "Accessories"))
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	_, err = f.svc.Create(ctx, admin, models.ProductInput{Name: "  ", Price: new(float64)})
	require.True(t, utils.IsKind(err, utils.KindValidation))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	var fields []string
	for _, fe := range appErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "description", "category", "image", "stock"}, fields)

	in := productInput("Mouse", -1, "Accessories")
	_, err = f.svc.Create(ctx, admin, in)
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	p, err := f.svc.Create(ctx, admin, productInput("Mouse", 0, "Accessories"))
	require.NoError(t, err)
	assert.False(t, p.ID.IsZero())
	assert.Equal(t, 0.0, p.Price)
	assert.NotNil(t, p.Reviews)
	assert.Empty(t, p.Reviews)
}

func TestUpdateProduct(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	p := f.create(t, "Mouse", 20, "Accessories")

	price := 25.0
	_, err := f.svc.Update(ctx, customer, p.ID.Hex(), models.ProductUpdate{Price: &price})
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	updated, err := f.svc.Update(ctx, admin, p.ID.Hex(), models.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.Equal(t, "Mouse", updated.Name)

	negative := -3
	_, err = f.svc.Update(ctx, admin, p.ID.Hex(), models.ProductUpdate{Stock: &negative})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	blank := "   "
	_, err = f.svc.Update(ctx, admin, p.ID.Hex(), models.ProductUpdate{Name: &blank})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.Update(ctx, admin, primitive.NewObjectID().Hex(), models.ProductUpdate{Price: &price})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.svc.Update(ctx, admin, "not-an-id", models.ProductUpdate{Price: &price})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestDeleteCascadesReviews(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	doomed := f.create(t, "Mouse", 20, "Accessories")
	kept := f.create(t, "Keyboard", 40, "Accessories")

	for _, id := range []string{doomed.ID.Hex(), doomed.ID.Hex(), kept.ID.Hex()} {
		_, err := f.svc.AddReview(ctx, customer, id, models.ReviewInput{Rating: rating(4), Comment: "fine"})
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.reviews.Count())

	assert.True(t, utils.IsKind(f.svc.Delete(ctx, customer, doomed.ID.Hex()), utils.KindForbidden))

	require.NoError(t, f.svc.Delete(ctx, admin, doomed.ID.Hex()))
	assert.Equal(t, 1, f.reviews.Count())

	_, err := f.svc.Get(ctx, doomed.ID.Hex())
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	page, err := f.svc.List(ctx, models.DefaultListingParams())
	require.NoError(t, err)
	assert.Equal(t, []string{"Keyboard"}, productNames(page.Products))
	require.Len(t, page.Products[0].Reviews, 1)

	assert.True(t, utils.IsKind(f.svc.Delete(ctx, admin, doomed.ID.Hex()), utils.KindNotFound))
}

func TestDeleteKeepsProductWhenReviewCleanupFails(t *testing.T) {
	products := store.NewMemoryProductStore()
	reviews := failingReviews{store.NewMemoryReviewStore()}
	svc := NewCatalogService(products, reviews, nil, time.Minute, utils.DiscardLogger())
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, productInput("Mouse", 20, "Accessories"))
	require.NoError(t, err)

	err = svc.Delete(ctx, admin, p.ID.Hex())
	assert.True(t, utils.IsKind(err, utils.KindInternal))

	_, err = svc.Get(ctx, p.ID.Hex())
	assert.NoError(t, err, "product stays listed so the delete can be retried")
}

func TestAddReview(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return stamp }

	p := f.create(t, "Mouse", 20, "Accessories")

	review, err := f.svc.AddReview(ctx, customer, p.ID.Hex(), models.ReviewInput{Rating: rating(5), Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, review.UserID)
	assert.Equal(t, p.ID, review.ProductID)
	assert.Equal(t, stamp, review.CreatedAt)

	second, err := f.svc.AddReview(ctx, customer, p.ID.Hex(), models.ReviewInput{Rating: rating(1), Comment: "broke"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, p.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, review.ID, got.Reviews[0].ID)
	assert.Equal(t, second.ID, got.Reviews[1].ID)

	for _, bad := range []models.ReviewInput{
		{Rating: rating(0), Comment: "x"},
		{Rating: rating(6), Comment: "x"},
		{Comment: "x"},
		{Rating: rating(3), Comment: "  "},
	} {
		_, err := f.svc.AddReview(ctx, customer, p.ID.Hex(), bad)
		assert.True(t, utils.IsKind(err, utils.KindValidation))
	}

	_, err = f.svc.AddReview(ctx, customer, primitive.NewObjectID().Hex(), models.ReviewInput{Rating: rating(3), Comment: "x"})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Equal(t, 2, f.reviews.Count())
}

func TestAddReviewRemovesReviewWhenLinkFails(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Mouse"}
	products := new(MockProductStore)
	products.On("Get", mock.Anything, product.ID).Return(product, nil)
	products.On("AppendReview", mock.Anything, product.ID, mock.AnythingOfType("primitive.ObjectID")).
		Return(errors.New("write conflict")).Once()
	reviews := store.NewMemoryReviewStore()
	svc := NewCatalogService(products, reviews, nil, time.Minute, utils.DiscardLogger())

	_, err := svc.AddReview(context.Background(), customer, product.ID.Hex(), models.ReviewInput{Rating: rating(4), Comment: "ok"})
	assert.True(t, utils.IsKind(err, utils.KindInternal))
	assert.Equal(t, 0, reviews.Count())
	products.AssertExpectations(t)
}

func TestAddReviewProductDeletedMeanwhile(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Mouse"}
	products := new(MockProductStore)
	products.On("Get", mock.Anything, product.ID).Return(product, nil)
	products.On("AppendReview", mock.Anything, product.ID, mock.Anything).Return(store.ErrNotFound)
	reviews := store.NewMemoryReviewStore()
	svc := NewCatalogService(products, reviews, nil, time.Minute, utils.DiscardLogger())

	_, err := svc.AddReview(context.Background(), customer, product.ID.Hex(), models.ReviewInput{Rating: rating(4), Comment: "ok"})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Equal(t, 0, reviews.Count())
}

func TestCategoriesCache(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	f.create(t, "Mouse", 20, "Accessories")
	f.create(t, "Laptop", 900, "Electronics")

	categories, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "Electronics"}, categories)
	assert.Contains(t, f.cache.entries, CategoriesCacheKey)

	// Writes behind the service's back are not seen until invalidation.
	price, stock := 1.0, 1
	require.NoError(t, f.products.Create(ctx, &models.Product{Name: "Pad", Category: "Office", Price: price, Stock: stock}))
	categories, err = f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "Electronics"}, categories)

	f.create(t, "Chair", 120, "Furniture")
	assert.NotContains(t, f.cache.entries, CategoriesCacheKey)
	categories, err = f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "Electronics", "Office", "Furniture"}, categories)
}
