package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoriesCacheKey is where the distinct category list is cached.
const CategoriesCacheKey = "catalog:categories"

// CatalogService implements product listing, the admin mutation gate and
// review submission on top of the stores.
type CatalogService struct {
	products store.ProductStore
	reviews  store.ReviewStore
	cache    utils.Cache
	cacheTTL time.Duration
	validate *utils.Validator
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewCatalogService creates a CatalogService. A nil cache disables caching.
func NewCatalogService(products store.ProductStore, reviews store.ReviewStore, cache utils.Cache, cacheTTL time.Duration, log logrus.FieldLogger) *CatalogService {
	if cache == nil {
		cache = utils.NopCache{}
	}
	return &CatalogService{
		products: products,
		reviews:  reviews,
		cache:    cache,
		cacheTTL: cacheTTL,
		validate: utils.NewValidator(),
		log:      log,
		now:      time.Now,
	}
}

// List returns one page of the catalog.
func (s *CatalogService) List(ctx context.Context, params models.ListingParams) (*models.ListingPage, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, err
	}

	products, count, err := s.products.List(ctx, store.NewListingQuery(params))
	if err != nil {
		return nil, utils.InternalError("list products", err)
	}
	if err := s.resolveReviews(ctx, products); err != nil {
		return nil, err
	}
	return &models.ListingPage{
		Products:    products,
		TotalPages:  models.TotalPages(count, params.Limit),
		CurrentPage: params.Page,
	}, nil
}

// Get returns a single product with its reviews.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	products := []models.Product{*product}
	if err := s.resolveReviews(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// Categories returns the distinct categories of all products.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	found, err := s.cache.Get(ctx, CategoriesCacheKey, &categories)
	if err != nil {
		s.log.WithError(err).Warn("categories cache read failed")
	}
	if found && err == nil {
		return categories, nil
	}

	categories, err = s.products.Categories(ctx)
	if err != nil {
		return nil, utils.InternalError("list categories", err)
	}
	if err := s.cache.Set(ctx, CategoriesCacheKey, categories, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("categories cache write failed")
	}
	return categories, nil
}

// Create adds a product to the catalog. Admin only.
func (s *CatalogService) Create(ctx context.Context, caller models.Caller, in models.ProductInput) (*models.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	product := in.Product()
	if err := s.products.Create(ctx, &product); err != nil {
		return nil, utils.InternalError("create product", err)
	}
	s.invalidateCategories(ctx)
	s.log.WithFields(logrus.Fields{"product_id": product.ID.Hex(), "admin_id": caller.ID.Hex()}).Info("product created")
	return &product, nil
}

// Update applies a partial edit to a product. Admin only.
func (s *CatalogService) Update(ctx context.Context, caller models.Caller, id string, upd models.ProductUpdate) (*models.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	trimPtr(upd.Name)
	trimPtr(upd.Description)
	trimPtr(upd.Category)
	trimPtr(upd.Image)
	if err := s.validate.Struct(upd); err != nil {
		return nil, err
	}

	product, err := s.products.Update(ctx, oid, upd)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFoundError("Product not found")
	}
	if err != nil {
		return nil, utils.InternalError("update product", err)
	}
	s.invalidateCategories(ctx)

	products := []models.Product{*product}
	if err := s.resolveReviews(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// Delete removes a product and every review that belongs to it. Reviews
// go first: if either step fails the product is still listed and the
// delete can simply be repeated.
func (s *CatalogService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.reviews.DeleteByProduct(ctx, product.ID)
	if err != nil {
		return utils.InternalError("delete product reviews", err)
	}
	err = s.products.Delete(ctx, product.ID)
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFoundError("Product not found")
	}
	if err != nil {
		return utils.InternalError("delete product", err)
	}
	s.invalidateCategories(ctx)
	s.log.WithFields(logrus.Fields{
		"product_id":      product.ID.Hex(),
		"reviews_removed": removed,
		"admin_id":        caller.ID.Hex(),
	}).Info("product deleted")
	return nil
}

// AddReview stores a review and links it to its product. If linking
// fails the stored review is removed again.
func (s *CatalogService) AddReview(ctx context.Context, caller models.Caller, productID string, in models.ReviewInput) (*models.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		ProductID: product.ID,
		UserID:    caller.ID,
		Rating:    *in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return nil, utils.InternalError("create review", err)
	}

	err = s.products.AppendReview(ctx, product.ID, review.ID)
	if err == nil {
		return &review, nil
	}
	if rmErr := s.reviews.Delete(ctx, review.ID); rmErr != nil {
		s.log.WithError(rmErr).WithFields(logrus.Fields{
			"review_id":  review.ID.Hex(),
			"product_id": product.ID.Hex(),
		}).Error("unlinked review left behind")
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFoundError("Product not found")
	}
	return nil, utils.InternalError("link review", err)
}

func (s *CatalogService) getProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFoundError("Product not found")
	}
	if err != nil {
		return nil, utils.InternalError("get product", err)
	}
	return product, nil
}

// resolveReviews fills Reviews of every product from its reference list,
// keeping reference order and skipping references whose review is gone.
func (s *CatalogService) resolveReviews(ctx context.Context, products []models.Product) error {
	var ids []primitive.ObjectID
	for _, p := range products {
		ids = append(ids, p.ReviewIDs...)
	}
	byID := make(map[primitive.ObjectID]models.Review, len(ids))
	if len(ids) > 0 {
		reviews, err := s.reviews.FindByIDs(ctx, ids)
		if err != nil {
			return utils.InternalError("resolve reviews", err)
		}
		for _, r := range reviews {
			byID[r.ID] = r
		}
	}
	for i := range products {
		resolved := make([]models.Review, 0, len(products[i].ReviewIDs))
		for _, id := range products[i].ReviewIDs {
			if r, ok := byID[id]; ok {
				resolved = append(resolved, r)
			}
		}
		products[i].Reviews = resolved
	}
	return nil
}

func (s *CatalogService) invalidateCategories(ctx context.Context) {
	if err := s.cache.Delete(ctx, CategoriesCacheKey); err != nil {
		s.log.WithError(err).Warn("categories cache invalidation failed")
	}
}

func requireAdmin(caller models.Caller) error {
	if !caller.IsAdmin {
		return utils.ForbiddenError("Access denied")
	}
	return nil
}

// parseProductID treats a malformed id like an unknown one.
func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.NotFoundError("Product not found")
	}
	return oid, nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
