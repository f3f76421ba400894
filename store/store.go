// Package store holds the persistence side of the storefront: the catalog
// of products, their reviews and user accounts.
package store

import (
	"context"
	"errors"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a document with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ProductStore is the Catalog Store.
type ProductStore interface {
	// List returns the page selected by q together with the number of
	// products matching q's filter, ignoring pagination.
	List(ctx context.Context, q ListingQuery) ([]models.Product, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, u models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AppendReview pushes a review reference onto the product's list as a
	// single document update.
	AppendReview(ctx context.Context, productID, reviewID primitive.ObjectID) error
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) (int64, error)
	// FindByIDs returns the reviews that still exist among ids, in no
	// particular order.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Review, error)
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies the given fields. Password, if set, must already be hashed.
	Update(ctx context.Context, id primitive.ObjectID, u models.ProfileUpdate) (*models.User, error)
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
