package client

import (
	"context"
	"errors"

	"go-storefront/cart"
	"go-storefront/models"
)

var (
	// ErrNotLoggedIn is returned by actions that need an account.
	ErrNotLoggedIn = errors.New("please log in first")
	// ErrNotAdmin is returned by catalog edits from a non-admin account.
	ErrNotAdmin = errors.New("admin access required")
	// ErrEmptyCart is returned when checking out with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutNotImplemented is returned by Checkout; orders are not
	// sent anywhere yet.
	ErrCheckoutNotImplemented = errors.New("checkout is not implemented")
)

// Session is the state owned by one shop front: the API client, the
// signed-in account and the cart. Views get it passed in.
type Session struct {
	Client  *Client
	Cart    *cart.Cart
	Browser *Browser
	user    *models.User
}

// NewSession creates a signed-out session with an empty cart.
func NewSession(c *Client) *Session {
	return &Session{
		Client:  c,
		Cart:    cart.New(),
		Browser: NewBrowser(c, DefaultPageSize),
	}
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) error {
	token, err := s.Client.Register(ctx, req)
	if err != nil {
		return err
	}
	return s.signIn(ctx, token)
}

// Login signs in with existing credentials.
func (s *Session) Login(ctx context.Context, req models.LoginRequest) error {
	token, err := s.Client.Login(ctx, req)
	if err != nil {
		return err
	}
	return s.signIn(ctx, token)
}

// Logout forgets the account. The cart is kept.
func (s *Session) Logout() {
	s.Client.SetToken("")
	s.user = nil
}

// User returns the signed-in account, or nil.
func (s *Session) User() *models.User { return s.user }

// LoggedIn reports whether an account is signed in.
func (s *Session) LoggedIn() bool { return s.user != nil }

// IsAdmin reports whether the signed-in account is an administrator.
func (s *Session) IsAdmin() bool { return s.user != nil && s.user.IsAdmin }

// SubmitReview posts a review for productID as the signed-in user.
func (s *Session) SubmitReview(ctx context.Context, productID string, rating int, comment string) (*models.Review, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	return s.Client.AddReview(ctx, productID, models.ReviewInput{Rating: &rating, Comment: comment})
}

// UpdateProfile changes the signed-in account and keeps the session's
// copy in step.
func (s *Session) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	user, err := s.Client.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, err
	}
	s.user = user
	return user, nil
}

// CreateProduct adds a product to the catalog and reloads the listing.
func (s *Session) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	p, err := s.Client.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	return p, s.Browser.Load(ctx)
}

// UpdateProduct edits a product and reloads the listing.
func (s *Session) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	p, err := s.Client.UpdateProduct(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return p, s.Browser.Load(ctx)
}

// DeleteProduct removes a product and its reviews. The listing stays on
// the current page unless that page has emptied out.
func (s *Session) DeleteProduct(ctx context.Context, id string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.Browser.Delete(ctx, id)
}

func (s *Session) requireAdmin() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	if !s.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// CheckoutSummary is what would be ordered.
type CheckoutSummary struct {
	Lines []cart.Line
	Total float64
}

// Checkout summarises the cart. Orders are not placed: the error is
// always ErrEmptyCart or ErrCheckoutNotImplemented and the cart is left
// untouched.
func (s *Session) Checkout() (CheckoutSummary, error) {
	summary := CheckoutSummary{Lines: s.Cart.Lines(), Total: s.Cart.Total()}
	if len(summary.Lines) == 0 {
		return summary, ErrEmptyCart
	}
	return summary, ErrCheckoutNotImplemented
}

func (s *Session) signIn(ctx context.Context, token string) error {
	s.Client.SetToken(token)
	user, err := s.Client.Profile(ctx)
	if err != nil {
		s.Client.SetToken("")
		return err
	}
	s.user = user
	return nil
}
