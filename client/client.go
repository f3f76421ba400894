// Package client talks to the storefront HTTP API and keeps the state a
// shopper's front end needs: the listing being browsed, the signed-in
// account and the cart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/utils"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int                `json:"-"`
	Kind    string             `json:"kind"`
	Message string             `json:"message"`
	Fields  []utils.FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Kind, e.Message, strings.Join(msgs, "; "))
}

// Client is a typed client for the storefront API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

// New creates a Client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken sets the bearer token sent on authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token, if any.
func (c *Client) Token() string { return c.token }

// ListProducts fetches one listing page.
func (c *Client) ListProducts(ctx context.Context, p models.ListingParams) (*models.ListingPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	var page models.ListingPage
	if err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct fetches one product with its reviews.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Categories fetches the distinct product categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	var resp models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	var resp models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/users/profile", upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateProduct adds a product. Requires an admin token.
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodPost, "/products", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct edits a product. Requires an admin token.
func (c *Client) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a product and its reviews. Requires an admin token.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// AddReview posts a review on a product.
func (c *Client) AddReview(ctx context.Context, productID string, in models.ReviewInput) (*models.Review, error) {
	var r models.Review
	if err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/reviews", in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Kind = "unknown"
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
