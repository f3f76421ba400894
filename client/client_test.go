package client_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/client"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminEmail = "admin@shop.test"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := utils.DiscardLogger()
	products := store.NewMemoryProductStore()
	catalog := services.NewCatalogService(products, store.NewMemoryReviewStore(), nil, time.Minute, log)
	accounts := services.NewAccountService(store.NewMemoryUserStore(), utils.NewTokenIssuer("test-secret", time.Hour), nil, []string{adminEmail}, log)

	router := mux.NewRouter()
	routes.RegisterRoutes(router,
		middleware.NewGate(accounts, log),
		controllers.NewUserController(accounts, log, time.Second),
		controllers.NewProductController(catalog, log, time.Second),
		&controllers.HealthController{Store: products, Timeout: time.Second},
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func adminClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	c := client.New(srv.URL)
	token, err := c.Register(context.Background(), models.RegisterRequest{Username: "admin", Email: adminEmail, Password: "secret1"})
	require.NoError(t, err)
	c.SetToken(token)
	return c
}

func input(name string, price float64, category string) models.ProductInput {
	stock := 1
	return models.ProductInput{
		Name: name, Description: name, Price: &price,
		Category: category, Image: "https://img.test/" + name, Stock: &stock,
	}
}

func seedProducts(t *testing.T, c *client.Client, n int) []models.Product {
	t.Helper()
	out := make([]models.Product, 0, n)
	for i := 1; i <= n; i++ {
		category := "Odd"
		if i%2 == 0 {
			category = "Even"
		}
		p, err := c.CreateProduct(context.Background(), input(fmt.Sprintf("Item %02d", i), float64(i), category))
		require.NoError(t, err)
		out = append(out, *p)
	}
	return out
}

func TestClientCatalogCalls(t *testing.T) {
	srv := newServer(t)
	admin := adminClient(t, srv)
	ctx := context.Background()
	seeded := seedProducts(t, admin, 3)

	anon := client.New(srv.URL + "/")
	page, err := anon.ListProducts(ctx, models.ListingParams{Page: 1, Limit: 2, Sort: models.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Item 03", page.Products[0].Name)
	assert.Equal(t, int64(2), page.TotalPages)

	categories, err := anon.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Odd", "Even"}, categories)

	price := 99.5
	updated, err := admin.UpdateProduct(ctx, seeded[0].ID.Hex(), models.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 99.5, updated.Price)

	got, err := anon.GetProduct(ctx, seeded[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 99.5, got.Price)

	require.NoError(t, admin.DeleteProduct(ctx, seeded[0].ID.Hex()))
	_, err = anon.GetProduct(ctx, seeded[0].ID.Hex())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Kind)
}

func TestClientSurfacesFieldErrors(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL)

	_, err := c.ListProducts(context.Background(), models.ListingParams{Page: 0, Limit: 9})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "page", apiErr.Fields[0].Field)
	assert.Contains(t, apiErr.Error(), apiErr.Fields[0].Message)

	_, err = c.CreateProduct(context.Background(), input("x", 1, "y"))
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClientProfile(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	token, err := c.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@shop.test", Password: "secret1"})
	require.NoError(t, err)
	c.SetToken(token)
	assert.Equal(t, token, c.Token())

	name := "alicia"
	user, err := c.UpdateProfile(ctx, models.ProfileUpdate{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
	assert.Empty(t, user.Password)

	_, err = c.Login(ctx, models.LoginRequest{Email: "alice@shop.test", Password: "wrong-one"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}
