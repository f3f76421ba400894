package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ProductController handles product-related requests
type ProductController struct {
	Catalog *services.CatalogService
	Log     logrus.FieldLogger
	Timeout time.Duration
}

// NewProductController creates a new ProductController
func NewProductController(catalog *services.CatalogService, log logrus.FieldLogger, timeout time.Duration) *ProductController {
	return &ProductController{
		Catalog: catalog,
		Log:     log,
		Timeout: timeout,
	}
}

// GetProducts returns one page of the catalog
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	params, err := parseListingParams(r.URL.Query())
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	page, err := pc.Catalog.List(ctx, params)
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	product, err := pc.Catalog.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// GetCategories lists the distinct product categories
func (pc *ProductController) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	categories, err := pc.Catalog.Categories(ctx)
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	var in models.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	product, err := pc.Catalog.Create(ctx, caller, in)
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	var upd models.ProductUpdate
	if err := decodeJSON(r, &upd); err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	product, err := pc.Catalog.Update(ctx, caller, mux.Vars(r)["id"], upd)
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product and its reviews (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	if err := pc.Catalog.Delete(ctx, caller, mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product and associated reviews deleted"})
}

// AddReview lets any signed-in user review a product
func (pc *ProductController) AddReview(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	var in models.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pc.Timeout)
	defer cancel()
	review, err := pc.Catalog.AddReview(ctx, caller, mux.Vars(r)["id"], in)
	if err != nil {
		utils.WriteError(w, pc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, review)
}
