// routes/routes.go
package routes

import (
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, gate *middleware.Gate, userController *controllers.UserController, productController *controllers.ProductController, healthController *controllers.HealthController) {
	router.HandleFunc("/health", healthController.Health).Methods("GET")

	// Auth routes
	router.HandleFunc("/auth/register", userController.Register).Methods("POST")
	router.HandleFunc("/auth/login", userController.Login).Methods("POST")

	// Profile routes
	router.Handle("/users/profile", gate.Authenticated(userController.GetProfile)).Methods("GET")
	router.Handle("/users/profile", gate.Authenticated(userController.UpdateProfile)).Methods("PUT")

	// Product routes; categories must be matched before {id}
	router.HandleFunc("/products", productController.GetProducts).Methods("GET")
	router.HandleFunc("/products/categories", productController.GetCategories).Methods("GET")
	router.HandleFunc("/products/{id}", productController.GetProductByID).Methods("GET")

	// Admin routes
	router.Handle("/products", gate.AdminOnly(productController.CreateProduct)).Methods("POST")
	router.Handle("/products/{id}", gate.AdminOnly(productController.UpdateProduct)).Methods("PUT")
	router.Handle("/products/{id}", gate.AdminOnly(productController.DeleteProduct)).Methods("DELETE")

	// Review routes
	router.Handle("/products/{id}/reviews", gate.Authenticated(productController.AddReview)).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, nil, utils.NotFoundError("Route not found"))
	})
}
