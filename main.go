// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/config"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/routes"
	"go-storefront/services"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := store.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		cancel()
		log.Fatalf("failed to connect to DB: %v", err)
	}
	db := client.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatalf("failed to create indexes: %v", err)
	}
	cancel()
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Error("mongodb disconnect failed")
		}
	}()

	productStore := store.NewMongoProductStore(db)
	reviewStore := store.NewMongoReviewStore(db)
	userStore := store.NewMongoUserStore(db)

	var cache utils.Cache = utils.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		cache = utils.NewRedisCache(rdb)
	}

	var mailer utils.Mailer = utils.NopMailer{}
	if cfg.PostmarkToken != "" {
		mailer = utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)
	} else {
		log.Info("POSTMARK_API_TOKEN not set, emails disabled")
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	catalog := services.NewCatalogService(productStore, reviewStore, cache, cfg.CategoryCacheTTL, log)
	accounts := services.NewAccountService(userStore, tokens, mailer, cfg.AdminEmails, log)

	// Initialize controllers
	userController := controllers.NewUserController(accounts, log, cfg.RequestTimeout)
	productController := controllers.NewProductController(catalog, log, cfg.RequestTimeout)
	healthController := &controllers.HealthController{Store: productStore, Timeout: cfg.RequestTimeout}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	routes.RegisterRoutes(router, middleware.NewGate(accounts, log), userController, productController, healthController)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
