package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"foodgram/database"
	"foodgram/internal/config"
	"foodgram/internal/logging"
	"foodgram/internal/microservices/http-api/handler"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		logger.Error("database_unavailable", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("migration_failed", "error", err)
		os.Exit(1)
	}

	// logout works without redis, tokens then simply live until expiry
	var revoked repository.RevokedTokenStore
	rdb, err := repository.NewRedisClient(context.Background(), cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis_unavailable", "error", err)
	} else {
		defer rdb.Close()
		revoked = repository.NewRedisRevokedTokenStore(rdb)
	}

	images, err := storage.NewMediaStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		logger.Error("media_store_failed", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Services: buildServices(db, revoked, images, cfg, logger),
		Log:      logger,
		Options: handler.Options{
			RequestTimeout: cfg.RequestTimeout,
			PageSize:       cfg.PageSize,
			UploadMaxBytes: cfg.UploadMaxBytes(),
			MediaURL:       images.URL,
		},
		MediaRoot:      images.Root(),
		MediaPrefix:    localMediaPrefix(cfg.MediaURL),
		TrustedProxies: cfg.TrustedProxies,
		RateLimiter:    middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Health:         healthCheck(db, rdb),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("server_stopped_gracefully")
	case err := <-errChan:
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
}

func buildServices(db *gorm.DB, revoked repository.RevokedTokenStore, images *storage.MediaStore, cfg *config.Config, logger *slog.Logger) handler.Services {
	users := repository.NewUserRepository(db)
	tags := repository.NewTagRepository(db)
	ingredients := repository.NewIngredientRepository(db)
	recipes := repository.NewRecipeRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	cart := repository.NewShoppingCartRepository(db)
	subs := repository.NewSubscriptionRepository(db)

	return handler.Services{
		Auth:          service.NewAuthService(users, revoked, cfg, logger),
		Users:         service.NewUserService(users, subs),
		Subscriptions: service.NewSubscriptionService(subs, users, recipes),
		Catalog:       service.NewCatalogService(tags, ingredients, logger),
		Recipes: service.NewRecipeService(service.RecipeDeps{
			Recipes:       recipes,
			Ingredients:   ingredients,
			Tags:          tags,
			Favorites:     favorites,
			Cart:          cart,
			Subscriptions: subs,
			Images:        images,
		}, logger),
		Favorites:    service.NewFavoriteService(favorites, recipes),
		Cart:         service.NewShoppingCartService(cart, recipes),
		ShoppingList: service.NewShoppingListService(recipes),
	}
}

// localMediaPrefix returns MEDIA_URL when it is a path this server should
// serve, and "" when media lives on another host.
func localMediaPrefix(mediaURL string) string {
	if !strings.HasPrefix(mediaURL, "/") || strings.HasPrefix(mediaURL, "//") {
		return ""
	}
	return strings.TrimSuffix(mediaURL, "/")
}

func healthCheck(db *gorm.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}
}
