package handler

import (
	"context"
	"log/slog"
	"net/http"

	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Subscriptions service.SubscriptionService
	Catalog       service.CatalogService
	Recipes       service.RecipeService
	Favorites     service.RecipeLinkService
	Cart          service.RecipeLinkService
	ShoppingList  service.ShoppingListService
}

type RouterConfig struct {
	Services Services
	Log      *slog.Logger
	Options  Options

	// MediaRoot is served under MediaPrefix when both are set.
	MediaRoot   string
	MediaPrefix string

	// TrustedProxies may set X-Forwarded-For; nil trusts none so the
	// client IP is the peer address.
	TrustedProxies []string

	RateLimiter *middleware.IPRateLimiter
	Health      func(ctx context.Context) error
}

// NewRouter wires middleware and every /api route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	opts := cfg.Options
	opts.Log = log
	s := cfg.Services

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				log.Warn("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.MediaRoot != "" && cfg.MediaPrefix != "" {
		r.Static(cfg.MediaPrefix, cfg.MediaRoot)
	}

	api := r.Group("/api", middleware.Authenticate(s.Auth))

	NewAuthHandler(s.Auth, opts).RegisterRoutes(api.Group("/auth"))
	NewUserHandler(s.Auth, s.Users, s.Subscriptions, opts).RegisterRoutes(api.Group("/users"))
	NewTagHandler(s.Catalog, opts).RegisterRoutes(api.Group("/tags"))
	NewIngredientHandler(s.Catalog, opts).RegisterRoutes(api.Group("/ingredients"))
	NewRecipeHandler(s.Recipes, s.Favorites, s.Cart, s.ShoppingList, opts).RegisterRoutes(api.Group("/recipes"))

	return r
}
