package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/infra/config"
	"github.com/ggontijo/campus-market/internal/infra/security"
	"github.com/ggontijo/campus-market/internal/transport/http/handlers"
	"github.com/ggontijo/campus-market/internal/transport/http/middleware"
	"github.com/ggontijo/campus-market/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Identities *usecase.IdentityService
	Categories *usecase.CategoryService
	Listings   *usecase.ListingService
	Catalog    *usecase.CatalogService
	Media      *usecase.MediaService
	MediaStore port.MediaStore
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Tokens      *security.TokenManager
	Database    DatabaseChecker
	Cache       CacheChecker
	Media       MediaChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// MediaChecker exposes readiness behaviour for the media store.
type MediaChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))

	if deps.Config.Telemetry.MetricsEnabled {
		if httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
			r.Use(httpMetrics.Handler())
		} else if deps.Logger != nil {
			deps.Logger.Warn("http metrics disabled", zap.Error(err))
		}
	}

	healthOptions := make([]handlers.HealthOption, 0, 3)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	if deps.Media != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("mongodb", deps.Media.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Services.Identities)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Services.Identities)
	requireAdmin := middleware.RequireAdmin()

	api := r.Group("/api/v1")
	{
		identityHandler := handlers.NewIdentityHandler(deps.Services.Identities, deps.Tokens, deps.Logger)

		identityGroup := api.Group("/identities")
		registerHandlers := append(buildRegisterMiddlewares(deps), identityHandler.Register)
		identityGroup.POST("", registerHandlers...)
		loginHandlers := append(buildLoginMiddlewares(deps), identityHandler.Login)
		identityGroup.POST("/login", loginHandlers...)
		identityGroup.GET("/me", requireAuth, identityHandler.Me)
		identityGroup.PATCH("/me", requireAuth, identityHandler.UpdateProfile)
		identityGroup.PUT("/:id/status", requireAuth, requireAdmin, identityHandler.SetStatus)
		identityGroup.PUT("/:id/membership", requireAuth, requireAdmin, identityHandler.SetMembership)

		categoryHandler := handlers.NewCategoryHandler(deps.Services.Categories)

		categoryGroup := api.Group("/categories")
		categoryGroup.GET("", categoryHandler.List)
		categoryGroup.GET("/:id/hierarchy", categoryHandler.Hierarchy)
		categoryGroup.POST("", requireAuth, requireAdmin, categoryHandler.Create)
		categoryGroup.PUT("/:id", requireAuth, requireAdmin, categoryHandler.Update)
		categoryGroup.DELETE("/:id", requireAuth, requireAdmin, categoryHandler.Delete)

		listingHandler := handlers.NewListingHandler(
			deps.Services.Listings,
			deps.Services.Catalog,
			deps.Services.Media,
			deps.Services.MediaStore,
			deps.Logger,
		)

		listingGroup := api.Group("/listings")
		listingGroup.GET("", optionalAuth, listingHandler.List)
		listingGroup.GET("/:id", optionalAuth, listingHandler.Get)
		createHandlers := append(buildCreateListingMiddlewares(deps), listingHandler.Create)
		listingGroup.POST("", append([]gin.HandlerFunc{requireAuth}, createHandlers...)...)
		listingGroup.PATCH("/:id", requireAuth, listingHandler.Update)
		listingGroup.PUT("/:id/status", requireAuth, listingHandler.Transition)
		listingGroup.POST("/:id/views", listingHandler.RecordView)
		listingGroup.POST("/:id/images", requireAuth, listingHandler.AttachImages)
		listingGroup.DELETE("/:id/images/:ref", requireAuth, listingHandler.DetachImage)

		api.GET("/images/:ref", listingHandler.ServeImage)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return buildIPRateLimit(deps, "identity_login_ip", deps.Config.RateLimit.LoginMaxAttempts, time.Minute)
}

func buildRegisterMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return buildIPRateLimit(deps, "identity_register_ip", deps.Config.RateLimit.RegisterMaxAttempts, time.Minute)
}

func buildIPRateLimit(deps Dependencies, name string, limit int, fallbackWindow time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = fallbackWindow
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

// buildCreateListingMiddlewares throttles publications per identity over a
// rolling day, independent of the per-IP login window.
func buildCreateListingMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.CreateListingMaxPerDay
	if limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:   "listing_create_identity",
		Limit:  limit,
		Window: 24 * time.Hour,
		Identifier: func(c *gin.Context) (string, bool) {
			identity := middleware.CurrentIdentity(c)
			if identity == nil {
				return "", false
			}
			return identity.ID, true
		},
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
