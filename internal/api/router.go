// Package api wires together all HTTP routes for the console backend.
//
// Route grouping philosophy:
//   - Auth endpoints (/api/v1/auth/login, /callback, /logout) are public but
//     rate limited aggressively; they are the only unauthenticated surface.
//   - Everything else under /api/v1/ requires authentication. Organization
//     routes additionally resolve the member's role scopes, except the layout
//     endpoint, which runs its own access gate so it can answer with redirects
//     instead of bare 403s.
package api

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/schema-registry/console-backend/internal/api/console"
	"github.com/schema-registry/console-backend/internal/auth"
	"github.com/schema-registry/console-backend/internal/config"
	"github.com/schema-registry/console-backend/internal/db/repositories"
	"github.com/schema-registry/console-backend/internal/jobs"
	"github.com/schema-registry/console-backend/internal/middleware"
	"github.com/schema-registry/console-backend/internal/query"
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	refresher      *jobs.TargetCacheRefresher
	memoryLimiters []*middleware.MemoryLimiter
	redisClient    *redis.Client
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.refresher != nil {
		bg.refresher.Stop()
	}
	for _, l := range bg.memoryLimiters {
		l.Stop()
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewAccessTokenRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	targetRepo := repositories.NewTargetRepository(db)

	// With redis the query cache and the rate limit buckets are shared across
	// replicas; without it each replica runs alone with in-process fallbacks.
	var snapshotCache query.Cache = query.NewNoopCache()
	var authLimiter, generalLimiter middleware.Limiter
	if cfg.Redis.Enabled {
		bg.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapshotCache = query.NewRedisCache(bg.redisClient)
		limiter := middleware.NewRedisLimiter(bg.redisClient)
		authLimiter = limiter
		generalLimiter = limiter
		slog.Info("redis enabled for query cache and rate limiting", "addr", cfg.Redis.Addr)
	} else {
		authMem := middleware.NewMemoryLimiter()
		generalMem := middleware.NewMemoryLimiter()
		bg.memoryLimiters = []*middleware.MemoryLimiter{authMem, generalMem}
		authLimiter = authMem
		generalLimiter = generalMem
	}

	cacheTTL := cfg.Console.TargetCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	executor := query.NewExecutor(snapshotCache, cacheTTL)

	// Background snapshot refresher for recently viewed projects
	refreshInterval := cfg.Console.CacheRefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}
	refresher := jobs.NewTargetCacheRefresher(executor, orgRepo, projectRepo, targetRepo, refreshInterval)
	refresher.Start(context.Background())
	bg.refresher = refresher
	slog.Info("target cache refresher started", "interval", refreshInterval)

	// Handlers
	authHandlers, err := console.NewAuthHandlers(cfg, userRepo)
	if err != nil {
		log.Fatalf("Failed to initialize auth handlers: %v", err)
	}
	layoutHandler := console.NewLayoutHandler(cfg, orgRepo, projectRepo, targetRepo, executor, refresher)
	resourceHandlers := console.NewResourceHandlers(orgRepo, projectRepo, targetRepo)
	tokenHandlers := console.NewTokenHandlers(tokenRepo)

	// Middleware chain
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, bg.redisClient))
	router.GET("/version", versionHandler())

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authLimiter, middleware.AuthRateLimitConfig()))
		{
			authGroup.GET("/login", authHandlers.LoginHandler())
			authGroup.GET("/callback", authHandlers.CallbackHandler())
			authGroup.GET("/logout", authHandlers.LogoutHandler())
		}

		// The layout endpoint gates access itself: missing resources and denied
		// actors get redirects, never bare 401/403s. Auth is optional so an
		// unauthenticated actor flows through the same gate as a non-member.
		layoutGroup := apiV1.Group("/layout")
		layoutGroup.Use(middleware.OptionalAuthMiddleware(userRepo, tokenRepo))
		layoutGroup.Use(middleware.RateLimitMiddleware(generalLimiter, middleware.DefaultRateLimitConfig()))
		{
			layoutGroup.GET("/:organization/:project/:target", layoutHandler.GetLayout)
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo, tokenRepo))
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalLimiter, middleware.DefaultRateLimitConfig()))
		{
			authenticatedGroup.GET("/auth/me", authHandlers.MeHandler())

			// Organization listing needs no org scope; it only returns the
			// caller's own memberships.
			authenticatedGroup.GET("/organizations", resourceHandlers.ListOrganizations)

			orgGroup := authenticatedGroup.Group("/organizations/:organization")
			{
				orgGroup.GET("",
					middleware.RequireOrgScope(auth.ScopeOrganizationsRead, orgRepo),
					resourceHandlers.GetOrganization)
				orgGroup.GET("/projects",
					middleware.RequireOrgScope(auth.ScopeProjectsRead, orgRepo),
					resourceHandlers.ListProjects)
				orgGroup.GET("/projects/:project",
					middleware.RequireOrgScope(auth.ScopeProjectsRead, orgRepo),
					resourceHandlers.GetProject)
				orgGroup.GET("/projects/:project/targets",
					middleware.RequireOrgScope(auth.ScopeProjectsRead, orgRepo),
					resourceHandlers.ListTargets)
				orgGroup.GET("/projects/:project/targets/:target/versions",
					middleware.RequireOrgScope(auth.ScopeRegistryRead, orgRepo),
					resourceHandlers.ListSchemaVersions)
				orgGroup.GET("/projects/:project/targets/:target/versions/latest",
					middleware.RequireOrgScope(auth.ScopeRegistryRead, orgRepo),
					resourceHandlers.GetLatestSchemaVersion)
			}

			// Access token self-service. Token-authenticated callers need the
			// tokens:manage scope to mint or revoke tokens; JWT sessions manage
			// their own tokens freely.
			tokensGroup := authenticatedGroup.Group("/tokens")
			tokensGroup.Use(middleware.RequireScope(auth.ScopeTokensManage))
			{
				tokensGroup.GET("", tokenHandlers.ListTokens)
				tokensGroup.POST("", tokenHandlers.CreateToken)
				tokensGroup.DELETE("/:id", tokenHandlers.DeleteToken)
			}
		}
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks redis when it is
// configured, so a readiness gate fails while the shared cache is unreachable.
func readinessHandler(db *sqlx.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ready":  false,
					"checks": checks,
					"error":  "redis not ready",
				})
				return
			}
			checks["redis"] = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging through slog
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID := c.GetString(middleware.RequestIDKey)

		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
