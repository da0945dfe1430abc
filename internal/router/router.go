// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/handler"
	"github.com/iliyamo/inventory-service/internal/middleware"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/service"
)

// Deps is everything the HTTP layer needs. Redis may be nil, which turns
// caching and rate limiting off.
type Deps struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Clock  clock.Clock
	Log    *zap.Logger
	Tokens *service.TokenService
	Events service.EventPublisher
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	users := repository.NewUserRepo(d.DB, d.Clock)
	categories := repository.NewCategoryRepo(d.DB, d.Clock)
	products := repository.NewProductRepo(d.DB, d.Clock)

	events := d.Events
	if events == nil {
		events = service.NoopPublisher{}
	}

	rl := middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log.Named("ratelimit"))
	cache := middleware.NewResponseCache(d.Config.Cache, d.Redis, d.Log.Named("cache"))
	jwt := middleware.JWTAuth(d.Tokens, users)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, handler.NewAuthHandler(users, d.Tokens, d.Config.BcryptCost), jwt, rl)
	RegisterCatalog(e,
		handler.NewCategoryHandler(categories, events, d.Clock, d.Log),
		handler.NewProductHandler(products, events, d.Clock, d.Log),
		CatalogMiddleware{
			Read:  []echo.MiddlewareFunc{jwt, rl, cache.Middleware()},
			Write: []echo.MiddlewareFunc{jwt, rl, middleware.RequireCatalogMutation(), cache.InvalidateOnWrite()},
		},
	)
	return e
}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/api/health", handler.Health(db))
}

// RegisterAuth registers the session endpoints. Register and login are
// public; logout and me need a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwt, rl echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, rl)
	g.POST("/login", a.Login, rl)
	g.POST("/logout", a.Logout, jwt, rl)
	g.GET("/me", a.Me, jwt, rl)
}

// CatalogMiddleware holds the chains applied to catalog reads and writes.
type CatalogMiddleware struct {
	Read  []echo.MiddlewareFunc
	Write []echo.MiddlewareFunc
}

// RegisterCatalog registers category and product routes. Writes pass the
// access policy before any body is read.
func RegisterCatalog(e *echo.Echo, cat *handler.CategoryHandler, prod *handler.ProductHandler, mw CatalogMiddleware) {
	api := e.Group("/api")

	api.GET("/categories", cat.List, mw.Read...)
	api.GET("/categories/:category", cat.Show, mw.Read...)
	api.POST("/categories", cat.Create, mw.Write...)

	api.GET("/products", prod.List, mw.Read...)
	api.GET("/products/:id", prod.Show, mw.Read...)
	api.POST("/products", prod.Create, mw.Write...)
	api.PUT("/products/:id", prod.Update, mw.Write...)
	api.PATCH("/products/:id", prod.Update, mw.Write...)
	api.DELETE("/products/:id", prod.Delete, mw.Write...)
}
