// Package router assembles the echo instance: global middleware and the
// route groups for guests, customers and administrators.
package router

import (
	"database/sql"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/config"
	"github.com/iliyamo/bookstore/internal/handler"
	"github.com/iliyamo/bookstore/internal/middleware"
)

// Deps are the cross-cutting collaborators of the HTTP layer.  Redis may be
// nil, which disables the rate limiter and the response cache.
type Deps struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	JWTSecret string
	LoginPath string
	Log       *zap.Logger
}

// Handlers bundles one handler per area.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Cart      *handler.CartHandler
	Orders    *handler.OrderHandler
	Comments  *handler.CommentHandler
	Customers *handler.CustomerHandler
}

// New returns an echo instance with every route registered.
func New(d Deps, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echo.WrapMiddleware(d.Sessions.LoadAndSave))
	e.Use(middleware.OptionalAuth(d.JWTSecret))
	e.Use(middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, h.Auth, d)
	RegisterPublic(e, h.Catalog, d)
	RegisterCustomer(e, h, d)
	RegisterAdmin(e, h, d)
	return e
}

// RegisterRoutes registers the unauthenticated infrastructure endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	g := e.Group("/v1/auth")
	g.GET("/login", a.LoginPage)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// logout works with a refresh token alone
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(d.JWTSecret, d.LoginPath))
}

// RegisterPublic registers the catalog pages guests may browse.  Listings
// are served through the redis response cache; book pages are not since
// they carry flash messages.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, d Deps) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	e.GET("/v1/books", c.SearchBooks, cache)
	e.GET("/v1/books/:id", c.GetBook)
	e.GET("/v1/authors", c.ListAuthors, cache)
	e.GET("/v1/authors/:id", c.GetAuthor, cache)
	e.GET("/v1/publishers", c.ListPublishers, cache)
	e.GET("/v1/publishers/:id", c.GetPublisher, cache)
}
