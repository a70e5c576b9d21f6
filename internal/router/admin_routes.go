package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/middleware"
)

// RegisterAdmin registers the administrador back office under /v1/admin.
// Catalog writes purge the response cache once they succeed.
func RegisterAdmin(e *echo.Echo, h Handlers, d Deps) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret, d.LoginPath),
		middleware.RequireAdmin(),
	)

	catalog := g.Group("", middleware.PurgeOnWrite(d.Cache, d.Redis, d.Log))
	catalog.POST("/books", h.Catalog.CreateBook)
	catalog.PUT("/books/:id", h.Catalog.UpdateBook)
	catalog.DELETE("/books/:id", h.Catalog.DeleteBook)
	catalog.POST("/authors", h.Catalog.CreateAuthor)
	catalog.PUT("/authors/:id", h.Catalog.UpdateAuthor)
	catalog.DELETE("/authors/:id", h.Catalog.DeleteAuthor)
	catalog.POST("/publishers", h.Catalog.CreatePublisher)
	catalog.PUT("/publishers/:id", h.Catalog.UpdatePublisher)
	catalog.DELETE("/publishers/:id", h.Catalog.DeletePublisher)

	g.GET("/orders", h.Orders.List)
	g.GET("/orders/:id", h.Orders.Get)
	g.POST("/orders/:id/complete", h.Orders.Complete)
	g.PUT("/orders/:id/status", h.Orders.OverrideStatus)
	g.DELETE("/orders/:id", h.Orders.Delete)

	g.GET("/comments", h.Comments.List)

	g.GET("/customers", h.Customers.List)
	g.GET("/customers/:id", h.Customers.Get)
	g.DELETE("/customers/:id", h.Customers.Delete)
}
