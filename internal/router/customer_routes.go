package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/middleware"
)

// RegisterCustomer registers the routes of any logged-in user: the cart,
// checkout, order history and the comment ledger.  Guests are redirected
// to the login page.
func RegisterCustomer(e *echo.Echo, h Handlers, d Deps) {
	g := e.Group("/v1", middleware.JWTAuth(d.JWTSecret, d.LoginPath))

	g.GET("/cart", h.Cart.View)
	g.DELETE("/cart", h.Cart.Clear)
	g.POST("/cart/items", h.Cart.AddItem)
	g.PATCH("/cart/items/:id", h.Cart.UpdateItem)
	g.DELETE("/cart/items/:id", h.Cart.RemoveItem)
	g.POST("/cart/checkout", h.Cart.Checkout)

	g.GET("/orders", h.Orders.ListMine)
	g.GET("/orders/:id", h.Orders.Get)

	g.POST("/books/:id/comments", h.Comments.Post)
	g.GET("/comments/:id/edit", h.Comments.EditForm)
	g.PUT("/comments/:id", h.Comments.Update)
	g.PATCH("/comments/:id", h.Comments.Update)
	g.DELETE("/comments/:id", h.Comments.Delete)
}
