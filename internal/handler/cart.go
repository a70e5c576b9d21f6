package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/service"
)

// CartHandler serves the actor's pending order and checkout.
type CartHandler struct {
	Base
	cart   *service.CartService
	orders *service.OrderService
}

func NewCartHandler(b Base, cart *service.CartService, orders *service.OrderService) *CartHandler {
	return &CartHandler{Base: b, cart: cart, orders: orders}
}

type lineView struct {
	repository.LineRow
	Subtotal decimal.Decimal `json:"subtotal"`
}

func lineViews(rows []repository.LineRow) []lineView {
	out := make([]lineView, len(rows))
	for i, r := range rows {
		out[i] = lineView{LineRow: r, Subtotal: r.Subtotal()}
	}
	return out
}

type addItemReq struct {
	BookID   uint64 `json:"book_id" form:"book_id"`
	Quantity int    `json:"quantity" form:"quantity"`
}

type quantityReq struct {
	Quantity int `json:"quantity" form:"quantity"`
}

// View handles GET /v1/cart.
func (h *CartHandler) View(c echo.Context) error {
	cart, err := h.cart.View(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": cart.OrderID,
		"lines":    lineViews(cart.Lines),
		"total":    cart.Total,
		"flash":    h.Flash.Pop(c),
	})
}

// AddItem handles POST /v1/cart/items.  A missing quantity means one.
func (h *CartHandler) AddItem(c echo.Context) error {
	req := addItemReq{Quantity: 1}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if _, err := h.cart.AddItem(c.Request().Context(), actor(c), req.BookID, req.Quantity); err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, "/v1/cart", "Libro añadido al carrito.")
}

// UpdateItem handles PATCH /v1/cart/items/:id.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if _, err := h.cart.UpdateQuantity(c.Request().Context(), actor(c), id, req.Quantity); err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, "/v1/cart", "Carrito actualizado.")
}

// RemoveItem handles DELETE /v1/cart/items/:id.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.cart.RemoveItem(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, "/v1/cart", "Libro eliminado del carrito.")
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cart.Clear(c.Request().Context(), actor(c)); err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, "/v1/cart", "Carrito vaciado.")
}

// Checkout handles POST /v1/cart/checkout.  An empty cart is sent back to
// the cart page with an error flash by fail.
func (h *CartHandler) Checkout(c echo.Context) error {
	o, err := h.orders.Checkout(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, "/v1/orders/"+strconv.FormatUint(o.ID, 10), "Pedido realizado.")
}
