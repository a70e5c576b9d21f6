package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/service"
)

// OrderHandler serves order history to customers and order management to
// administrators.
type OrderHandler struct {
	Base
	orders *service.OrderService
}

func NewOrderHandler(b Base, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Base: b, orders: orders}
}

type statusReq struct {
	Status string `json:"status" form:"status"`
}

// ListMine handles GET /v1/orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	items, err := h.orders.ListMine(c.Request().Context(), actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/orders/:id and GET /v1/admin/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.orders.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":   d.Order,
		"lines":   lineViews(d.Lines),
		"total":   d.Total,
		"history": d.History,
		"flash":   h.Flash.Pop(c),
	})
}

// List handles GET /v1/admin/orders?status=&page=&page_size=.
func (h *OrderHandler) List(c echo.Context) error {
	res, err := h.orders.List(c.Request().Context(), actor(c), c.QueryParam("status"), page(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Complete handles POST /v1/admin/orders/:id/complete.
func (h *OrderHandler) Complete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	o, err := h.orders.MarkCompleted(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// OverrideStatus handles PUT /v1/admin/orders/:id/status.
func (h *OrderHandler) OverrideStatus(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	o, err := h.orders.AdminOverrideStatus(c.Request().Context(), actor(c), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Delete handles DELETE /v1/admin/orders/:id.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.orders.Delete(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
