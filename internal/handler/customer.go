package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/service"
)

// CustomerHandler is the back office for cliente accounts.
type CustomerHandler struct {
	Base
	customers *service.CustomerService
}

func NewCustomerHandler(b Base, customers *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{Base: b, customers: customers}
}

func (h *CustomerHandler) List(c echo.Context) error {
	res, err := h.customers.List(c.Request().Context(), actor(c), page(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CustomerHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.customers.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CustomerHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.customers.Delete(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
