package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/middleware"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/service"
)

// Base holds what every handler needs besides its service.
type Base struct {
	Flash     *Flash
	Log       *zap.Logger
	LoginPath string
}

// fail maps a service error to its HTTP answer.
func (b *Base) fail(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": ve.Fields})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.Redirect(http.StatusFound, b.LoginPath)
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart):
		b.Flash.Error(c, "Tu carrito está vacío.")
		return c.Redirect(http.StatusSeeOther, "/v1/cart")
	case errors.Is(err, service.ErrOrderLocked),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}
	b.Log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func actor(c echo.Context) service.Actor { return middleware.ActorFrom(c) }

func paramID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func page(c echo.Context) repository.Page {
	n, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return repository.NewPage(n, size)
}

// looseString binds from any JSON value or a form field.  It keeps the raw
// text so that validation reports malformed input per field.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	// numbers, booleans and composites are kept verbatim for the validator
	*s = looseString(b)
	return nil
}

func (s *looseString) UnmarshalParam(v string) error {
	*s = looseString(v)
	return nil
}
