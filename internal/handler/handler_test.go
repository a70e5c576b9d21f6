package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/service"
)

func TestLooseStringJSON(t *testing.T) {
	cases := map[string]string{
		`{"rating":4}`:       "4",
		`{"rating":"4"}`:     "4",
		`{"rating":4.5}`:     "4.5",
		`{"rating":null}`:    "",
		`{}`:                 "",
		`{"rating":"abc"}`:   "abc",
		`{"rating":true}`:    "true",
		`{"rating":[5]}`:     "[5]",
		`{"rating":{"v":5}}`: `{"v":5}`,
	}
	for in, want := range cases {
		var req commentReq
		require.NoError(t, json.Unmarshal([]byte(in), &req), in)
		assert.Equal(t, want, string(req.Rating), in)
	}
}

func TestFailMapsServiceErrors(t *testing.T) {
	sm := NewSessionManager(time.Hour, false)
	b := &Base{Flash: NewFlash(sm), Log: zap.NewNop(), LoginPath: "/login"}

	cases := []struct {
		err      error
		status   int
		location string
	}{
		{&service.ValidationError{Fields: map[string]string{"text": "is required"}}, http.StatusUnprocessableEntity, ""},
		{service.ErrUnauthenticated, http.StatusFound, "/login"},
		{service.ErrForbidden, http.StatusForbidden, ""},
		{fmt.Errorf("book: %w", service.ErrNotFound), http.StatusNotFound, ""},
		{service.ErrEmptyCart, http.StatusSeeOther, "/v1/cart"},
		{service.ErrOrderLocked, http.StatusConflict, ""},
		{service.ErrInvalidTransition, http.StatusConflict, ""},
		{service.ErrConflict, http.StatusConflict, ""},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h := echo.WrapMiddleware(sm.LoadAndSave)(func(c echo.Context) error { return b.fail(c, tc.err) })
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		require.NoError(t, h(c))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.location, rec.Header().Get(echo.HeaderLocation), tc.err.Error())
	}
}
