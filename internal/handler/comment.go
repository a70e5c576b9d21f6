package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/service"
)

// CommentHandler serves the comment ledger.
type CommentHandler struct {
	Base
	comments *service.CommentService
}

func NewCommentHandler(b Base, comments *service.CommentService) *CommentHandler {
	return &CommentHandler{Base: b, comments: comments}
}

type commentReq struct {
	Text   string      `json:"text" form:"text"`
	Rating looseString `json:"rating" form:"rating"`
}

func (r commentReq) input() service.CommentInput {
	return service.CommentInput{Text: r.Text, Rating: string(r.Rating)}
}

func bookPath(id uint64) string { return "/v1/books/" + strconv.FormatUint(id, 10) }

// Post handles POST /v1/books/:id/comments.
func (h *CommentHandler) Post(c echo.Context) error {
	bookID, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if _, err := h.comments.Post(c.Request().Context(), actor(c), bookID, req.input()); err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, bookPath(bookID), "Comentario publicado.")
}

// EditForm handles GET /v1/comments/:id/edit.  Unlike the mutations, a
// refusal here is a redirect to the book with an error flash.
func (h *CommentHandler) EditForm(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	cm, err := h.comments.EditForm(c.Request().Context(), actor(c), id)
	if errors.Is(err, service.ErrForbidden) && cm != nil {
		h.Flash.Error(c, FlashForbiddenEdit)
		return c.Redirect(http.StatusFound, bookPath(cm.BookID))
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"comment": cm, "flash": h.Flash.Pop(c)})
}

// Update handles PUT and PATCH /v1/comments/:id.
func (h *CommentHandler) Update(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	cm, err := h.comments.Update(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, bookPath(cm.BookID), "Comentario actualizado.")
}

// Delete handles DELETE /v1/comments/:id.
func (h *CommentHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	cm, err := h.comments.Delete(c.Request().Context(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirectWith(c, bookPath(cm.BookID), "Comentario eliminado.")
}

// List handles GET /v1/admin/comments.
func (h *CommentHandler) List(c echo.Context) error {
	res, err := h.comments.List(c.Request().Context(), actor(c), page(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
