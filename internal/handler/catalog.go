package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore/internal/service"
)

// CatalogHandler serves the public catalog and its admin maintenance.
type CatalogHandler struct {
	Base
	catalog *service.CatalogService
}

func NewCatalogHandler(b Base, catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Base: b, catalog: catalog}
}

type bookReq struct {
	Title           string      `json:"title" form:"title"`
	ISBN            string      `json:"isbn" form:"isbn"`
	PublicationYear int         `json:"publication_year" form:"publication_year"`
	Price           looseString `json:"price" form:"price"`
	AuthorID        uint64      `json:"author_id" form:"author_id"`
	PublisherID     uint64      `json:"publisher_id" form:"publisher_id"`
}

func (r bookReq) input() service.BookInput {
	return service.BookInput{
		Title:           r.Title,
		ISBN:            r.ISBN,
		PublicationYear: r.PublicationYear,
		Price:           string(r.Price),
		AuthorID:        r.AuthorID,
		PublisherID:     r.PublisherID,
	}
}

type entryReq struct {
	Name    string `json:"name" form:"name"`
	Country string `json:"country" form:"country"`
}

// SearchBooks handles GET /v1/books?q=&page=&page_size=.
func (h *CatalogHandler) SearchBooks(c echo.Context) error {
	res, err := h.catalog.SearchBooks(c.Request().Context(), c.QueryParam("q"), page(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetBook returns a book with its comments and any pending flash message.
func (h *CatalogHandler) GetBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.catalog.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"book": d, "flash": h.Flash.Pop(c)})
}

func (h *CatalogHandler) ListAuthors(c echo.Context) error {
	items, err := h.catalog.ListAuthors(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) GetAuthor(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.catalog.GetAuthor(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CatalogHandler) ListPublishers(c echo.Context) error {
	items, err := h.catalog.ListPublishers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) GetPublisher(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	d, err := h.catalog.GetPublisher(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CatalogHandler) CreateBook(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.catalog.CreateBook(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *CatalogHandler) UpdateBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	b, err := h.catalog.UpdateBook(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *CatalogHandler) DeleteBook(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.catalog.DeleteBook(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateAuthor(c echo.Context) error {
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	a, err := h.catalog.CreateAuthor(c.Request().Context(), actor(c), service.EntryInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *CatalogHandler) UpdateAuthor(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	a, err := h.catalog.UpdateAuthor(c.Request().Context(), actor(c), id, service.EntryInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHandler) DeleteAuthor(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.catalog.DeleteAuthor(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreatePublisher(c echo.Context) error {
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.catalog.CreatePublisher(c.Request().Context(), actor(c), service.EntryInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdatePublisher(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.catalog.UpdatePublisher(c.Request().Context(), actor(c), id, service.EntryInput(req))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) DeletePublisher(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.catalog.DeletePublisher(c.Request().Context(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
