package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
)

// CatalogService serves public catalog reads and administrador writes.
type CatalogService struct {
	store *repository.Store
	now   func() time.Time
}

func NewCatalogService(store *repository.Store) *CatalogService {
	return &CatalogService{store: store, now: time.Now}
}

// BookInput is the admin form for a book.  Price is the raw submitted
// value so that malformed amounts surface as field errors.
type BookInput struct {
	Title           string
	ISBN            string
	PublicationYear int
	Price           string
	AuthorID        uint64
	PublisherID     uint64
}

// EntryInput is the admin form for an author or a publisher.
type EntryInput struct {
	Name    string
	Country string
}

// BookPage is one page of search results.
type BookPage struct {
	Items    []*repository.BookRow `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// BookDetail is a book with its comments and average rating.
type BookDetail struct {
	*repository.BookRow
	Comments      []*repository.CommentRow `json:"comments"`
	AverageRating *float64                 `json:"average_rating"`
	RatingCount   int64                    `json:"rating_count"`
}

// AuthorDetail is an author with its books.
type AuthorDetail struct {
	*model.Author
	Books []*repository.BookRow `json:"books"`
}

// PublisherDetail is a publisher with its books.
type PublisherDetail struct {
	*model.Publisher
	Books []*repository.BookRow `json:"books"`
}

func requireCatalogManager(a Actor) error {
	if a.IsGuest() {
		return ErrUnauthenticated
	}
	if !CanManageCatalog(a) {
		return ErrForbidden
	}
	return nil
}

// SearchBooks pages through books matching text.
func (s *CatalogService) SearchBooks(ctx context.Context, text string, p repository.Page) (*BookPage, error) {
	items, total, err := s.store.Books.Search(ctx, repository.BookSearchQuery{Text: text, Page: p})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*repository.BookRow{}
	}
	return &BookPage{Items: items, Total: total, Page: p.Number, PageSize: p.Size}, nil
}

// GetBook returns a book with its comments.
func (s *CatalogService) GetBook(ctx context.Context, id uint64) (*BookDetail, error) {
	b, err := s.store.Books.GetRow(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("book")
	}
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*repository.CommentRow{}
	}
	d := &BookDetail{BookRow: b, Comments: comments}
	avg, n, ok, err := s.store.Comments.AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		d.AverageRating = &avg
		d.RatingCount = n
	}
	return d, nil
}

func (s *CatalogService) validateBook(in BookInput) (*model.Book, *ValidationError) {
	v := &ValidationError{}
	b := &model.Book{
		Title:           strings.TrimSpace(in.Title),
		ISBN:            strings.ReplaceAll(strings.TrimSpace(in.ISBN), "-", ""),
		PublicationYear: in.PublicationYear,
		AuthorID:        in.AuthorID,
		PublisherID:     in.PublisherID,
	}
	if b.Title == "" {
		v.Add("title", "is required")
	}
	if l := len(b.ISBN); l != 10 && l != 13 {
		v.Add("isbn", "must have 10 or 13 characters")
	}
	if maxYear := s.now().Year() + 1; b.PublicationYear < 1000 || b.PublicationYear > maxYear {
		v.Add("publication_year", "is out of range")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	switch {
	case err != nil:
		v.Add("price", "must be a decimal amount")
	case price.IsNegative():
		v.Add("price", "must not be negative")
	default:
		b.Price = price.Round(2)
	}
	return b, v
}

func checkRefs(ctx context.Context, tx *repository.Store, v *ValidationError, authorID, publisherID uint64) error {
	if _, err := tx.Authors.GetByID(ctx, authorID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		v.Add("author_id", "author does not exist")
	}
	if _, err := tx.Publishers.GetByID(ctx, publisherID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		v.Add("publisher_id", "publisher does not exist")
	}
	return nil
}

// CreateBook adds a book to the catalog.
func (s *CatalogService) CreateBook(ctx context.Context, a Actor, in BookInput) (*model.Book, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	b, v := s.validateBook(in)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := checkRefs(ctx, tx, v, b.AuthorID, b.PublisherID); err != nil {
			return err
		}
		if err := v.Err(); err != nil {
			return err
		}
		err := tx.Books.Create(ctx, b)
		if errors.Is(err, repository.ErrDuplicate) {
			return invalid("isbn", "is already in the catalog")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBook rewrites a book.  Lines already in carts or orders keep their
// own unit price.
func (s *CatalogService) UpdateBook(ctx context.Context, a Actor, id uint64, in BookInput) (*model.Book, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	b, v := s.validateBook(in)
	b.ID = id
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		cur, err := tx.Books.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("book")
		}
		if err != nil {
			return err
		}
		b.CreatedAt = cur.CreatedAt
		if err := checkRefs(ctx, tx, v, b.AuthorID, b.PublisherID); err != nil {
			return err
		}
		if err := v.Err(); err != nil {
			return err
		}
		err = tx.Books.Update(ctx, b)
		if errors.Is(err, repository.ErrDuplicate) {
			return invalid("isbn", "is already in the catalog")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook removes a book and its comments.  Books on any order line
// yield ErrConflict.
func (s *CatalogService) DeleteBook(ctx context.Context, a Actor, id uint64) error {
	if err := requireCatalogManager(a); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		return mapRepoErr(tx.Books.Delete(ctx, id), "book")
	})
}

func mapRepoErr(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(entity)
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	}
	return err
}

func (in EntryInput) validate() (EntryInput, error) {
	out := EntryInput{Name: strings.TrimSpace(in.Name), Country: strings.TrimSpace(in.Country)}
	v := &ValidationError{}
	if out.Name == "" {
		v.Add("name", "is required")
	}
	if out.Country == "" {
		v.Add("country", "is required")
	}
	return out, v.Err()
}

// ListAuthors returns every author.
func (s *CatalogService) ListAuthors(ctx context.Context) ([]*model.Author, error) {
	out, err := s.store.Authors.List(ctx)
	if out == nil {
		out = []*model.Author{}
	}
	return out, err
}

// GetAuthor returns an author with its books.
func (s *CatalogService) GetAuthor(ctx context.Context, id uint64) (*AuthorDetail, error) {
	a, err := s.store.Authors.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("author")
	}
	if err != nil {
		return nil, err
	}
	books, err := s.store.Books.ListByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*repository.BookRow{}
	}
	return &AuthorDetail{Author: a, Books: books}, nil
}

// CreateAuthor adds an author.
func (s *CatalogService) CreateAuthor(ctx context.Context, a Actor, in EntryInput) (*model.Author, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	au := &model.Author{Name: in.Name, Country: in.Country}
	if err := s.store.Authors.Create(ctx, au); err != nil {
		return nil, err
	}
	return au, nil
}

// UpdateAuthor renames an author.
func (s *CatalogService) UpdateAuthor(ctx context.Context, a Actor, id uint64, in EntryInput) (*model.Author, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	au := &model.Author{ID: id, Name: in.Name, Country: in.Country}
	if err := s.store.Authors.Update(ctx, au); err != nil {
		return nil, mapRepoErr(err, "author")
	}
	return s.store.Authors.GetByID(ctx, id)
}

// DeleteAuthor removes an author without books.
func (s *CatalogService) DeleteAuthor(ctx context.Context, a Actor, id uint64) error {
	if err := requireCatalogManager(a); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		return mapRepoErr(tx.Authors.Delete(ctx, id), "author")
	})
}

// ListPublishers returns every publisher.
func (s *CatalogService) ListPublishers(ctx context.Context) ([]*model.Publisher, error) {
	out, err := s.store.Publishers.List(ctx)
	if out == nil {
		out = []*model.Publisher{}
	}
	return out, err
}

// GetPublisher returns a publisher with its books.
func (s *CatalogService) GetPublisher(ctx context.Context, id uint64) (*PublisherDetail, error) {
	p, err := s.store.Publishers.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("publisher")
	}
	if err != nil {
		return nil, err
	}
	books, err := s.store.Books.ListByPublisher(ctx, id)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*repository.BookRow{}
	}
	return &PublisherDetail{Publisher: p, Books: books}, nil
}

// CreatePublisher adds a publisher.
func (s *CatalogService) CreatePublisher(ctx context.Context, a Actor, in EntryInput) (*model.Publisher, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	p := &model.Publisher{Name: in.Name, Country: in.Country}
	if err := s.store.Publishers.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePublisher renames a publisher.
func (s *CatalogService) UpdatePublisher(ctx context.Context, a Actor, id uint64, in EntryInput) (*model.Publisher, error) {
	if err := requireCatalogManager(a); err != nil {
		return nil, err
	}
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	p := &model.Publisher{ID: id, Name: in.Name, Country: in.Country}
	if err := s.store.Publishers.Update(ctx, p); err != nil {
		return nil, mapRepoErr(err, "publisher")
	}
	return s.store.Publishers.GetByID(ctx, id)
}

// DeletePublisher removes a publisher without books.
func (s *CatalogService) DeletePublisher(ctx context.Context, a Actor, id uint64) error {
	if err := requireCatalogManager(a); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		return mapRepoErr(tx.Publishers.Delete(ctx, id), "publisher")
	})
}
