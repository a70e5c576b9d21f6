package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bookstore/internal/model"
)

// BookRepo encapsulates queries on the books table.
type BookRepo struct{ db DBTX }

func NewBookRepo(db DBTX) *BookRepo { return &BookRepo{db: db} }

// BookRow is a book joined with the names of its author and publisher,
// as shown in listings.
type BookRow struct {
	model.Book
	AuthorName    string `json:"author_name"`
	PublisherName string `json:"publisher_name"`
}

// BookSearchQuery filters and paginates the public catalog.
type BookSearchQuery struct {
	Text string // matched against title, ISBN and author name
	Page Page
}

const bookRowSelect = `SELECT b.id, b.title, b.isbn, b.publication_year, b.price, b.author_id, b.publisher_id,
	b.created_at, b.updated_at, a.name, p.name
	FROM books b
	JOIN authors a    ON a.id = b.author_id
	JOIN publishers p ON p.id = b.publisher_id`

func scanBookRow(s rowScanner) (*BookRow, error) {
	var b BookRow
	err := s.Scan(&b.ID, &b.Title, &b.ISBN, &b.PublicationYear, &b.Price, &b.AuthorID, &b.PublisherID,
		&b.CreatedAt, &b.UpdatedAt, &b.AuthorName, &b.PublisherName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookRows(rows *sql.Rows) ([]*BookRow, error) {
	defer rows.Close()
	var out []*BookRow
	for rows.Next() {
		b, err := scanBookRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts b.  A taken ISBN yields ErrDuplicate.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO books (title, isbn, publication_year, price, author_id, publisher_id, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.Title, b.ISBN, b.PublicationYear, b.Price, b.AuthorID, b.PublisherID, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// GetByID returns the bare book row.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (*model.Book, error) {
	var b model.Book
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, isbn, publication_year, price, author_id, publisher_id, created_at, updated_at
		 FROM books WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.ISBN, &b.PublicationYear, &b.Price, &b.AuthorID, &b.PublisherID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetRow returns the book together with author and publisher names.
func (r *BookRepo) GetRow(ctx context.Context, id uint64) (*BookRow, error) {
	b, err := scanBookRow(r.db.QueryRowContext(ctx, bookRowSelect+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// Search returns one page of books matching q ordered by title, plus the
// total number of matches.
func (r *BookRepo) Search(ctx context.Context, q BookSearchQuery) ([]*BookRow, int64, error) {
	cond := "1=1"
	var args []any
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		cond = "(LOWER(b.title) LIKE ? OR LOWER(b.isbn) LIKE ? OR LOWER(a.name) LIKE ?)"
		like := "%" + text + "%"
		args = append(args, like, like, like)
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM books b JOIN authors a ON a.id = b.author_id WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		bookRowSelect+" WHERE "+cond+" ORDER BY b.title, b.id LIMIT ? OFFSET ?",
		append(args, q.Page.Size, q.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectBookRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByAuthor returns every book of an author ordered by title.
func (r *BookRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]*BookRow, error) {
	rows, err := r.db.QueryContext(ctx, bookRowSelect+" WHERE b.author_id = ? ORDER BY b.title, b.id", authorID)
	if err != nil {
		return nil, err
	}
	return collectBookRows(rows)
}

// ListByPublisher returns every book of a publisher ordered by title.
func (r *BookRepo) ListByPublisher(ctx context.Context, publisherID uint64) ([]*BookRow, error) {
	rows, err := r.db.QueryContext(ctx, bookRowSelect+" WHERE b.publisher_id = ? ORDER BY b.title, b.id", publisherID)
	if err != nil {
		return nil, err
	}
	return collectBookRows(rows)
}

// Update overwrites every editable column of b.  Existing order lines keep
// their own unit price, so a price change never reaches them.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET title = ?, isbn = ?, publication_year = ?, price = ?, author_id = ?, publisher_id = ?, updated_at = ?
		 WHERE id = ?`,
		b.Title, b.ISBN, b.PublicationYear, b.Price, b.AuthorID, b.PublisherID, now, b.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	b.UpdatedAt = now
	return nil
}

// Delete removes a book and its comments.  It returns ErrConflict while any
// order line references the book.  Call it inside a transaction.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM order_lines WHERE book_id = ?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE book_id = ?", id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
