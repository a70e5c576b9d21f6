package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bookstore/internal/model"
)

// CommentRepo encapsulates queries on the comments table.
type CommentRepo struct{ db DBTX }

func NewCommentRepo(db DBTX) *CommentRepo { return &CommentRepo{db: db} }

// CommentRow is a comment with the display name of its author and the
// title of the book it belongs to.
type CommentRow struct {
	model.Comment
	UserName  string `json:"user_name"`
	BookTitle string `json:"book_title"`
}

const commentRowSelect = `SELECT c.id, c.user_id, c.book_id, c.body, c.rating, c.created_at, c.updated_at, u.name, b.title
	FROM comments c
	JOIN users u ON u.id = c.user_id
	JOIN books b ON b.id = c.book_id`

func scanComment(s rowScanner, extra ...any) (*model.Comment, error) {
	var (
		c      model.Comment
		rating sql.NullInt64
	)
	dest := append([]any{&c.ID, &c.UserID, &c.BookID, &c.Body, &rating, &c.CreatedAt, &c.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		c.Rating = &v
	}
	return &c, nil
}

func collectCommentRows(rows *sql.Rows) ([]*CommentRow, error) {
	defer rows.Close()
	var out []*CommentRow
	for rows.Next() {
		var row CommentRow
		c, err := scanComment(rows, &row.UserName, &row.BookTitle)
		if err != nil {
			return nil, err
		}
		row.Comment = *c
		out = append(out, &row)
	}
	return out, rows.Err()
}

// Create inserts c and fills its ID and timestamps.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (user_id, book_id, body, rating, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		c.UserID, c.BookID, c.Body, c.Rating, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// GetByID returns ErrNotFound for unknown ids.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx,
		"SELECT id, user_id, book_id, body, rating, created_at, updated_at FROM comments WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListByBook returns the comments of a book, newest first.
func (r *CommentRepo) ListByBook(ctx context.Context, bookID uint64) ([]*CommentRow, error) {
	rows, err := r.db.QueryContext(ctx,
		commentRowSelect+" WHERE c.book_id = ? ORDER BY c.created_at DESC, c.id DESC", bookID)
	if err != nil {
		return nil, err
	}
	return collectCommentRows(rows)
}

// List returns one page of all comments, newest first, for moderation.
func (r *CommentRepo) List(ctx context.Context, p Page) ([]*CommentRow, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		commentRowSelect+" ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?", p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := collectCommentRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AverageRating averages the non-null ratings of a book.  ok is false when
// no comment carries a rating.
func (r *CommentRepo) AverageRating(ctx context.Context, bookID uint64) (avg float64, count int64, ok bool, err error) {
	var a sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(rating) FROM comments WHERE book_id = ? AND rating IS NOT NULL", bookID).
		Scan(&a, &count)
	if err != nil {
		return 0, 0, false, err
	}
	return a.Float64, count, a.Valid, nil
}

// Update overwrites body and rating.
func (r *CommentRepo) Update(ctx context.Context, c *model.Comment) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET body = ?, rating = ?, updated_at = ? WHERE id = ?",
		c.Body, c.Rating, now, c.ID)
	if err != nil {
		return err
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

// Delete removes one comment.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// DeleteByUser removes every comment written by a user.
func (r *CommentRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE user_id = ?", userID)
	return err
}
