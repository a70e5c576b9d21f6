package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories, so
// the same repository can run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles every repository over one connection handle.
type Store struct {
	db *sql.DB

	Users      *UserRepo
	Tokens     *TokenRepo
	Authors    *AuthorRepo
	Publishers *PublisherRepo
	Books      *BookRepo
	Comments   *CommentRepo
	Orders     *OrderRepo
}

// NewStore wires all repositories to db.
func NewStore(db *sql.DB) *Store {
	s := bind(db)
	s.db = db
	return s
}

func bind(q DBTX) *Store {
	return &Store{
		Users:      NewUserRepo(q),
		Tokens:     NewTokenRepo(q),
		Authors:    NewAuthorRepo(q),
		Publishers: NewPublisherRepo(q),
		Books:      NewBookRepo(q),
		Comments:   NewCommentRepo(q),
		Orders:     NewOrderRepo(q),
	}
}

// DB exposes the pool, mainly for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a single transaction.  The Store passed to fn has
// every repository bound to the transaction; fn must not use the outer
// Store while it runs.  The transaction commits when fn returns nil and is
// rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// Page is a 1-based pagination window.
type Page struct {
	Number int
	Size   int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NewPage clamps raw page parameters to sane values.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the row offset of the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
