// Package testutil provides a migrated in-memory database and row fixtures
// for tests.  It talks SQL directly so any package can use it.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bookstore/internal/database"
	"github.com/iliyamo/bookstore/internal/model"
)

// Password is the plain-text password of every fixture user.
const Password = "secret-pass"

var seq atomic.Uint64

// NewDB returns a fresh migrated sqlite database closed at test end.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite, zap.NewNop()))
	return db
}

func insert(t *testing.T, db *sql.DB, query string, args ...any) uint64 {
	t.Helper()
	res, err := db.Exec(query, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// CreateUser inserts a user with role and password Password.
func CreateUser(t *testing.T, db *sql.DB, name string, role model.Role) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	email := fmt.Sprintf("%s.%d@example.com", name, seq.Add(1))
	id := insert(t, db,
		"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		name, email, string(hash), role.String(), now, now)
	return &model.User{ID: id, Name: name, Email: email, PasswordHash: string(hash), Role: role, CreatedAt: now, UpdatedAt: now}
}

// CreateAuthor inserts an author.
func CreateAuthor(t *testing.T, db *sql.DB, name string) *model.Author {
	t.Helper()
	now := time.Now().UTC()
	id := insert(t, db, "INSERT INTO authors (name, country, created_at, updated_at) VALUES (?,?,?,?)",
		name, "España", now, now)
	return &model.Author{ID: id, Name: name, Country: "España", CreatedAt: now, UpdatedAt: now}
}

// CreatePublisher inserts a publisher.
func CreatePublisher(t *testing.T, db *sql.DB, name string) *model.Publisher {
	t.Helper()
	now := time.Now().UTC()
	id := insert(t, db, "INSERT INTO publishers (name, country, created_at, updated_at) VALUES (?,?,?,?)",
		name, "México", now, now)
	return &model.Publisher{ID: id, Name: name, Country: "México", CreatedAt: now, UpdatedAt: now}
}

// CreateBook inserts a book priced at price, creating its author and
// publisher on the fly.
func CreateBook(t *testing.T, db *sql.DB, title, price string) *model.Book {
	t.Helper()
	a := CreateAuthor(t, db, "Autor de "+title)
	p := CreatePublisher(t, db, "Editorial de "+title)
	return CreateBookFor(t, db, title, price, a.ID, p.ID)
}

// CreateBookFor inserts a book for an existing author and publisher.
func CreateBookFor(t *testing.T, db *sql.DB, title, price string, authorID, publisherID uint64) *model.Book {
	t.Helper()
	now := time.Now().UTC()
	n := seq.Add(1)
	isbn := fmt.Sprintf("978%010d", n)
	d := decimal.RequireFromString(price)
	id := insert(t, db,
		`INSERT INTO books (title, isbn, publication_year, price, author_id, publisher_id, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		title, isbn, 2001, d, authorID, publisherID, now, now)
	return &model.Book{ID: id, Title: title, ISBN: isbn, PublicationYear: 2001, Price: d,
		AuthorID: authorID, PublisherID: publisherID, CreatedAt: now, UpdatedAt: now}
}

// SetBookPrice changes the list price of a book behind the services' back.
func SetBookPrice(t *testing.T, db *sql.DB, bookID uint64, price string) {
	t.Helper()
	_, err := db.Exec("UPDATE books SET price = ? WHERE id = ?", decimal.RequireFromString(price), bookID)
	require.NoError(t, err)
}

// CreateComment inserts a comment with an optional rating.
func CreateComment(t *testing.T, db *sql.DB, userID, bookID uint64, body string, rating *int) *model.Comment {
	t.Helper()
	now := time.Now().UTC()
	id := insert(t, db,
		"INSERT INTO comments (user_id, book_id, body, rating, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		userID, bookID, body, rating, now, now)
	return &model.Comment{ID: id, UserID: userID, BookID: bookID, Body: body, Rating: rating, CreatedAt: now, UpdatedAt: now}
}

// OrderStatus reads the stored status of an order.
func OrderStatus(t *testing.T, db *sql.DB, orderID uint64) model.OrderStatus {
	t.Helper()
	var s string
	require.NoError(t, db.QueryRow("SELECT status FROM orders WHERE id = ?", orderID).Scan(&s))
	return model.OrderStatus(s)
}

// Count returns SELECT COUNT(*) FROM table WHERE where.
func Count(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	require.NoError(t, db.QueryRow(q, args...).Scan(&n))
	return n
}

// IntPtr returns &v.
func IntPtr(v int) *int { return &v }
