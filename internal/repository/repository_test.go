package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/testutil"
)

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	ctx := context.Background()

	u := &model.User{Name: "Ana", Email: " Ana@Example.com ", PasswordHash: "x", Role: model.RoleCustomer}
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	err := users.Create(ctx, &model.User{Name: "Ana 2", Email: "ana@example.com", PasswordHash: "y", Role: model.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := users.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleCustomer, got.Role)

	_, err = users.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokenRepoLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "tok", model.RoleCustomer)
	tokens := repository.NewTokenRepo(db)
	ctx := context.Background()

	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, "h2", time.Now().Add(-time.Hour)))

	uid, err := tokens.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = tokens.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, tokens.RevokeByHash(ctx, "h1"))
	_, err = tokens.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuthorDeleteRefusedWhileReferenced(t *testing.T) {
	db := testutil.NewDB(t)
	b := testutil.CreateBook(t, db, "Rayuela", "18.00")
	authors := repository.NewAuthorRepo(db)
	ctx := context.Background()

	assert.ErrorIs(t, authors.Delete(ctx, b.AuthorID), repository.ErrConflict)

	lonely := testutil.CreateAuthor(t, db, "Sin libros")
	require.NoError(t, authors.Delete(ctx, lonely.ID))
	assert.ErrorIs(t, authors.Delete(ctx, lonely.ID), repository.ErrNotFound)
}

func TestBookSearchAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	cien := testutil.CreateBook(t, db, "Cien años de soledad", "20.00")
	testutil.CreateBook(t, db, "Pedro Páramo", "12.50")
	books := repository.NewBookRepo(db)

	rows, total, err := books.Search(ctx, repository.BookSearchQuery{Text: "cien", Page: repository.NewPage(1, 10)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, cien.ID, rows[0].ID)
	assert.True(t, decimal.RequireFromString("20").Equal(rows[0].Price))
	assert.Equal(t, "Autor de Cien años de soledad", rows[0].AuthorName)

	_, total, err = books.Search(ctx, repository.BookSearchQuery{Page: repository.NewPage(1, 1)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// a book on an order line cannot go
	u := testutil.CreateUser(t, db, "buyer", model.RoleCustomer)
	orders := repository.NewOrderRepo(db)
	o, err := orders.CreatePending(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, orders.InsertLine(ctx, &model.OrderLine{OrderID: o.ID, BookID: cien.ID, Quantity: 1, UnitPrice: cien.Price}))
	assert.ErrorIs(t, books.Delete(ctx, cien.ID), repository.ErrConflict)

	testutil.CreateComment(t, db, u.ID, cien.ID, "bueno", nil)
	require.NoError(t, orders.Delete(ctx, o.ID))
	require.NoError(t, books.Delete(ctx, cien.ID))
	assert.Equal(t, 0, testutil.Count(t, db, "comments", "book_id = ?", cien.ID))
}

func TestOrderRepoLinesAndState(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "cli", model.RoleCustomer)
	b := testutil.CreateBook(t, db, "Ficciones", "9.99")
	orders := repository.NewOrderRepo(db)

	o, err := orders.CreatePending(ctx, u.ID)
	require.NoError(t, err)

	l := &model.OrderLine{OrderID: o.ID, BookID: b.ID, Quantity: 2, UnitPrice: b.Price}
	require.NoError(t, orders.InsertLine(ctx, l))
	err = orders.InsertLine(ctx, &model.OrderLine{OrderID: o.ID, BookID: b.ID, Quantity: 1, UnitPrice: b.Price})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, orders.SetLineQuantity(ctx, l.ID, 3))
	lines, err := orders.Lines(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("9.99").Equal(lines[0].UnitPrice))

	pending, err := orders.GetPendingForCustomer(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, pending.ID)

	require.NoError(t, o.BeginCheckout(lines, time.Now()))
	require.NoError(t, orders.UpdateState(ctx, o, model.StatusPending))
	assert.ErrorIs(t, orders.UpdateState(ctx, o, model.StatusPending), repository.ErrStaleState)

	stored, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, stored.Status)
	require.True(t, stored.Total.Valid)
	assert.True(t, decimal.RequireFromString("29.97").Equal(stored.Total.Decimal))
	require.NotNil(t, stored.PlacedAt)

	_, err = orders.GetPendingForCustomer(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	total, placed, err := orders.CountByCustomer(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 1, placed)
}

func TestCommentAverageRating(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "lector", model.RoleCustomer)
	b := testutil.CreateBook(t, db, "Aura", "7.00")
	comments := repository.NewCommentRepo(db)

	_, _, ok, err := comments.AverageRating(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	testutil.CreateComment(t, db, u.ID, b.ID, "uno", testutil.IntPtr(4))
	testutil.CreateComment(t, db, u.ID, b.ID, "dos", testutil.IntPtr(5))
	testutil.CreateComment(t, db, u.ID, b.ID, "sin nota", nil)

	avg, n, ok, err := comments.AverageRating(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, n)
	assert.InDelta(t, 4.5, avg, 0.001)

	rows, err := comments.ListByBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "lector", rows[0].UserName)
}

func TestStoreWithTxRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "tx", model.RoleCustomer)

	err := store.WithTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Orders.CreatePending(ctx, u.ID); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, testutil.Count(t, db, "orders", ""))
}

func TestNewPageClamps(t *testing.T) {
	p := repository.NewPage(0, 1000)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 100, p.Size)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 40, repository.NewPage(3, 0).Offset())
}
