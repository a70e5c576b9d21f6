package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/service"
	"github.com/iliyamo/bookstore/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddItemTotalsQuantityTimesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)

	cases := []struct {
		price string
		qty   int
		want  string
	}{
		{"20.00", 2, "40"},
		{"9.99", 3, "29.97"},
		{"0.00", 5, "0"},
		{"105.50", 1, "105.5"},
	}
	for _, tc := range cases {
		require.NoError(t, f.cart.Clear(ctx, u))
		b := testutil.CreateBook(t, f.db, "Libro "+tc.price, tc.price)
		_, err := f.cart.AddItem(ctx, u, b.ID, tc.qty)
		require.NoError(t, err)

		total, err := f.cart.Total(ctx, u)
		require.NoError(t, err)
		assert.True(t, dec(tc.want).Equal(total), "price %s x %d: got %s", tc.price, tc.qty, total)
	}
}

func TestAddItemTwiceSumsQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)
	b := testutil.CreateBook(t, f.db, "Rayuela", "15.00")

	first, err := f.cart.AddItem(ctx, u, b.ID, 1)
	require.NoError(t, err)
	testutil.SetBookPrice(t, f.db, b.ID, "18.00")
	second, err := f.cart.AddItem(ctx, u, b.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	cart, err := f.cart.View(ctx, u)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.True(t, dec("15").Equal(cart.Lines[0].UnitPrice))
	assert.True(t, dec("45").Equal(cart.Total))
	assert.Equal(t, "Rayuela", cart.Lines[0].BookTitle)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)
	b := testutil.CreateBook(t, f.db, "Rayuela", "15.00")

	for _, q := range []int{0, -1} {
		_, err := f.cart.AddItem(ctx, u, b.ID, q)
		var ve *service.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "quantity")
	}

	_, err := f.cart.AddItem(ctx, u, 9999, 1)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "book_id")

	_, err = f.cart.AddItem(ctx, service.Guest(), b.ID, 1)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	assert.Equal(t, 0, testutil.Count(t, f.db, "orders", ""))
}

func TestAddItemQuantityCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)
	b := testutil.CreateBook(t, f.db, "Rayuela", "15.00")

	_, err := f.cart.AddItem(ctx, u, b.ID, math.MaxInt)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")
	assert.Equal(t, 0, testutil.Count(t, f.db, "orders", ""))

	line, err := f.cart.AddItem(ctx, u, b.ID, model.MaxQuantity)
	require.NoError(t, err)

	_, err = f.cart.AddItem(ctx, u, b.ID, 1)
	ve = nil
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")

	_, err = f.cart.UpdateQuantity(ctx, u, line.ID, model.MaxQuantity+1)
	require.ErrorAs(t, err, &ve)

	cart, err := f.cart.View(ctx, u)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, model.MaxQuantity, cart.Lines[0].Quantity)
}

func TestUpdateAndRemoveLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)
	other := f.actor(t, "beto", model.RoleCustomer)
	admin := f.actor(t, "root", model.RoleAdministrator)
	b1 := testutil.CreateBook(t, f.db, "Uno", "10.00")
	b2 := testutil.CreateBook(t, f.db, "Dos", "5.00")

	l1, err := f.cart.AddItem(ctx, u, b1.ID, 1)
	require.NoError(t, err)
	l2, err := f.cart.AddItem(ctx, u, b2.ID, 1)
	require.NoError(t, err)

	_, err = f.cart.UpdateQuantity(ctx, u, l1.ID, 4)
	require.NoError(t, err)
	total, err := f.cart.Total(ctx, u)
	require.NoError(t, err)
	assert.True(t, dec("45").Equal(total))

	_, err = f.cart.UpdateQuantity(ctx, u, l1.ID, 0)
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.cart.UpdateQuantity(ctx, other, l1.ID, 2)
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, f.cart.RemoveItem(ctx, admin, l1.ID), service.ErrForbidden)
	assert.ErrorIs(t, f.cart.RemoveItem(ctx, u, 9999), service.ErrNotFound)

	require.NoError(t, f.cart.RemoveItem(ctx, u, l1.ID))
	assert.Equal(t, 1, testutil.Count(t, f.db, "orders", ""))
	require.NoError(t, f.cart.RemoveItem(ctx, u, l2.ID))
	assert.Equal(t, 0, testutil.Count(t, f.db, "orders", ""))

	cart, err := f.cart.View(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}

func TestLinesFrozenAfterCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.actor(t, "ana", model.RoleCustomer)
	b := testutil.CreateBook(t, f.db, "Uno", "10.00")

	l, err := f.cart.AddItem(ctx, u, b.ID, 1)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, u)
	require.NoError(t, err)

	_, err = f.cart.UpdateQuantity(ctx, u, l.ID, 3)
	assert.ErrorIs(t, err, service.ErrOrderLocked)
	assert.ErrorIs(t, f.cart.RemoveItem(ctx, u, l.ID), service.ErrOrderLocked)

	// a new cart starts independently of the placed order
	l2, err := f.cart.AddItem(ctx, u, b.ID, 2)
	require.NoError(t, err)
	assert.NotEqual(t, l.OrderID, l2.OrderID)
}
