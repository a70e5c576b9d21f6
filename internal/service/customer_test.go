package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/service"
	"github.com/iliyamo/bookstore/internal/testutil"
)

func TestCustomerBackOffice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.actor(t, "root", model.RoleAdministrator)
	buyer := f.actor(t, "ana", model.RoleCustomer)
	browser := f.actor(t, "beto", model.RoleCustomer)
	b := testutil.CreateBook(t, f.db, "Rayuela", "18.00")

	_, err := f.cart.AddItem(ctx, buyer, b.ID, 1)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, buyer)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, browser, b.ID, 2)
	require.NoError(t, err)
	testutil.CreateComment(t, f.db, browser.ID, b.ID, "hola", nil)

	page, err := f.users.List(ctx, admin, repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	_, err = f.users.List(ctx, buyer, repository.NewPage(1, 10))
	assert.ErrorIs(t, err, service.ErrForbidden)

	d, err := f.users.Get(ctx, admin, buyer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Orders)
	assert.EqualValues(t, 1, d.PlacedOrders)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, buyer.ID), service.ErrConflict)
	assert.ErrorIs(t, f.users.Delete(ctx, admin, admin.ID), service.ErrConflict)
	assert.ErrorIs(t, f.users.Delete(ctx, admin, 9999), service.ErrNotFound)

	other := f.actor(t, "raiz", model.RoleAdministrator)
	assert.ErrorIs(t, f.users.Delete(ctx, admin, other.ID), service.ErrNotFound)
	_, err = f.users.Get(ctx, admin, other.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 1, testutil.Count(t, f.db, "users", "id = ?", other.ID))

	require.NoError(t, f.users.Delete(ctx, admin, browser.ID))
	assert.Equal(t, 0, testutil.Count(t, f.db, "users", "id = ?", browser.ID))
	assert.Equal(t, 0, testutil.Count(t, f.db, "orders", "cliente_id = ?", browser.ID))
	assert.Equal(t, 0, testutil.Count(t, f.db, "comments", "user_id = ?", browser.ID))
}
