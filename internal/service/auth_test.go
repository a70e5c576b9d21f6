package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/service"
	"github.com/iliyamo/bookstore/internal/testutil"
	"github.com/iliyamo/bookstore/internal/utils"
)

const testSecret = "test-secret"

func newAuth(f *fixture) *service.AuthService {
	return service.NewAuthService(f.store, service.AuthConfig{
		JWTSecret:  testSecret,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	u, pair, err := auth.Register(ctx, service.RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.Equal(t, "ana@example.com", u.Email)

	id, role, err := utils.ParseAccessToken(testSecret, pair.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, model.RoleCustomer, role)

	_, _, err = auth.Register(ctx, service.RegisterInput{Name: "Otra", Email: "ana@example.com", Password: "longenough"})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")

	_, _, err = auth.Register(ctx, service.RegisterInput{Email: "nope", Password: "short"})
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nadie@example.com", "longenough")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	logged, _, err := auth.Login(ctx, "ANA@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	me, err := auth.Me(ctx, service.Actor{ID: u.ID, Role: u.Role})
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
	_, err = auth.Me(ctx, service.Guest())
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)

	u, err := auth.CreateAdmin(context.Background(), service.RegisterInput{Name: "Root", Email: "root@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdministrator, u.Role)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "ana", model.RoleCustomer)

	_, pair, err := auth.Login(ctx, u.Email, testutil.Password)
	require.NoError(t, err)

	access, err := auth.RefreshAccess(ctx, pair.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEmpty(t, access.Token)

	_, next, err := auth.Refresh(ctx, pair.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh.Raw, next.Refresh.Raw)

	_, _, err = auth.Refresh(ctx, pair.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	a := service.Actor{ID: u.ID, Role: u.Role}
	require.NoError(t, auth.Logout(ctx, a, ""))
	_, err = auth.RefreshAccess(ctx, next.Refresh.Raw)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	assert.ErrorIs(t, auth.Logout(ctx, service.Guest(), ""), service.ErrUnauthenticated)
}
