package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("s3cret", 42, model.RoleAdministrator, time.Minute)
	require.NoError(t, err)

	id, role, err := ParseAccessToken("s3cret", at.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, model.RoleAdministrator, role)

	_, _, err = ParseAccessToken("other", at.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	at, err := NewAccessToken("s3cret", 1, model.RoleCustomer, -time.Minute)
	require.NoError(t, err)
	_, _, err = ParseAccessToken("s3cret", at.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter2hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter2hunter2"))
	assert.False(t, VerifyPassword(h, "wrong"))

	_, err = HashPassword("x", 99)
	assert.Error(t, err)
}
