package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("administrador")
	require.NoError(t, err)
	assert.Equal(t, RoleAdministrator, r)

	r, err = ParseRole("CLIENTE")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.False(t, Role(0).Valid())
}

func TestRoleJSON(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Role: RoleAdministrator, PasswordHash: "secret"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"role":"administrador"`)
	assert.NotContains(t, string(b), "secret")

	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"role":"cliente"}`), &u))
	assert.Equal(t, RoleCustomer, u.Role)
}

func TestRatingInRange(t *testing.T) {
	v := func(i int) *int { return &i }
	assert.True(t, RatingInRange(nil))
	assert.True(t, RatingInRange(v(1)))
	assert.True(t, RatingInRange(v(5)))
	assert.False(t, RatingInRange(v(0)))
	assert.False(t, RatingInRange(v(6)))
}
