package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "worker", "create-admin"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("sqlite"))
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"create-admin", "--name", "Root"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
}

func TestCreateAdminOnSQLite(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080",
		"DB_USER": "u", "DB_HOST": "h", "DB_PORT": "3306", "DB_NAME": "n",
		"JWT_SECRET": "s", "ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "4",
	} {
		t.Setenv(k, v)
	}
	path := t.TempDir() + "/bookstore.db"

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--env-file", t.TempDir() + "/missing.env", "--sqlite", path,
		"create-admin", "--name", "Root", "--email", "root@example.com", "--password", "longenough"})
	require.NoError(t, cmd.Execute())
}
