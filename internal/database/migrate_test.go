package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatementsMatchAcrossDialects(t *testing.T) {
	my, err := Statements(MySQL)
	require.NoError(t, err)
	lite, err := Statements(SQLite)
	require.NoError(t, err)
	assert.Len(t, lite, len(my))

	_, err = Statements("postgres")
	assert.Error(t, err)
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, SQLite, zap.NewNop()))
	require.NoError(t, Migrate(ctx, db, SQLite, zap.NewNop()))

	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('orders','order_lines','comments')").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestDSN(t *testing.T) {
	dsn := MySQLConfig{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "bookstore"}.DSN()
	assert.Equal(t, "app:pw@tcp(db:3306)/bookstore?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true", dsn)
	assert.Contains(t, MySQLConfig{User: "app", Host: "db", Port: "3306", Name: "x"}.DSN(), "app@tcp(")
}
