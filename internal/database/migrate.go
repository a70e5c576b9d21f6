package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Dialect selects the schema flavour.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

var (
	//go:embed schema_mysql.sql
	mysqlSchema string
	//go:embed schema_sqlite.sql
	sqliteSchema string
)

// Statements splits the embedded schema of d into single statements.
func Statements(d Dialect) ([]string, error) {
	var src string
	switch d {
	case MySQL:
		src = mysqlSchema
	case SQLite:
		src = sqliteSchema
	default:
		return nil, fmt.Errorf("unknown dialect %q", d)
	}
	var out []string
	for _, stmt := range strings.Split(src, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// Migrate applies the schema.  Every statement is CREATE ... IF NOT EXISTS,
// so running it twice is harmless.
func Migrate(ctx context.Context, db *sql.DB, d Dialect, log *zap.Logger) error {
	stmts, err := Statements(d)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	log.Info("schema applied", zap.String("dialect", string(d)), zap.Int("statements", len(stmts)))
	return nil
}
