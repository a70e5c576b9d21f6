// Package repository holds the database/sql data access layer.  Each
// repository maps one table (or a tightly coupled pair of tables) and
// returns the sentinel errors below so that services can tell failure
// scenarios apart without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a delete or update cannot be performed
// because other rows still depend on the target, e.g. deleting an author
// that still has books.
var ErrConflict = errors.New("conflict")

// ErrStaleState is returned by guarded updates whose WHERE clause no longer
// matches because a concurrent writer moved the row first.
var ErrStaleState = errors.New("row changed concurrently")

const mysqlDuplicateEntry = 1062

// isDuplicate recognizes unique-key violations from MySQL and from the
// sqlite driver used by the tests.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
