package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// entry is the shared row shape of authors and publishers.
type entry struct {
	ID        uint64
	Name      string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// entryTable implements CRUD for a (name, country) table whose rows are
// referenced from books through refColumn.
type entryTable struct {
	db        DBTX
	table     string
	refColumn string
}

func (t entryTable) create(ctx context.Context, e *entry) error {
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx,
		"INSERT INTO "+t.table+" (name, country, created_at, updated_at) VALUES (?,?,?,?)",
		e.Name, e.Country, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.CreatedAt, e.UpdatedAt = now, now
	return nil
}

func (t entryTable) get(ctx context.Context, id uint64) (*entry, error) {
	var e entry
	err := t.db.QueryRowContext(ctx,
		"SELECT id, name, country, created_at, updated_at FROM "+t.table+" WHERE id = ?", id).
		Scan(&e.ID, &e.Name, &e.Country, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (t entryTable) list(ctx context.Context) ([]*entry, error) {
	rows, err := t.db.QueryContext(ctx,
		"SELECT id, name, country, created_at, updated_at FROM "+t.table+" ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entry
	for rows.Next() {
		e := new(entry)
		if err := rows.Scan(&e.ID, &e.Name, &e.Country, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t entryTable) update(ctx context.Context, e *entry) error {
	now := time.Now().UTC()
	res, err := t.db.ExecContext(ctx,
		"UPDATE "+t.table+" SET name = ?, country = ?, updated_at = ? WHERE id = ?",
		e.Name, e.Country, now, e.ID)
	if err != nil {
		return err
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// delete refuses with ErrConflict while any book still references the row.
func (t entryTable) delete(ctx context.Context, id uint64) error {
	var refs int64
	if err := t.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books WHERE "+t.refColumn+" = ?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := t.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
