package repository

import (
	"context"

	"github.com/iliyamo/bookstore/internal/model"
)

// AuthorRepo encapsulates queries on the authors table.
type AuthorRepo struct{ t entryTable }

func NewAuthorRepo(db DBTX) *AuthorRepo {
	return &AuthorRepo{t: entryTable{db: db, table: "authors", refColumn: "author_id"}}
}

func toAuthor(e *entry) *model.Author {
	return &model.Author{ID: e.ID, Name: e.Name, Country: e.Country, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// Create inserts a and fills its ID and timestamps.
func (r *AuthorRepo) Create(ctx context.Context, a *model.Author) error {
	e := entry{Name: a.Name, Country: a.Country}
	if err := r.t.create(ctx, &e); err != nil {
		return err
	}
	*a = *toAuthor(&e)
	return nil
}

// GetByID returns ErrNotFound for unknown ids.
func (r *AuthorRepo) GetByID(ctx context.Context, id uint64) (*model.Author, error) {
	e, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAuthor(e), nil
}

// List returns all authors ordered by name.
func (r *AuthorRepo) List(ctx context.Context) ([]*model.Author, error) {
	es, err := r.t.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Author, 0, len(es))
	for _, e := range es {
		out = append(out, toAuthor(e))
	}
	return out, nil
}

// Update overwrites name and country.
func (r *AuthorRepo) Update(ctx context.Context, a *model.Author) error {
	e := entry{ID: a.ID, Name: a.Name, Country: a.Country}
	if err := r.t.update(ctx, &e); err != nil {
		return err
	}
	a.UpdatedAt = e.UpdatedAt
	return nil
}

// Delete returns ErrConflict while books still reference the author.
func (r *AuthorRepo) Delete(ctx context.Context, id uint64) error {
	return r.t.delete(ctx, id)
}
