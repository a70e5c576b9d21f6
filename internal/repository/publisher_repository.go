package repository

import (
	"context"

	"github.com/iliyamo/bookstore/internal/model"
)

// PublisherRepo encapsulates queries on the publishers table.
type PublisherRepo struct{ t entryTable }

func NewPublisherRepo(db DBTX) *PublisherRepo {
	return &PublisherRepo{t: entryTable{db: db, table: "publishers", refColumn: "publisher_id"}}
}

func toPublisher(e *entry) *model.Publisher {
	return &model.Publisher{ID: e.ID, Name: e.Name, Country: e.Country, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// Create inserts p and fills its ID and timestamps.
func (r *PublisherRepo) Create(ctx context.Context, p *model.Publisher) error {
	e := entry{Name: p.Name, Country: p.Country}
	if err := r.t.create(ctx, &e); err != nil {
		return err
	}
	*p = *toPublisher(&e)
	return nil
}

// GetByID returns ErrNotFound for unknown ids.
func (r *PublisherRepo) GetByID(ctx context.Context, id uint64) (*model.Publisher, error) {
	e, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPublisher(e), nil
}

// List returns all publishers ordered by name.
func (r *PublisherRepo) List(ctx context.Context) ([]*model.Publisher, error) {
	es, err := r.t.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Publisher, 0, len(es))
	for _, e := range es {
		out = append(out, toPublisher(e))
	}
	return out, nil
}

// Update overwrites name and country.
func (r *PublisherRepo) Update(ctx context.Context, p *model.Publisher) error {
	e := entry{ID: p.ID, Name: p.Name, Country: p.Country}
	if err := r.t.update(ctx, &e); err != nil {
		return err
	}
	p.UpdatedAt = e.UpdatedAt
	return nil
}

// Delete returns ErrConflict while books still reference the publisher.
func (r *PublisherRepo) Delete(ctx context.Context, id uint64) error {
	return r.t.delete(ctx, id)
}
