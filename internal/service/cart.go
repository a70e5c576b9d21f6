package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
)

// CartService manages the one pending order of a user.
type CartService struct {
	store *repository.Store
}

func NewCartService(store *repository.Store) *CartService { return &CartService{store: store} }

// Cart is the pending order with its lines.  Total is recomputed from the
// lines on every read.
type Cart struct {
	OrderID uint64               `json:"order_id,omitempty"`
	Lines   []repository.LineRow `json:"lines"`
	Total   decimal.Decimal      `json:"total"`
}

func validQuantity(q int) error {
	switch {
	case q < 1:
		return invalid("quantity", "must be at least 1")
	case !model.ValidQuantity(q):
		return invalid("quantity", fmt.Sprintf("must be at most %d", model.MaxQuantity))
	}
	return nil
}

// View returns the actor's cart; a user without a pending order gets an
// empty one.
func (s *CartService) View(ctx context.Context, a Actor) (*Cart, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	o, err := s.store.Orders.GetPendingForCustomer(ctx, a.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &Cart{Lines: []repository.LineRow{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Orders.LineRows(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]model.OrderLine, len(rows))
	for i, r := range rows {
		lines[i] = r.OrderLine
	}
	if rows == nil {
		rows = []repository.LineRow{}
	}
	return &Cart{OrderID: o.ID, Lines: rows, Total: model.LinesTotal(lines)}, nil
}

// Total is the sum of quantity * unit price over the actor's cart.
func (s *CartService) Total(ctx context.Context, a Actor) (decimal.Decimal, error) {
	c, err := s.View(ctx, a)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Total, nil
}

// AddItem puts quantity copies of a book in the actor's cart.  A book
// already in the cart gets its quantity increased and keeps the unit price
// captured when its line was created; a new line captures the current book
// price.
func (s *CartService) AddItem(ctx context.Context, a Actor, bookID uint64, quantity int) (*model.OrderLine, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	var line *model.OrderLine
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		book, err := tx.Books.GetByID(ctx, bookID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("book_id", "book does not exist")
		}
		if err != nil {
			return err
		}

		o, err := tx.Orders.GetPendingForCustomer(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			o, err = tx.Orders.CreatePending(ctx, a.ID)
		}
		if err != nil {
			return err
		}

		line, err = tx.Orders.FindLine(ctx, o.ID, book.ID)
		switch {
		case err == nil:
			if err := validQuantity(line.Quantity + quantity); err != nil {
				return err
			}
			line.Quantity += quantity
			if err := tx.Orders.SetLineQuantity(ctx, line.ID, line.Quantity); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			line = &model.OrderLine{OrderID: o.ID, BookID: book.ID, Quantity: quantity, UnitPrice: book.Price}
			if err := tx.Orders.InsertLine(ctx, line); err != nil {
				return err
			}
		default:
			return err
		}
		return tx.Orders.Touch(ctx, o.ID)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateQuantity overwrites the quantity of one of the actor's cart lines.
func (s *CartService) UpdateQuantity(ctx context.Context, a Actor, lineID uint64, quantity int) (*model.OrderLine, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	var line *model.OrderLine
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		l, o, err := ownedEditableLine(ctx, tx, a, lineID)
		if err != nil {
			return err
		}
		if err := tx.Orders.SetLineQuantity(ctx, l.ID, quantity); err != nil {
			return err
		}
		l.Quantity = quantity
		line = l
		return tx.Orders.Touch(ctx, o.ID)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveItem deletes one of the actor's cart lines.  The pending order is
// deleted together with its last line.
func (s *CartService) RemoveItem(ctx context.Context, a Actor, lineID uint64) error {
	if err := a.requireUser(); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		l, o, err := ownedEditableLine(ctx, tx, a, lineID)
		if err != nil {
			return err
		}
		if err := tx.Orders.DeleteLine(ctx, l.ID); err != nil {
			return err
		}
		left, err := tx.Orders.CountLines(ctx, o.ID)
		if err != nil {
			return err
		}
		if left == 0 {
			return tx.Orders.Delete(ctx, o.ID)
		}
		return tx.Orders.Touch(ctx, o.ID)
	})
}

// Clear abandons the actor's cart.
func (s *CartService) Clear(ctx context.Context, a Actor) error {
	if err := a.requireUser(); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		o, err := tx.Orders.GetPendingForCustomer(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Orders.Delete(ctx, o.ID)
	})
}

// ownedEditableLine loads a line and its order, checking that the order
// belongs to a and is still pendiente.
func ownedEditableLine(ctx context.Context, tx *repository.Store, a Actor, lineID uint64) (*model.OrderLine, *model.Order, error) {
	l, err := tx.Orders.GetLine(ctx, lineID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, notFound("order line")
	}
	if err != nil {
		return nil, nil, err
	}
	o, err := tx.Orders.GetByID(ctx, l.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if o.CustomerID != a.ID {
		return nil, nil, ErrForbidden
	}
	if !o.Editable() {
		return nil, nil, ErrOrderLocked
	}
	return l, o, nil
}
