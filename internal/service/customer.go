package service

import (
	"context"
	"errors"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/repository"
)

// CustomerService is the back office view of cliente accounts.
type CustomerService struct {
	store *repository.Store
}

func NewCustomerService(store *repository.Store) *CustomerService {
	return &CustomerService{store: store}
}

// CustomerPage is one page of customers.
type CustomerPage struct {
	Items    []*model.User `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CustomerDetail adds order counts to an account.
type CustomerDetail struct {
	*model.User
	Orders       int64 `json:"orders"`
	PlacedOrders int64 `json:"placed_orders"`
}

// List pages through cliente accounts.
func (s *CustomerService) List(ctx context.Context, a Actor, p repository.Page) (*CustomerPage, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	items, total, err := s.store.Users.ListByRole(ctx, model.RoleCustomer, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.User{}
	}
	return &CustomerPage{Items: items, Total: total, Page: p.Number, PageSize: p.Size}, nil
}

// Get returns one account with its order counts.
func (s *CustomerService) Get(ctx context.Context, a Actor, id uint64) (*CustomerDetail, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Role != model.RoleCustomer) {
		return nil, notFound("customer")
	}
	if err != nil {
		return nil, err
	}
	total, placed, err := s.store.Orders.CountByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{User: u, Orders: total, PlacedOrders: placed}, nil
}

// Delete removes an account together with its cart, comments and tokens.
// Only cliente accounts are reachable here.  Accounts with orders past
// pendiente are kept for the order history and yield ErrConflict, as does an
// administrador deleting itself.
func (s *CustomerService) Delete(ctx context.Context, a Actor, id uint64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if id == a.ID {
		return ErrConflict
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		u, err := tx.Users.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Role != model.RoleCustomer) {
			return notFound("customer")
		}
		if err != nil {
			return err
		}
		_, placed, err := tx.Orders.CountByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if placed > 0 {
			return ErrConflict
		}
		cart, err := tx.Orders.GetPendingForCustomer(ctx, id)
		switch {
		case err == nil:
			if err := tx.Orders.Delete(ctx, cart.ID); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := tx.Comments.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Tokens.DeleteForUser(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
}
