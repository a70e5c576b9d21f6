package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/model"
	"github.com/iliyamo/bookstore/internal/queue"
	"github.com/iliyamo/bookstore/internal/repository"
)

// EventPublisher delivers order events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

// OrderService drives the order state machine.
type OrderService struct {
	store  *repository.Store
	events EventPublisher // nil disables publishing
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderService(store *repository.Store, events EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{store: store, events: events, log: log, now: time.Now}
}

// OrderDetail is an order with its lines and status history.  Total is the
// frozen total once the order left pendiente and the live sum before that.
type OrderDetail struct {
	*model.Order
	Lines   []repository.LineRow `json:"lines"`
	Total   decimal.Decimal      `json:"total"`
	History []model.StatusChange `json:"history"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Items    []*model.Order `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Checkout moves the actor's cart from pendiente to procesando, stamping
// fecha_pedido and freezing total in the same transaction.  An empty or
// missing cart yields ErrEmptyCart and changes nothing.
func (s *OrderService) Checkout(ctx context.Context, a Actor) (*model.Order, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	var (
		order *model.Order
		lines []model.OrderLine
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		o, err := tx.Orders.GetPendingForCustomer(ctx, a.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if lines, err = tx.Orders.Lines(ctx, o.ID); err != nil {
			return err
		}
		from := o.Status
		if err := o.BeginCheckout(lines, s.now()); err != nil {
			return err
		}
		if err := s.persist(ctx, tx, a, o, from, false); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.OrderPlacedQueue, order, lines)
	return order, nil
}

// MarkCompleted moves a procesando order to completado.
func (s *OrderService) MarkCompleted(ctx context.Context, a Actor, orderID uint64) (*model.Order, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	var (
		order *model.Order
		lines []model.OrderLine
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		o, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.MarkCompleted(); err != nil {
			return err
		}
		if lines, err = tx.Orders.Lines(ctx, o.ID); err != nil {
			return err
		}
		if err := s.persist(ctx, tx, a, o, from, false); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.OrderCompletedQueue, order, lines)
	return order, nil
}

// AdminOverrideStatus sets any status on an order without consulting the
// state machine.  The change is recorded in the audit trail with the
// override flag.  Sending an order back to pendiente is refused with
// ErrConflict while its customer already has another cart.
func (s *OrderService) AdminOverrideStatus(ctx context.Context, a Actor, orderID uint64, status string) (*model.Order, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	to, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, invalid("status", "must be one of pendiente, procesando, completado")
	}
	var order *model.Order
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		o, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if to == model.StatusPending && o.Status != model.StatusPending {
			other, err := tx.Orders.GetPendingForCustomer(ctx, o.CustomerID)
			switch {
			case err == nil && other.ID != o.ID:
				return ErrConflict
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return err
			}
		}
		lines, err := tx.Orders.Lines(ctx, o.ID)
		if err != nil {
			return err
		}
		from, err := o.AdminOverrideStatus(to, lines, s.now())
		if err != nil {
			return err
		}
		if err := s.persist(ctx, tx, a, o, from, true); err != nil {
			return err
		}
		s.log.Warn("order status overridden",
			zap.Uint64("order_id", o.ID),
			zap.Uint64("actor_id", a.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order to its customer or an administrador.
func (s *OrderService) Get(ctx context.Context, a Actor, orderID uint64) (*OrderDetail, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	o, err := getOrder(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	if !CanViewOrder(a, o) {
		return nil, ErrForbidden
	}
	rows, err := s.store.Orders.LineRows(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.Orders.StatusHistory(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	d := &OrderDetail{Order: o, Lines: rows, History: history}
	if o.Total.Valid {
		d.Total = o.Total.Decimal
	} else {
		lines := make([]model.OrderLine, len(rows))
		for i, r := range rows {
			lines[i] = r.OrderLine
		}
		d.Total = model.LinesTotal(lines)
	}
	if d.Lines == nil {
		d.Lines = []repository.LineRow{}
	}
	return d, nil
}

// ListMine returns the actor's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, a Actor) ([]*model.Order, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	out, err := s.store.Orders.ListByCustomer(ctx, a.ID)
	if out == nil {
		out = []*model.Order{}
	}
	return out, err
}

// List pages through all orders, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, a Actor, status string, p repository.Page) (*OrderPage, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	var st model.OrderStatus
	if status != "" {
		var err error
		if st, err = model.ParseOrderStatus(status); err != nil {
			return nil, invalid("status", "must be one of pendiente, procesando, completado")
		}
	}
	items, total, err := s.store.Orders.List(ctx, st, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Order{}
	}
	return &OrderPage{Items: items, Total: total, Page: p.Number, PageSize: p.Size}, nil
}

// Delete removes an order with its lines and history.
func (s *OrderService) Delete(ctx context.Context, a Actor, orderID uint64) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		err := tx.Orders.Delete(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("order")
		}
		return err
	})
}

func getOrder(ctx context.Context, st *repository.Store, id uint64) (*model.Order, error) {
	o, err := st.Orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("order")
	}
	return o, err
}

// persist writes the new state of o guarded by its previous status and
// appends the audit row.
func (s *OrderService) persist(ctx context.Context, tx *repository.Store, a Actor, o *model.Order, from model.OrderStatus, override bool) error {
	if err := tx.Orders.UpdateState(ctx, o, from); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return ErrInvalidTransition
		}
		return err
	}
	return tx.Orders.RecordStatusChange(ctx, &model.StatusChange{
		OrderID:  o.ID,
		From:     from,
		To:       o.Status,
		ActorID:  a.ID,
		Override: override,
	})
}

// publish is best effort: the transition already committed.
func (s *OrderService) publish(ctx context.Context, typ string, o *model.Order, lines []model.OrderLine) {
	if s.events == nil {
		return
	}
	ev := queue.NewOrderEvent(typ, o, lines, s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish order event failed",
			zap.String("type", typ),
			zap.Uint64("order_id", o.ID),
			zap.Error(err))
	}
}
