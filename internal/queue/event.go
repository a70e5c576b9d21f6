// Package queue carries order events over RabbitMQ: the JSON payload, a
// publisher used by the HTTP server and a consumer run by the worker.
package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/bookstore/internal/model"
)

// Queue names, one per event type.
const (
	OrderPlacedQueue    = "order.placed"
	OrderCompletedQueue = "order.completed"
)

// OrderEvent is published after an order transition commits.  It carries
// enough for downstream consumers to log or notify without reading the
// database.
type OrderEvent struct {
	EventID    string              `json:"event_id"`
	Type       string              `json:"type"`
	OrderID    uint64              `json:"order_id"`
	CustomerID uint64              `json:"cliente_id"`
	Status     model.OrderStatus   `json:"status"`
	Total      decimal.NullDecimal `json:"total"`
	Items      int                 `json:"items"`
	PlacedAt   *time.Time          `json:"fecha_pedido,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewOrderEvent snapshots o for the queue named typ.  Items is the sum of
// line quantities.
func NewOrderEvent(typ string, o *model.Order, lines []model.OrderLine, now time.Time) OrderEvent {
	items := 0
	for _, l := range lines {
		items += l.Quantity
	}
	return OrderEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Total:      o.Total,
		Items:      items,
		PlacedAt:   o.PlacedAt,
		OccurredAt: now.UTC(),
	}
}
