package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed state machine of an order:
//
//	pendiente -> procesando -> completado
//
// The checkout path only moves forward one step at a time.  The only way
// to jump elsewhere is Order.AdminOverrideStatus.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pendiente"
	StatusProcessing OrderStatus = "procesando"
	StatusCompleted  OrderStatus = "completado"
)

var (
	// ErrEmptyCart is returned when checkout is attempted without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned when a guarded transition does not
	// start from the state it requires.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// ParseOrderStatus converts a stored status into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the three known states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

// Order belongs to one customer.  While pending it is the customer's cart
// and PlacedAt/Total are null; both are stamped by BeginCheckout.
//
// Fields:
//
//	ID         – orders.id
//	CustomerID – orders.cliente_id
//	Status     – orders.status
//	PlacedAt   – orders.fecha_pedido (nullable)
//	Total      – orders.total (nullable)
type Order struct {
	ID         uint64              `json:"id"`
	CustomerID uint64              `json:"cliente_id"`
	Status     OrderStatus         `json:"status"`
	PlacedAt   *time.Time          `json:"fecha_pedido"`
	Total      decimal.NullDecimal `json:"total"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// OrderLine is one (book, quantity, unit price) row of an order.  UnitPrice
// is the book price at the instant the line was created.
type OrderLine struct {
	ID        uint64          `json:"id"`
	OrderID   uint64          `json:"order_id"`
	BookID    uint64          `json:"book_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Subtotal is quantity * unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 9999

// ValidQuantity reports whether q can be stored on a line.
func ValidQuantity(q int) bool { return q >= 1 && q <= MaxQuantity }

// LinesTotal sums the subtotals of lines.  It is recomputed on every call.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Editable reports whether the order's lines may still change.
func (o *Order) Editable() bool { return o.Status == StatusPending }

// BeginCheckout moves a pending order to processing, stamping PlacedAt and
// freezing Total from lines.
func (o *Order) BeginCheckout(lines []OrderLine, now time.Time) error {
	if o.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusProcessing)
	}
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	o.freeze(lines, now)
	o.Status = StatusProcessing
	return nil
}

// MarkCompleted moves a processing order to completed.
func (o *Order) MarkCompleted() error {
	if o.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCompleted)
	}
	o.Status = StatusCompleted
	return nil
}

// AdminOverrideStatus sets the status without consulting the state machine
// and returns the previous one.  Leaving pendiente freezes PlacedAt and Total
// when they are still unset; returning to pendiente clears them so the order
// becomes an editable cart again.
func (o *Order) AdminOverrideStatus(to OrderStatus, lines []OrderLine, now time.Time) (OrderStatus, error) {
	if !to.Valid() {
		return "", fmt.Errorf("unknown order status %q", to)
	}
	from := o.Status
	switch {
	case to == StatusPending:
		o.PlacedAt = nil
		o.Total = decimal.NullDecimal{}
	case !o.Total.Valid || o.PlacedAt == nil:
		o.freeze(lines, now)
	}
	o.Status = to
	return from, nil
}

func (o *Order) freeze(lines []OrderLine, now time.Time) {
	at := now.UTC()
	o.PlacedAt = &at
	o.Total = decimal.NullDecimal{Decimal: LinesTotal(lines), Valid: true}
}

// StatusChange is one row of the order_status_changes audit trail.
type StatusChange struct {
	ID        uint64      `json:"id"`
	OrderID   uint64      `json:"order_id"`
	From      OrderStatus `json:"from_status"`
	To        OrderStatus `json:"to_status"`
	ActorID   uint64      `json:"actor_id"`
	Override  bool        `json:"override"`
	CreatedAt time.Time   `json:"created_at"`
}
