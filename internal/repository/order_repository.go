package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bookstore/internal/model"
)

// OrderRepo encapsulates queries on orders, order_lines and the
// order_status_changes audit trail.  These tables always change together,
// so they share one repository.
type OrderRepo struct{ db DBTX }

func NewOrderRepo(db DBTX) *OrderRepo { return &OrderRepo{db: db} }

// LineRow is an order line with the title of its book.
type LineRow struct {
	model.OrderLine
	BookTitle string `json:"book_title"`
}

const orderColumns = "id, cliente_id, status, fecha_pedido, total, created_at, updated_at"

func scanOrder(s rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		status string
		placed sql.NullTime
	)
	if err := s.Scan(&o.ID, &o.CustomerID, &status, &placed, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	o.Status = st
	if placed.Valid {
		t := placed.Time
		o.PlacedAt = &t
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]*model.Order, error) {
	defer rows.Close()
	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreatePending opens a new, empty pending order (a cart) for a customer.
func (r *OrderRepo) CreatePending(ctx context.Context, customerID uint64) (*model.Order, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO orders (cliente_id, status, created_at, updated_at) VALUES (?,?,?,?)",
		customerID, string(model.StatusPending), now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Order{ID: uint64(id), CustomerID: customerID, Status: model.StatusPending, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID returns ErrNotFound for unknown ids.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// GetPendingForCustomer returns the customer's cart, or ErrNotFound when the
// customer has none.
func (r *OrderRepo) GetPendingForCustomer(ctx context.Context, customerID uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE cliente_id = ? AND status = ? ORDER BY id LIMIT 1",
		customerID, string(model.StatusPending)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// ListByCustomer returns every order of a customer, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE cliente_id = ? ORDER BY created_at DESC, id DESC", customerID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// List returns one page of all orders, newest first, optionally restricted
// to one status, plus the total number of matches.
func (r *OrderRepo) List(ctx context.Context, status model.OrderStatus, p Page) ([]*model.Order, int64, error) {
	cond := "1=1"
	var args []any
	if status != "" {
		cond = "status = ?"
		args = append(args, string(status))
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByCustomer reports how many orders a customer has and how many of
// them have left pendiente.
func (r *OrderRepo) CountByCustomer(ctx context.Context, customerID uint64) (total, placed int64, err error) {
	var nonPending sql.NullInt64
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(CASE WHEN status <> ? THEN 1 ELSE 0 END) FROM orders WHERE cliente_id = ?",
		string(model.StatusPending), customerID).Scan(&total, &nonPending)
	return total, nonPending.Int64, err
}

// UpdateState persists status, fecha_pedido and total of o, but only while
// the stored status still equals from.  A concurrent writer that moved the
// order first yields ErrStaleState.
func (r *OrderRepo) UpdateState(ctx context.Context, o *model.Order, from model.OrderStatus) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, fecha_pedido = ?, total = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(o.Status), o.PlacedAt, o.Total, now, o.ID, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleState
	}
	o.UpdatedAt = now
	return nil
}

// Touch bumps updated_at of an order whose lines changed.
func (r *OrderRepo) Touch(ctx context.Context, orderID uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE orders SET updated_at = ? WHERE id = ?", time.Now().UTC(), orderID)
	return err
}

// Delete removes an order together with its lines and audit rows.
func (r *OrderRepo) Delete(ctx context.Context, orderID uint64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM order_status_changes WHERE order_id = ?", orderID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM order_lines WHERE order_id = ?", orderID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", orderID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

const lineColumns = "id, order_id, book_id, quantity, unit_price, created_at, updated_at"

func scanLine(s rowScanner, extra ...any) (*model.OrderLine, error) {
	var l model.OrderLine
	dest := append([]any{&l.ID, &l.OrderID, &l.BookID, &l.Quantity, &l.UnitPrice, &l.CreatedAt, &l.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &l, nil
}

// Lines returns the lines of an order in insertion order.
func (r *OrderRepo) Lines(ctx context.Context, orderID uint64) ([]model.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+lineColumns+" FROM order_lines WHERE order_id = ? ORDER BY id", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.OrderLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// LineRows returns the lines of an order with book titles.
func (r *OrderRepo) LineRows(ctx context.Context, orderID uint64) ([]LineRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.order_id, l.book_id, l.quantity, l.unit_price, l.created_at, l.updated_at, b.title
		 FROM order_lines l JOIN books b ON b.id = l.book_id
		 WHERE l.order_id = ? ORDER BY l.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineRow
	for rows.Next() {
		var title string
		l, err := scanLine(rows, &title)
		if err != nil {
			return nil, err
		}
		out = append(out, LineRow{OrderLine: *l, BookTitle: title})
	}
	return out, rows.Err()
}

// GetLine returns ErrNotFound for unknown line ids.
func (r *OrderRepo) GetLine(ctx context.Context, lineID uint64) (*model.OrderLine, error) {
	l, err := scanLine(r.db.QueryRowContext(ctx, "SELECT "+lineColumns+" FROM order_lines WHERE id = ?", lineID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// FindLine returns the line of book in an order, or ErrNotFound.
func (r *OrderRepo) FindLine(ctx context.Context, orderID, bookID uint64) (*model.OrderLine, error) {
	l, err := scanLine(r.db.QueryRowContext(ctx,
		"SELECT "+lineColumns+" FROM order_lines WHERE order_id = ? AND book_id = ?", orderID, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// InsertLine adds l to its order.  A second line for the same book yields
// ErrDuplicate.
func (r *OrderRepo) InsertLine(ctx context.Context, l *model.OrderLine) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO order_lines (order_id, book_id, quantity, unit_price, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		l.OrderID, l.BookID, l.Quantity, l.UnitPrice, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

// SetLineQuantity overwrites the quantity of a line.  The unit price is
// never touched.
func (r *OrderRepo) SetLineQuantity(ctx context.Context, lineID uint64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE order_lines SET quantity = ?, updated_at = ? WHERE id = ?", quantity, time.Now().UTC(), lineID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// DeleteLine removes one line.
func (r *OrderRepo) DeleteLine(ctx context.Context, lineID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM order_lines WHERE id = ?", lineID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// CountLines returns the number of lines of an order.
func (r *OrderRepo) CountLines(ctx context.Context, orderID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_lines WHERE order_id = ?", orderID).Scan(&n)
	return n, err
}

// RecordStatusChange appends one row to the audit trail.
func (r *OrderRepo) RecordStatusChange(ctx context.Context, c *model.StatusChange) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO order_status_changes (order_id, from_status, to_status, actor_id, override, created_at) VALUES (?,?,?,?,?,?)",
		c.OrderID, string(c.From), string(c.To), c.ActorID, c.Override, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt = now
	return nil
}

// StatusHistory returns the audit trail of an order, oldest first.
func (r *OrderRepo) StatusHistory(ctx context.Context, orderID uint64) ([]model.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, from_status, to_status, actor_id, override, created_at
		 FROM order_status_changes WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StatusChange
	for rows.Next() {
		var (
			c        model.StatusChange
			from, to string
		)
		if err := rows.Scan(&c.ID, &c.OrderID, &from, &to, &c.ActorID, &c.Override, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.From, c.To = model.OrderStatus(from), model.OrderStatus(to)
		out = append(out, c)
	}
	return out, rows.Err()
}
