package repository // repository for order persistence and the status audit log

import (
	"context"
	"database/sql"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// OrderRepo persists orders, their items, and an append-only status log.
// The in-memory active-order store fronts this repository for live
// reads; the database remains the source of truth across restarts and
// retains terminal-state orders for audit.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts an order together with its items and the initial
// status-log row in a single transaction, then populates the generated
// order and item IDs on the passed order.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, changedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO orders (kind, status, priority, table_number, platform_id, order_type)
               VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		o.Kind, o.Status, o.Priority, o.TableNumber, o.PlatformID, nullableType(o.OrderType))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = int(id)

	const itemQ = `INSERT INTO order_items (order_id, product_id, name, quantity, unit_price, prep_minutes, status)
                   VALUES (?, ?, ?, ?, ?, ?, ?)`
	for i := range o.Items {
		it := &o.Items[i]
		res, err2 := tx.ExecContext(ctx, itemQ, o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.PrepMinutes, it.Status)
		if err2 != nil {
			err = err2
			return err
		}
		itemID, err2 := res.LastInsertId()
		if err2 != nil {
			err = err2
			return err
		}
		it.ID = int(itemID)
	}

	if err = r.appendStatusLogTx(ctx, tx, o.ID, o.Status, changedBy); err != nil {
		return err
	}

	const sel = `SELECT created_at, updated_at FROM orders WHERE id = ?`
	if err = tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateStatus writes the order's new status and appends to the status
// log in one transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID int, status, changedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`, status, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = ErrOrderNotFound
		return err
	}
	if err = r.appendStatusLogTx(ctx, tx, orderID, status, changedBy); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateItemStatus records preparation progress of a single kitchen item.
func (r *OrderRepo) UpdateItemStatus(ctx context.Context, orderID, itemID int, status model.ItemStatus) error {
	const q = `UPDATE order_items SET status = ? WHERE id = ? AND order_id = ?`
	res, err := r.db.ExecContext(ctx, q, status, itemID, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateItemQuantity applies a direct quantity edit.  The state-machine
// layer has already verified the item is still editable; a quantity of
// zero removes the line entirely.
func (r *OrderRepo) UpdateItemQuantity(ctx context.Context, orderID, itemID, quantity int) error {
	if quantity == 0 {
		_, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE id = ? AND order_id = ?`, itemID, orderID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE order_items SET quantity = ? WHERE id = ? AND order_id = ?`, quantity, itemID, orderID)
	return err
}

// ListActive loads every order that has not reached a terminal status,
// items included.  Used to rebuild the in-memory store on startup and
// to serve the reconnection pull query.
func (r *OrderRepo) ListActive(ctx context.Context) ([]model.Order, error) {
	const q = `SELECT id, kind, status, priority, table_number, platform_id, COALESCE(order_type, ''), created_at, updated_at
               FROM orders
               WHERE status NOT IN ('completed', 'cancelled', 'picked_up', 'delivered')
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var orderType string
		if err := rows.Scan(&o.ID, &o.Kind, &o.Status, &o.Priority, &o.TableNumber, &o.PlatformID, &orderType, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.OrderType = model.OnlineOrderType(orderType)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *OrderRepo) itemsFor(ctx context.Context, orderID int) ([]model.OrderItem, error) {
	const q = `SELECT id, product_id, name, quantity, unit_price, prep_minutes, COALESCE(status, '')
               FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		var status string
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.PrepMinutes, &status); err != nil {
			return nil, err
		}
		it.Status = model.ItemStatus(status)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepo) appendStatusLogTx(ctx context.Context, tx *sql.Tx, orderID int, status, changedBy string) error {
	const q = `INSERT INTO order_status_log (order_id, status, changed_by) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, orderID, status, changedBy)
	return err
}

func nullableType(t model.OnlineOrderType) *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}
