package repository // repository for product stock persistence

import (
	"context"
	"database/sql"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// ProductRepo encapsulates database operations on the products table.
// The sale executor drives the transactional methods; everything else
// reads through the plain handle.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// GetByID returns a single product or ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id int) (*model.Product, error) {
	const q = `SELECT id, name, price, stock_qty FROM products WHERE id = ?`
	var p model.Product
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Price, &p.StockQty)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ForUpdateTx reads a product row inside tx with a row lock, so the
// stock check and the later decrement execute under mutual exclusion
// with any concurrent sale touching the same product.
func (r *ProductRepo) ForUpdateTx(ctx context.Context, tx *sql.Tx, id int) (*model.Product, error) {
	const q = `SELECT id, name, price, stock_qty FROM products WHERE id = ? FOR UPDATE`
	var p model.Product
	err := tx.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Price, &p.StockQty)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DecrementStockTx subtracts qty units from a product's stock within tx.
// Callers must have verified availability under the same transaction's
// row lock; the guard in the WHERE clause is a final consistency check.
func (r *ProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id, qty int) error {
	const q = `UPDATE products SET stock_qty = stock_qty - ? WHERE id = ? AND stock_qty >= ?`
	res, err := tx.ExecContext(ctx, q, qty, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
