package repository // repository for committed sale records

import (
	"context"
	"database/sql"
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// SaleRepo provides insert-only access to sales and sale_items.  Sales
// are immutable once committed: there are deliberately no update or
// delete methods here.  Refunds become new compensating records.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo returns a new SaleRepo bound to the given database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// SaleRecord mirrors the schema of the sales table.  It is used
// internally when constructing rows; business logic uses model.Sale.
type SaleRecord struct {
	ID            int
	Subtotal      float64
	Tax           float64
	Total         float64
	PaymentMethod string
	CashierID     string
	CustomerID    *int
	OrderID       *int
	TerminalID    string
	CreatedAt     time.Time
}

// CreateTx inserts the sale header within the scope of an existing
// transaction and populates the generated ID and creation timestamp on
// the provided record.  The caller must commit or rollback.
func (r *SaleRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *SaleRecord) error {
	const q = `INSERT INTO sales
        (subtotal, tax, total, payment_method, cashier_id, customer_id, order_id, terminal_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		rec.Subtotal, rec.Tax, rec.Total, rec.PaymentMethod,
		rec.CashierID, rec.CustomerID, rec.OrderID, rec.TerminalID)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = int(id)
	const sel = `SELECT created_at FROM sales WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.CreatedAt)
}

// CreateItemsBulkTx inserts all line items of a sale in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *SaleRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, saleID int, items []model.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price, discount) VALUES `
	args := make([]interface{}, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, saleID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Discount)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
