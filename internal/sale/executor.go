// Package sale implements the atomic "commit a sale" operation: stock
// validation, sale-record creation and stock decrement execute as a
// single database transaction.  Either every step takes effect or none
// does: a failure after the stock check must never leave a sale record
// without its decrement or vice versa.
package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/repository"
)

// InsufficientStockError fails the whole commit when any line item
// requests more units than the product has on hand.  Partial
// fulfillment is never allowed.
type InsufficientStockError struct {
	ProductID int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// TransactionAbortedError reports that a store fault aborted the commit
// and the rollback completed cleanly.  The core retries zero times;
// retry policy belongs to the caller.
type TransactionAbortedError struct {
	Cause error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("sale transaction aborted: %v", e.Cause)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Cause }

// ErrNoItems is returned for a commit request with an empty item list.
var ErrNoItems = errors.New("sale requires at least one item")

// LineInput is one requested sale line.  Unit price comes from the
// product row read under the transaction, not from the caller.
type LineInput struct {
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Discount  float64 `json:"discount"`
}

// Input carries everything needed to commit a sale.  Tax is an opaque
// externally computed amount; the executor only folds it into the
// total.
type Input struct {
	Lines         []LineInput
	Tax           float64
	PaymentMethod string
	CashierID     string
	CustomerID    *int
	OrderID       *int
	TerminalID    string
}

// ProductStore is the product persistence surface the executor needs.
type ProductStore interface {
	ForUpdateTx(ctx context.Context, tx *sql.Tx, id int) (*model.Product, error)
	DecrementStockTx(ctx context.Context, tx *sql.Tx, id, qty int) error
}

// SaleStore is the sale persistence surface the executor needs.
type SaleStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, rec *repository.SaleRecord) error
	CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, saleID int, items []model.SaleItem) error
}

// TxRunner owns the transaction boundary: it begins a transaction,
// runs fn, and commits when fn returns nil or rolls back when it
// errors.  Production uses the *sql.DB-backed runner; tests substitute
// a fake so the pure orchestration logic is checkable without a
// database.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLRunner is the production TxRunner.
type SQLRunner struct {
	DB *sql.DB
}

// RunInTx wraps fn in a BeginTx/Commit pair, rolling back on error or
// panic.
func (r SQLRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Executor performs the atomic sale commit.
type Executor struct {
	runner   TxRunner
	products ProductStore
	sales    SaleStore
}

// NewExecutor constructs an executor over the given runner and stores.
func NewExecutor(runner TxRunner, products ProductStore, sales SaleStore) *Executor {
	return &Executor{runner: runner, products: products, sales: sales}
}

// CommitSale validates stock for every line under row locks, creates
// the sale record with computed totals, and decrements stock, all in
// one transaction.  Caller-input failures (empty items, bad quantities,
// insufficient stock) come back as their typed errors; store faults
// after validation come back as TransactionAbortedError with the
// rollback already done.
func (e *Executor) CommitSale(ctx context.Context, in Input) (*model.Sale, error) {
	if len(in.Lines) == 0 {
		return nil, ErrNoItems
	}
	for _, ln := range in.Lines {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %d", ln.Quantity, ln.ProductID)
		}
		if ln.Discount < 0 {
			return nil, fmt.Errorf("invalid discount for product %d", ln.ProductID)
		}
	}

	var out *model.Sale
	err := e.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		// Step 1: read and validate stock for every line.  The FOR
		// UPDATE row locks serialize this check against concurrent
		// sales of the same products until commit, closing the
		// check-then-act race.
		items := make([]model.SaleItem, 0, len(in.Lines))
		for _, ln := range in.Lines {
			p, err := e.products.ForUpdateTx(ctx, tx, ln.ProductID)
			if err != nil {
				return err
			}
			if p.StockQty < ln.Quantity {
				return &InsufficientStockError{ProductID: p.ID, Requested: ln.Quantity, Available: p.StockQty}
			}
			items = append(items, model.SaleItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  ln.Quantity,
				UnitPrice: p.Price,
				Discount:  ln.Discount,
			})
		}

		// Step 2: create the sale record with computed totals.
		subtotal := 0.0
		for _, it := range items {
			subtotal += it.LineTotal()
		}
		total := subtotal + in.Tax
		if err := checkTotals(items, in.Tax, total); err != nil {
			return err
		}
		rec := repository.SaleRecord{
			Subtotal:      round2(subtotal),
			Tax:           round2(in.Tax),
			Total:         round2(total),
			PaymentMethod: in.PaymentMethod,
			CashierID:     in.CashierID,
			CustomerID:    in.CustomerID,
			OrderID:       in.OrderID,
			TerminalID:    in.TerminalID,
		}
		if err := e.sales.CreateTx(ctx, tx, &rec); err != nil {
			return &TransactionAbortedError{Cause: err}
		}
		if err := e.sales.CreateItemsBulkTx(ctx, tx, rec.ID, items); err != nil {
			return &TransactionAbortedError{Cause: err}
		}

		// Step 3: decrement stock for every line.
		for _, it := range items {
			if err := e.products.DecrementStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return &TransactionAbortedError{Cause: err}
			}
		}

		out = &model.Sale{
			ID:            rec.ID,
			Items:         items,
			Subtotal:      rec.Subtotal,
			Tax:           rec.Tax,
			Total:         rec.Total,
			PaymentMethod: rec.PaymentMethod,
			CashierID:     rec.CashierID,
			CustomerID:    rec.CustomerID,
			OrderID:       rec.OrderID,
			TerminalID:    rec.TerminalID,
			CreatedAt:     rec.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkTotals enforces the sale invariant sum(line totals) + tax ==
// total within a cent of rounding tolerance before anything is written.
func checkTotals(items []model.SaleItem, tax, total float64) error {
	sum := 0.0
	for _, it := range items {
		sum += it.LineTotal()
	}
	if math.Abs(sum+tax-total) > 0.01 {
		return fmt.Errorf("sale totals do not reconcile: lines %.2f + tax %.2f != total %.2f", sum, tax, total)
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
