package model

import "time"

// SaleItem is one line of a committed sale.
//
// Fields:
//  ProductID – product sold.
//  Name      – product name at time of sale.
//  Quantity  – units sold (> 0).
//  UnitPrice – price per unit at time of sale.
//  Discount  – absolute discount applied to this line.
type SaleItem struct {
	ID        int     `json:"id"`
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
}

// LineTotal returns quantity*unit price minus the line discount.
func (i SaleItem) LineTotal() float64 {
	return float64(i.Quantity)*i.UnitPrice - i.Discount
}

// Sale is the committed financial transaction record.  It is created
// atomically by the sale executor and immutable afterwards; refunds are
// new compensating records, never mutations of an existing sale.
// Invariant enforced at commit time: sum(line totals) + tax == total.
//
// Fields:
//  ID            – primary key, assigned by the store.
//  Items         – ordered line items.
//  Subtotal      – sum of line totals before tax.
//  Tax           – tax amount (opaque input, not computed here).
//  Total         – subtotal + tax.
//  PaymentMethod – e.g. "cash", "card" (opaque).
//  CashierID     – user who completed the sale.
//  CustomerID    – optional customer reference.
//  OrderID       – optional originating order.
//  TerminalID    – terminal that initiated the sale, if any.
//  CreatedAt     – commit timestamp.
type Sale struct {
	ID            int        `json:"id"`
	Items         []SaleItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	CashierID     string     `json:"cashier_id"`
	CustomerID    *int       `json:"customer_id,omitempty"`
	OrderID       *int       `json:"order_id,omitempty"`
	TerminalID    string     `json:"terminal_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
