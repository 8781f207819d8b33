package model

// Product is the slice of the catalog the order core needs: identity,
// display name, current price and stock on hand.  Catalog management
// itself (creation, pricing, categories) is an external concern.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	StockQty int     `json:"stock_qty"`
}
