package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkhalitov/pos-terminal-sync/internal/sale"
	"github.com/dkhalitov/pos-terminal-sync/internal/service"
)

// SaleHandler exposes the atomic sale commit over HTTP.
type SaleHandler struct {
	Facade *service.Facade
}

// NewSaleHandler constructs a SaleHandler.
func NewSaleHandler(f *service.Facade) *SaleHandler {
	if f == nil {
		panic("nil facade passed to NewSaleHandler")
	}
	return &SaleHandler{Facade: f}
}

// CompleteSale handles POST /v1/sales.  Stock check, sale creation and
// stock decrement all commit together or not at all; on success the new
// sale is broadcast to every connected terminal.
func (h *SaleHandler) CompleteSale(c echo.Context) error {
	var body struct {
		Lines         []sale.LineInput `json:"lines"`
		Tax           float64          `json:"tax"`
		PaymentMethod string           `json:"payment_method"`
		CustomerID    *int             `json:"customer_id"`
		OrderID       *int             `json:"order_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Lines) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lines is required"})
	}
	if body.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method is required"})
	}
	for _, ln := range body.Lines {
		if ln.ProductID <= 0 || ln.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every line needs a product_id and a positive quantity"})
		}
	}

	s, err := h.Facade.CompleteSale(c.Request().Context(), sale.Input{
		Lines:         body.Lines,
		Tax:           body.Tax,
		PaymentMethod: body.PaymentMethod,
		CashierID:     cashierID(c),
		CustomerID:    body.CustomerID,
		OrderID:       body.OrderID,
		TerminalID:    terminalID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}
