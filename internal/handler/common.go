package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkhalitov/pos-terminal-sync/internal/allocator"
	"github.com/dkhalitov/pos-terminal-sync/internal/order"
	"github.com/dkhalitov/pos-terminal-sync/internal/repository"
	"github.com/dkhalitov/pos-terminal-sync/internal/sale"
)

// respondError translates the core's typed errors into HTTP responses.
// Caller-input errors (bad transitions, capacity violations, stock
// shortfalls) become 4xx with the error's own descriptive message; only
// genuine store faults surface as 500.
func respondError(c echo.Context, err error) error {
	var (
		invalidTransition *order.InvalidTransitionError
		capacityExceeded  *allocator.CapacityExceededError
		insufficientAvail *allocator.InsufficientAvailabilityError
		insufficientStock *sale.InsufficientStockError
		txAborted         *sale.TransactionAbortedError
	)
	switch {
	case errors.As(err, &invalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": err.Error()})
	case errors.As(err, &capacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_exceeded", "message": err.Error()})
	case errors.As(err, &insufficientAvail):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient_availability", "message": err.Error()})
	case errors.As(err, &insufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient_stock", "message": err.Error(), "product_id": insufficientStock.ProductID})
	case errors.As(err, &txAborted):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction_aborted", "message": err.Error()})
	case errors.Is(err, order.ErrItemLocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "item_locked", "message": err.Error()})
	case errors.Is(err, order.ErrNotActive),
		errors.Is(err, order.ErrItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, sale.ErrNoItems),
		errors.Is(err, allocator.ErrInvalidSeatCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "message": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "operation failed"})
	}
}

// terminalID reads the optional X-Terminal-ID header used to attribute
// actions in the status log and broadcasts.
func terminalID(c echo.Context) string {
	if id := c.Request().Header.Get("X-Terminal-ID"); id != "" {
		return id
	}
	return "server"
}

// cashierID extracts the authenticated user's subject claim, if the
// route ran behind JWTAuth.
func cashierID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}
