package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkhalitov/pos-terminal-sync/internal/service"
)

// TableHandler exposes seat allocation and release over HTTP.
type TableHandler struct {
	Facade *service.Facade
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(f *service.Facade) *TableHandler {
	if f == nil {
		panic("nil facade passed to NewTableHandler")
	}
	return &TableHandler{Facade: f}
}

// ListTables handles GET /v1/tables, the floor snapshot pull query.
func (h *TableHandler) ListTables(c echo.Context) error {
	tables := h.Facade.Tables()
	return c.JSON(http.StatusOK, echo.Map{"count": len(tables), "tables": tables})
}

// AllocateSeats handles POST /v1/tables/:number/allocate.  A zero or
// omitted seat count seats the whole table.
func (h *TableHandler) AllocateSeats(c echo.Context) error {
	number := c.Param("number")
	var body struct {
		Seats     int `json:"seats"`
		PartySize int `json:"party_size"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seats := body.Seats
	if seats == 0 {
		seats = body.PartySize
	}
	if seats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats or party_size must be a positive count"})
	}
	tbl, err := h.Facade.AllocateSeats(c.Request().Context(), number, seats)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tbl)
}

// ReleaseTable handles POST /v1/tables/:number/release.  Releasing an
// available table succeeds as a no-op.
func (h *TableHandler) ReleaseTable(c echo.Context) error {
	tbl, err := h.Facade.ReleaseTable(c.Request().Context(), c.Param("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tbl)
}

// SelectTable handles POST /v1/tables/:number/select.  A terminal
// switching its tentative selection automatically releases the table it
// selected before.
func (h *TableHandler) SelectTable(c echo.Context) error {
	tbl, err := h.Facade.SelectTable(c.Request().Context(), terminalID(c), c.Param("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tbl)
}
