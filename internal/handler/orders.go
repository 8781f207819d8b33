package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/service"
)

// OrderHandler exposes the facade's order operations over HTTP.  All
// validation beyond JSON shape lives in the facade and the state
// machines; handlers only bind, call and translate errors.
type OrderHandler struct {
	Facade *service.Facade
}

// NewOrderHandler constructs an OrderHandler.  The facade must be
// non-nil.
func NewOrderHandler(f *service.Facade) *OrderHandler {
	if f == nil {
		panic("nil facade passed to NewOrderHandler")
	}
	return &OrderHandler{Facade: f}
}

type orderItemBody struct {
	ProductID   int     `json:"product_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	PrepMinutes int     `json:"prep_minutes"`
}

func toModelItems(in []orderItemBody) []model.OrderItem {
	out := make([]model.OrderItem, len(in))
	for i, b := range in {
		out[i] = model.OrderItem{
			ProductID:   b.ProductID,
			Name:        b.Name,
			Quantity:    b.Quantity,
			UnitPrice:   b.UnitPrice,
			PrepMinutes: b.PrepMinutes,
		}
	}
	return out
}

// PlaceKitchenOrder handles POST /v1/orders/kitchen.
func (h *OrderHandler) PlaceKitchenOrder(c echo.Context) error {
	var body struct {
		Items    []orderItemBody     `json:"items"`
		Priority model.OrderPriority `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}
	o, err := h.Facade.PlaceKitchenOrder(c.Request().Context(), toModelItems(body.Items), body.Priority, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// AdvanceKitchenItem handles POST /v1/orders/kitchen/:id/items/:item/status.
func (h *OrderHandler) AdvanceKitchenItem(c echo.Context) error {
	orderID, itemID, err := orderItemParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Status model.ItemStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	o, err := h.Facade.AdvanceKitchenItem(c.Request().Context(), orderID, itemID, body.Status, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// EditKitchenItem handles POST /v1/orders/kitchen/:id/items/:item.
// Quantity zero removes the line.  Items already in preparation are
// rejected here; use the modification-request endpoint instead.
func (h *OrderHandler) EditKitchenItem(c echo.Context) error {
	orderID, itemID, err := orderItemParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil || body.Quantity == nil || *body.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity is required"})
	}
	o, err := h.Facade.EditKitchenItem(c.Request().Context(), orderID, itemID, *body.Quantity, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// RequestItemModification handles
// POST /v1/orders/kitchen/:id/items/:item/modification-request.
func (h *OrderHandler) RequestItemModification(c echo.Context) error {
	orderID, itemID, err := orderItemParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Facade.RequestItemModification(c.Request().Context(), orderID, itemID, body.Note, terminalID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "modification requested"})
}

// PlaceOnlineOrder handles POST /v1/orders/online.
func (h *OrderHandler) PlaceOnlineOrder(c echo.Context) error {
	var body struct {
		Items      []orderItemBody       `json:"items"`
		PlatformID string                `json:"platform_id"`
		OrderType  model.OnlineOrderType `json:"order_type"`
		Priority   model.OrderPriority   `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PlatformID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "platform_id is required"})
	}
	o, err := h.Facade.PlaceOnlineOrder(c.Request().Context(), toModelItems(body.Items), body.PlatformID, body.OrderType, body.Priority, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// AdvanceOnlineOrder handles POST /v1/orders/online/:id/status.
func (h *OrderHandler) AdvanceOnlineOrder(c echo.Context) error {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	o, err := h.Facade.AdvanceOnlineOrder(c.Request().Context(), orderID, body.Status, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// OpenTableOrder handles POST /v1/orders/table.
func (h *OrderHandler) OpenTableOrder(c echo.Context) error {
	var body struct {
		TableNumber string              `json:"table_number"`
		Seats       int                 `json:"seats"`
		Items       []orderItemBody     `json:"items"`
		Priority    model.OrderPriority `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number is required"})
	}
	if body.Seats < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must not be negative"})
	}
	o, tbl, err := h.Facade.OpenTableOrder(c.Request().Context(), body.TableNumber, body.Seats, toModelItems(body.Items), body.Priority, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"order": o, "table": tbl})
}

// FinalizeTableOrder handles POST /v1/orders/table/:id/finalize.
func (h *OrderHandler) FinalizeTableOrder(c echo.Context) error {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Facade.FinalizeTableOrder(c.Request().Context(), orderID, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// CancelOrder handles POST /v1/orders/:id/cancel for all order kinds.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Facade.CancelOrder(c.Request().Context(), orderID, terminalID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// ListActiveOrders handles GET /v1/orders/active, the pull query a
// reconnecting terminal uses to rebuild its view.
func (h *OrderHandler) ListActiveOrders(c echo.Context) error {
	orders := h.Facade.ActiveOrders()
	return c.JSON(http.StatusOK, echo.Map{"count": len(orders), "orders": orders})
}

func orderItemParams(c echo.Context) (orderID, itemID int, err error) {
	orderID, err = strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return 0, 0, errors.New("invalid order id")
	}
	itemID, err = strconv.Atoi(c.Param("item"))
	if err != nil || itemID <= 0 {
		return 0, 0, errors.New("invalid item id")
	}
	return orderID, itemID, nil
}
