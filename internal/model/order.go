package model

import "time"

// OrderKind tags the three order variants.  The kind decides which
// status enumeration and transition table applies.
type OrderKind string

const (
	KindKitchen OrderKind = "kitchen"
	KindOnline  OrderKind = "online"
	KindTable   OrderKind = "table"
)

// OrderPriority is either normal or high.  High-priority orders are
// sorted first on kitchen displays; the server does not interpret the
// value beyond carrying it.
type OrderPriority string

const (
	PriorityNormal OrderPriority = "normal"
	PriorityHigh   OrderPriority = "high"
)

// ItemStatus tracks preparation progress of a single kitchen item.
// Transitions are monotonic: ordered -> being_prepared -> ready.
type ItemStatus string

const (
	ItemOrdered       ItemStatus = "ordered"
	ItemBeingPrepared ItemStatus = "being_prepared"
	ItemReady         ItemStatus = "ready"
)

// Kitchen order statuses.
const (
	KitchenActive    = "active"
	KitchenCompleted = "completed"
	KitchenCancelled = "cancelled"
)

// Online (marketplace) order statuses.  PickedUp terminates takeout
// orders, Delivered terminates delivery orders; the two are never
// reachable from the other order type.
const (
	OnlineReceived  = "received"
	OnlineConfirmed = "confirmed"
	OnlinePreparing = "preparing"
	OnlineReady     = "ready"
	OnlinePickedUp  = "picked_up"
	OnlineDelivered = "delivered"
	OnlineCancelled = "cancelled"
)

// OnlineOrderType distinguishes takeout from delivery marketplace orders.
type OnlineOrderType string

const (
	OnlineTakeout  OnlineOrderType = "takeout"
	OnlineDelivery OnlineOrderType = "delivery"
)

// Table order statuses.  Paid is only reachable through a successful
// sale commit; cancelled always releases the table.
const (
	TableOrderActive    = "active"
	TableOrderPaid      = "paid"
	TableOrderCompleted = "completed"
	TableOrderCancelled = "cancelled"
)

// OrderItem is one line of an order.  ItemStatus is only meaningful for
// kitchen orders; the other kinds leave it empty.
type OrderItem struct {
	ID          int        `json:"id"`
	ProductID   int        `json:"product_id"`
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	PrepMinutes int        `json:"prep_minutes,omitempty"`
	Status      ItemStatus `json:"status,omitempty"`
}

// Order is the shared shape of all three order kinds.  Kind-specific
// fields (TableNumber, PlatformID, OrderType) are pointers or zero
// values when they do not apply.
//
// Orders are never physically deleted: terminal statuses are retained
// for audit and only removed by explicit maintenance.
type Order struct {
	ID          int             `json:"id"`
	Kind        OrderKind       `json:"kind"`
	Status      string          `json:"status"`
	Items       []OrderItem     `json:"items"`
	Priority    OrderPriority   `json:"priority"`
	TableNumber *string         `json:"table_number,omitempty"`
	PlatformID  *string         `json:"platform_id,omitempty"`
	OrderType   OnlineOrderType `json:"order_type,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
