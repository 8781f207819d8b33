// Package order implements the three order state machines (kitchen,
// online marketplace and table) over the shared model.Order shape.
// Transitions are pure in-memory computations: the facade persists the
// outcome and publishes broadcasts, the machines only decide what is
// allowed.  No transition is valid except those in the per-kind edge
// sets below; everything else fails with InvalidTransitionError.
package order

import (
	"errors"
	"fmt"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// InvalidTransitionError identifies a rejected status change by order
// kind, current state and requested state.
type InvalidTransitionError struct {
	Kind model.OrderKind
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s order: invalid transition %s -> %s", e.Kind, e.From, e.To)
}

// ErrItemNotFound is returned when an item id does not belong to the
// order being modified.
var ErrItemNotFound = errors.New("order item not found")

// ErrNotActive is returned when an order id does not resolve to a live
// order: it never existed, or it already reached a terminal state.
var ErrNotActive = errors.New("order is not active")

// ErrItemLocked is returned when a direct edit targets a kitchen item
// that has left the ordered state.  Such changes must be routed as an
// explicit modification request instead.
var ErrItemLocked = errors.New("item is already in preparation; submit a modification request")

// transition tables, one per kind: from -> set of allowed targets

var kitchenEdges = map[string]map[string]bool{
	model.KitchenActive: {model.KitchenCompleted: true, model.KitchenCancelled: true},
}

var onlineEdges = map[string]map[string]bool{
	model.OnlineReceived:  {model.OnlineConfirmed: true, model.OnlineCancelled: true},
	model.OnlineConfirmed: {model.OnlinePreparing: true, model.OnlineCancelled: true},
	model.OnlinePreparing: {model.OnlineReady: true, model.OnlineCancelled: true},
	model.OnlineReady:     {model.OnlinePickedUp: true, model.OnlineDelivered: true},
}

var tableEdges = map[string]map[string]bool{
	model.TableOrderActive: {model.TableOrderPaid: true, model.TableOrderCancelled: true},
	model.TableOrderPaid:   {model.TableOrderCompleted: true},
}

var itemEdges = map[model.ItemStatus]map[model.ItemStatus]bool{
	model.ItemOrdered:       {model.ItemBeingPrepared: true, model.ItemReady: true},
	model.ItemBeingPrepared: {model.ItemReady: true},
}

// Transition applies a status change to an order of any kind, failing
// with InvalidTransitionError for edges outside the allowed set.  For
// online orders the terminal state is additionally gated by the order
// type: a takeout order can only finish picked_up, a delivery order
// only delivered.
func Transition(o *model.Order, to string) error {
	var edges map[string]map[string]bool
	switch o.Kind {
	case model.KindKitchen:
		edges = kitchenEdges
	case model.KindOnline:
		edges = onlineEdges
	case model.KindTable:
		edges = tableEdges
	default:
		return &InvalidTransitionError{Kind: o.Kind, From: o.Status, To: to}
	}
	if !edges[o.Status][to] {
		return &InvalidTransitionError{Kind: o.Kind, From: o.Status, To: to}
	}
	if o.Kind == model.KindOnline {
		if to == model.OnlinePickedUp && o.OrderType != model.OnlineTakeout {
			return &InvalidTransitionError{Kind: o.Kind, From: o.Status, To: to}
		}
		if to == model.OnlineDelivered && o.OrderType != model.OnlineDelivery {
			return &InvalidTransitionError{Kind: o.Kind, From: o.Status, To: to}
		}
	}
	o.Status = to
	return nil
}

// IsTerminal reports whether a status ends the order's lifecycle for
// its kind.
func IsTerminal(o *model.Order) bool {
	switch o.Status {
	case model.KitchenCompleted, model.KitchenCancelled, model.OnlinePickedUp, model.OnlineDelivered:
		return true
	}
	return false
}
