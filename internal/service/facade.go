package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/allocator"
	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/order"
	"github.com/dkhalitov/pos-terminal-sync/internal/queue"
	"github.com/dkhalitov/pos-terminal-sync/internal/sale"
)

// OrderStore is the slice of the order repository the facade drives.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order, changedBy string) error
	UpdateStatus(ctx context.Context, orderID int, status, changedBy string) error
	UpdateItemStatus(ctx context.Context, orderID, itemID int, status model.ItemStatus) error
	UpdateItemQuantity(ctx context.Context, orderID, itemID, quantity int) error
}

// Publisher is the broadcast surface.  The returned delivery count is
// informational only: broadcast failure never rolls back the state
// change that triggered it.
type Publisher interface {
	Publish(eventType model.EventType, data any) int
}

// SaleCommitter is the atomic sale commit operation.
type SaleCommitter interface {
	CommitSale(ctx context.Context, in sale.Input) (*model.Sale, error)
}

// Facade is the entry point HTTP handlers invoke.  It holds no state of
// its own: it sequences the registry-backed hub, the allocator, the
// order machines and the sale executor per operation, compensating
// earlier steps when a later state-machine step fails.
type Facade struct {
	active   *order.ActiveStore
	orders   OrderStore
	alloc    *allocator.Allocator
	sales    SaleCommitter
	hub      Publisher
	notifier Notifier
}

// NewFacade wires the facade.  All dependencies must be non-nil.
func NewFacade(active *order.ActiveStore, orders OrderStore, alloc *allocator.Allocator, sales SaleCommitter, pub Publisher, notifier Notifier) *Facade {
	if active == nil || orders == nil || alloc == nil || sales == nil || pub == nil || notifier == nil {
		panic("nil dependency passed to NewFacade")
	}
	return &Facade{active: active, orders: orders, alloc: alloc, sales: sales, hub: pub, notifier: notifier}
}

// --- kitchen orders ---

// PlaceKitchenOrder validates the item list, creates an active kitchen
// ticket with every item in the ordered state, persists it and
// broadcasts it to all terminals.
func (f *Facade) PlaceKitchenOrder(ctx context.Context, items []model.OrderItem, priority model.OrderPriority, terminalID string) (model.Order, error) {
	if err := validateItems(items); err != nil {
		return model.Order{}, err
	}
	o := order.NewKitchenOrder(items, priority)
	if err := f.orders.Create(ctx, o, terminalID); err != nil {
		return model.Order{}, err
	}
	f.active.Put(o)
	f.hub.Publish(model.EventKitchenOrder, o)
	return *o, nil
}

// AdvanceKitchenItem moves one ticket item forward and broadcasts the
// new per-item status.  The in-memory transition and the database write
// succeed or fail together: a persistence error reverts the item.
func (f *Facade) AdvanceKitchenItem(ctx context.Context, orderID, itemID int, to model.ItemStatus, terminalID string) (model.Order, error) {
	updated, err := f.active.Mutate(orderID, func(o *model.Order) error {
		if err := order.AdvanceItem(o, itemID, to); err != nil {
			return err
		}
		return f.orders.UpdateItemStatus(ctx, orderID, itemID, to)
	})
	if err != nil {
		return model.Order{}, err
	}
	f.hub.Publish(model.EventOrderStatusUpdated, updated)
	return updated, nil
}

// EditKitchenItem applies a direct quantity change to an item that is
// still in the ordered state.  Items already in preparation are
// read-only to terminals; those edits must go through
// RequestItemModification.
func (f *Facade) EditKitchenItem(ctx context.Context, orderID, itemID, quantity int, terminalID string) (model.Order, error) {
	updated, err := f.active.Mutate(orderID, func(o *model.Order) error {
		if err := order.EditItem(o, itemID, quantity); err != nil {
			return err
		}
		return f.orders.UpdateItemQuantity(ctx, orderID, itemID, quantity)
	})
	if err != nil {
		return model.Order{}, err
	}
	f.hub.Publish(model.EventOrderStatusUpdated, updated)
	return updated, nil
}

// RequestItemModification routes a change to an in-preparation item as
// an explicit event for kitchen staff to accept or reject.  It mutates
// nothing; the broadcast is the whole operation.
func (f *Facade) RequestItemModification(ctx context.Context, orderID, itemID int, note string, terminalID string) error {
	o, ok := f.active.Get(orderID)
	if !ok {
		return order.ErrNotActive
	}
	found := false
	for _, it := range o.Items {
		if it.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return order.ErrItemNotFound
	}
	f.hub.Publish(model.EventModificationRequest, map[string]any{
		"order_id":     orderID,
		"item_id":      itemID,
		"note":         note,
		"requested_by": terminalID,
	})
	return nil
}

// --- online orders ---

// PlaceOnlineOrder registers a marketplace order in the received state.
func (f *Facade) PlaceOnlineOrder(ctx context.Context, items []model.OrderItem, platformID string, orderType model.OnlineOrderType, priority model.OrderPriority, terminalID string) (model.Order, error) {
	if err := validateItems(items); err != nil {
		return model.Order{}, err
	}
	if orderType != model.OnlineTakeout && orderType != model.OnlineDelivery {
		return model.Order{}, fmt.Errorf("invalid online order type %q", orderType)
	}
	o := order.NewOnlineOrder(items, platformID, orderType, priority)
	if err := f.orders.Create(ctx, o, terminalID); err != nil {
		return model.Order{}, err
	}
	f.active.Put(o)
	f.hub.Publish(model.EventOnlineOrder, o)
	return *o, nil
}

// AdvanceOnlineOrder applies one forward transition to a marketplace
// order.  Transitions past confirmed fire a best-effort notification to
// the originating platform after the change commits; a notify failure
// never rolls the transition back.
func (f *Facade) AdvanceOnlineOrder(ctx context.Context, orderID int, to string, terminalID string) (model.Order, error) {
	var prev string
	updated, err := f.active.Mutate(orderID, func(o *model.Order) error {
		// This entry point drives online orders only; table orders pay
		// through the sale executor and kitchen orders settle there too.
		if o.Kind != model.KindOnline {
			return &order.InvalidTransitionError{Kind: o.Kind, From: o.Status, To: to}
		}
		prev = o.Status
		if err := order.Transition(o, to); err != nil {
			return err
		}
		return f.orders.UpdateStatus(ctx, orderID, to, terminalID)
	})
	if err != nil {
		return model.Order{}, err
	}

	event := model.EventOrderStatusUpdated
	if to == model.OnlineCancelled {
		event = model.EventOrderCancelled
	}
	f.hub.Publish(event, updated)

	if order.NotifiesPlatform(to) && updated.PlatformID != nil {
		f.notifier.NotifyPlatform(ctx, queue.PlatformNotification{
			OrderID:        updated.ID,
			PlatformID:     *updated.PlatformID,
			OrderType:      string(updated.OrderType),
			NewStatus:      to,
			PreviousStatus: prev,
			OccurredAt:     time.Now().UTC(),
		})
	}
	return updated, nil
}

// --- table orders ---

// OpenTableOrder seats the party and opens a dine-in order on the table
// in one operation.  seats == 0 means the whole table.  If persisting
// the order fails after the seats were allocated, the allocation is
// compensated by releasing the table again.
func (f *Facade) OpenTableOrder(ctx context.Context, tableNumber string, seats int, items []model.OrderItem, priority model.OrderPriority, terminalID string) (model.Order, model.Table, error) {
	if err := validateItems(items); err != nil {
		return model.Order{}, model.Table{}, err
	}

	var (
		tbl model.Table
		err error
	)
	if seats == 0 {
		tbl, err = f.alloc.AutoAllocateAll(ctx, tableNumber)
	} else {
		tbl, err = f.alloc.AllocateSeats(ctx, tableNumber, seats)
	}
	if err != nil {
		return model.Order{}, model.Table{}, err
	}

	o := order.NewTableOrder(items, tableNumber, priority)
	if err := f.orders.Create(ctx, o, terminalID); err != nil {
		// Compensate: the party never got an order, free the seats.
		if _, relErr := f.alloc.ReleaseTable(ctx, tableNumber); relErr != nil {
			log.Printf("facade: failed to release table %s after order create error: %v", tableNumber, relErr)
		}
		return model.Order{}, model.Table{}, err
	}
	f.active.Put(o)
	f.alloc.ConfirmSelection(terminalID)

	f.hub.Publish(model.EventTableUpdated, tbl)
	f.hub.Publish(model.EventOrderStatusUpdated, o)
	return *o, tbl, nil
}

// CompleteSale commits the sale atomically and settles the linked
// order: a table order moves to paid, a kitchen order to completed.
// The linked order is validated before the commit so the immutable
// sale record is never written against an order that cannot settle.
func (f *Facade) CompleteSale(ctx context.Context, in sale.Input) (*model.Sale, error) {
	if in.OrderID != nil {
		o, ok := f.active.Get(*in.OrderID)
		if !ok {
			return nil, order.ErrNotActive
		}
		if o.Kind == model.KindTable && o.Status != model.TableOrderActive {
			return nil, &order.InvalidTransitionError{Kind: o.Kind, From: o.Status, To: model.TableOrderPaid}
		}
	}

	committed, err := f.sales.CommitSale(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.OrderID != nil {
		_, err := f.active.Mutate(*in.OrderID, func(o *model.Order) error {
			var settled string
			switch o.Kind {
			case model.KindTable:
				settled = model.TableOrderPaid
			case model.KindKitchen:
				settled = model.KitchenCompleted
			default:
				return nil
			}
			if err := order.Transition(o, settled); err != nil {
				return err
			}
			return f.orders.UpdateStatus(ctx, *in.OrderID, settled, in.TerminalID)
		})
		if err != nil {
			// The sale is committed and immutable; a lost race on the
			// order transition is logged, not surfaced as a failure.
			log.Printf("facade: sale %d committed but order %d not settled: %v", committed.ID, *in.OrderID, err)
		}
	}

	f.hub.Publish(model.EventNewSale, map[string]any{
		"sale_id":        committed.ID,
		"total":          committed.Total,
		"payment_method": committed.PaymentMethod,
		"cashier_id":     committed.CashierID,
		"customer_id":    committed.CustomerID,
		"terminal_id":    committed.TerminalID,
	})
	return committed, nil
}

// FinalizeTableOrder closes out a paid table order and frees the table.
func (f *Facade) FinalizeTableOrder(ctx context.Context, orderID int, terminalID string) (model.Order, error) {
	updated, err := f.active.Mutate(orderID, func(o *model.Order) error {
		if err := order.Transition(o, model.TableOrderCompleted); err != nil {
			return err
		}
		return f.orders.UpdateStatus(ctx, orderID, model.TableOrderCompleted, terminalID)
	})
	if err != nil {
		return model.Order{}, err
	}
	if updated.TableNumber != nil {
		f.releaseAndBroadcast(ctx, *updated.TableNumber)
	}
	f.hub.Publish(model.EventOrderStatusUpdated, updated)
	return updated, nil
}

// CancelOrder cancels an order of any kind, applying the kind's own
// cancellation rules.  A cancelled table order always releases its
// table, even when items are already in preparation.  Freeing physical
// capacity wins over preserving partial progress, and the broadcast
// carries the in-flight item ids so kitchen displays can drop them.
func (f *Facade) CancelOrder(ctx context.Context, orderID int, terminalID string) (model.Order, error) {
	updated, err := f.active.Mutate(orderID, func(o *model.Order) error {
		if err := order.Transition(o, "cancelled"); err != nil {
			return err
		}
		return f.orders.UpdateStatus(ctx, orderID, "cancelled", terminalID)
	})
	if err != nil {
		return model.Order{}, err
	}

	if updated.Kind == model.KindTable && updated.TableNumber != nil {
		f.releaseAndBroadcast(ctx, *updated.TableNumber)
	}

	inFlight := make([]int, 0)
	for _, it := range updated.Items {
		if it.Status == model.ItemBeingPrepared || it.Status == model.ItemReady {
			inFlight = append(inFlight, it.ID)
		}
	}
	f.hub.Publish(model.EventOrderCancelled, map[string]any{
		"order":           updated,
		"in_flight_items": inFlight,
		"cancelled_by":    terminalID,
	})
	return updated, nil
}

// --- tables ---

// AllocateSeats seats a party without opening an order.
func (f *Facade) AllocateSeats(ctx context.Context, tableNumber string, seats int) (model.Table, error) {
	tbl, err := f.alloc.AllocateSeats(ctx, tableNumber, seats)
	if err != nil {
		return model.Table{}, err
	}
	f.hub.Publish(model.EventTableUpdated, tbl)
	return tbl, nil
}

// ReleaseTable frees a table; releasing an available table is a no-op.
func (f *Facade) ReleaseTable(ctx context.Context, tableNumber string) (model.Table, error) {
	tbl, err := f.alloc.ReleaseTable(ctx, tableNumber)
	if err != nil {
		return model.Table{}, err
	}
	f.hub.Publish(model.EventTableUpdated, tbl)
	return tbl, nil
}

// SelectTable records a tentative table selection for a terminal,
// releasing that terminal's previous unconfirmed selection.
func (f *Facade) SelectTable(ctx context.Context, terminalID, tableNumber string) (model.Table, error) {
	tbl, err := f.alloc.SelectTable(ctx, terminalID, tableNumber)
	if err != nil {
		return model.Table{}, err
	}
	f.hub.Publish(model.EventTableUpdated, tbl)
	return tbl, nil
}

// Tables returns the floor snapshot for reconnecting terminals.
func (f *Facade) Tables() []model.Table { return f.alloc.Snapshot() }

// ActiveOrders returns every live order for reconnecting terminals.
func (f *Facade) ActiveOrders() []model.Order { return f.active.Snapshot() }

func (f *Facade) releaseAndBroadcast(ctx context.Context, tableNumber string) {
	tbl, err := f.alloc.ReleaseTable(ctx, tableNumber)
	if err != nil {
		log.Printf("facade: release table %s failed: %v", tableNumber, err)
		return
	}
	f.hub.Publish(model.EventTableUpdated, tbl)
}

func validateItems(items []model.OrderItem) error {
	if len(items) == 0 {
		return errors.New("order requires at least one item")
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("invalid quantity %d for item %q", it.Quantity, it.Name)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("invalid unit price for item %q", it.Name)
		}
	}
	return nil
}
