package order

import (
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// NewKitchenOrder builds an active kitchen ticket with every item in
// the ordered state.  The caller validates that items is non-empty.
func NewKitchenOrder(items []model.OrderItem, priority model.OrderPriority) *model.Order {
	if priority == "" {
		priority = model.PriorityNormal
	}
	for i := range items {
		items[i].Status = model.ItemOrdered
	}
	now := time.Now().UTC()
	return &model.Order{
		Kind:      model.KindKitchen,
		Status:    model.KitchenActive,
		Items:     items,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AdvanceItem moves one kitchen item forward through
// ordered -> being_prepared -> ready.  Item progress is monotonic: an
// item in preparation can never revert to ordered, so backward edges
// fail with InvalidTransitionError just like order-level ones.
func AdvanceItem(o *model.Order, itemID int, to model.ItemStatus) error {
	if o.Kind != model.KindKitchen {
		return &InvalidTransitionError{Kind: o.Kind, From: o.Status, To: string(to)}
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.ID != itemID {
			continue
		}
		if !itemEdges[it.Status][to] {
			return &InvalidTransitionError{Kind: o.Kind, From: string(it.Status), To: string(to)}
		}
		it.Status = to
		o.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrItemNotFound
}

// EditItem applies a direct quantity change to a kitchen item.  Direct
// edits are only allowed while the item is still in the ordered state;
// once the kitchen has picked it up the line is read-only to terminals
// and the change must travel as a modification request.  A quantity of
// zero removes the line.
func EditItem(o *model.Order, itemID, quantity int) error {
	if quantity < 0 {
		return ErrItemNotFound
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.ID != itemID {
			continue
		}
		if it.Status != model.ItemOrdered {
			return ErrItemLocked
		}
		if quantity == 0 {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
		} else {
			it.Quantity = quantity
		}
		o.UpdatedAt = time.Now().UTC()
		return nil
	}
	return ErrItemNotFound
}
