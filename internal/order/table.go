package order

import (
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// NewTableOrder builds an active dine-in order bound to a table.  The
// paid status is only ever reached through the sale executor, and
// cancellation always releases the table regardless of kitchen
// progress.  Both are enforced by the facade, which owns the sequencing.
func NewTableOrder(items []model.OrderItem, tableNumber string, priority model.OrderPriority) *model.Order {
	if priority == "" {
		priority = model.PriorityNormal
	}
	now := time.Now().UTC()
	return &model.Order{
		Kind:        model.KindTable,
		Status:      model.TableOrderActive,
		Items:       items,
		Priority:    priority,
		TableNumber: &tableNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
