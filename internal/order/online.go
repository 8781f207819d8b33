package order

import (
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// NewOnlineOrder builds a marketplace order in the received state.  The
// order type decides which terminal state is reachable later: takeout
// orders finish picked_up, delivery orders finish delivered.
func NewOnlineOrder(items []model.OrderItem, platformID string, orderType model.OnlineOrderType, priority model.OrderPriority) *model.Order {
	if priority == "" {
		priority = model.PriorityNormal
	}
	now := time.Now().UTC()
	return &model.Order{
		Kind:       model.KindOnline,
		Status:     model.OnlineReceived,
		Items:      items,
		Priority:   priority,
		PlatformID: &platformID,
		OrderType:  orderType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NotifiesPlatform reports whether a forward transition into the given
// status should trigger an outbound notification to the originating
// platform.  Everything after confirmed notifies; the notification is a
// side effect dispatched by the facade, never a precondition of the
// transition itself.
func NotifiesPlatform(status string) bool {
	switch status {
	case model.OnlinePreparing, model.OnlineReady, model.OnlinePickedUp, model.OnlineDelivered:
		return true
	}
	return false
}
