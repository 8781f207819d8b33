package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

func kitchenOrder() *model.Order {
	o := NewKitchenOrder([]model.OrderItem{
		{ID: 1, Name: "burger", Quantity: 2, UnitPrice: 9.5},
		{ID: 2, Name: "fries", Quantity: 1, UnitPrice: 3.0},
	}, model.PriorityNormal)
	o.ID = 10
	return o
}

func TestKitchenOrderStartsActiveWithOrderedItems(t *testing.T) {
	o := kitchenOrder()
	assert.Equal(t, model.KindKitchen, o.Kind)
	assert.Equal(t, model.KitchenActive, o.Status)
	for _, it := range o.Items {
		assert.Equal(t, model.ItemOrdered, it.Status)
	}
}

func TestKitchenTransitions(t *testing.T) {
	o := kitchenOrder()
	require.NoError(t, Transition(o, model.KitchenCompleted))
	assert.True(t, IsTerminal(o))

	o = kitchenOrder()
	require.NoError(t, Transition(o, model.KitchenCancelled))
	assert.True(t, IsTerminal(o))

	o = kitchenOrder()
	require.NoError(t, Transition(o, model.KitchenCompleted))
	err := Transition(o, model.KitchenActive)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.KindKitchen, invalid.Kind)
	assert.Equal(t, model.KitchenCompleted, invalid.From)
}

func TestItemProgressIsMonotonic(t *testing.T) {
	o := kitchenOrder()

	require.NoError(t, AdvanceItem(o, 1, model.ItemBeingPrepared))
	require.NoError(t, AdvanceItem(o, 1, model.ItemReady))

	var invalid *InvalidTransitionError
	assert.ErrorAs(t, AdvanceItem(o, 1, model.ItemOrdered), &invalid)
	assert.ErrorAs(t, AdvanceItem(o, 1, model.ItemBeingPrepared), &invalid)
}

func TestAdvanceItemSkipsStraightToReady(t *testing.T) {
	o := kitchenOrder()
	require.NoError(t, AdvanceItem(o, 2, model.ItemReady))
	assert.Equal(t, model.ItemReady, o.Items[1].Status)
}

func TestAdvanceItemUnknownItem(t *testing.T) {
	o := kitchenOrder()
	assert.ErrorIs(t, AdvanceItem(o, 42, model.ItemReady), ErrItemNotFound)
}

func TestEditItemWhileOrdered(t *testing.T) {
	o := kitchenOrder()
	require.NoError(t, EditItem(o, 1, 5))
	assert.Equal(t, 5, o.Items[0].Quantity)
}

func TestEditItemZeroQuantityRemovesLine(t *testing.T) {
	o := kitchenOrder()
	require.NoError(t, EditItem(o, 1, 0))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].ID)
}

func TestEditItemLockedOnceInPreparation(t *testing.T) {
	o := kitchenOrder()
	require.NoError(t, AdvanceItem(o, 1, model.ItemBeingPrepared))

	assert.ErrorIs(t, EditItem(o, 1, 3), ErrItemLocked)
	// A sibling still in the ordered state stays editable.
	assert.NoError(t, EditItem(o, 2, 3))
}

func TestOnlineForwardPath(t *testing.T) {
	o := NewOnlineOrder(nil, "grubstub-77", model.OnlineTakeout, "")
	for _, to := range []string{model.OnlineConfirmed, model.OnlinePreparing, model.OnlineReady, model.OnlinePickedUp} {
		require.NoError(t, Transition(o, to))
	}
	assert.True(t, IsTerminal(o))
}

func TestOnlineCancelWindowClosesAtReady(t *testing.T) {
	o := NewOnlineOrder(nil, "grubstub-77", model.OnlineDelivery, "")
	require.NoError(t, Transition(o, model.OnlineConfirmed))
	require.NoError(t, Transition(o, model.OnlinePreparing))
	require.NoError(t, Transition(o, model.OnlineReady))

	var invalid *InvalidTransitionError
	err := Transition(o, model.OnlineCancelled)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.OnlineReady, invalid.From)
	assert.Equal(t, model.OnlineCancelled, invalid.To)
}

func TestOnlineTerminalStateGatedByOrderType(t *testing.T) {
	takeout := NewOnlineOrder(nil, "p1", model.OnlineTakeout, "")
	require.NoError(t, Transition(takeout, model.OnlineConfirmed))
	require.NoError(t, Transition(takeout, model.OnlinePreparing))
	require.NoError(t, Transition(takeout, model.OnlineReady))

	var invalid *InvalidTransitionError
	assert.ErrorAs(t, Transition(takeout, model.OnlineDelivered), &invalid)
	assert.NoError(t, Transition(takeout, model.OnlinePickedUp))

	delivery := NewOnlineOrder(nil, "p2", model.OnlineDelivery, "")
	require.NoError(t, Transition(delivery, model.OnlineConfirmed))
	require.NoError(t, Transition(delivery, model.OnlinePreparing))
	require.NoError(t, Transition(delivery, model.OnlineReady))

	assert.ErrorAs(t, Transition(delivery, model.OnlinePickedUp), &invalid)
	assert.NoError(t, Transition(delivery, model.OnlineDelivered))
}

func TestOnlineNoSkippingStates(t *testing.T) {
	o := NewOnlineOrder(nil, "p1", model.OnlineTakeout, "")
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, Transition(o, model.OnlineReady), &invalid)
	assert.ErrorAs(t, Transition(o, model.OnlinePickedUp), &invalid)
}

func TestTableOrderLifecycle(t *testing.T) {
	o := NewTableOrder(nil, "5", "")
	require.NoError(t, Transition(o, model.TableOrderPaid))
	assert.False(t, IsTerminal(o), "paid order still needs finalizing")
	require.NoError(t, Transition(o, model.TableOrderCompleted))
	assert.True(t, IsTerminal(o))
}

func TestTableOrderCannotPayTwice(t *testing.T) {
	o := NewTableOrder(nil, "5", "")
	require.NoError(t, Transition(o, model.TableOrderPaid))

	var invalid *InvalidTransitionError
	require.ErrorAs(t, Transition(o, model.TableOrderPaid), &invalid)
}

func TestTableOrderCancelOnlyWhileActive(t *testing.T) {
	o := NewTableOrder(nil, "5", "")
	require.NoError(t, Transition(o, model.TableOrderCancelled))
	assert.True(t, IsTerminal(o))

	o = NewTableOrder(nil, "5", "")
	require.NoError(t, Transition(o, model.TableOrderPaid))
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, Transition(o, model.TableOrderCancelled), &invalid)
}

func TestNotifiesPlatform(t *testing.T) {
	assert.False(t, NotifiesPlatform(model.OnlineReceived))
	assert.False(t, NotifiesPlatform(model.OnlineConfirmed))
	assert.True(t, NotifiesPlatform(model.OnlinePreparing))
	assert.True(t, NotifiesPlatform(model.OnlineReady))
	assert.True(t, NotifiesPlatform(model.OnlinePickedUp))
	assert.True(t, NotifiesPlatform(model.OnlineDelivered))
}
