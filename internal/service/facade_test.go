package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhalitov/pos-terminal-sync/internal/allocator"
	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/order"
	"github.com/dkhalitov/pos-terminal-sync/internal/queue"
	"github.com/dkhalitov/pos-terminal-sync/internal/sale"
)

type fakeOrderStore struct {
	nextID       int
	createErr    error
	statusWrites []string
	updateErr    error
}

func (f *fakeOrderStore) Create(_ context.Context, o *model.Order, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	o.ID = f.nextID
	for i := range o.Items {
		o.Items[i].ID = i + 1
	}
	return nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, _ int, status, _ string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func (f *fakeOrderStore) UpdateItemStatus(_ context.Context, _, _ int, _ model.ItemStatus) error {
	return f.updateErr
}

func (f *fakeOrderStore) UpdateItemQuantity(_ context.Context, _, _, _ int) error {
	return f.updateErr
}

type published struct {
	event model.EventType
	data  any
}

type fakePublisher struct {
	events []published
}

func (f *fakePublisher) Publish(eventType model.EventType, data any) int {
	f.events = append(f.events, published{event: eventType, data: data})
	return 0
}

func (f *fakePublisher) types() []model.EventType {
	out := make([]model.EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.event
	}
	return out
}

type fakeCommitter struct {
	err   error
	calls int
}

func (f *fakeCommitter) CommitSale(_ context.Context, in sale.Input) (*model.Sale, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Sale{
		ID:            100 + f.calls,
		Total:         42.0,
		PaymentMethod: in.PaymentMethod,
		CashierID:     in.CashierID,
		OrderID:       in.OrderID,
		TerminalID:    in.TerminalID,
	}, nil
}

type fakeNotifier struct {
	sent []queue.PlatformNotification
}

func (f *fakeNotifier) NotifyPlatform(_ context.Context, n queue.PlatformNotification) {
	f.sent = append(f.sent, n)
}

type tableStoreStub struct{}

func (tableStoreStub) SaveState(context.Context, model.Table) error { return nil }

type facadeFixture struct {
	facade    *Facade
	orders    *fakeOrderStore
	pub       *fakePublisher
	committer *fakeCommitter
	notifier  *fakeNotifier
	alloc     *allocator.Allocator
	active    *order.ActiveStore
}

func newFixture(t *testing.T) *facadeFixture {
	t.Helper()
	fx := &facadeFixture{
		orders:    &fakeOrderStore{},
		pub:       &fakePublisher{},
		committer: &fakeCommitter{},
		notifier:  &fakeNotifier{},
		active:    order.NewActiveStore(nil),
	}
	fx.alloc = allocator.New(tableStoreStub{}, []model.Table{
		{Number: "1", Capacity: 4, Status: model.TableAvailable},
		{Number: "2", Capacity: 2, Status: model.TableAvailable},
	})
	fx.facade = NewFacade(fx.active, fx.orders, fx.alloc, fx.committer, fx.pub, fx.notifier)
	return fx
}

func items() []model.OrderItem {
	return []model.OrderItem{{ProductID: 1, Name: "burger", Quantity: 1, UnitPrice: 9.5}}
}

func TestPlaceKitchenOrderBroadcasts(t *testing.T) {
	fx := newFixture(t)
	o, err := fx.facade.PlaceKitchenOrder(context.Background(), items(), "", "till-1")
	require.NoError(t, err)
	assert.Equal(t, model.KitchenActive, o.Status)
	assert.NotZero(t, o.ID)
	assert.Equal(t, []model.EventType{model.EventKitchenOrder}, fx.pub.types())

	_, ok := fx.active.Get(o.ID)
	assert.True(t, ok)
}

func TestPlaceKitchenOrderRejectsEmptyItems(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.facade.PlaceKitchenOrder(context.Background(), nil, "", "till-1")
	assert.Error(t, err)
	assert.Empty(t, fx.pub.events)
}

func TestAdvanceKitchenItemPersistenceFailureReverts(t *testing.T) {
	fx := newFixture(t)
	o, err := fx.facade.PlaceKitchenOrder(context.Background(), items(), "", "till-1")
	require.NoError(t, err)

	fx.orders.updateErr = errors.New("db down")
	_, err = fx.facade.AdvanceKitchenItem(context.Background(), o.ID, 1, model.ItemBeingPrepared, "till-1")
	require.Error(t, err)

	got, ok := fx.active.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, model.ItemOrdered, got.Items[0].Status, "failed persistence must revert the in-memory transition")
}

func TestAdvanceOnlineOrderNotifiesPlatform(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, err := fx.facade.PlaceOnlineOrder(ctx, items(), "grubstub-9", model.OnlineTakeout, "", "till-1")
	require.NoError(t, err)

	_, err = fx.facade.AdvanceOnlineOrder(ctx, o.ID, model.OnlineConfirmed, "till-1")
	require.NoError(t, err)
	assert.Empty(t, fx.notifier.sent, "confirmed does not notify")

	_, err = fx.facade.AdvanceOnlineOrder(ctx, o.ID, model.OnlinePreparing, "till-1")
	require.NoError(t, err)
	require.Len(t, fx.notifier.sent, 1)
	n := fx.notifier.sent[0]
	assert.Equal(t, "grubstub-9", n.PlatformID)
	assert.Equal(t, model.OnlinePreparing, n.NewStatus)
	assert.Equal(t, model.OnlineConfirmed, n.PreviousStatus)
}

func TestAdvanceOnlineOrderRejectsOtherKinds(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	tableOrder, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, items(), "", "till-1")
	require.NoError(t, err)
	_, err = fx.facade.AdvanceOnlineOrder(ctx, tableOrder.ID, model.TableOrderPaid, "till-1")
	var invalid *order.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.KindTable, invalid.Kind)

	got, ok := fx.active.Get(tableOrder.ID)
	require.True(t, ok)
	assert.Equal(t, model.TableOrderActive, got.Status, "a table order must only reach paid through the sale executor")
	assert.Zero(t, fx.committer.calls)

	kitchenOrder, err := fx.facade.PlaceKitchenOrder(ctx, items(), "", "till-1")
	require.NoError(t, err)
	_, err = fx.facade.AdvanceOnlineOrder(ctx, kitchenOrder.ID, model.KitchenCompleted, "till-1")
	require.ErrorAs(t, err, &invalid)

	got, ok = fx.active.Get(kitchenOrder.ID)
	require.True(t, ok)
	assert.Equal(t, model.KitchenActive, got.Status)
}

func TestAdvanceOnlineOrderInvalidTransition(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, err := fx.facade.PlaceOnlineOrder(ctx, items(), "grubstub-9", model.OnlineTakeout, "", "till-1")
	require.NoError(t, err)

	_, err = fx.facade.AdvanceOnlineOrder(ctx, o.ID, model.OnlineReady, "till-1")
	var invalid *order.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, fx.notifier.sent)
}

func TestPlaceOnlineOrderRejectsUnknownType(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.facade.PlaceOnlineOrder(context.Background(), items(), "p", "drone", "", "till-1")
	assert.Error(t, err)
}

func TestOpenTableOrderSeatsAndBroadcasts(t *testing.T) {
	fx := newFixture(t)
	o, tbl, err := fx.facade.OpenTableOrder(context.Background(), "1", 3, items(), "", "till-1")
	require.NoError(t, err)
	assert.Equal(t, model.TableOrderActive, o.Status)
	require.NotNil(t, o.TableNumber)
	assert.Equal(t, "1", *o.TableNumber)
	assert.Equal(t, 3, tbl.OccupiedSeats)
	assert.Equal(t, model.TableOccupied, tbl.Status)
	assert.Equal(t, []model.EventType{model.EventTableUpdated, model.EventOrderStatusUpdated}, fx.pub.types())
}

func TestOpenTableOrderCompensatesOnCreateFailure(t *testing.T) {
	fx := newFixture(t)
	fx.orders.createErr = errors.New("db down")

	_, _, err := fx.facade.OpenTableOrder(context.Background(), "1", 3, items(), "", "till-1")
	require.Error(t, err)

	tbl, err := fx.alloc.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status, "seats must be freed when the order cannot be created")
	assert.Equal(t, 0, tbl.OccupiedSeats)
}

func TestCompleteSaleMarksTableOrderPaid(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, items(), "", "till-1")
	require.NoError(t, err)

	s, err := fx.facade.CompleteSale(ctx, sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "card",
		OrderID:       &o.ID,
		TerminalID:    "till-1",
	})
	require.NoError(t, err)

	got, ok := fx.active.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, model.TableOrderPaid, got.Status)
	assert.Contains(t, fx.orders.statusWrites, model.TableOrderPaid)

	last := fx.pub.events[len(fx.pub.events)-1]
	assert.Equal(t, model.EventNewSale, last.event)
	data := last.data.(map[string]any)
	assert.Equal(t, s.ID, data["sale_id"])
}

func TestCompleteSaleSettlesKitchenOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, err := fx.facade.PlaceKitchenOrder(ctx, items(), "", "till-1")
	require.NoError(t, err)

	_, err = fx.facade.CompleteSale(ctx, sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "cash",
		OrderID:       &o.ID,
		TerminalID:    "till-1",
	})
	require.NoError(t, err)

	assert.Contains(t, fx.orders.statusWrites, model.KitchenCompleted)
	_, ok := fx.active.Get(o.ID)
	assert.False(t, ok, "a settled kitchen order leaves the active set")
}

func TestCompleteSaleRejectsSettledOrderBeforeCommit(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, items(), "", "till-1")
	require.NoError(t, err)

	in := sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "card",
		OrderID:       &o.ID,
	}
	_, err = fx.facade.CompleteSale(ctx, in)
	require.NoError(t, err)

	// Second settle attempt fails before the committer runs again.
	calls := fx.committer.calls
	_, err = fx.facade.CompleteSale(ctx, in)
	var invalid *order.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, calls, fx.committer.calls, "the immutable sale must not be committed against an unsettleable order")
}

func TestCompleteSaleCommitFailurePropagates(t *testing.T) {
	fx := newFixture(t)
	fx.committer.err = &sale.InsufficientStockError{ProductID: 1, Requested: 5, Available: 2}

	_, err := fx.facade.CompleteSale(context.Background(), sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 5}},
		PaymentMethod: "cash",
	})
	var stockErr *sale.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Empty(t, fx.pub.events)
}

func TestFinalizeTableOrderFreesTable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, items(), "", "till-1")
	require.NoError(t, err)
	_, err = fx.facade.CompleteSale(ctx, sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "card",
		OrderID:       &o.ID,
	})
	require.NoError(t, err)

	done, err := fx.facade.FinalizeTableOrder(ctx, o.ID, "till-1")
	require.NoError(t, err)
	assert.Equal(t, model.TableOrderCompleted, done.Status)

	tbl, err := fx.alloc.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status)

	_, ok := fx.active.Get(o.ID)
	assert.False(t, ok, "completed orders leave the active set")
}

func TestCancelTableOrderReleasesTableAndListsInFlightItems(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	twoItems := []model.OrderItem{
		{ProductID: 1, Name: "burger", Quantity: 1, UnitPrice: 9.5},
		{ProductID: 2, Name: "fries", Quantity: 1, UnitPrice: 3.0},
	}
	o, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, twoItems, "", "till-1")
	require.NoError(t, err)

	// Put one item in flight so the cancel broadcast carries it.
	_, err = fx.active.Mutate(o.ID, func(o *model.Order) error {
		o.Items[0].Status = model.ItemBeingPrepared
		return nil
	})
	require.NoError(t, err)

	cancelled, err := fx.facade.CancelOrder(ctx, o.ID, "till-2")
	require.NoError(t, err)
	assert.Equal(t, model.TableOrderCancelled, cancelled.Status)

	tbl, err := fx.alloc.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status, "cancellation always frees the table")

	last := fx.pub.events[len(fx.pub.events)-1]
	require.Equal(t, model.EventOrderCancelled, last.event)
	data := last.data.(map[string]any)
	assert.Equal(t, []int{1}, data["in_flight_items"])
	assert.Equal(t, "till-2", data["cancelled_by"])
}

func TestCancelPaidTableOrderFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, _, err := fx.facade.OpenTableOrder(ctx, "1", 2, items(), "", "till-1")
	require.NoError(t, err)
	_, err = fx.facade.CompleteSale(ctx, sale.Input{
		Lines:         []sale.LineInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: "card",
		OrderID:       &o.ID,
	})
	require.NoError(t, err)

	_, err = fx.facade.CancelOrder(ctx, o.ID, "till-1")
	var invalid *order.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	tbl, err := fx.alloc.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, tbl.Status, "failed cancellation must not free the table")
}

func TestRequestItemModificationBroadcastsOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o, err := fx.facade.PlaceKitchenOrder(ctx, items(), "", "till-1")
	require.NoError(t, err)

	err = fx.facade.RequestItemModification(ctx, o.ID, 1, "no onions", "till-2")
	require.NoError(t, err)

	last := fx.pub.events[len(fx.pub.events)-1]
	require.Equal(t, model.EventModificationRequest, last.event)
	data := last.data.(map[string]any)
	assert.Equal(t, "no onions", data["note"])
	assert.Equal(t, "till-2", data["requested_by"])

	got, ok := fx.active.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Items[0].Quantity, "a modification request changes nothing")
}

func TestRequestItemModificationUnknownItem(t *testing.T) {
	fx := newFixture(t)
	o, err := fx.facade.PlaceKitchenOrder(context.Background(), items(), "", "till-1")
	require.NoError(t, err)

	err = fx.facade.RequestItemModification(context.Background(), o.ID, 42, "", "till-1")
	assert.ErrorIs(t, err, order.ErrItemNotFound)
}
