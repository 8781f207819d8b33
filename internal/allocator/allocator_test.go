package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/repository"
)

type fakeTableStore struct {
	saved   []model.Table
	saveErr error
}

func (f *fakeTableStore) SaveState(_ context.Context, t model.Table) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, t)
	return nil
}

func newTestAllocator(store TableStore) *Allocator {
	return New(store, []model.Table{
		{Number: "1", Capacity: 4, Status: model.TableAvailable},
		{Number: "2", Capacity: 2, Status: model.TableAvailable},
		{Number: "3", Capacity: 6, Status: model.TableReserved},
	})
}

func TestAllocateSeatsOccupiesTable(t *testing.T) {
	ctx := context.Background()
	store := &fakeTableStore{}
	a := newTestAllocator(store)

	tbl, err := a.AllocateSeats(ctx, "1", 4)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, tbl.Status)
	assert.Equal(t, 4, tbl.OccupiedSeats)
	assert.Equal(t, 0, tbl.AvailableSeats())
	require.Len(t, store.saved, 1)
	assert.Equal(t, tbl, store.saved[0])
}

func TestAllocateSeatsRejectsNonPositiveCounts(t *testing.T) {
	ctx := context.Background()
	store := &fakeTableStore{}
	a := newTestAllocator(store)

	for _, seats := range []int{0, -3} {
		_, err := a.AllocateSeats(ctx, "1", seats)
		require.ErrorIs(t, err, ErrInvalidSeatCount)
	}

	tbl, err := a.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status)
	assert.Equal(t, 0, tbl.OccupiedSeats)
	assert.Empty(t, store.saved)
}

func TestAllocateSeatsBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.AllocateSeats(ctx, "1", 5)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "1", capErr.Table)
	assert.Equal(t, 5, capErr.Requested)
	assert.Equal(t, 4, capErr.Capacity)

	// The failed request must not change the table.
	tbl, err := a.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status)
	assert.Equal(t, 0, tbl.OccupiedSeats)
}

func TestAllocateSeatsOnPartiallyOccupiedTable(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.AllocateSeats(ctx, "1", 3)
	require.NoError(t, err)

	_, err = a.AllocateSeats(ctx, "1", 2)
	var availErr *InsufficientAvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, 2, availErr.Requested)
	assert.Equal(t, 1, availErr.Available)
}

func TestAllocateSeatsUnknownTable(t *testing.T) {
	a := newTestAllocator(&fakeTableStore{})
	_, err := a.AllocateSeats(context.Background(), "99", 2)
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
}

func TestAllocateSeatsKeepsReservedStatus(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	tbl, err := a.AllocateSeats(ctx, "3", 4)
	require.NoError(t, err)
	assert.Equal(t, model.TableReserved, tbl.Status)
	assert.Equal(t, 4, tbl.OccupiedSeats)
}

func TestAllocateSeatsRevertsOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := &fakeTableStore{saveErr: errors.New("db down")}
	a := newTestAllocator(store)

	_, err := a.AllocateSeats(ctx, "1", 2)
	require.Error(t, err)

	tbl, getErr := a.Get("1")
	require.NoError(t, getErr)
	assert.Equal(t, model.TableAvailable, tbl.Status)
	assert.Equal(t, 0, tbl.OccupiedSeats)
}

func TestReleaseTableResetsState(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.AllocateSeats(ctx, "1", 4)
	require.NoError(t, err)

	tbl, err := a.ReleaseTable(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tbl.Status)
	assert.Equal(t, 0, tbl.OccupiedSeats)
	assert.Equal(t, 4, tbl.AvailableSeats())
}

func TestReleaseTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &fakeTableStore{}
	a := newTestAllocator(store)

	_, err := a.ReleaseTable(ctx, "1")
	require.NoError(t, err)
	_, err = a.ReleaseTable(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, store.saved, "releasing an available table writes nothing")
}

func TestAutoAllocateAllSeatsFullCapacity(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	tbl, err := a.AutoAllocateAll(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.OccupiedSeats)
	assert.Equal(t, model.TableOccupied, tbl.Status)
}

func TestSelectTableSwitchReleasesPreviousSelection(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.SelectTable(ctx, "till-1", "1")
	require.NoError(t, err)

	_, err = a.SelectTable(ctx, "till-1", "2")
	require.NoError(t, err)

	prev, err := a.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, prev.Status, "abandoned selection must be released")

	cur, err := a.Get("2")
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, cur.Status)
}

func TestConfirmedSelectionSurvivesSwitch(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.SelectTable(ctx, "till-1", "1")
	require.NoError(t, err)
	a.ConfirmSelection("till-1")

	_, err = a.SelectTable(ctx, "till-1", "2")
	require.NoError(t, err)

	confirmed, err := a.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, confirmed.Status, "confirmed occupancy must not be released by a later selection")
}

func TestReleaseDropsTentativeSelections(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(&fakeTableStore{})

	_, err := a.SelectTable(ctx, "till-1", "1")
	require.NoError(t, err)
	_, err = a.ReleaseTable(ctx, "1")
	require.NoError(t, err)

	// After an explicit release the old selection is forgotten, so a
	// new selection by the same terminal does not re-release table 1.
	_, err = a.AllocateSeats(ctx, "1", 2)
	require.NoError(t, err)
	_, err = a.SelectTable(ctx, "till-1", "2")
	require.NoError(t, err)

	tbl, err := a.Get("1")
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, tbl.Status)
}

func TestSnapshotReturnsCopies(t *testing.T) {
	a := newTestAllocator(&fakeTableStore{})
	snap := a.Snapshot()
	require.Len(t, snap, 3)
	snap[0].OccupiedSeats = 99

	for _, tbl := range a.Snapshot() {
		assert.Zero(t, tbl.OccupiedSeats)
	}
}
