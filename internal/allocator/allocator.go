// Package allocator owns table occupancy for dine-in service.  It
// keeps the floor state in memory behind one mutex, the single
// serialization point for seat allocation, and writes every change
// through to the table store so a restarted server resumes with the
// floor as it was.
//
// Invariants maintained for every table:
//
//	0 <= occupiedSeats <= capacity
//	status == occupied  =>  occupiedSeats > 0
//	status == available =>  occupiedSeats == 0
//
// The reserved status is orthogonal to occupancy: allocating seats on a
// reserved table tracks the seats but does not flip the status, so the
// reservation stays visible until the table is released.
package allocator

import (
	"context"
	"sync"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/repository"
)

// TableStore is the persistence surface the allocator writes through.
// *repository.TableRepo satisfies it; tests substitute fakes.
type TableStore interface {
	SaveState(ctx context.Context, t model.Table) error
}

// Allocator tracks every table on the floor.  Tables are fixed
// inventory: the set loaded at construction never grows or shrinks.
type Allocator struct {
	mu     sync.Mutex
	tables map[string]*model.Table
	store  TableStore

	// selections maps terminal id -> table number for tentative,
	// not-yet-confirmed table selections.  Switching the selection
	// releases the previous table so an abandoned tap on the floor map
	// cannot leak a permanently occupied table.
	selections map[string]string
}

// New builds an allocator seeded with the given tables.
func New(store TableStore, tables []model.Table) *Allocator {
	m := make(map[string]*model.Table, len(tables))
	for i := range tables {
		t := tables[i]
		m[t.Number] = &t
	}
	return &Allocator{tables: m, store: store, selections: make(map[string]string)}
}

// Get returns a copy of one table's state.
func (a *Allocator) Get(number string) (model.Table, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tables[number]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	return *t, nil
}

// Snapshot returns a copy of every table, for the reconnection pull
// query and floor-map displays.
func (a *Allocator) Snapshot() []model.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Table, 0, len(a.tables))
	for _, t := range a.tables {
		out = append(out, *t)
	}
	return out
}

// AllocateSeats seats a party at a table.  It fails with
// ErrInvalidSeatCount for requests below one seat, with
// CapacityExceededError when the request exceeds the table's capacity
// and with InsufficientAvailabilityError when a partially occupied
// table cannot fit the party.  On success occupiedSeats is set to the
// requested count and the status flips to occupied, unless the table
// is reserved, in which case the reservation marker is kept while the
// seats are still tracked.
func (a *Allocator) AllocateSeats(ctx context.Context, number string, seatsRequested int) (model.Table, error) {
	if seatsRequested < 1 {
		return model.Table{}, ErrInvalidSeatCount
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.tables[number]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	if seatsRequested > t.Capacity {
		return model.Table{}, &CapacityExceededError{Table: number, Requested: seatsRequested, Capacity: t.Capacity}
	}
	if t.OccupiedSeats > 0 && seatsRequested > t.AvailableSeats() {
		return model.Table{}, &InsufficientAvailabilityError{Table: number, Requested: seatsRequested, Available: t.AvailableSeats()}
	}

	prev := *t
	t.OccupiedSeats = seatsRequested
	if t.Status != model.TableReserved {
		t.Status = model.TableOccupied
	}
	if err := a.store.SaveState(ctx, *t); err != nil {
		*t = prev
		return model.Table{}, err
	}
	return *t, nil
}

// AutoAllocateAll is the convenience transition that seats a full party
// of the table's capacity.
func (a *Allocator) AutoAllocateAll(ctx context.Context, number string) (model.Table, error) {
	a.mu.Lock()
	capacity := 0
	if t, ok := a.tables[number]; ok {
		capacity = t.Capacity
	}
	a.mu.Unlock()
	if capacity == 0 {
		return model.Table{}, repository.ErrTableNotFound
	}
	return a.AllocateSeats(ctx, number, capacity)
}

// ReleaseTable resets a table to available with zero occupied seats.
// Releasing an already-available table is a no-op, not an error, so
// cancel paths and cleanup jobs may call it without checking first.
func (a *Allocator) ReleaseTable(ctx context.Context, number string) (model.Table, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.releaseLocked(ctx, number)
}

// SelectTable records a tentative selection of an available table by a
// terminal, seating the full capacity.  If the terminal had a previous
// unconfirmed selection on a different table, that table is released
// first: switching selections must never leak an occupied table.
func (a *Allocator) SelectTable(ctx context.Context, terminalID, number string) (model.Table, error) {
	a.mu.Lock()
	prev, had := a.selections[terminalID]
	if had && prev != number {
		if _, err := a.releaseLocked(ctx, prev); err != nil && err != repository.ErrTableNotFound {
			a.mu.Unlock()
			return model.Table{}, err
		}
		delete(a.selections, terminalID)
	}
	a.mu.Unlock()

	t, err := a.AutoAllocateAll(ctx, number)
	if err != nil {
		return model.Table{}, err
	}

	a.mu.Lock()
	a.selections[terminalID] = number
	a.mu.Unlock()
	return t, nil
}

// ConfirmSelection marks a terminal's tentative selection as confirmed
// occupancy, typically because a table order was opened on it.  The
// table stays occupied; it just stops being releasable by a selection
// switch.
func (a *Allocator) ConfirmSelection(terminalID string) {
	a.mu.Lock()
	delete(a.selections, terminalID)
	a.mu.Unlock()
}

func (a *Allocator) releaseLocked(ctx context.Context, number string) (model.Table, error) {
	t, ok := a.tables[number]
	if !ok {
		return model.Table{}, repository.ErrTableNotFound
	}
	if t.Status == model.TableAvailable && t.OccupiedSeats == 0 {
		return *t, nil
	}
	prev := *t
	t.OccupiedSeats = 0
	t.Status = model.TableAvailable
	if err := a.store.SaveState(ctx, *t); err != nil {
		*t = prev
		return model.Table{}, err
	}
	// Drop any tentative selection pointing at this table.
	for term, num := range a.selections {
		if num == number {
			delete(a.selections, term)
		}
	}
	return *t, nil
}
