package allocator

import (
	"errors"
	"fmt"
)

// ErrInvalidSeatCount is returned for a seat request below one.  The
// allocator owns the occupancy invariants, so the floor is enforced
// here rather than trusted to callers.
var ErrInvalidSeatCount = errors.New("seat count must be at least 1")

// CapacityExceededError is returned when a party asks for more seats
// than the table physically has, regardless of current occupancy.
type CapacityExceededError struct {
	Table     string
	Requested int
	Capacity  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("table %s: requested %d seats exceeds capacity %d", e.Table, e.Requested, e.Capacity)
}

// InsufficientAvailabilityError is returned when the table could seat
// the party in principle but is already partially occupied.
type InsufficientAvailabilityError struct {
	Table     string
	Requested int
	Available int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("table %s: requested %d seats but only %d available", e.Table, e.Requested, e.Available)
}
