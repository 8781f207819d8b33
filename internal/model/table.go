package model

// TableStatus enumerates the occupancy states of a physical table.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

// Table represents one physical dine-in table.  Tables are fixed
// inventory: they are created once and never destroyed, only their
// occupancy changes.  The invariants maintained by the allocator are
// 0 <= OccupiedSeats <= Capacity, status=occupied implies
// OccupiedSeats > 0 and status=available implies OccupiedSeats = 0.
// Reserved is an orthogonal flag: allocating seats on a reserved table
// tracks the seats but leaves the status as reserved.
//
// Fields:
//  Number        – table number, unique within the venue.
//  Capacity      – number of seats at the table (> 0).
//  Status        – available, occupied or reserved.
//  OccupiedSeats – seats currently allocated.
type Table struct {
	Number        string      `json:"number"`
	Capacity      int         `json:"capacity"`
	Status        TableStatus `json:"status"`
	OccupiedSeats int         `json:"occupied_seats"`
}

// AvailableSeats is derived, never stored.
func (t Table) AvailableSeats() int { return t.Capacity - t.OccupiedSeats }
