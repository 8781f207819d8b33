package repository // repository for dine-in table state

import (
	"context"
	"database/sql"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// TableRepo persists the occupancy state of physical tables.  The
// allocator owns the runtime state and writes through here so that a
// restarted server resumes with the floor exactly as it was.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// LoadAll reads every table.  Tables are fixed inventory, so this runs
// once at startup to seed the allocator.
func (r *TableRepo) LoadAll(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT number, capacity, status, occupied_seats FROM tables ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.Number, &t.Capacity, &t.Status, &t.OccupiedSeats); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// SaveState writes a table's status and seat count.
func (r *TableRepo) SaveState(ctx context.Context, t model.Table) error {
	const q = `UPDATE tables SET status = ?, occupied_seats = ? WHERE number = ?`
	// No RowsAffected check: MySQL reports zero affected rows for
	// updates that leave values unchanged, which is the normal case for
	// an idempotent release.  Unknown numbers are caught by the
	// allocator before this point.
	_, err := r.db.ExecContext(ctx, q, t.Status, t.OccupiedSeats, t.Number)
	return err
}
