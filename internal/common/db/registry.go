package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StopRegistry persists what is known about each monitored stop.
type StopRegistry struct {
	db *DB
}

func NewStopRegistry(db *DB) *StopRegistry {
	return &StopRegistry{db: db}
}

// StopRecord mirrors one row of the stops table.
type StopRecord struct {
	StopID    string
	Name      string
	Direction string
	Code      string
	UpdatedAt time.Time
}

// GetStop returns the stored record for a stop, or nil when the stop has
// never been recorded.
func (r *StopRegistry) GetStop(ctx context.Context, stopID string) (*StopRecord, error) {
	query := `
		SELECT stop_id, name, direction, code, updated_at
		FROM stops
		WHERE stop_id = $1
	`

	var record StopRecord
	err := r.db.conn.QueryRowContext(ctx, query, stopID).Scan(
		&record.StopID,
		&record.Name,
		&record.Direction,
		&record.Code,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("querying stop %s: %w", stopID, err)
	}

	return &record, nil
}

// UpsertStop records the stop's details, touching the row only when
// something actually changed. It reports whether a write happened.
func (r *StopRegistry) UpsertStop(ctx context.Context, stopID, name, direction, code string) (bool, error) {
	query := `
		INSERT INTO stops (stop_id, name, direction, code, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (stop_id) DO UPDATE
		SET name = EXCLUDED.name,
		    direction = EXCLUDED.direction,
		    code = EXCLUDED.code,
		    updated_at = NOW()
		WHERE stops.name IS DISTINCT FROM EXCLUDED.name
		   OR stops.direction IS DISTINCT FROM EXCLUDED.direction
		   OR stops.code IS DISTINCT FROM EXCLUDED.code
		RETURNING stop_id
	`

	var returned string
	err := r.db.conn.QueryRowContext(ctx, query, stopID, name, direction, code).Scan(&returned)

	// No row back means the conflict update was a no-op: nothing changed.
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("upserting stop %s: %w", stopID, err)
	}

	r.db.logger.Debug("Recorded stop details",
		"stop", stopID,
		"name", name,
		"direction", direction)

	return true, nil
}

// ListStops returns every recorded stop ordered by ID.
func (r *StopRegistry) ListStops(ctx context.Context) ([]StopRecord, error) {
	query := `
		SELECT stop_id, name, direction, code, updated_at
		FROM stops
		ORDER BY stop_id
	`

	rows, err := r.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing stops: %w", err)
	}
	defer rows.Close()

	var records []StopRecord
	for rows.Next() {
		var record StopRecord
		if err := rows.Scan(
			&record.StopID,
			&record.Name,
			&record.Direction,
			&record.Code,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning stop row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stop rows: %w", err)
	}

	return records, nil
}
