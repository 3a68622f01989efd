package db

import (
	"context"
	"fmt"
)

// schemaStatements creates the tracker's tables when they do not exist.
// Order matters: sensor tables reference stops.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stops (
		stop_id    TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		direction  TEXT NOT NULL DEFAULT '',
		code       TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_states (
		slot_id    TEXT PRIMARY KEY,
		stop_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		value      TEXT NOT NULL DEFAULT '',
		attributes JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_state_history (
		id          BIGSERIAL PRIMARY KEY,
		slot_id     TEXT NOT NULL,
		stop_id     TEXT NOT NULL,
		kind        TEXT NOT NULL,
		value       TEXT NOT NULL DEFAULT '',
		attributes  JSONB NOT NULL DEFAULT '{}',
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_state_history_recorded_at
		ON sensor_state_history (recorded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_state_history_slot
		ON sensor_state_history (slot_id, recorded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_states_stop
		ON sensor_states (stop_id)`,
}

// EnsureSchema creates every table and index the tracker writes to.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}

	db.logger.Info("Database schema ensured")
	return nil
}
