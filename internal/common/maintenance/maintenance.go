package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/obatracker-data/internal/common/db"
	"github.com/obatracker-data/internal/common/logger"
)

// Maintenance handles database cleanup and maintenance operations
type Maintenance struct {
	db     *db.DB
	logger logger.Logger
}

// New creates a new Maintenance instance
func New(database *db.DB, logger logger.Logger) *Maintenance {
	return &Maintenance{
		db:     database,
		logger: logger,
	}
}

// CleanupHistory deletes sensor state history recorded before the
// retention cutoff. Deletes run in batches so a large backlog cannot hold
// locks long enough to starve the publisher.
func (m *Maintenance) CleanupHistory(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	m.logger.Info("Starting sensor state history cleanup",
		"cutoff", cutoff.Format(time.RFC3339),
		"batch_size", batchSize)

	query := `
		DELETE FROM sensor_state_history
		WHERE id IN (
			SELECT id FROM sensor_state_history
			WHERE recorded_at < $1
			LIMIT $2
		)
	`

	var totalDeleted int64
	batches := 0

	for {
		result, err := m.db.Conn().ExecContext(ctx, query, cutoff, batchSize)
		if err != nil {
			return totalDeleted, fmt.Errorf("deleting history batch: %w", err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("getting rows affected: %w", err)
		}

		totalDeleted += deleted
		batches++

		m.logger.Debug("Processed history cleanup batch",
			"batch", batches,
			"records_deleted", deleted)

		if deleted < int64(batchSize) {
			break
		}
	}

	m.logger.Info("Sensor state history cleanup completed",
		"total_records_deleted", totalDeleted,
		"total_batches", batches)

	return totalDeleted, nil
}

// CleanupOrphanedStates removes current state rows for stops that are no
// longer monitored, along with their registry entries.
func (m *Maintenance) CleanupOrphanedStates(ctx context.Context, activeStopIDs []string) (int64, error) {
	if len(activeStopIDs) == 0 {
		return 0, fmt.Errorf("refusing to cleanup with an empty active stop list")
	}

	result, err := m.db.Conn().ExecContext(ctx,
		`DELETE FROM sensor_states WHERE stop_id <> ALL($1)`,
		pq.Array(activeStopIDs))
	if err != nil {
		return 0, fmt.Errorf("deleting orphaned states: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if _, err := m.db.Conn().ExecContext(ctx,
		`DELETE FROM stops WHERE stop_id <> ALL($1)`,
		pq.Array(activeStopIDs)); err != nil {
		return deleted, fmt.Errorf("deleting orphaned stops: %w", err)
	}

	if deleted > 0 {
		m.logger.Info("Removed orphaned sensor states", "records_deleted", deleted)
	}

	return deleted, nil
}

// VacuumHistory runs VACUUM ANALYZE on the history table. Must be called
// outside a transaction.
func (m *Maintenance) VacuumHistory(ctx context.Context) error {
	start := time.Now()

	if _, err := m.db.Conn().ExecContext(ctx, `VACUUM ANALYZE sensor_state_history`); err != nil {
		return fmt.Errorf("vacuuming sensor_state_history: %w", err)
	}

	m.logger.Info("Vacuumed sensor state history",
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
