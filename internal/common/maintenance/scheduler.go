package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/obatracker-data/internal/common/db"
	"github.com/obatracker-data/internal/common/logger"
)

// CleanupScheduler handles periodic maintenance tasks
type CleanupScheduler struct {
	maintenance *Maintenance
	logger      logger.Logger
	config      SchedulerConfig
	isRunning   bool
	mu          sync.RWMutex
	cancelFn    context.CancelFunc
}

// SchedulerConfig contains configuration for the cleanup scheduler
type SchedulerConfig struct {
	CleanupInterval  time.Duration // How often to prune history
	HistoryRetention time.Duration // How long to keep history rows
	InitialDelay     time.Duration // Delay before the first run after startup
	BatchSize        int           // Records per delete batch
	ActiveStopIDs    []string      // Stops currently monitored; others are orphans
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CleanupInterval:  time.Hour,
		HistoryRetention: 7 * 24 * time.Hour,
		InitialDelay:     1 * time.Minute,
		BatchSize:        5000,
	}
}

// Validate checks the config for values the loops cannot work with.
func (c SchedulerConfig) Validate() error {
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive")
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("history retention must be positive")
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	return nil
}

// NewCleanupScheduler creates a new cleanup scheduler
func NewCleanupScheduler(database *db.DB, logger logger.Logger, config SchedulerConfig) *CleanupScheduler {
	return &CleanupScheduler{
		maintenance: New(database, logger),
		logger:      logger,
		config:      config,
	}
}

// Start begins the cleanup scheduling
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cleanup scheduler is already running")
	}

	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.isRunning = true

	s.logger.Info("Starting cleanup scheduler",
		"interval", s.config.CleanupInterval,
		"retention", s.config.HistoryRetention,
		"batch_size", s.config.BatchSize)

	go s.cleanupLoop(ctx)

	return nil
}

// Stop stops the cleanup scheduler
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.logger.Info("Stopping cleanup scheduler")

	if s.cancelFn != nil {
		s.cancelFn()
	}

	s.isRunning = false
	s.logger.Info("Cleanup scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// cleanupLoop runs periodic history pruning
func (s *CleanupScheduler) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	// Run the first cleanup shortly after startup rather than a full
	// interval later
	initialDelay := time.NewTimer(s.config.InitialDelay)
	defer initialDelay.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup loop stopping")
			return

		case <-initialDelay.C:
			s.performCleanup(ctx)

		case <-ticker.C:
			s.performCleanup(ctx)
		}
	}
}

// performCleanup executes one pruning pass
func (s *CleanupScheduler) performCleanup(ctx context.Context) {
	start := time.Now()

	deleted, err := s.maintenance.CleanupHistory(ctx, s.config.HistoryRetention, s.config.BatchSize)
	if err != nil {
		s.logger.Error("History cleanup failed",
			"error", err,
			"duration", time.Since(start))
		return
	}

	if len(s.config.ActiveStopIDs) > 0 {
		if _, err := s.maintenance.CleanupOrphanedStates(ctx, s.config.ActiveStopIDs); err != nil {
			s.logger.Warn("Orphaned state cleanup failed", "error", err)
		}
	}

	if deleted > 0 {
		if err := s.maintenance.VacuumHistory(ctx); err != nil {
			s.logger.Warn("Failed to vacuum after cleanup", "error", err)
		}
	}

	s.logger.Info("Cleanup completed",
		"records_deleted", deleted,
		"duration", time.Since(start))
}

// TriggerCleanup manually triggers a pruning pass (for testing/manual use)
func (s *CleanupScheduler) TriggerCleanup(ctx context.Context) error {
	s.logger.Info("Manual cleanup triggered")
	_, err := s.maintenance.CleanupHistory(ctx, s.config.HistoryRetention, s.config.BatchSize)
	return err
}

// GetStatus returns the current status of the cleanup scheduler
func (s *CleanupScheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"is_running": s.isRunning,
		"interval":   s.config.CleanupInterval.String(),
		"retention":  s.config.HistoryRetention.String(),
		"batch_size": s.config.BatchSize,
	}
}
