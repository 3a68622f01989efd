package stopinfo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/obatracker-data/internal/common/logger"
)

// Refresher periodically re-fetches stop metadata so renamed or
// re-signed stops pick up their new labels without a restart.
type Refresher struct {
	config    Config
	fetcher   DetailFetcher
	directory Directory
	logger    logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

type Config struct {
	StopIDs         []string
	RefreshInterval time.Duration
}

func NewRefresher(config Config, fetcher DetailFetcher, directory Directory, logger logger.Logger) *Refresher {
	return &Refresher{
		config:    config,
		fetcher:   fetcher,
		directory: directory,
		logger:    logger,
	}
}

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("refresher already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.logger.Info("Starting stop info refresher",
		"stops", len(r.config.StopIDs),
		"refresh_interval", r.config.RefreshInterval)

	// Stops are already described once at tracker startup, so the
	// first refresh waits a full interval.
	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stop info refresher stopped")
			return nil
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Refresher) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return fmt.Errorf("refresher not running")
	}

	if r.cancel != nil {
		r.cancel()
	}

	r.running = false
	return nil
}

func (r *Refresher) refreshAll(ctx context.Context) {
	updated := 0
	for _, stopID := range r.config.StopIDs {
		if ctx.Err() != nil {
			return
		}
		changed, err := r.refreshOne(ctx, stopID)
		if err != nil {
			r.logger.Error("Stop info refresh failed", "stop_id", stopID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}
	r.logger.Info("Stop info refresh complete",
		"stops", len(r.config.StopIDs),
		"updated", updated)
}

func (r *Refresher) refreshOne(ctx context.Context, stopID string) (bool, error) {
	stop, err := r.fetcher.StopDetail(ctx, stopID)
	if err != nil {
		return false, fmt.Errorf("fetching stop detail: %w", err)
	}

	changed, err := r.directory.UpsertStop(ctx, stopID, stop.Name, stop.Direction, stop.Code)
	if err != nil {
		return false, fmt.Errorf("updating stop record: %w", err)
	}

	if changed {
		r.logger.Info("Stop metadata changed",
			"stop_id", stopID,
			"name", stop.Name,
			"direction", stop.Direction)
	}
	return changed, nil
}
