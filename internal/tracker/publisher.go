package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/obatracker-data/internal/common/db"
	"github.com/obatracker-data/internal/common/logger"
)

const (
	// updateBufferSize bounds the queue between coordinators and the
	// writer. A full buffer drops updates rather than stalling a poll
	// cycle.
	updateBufferSize = 1024

	// flushBatchSize and flushInterval bound how much and how long the
	// writer accumulates before committing.
	flushBatchSize = 64
	flushInterval  = 2 * time.Second

	// shutdownFlushTimeout bounds the final drain on Stop.
	shutdownFlushTimeout = 5 * time.Second
)

// Publisher receives sensor state updates and writes them to Postgres in
// batches: an upsert of the current state plus a bulk append to the
// history table per batch.
type Publisher struct {
	database *db.DB
	logger   logger.Logger
	updates  chan StateUpdate

	mu        sync.RWMutex
	isRunning bool
	cancelFn  context.CancelFunc
	done      chan struct{}
}

func NewPublisher(database *db.DB, log logger.Logger) *Publisher {
	return &Publisher{
		database: database,
		logger:   log,
		updates:  make(chan StateUpdate, updateBufferSize),
	}
}

// PublishSensorState queues one update. It never blocks: when the buffer
// is full the update is dropped and logged, and the next poll cycle will
// publish fresher state anyway.
func (p *Publisher) PublishSensorState(ctx context.Context, update StateUpdate) error {
	select {
	case p.updates <- update:
		return nil
	default:
		p.logger.Warn("Update buffer full, dropping sensor state", "slot", update.SlotID)
		return nil
	}
}

// Start launches the writer goroutine.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("state publisher is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.done = make(chan struct{})
	p.isRunning = true

	p.logger.Info("Starting state publisher",
		"buffer", updateBufferSize,
		"batch_size", flushBatchSize,
		"flush_interval", flushInterval)

	go p.consume(ctx)

	return nil
}

// Stop cancels the writer and waits for the final flush.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}

	p.logger.Info("Stopping state publisher")

	if p.cancelFn != nil {
		p.cancelFn()
	}
	<-p.done

	p.isRunning = false
	p.logger.Info("State publisher stopped")
}

// IsRunning returns whether the writer goroutine is active.
func (p *Publisher) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// consume drains the update channel into batches, flushing on size or on
// the ticker. On shutdown whatever is still queued gets one final flush
// with a fresh bounded context, since the loop context is already gone.
func (p *Publisher) consume(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]StateUpdate, 0, flushBatchSize)

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case update := <-p.updates:
					batch = append(batch, update)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
				p.flush(flushCtx, batch)
				cancel()
			}
			return

		case update := <-p.updates:
			batch = append(batch, update)
			if len(batch) >= flushBatchSize {
				p.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// flush writes one batch in a single transaction: slot upserts first, then
// a COPY into the history table.
func (p *Publisher) flush(ctx context.Context, batch []StateUpdate) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()

	tx, err := p.database.BeginTx(ctx)
	if err != nil {
		p.logger.Error("Failed to begin state flush transaction", "error", err)
		return
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_states (slot_id, stop_id, kind, value, attributes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slot_id) DO UPDATE
		SET value = EXCLUDED.value,
		    attributes = EXCLUDED.attributes,
		    updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		p.logger.Error("Failed to prepare state upsert", "error", err)
		return
	}
	defer upsert.Close()

	for _, update := range batch {
		attrs := marshalAttributes(update.Attributes)
		if _, err := upsert.ExecContext(ctx,
			update.SlotID,
			update.StopID,
			string(update.Kind),
			update.Value,
			attrs,
			update.At.UTC(),
		); err != nil {
			p.logger.Error("Failed to upsert sensor state",
				"slot", update.SlotID,
				"error", err)
			return
		}
	}

	history, err := tx.Prepare(pq.CopyIn("sensor_state_history",
		"slot_id", "stop_id", "kind", "value", "attributes", "recorded_at"))
	if err != nil {
		p.logger.Error("Failed to prepare history copy", "error", err)
		return
	}

	for _, update := range batch {
		if _, err := history.Exec(
			update.SlotID,
			update.StopID,
			string(update.Kind),
			update.Value,
			marshalAttributes(update.Attributes),
			update.At.UTC(),
		); err != nil {
			p.logger.Error("Failed to copy history row",
				"slot", update.SlotID,
				"error", err)
			history.Close()
			return
		}
	}

	// Final Exec with no arguments flushes the COPY buffer.
	if _, err := history.Exec(); err != nil {
		p.logger.Error("Failed to flush history copy", "error", err)
		history.Close()
		return
	}
	if err := history.Close(); err != nil {
		p.logger.Error("Failed to close history copy", "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		p.logger.Error("Failed to commit state flush", "error", err)
		return
	}

	p.logger.Debug("Flushed sensor state",
		"updates", len(batch),
		"duration_ms", time.Since(start).Milliseconds())
}

func marshalAttributes(attributes map[string]interface{}) []byte {
	if len(attributes) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return []byte("{}")
	}
	return data
}
