package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/obatracker-data/internal/common/config"
	"github.com/obatracker-data/internal/common/db"
	"github.com/obatracker-data/internal/common/logger"
	"github.com/obatracker-data/internal/onebusaway"
)

// Manager runs one coordinator per monitored stop and owns their shared
// lifecycle.
type Manager struct {
	stops    []config.StopConfig
	table    *TierTable
	gateway  Gateway
	sink     Sink
	alerter  Alerter
	registry *db.StopRegistry
	logger   logger.Logger

	mu        sync.RWMutex
	isRunning bool
	cancelFn  context.CancelFunc
	wg        sync.WaitGroup
}

// NewManager creates a manager. alerter and registry may be nil, which
// disables alerts and stop persistence respectively.
func NewManager(stops []config.StopConfig, tiers []Tier, gateway Gateway, sink Sink, alerter Alerter, registry *db.StopRegistry, log logger.Logger) *Manager {
	return &Manager{
		stops:    stops,
		table:    NewTierTable(tiers),
		gateway:  gateway,
		sink:     sink,
		alerter:  alerter,
		registry: registry,
		logger:   log,
	}
}

// Start labels every stop and launches its coordinator. A credential
// failure during labeling aborts the whole start: every poll would fail
// the same way.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("tracker manager is already running")
	}

	if err := m.validate(); err != nil {
		return fmt.Errorf("invalid tracker configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFn = cancel

	for _, stop := range m.stops {
		info, err := m.describeStop(ctx, stop)
		if err != nil {
			cancel()
			m.wg.Wait()
			return err
		}

		coord := newCoordinator(stop, info.Label(), m.table, m.gateway, m.sink, m.alerter, m.logger)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			coord.run(ctx)
		}()
	}

	m.isRunning = true
	m.logger.Info("Tracker manager started",
		"stops", len(m.stops),
		"tiers", m.table.Len())

	return nil
}

// Stop cancels every coordinator and waits for them to finish their
// current cycle.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}

	m.logger.Info("Stopping tracker manager")

	if m.cancelFn != nil {
		m.cancelFn()
	}
	m.wg.Wait()

	m.isRunning = false
	m.logger.Info("Tracker manager stopped")
}

// IsRunning returns whether the manager is active.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

func (m *Manager) validate() error {
	if len(m.stops) == 0 {
		return fmt.Errorf("no stops configured")
	}
	for _, stop := range m.stops {
		if stop.ID == "" {
			return fmt.Errorf("stop with empty ID")
		}
	}
	if m.table == nil || m.table.Len() == 0 {
		return fmt.Errorf("no polling tiers configured")
	}
	if m.gateway == nil {
		return fmt.Errorf("gateway is required")
	}
	if m.sink == nil {
		return fmt.Errorf("sink is required")
	}
	return nil
}

// StopInfo is the labeling data derived from the stop detail endpoint.
type StopInfo struct {
	ID        string
	Name      string
	Direction string
	Code      string
}

// Label renders the human-readable stop label.
func (s StopInfo) Label() string {
	if s.Name == "" {
		return s.ID
	}
	if s.Direction != "" {
		return fmt.Sprintf("%s (%s)", s.Name, s.Direction)
	}
	return s.Name
}

// describeStop fetches the stop's details for labeling and records them in
// the registry. Credential errors propagate; anything else degrades to the
// stop ID as the label so a flaky detail endpoint cannot block tracking.
func (m *Manager) describeStop(ctx context.Context, stop config.StopConfig) (StopInfo, error) {
	info := StopInfo{ID: stop.ID, Name: stop.Name}

	detail, err := m.gateway.StopDetail(ctx, stop.ID)
	if err != nil {
		if errors.Is(err, onebusaway.ErrAuthentication) {
			return info, fmt.Errorf("describing stop %s: %w", stop.ID, err)
		}
		m.logger.Warn("Could not fetch stop details, using stop ID as label",
			"stop", stop.ID,
			"error", err)
		return info, nil
	}

	// A configured name wins over the API's.
	if info.Name == "" {
		info.Name = detail.Name
	}
	info.Direction = detail.Direction
	info.Code = detail.Code

	if m.registry != nil {
		if _, err := m.registry.UpsertStop(ctx, info.ID, info.Name, info.Direction, info.Code); err != nil {
			m.logger.Warn("Failed to record stop details",
				"stop", stop.ID,
				"error", err)
		}
	}

	return info, nil
}
