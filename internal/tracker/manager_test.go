package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/obatracker-data/internal/common/config"
	"github.com/obatracker-data/internal/common/logger"
	"github.com/obatracker-data/internal/onebusaway"
	"github.com/obatracker-data/pkg/onebusaway/models"
)

func newTestManager(gateway Gateway, sink Sink) *Manager {
	stops := []config.StopConfig{{ID: "1_75403"}, {ID: "1_75414"}}
	return NewManager(stops, defaultTestTiers(), gateway, sink, nil, nil, logger.Nop())
}

func TestManagerLifecycle(t *testing.T) {
	gateway := &fakeGateway{detail: &models.Stop{
		ID:        "1_75403",
		Name:      "NE 65th St & 39th Ave NE",
		Direction: "E",
	}}
	sink := &recordingSink{}
	m := newTestManager(gateway, sink)

	if m.IsRunning() {
		t.Error("manager should not be running before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !m.IsRunning() {
		t.Error("manager should be running after Start")
	}

	if err := m.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	m.Stop()
	if m.IsRunning() {
		t.Error("manager should not be running after Stop")
	}

	// Stop again is a no-op.
	m.Stop()

	// Every coordinator runs its first cycle before entering the wait
	// loop, so by now both stops have published a forecast.
	if refresh := sink.byKind(KindRefresh); len(refresh) < 2 {
		t.Errorf("expected refresh updates for both stops, got %d", len(refresh))
	}
}

func TestManagerStartFailsOnBadCredentials(t *testing.T) {
	gateway := &fakeGateway{
		detailErr: fmt.Errorf("fetching stop 1_75403: %w", onebusaway.ErrAuthentication),
	}
	m := newTestManager(gateway, &recordingSink{})

	err := m.Start(context.Background())
	if err == nil {
		t.Fatal("expected Start to fail with bad credentials")
	}
	if !errors.Is(err, onebusaway.ErrAuthentication) {
		t.Errorf("error should wrap ErrAuthentication, got %v", err)
	}
	if m.IsRunning() {
		t.Error("manager must not run after a failed Start")
	}
}

func TestManagerToleratesDetailOutage(t *testing.T) {
	gateway := &fakeGateway{detailErr: errors.New("HTTP 500")}
	m := newTestManager(gateway, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("a flaky detail endpoint must not block startup: %v", err)
	}
	m.Stop()
}

func TestManagerValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Manager
	}{
		{
			name: "no stops",
			build: func() *Manager {
				return NewManager(nil, defaultTestTiers(), &fakeGateway{}, &recordingSink{}, nil, nil, logger.Nop())
			},
		},
		{
			name: "empty stop ID",
			build: func() *Manager {
				return NewManager([]config.StopConfig{{ID: ""}}, defaultTestTiers(), &fakeGateway{}, &recordingSink{}, nil, nil, logger.Nop())
			},
		},
		{
			name: "nil gateway",
			build: func() *Manager {
				return NewManager([]config.StopConfig{{ID: "1_75403"}}, defaultTestTiers(), nil, &recordingSink{}, nil, nil, logger.Nop())
			},
		},
		{
			name: "nil sink",
			build: func() *Manager {
				return NewManager([]config.StopConfig{{ID: "1_75403"}}, defaultTestTiers(), &fakeGateway{}, nil, nil, nil, logger.Nop())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.build()
			if err := m.Start(context.Background()); err == nil {
				t.Error("expected Start to fail")
				m.Stop()
			}
		})
	}
}

func TestStopInfoLabel(t *testing.T) {
	tests := []struct {
		name string
		info StopInfo
		want string
	}{
		{
			name: "name and direction",
			info: StopInfo{ID: "1_75403", Name: "NE 65th St & 39th Ave NE", Direction: "E"},
			want: "NE 65th St & 39th Ave NE (E)",
		},
		{
			name: "name only",
			info: StopInfo{ID: "1_75403", Name: "NE 65th St & 39th Ave NE"},
			want: "NE 65th St & 39th Ave NE",
		},
		{
			name: "bare ID fallback",
			info: StopInfo{ID: "1_75403"},
			want: "1_75403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeStopPrefersConfiguredName(t *testing.T) {
	gateway := &fakeGateway{detail: &models.Stop{
		ID:        "1_75403",
		Name:      "API Name",
		Direction: "E",
	}}
	m := newTestManager(gateway, &recordingSink{})

	info, err := m.describeStop(context.Background(), config.StopConfig{ID: "1_75403", Name: "Home Stop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Home Stop" {
		t.Errorf("name = %q, want the configured override", info.Name)
	}
	if info.Direction != "E" {
		t.Errorf("direction = %q", info.Direction)
	}
}
