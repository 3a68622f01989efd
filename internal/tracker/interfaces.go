package tracker

import (
	"context"

	"github.com/obatracker-data/pkg/onebusaway/models"
)

// Gateway is the slice of the OneBusAway API the tracker consumes.
type Gateway interface {
	ArrivalsForStop(ctx context.Context, stopID string) (*models.StopSnapshot, error)
	StopDetail(ctx context.Context, stopID string) (*models.Stop, error)
}

// Sink receives published sensor state. Implementations must be safe for
// use from multiple coordinators.
type Sink interface {
	PublishSensorState(ctx context.Context, update StateUpdate) error
}

// Alerter receives notifications about newly appeared situations.
type Alerter interface {
	SituationAlert(ctx context.Context, stopLabel string, s Situation)
}
