package stopinfo

import (
	"context"

	"github.com/obatracker-data/pkg/onebusaway/models"
)

// DetailFetcher retrieves descriptive stop metadata from the upstream API.
type DetailFetcher interface {
	StopDetail(ctx context.Context, stopID string) (*models.Stop, error)
}

// Directory persists stop metadata and reports whether anything changed.
type Directory interface {
	UpsertStop(ctx context.Context, stopID, name, direction, code string) (bool, error)
}
