package tracker

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/obatracker-data/pkg/onebusaway/models"
)

// DepartureKind says which timestamp source won when the departure was
// derived.
type DepartureKind string

const (
	Predicted DepartureKind = "Predicted"
	Scheduled DepartureKind = "Scheduled"
)

const (
	defaultHeadsign  = "Unknown"
	defaultRouteName = "Unknown Route"
)

// Departure is one upcoming departure derived from a stop snapshot.
type Departure struct {
	EpochSeconds   float64
	Kind           DepartureKind
	Headsign       string
	RouteShortName string
	RouteID        string

	// DeviationSeconds is predicted minus scheduled; positive means
	// running late. Valid only when HasDeviation is set.
	DeviationSeconds int64
	HasDeviation     bool
}

// Time returns the departure instant in UTC.
func (d Departure) Time() time.Time {
	return time.UnixMilli(int64(math.Round(d.EpochSeconds * 1000))).UTC()
}

// DeviationMinutes returns the deviation in minutes, rounded to one
// decimal place.
func (d Departure) DeviationMinutes() float64 {
	return math.Round(float64(d.DeviationSeconds)/60*10) / 10
}

// DeviationText renders the schedule deviation for display.
func (d Departure) DeviationText() string {
	if !d.HasDeviation {
		return "unknown"
	}

	minutes := d.DeviationMinutes()
	switch {
	case minutes > 0:
		return fmt.Sprintf("%.1f min late", minutes)
	case minutes < 0:
		return fmt.Sprintf("%.1f min early", -minutes)
	default:
		return "on time"
	}
}

// ExtractDepartures derives the sorted upcoming departures from a raw
// snapshot. The route allow-list is applied before any time comparison; an
// empty list keeps everything. Per entry the predicted instant wins when
// it is still in the future, otherwise the scheduled instant when that is,
// otherwise the entry is dropped. Missing fields degrade to defaults;
// nothing in here fails.
func ExtractDepartures(arrivals []models.ArrivalAndDeparture, now time.Time, routeAllowList []string) []Departure {
	nowMillis := now.UnixMilli()

	allowed := make(map[string]struct{}, len(routeAllowList))
	for _, route := range routeAllowList {
		allowed[route] = struct{}{}
	}

	departures := make([]Departure, 0, len(arrivals))
	for _, entry := range arrivals {
		if len(allowed) > 0 {
			if _, ok := allowed[entry.RouteID]; !ok {
				continue
			}
		}

		predicted := firstUsable(entry.PredictedArrivalTime, entry.PredictedDepartureTime)
		scheduled := firstUsable(entry.ScheduledArrivalTime, entry.ScheduledDepartureTime)

		var chosen models.EpochMillis
		kind := Scheduled
		switch {
		case int64(predicted) > nowMillis:
			chosen = predicted
			kind = Predicted
		case int64(scheduled) > nowMillis:
			chosen = scheduled
		default:
			continue
		}

		departure := Departure{
			EpochSeconds:   chosen.Seconds(),
			Kind:           kind,
			Headsign:       entry.TripHeadsign,
			RouteShortName: entry.RouteShortName,
			RouteID:        entry.RouteID,
		}
		if departure.Headsign == "" {
			departure.Headsign = defaultHeadsign
		}
		if departure.RouteShortName == "" {
			departure.RouteShortName = defaultRouteName
		}

		// The deviation compares the two sources whenever both exist,
		// independent of which one won.
		if !predicted.IsZero() && !scheduled.IsZero() {
			departure.DeviationSeconds = (int64(predicted) - int64(scheduled)) / 1000
			departure.HasDeviation = true
		}

		departures = append(departures, departure)
	}

	sort.SliceStable(departures, func(i, j int) bool {
		return departures[i].EpochSeconds < departures[j].EpochSeconds
	})

	return departures
}

func firstUsable(values ...models.EpochMillis) models.EpochMillis {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return 0
}
