package tracker

import "time"

// slotArena tracks how many arrival slots exist for a stop. The count only
// grows: slots past the end of the current departure list are cleared, not
// removed, so their external IDs stay stable for downstream consumers.
type slotArena struct {
	stopID string
	count  int
}

func newSlotArena(stopID string) *slotArena {
	return &slotArena{stopID: stopID}
}

// reconcile maps a departure list onto the arena and returns the updates
// to publish: one per occupied slot, one clearing update per surviving
// slot past the end of the list.
func (a *slotArena) reconcile(departures []Departure, at time.Time) []StateUpdate {
	if len(departures) > a.count {
		a.count = len(departures)
	}

	updates := make([]StateUpdate, 0, a.count)
	for i := 0; i < a.count; i++ {
		if i < len(departures) {
			updates = append(updates, occupiedSlotUpdate(a.stopID, i, departures[i], at))
		} else {
			updates = append(updates, clearedSlotUpdate(a.stopID, i, at))
		}
	}
	return updates
}

func occupiedSlotUpdate(stopID string, index int, d Departure, at time.Time) StateUpdate {
	attrs := map[string]interface{}{
		"type":      string(d.Kind),
		"route":     d.RouteShortName,
		"headsign":  d.Headsign,
		"deviation": d.DeviationText(),
	}
	if d.HasDeviation {
		attrs["deviation_minutes"] = d.DeviationMinutes()
	}

	return StateUpdate{
		SlotID:     arrivalSlotID(stopID, index),
		StopID:     stopID,
		Kind:       KindArrival,
		Value:      d.Time().Format(time.RFC3339),
		Attributes: attrs,
		At:         at,
	}
}

func clearedSlotUpdate(stopID string, index int, at time.Time) StateUpdate {
	return StateUpdate{
		SlotID:     arrivalSlotID(stopID, index),
		StopID:     stopID,
		Kind:       KindArrival,
		Value:      "",
		Attributes: map[string]interface{}{},
		At:         at,
	}
}
