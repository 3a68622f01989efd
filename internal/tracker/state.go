package tracker

import (
	"fmt"
	"time"
)

// SlotKind tags what a sensor slot describes.
type SlotKind string

const (
	KindArrival    SlotKind = "arrival"
	KindSituations SlotKind = "situations"
	KindRefresh    SlotKind = "refresh"
)

// StateUpdate is one published sensor value. Value carries the primary
// state (an RFC3339 instant for arrivals and refresh forecasts, a count
// for situations; empty means the slot is cleared) and Attributes carry
// the display metadata.
type StateUpdate struct {
	SlotID     string
	StopID     string
	Kind       SlotKind
	Value      string
	Attributes map[string]interface{}
	At         time.Time
}

// Slot IDs are stable across the life of a stop: arrival slots are
// indexed, the situations and refresh slots are singletons.

func arrivalSlotID(stopID string, index int) string {
	return fmt.Sprintf("%s:arrival:%d", stopID, index)
}

func situationsSlotID(stopID string) string {
	return stopID + ":situations"
}

func refreshSlotID(stopID string) string {
	return stopID + ":refresh"
}
