package models

import (
	"strconv"
	"strings"
	"time"
)

// EpochMillis is an instant in milliseconds since the Unix epoch, the
// format OneBusAway uses for every prediction and schedule field. The zero
// value means the field was absent from the payload.
type EpochMillis int64

// UnmarshalJSON accepts a bare number, a quoted number or null. Malformed
// values decode to zero so one bad field cannot fail the whole payload.
func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some archived feeds emit fractional milliseconds.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			*m = 0
			return nil
		}
		v = int64(f)
	}

	*m = EpochMillis(v)
	return nil
}

// MarshalJSON writes the raw millisecond count.
func (m EpochMillis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}

// IsZero reports whether the field was absent (or unusable).
func (m EpochMillis) IsZero() bool {
	return m <= 0
}

// Time converts to a time.Time in UTC.
func (m EpochMillis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// Seconds converts to fractional seconds since the Unix epoch.
func (m EpochMillis) Seconds() float64 {
	return float64(m) / 1000
}
