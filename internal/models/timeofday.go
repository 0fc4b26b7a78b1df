package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Bookings never cross midnight, so a single day's range is sufficient.
type TimeOfDay int

const minutesPerDay = 24 * 60

// Anchored so trailing or leading garbage is rejected, not skipped over.
var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])(?::[0-5][0-9])?$`)

// ParseTimeOfDay parses "HH:MM" (seconds tolerated and ignored). The whole
// input must match; anything beyond the time itself is an error.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return TimeOfDay(hour*60 + minute), nil
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value falls within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// Scan implements sql.Scanner, accepting TIME column representations.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
	case nil:
		*t = 0
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	return nil
}

// Value implements driver.Valuer for TIME columns.
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", int(t)/60, int(t)%60), nil
}

// MarshalJSON renders the time as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is a half-open [Start, End) time-of-day range.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (a.End == b.Start) do not overlap, so back-to-back classes
// are admitted.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Valid reports whether the interval is well-formed within a single day.
func (i Interval) Valid() bool {
	return i.Start.Valid() && i.End.Valid() && i.Start < i.End
}
