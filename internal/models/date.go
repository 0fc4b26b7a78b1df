package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a pure calendar day in "YYYY-MM-DD" form. It deliberately carries
// no timezone: weekday derivation and comparisons operate on the calendar
// value itself, never on a timezone-shifted instant.
type Date string

// ParseDate validates and normalises a "YYYY-MM-DD" string.
func ParseDate(raw string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf converts an instant into its UTC calendar day.
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

// Weekday derives the symbolic day-of-week from the calendar value. The date
// is anchored in UTC so the result is identical on every server timezone.
func (d Date) Weekday() DayOfWeek {
	t, err := time.ParseInLocation(dateLayout, string(d), time.UTC)
	if err != nil {
		return ""
	}
	return weekdayNames[t.Weekday()]
}

// Before compares calendar days. ISO dates order lexicographically.
func (d Date) Before(other Date) bool {
	return string(d) < string(other)
}

func (d Date) String() string {
	return string(d)
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = Date(v.Format(dateLayout))
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case nil:
		*d = ""
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implements driver.Valuer for DATE columns.
func (d Date) Value() (driver.Value, error) {
	return string(d), nil
}

// DayOfWeek is the symbolic weekday used by recurring bookings.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdayNames = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// ValidDayOfWeek reports whether the value is one of the seven weekdays.
func ValidDayOfWeek(d DayOfWeek) bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}
