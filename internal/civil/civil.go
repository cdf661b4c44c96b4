// Package civil models the calendar dates and wall-clock times used by the
// meeting lifecycle. All values are interpreted in Zone, a fixed UTC-05:00
// offset with no daylight adjustment, regardless of the server's local zone.
package civil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Zone is the single civil time zone used for every "now" computation.
var Zone = time.FixedZone("UTC-05:00", -5*60*60)

const (
	// DateLayout formats civil dates as YYYY-MM-DD.
	DateLayout = "2006-01-02"
	// TimeLayout formats civil times of day as HH:mm.
	TimeLayout = "15:04"
	// DateTimeLayout formats confirmation stamps without a zone offset.
	DateTimeLayout = "2006-01-02 15:04:05"
)

var (
	// ErrInvalidDate is returned when a value cannot be parsed as YYYY-MM-DD.
	ErrInvalidDate = errors.New("civil: invalid date")
	// ErrInvalidTime is returned when a value cannot be parsed as HH:mm.
	ErrInvalidTime = errors.New("civil: invalid time of day")
)

// Date is a calendar day without a time zone offset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t observed in Zone.
func DateOf(t time.Time) Date {
	y, m, d := t.In(Zone).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), Zone)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(parsed), nil
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, Zone))
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// TimeOf returns the time of day of t observed in Zone, truncated to the minute.
func TimeOf(t time.Time) TimeOfDay {
	local := t.In(Zone)
	return TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
}

// ParseTimeOfDay accepts HH:mm and HH:mm:ss. Seconds are discarded.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	layout := TimeLayout
	if strings.Count(value, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// String formats t as HH:mm.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or after other.
func (t TimeOfDay) Compare(other TimeOfDay) int {
	return cmpInt(t.Minutes(), other.Minutes())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Combine returns the instant at which time of day tod occurs on date d in Zone.
func Combine(d Date, tod TimeOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, 0, 0, Zone)
}

// FormatDateTime renders t in Zone using DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.In(Zone).Format(DateTimeLayout)
}

// ParseDateTime parses a DateTimeLayout value as a Zone instant.
func ParseDateTime(value string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(value), Zone)
}

// Finished reports whether a session scheduled on d and ending at end is over at now:
// the date is before today, or it is today and the end is at or before now.
func Finished(d Date, end TimeOfDay, now time.Time) bool {
	today := DateOf(now)
	switch d.Compare(today) {
	case -1:
		return true
	case 0:
		return !Combine(d, end).After(now)
	default:
		return false
	}
}

// Within reports whether now falls inside [start, end] on date d, compared
// at minute precision.
func Within(d Date, start, end TimeOfDay, now time.Time) bool {
	if d.Compare(DateOf(now)) != 0 {
		return false
	}
	current := TimeOf(now)
	return start.Compare(current) <= 0 && current.Compare(end) <= 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
