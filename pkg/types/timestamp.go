package types

import (
	"strings"
	"time"
)

// timestampLayout matches spec's wire format: "YYYY-MM-DD HH:MM:SS.ffffff",
// microsecond resolution, UTC.
const timestampLayout = "2006-01-02 15:04:05.000000"

// dateLayout matches the wire format for date-only fields.
const dateLayout = "2006-01-02"

// Timestamp is a microsecond-resolution instant. It is always stored and
// compared in UTC; venue-local rendering is a derived view (see InVenueTZ).
type Timestamp struct {
	t time.Time
}

// Now returns the current instant truncated to microsecond resolution.
func Now() Timestamp {
	return Timestamp{t: time.Now().UTC().Truncate(time.Microsecond)}
}

// NewTimestamp wraps an arbitrary time.Time, normalizing to UTC and
// microsecond resolution.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Microsecond)}
}

func (ts Timestamp) Time() time.Time { return ts.t }
func (ts Timestamp) IsZero() bool    { return ts.t.IsZero() }

func (ts Timestamp) Before(o Timestamp) bool { return ts.t.Before(o.t) }
func (ts Timestamp) After(o Timestamp) bool  { return ts.t.After(o.t) }
func (ts Timestamp) Equal(o Timestamp) bool  { return ts.t.Equal(o.t) }

// InVenueTZ renders the instant in the given IANA location.
func (ts Timestamp) InVenueTZ(loc *time.Location) time.Time {
	return ts.t.In(loc)
}

// DateInVenueTZ returns the calendar date (no time component) in loc.
func (ts Timestamp) DateInVenueTZ(loc *time.Location) Date {
	y, m, d := ts.t.In(loc).Date()
	return Date{year: y, month: m, day: d}
}

func (ts Timestamp) String() string {
	return ts.t.Format(timestampLayout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*ts = Timestamp{}
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return err
	}
	ts.t = t.UTC()
	return nil
}

// Date is a calendar date with no time-of-day component, rendered/parsed in
// whatever timezone the caller supplies (always venue TZ in practice).
type Date struct {
	year  int
	month time.Month
	day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// DateFromTime extracts the calendar date of t in its own location.
func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

func (d Date) Before(o Date) bool {
	return d.asTime().Before(o.asTime())
}

func (d Date) Equal(o Date) bool {
	return d.year == o.year && d.month == o.month && d.day == o.day
}

func (d Date) asTime() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.asTime().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	*d = DateFromTime(t)
	return nil
}
