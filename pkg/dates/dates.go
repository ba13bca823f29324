// Package dates models hotel calendar days. A Date has no time of day or
// zone; it is stored as UTC midnight and rendered as YYYY-MM-DD, which is
// also the key format of daily records.
package dates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

const Layout = "2006-01-02"

type Date struct {
	t time.Time
}

// New builds a Date from calendar parts. Out of range parts normalize the
// same way time.Date does.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Of truncates a timestamp to its calendar day in the timestamp's location.
func Of(ts time.Time) Date {
	y, m, d := ts.Date()
	return New(y, m, d)
}

// Today returns the calendar day of now in loc (UTC when nil).
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Of(now.In(loc))
}

func Parse(value string) (Date, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Date{}, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	ts, err := time.Parse(Layout, trimmed)
	if err != nil {
		return Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return Date{t: ts}, nil
}

// MustParse is for constants and tests.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) Time() time.Time       { return d.t }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Compare(o Date) int    { return d.t.Compare(o.t) }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// DaysBetween returns the number of calendar days from a to b; negative
// when b is before a.
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// Range lists every day from start to end, both inclusive.
func Range(start, end Date) ([]Date, error) {
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date").
			WithDetails(map[string]any{"start": start.String(), "end": end.String()})
	}
	out := make([]Date, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out, nil
}

// Nights lists the nights of a stay: checkIn through the day before
// checkOut. A stay of N nights yields exactly N dates.
func Nights(checkIn, checkOut Date) ([]Date, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "check-in and check-out dates are required")
	}
	if !checkOut.After(checkIn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in").
			WithDetails(map[string]any{"check_in": checkIn.String(), "check_out": checkOut.String()})
	}
	return Range(checkIn, checkOut.AddDays(-1))
}

// Strings renders a slice of dates for logs and error details.
func Strings(ds []Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(raw))
}
