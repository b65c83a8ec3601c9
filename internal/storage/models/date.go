package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date form accepted alongside RFC 3339.
const DateLayout = "2006-01-02"

// Date is a point in time decoded from either a calendar date ("2025-03-01",
// taken as midnight UTC) or a full RFC 3339 timestamp.
type Date struct {
	time.Time
}

// DateOf wraps t.
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return Date{Time: t}, nil
}

// UnmarshalJSON accepts a date string; null leaves d unchanged.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimePtr returns the wrapped time, or nil for a nil date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
