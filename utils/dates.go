package utils

import (
	"fmt"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}

// ParseEventDate accepts RFC3339 or one of the plain layouts and returns the
// calendar date at UTC midnight.
func ParseEventDate(s string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		for _, layout := range dateLayouts {
			if t, e := time.Parse(layout, s); e == nil {
				parsed = t
				err = nil
				break
			}
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date format, use RFC3339 or YYYY-MM-DD")
		}
	}
	y, m, d := parsed.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ParseClock validates an HH:MM time of day.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time format, use HH:MM")
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ResolveLocation loads an IANA zone, falling back to time.Local.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
