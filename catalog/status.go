// Package catalog derives display state from event records: date/status
// classification, remaining capacity, category buckets and the grouping used
// by the listing, gallery and admin views.
package catalog

import (
	"time"

	models "github.com/phillip/eventhub-go/models"
)

type Status string

const (
	Past     Status = "past"
	Present  Status = "present"
	Upcoming Status = "upcoming"
)

// ClassifyStatus maps an event to past, present or upcoming. An admin-set
// status always wins over the event date.
func ClassifyStatus(ev models.Event, today time.Time) Status {
	if ev.Status != "" {
		switch ev.Status {
		case models.StatusCompleted:
			return Past
		case models.StatusOngoing:
			return Present
		default:
			return Upcoming
		}
	}
	return classifyByDate(ev.Date, today)
}

func classifyByDate(date, today time.Time) Status {
	d := eventDay(date)
	t := midnight(today)
	switch {
	case d.Before(t):
		return Past
	case d.Equal(t):
		return Present
	default:
		return Upcoming
	}
}

// eventDay reads the stored calendar date (UTC midnight) as a bare date.
func eventDay(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// midnight strips the time of day in t's own location and re-expresses the
// calendar date in UTC so it compares against eventDay.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDatePast reports whether the event date lies strictly before today,
// ignoring any admin-set status.
func IsDatePast(ev models.Event, today time.Time) bool {
	return classifyByDate(ev.Date, today) == Past
}
