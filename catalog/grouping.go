package catalog

import (
	"time"

	models "github.com/phillip/eventhub-go/models"
)

// Groups is a stable partition of events by status. Relative order inside
// each bucket is the input order.
type Groups struct {
	Present  []models.Event
	Upcoming []models.Event
	Past     []models.Event
}

type Section struct {
	Status Status
	Title  string
	Events []models.Event
}

// FilterByType keeps the events whose category is typ, preserving order.
func FilterByType(events []models.Event, typ Type) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ClassifyType(ev) == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Group restricts events to typ when it is non-nil and then partitions them
// by status.
func Group(events []models.Event, today time.Time, typ *Type) Groups {
	if typ != nil {
		events = FilterByType(events, *typ)
	}
	var g Groups
	for _, ev := range events {
		switch ClassifyStatus(ev, today) {
		case Present:
			g.Present = append(g.Present, ev)
		case Upcoming:
			g.Upcoming = append(g.Upcoming, ev)
		default:
			g.Past = append(g.Past, ev)
		}
	}
	return g
}

func (g Groups) Len() int {
	return len(g.Present) + len(g.Upcoming) + len(g.Past)
}

// Sections returns the non-empty buckets in display order.
func (g Groups) Sections() []Section {
	all := []Section{
		{Status: Present, Title: "Present Events", Events: g.Present},
		{Status: Upcoming, Title: "Upcoming Events", Events: g.Upcoming},
		{Status: Past, Title: "Past Events", Events: g.Past},
	}
	out := make([]Section, 0, len(all))
	for _, s := range all {
		if len(s.Events) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// GalleryEvents keeps finished events that have at least one photo. An event
// counts as finished when an admin marked it completed or its date is past.
func GalleryEvents(events []models.Event, today time.Time) []models.Event {
	out := make([]models.Event, 0)
	for _, ev := range events {
		finished := ev.Status == models.StatusCompleted || IsDatePast(ev, today)
		if finished && len(ev.Photos) > 0 {
			out = append(out, ev)
		}
	}
	return out
}
