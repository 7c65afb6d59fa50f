package controllers

import (
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
	utils "github.com/phillip/eventhub-go/utils"
)

// buildCalendar renders every event as a VEVENT. Events whose time does not
// parse become all-day entries.
func buildCalendar(events []models.Event, loc *time.Location, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//eventhub//events//EN")
	cal.SetName("Events")

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@eventhub")
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Name)
		ve.SetLocation(ev.Venue)
		ve.SetDescription(ev.Description)
		ve.SetProperty(ical.ComponentPropertyCategories, string(catalog.ClassifyType(ev)))

		y, m, d := ev.Date.UTC().Date()
		if offset, err := utils.ParseClock(ev.Time); err == nil {
			ve.SetStartAt(time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset))
		} else {
			ve.SetAllDayStartAt(time.Date(y, m, d, 0, 0, 0, 0, loc))
		}
	}
	return cal.Serialize()
}

// ---------------- CALENDAR FEED ----------------
func CalendarFeed(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := d.Store.List(c.Request.Context())
		if err != nil {
			storeError(c, err, "fetch events")
			return
		}

		loc := d.Location
		if loc == nil {
			loc = time.Local
		}
		body := buildCalendar(events, loc, d.today())

		c.Header("Content-Disposition", `inline; filename="events.ics"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
	}
}
