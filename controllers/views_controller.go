package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
)

// eventCard is the public face of an event. It leaves registrant details out.
type eventCard struct {
	ID              string         `json:"_id"`
	Name            string         `json:"name"`
	Venue           string         `json:"venue"`
	Date            time.Time      `json:"date"`
	Time            string         `json:"time"`
	Description     string         `json:"description"`
	Category        catalog.Type   `json:"category"`
	Status          catalog.Status `json:"status"`
	Capacity        int            `json:"capacity"`
	RegisteredCount int            `json:"registeredCount"`
	RemainingSlots  int            `json:"remainingSlots"`
	IsFull          bool           `json:"isFull"`
	CanRegister     bool           `json:"canRegister"`
}

func newEventCard(ev models.Event, today time.Time) eventCard {
	return eventCard{
		ID:              ev.ID,
		Name:            ev.Name,
		Venue:           ev.Venue,
		Date:            ev.Date,
		Time:            ev.Time,
		Description:     ev.Description,
		Category:        catalog.ClassifyType(ev),
		Status:          catalog.ClassifyStatus(ev, today),
		Capacity:        ev.Capacity,
		RegisteredCount: len(ev.RegisteredUsers),
		RemainingSlots:  catalog.RemainingSlots(ev),
		IsFull:          catalog.IsFull(ev),
		CanRegister:     catalog.CanRegister(ev, today),
	}
}

type sectionView struct {
	Status catalog.Status `json:"status"`
	Title  string         `json:"title"`
	Events []eventCard    `json:"events"`
}

type listingView struct {
	Type     *catalog.Type  `json:"type"`
	Types    []catalog.Type `json:"types"`
	Sections []sectionView  `json:"sections"`
	Count    int            `json:"count"`
	Empty    bool           `json:"empty"`
}

// ---------------- LISTING ----------------
func ListingView(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var selected *catalog.Type
		if raw := strings.TrimSpace(c.Query("type")); raw != "" {
			t, err := catalog.ParseType(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			selected = &t
		}

		events, err := d.Store.List(c.Request.Context())
		if err != nil {
			storeError(c, err, "fetch events")
			return
		}

		today := d.today()
		groups := catalog.Group(events, today, selected)

		view := listingView{
			Type:     selected,
			Types:    catalog.Types,
			Sections: make([]sectionView, 0, 3),
			Count:    groups.Len(),
			Empty:    len(events) == 0,
		}
		for _, s := range groups.Sections() {
			cards := make([]eventCard, 0, len(s.Events))
			for _, ev := range s.Events {
				cards = append(cards, newEventCard(ev, today))
			}
			view.Sections = append(view.Sections, sectionView{Status: s.Status, Title: s.Title, Events: cards})
		}

		c.JSON(http.StatusOK, view)
	}
}

// ---------------- REGISTRATION PAGE ----------------
func RegistrationView(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := d.Store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			storeError(c, err, "fetch event")
			return
		}

		today := d.today()
		card := newEventCard(event, today)

		closed := ""
		switch {
		case card.Status == catalog.Past:
			closed = msgRegistrationClosed
		case card.IsFull:
			closed = "This event is fully booked!"
		}

		c.JSON(http.StatusOK, gin.H{
			"event":         card,
			"formOpen":      card.CanRegister,
			"closedMessage": closed,
		})
	}
}

type galleryEntry struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Venue      string    `json:"venue"`
	Date       time.Time `json:"date"`
	Cover      string    `json:"cover"`
	PhotoCount int       `json:"photoCount"`
	Photos     []string  `json:"photos"`
}

// ---------------- GALLERY ----------------
func GalleryView(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := d.Store.List(c.Request.Context())
		if err != nil {
			storeError(c, err, "fetch events")
			return
		}

		entries := make([]galleryEntry, 0)
		for _, ev := range catalog.GalleryEvents(events, d.today()) {
			entries = append(entries, galleryEntry{
				ID:         ev.ID,
				Name:       ev.Name,
				Venue:      ev.Venue,
				Date:       ev.Date,
				Cover:      ev.Photos[0],
				PhotoCount: len(ev.Photos),
				Photos:     ev.Photos,
			})
		}

		c.JSON(http.StatusOK, gin.H{"events": entries})
	}
}

type adminEntry struct {
	eventCard
	AdminStatus  string `json:"adminStatus"`
	StatusLabel  string `json:"statusLabel"`
	CanEdit      bool   `json:"canEdit"`
	CanAddPhotos bool   `json:"canAddPhotos"`
	CanDelete    bool   `json:"canDelete"`
	PhotoCount   int    `json:"photoCount"`
}

// statusLabel capitalises the admin-set status; unset shows as Upcoming.
func statusLabel(status string) string {
	if status == "" {
		return "Upcoming"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

// ---------------- ADMIN DASHBOARD ----------------
func AdminView(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := d.Store.List(c.Request.Context())
		if err != nil {
			storeError(c, err, "fetch events")
			return
		}

		today := d.today()
		entries := make([]adminEntry, 0, len(events))
		for _, ev := range events {
			completed := ev.Status == models.StatusCompleted
			entries = append(entries, adminEntry{
				eventCard:    newEventCard(ev, today),
				AdminStatus:  ev.Status,
				StatusLabel:  statusLabel(ev.Status),
				CanEdit:      !completed,
				CanAddPhotos: completed,
				CanDelete:    true,
				PhotoCount:   len(ev.Photos),
			})
		}

		c.JSON(http.StatusOK, gin.H{"events": entries})
	}
}

// ---------------- ADMIN REGISTRATIONS ----------------
func RegistrationsView(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := d.Store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			storeError(c, err, "fetch event")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"_id":         event.ID,
			"name":        event.Name,
			"capacity":    event.Capacity,
			"registrants": event.RegisteredUsers,
		})
	}
}
