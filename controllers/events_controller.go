package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	models "github.com/phillip/eventhub-go/models"
	utils "github.com/phillip/eventhub-go/utils"
)

// flexInt accepts both 50 and "50"; browser number inputs post strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("capacity must be a whole number")
		}
		*n = flexInt(v)
		return nil
	case string:
		return n.UnmarshalParam(v)
	default:
		return fmt.Errorf("capacity must be a number")
	}
}

// UnmarshalParam lets gin's form binding decode the same way.
func (n *flexInt) UnmarshalParam(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("capacity must be a number")
	}
	*n = flexInt(v)
	return nil
}

type eventForm struct {
	Name        string   `json:"name" form:"name" binding:"required"`
	Venue       string   `json:"venue" form:"venue" binding:"required"`
	Date        string   `json:"date" form:"date" binding:"required"`
	Time        string   `json:"time" form:"time" binding:"required"`
	Capacity    *flexInt `json:"capacity" form:"capacity" binding:"required"`
	Description string   `json:"description" form:"description" binding:"required"`
	Status      string   `json:"status" form:"status" binding:"omitempty,oneof=upcoming ongoing completed"`
}

// bindEventForm binds and validates the admin event form.
func bindEventForm(c *gin.Context) (models.EventInput, bool) {
	var input eventForm
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.EventInput{}, false
	}

	date, err := utils.ParseEventDate(strings.TrimSpace(input.Date))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.EventInput{}, false
	}
	clock := strings.TrimSpace(input.Time)
	if _, err := utils.ParseClock(clock); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.EventInput{}, false
	}
	if *input.Capacity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "capacity must not be negative"})
		return models.EventInput{}, false
	}

	return models.EventInput{
		Name:        strings.TrimSpace(input.Name),
		Venue:       strings.TrimSpace(input.Venue),
		Date:        date,
		Time:        clock,
		Capacity:    int(*input.Capacity),
		Description: input.Description,
		Status:      input.Status,
	}, true
}

// ---------------- CREATE ----------------
func CreateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindEventForm(c)
		if !ok {
			return
		}
		if in.Status == "" {
			in.Status = models.StatusUpcoming
		}

		event, err := d.Store.Create(c.Request.Context(), in)
		if err != nil {
			storeError(c, err, "create event")
			return
		}

		log.WithFields(log.Fields{"event_id": event.ID, "name": event.Name}).Info("event created")
		c.JSON(http.StatusCreated, event)
	}
}

// ---------------- LIST ----------------
func ListEvents(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := d.Store.List(c.Request.Context())
		if err != nil {
			storeError(c, err, "fetch events")
			return
		}

		if len(events) == 0 {
			c.JSON(http.StatusOK, []models.Event{})
			return
		}

		// --- Pick the most recently updated event ---
		latest := events[0]
		for _, ev := range events {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		// The count is part of the tag so a delete also changes it.
		etag := utils.GenerateETag(latest.ID+":"+strconv.Itoa(len(events)), latest.UpdatedAt)
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}

		c.JSON(http.StatusOK, events)
	}
}

// ---------------- GET ----------------
func GetEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := d.Store.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			storeError(c, err, "fetch event")
			return
		}

		etag := utils.GenerateETag(event.ID, event.UpdatedAt)
		c.Header("ETag", etag)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindEventForm(c)
		if !ok {
			return
		}

		updated, err := d.Store.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			storeError(c, err, "update event")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Event updated successfully",
			"event":   updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		existing, err := d.Store.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			storeError(c, err, "delete event")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, uri := range existing.Photos {
			if err := d.Photos.Delete(ctx, uri); err != nil {
				log.WithError(err).WithField("photo", uri).Warn("could not delete photo from storage")
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "event deleted successfully",
			"id":      existing.ID,
		})
	}
}
