package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
	store "github.com/phillip/eventhub-go/store"
	utils "github.com/phillip/eventhub-go/utils"
)

const (
	msgRegistered         = "Successfully registered for the event!"
	msgRegistrationFailed = "Registration failed"
	msgRegistrationClosed = "Registration is closed for this event"
)

type registrationForm struct {
	Name  string `json:"name" form:"name" binding:"required"`
	Email string `json:"email" form:"email" binding:"required,email"`
	Phone string `json:"phone" form:"phone" binding:"required"`
}

// registrationError carries the text under both keys; browser clients show
// response.data.message.
func registrationError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg, "message": msg})
}

// ---------------- REGISTER ----------------
func RegisterForEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input registrationForm
		if err := c.ShouldBind(&input); err != nil {
			registrationError(c, http.StatusBadRequest, "name, a valid email and phone are required")
			return
		}

		ctx := c.Request.Context()
		eventID := c.Param("id")

		event, err := d.Store.Get(ctx, eventID)
		switch {
		case errors.Is(err, store.ErrInvalidID), errors.Is(err, store.ErrNotFound):
			registrationError(c, http.StatusNotFound, "Event not found")
			return
		case err != nil:
			log.WithError(err).WithField("event_id", eventID).Error("registration lookup failed")
			registrationError(c, http.StatusInternalServerError, msgRegistrationFailed)
			return
		}

		if catalog.ClassifyStatus(event, d.today()) == catalog.Past {
			registrationError(c, http.StatusConflict, msgRegistrationClosed)
			return
		}
		if catalog.IsFull(event) {
			registrationError(c, http.StatusConflict, store.ErrEventFull.Error())
			return
		}

		registrant := models.Registrant{
			Name:  strings.TrimSpace(input.Name),
			Email: input.Email,
			Phone: strings.TrimSpace(input.Phone),
		}
		updated, err := d.Store.Register(ctx, eventID, registrant)
		switch {
		case errors.Is(err, store.ErrEventFull), errors.Is(err, store.ErrAlreadyRegistered):
			registrationError(c, http.StatusConflict, err.Error())
			return
		case errors.Is(err, store.ErrNotFound):
			registrationError(c, http.StatusNotFound, "Event not found")
			return
		case err != nil:
			log.WithError(err).WithField("event_id", eventID).Error("registration failed")
			registrationError(c, http.StatusInternalServerError, msgRegistrationFailed)
			return
		}

		log.WithFields(log.Fields{
			"event_id":  eventID,
			"remaining": catalog.RemainingSlots(updated),
		}).Info("registrant added")

		if d.Mailer.Enabled() {
			go sendConfirmation(d.Mailer, registrant, updated)
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":        msgRegistered,
			"remainingSlots": catalog.RemainingSlots(updated),
		})
	}
}

func sendConfirmation(m *utils.Mailer, r models.Registrant, ev models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subject, body := utils.RegistrationEmail(r.Name, ev.Name, ev.Venue, ev.Date, ev.Time)
	if err := m.SendEmail(ctx, strings.TrimSpace(r.Email), r.Name, subject, body); err != nil {
		log.WithError(err).WithField("event_id", ev.ID).Warn("confirmation email not sent")
	}
}
