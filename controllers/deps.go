package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	config "github.com/phillip/eventhub-go/config"
	store "github.com/phillip/eventhub-go/store"
	utils "github.com/phillip/eventhub-go/utils"
)

// Deps is what every handler closes over.
type Deps struct {
	Config   *config.Config
	Store    store.EventStore
	Photos   utils.PhotoStore
	Mailer   *utils.Mailer
	Location *time.Location
	Now      func() time.Time
}

// today is the current instant in the display time zone.
func (d *Deps) today() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// storeError answers a failed store call. Unknown errors are logged and
// hidden behind a static message.
func storeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, store.ErrPhotoIndex):
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("event_id", c.Param("id")).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + action})
	}
}
