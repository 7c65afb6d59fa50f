// Package store persists events together with their registrants and photo
// URIs. Two backends share one contract: MongoDB for deployments and an
// embedded SQLite database for single-host setups and tests.
package store

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
)

var (
	ErrNotFound          = errors.New("event not found")
	ErrInvalidID         = errors.New("invalid event id")
	ErrEventFull         = errors.New("event is fully booked")
	ErrAlreadyRegistered = errors.New("this email is already registered for the event")
	ErrPhotoIndex        = catalog.ErrPhotoIndex
	// ErrConflict means the record changed between read and write; the
	// caller may retry.
	ErrConflict = errors.New("event was modified concurrently, try again")
)

type EventStore interface {
	List(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, in models.EventInput) (models.Event, error)
	// Update replaces every admin-editable field. Registrants and photos are kept.
	Update(ctx context.Context, id string, in models.EventInput) (models.Event, error)
	// Delete returns the removed event so callers can clean up its photos.
	Delete(ctx context.Context, id string) (models.Event, error)
	// Register appends a registrant unless the event is full or the email is
	// already registered. The capacity check and the append are atomic.
	Register(ctx context.Context, id string, r models.Registrant) (models.Event, error)
	AddPhotos(ctx context.Context, id string, uris []string) (models.Event, error)
	// RemovePhoto deletes the photo at index and returns its URI.
	RemovePhoto(ctx context.Context, id string, index int) (string, error)
	Close(ctx context.Context) error
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// NormalizeEmail is the key used for duplicate registrant detection.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func withDefaults(ev models.Event) models.Event {
	if ev.RegisteredUsers == nil {
		ev.RegisteredUsers = []models.Registrant{}
	}
	if ev.Photos == nil {
		ev.Photos = []string{}
	}
	return ev
}
