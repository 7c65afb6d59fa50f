package models

import "time"

// Admin-set event statuses. An empty status means "derive from date".
const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

type Event struct {
	ID              string       `bson:"-" json:"_id"`
	Name            string       `bson:"name" json:"name"`
	Venue           string       `bson:"venue" json:"venue"`
	Date            time.Time    `bson:"date" json:"date"` // calendar date, UTC midnight
	Time            string       `bson:"time" json:"time"` // HH:MM
	Capacity        int          `bson:"capacity" json:"capacity"`
	Description     string       `bson:"description" json:"description"`
	Status          string       `bson:"status,omitempty" json:"status,omitempty"`
	RegisteredUsers []Registrant `bson:"registeredUsers" json:"registeredUsers"`
	Photos          []string     `bson:"photos" json:"photos"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// Registrant is a person signed up for exactly one event.
type Registrant struct {
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone" json:"phone"`
	RegisteredAt time.Time `bson:"registeredAt" json:"registeredAt"`
}

// EventInput carries the admin-editable fields. Updates replace all of them.
type EventInput struct {
	Name        string
	Venue       string
	Date        time.Time
	Time        string
	Capacity    int
	Description string
	Status      string
}
