package catalog

import (
	"time"

	models "github.com/phillip/eventhub-go/models"
)

// RemainingSlots is capacity minus registrants. Negative only for data that
// already violates the capacity ceiling.
func RemainingSlots(ev models.Event) int {
	return ev.Capacity - len(ev.RegisteredUsers)
}

func IsFull(ev models.Event) bool {
	return RemainingSlots(ev) <= 0
}

// CanRegister is the precondition a client checks before offering registration.
func CanRegister(ev models.Event, today time.Time) bool {
	return ClassifyStatus(ev, today) != Past && !IsFull(ev)
}
