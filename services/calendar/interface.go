package calendar

import (
	"context"
	"time"

	"ridelink/models"
)

// CalendarService wraps the external calendar. Implementations degrade
// gracefully: callers treat errors as "calendar unavailable", never as a
// booking failure.
type CalendarService interface {
	// ListEvents returns events overlapping [from, to) on the configured
	// calendar.
	ListEvents(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
	// CreateRideEvent writes a confirmed ride to the calendar and returns the
	// event ID.
	CreateRideEvent(ctx context.Context, ride *models.Ride) (string, error)
	// Enabled reports whether a real calendar backend is wired.
	Enabled() bool
}
