package rideRepo

import (
	"time"

	"ridelink/models"
)

// RideRepository defines data access for ride records.
type RideRepository interface {
	// Create persists a new ride record.
	Create(ride *models.Ride) error
	// GetByRideID retrieves a ride by its unique ride id.
	GetByRideID(rideID string) (*models.Ride, error)
	// SetCalendarEventID links a ride to its external calendar event. The only
	// mutation a ride record permits after creation.
	SetCalendarEventID(rideID, eventID string) error
	// FindOverlapping returns occupied rides (auto_accepted or completed) for
	// the given phone whose [requestedTime, requestedTime+duration) window
	// intersects [start, end). The asDriver flag selects which party to match.
	FindOverlapping(phone string, asDriver bool, start, end time.Time) ([]models.Ride, error)
	// FindSameDay returns a driver's occupied rides on the calendar date of
	// day, ordered by requested time.
	FindSameDay(driverPhone string, day time.Time) ([]models.Ride, error)
	// FindNearTime returns a driver's occupied rides whose requested time lies
	// within [t-before, t+after]. Used by the fail-closed availability scan.
	FindNearTime(driverPhone string, t time.Time, before, after time.Duration) ([]models.Ride, error)
	// LatestAcceptedByDriver returns the most recently created accepted ride
	// for a driver, or nil when none exists.
	LatestAcceptedByDriver(driverPhone string) (*models.Ride, error)
	// CountByStatus returns ride counts grouped by status, for the stats
	// endpoint.
	CountByStatus() (map[models.RideStatus]int64, error)
}
