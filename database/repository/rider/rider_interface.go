package riderRepo

import (
	"time"

	"ridelink/models"
)

// RiderRepository defines data access for rider stats.
type RiderRepository interface {
	// GetByPhone retrieves a rider record, or an error when none exists.
	GetByPhone(phone string) (*models.Rider, error)
	// RecordBookingOutcome upserts the rider and, when the booking was
	// accepted, bumps the ride counter and last-ride timestamp.
	RecordBookingOutcome(phone string, accepted bool, rideTime time.Time) error
}
