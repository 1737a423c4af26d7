package driverRepo

import (
	"time"

	"ridelink/models"
)

// DriverRepository defines data access for the fleet roster.
type DriverRepository interface {
	// GetByPhone retrieves a driver by phone number.
	GetByPhone(phone string) (*models.Driver, error)
	// ListByRatingAndRides returns the full roster ordered by rating then
	// completed rides, descending. Pre-filter ordering for the ranker.
	ListByRatingAndRides() ([]models.Driver, error)
	// UpdateLocation upserts the driver's tracked location with a fresh
	// staleness timestamp.
	UpdateLocation(phone, address string, at time.Time) error
	// IncrementRides bumps the driver's total ride counter when a booking
	// is committed to them.
	IncrementRides(phone string) error
	// Create inserts a roster entry.
	Create(driver *models.Driver) error
}
