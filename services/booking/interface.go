package booking

import (
	"context"
	"time"

	driverRepo "ridelink/database/repository/driver"
	rideRepo "ridelink/database/repository/ride"
	riderRepo "ridelink/database/repository/rider"
	"ridelink/models"
	"ridelink/services/calendar"
	"ridelink/services/maps"
	"ridelink/services/notification"
	"ridelink/services/preference"

	"github.com/go-redis/redis/v8"
)

// BookingRequest carries the four collected slots plus the rider identity.
type BookingRequest struct {
	DriverPhone       string    `json:"driverPhone" binding:"required"`
	RiderPhone        string    `json:"riderPhone" binding:"required"`
	From              string    `json:"from" binding:"required"`
	To                string    `json:"to" binding:"required"`
	RequestedTime     time.Time `json:"requestedTime" binding:"required"`
	EstimatedDuration int       `json:"estimatedDuration"`
}

// BookingService is the decision engine: it accepts or rejects a fully
// specified booking, ranks drivers for auto-assignment, and reports ride
// status.
type BookingService interface {
	Book(ctx context.Context, req BookingRequest) (*models.BookingOutcome, error)
	GetRideStatus(rideID string) (*models.Ride, error)
	DetectConflicts(ctx context.Context, driverPhone, riderPhone string, start, end time.Time) (*models.ConflictReport, error)
	ValidatePickupDistance(ctx context.Context, driverPhone, pickup string, requestedTime time.Time) (*ProximityResult, error)
	FindNearestAvailable(ctx context.Context, pickup string, requestedTime time.Time, maxResults int) ([]models.RankedDriver, error)
	Stats() (map[models.RideStatus]int64, error)
}

// ReminderScheduler queues pickup reminders for accepted rides.
type ReminderScheduler interface {
	ScheduleRideReminder(ride *models.Ride) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	RideRepo   rideRepo.RideRepository
	DriverRepo driverRepo.DriverRepository
	RiderRepo  riderRepo.RiderRepository

	CalendarSvc   calendar.CalendarService
	MapsSvc       maps.MapsService
	NotifySvc     notification.NotificationService
	PreferenceSvc preference.PreferenceService
	Reminders     ReminderScheduler

	LockClient *redis.Client
}

// NewDefaultBookingService wires the engine with its collaborators.
func NewDefaultBookingService(
	rides rideRepo.RideRepository,
	drivers driverRepo.DriverRepository,
	riders riderRepo.RiderRepository,
	cal calendar.CalendarService,
	m maps.MapsService,
	notify notification.NotificationService,
	prefs preference.PreferenceService,
	reminders ReminderScheduler,
	lockClient *redis.Client,
) *DefaultBookingService {
	return &DefaultBookingService{
		RideRepo:      rides,
		DriverRepo:    drivers,
		RiderRepo:     riders,
		CalendarSvc:   cal,
		MapsSvc:       m,
		NotifySvc:     notify,
		PreferenceSvc: prefs,
		Reminders:     reminders,
		LockClient:    lockClient,
	}
}
