package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultEstimatedDuration = 60
	minEstimatedDuration     = 5
	maxEstimatedDuration     = 480

	bookingLockTTL = 15 * time.Second

	// Display window for suggested alternative pickup times.
	suggestionEarliestHour = 6
	suggestionLatestHour   = 22
	maxTimeSuggestions     = 4
)

// Book runs the full decision pipeline: proximity, distance, conflicts,
// decision, persist, then best-effort side effects. The accept/reject
// decision is committed with the ride record before any side effect runs;
// side-effect failures are logged and never overturn it.
func (svc *DefaultBookingService) Book(ctx context.Context, req BookingRequest) (*models.BookingOutcome, error) {
	logger := utils.GetLogger()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	release, err := svc.acquireBookingLocks(ctx, req.DriverPhone, req.RiderPhone)
	if err != nil {
		return nil, err
	}
	defer release()

	rideID := uuid.New().String()
	ride := &models.Ride{
		RideID:            rideID,
		DriverPhone:       req.DriverPhone,
		RiderPhone:        req.RiderPhone,
		From:              req.From,
		To:                req.To,
		RequestedTime:     req.RequestedTime,
		EstimatedDuration: req.EstimatedDuration,
		ProcessedAt:       time.Now(),
		CreatedAt:         time.Now(),
	}

	// Geographic feasibility is checked before conflicts: an unreachable
	// driver is rejected without consulting the calendar at all.
	prox, err := svc.ValidatePickupDistance(ctx, req.DriverPhone, req.From, req.RequestedTime)
	if err != nil {
		return svc.persistSystemFailure(ride, fmt.Sprintf("proximity check failed: %v", err))
	}
	if !prox.Valid {
		// Not a scheduling conflict, so no resolution record is attached.
		// The redirect guidance travels in the outcome message instead.
		ride.Status = models.StatusAutoRejected
		ride.RejectionReason = models.ReasonDriverLocation
		ride.DistanceKm = prox.DistanceKm
		outcome, err := svc.commitDecision(ctx, ride, prox.Warning)
		if err != nil {
			return nil, err
		}
		outcome.Message = locationRejectionMessage(prox.Reason)
		return outcome, nil
	}

	if leg, err := svc.MapsSvc.DistanceBetween(ctx, req.From, req.To); err == nil && leg != nil {
		ride.DistanceKm = &leg.Km
	}

	start, end := ride.Window()
	report, err := svc.DetectConflicts(ctx, req.DriverPhone, req.RiderPhone, start, end)
	if err != nil {
		return svc.persistSystemFailure(ride, fmt.Sprintf("conflict detection failed: %v", err))
	}

	if report.HasConflict {
		ride.Status = models.StatusAutoRejected
		ride.RejectionReason = report.RejectionReason
		ride.ConflictDetails = report.Conflicts
		ride.ConflictResolution = svc.buildResolution(ctx, ride, report)
	} else {
		ride.Status = models.StatusAutoAccepted
	}

	outcome, err := svc.commitDecision(ctx, ride, prox.Warning)
	if err != nil {
		return nil, err
	}
	if report.HasConflict {
		outcome.ConflictSummary = report.Summary
		outcome.Conflicts = report.Conflicts
	}
	logger.Info("Booking decided",
		zap.String("rideId", ride.RideID),
		zap.String("status", string(ride.Status)),
		zap.String("driver", ride.DriverPhone),
		zap.String("rider", ride.RiderPhone))
	return outcome, nil
}

// GetRideStatus returns the audit record for a ride.
func (svc *DefaultBookingService) GetRideStatus(rideID string) (*models.Ride, error) {
	return svc.RideRepo.GetByRideID(rideID)
}

// Stats returns ride counts grouped by status.
func (svc *DefaultBookingService) Stats() (map[models.RideStatus]int64, error) {
	return svc.RideRepo.CountByStatus()
}

func validateRequest(req *BookingRequest) error {
	if !utils.IsValidPhone(req.DriverPhone) {
		return NewValidationError(fmt.Sprintf("invalid driver phone %q", req.DriverPhone))
	}
	if !utils.IsValidPhone(req.RiderPhone) {
		return NewValidationError(fmt.Sprintf("invalid rider phone %q", req.RiderPhone))
	}
	if req.From == "" || req.To == "" {
		return NewValidationError("pickup and destination are required")
	}
	if !req.RequestedTime.After(time.Now()) {
		return NewValidationError("requested time must be in the future")
	}
	if req.EstimatedDuration == 0 {
		req.EstimatedDuration = defaultEstimatedDuration
	}
	if req.EstimatedDuration < minEstimatedDuration || req.EstimatedDuration > maxEstimatedDuration {
		return NewValidationError(fmt.Sprintf("estimated duration must be between %d and %d minutes",
			minEstimatedDuration, maxEstimatedDuration))
	}
	return nil
}

// acquireBookingLocks serializes in-flight bookings per driver and per rider
// so two concurrent requests cannot both pass conflict detection for the
// same slot. Keys are taken in sorted order.
func (svc *DefaultBookingService) acquireBookingLocks(ctx context.Context, driverPhone, riderPhone string) (func(), error) {
	if svc.LockClient == nil {
		return func() {}, nil
	}

	keys := []string{"lock:booking:" + driverPhone, "lock:booking:" + riderPhone}
	sort.Strings(keys)

	var held []string
	release := func() {
		for _, k := range held {
			svc.LockClient.Del(context.Background(), k)
		}
	}

	for _, key := range keys {
		ok, err := svc.LockClient.SetNX(ctx, key, time.Now().UnixNano(), bookingLockTTL).Result()
		if err != nil {
			release()
			return nil, NewSystemError(fmt.Sprintf("booking lock unavailable: %v", err))
		}
		if !ok {
			release()
			return nil, ErrBookingBusy
		}
		held = append(held, key)
	}
	return release, nil
}

// commitDecision persists the ride and then runs every best-effort side
// effect: calendar write, driver location advance, ride counter, affinity
// signal, rider stats, notifications.
func (svc *DefaultBookingService) commitDecision(ctx context.Context, ride *models.Ride, locationWarning string) (*models.BookingOutcome, error) {
	logger := utils.GetLogger()

	if err := svc.RideRepo.Create(ride); err != nil {
		return nil, NewSystemError(fmt.Sprintf("could not persist ride: %v", err))
	}

	accepted := ride.Status == models.StatusAutoAccepted
	var driver *models.Driver
	if d, err := svc.DriverRepo.GetByPhone(ride.DriverPhone); err == nil {
		driver = d
	}

	if accepted {
		if svc.CalendarSvc != nil && svc.CalendarSvc.Enabled() {
			if eventID, err := svc.CalendarSvc.CreateRideEvent(ctx, ride); err != nil {
				logger.Warn("Calendar write failed, ride stays accepted",
					zap.String("rideId", ride.RideID), zap.Error(err))
			} else if err := svc.RideRepo.SetCalendarEventID(ride.RideID, eventID); err != nil {
				logger.Warn("Could not link calendar event", zap.String("rideId", ride.RideID), zap.Error(err))
			} else {
				ride.CalendarEventID = eventID
			}
		}

		_, rideEnd := ride.Window()
		if err := svc.DriverRepo.UpdateLocation(ride.DriverPhone, ride.To, rideEnd); err != nil {
			logger.Warn("Could not advance driver location", zap.String("driver", ride.DriverPhone), zap.Error(err))
		}
		if err := svc.DriverRepo.IncrementRides(ride.DriverPhone); err != nil {
			logger.Debug("Could not bump driver ride count", zap.String("driver", ride.DriverPhone), zap.Error(err))
		}

		if svc.PreferenceSvc != nil {
			if err := svc.PreferenceSvc.RecordAffinity(ctx, ride.RiderPhone, ride.DriverPhone, ride.From, ride.To); err != nil {
				logger.Debug("Affinity record failed", zap.String("rider", ride.RiderPhone), zap.Error(err))
			}
		}

		if svc.Reminders != nil {
			if err := svc.Reminders.ScheduleRideReminder(ride); err != nil {
				logger.Warn("Could not schedule pickup reminder", zap.String("rideId", ride.RideID), zap.Error(err))
			}
		}
	}

	if err := svc.RiderRepo.RecordBookingOutcome(ride.RiderPhone, accepted, ride.RequestedTime); err != nil {
		logger.Warn("Could not update rider stats", zap.String("rider", ride.RiderPhone), zap.Error(err))
	}

	if svc.NotifySvc != nil {
		svc.NotifySvc.NotifyBookingOutcome(ctx, ride, driver)
	}

	outcome := &models.BookingOutcome{
		Success:            accepted,
		RideID:             ride.RideID,
		Status:             ride.Status,
		Message:            outcomeMessage(ride),
		RequestedTime:      ride.RequestedTime,
		EstimatedDuration:  ride.EstimatedDuration,
		RejectionReason:    ride.RejectionReason,
		ConflictResolution: ride.ConflictResolution,
		CalendarEventID:    ride.CalendarEventID,
		LocationWarning:    locationWarning,
	}
	return outcome, nil
}

// persistSystemFailure records an internal failure as a system_error
// rejection so the attempt still leaves an audit trail.
func (svc *DefaultBookingService) persistSystemFailure(ride *models.Ride, detail string) (*models.BookingOutcome, error) {
	logger := utils.GetLogger()
	logger.Error("Booking pipeline failure", zap.String("rideId", ride.RideID), zap.String("detail", detail))

	ride.Status = models.StatusAutoRejected
	ride.RejectionReason = models.ReasonSystemError
	if err := svc.RideRepo.Create(ride); err != nil {
		logger.Error("Could not persist failed ride", zap.String("rideId", ride.RideID), zap.Error(err))
	}
	return &models.BookingOutcome{
		Success:           false,
		RideID:            ride.RideID,
		Status:            ride.Status,
		RejectionReason:   models.ReasonSystemError,
		Message:           "Something went wrong while processing your booking. Please try again shortly.",
		RequestedTime:     ride.RequestedTime,
		EstimatedDuration: ride.EstimatedDuration,
	}, nil
}

// buildResolution attaches the resolution path for a rejection: alternative
// drivers for a driver conflict, alternative times for a rider conflict.
func (svc *DefaultBookingService) buildResolution(ctx context.Context, ride *models.Ride, report *models.ConflictReport) *models.ConflictResolution {
	res := &models.ConflictResolution{Type: report.RejectionReason}

	switch report.RejectionReason {
	case models.ReasonDriverConflict:
		res.Message = "Your driver already has a commitment at that time."
		res.Suggestion = "Reply with another driver's number, or say \"auto\" to assign the nearest available driver."
		if ranked, err := svc.FindNearestAvailable(ctx, ride.From, ride.RequestedTime, 3); err == nil {
			for _, cand := range ranked {
				if cand.DriverPhone == ride.DriverPhone {
					continue
				}
				res.AlternativeDrivers = append(res.AlternativeDrivers, models.AlternativeDriver{
					DriverPhone: cand.DriverPhone,
					Name:        cand.Name,
					Rating:      cand.Rating,
					TotalRides:  cand.TotalRides,
					DistanceKm:  cand.DistanceKm,
				})
			}
		}
	case models.ReasonRiderConflict:
		res.Message = "You already have a commitment at that time."
		res.Suggestion = "Here are some nearby times that work. Reply with one of them or a new time."
		res.SuggestedTimes = SuggestAlternativeTimes(ride.RequestedTime, time.Now())
	}
	return res
}

// SuggestAlternativeTimes offers up to four pickup times at one, two and
// three hour offsets around the requested time, earliest first. Only future
// times whose local hour falls inside the 06:00 to 22:00 display window
// qualify.
func SuggestAlternativeTimes(requested, now time.Time) []models.SuggestedTime {
	loc := config.Location()
	offsets := []int{-3, -2, -1, 1, 2, 3}

	var suggestions []models.SuggestedTime
	for _, h := range offsets {
		t := requested.Add(time.Duration(h) * time.Hour)
		if !t.After(now) {
			continue
		}
		local := t.In(loc)
		if local.Hour() < suggestionEarliestHour || local.Hour() > suggestionLatestHour {
			continue
		}
		suggestions = append(suggestions, models.SuggestedTime{
			Time:          t,
			Display:       local.Format("Mon Jan 2, 3:04 PM"),
			OffsetMinutes: h * 60,
		})
		if len(suggestions) == maxTimeSuggestions {
			break
		}
	}
	return suggestions
}

func locationRejectionMessage(reason string) string {
	msg := "That driver is too far from your pickup point."
	if reason != "" {
		msg = reason
	}
	return msg + " Reply with a different driver, or say \"auto\" to find the nearest available one."
}

func outcomeMessage(ride *models.Ride) string {
	loc := config.Location()
	when := ride.RequestedTime.In(loc).Format("Mon Jan 2, 3:04 PM")
	switch ride.Status {
	case models.StatusAutoAccepted:
		return fmt.Sprintf("Your ride from %s to %s at %s is confirmed.", ride.From, ride.To, when)
	case models.StatusAutoRejected:
		if ride.ConflictResolution != nil {
			return ride.ConflictResolution.Message
		}
		return "Your ride could not be booked."
	default:
		return fmt.Sprintf("Ride %s is %s.", ride.RideID, ride.Status)
	}
}
