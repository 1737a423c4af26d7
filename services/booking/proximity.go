package booking

import (
	"context"
	"fmt"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// ProximityResult reports whether a driver can feasibly reach a pickup.
type ProximityResult struct {
	Valid             bool     `json:"valid"`
	Reason            string   `json:"reason,omitempty"`
	Warning           string   `json:"warning,omitempty"`
	DistanceKm        *float64 `json:"distanceKm,omitempty"`
	DurationMin       *float64 `json:"durationMin,omitempty"`
	ConflictingRideID string   `json:"conflictingRideId,omitempty"`
}

func pass() *ProximityResult { return &ProximityResult{Valid: true} }

func passWithWarning(w string) *ProximityResult {
	return &ProximityResult{Valid: true, Warning: w}
}

// ValidatePickupDistance decides whether the driver can reach the pickup.
// Near-term requests check the driver's last known position against caps;
// future requests check the driver's same-day schedule for rides the travel
// buffer cannot absorb. Distance subsystem failures warn and pass, never
// block.
func (svc *DefaultBookingService) ValidatePickupDistance(ctx context.Context, driverPhone, pickup string, requestedTime time.Time) (*ProximityResult, error) {
	driver, err := svc.DriverRepo.GetByPhone(driverPhone)
	if err != nil {
		return nil, fmt.Errorf("unknown driver %s: %w", driverPhone, err)
	}

	leadHours := time.Until(requestedTime).Hours()
	if leadHours > config.AppConfig.FutureBookingLeadHours {
		return svc.validateFutureBooking(ctx, driver, pickup, requestedTime)
	}
	return svc.validateNearTerm(ctx, driver, pickup)
}

// validateNearTerm compares the driver's last known location with the pickup.
func (svc *DefaultBookingService) validateNearTerm(ctx context.Context, driver *models.Driver, pickup string) (*ProximityResult, error) {
	logger := utils.GetLogger()

	location, locatedAt := svc.resolveDriverLocation(driver)
	if location == "" {
		// No prior location to measure from.
		return pass(), nil
	}

	if locatedAt != nil {
		staleness := time.Since(*locatedAt)
		if staleness > time.Duration(config.AppConfig.LocationStalenessMin)*time.Minute {
			return passWithWarning(fmt.Sprintf(
				"driver location is %.0f minutes old, skipping distance check", staleness.Minutes())), nil
		}
	}

	leg, err := svc.MapsSvc.DistanceBetween(ctx, location, pickup)
	if err != nil {
		logger.Warn("Distance check failed, passing with warning",
			zap.String("driver", driver.Phone), zap.Error(err))
		return passWithWarning("could not verify driver distance to pickup"), nil
	}
	if leg == nil {
		return passWithWarning("route between driver and pickup could not be resolved"), nil
	}

	maxKm, maxMin := driverCaps(driver)
	if leg.Km > maxKm {
		return &ProximityResult{
			Valid:       false,
			Reason:      fmt.Sprintf("driver is %.1f km from pickup (max %.0f km)", leg.Km, maxKm),
			DistanceKm:  &leg.Km,
			DurationMin: &leg.Minutes,
		}, nil
	}
	if leg.Minutes > maxMin {
		return &ProximityResult{
			Valid:       false,
			Reason:      fmt.Sprintf("driver is %.0f minutes from pickup (max %.0f min)", leg.Minutes, maxMin),
			DistanceKm:  &leg.Km,
			DurationMin: &leg.Minutes,
		}, nil
	}

	return &ProximityResult{Valid: true, DistanceKm: &leg.Km, DurationMin: &leg.Minutes}, nil
}

// validateFutureBooking checks the driver's same-day rides. A ride is a
// blocker only when the travel from it to the new pickup is beyond the
// same-area threshold yet inside the minimum gap: the driver needs to move
// and has no buffer to do it. Both ends of each existing ride are checked
// since the driver may leave from either.
func (svc *DefaultBookingService) validateFutureBooking(ctx context.Context, driver *models.Driver, pickup string, requestedTime time.Time) (*ProximityResult, error) {
	logger := utils.GetLogger()

	day := requestedTime.In(config.Location())
	sameDay, err := svc.RideRepo.FindSameDay(driver.Phone, day)
	if err != nil {
		logger.Warn("Same-day scan failed, passing with warning",
			zap.String("driver", driver.Phone), zap.Error(err))
		return passWithWarning("could not verify driver schedule for that day"), nil
	}
	if len(sameDay) == 0 {
		return pass(), nil
	}

	sameAreaMin := config.AppConfig.SameAreaThresholdMin
	gapMin := config.AppConfig.MinimumGapHours * 60

	for _, ride := range sameDay {
		for _, origin := range []string{ride.To, ride.From} {
			leg, err := svc.MapsSvc.DistanceBetween(ctx, origin, pickup)
			if err != nil || leg == nil {
				continue
			}
			if leg.Minutes > sameAreaMin && leg.Minutes <= gapMin {
				return &ProximityResult{
					Valid: false,
					Reason: fmt.Sprintf(
						"driver has a ride to %s that day, %.0f min travel away with no buffer", ride.To, leg.Minutes),
					DistanceKm:        &leg.Km,
					DurationMin:       &leg.Minutes,
					ConflictingRideID: ride.RideID,
				}, nil
			}
		}
	}
	return pass(), nil
}

// resolveDriverLocation returns the best known position of the driver: the
// tracked location when present, else the destination of the latest accepted
// ride.
func (svc *DefaultBookingService) resolveDriverLocation(driver *models.Driver) (string, *time.Time) {
	if driver.CurrentLocation.Address != "" {
		return driver.CurrentLocation.Address, driver.CurrentLocation.LastUpdated
	}
	latest, err := svc.RideRepo.LatestAcceptedByDriver(driver.Phone)
	if err != nil || latest == nil {
		return "", nil
	}
	_, end := latest.Window()
	return latest.To, &end
}

// driverCaps returns the per-driver distance and duration caps, falling back
// to the configured defaults.
func driverCaps(driver *models.Driver) (float64, float64) {
	maxKm := config.AppConfig.MaxDriverDistanceKm
	maxMin := config.AppConfig.MaxDriverDurationMin
	if driver.ServiceArea.MaxDistanceKm > 0 {
		maxKm = driver.ServiceArea.MaxDistanceKm
	}
	if driver.ServiceArea.MaxDurationMin > 0 {
		maxMin = driver.ServiceArea.MaxDurationMin
	}
	return maxKm, maxMin
}
