package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

const (
	// Availability scan window around the requested time.
	availabilityLookback  = 30 * time.Minute
	availabilityLookahead = 90 * time.Minute

	// distanceScoreRangeKm is the distance at which the distance component
	// of the score bottoms out.
	distanceScoreRangeKm = 15.0
	// experienceCapRides is the ride count at which the experience component
	// saturates.
	experienceCapRides = 100.0
)

// ScoreDriver computes the assignment score for a candidate at the given
// distance. Weights: 40% distance, 40% rating, 20% experience.
func ScoreDriver(distanceKm, rating float64, totalRides int) float64 {
	distanceScore := (distanceScoreRangeKm - distanceKm) / distanceScoreRangeKm
	if distanceScore < 0 {
		distanceScore = 0
	}
	ratingScore := rating / 5.0
	experienceScore := float64(totalRides) / experienceCapRides
	if experienceScore > 1 {
		experienceScore = 1
	}
	return 0.4*distanceScore + 0.4*ratingScore + 0.2*experienceScore
}

// FindNearestAvailable ranks drivers who can reach the pickup and are free at
// the requested time. Availability checks fail closed: a driver whose
// availability cannot be verified is excluded rather than double-booked.
func (svc *DefaultBookingService) FindNearestAvailable(ctx context.Context, pickup string, requestedTime time.Time, maxResults int) ([]models.RankedDriver, error) {
	logger := utils.GetLogger()
	if maxResults <= 0 {
		maxResults = 3
	}

	roster, err := svc.DriverRepo.ListByRatingAndRides()
	if err != nil {
		return nil, fmt.Errorf("could not load driver roster: %w", err)
	}

	var candidates []models.RankedDriver
	for i := range roster {
		driver := &roster[i]

		location, _ := svc.resolveDriverLocation(driver)
		if location == "" {
			continue
		}

		leg, err := svc.MapsSvc.DistanceBetween(ctx, location, pickup)
		if err != nil || leg == nil {
			continue
		}
		maxKm, maxMin := driverCaps(driver)
		if leg.Km > maxKm || leg.Minutes > maxMin {
			continue
		}

		available, err := svc.driverAvailableAt(ctx, driver, requestedTime)
		if err != nil {
			logger.Warn("Availability check failed, excluding driver",
				zap.String("driver", driver.Phone), zap.Error(err))
			continue
		}
		if !available {
			continue
		}

		candidates = append(candidates, models.RankedDriver{
			DriverPhone:     driver.Phone,
			Name:            driver.Name,
			Rating:          driver.Rating,
			TotalRides:      driver.TotalRides,
			Vehicle:         driver.Vehicle,
			DistanceKm:      leg.Km,
			DurationMin:     leg.Minutes,
			CurrentLocation: location,
			Score:           ScoreDriver(leg.Km, driver.Rating, driver.TotalRides),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates, nil
}

// driverAvailableAt checks the driver is free around requestedTime. The
// calendar is authoritative when the driver's integration is enabled;
// otherwise existing bookings near the requested time decide.
func (svc *DefaultBookingService) driverAvailableAt(ctx context.Context, driver *models.Driver, requestedTime time.Time) (bool, error) {
	if driver.CalendarIntegration.Enabled && svc.CalendarSvc != nil && svc.CalendarSvc.Enabled() {
		events, err := svc.CalendarSvc.ListEvents(ctx,
			requestedTime.Add(-availabilityLookback), requestedTime.Add(availabilityLookahead))
		if err != nil {
			return false, err
		}
		prefix := config.AppConfig.CountryCallingPrefix
		for _, ev := range events {
			if utils.TextMentionsPhone(ev.Summary+" "+ev.Description, driver.Phone, prefix) {
				return false, nil
			}
		}
		return true, nil
	}

	rides, err := svc.RideRepo.FindNearTime(driver.Phone, requestedTime, availabilityLookback, availabilityLookahead)
	if err != nil {
		return false, err
	}
	return len(rides) == 0, nil
}
