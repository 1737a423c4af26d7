package notification

import (
	"context"
	"fmt"
	"strings"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// NotifyBookingOutcome fans out the decision. The rider always receives a
// message; the driver is told only about rides they actually got. Every
// delivery failure is swallowed after logging.
func (s *DefaultNotificationService) NotifyBookingOutcome(ctx context.Context, ride *models.Ride, driver *models.Driver) {
	logger := utils.GetLogger()

	riderMsg := RiderMessage(ride)
	if err := s.SendWhatsApp(ctx, ride.RiderPhone, riderMsg); err != nil {
		logger.Warn("Rider notification failed", zap.String("rideId", ride.RideID), zap.Error(err))
	}

	if ride.Status != models.StatusAutoAccepted {
		return
	}

	driverMsg := DriverMessage(ride)
	if err := s.SendWhatsApp(ctx, ride.DriverPhone, driverMsg); err != nil {
		logger.Warn("Driver notification failed", zap.String("rideId", ride.RideID), zap.Error(err))
	}
	if driver != nil && driver.FCMToken != "" {
		if err := s.SendDriverPush(ctx, driver, "New ride assigned", driverMsg, map[string]string{
			"type":   "ride_assigned",
			"rideId": ride.RideID,
		}); err != nil {
			logger.Debug("Driver push failed", zap.String("rideId", ride.RideID), zap.Error(err))
		}
	}
}

// RiderMessage renders the outcome text sent to the rider, with
// reason-specific resolution guidance on rejection.
func RiderMessage(ride *models.Ride) string {
	loc := config.Location()
	when := ride.RequestedTime.In(loc).Format("Mon Jan 2, 3:04 PM")

	if ride.Status == models.StatusAutoAccepted {
		return fmt.Sprintf("✅ Ride confirmed!\nFrom: %s\nTo: %s\nWhen: %s\nDriver: %s",
			ride.From, ride.To, when, ride.DriverPhone)
	}

	var b strings.Builder
	switch ride.RejectionReason {
	case models.ReasonDriverConflict:
		b.WriteString("❌ Your driver is already booked at that time.")
	case models.ReasonRiderConflict:
		b.WriteString("❌ You already have a commitment at that time.")
	case models.ReasonDriverLocation:
		b.WriteString("❌ That driver is too far from your pickup point.\nReply with a different driver, or say \"auto\" to find the nearest available one.")
	default:
		b.WriteString("❌ Your ride could not be booked. Please try again shortly.")
	}

	if res := ride.ConflictResolution; res != nil {
		if res.Suggestion != "" {
			b.WriteString("\n" + res.Suggestion)
		}
		for i, alt := range res.AlternativeDrivers {
			if i == 0 {
				b.WriteString("\nAvailable drivers:")
			}
			b.WriteString(fmt.Sprintf("\n  %d. %s (%.1f★, %.1f km away)", i+1, alt.DriverPhone, alt.Rating, alt.DistanceKm))
		}
		for i, t := range res.SuggestedTimes {
			if i == 0 {
				b.WriteString("\nSuggested times:")
			}
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, t.Display))
		}
	}
	return b.String()
}

// DriverMessage renders the assignment text sent to the driver.
func DriverMessage(ride *models.Ride) string {
	loc := config.Location()
	when := ride.RequestedTime.In(loc).Format("Mon Jan 2, 3:04 PM")
	return fmt.Sprintf("🚗 New ride assigned\nPickup: %s\nDrop-off: %s\nWhen: %s\nRider: %s",
		ride.From, ride.To, when, ride.RiderPhone)
}
