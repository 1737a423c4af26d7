package conversation

import (
	"fmt"
	"strings"

	"ridelink/config"
	"ridelink/models"
	"ridelink/services/booking"
	"ridelink/services/notification"
)

const (
	promptFrom   = "👋 Where should the driver pick you up?"
	promptTo     = "Got it. Where are you going?"
	promptTime   = "When do you need the ride? (e.g. \"3pm\", \"tomorrow 9am\", \"in 2 hours\", \"now\")"
	promptDriver = "Which driver would you like? Reply with their phone number, or say \"auto\" to assign the nearest available driver."

	retryPrompt = "Sorry, something went wrong on our side. Please send that again."

	helpText = "I can book rides for you. Tell me your pickup, destination, time and driver step by step, or just describe the whole trip in one message.\n" +
		"Commands:\n" +
		"  restart — start over\n" +
		"  enable ai / disable ai — switch between free-form and step-by-step mode\n" +
		"  help — this message"

	restartText = "Okay, starting over. Where should the driver pick you up?"
)

// stepPrompt returns the question for the slot the machine is waiting on.
func stepPrompt(step models.ConversationStep) string {
	switch step {
	case models.StepWaitingForFrom:
		return promptFrom
	case models.StepWaitingForTo:
		return promptTo
	case models.StepWaitingForTime:
		return promptTime
	case models.StepWaitingForDriver:
		return promptDriver
	case models.StepWaitingForAlternativeDriver:
		return "Reply with the number of a listed driver, another driver's phone, \"auto\" for the nearest available one, or \"list\" to see who is nearby."
	case models.StepWaitingForAlternativeTime:
		return "Reply with the number of a suggested time, or a new time."
	default:
		return promptFrom
	}
}

// formatOutcome renders a booking outcome as a conversational reply. The
// notification templates already carry the reason-specific wording.
func formatOutcome(outcome *models.BookingOutcome, req booking.BookingRequest) string {
	ride := &models.Ride{
		RideID:             outcome.RideID,
		DriverPhone:        req.DriverPhone,
		RiderPhone:         req.RiderPhone,
		From:               req.From,
		To:                 req.To,
		RequestedTime:      outcome.RequestedTime,
		EstimatedDuration:  outcome.EstimatedDuration,
		Status:             outcome.Status,
		RejectionReason:    outcome.RejectionReason,
		ConflictResolution: outcome.ConflictResolution,
	}
	return notification.RiderMessage(ride)
}

// formatRankedDrivers renders an auto-assignment candidate list.
func formatRankedDrivers(ranked []models.RankedDriver) string {
	var b strings.Builder
	b.WriteString("Nearest available drivers:")
	for i, d := range ranked {
		name := d.Name
		if name == "" {
			name = d.DriverPhone
		}
		b.WriteString(fmt.Sprintf("\n  %d. %s — %.1f★, %.1f km away", i+1, name, d.Rating, d.DistanceKm))
	}
	b.WriteString("\nReply with a number or a driver's phone.")
	return b.String()
}

// summarizeSlots renders the collected slots for a confirmation prompt.
func summarizeSlots(slots models.RideSlots) string {
	loc := config.Location()
	var b strings.Builder
	b.WriteString("Here's what I have:")
	if slots.From != "" {
		b.WriteString("\n  Pickup: " + slots.From)
	}
	if slots.To != "" {
		b.WriteString("\n  Destination: " + slots.To)
	}
	if slots.Time != nil {
		b.WriteString("\n  Time: " + slots.Time.In(loc).Format("Mon Jan 2, 3:04 PM"))
	}
	if slots.DriverPhone != "" {
		b.WriteString("\n  Driver: " + slots.DriverPhone)
	}
	return b.String()
}
