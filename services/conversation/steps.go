package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/services/booking"
	"ridelink/utils"

	"go.uber.org/zap"
)

// handleStepTurn advances the deterministic slot-by-slot machine.
func (svc *DefaultConversationService) handleStepTurn(ctx context.Context, conv *models.Conversation, text string) string {
	input := strings.TrimSpace(text)

	if conv.Step == models.StepCompleted || conv.Step == models.StepAIManaged {
		// A retired conversation starts a fresh booking with this message.
		conv.Step = models.StepWaitingForFrom
		conv.Slots = models.RideSlots{}
	}

	switch conv.Step {
	case models.StepWaitingForFrom:
		return svc.collectFrom(ctx, conv, input)
	case models.StepWaitingForTo:
		return svc.collectTo(ctx, conv, input)
	case models.StepWaitingForTime:
		return svc.collectTime(conv, input)
	case models.StepWaitingForDriver:
		return svc.collectDriver(ctx, conv, input)
	case models.StepWaitingForAlternativeDriver:
		return svc.collectAlternativeDriver(ctx, conv, input)
	case models.StepWaitingForAlternativeTime:
		return svc.collectAlternativeTime(ctx, conv, input)
	default:
		return stepPrompt(models.StepWaitingForFrom)
	}
}

func (svc *DefaultConversationService) collectFrom(ctx context.Context, conv *models.Conversation, input string) string {
	resolved, err := svc.MapsSvc.ResolveAddress(ctx, input)
	if err != nil {
		return "I couldn't place that pickup point. Please send a more specific address or landmark."
	}
	conv.Slots.From = resolved
	conv.Step = models.StepWaitingForTo
	return stepPrompt(conv.Step)
}

func (svc *DefaultConversationService) collectTo(ctx context.Context, conv *models.Conversation, input string) string {
	resolved, err := svc.MapsSvc.ResolveAddress(ctx, input)
	if err != nil {
		return "I couldn't place that destination. Please send a more specific address or landmark."
	}
	conv.Slots.To = resolved
	conv.Step = models.StepWaitingForTime
	return stepPrompt(conv.Step)
}

func (svc *DefaultConversationService) collectTime(conv *models.Conversation, input string) string {
	t, err := ParseTimeInput(input, time.Now(), config.Location())
	if err != nil {
		return "I couldn't read that as a time. " + promptTime
	}
	conv.Slots.Time = &t
	conv.Step = models.StepWaitingForDriver
	return stepPrompt(conv.Step)
}

func (svc *DefaultConversationService) collectDriver(ctx context.Context, conv *models.Conversation, input string) string {
	lower := strings.ToLower(input)
	if lower == "auto" || lower == "any" || lower == "any driver" {
		return svc.autoAssignAndBook(ctx, conv)
	}
	if !utils.IsValidPhone(input) {
		return "That doesn't look like a driver's phone number. " + promptDriver
	}
	conv.Slots.DriverPhone = utils.NormalizePhone(input)
	return svc.book(ctx, conv)
}

// collectAlternativeDriver handles the branch after a driver-side rejection.
// A bare digit selects one of the listed candidates, recomputed from the
// collected pickup and time.
func (svc *DefaultConversationService) collectAlternativeDriver(ctx context.Context, conv *models.Conversation, input string) string {
	lower := strings.ToLower(input)
	if lower == "auto" || lower == "any" || lower == "any driver" {
		return svc.autoAssignAndBook(ctx, conv)
	}
	if lower == "list" || lower == "drivers" {
		return svc.listNearbyDrivers(ctx, conv)
	}
	if n, err := strconv.Atoi(input); err == nil {
		return svc.pickRankedDriver(ctx, conv, n)
	}
	if !utils.IsValidPhone(input) {
		return stepPrompt(models.StepWaitingForAlternativeDriver)
	}
	conv.Slots.DriverPhone = utils.NormalizePhone(input)
	return svc.book(ctx, conv)
}

// pickRankedDriver books the nth candidate from the same ranked list the
// "list" reply renders.
func (svc *DefaultConversationService) pickRankedDriver(ctx context.Context, conv *models.Conversation, n int) string {
	if conv.Slots.From == "" || conv.Slots.Time == nil {
		conv.Step = nextMissingStep(conv.Slots)
		return stepPrompt(conv.Step)
	}
	ranked, err := svc.BookingSvc.FindNearestAvailable(ctx, conv.Slots.From, *conv.Slots.Time, 3)
	if err != nil || len(ranked) == 0 {
		return "No drivers are available near your pickup at that time. Try a different time, or name a driver directly."
	}
	if n < 1 || n > len(ranked) {
		return stepPrompt(models.StepWaitingForAlternativeDriver)
	}
	conv.Slots.DriverPhone = ranked[n-1].DriverPhone
	return svc.book(ctx, conv)
}

// collectAlternativeTime handles the branch after a rider-side rejection. A
// bare digit selects one of the previously suggested times, which are
// recomputed deterministically from the originally requested time.
func (svc *DefaultConversationService) collectAlternativeTime(ctx context.Context, conv *models.Conversation, input string) string {
	if n, err := strconv.Atoi(input); err == nil && conv.Slots.Time != nil {
		suggestions := booking.SuggestAlternativeTimes(*conv.Slots.Time, time.Now())
		if n >= 1 && n <= len(suggestions) {
			t := suggestions[n-1].Time
			conv.Slots.Time = &t
			return svc.book(ctx, conv)
		}
		return stepPrompt(models.StepWaitingForAlternativeTime)
	}

	t, err := ParseTimeInput(input, time.Now(), config.Location())
	if err != nil {
		return "I couldn't read that as a time. " + stepPrompt(models.StepWaitingForAlternativeTime)
	}
	conv.Slots.Time = &t
	return svc.book(ctx, conv)
}

// listNearbyDrivers shows the current auto-assignment candidates without
// booking any of them.
func (svc *DefaultConversationService) listNearbyDrivers(ctx context.Context, conv *models.Conversation) string {
	if conv.Slots.From == "" || conv.Slots.Time == nil {
		conv.Step = nextMissingStep(conv.Slots)
		return stepPrompt(conv.Step)
	}
	ranked, err := svc.BookingSvc.FindNearestAvailable(ctx, conv.Slots.From, *conv.Slots.Time, 3)
	if err != nil || len(ranked) == 0 {
		return "No drivers are available near your pickup at that time. Try a different time, or name a driver directly."
	}
	return formatRankedDrivers(ranked)
}

// autoAssignAndBook picks the best ranked driver for the collected pickup
// and time, then books.
func (svc *DefaultConversationService) autoAssignAndBook(ctx context.Context, conv *models.Conversation) string {
	if conv.Slots.From == "" || conv.Slots.Time == nil {
		conv.Step = nextMissingStep(conv.Slots)
		return stepPrompt(conv.Step)
	}

	ranked, err := svc.BookingSvc.FindNearestAvailable(ctx, conv.Slots.From, *conv.Slots.Time, 3)
	if err != nil {
		utils.GetLogger().Warn("Auto-assignment failed", zap.String("phone", conv.Phone), zap.Error(err))
		return retryPrompt
	}
	if len(ranked) == 0 {
		return "No drivers are available near your pickup at that time. Try a different time, or name a driver directly."
	}

	conv.Slots.DriverPhone = ranked[0].DriverPhone
	return svc.book(ctx, conv)
}

// book invokes the engine once all four slots are collected and routes the
// outcome back into the dialogue: acceptance retires the conversation,
// rejections branch to the matching alternative step.
func (svc *DefaultConversationService) book(ctx context.Context, conv *models.Conversation) string {
	if !conv.Slots.Complete() {
		conv.Step = nextMissingStep(conv.Slots)
		return stepPrompt(conv.Step)
	}

	req := booking.BookingRequest{
		DriverPhone:   conv.Slots.DriverPhone,
		RiderPhone:    conv.Phone,
		From:          conv.Slots.From,
		To:            conv.Slots.To,
		RequestedTime: *conv.Slots.Time,
	}
	if conv.Slots.EstimatedDuration > 0 {
		req.EstimatedDuration = conv.Slots.EstimatedDuration
	}

	outcome, err := svc.BookingSvc.Book(ctx, req)
	if err != nil {
		var bookingErr *booking.BookingError
		switch {
		case errors.Is(err, booking.ErrBookingBusy):
			return "I'm still processing another booking for you or that driver. Give me a few seconds and try again."
		case errors.As(err, &bookingErr) && bookingErr.Code == "validationError":
			return bookingErr.Message + " Say \"restart\" to start over."
		default:
			utils.GetLogger().Error("Booking failed in conversation",
				zap.String("phone", conv.Phone), zap.Error(err))
			return retryPrompt
		}
	}

	reply := formatOutcome(outcome, req)

	switch {
	case outcome.Success:
		svc.completeAndRetire(ctx, conv)
	case outcome.RejectionReason == models.ReasonRiderConflict:
		conv.Step = models.StepWaitingForAlternativeTime
	case outcome.RejectionReason == models.ReasonDriverConflict,
		outcome.RejectionReason == models.ReasonDriverLocation:
		conv.Slots.DriverPhone = ""
		conv.Step = models.StepWaitingForAlternativeDriver
	default:
		// System failure keeps the collected slots for a retry.
		conv.Step = models.StepWaitingForDriver
	}
	return reply
}
