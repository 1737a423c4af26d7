package conversation

import (
	"context"
	"strings"

	"ridelink/models"
)

// handleCommand recognizes the explicit commands before any slot processing.
// Returns the reply and whether the turn was consumed.
func (svc *DefaultConversationService) handleCommand(ctx context.Context, conv *models.Conversation, text string) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(text))

	switch cmd {
	case "restart", "reset", "start over", "cancel":
		svc.restart(ctx, conv)
		return restartText, true

	case "help", "menu":
		return helpText, true

	case "enable ai", "ai on":
		conv.AIEnabled = true
		if conv.Step == models.StepCompleted {
			conv.Step = models.StepWaitingForFrom
		}
		return "Free-form mode is on. Just describe your trip in one message.", true

	case "disable ai", "ai off":
		conv.AIEnabled = false
		if conv.Step == models.StepAIManaged || conv.Step == models.StepCompleted {
			conv.Step = nextMissingStep(conv.Slots)
		}
		return "Step-by-step mode is on. " + stepPrompt(conv.Step), true
	}
	return "", false
}

// restart clears slots and history but keeps the phone-linked record and the
// AI preference.
func (svc *DefaultConversationService) restart(ctx context.Context, conv *models.Conversation) {
	conv.Step = models.StepWaitingForFrom
	conv.Slots = models.RideSlots{}
	conv.LastValidContext = nil
	conv.History = nil
	if svc.ContextStore != nil {
		_ = svc.ContextStore.Clear(ctx, conv.Phone)
	}
}

// nextMissingStep maps partially collected slots to the step that asks for
// the first missing one.
func nextMissingStep(slots models.RideSlots) models.ConversationStep {
	switch {
	case slots.From == "":
		return models.StepWaitingForFrom
	case slots.To == "":
		return models.StepWaitingForTo
	case slots.Time == nil:
		return models.StepWaitingForTime
	default:
		return models.StepWaitingForDriver
	}
}
