package conversation

import (
	"context"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// handleAITurn runs the free-form mode: the extractor reads the turn, its
// output is merged field by field into the stored slots, and the machine
// books as soon as the set is complete. A failed extraction changes nothing
// the user already confirmed.
func (svc *DefaultConversationService) handleAITurn(ctx context.Context, conv *models.Conversation, text string) string {
	logger := utils.GetLogger()
	conv.Step = models.StepAIManaged

	slots := conv.Slots
	if slots == (models.RideSlots{}) && svc.ContextStore != nil {
		if stored, err := svc.ContextStore.Get(ctx, conv.Phone); err == nil && stored != nil {
			slots = *stored
		}
	}

	extraction := svc.Extractor.Extract(ctx, conv.Phone, conv.RecentHistory(10))

	if extraction.ResponseType == models.ResponseRejection {
		return "Okay. Tell me what to change: pickup, destination, time or driver."
	}

	// Nothing extracted means nothing to apply. Auto-assign turns carry no
	// fields either, so they fall through to the assignment below.
	if extraction.Empty() && extraction.ResponseType != models.ResponseAutoAssign {
		conv.Slots = slots
		if extraction.NeedsClarification && extraction.ClarificationMessage != "" {
			return extraction.ClarificationMessage
		}
		return summarizeSlots(slots) + "\n" + missingSlotPrompt(slots)
	}

	reply, updated := svc.applyExtraction(ctx, conv, slots, extraction)
	conv.Slots = updated
	if updated != (models.RideSlots{}) {
		snapshot := updated
		conv.LastValidContext = &snapshot
		if svc.ContextStore != nil {
			if err := svc.ContextStore.Set(ctx, conv.Phone, &snapshot); err != nil {
				logger.Debug("Could not persist AI context", zap.String("phone", conv.Phone), zap.Error(err))
			}
		}
	}
	if reply != "" {
		return reply
	}

	if extraction.ResponseType == models.ResponseAutoAssign && conv.Slots.DriverPhone == "" {
		return svc.autoAssignAndBook(ctx, conv)
	}
	if conv.Slots.Complete() {
		return svc.book(ctx, conv)
	}

	if extraction.NeedsClarification && extraction.ClarificationMessage != "" {
		return extraction.ClarificationMessage
	}
	return summarizeSlots(conv.Slots) + "\n" + missingSlotPrompt(conv.Slots)
}

// applyExtraction overlays the extractor's fields onto the known slots,
// validating each. Returns a non-empty reply when a field was rejected.
func (svc *DefaultConversationService) applyExtraction(ctx context.Context, conv *models.Conversation, slots models.RideSlots, ex models.Extraction) (string, models.RideSlots) {
	if ex.From != "" {
		resolved, err := svc.MapsSvc.ResolveAddress(ctx, ex.From)
		if err != nil {
			return "I couldn't place that pickup point. Please send a more specific address or landmark.", slots
		}
		slots.From = resolved
	}
	if ex.To != "" {
		resolved, err := svc.MapsSvc.ResolveAddress(ctx, ex.To)
		if err != nil {
			return "I couldn't place that destination. Please send a more specific address or landmark.", slots
		}
		slots.To = resolved
	}
	if ex.DateTime != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04", ex.DateTime, config.Location())
		if err != nil || !t.After(time.Now()) {
			return "I couldn't pin down that time. " + promptTime, slots
		}
		slots.Time = &t
	}
	if ex.DriverPhone != "" {
		if !utils.IsValidPhone(ex.DriverPhone) {
			return "That driver number doesn't look right. " + promptDriver, slots
		}
		slots.DriverPhone = utils.NormalizePhone(ex.DriverPhone)
	}
	return "", slots
}

// missingSlotPrompt asks for the first slot still missing.
func missingSlotPrompt(slots models.RideSlots) string {
	switch {
	case slots.From == "":
		return "Where should the driver pick you up?"
	case slots.To == "":
		return "Where are you going?"
	case slots.Time == nil:
		return "When do you need the ride?"
	default:
		return promptDriver
	}
}
