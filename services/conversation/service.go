package conversation

import (
	"context"
	"fmt"

	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// HandleMessage runs one dialogue turn. Commands short-circuit slot
// processing; otherwise the turn goes to the AI extractor or the step
// machine depending on the conversation's mode. A turn that fails
// internally produces a retry prompt, never an error that kills the
// conversation.
func (svc *DefaultConversationService) HandleMessage(ctx context.Context, phone, text string) (string, error) {
	logger := utils.GetLogger()

	if !utils.IsValidPhone(phone) {
		return "", fmt.Errorf("invalid sender phone %q", phone)
	}
	phone = utils.NormalizePhone(phone)

	conv, err := svc.Convs.GetOrCreate(phone)
	if err != nil {
		return "", fmt.Errorf("could not load conversation: %w", err)
	}
	conv.AddMessage("user", text)

	if reply, handled := svc.handleCommand(ctx, conv, text); handled {
		conv.AddMessage("assistant", reply)
		if err := svc.Convs.Save(conv); err != nil {
			logger.Warn("Could not save conversation", zap.String("phone", phone), zap.Error(err))
		}
		return reply, nil
	}

	var reply string
	if svc.aiMode(conv) {
		reply = svc.handleAITurn(ctx, conv, text)
	} else {
		reply = svc.handleStepTurn(ctx, conv, text)
	}
	if reply == "" {
		reply = retryPrompt
	}

	conv.AddMessage("assistant", reply)
	if err := svc.Convs.Save(conv); err != nil {
		logger.Warn("Could not save conversation", zap.String("phone", phone), zap.Error(err))
	}
	return reply, nil
}

// aiMode reports whether this conversation runs free-form extraction. The
// conflict-branch steps always run deterministically so numbered replies
// resolve predictably.
func (svc *DefaultConversationService) aiMode(conv *models.Conversation) bool {
	if svc.Extractor == nil || !conv.AIEnabled {
		return false
	}
	switch conv.Step {
	case models.StepWaitingForAlternativeDriver, models.StepWaitingForAlternativeTime:
		return false
	}
	return true
}

// completeAndRetire retires the conversation after a decided booking: slots
// and history are cleared but the phone-linked record stays.
func (svc *DefaultConversationService) completeAndRetire(ctx context.Context, conv *models.Conversation) {
	conv.Step = models.StepCompleted
	conv.Slots = models.RideSlots{}
	conv.LastValidContext = nil
	conv.History = nil
	if svc.ContextStore != nil {
		_ = svc.ContextStore.Clear(ctx, conv.Phone)
	}
}
