package conversation

import (
	"context"

	conversationRepo "ridelink/database/repository/conversation"
	"ridelink/services/booking"
	"ridelink/services/intelligence"
	"ridelink/services/maps"
)

// ConversationService drives the per-phone booking dialogue: it consumes one
// inbound message and returns the reply text.
type ConversationService interface {
	HandleMessage(ctx context.Context, phone, text string) (string, error)
}

// DefaultConversationService implements ConversationService.
type DefaultConversationService struct {
	Convs        conversationRepo.ConversationRepository
	BookingSvc   booking.BookingService
	MapsSvc      maps.MapsService
	Extractor    intelligence.SlotExtractor
	ContextStore *intelligence.RedisContextStore
}

// NewDefaultConversationService wires the dialogue machine. A nil extractor
// forces deterministic step-by-step mode for every conversation.
func NewDefaultConversationService(
	convs conversationRepo.ConversationRepository,
	bookingSvc booking.BookingService,
	mapsSvc maps.MapsService,
	extractor intelligence.SlotExtractor,
	contextStore *intelligence.RedisContextStore,
) *DefaultConversationService {
	return &DefaultConversationService{
		Convs:        convs,
		BookingSvc:   bookingSvc,
		MapsSvc:      mapsSvc,
		Extractor:    extractor,
		ContextStore: contextStore,
	}
}

var _ ConversationService = (*DefaultConversationService)(nil)
