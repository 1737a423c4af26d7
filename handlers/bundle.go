package handlers

import (
	"ridelink/services/booking"
	"ridelink/services/conversation"
	"ridelink/services/preference"
)

// HandlerBundle groups the endpoint handlers and their service dependencies.
type HandlerBundle struct {
	BookingSvc      booking.BookingService
	ConversationSvc conversation.ConversationService
	PreferenceSvc   preference.PreferenceService
}

// NewHandlerBundle wires the HTTP surface.
func NewHandlerBundle(
	bookingSvc booking.BookingService,
	conversationSvc conversation.ConversationService,
	preferenceSvc preference.PreferenceService,
) *HandlerBundle {
	return &HandlerBundle{
		BookingSvc:      bookingSvc,
		ConversationSvc: conversationSvc,
		PreferenceSvc:   preferenceSvc,
	}
}
