package conversationRepo

import (
	"time"

	"ridelink/models"
)

// ConversationRepository defines data access for dialogue state. One active
// conversation exists per phone number.
type ConversationRepository interface {
	// GetOrCreate loads the conversation for phone, creating a fresh one at
	// the first step if none exists.
	GetOrCreate(phone string) (*models.Conversation, error)
	// Save persists the full conversation document.
	Save(conv *models.Conversation) error
	// Reset clears slots, history and step for phone, keeping identity and
	// the AI toggle.
	Reset(phone string) error
	// ListStale returns conversations idle since before cutoff and not yet
	// completed, for the expiry sweep.
	ListStale(cutoff time.Time) ([]models.Conversation, error)
}
