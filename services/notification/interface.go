package notification

import (
	"context"

	"ridelink/models"
)

// NotificationService delivers outbound messages. All delivery is
// best-effort: failures are logged, never surfaced to the booking flow.
type NotificationService interface {
	// SendWhatsApp sends a text to a phone number over the WhatsApp gateway.
	SendWhatsApp(ctx context.Context, to, body string) error
	// SendDriverPush looks up the driver's FCM token and sends a push.
	SendDriverPush(ctx context.Context, driver *models.Driver, title, body string, data map[string]string) error
	// NotifyBookingOutcome fans out the decision messages: the rider always
	// hears back, the driver only on acceptance.
	NotifyBookingOutcome(ctx context.Context, ride *models.Ride, driver *models.Driver)
}

// DefaultNotificationService is the production implementation: WhatsApp via
// Twilio, driver pushes via FCM.
type DefaultNotificationService struct {
	gateway MessageGateway
}

// MessageGateway abstracts the outbound text channel.
type MessageGateway interface {
	Send(ctx context.Context, to, body string) error
}

// NewDefaultNotificationService wires the service with a gateway. A nil
// gateway degrades every send to a logged no-op.
func NewDefaultNotificationService(gateway MessageGateway) *DefaultNotificationService {
	return &DefaultNotificationService{gateway: gateway}
}
