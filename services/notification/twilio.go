package notification

import (
	"context"
	"fmt"

	"ridelink/config"
	"ridelink/utils"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioGateway sends WhatsApp messages through the Twilio REST API.
type TwilioGateway struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioGateway builds the gateway from configured credentials. Returns
// nil when Twilio is not configured, so callers fall back to the logged
// no-op path.
func NewTwilioGateway() *TwilioGateway {
	cfg := config.AppConfig
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		utils.GetLogger().Warn("Twilio not configured, outbound WhatsApp disabled")
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioGateway{client: client, from: cfg.TwilioWhatsAppFrom}
}

func (g *TwilioGateway) Send(ctx context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo("whatsapp:" + utils.NormalizePhone(to))
	params.SetFrom("whatsapp:" + g.from)
	params.SetBody(body)

	if _, err := g.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send to %s failed: %w", to, err)
	}
	return nil
}

// SendWhatsApp delivers a text, degrading to a logged no-op when no gateway
// is wired.
func (s *DefaultNotificationService) SendWhatsApp(ctx context.Context, to, body string) error {
	logger := utils.GetLogger()
	if s.gateway == nil {
		logger.Info("WhatsApp gateway disabled, dropping message",
			zap.String("to", to), zap.String("body", body))
		return nil
	}
	if err := s.gateway.Send(ctx, to, body); err != nil {
		logger.Warn("WhatsApp delivery failed", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}
