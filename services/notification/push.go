package notification

import (
	"context"
	"fmt"

	"ridelink/models"
	"ridelink/utils"

	"firebase.google.com/go/v4/messaging"
)

// SendDriverPush pushes a high-priority notification to the driver's device.
func (s *DefaultNotificationService) SendDriverPush(ctx context.Context, driver *models.Driver, title, body string, data map[string]string) error {
	if utils.FCMClient == nil {
		return fmt.Errorf("FCM not configured")
	}
	if driver == nil || driver.FCMToken == "" {
		return fmt.Errorf("driver has no push token")
	}

	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["role"]; !ok {
		data["role"] = "driver"
	}

	msg := &messaging.Message{
		Token: driver.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "ride_updates",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message to %s: %w", driver.Phone, err)
	}
	return nil
}
