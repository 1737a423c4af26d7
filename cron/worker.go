package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ridelink/config"
	conversationRepo "ridelink/database/repository/conversation"
	"ridelink/models"
	"ridelink/services/notification"
	"ridelink/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeReminderSend      = "reminder:send"
	TypeConversationSweep = "conversation:sweep"

	// Lead time between the reminder and the pickup.
	reminderLead = 15 * time.Minute
)

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}
}

// ReminderScheduler enqueues pickup reminders for accepted rides.
type ReminderScheduler struct {
	client *asynq.Client
}

// NewReminderScheduler creates the task-queue client.
func NewReminderScheduler() *ReminderScheduler {
	return &ReminderScheduler{client: asynq.NewClient(redisOpts())}
}

// ScheduleRideReminder queues a reminder that fires shortly before pickup.
// Rides starting sooner than the lead window get no reminder.
func (s *ReminderScheduler) ScheduleRideReminder(ride *models.Ride) error {
	fireAt := ride.RequestedTime.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(models.ReminderPayload{
		RideID:      ride.RideID,
		RiderPhone:  ride.RiderPhone,
		DriverPhone: ride.DriverPhone,
		From:        ride.From,
		To:          ride.To,
		FireAt:      fireAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeReminderSend, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("could not enqueue reminder for ride %s: %w", ride.RideID, err)
	}
	return nil
}

// InitWorker runs the async worker and the periodic scheduler in background.
func InitWorker(notifSvc notification.NotificationService, convs conversationRepo.ConversationRepository) {
	srv := asynq.NewServer(redisOpts(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask(notifSvc))
	mux.HandleFunc(TypeConversationSweep, handleConversationSweep(convs))

	go func() {
		log.Println("[Worker] starting async worker")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] failed to start: %v", err)
		}
	}()

	// The sweep retires dialogues idle past the configured TTL.
	scheduler := asynq.NewScheduler(redisOpts(), nil)
	if _, err := scheduler.Register("@every 10m", asynq.NewTask(TypeConversationSweep, nil)); err != nil {
		log.Printf("[Worker] could not register conversation sweep: %v", err)
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[Worker] scheduler stopped: %v", err)
		}
	}()
}

func handleReminderTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return err
		}

		riderMsg := fmt.Sprintf("⏰ Reminder: your ride from %s to %s leaves in about 15 minutes. Driver: %s",
			p.From, p.To, p.DriverPhone)
		driverMsg := fmt.Sprintf("⏰ Reminder: pickup at %s in about 15 minutes. Rider: %s", p.From, p.RiderPhone)

		if err := notifSvc.SendWhatsApp(ctx, p.RiderPhone, riderMsg); err != nil {
			logger.Warn("Rider reminder failed", zap.String("rideId", p.RideID), zap.Error(err))
		}
		if err := notifSvc.SendWhatsApp(ctx, p.DriverPhone, driverMsg); err != nil {
			logger.Warn("Driver reminder failed", zap.String("rideId", p.RideID), zap.Error(err))
		}
		return nil
	}
}

func handleConversationSweep(convs conversationRepo.ConversationRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		cutoff := time.Now().Add(-time.Duration(config.AppConfig.ConversationTTLMinutes) * time.Minute)
		stale, err := convs.ListStale(cutoff)
		if err != nil {
			logger.Warn("Stale conversation scan failed", zap.Error(err))
			return err
		}

		for _, conv := range stale {
			if err := convs.Reset(conv.Phone); err != nil {
				logger.Warn("Could not retire stale conversation",
					zap.String("phone", conv.Phone), zap.Error(err))
			}
		}
		if len(stale) > 0 {
			logger.Info("Retired stale conversations", zap.Int("count", len(stale)))
		}
		return nil
	}
}
