package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridelink/config"
	"ridelink/cron"
	"ridelink/database"
	conversationRepoPkg "ridelink/database/repository/conversation"
	driverRepoPkg "ridelink/database/repository/driver"
	rideRepoPkg "ridelink/database/repository/ride"
	riderRepoPkg "ridelink/database/repository/rider"
	"ridelink/handlers"
	"ridelink/routes"
	"ridelink/services/booking"
	"ridelink/services/calendar"
	"ridelink/services/conversation"
	"ridelink/services/intelligence"
	"ridelink/services/maps"
	"ridelink/services/notification"
	"ridelink/services/preference"
	"ridelink/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	// Repositories.
	rideRepo := rideRepoPkg.NewMongoRideRepo()
	driverRepo := driverRepoPkg.NewMongoDriverRepo()
	riderRepo := riderRepoPkg.NewMongoRiderRepo()
	convRepo := conversationRepoPkg.NewMongoConversationRepo()
	for _, ensure := range []func() error{
		rideRepo.EnsureIndexes,
		driverRepo.EnsureIndexes,
		riderRepo.EnsureIndexes,
		convRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Warnf("main: index setup: %v", err)
		}
	}

	// External collaborators.
	calendarSvc := calendar.NewGoogleCalendarService(context.Background())
	mapsSvc := maps.NewGoogleMapsService()

	var gateway notification.MessageGateway
	if tw := notification.NewTwilioGateway(); tw != nil {
		gateway = tw
	}
	notifySvc := notification.NewDefaultNotificationService(gateway)

	var extractor intelligence.SlotExtractor
	var embedder preference.Embedder
	if gemini, err := intelligence.NewGeminiClient(context.Background(), config.AppConfig.GeminiAPIKey); err != nil {
		logger.Sugar().Warnf("main: Gemini unavailable, AI extraction disabled: %v", err)
	} else {
		extractor = intelligence.NewGeminiExtractor(gemini)
		embedder = gemini
	}

	preferenceSvc := preference.NewDefaultPreferenceService(embedder)
	if err := preferenceSvc.EnsureIndexes(); err != nil {
		logger.Sugar().Warnf("main: index setup: %v", err)
	}

	reminders := cron.NewReminderScheduler()

	// The engine and the dialogue machine on top of it.
	bookingSvc := booking.NewDefaultBookingService(
		rideRepo, driverRepo, riderRepo,
		calendarSvc, mapsSvc, notifySvc, preferenceSvc, reminders,
		utils.GetBookingLockClient(),
	)

	ttl := time.Duration(config.AppConfig.ConversationTTLMinutes) * time.Minute
	ctxStore := intelligence.NewRedisContextStore(utils.GetAIContextCacheClient(), ttl)
	conversationSvc := conversation.NewDefaultConversationService(
		convRepo, bookingSvc, mapsSvc, extractor, ctxStore,
	)

	cron.InitWorker(notifySvc, convRepo)
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAIContextCacheClient(), utils.GetBookingLockClient()},
		database.MongoClient,
	)

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	handlerBundle := handlers.NewHandlerBundle(bookingSvc, conversationSvc, preferenceSvc)
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
