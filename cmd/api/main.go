package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/happypaws/happypaws/internal/config"
	"github.com/happypaws/happypaws/internal/handler"
	adminHandler "github.com/happypaws/happypaws/internal/handler/admin"
	bookingHandler "github.com/happypaws/happypaws/internal/handler/booking"
	chatHandler "github.com/happypaws/happypaws/internal/handler/chat"
	contentHandler "github.com/happypaws/happypaws/internal/handler/content"
	enquiryHandler "github.com/happypaws/happypaws/internal/handler/enquiry"
	trackHandler "github.com/happypaws/happypaws/internal/handler/track"
	"github.com/happypaws/happypaws/internal/middleware"
	"github.com/happypaws/happypaws/internal/repository/sqlstore"
	"github.com/happypaws/happypaws/internal/router"
	autopilotService "github.com/happypaws/happypaws/internal/service/autopilot"
	chatService "github.com/happypaws/happypaws/internal/service/chat"
	contentService "github.com/happypaws/happypaws/internal/service/content"
	enquiryService "github.com/happypaws/happypaws/internal/service/enquiry"
	notificationService "github.com/happypaws/happypaws/internal/service/notification"
	schedulerService "github.com/happypaws/happypaws/internal/service/scheduler"
	settingsService "github.com/happypaws/happypaws/internal/service/settings"
	visitorService "github.com/happypaws/happypaws/internal/service/visitor"
	"github.com/happypaws/happypaws/pkg/auth"
	"github.com/happypaws/happypaws/pkg/logger"
)

func main() {
	logger.Setup()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := sqlstore.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sqlstore.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	cancel()

	// Repositories
	slotRepo := sqlstore.NewSlotRepository(db)
	chatRepo := sqlstore.NewChatRepository(db)
	settingRepo := sqlstore.NewSettingRepository(db)
	enquiryRepo := sqlstore.NewEnquiryRepository(db)
	eventRepo := sqlstore.NewEventRepository(db)
	insightRepo := sqlstore.NewInsightRepository(db)
	ipRepo := sqlstore.NewIPRepository(db)
	contentRepo := sqlstore.NewContentRepository(db)
	notifRepo := sqlstore.NewNotificationRepository(db)

	// Services
	settingsSvc := settingsService.NewService(settingRepo)
	pilot := autopilotService.NewService()
	notifier := notificationService.NewService(notifRepo, chatRepo, enquiryRepo, slotRepo, eventRepo, cfg.SMTP)
	schedulerSvc := schedulerService.NewService(slotRepo)
	chatSvc := chatService.NewService(chatRepo, settingsSvc, pilot, notifier)
	enquirySvc := enquiryService.NewService(enquiryRepo, eventRepo, settingsSvc, pilot)
	visitorSvc := visitorService.NewService(eventRepo, insightRepo, ipRepo, cfg.Tracking.ReturnThresholdMinutes)
	contentSvc := contentService.NewService(contentRepo)

	authn := auth.NewAuthenticator(cfg.Admin.PasswordHash, cfg.Admin.Token, cfg.Admin.JWTSecret, cfg.Admin.JWTExpiry)
	if authn.Unprotected() {
		log.Warn().Msg("ADMIN AUTH DISABLED: no password hash, token or JWT secret configured; the admin API accepts every request")
	}

	// Handlers
	h := handler.NewHandler(db)
	bookingH := bookingHandler.NewHandler(schedulerSvc)
	chatH := chatHandler.NewHandler(chatSvc)
	enquiryH := enquiryHandler.NewHandler(enquirySvc)
	trackH := trackHandler.NewHandler(visitorSvc)
	contentH := contentHandler.NewHandler(contentSvc)
	adminH := adminHandler.NewHandler(authn, settingsSvc, notifier, visitorSvc, pilot)

	r := router.New(
		authn,
		settingsSvc,
		ipRepo,
		h,
		bookingH,
		chatH,
		enquiryH,
		trackH,
		contentH,
		adminH,
		router.Config{
			RateLimit:     rate.Limit(cfg.Rate.RPS),
			RateBurst:     cfg.Rate.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "happypaws",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
