package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/infra/config"
	idb "commitment_notifier/internal/infra/database"
	"commitment_notifier/internal/infra/email"
	"commitment_notifier/internal/infra/httpapi"
	"commitment_notifier/internal/infra/logger"
	"commitment_notifier/internal/infra/scheduler"
	"commitment_notifier/internal/infra/telegram"
	"commitment_notifier/internal/infra/whatsapp"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Commitment Notifier starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s", cfg.LogLevel, cfg.Environment, cfg.Location)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	if err := idb.EnsureSchema(context.Background(), db); err != nil {
		mainLogger.Fatalf("Could not apply database schema: %v", err)
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	commitmentRepo := idb.NewPostgresCommitmentRepository(db)
	paymentRepo := idb.NewPostgresPaymentRepository(db)
	companyRepo := idb.NewPostgresCompanyRepository(db)
	userRepo := idb.NewPostgresUserRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	mainLogger.Info("Repositories initialized.")

	// Messaging relay and delivery policy
	relay, err := whatsapp.NewTwilioClient(whatsapp.Config{
		AccountSID:          cfg.TwilioAccountSID,
		AuthToken:           cfg.TwilioAuthToken,
		MessagingServiceSID: cfg.MessagingServiceSID,
		FallbackNumber:      cfg.WhatsAppFallbackNumber,
	}, logger.Component("whatsapp"))
	if err != nil {
		mainLogger.Fatalf("Could not create messaging relay client: %v", err)
	}
	deliverer := app.NewDeliverer(relay, notificationRepo, app.DeliveryConfig{
		BusinessNumber: cfg.WhatsAppBusinessNumber,
		DefaultRegion:  cfg.DefaultPhoneRegion,
		PollAttempts:   cfg.StatusPollAttempts,
		PollInterval:   cfg.StatusPollInterval,
	}, logger.Component("delivery"))

	channels := app.Channels{WhatsApp: deliverer}

	var bot *telebot.Bot
	if cfg.TelegramEnabled() {
		bot, err = telegram.NewBot(cfg.TelegramToken, logger.Component("telebot"))
		if err != nil {
			mainLogger.Fatalf("Could not create Telegram bot: %v", err)
		}
		channels.Telegram = telegram.NewTelebotAdapter(bot)
		mainLogger.Info("Telegram channel enabled.")
	}
	if cfg.EmailEnabled() {
		channels.Mailer = email.NewSender(cfg, logger.Component("email"))
		mainLogger.Info("Email channel enabled.")
	}

	// Initialize Services
	notificationService := app.NewNotificationServiceImpl(
		commitmentRepo,
		companyRepo,
		userRepo,
		notificationRepo,
		channels,
		cfg.Location,
		logger.Component("notification_service"),
	)
	dueService := app.NewDueCommitmentService(commitmentRepo, cfg.Location, logger.Component("due_service"))
	commitmentService := app.NewCommitmentService(commitmentRepo, paymentRepo, companyRepo, notificationService, logger.Component("commitment_service"))
	mainLogger.Info("Services initialized.")

	// Initialize NotificationScheduler
	notifScheduler := scheduler.NewNotificationScheduler(
		notificationService,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecDailyCheck,
	)
	if err := notifScheduler.Start(); err != nil {
		mainLogger.Fatalf("Could not start scheduler: %v", err)
	}

	// Register bot handlers
	botCtx, cancelBot := context.WithCancel(context.Background())
	defer cancelBot()
	if bot != nil {
		telegram.RegisterBotCommands(bot, cfg, logger.Component("telegram"))
		telegram.RegisterCommitmentHandlers(botCtx, bot, dueService, cfg.AdminTelegramID, logger.Component("telegram"))
		mainLogger.Info("Telegram command handlers registered.")
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	// HTTP API
	handler := httpapi.NewHandler(dueService, commitmentService, notificationService, notifScheduler, logger.Component("httpapi"))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpapi.NewRouter(handler, cfg.JWTSecret, logger.Component("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Manual runs wait for status polling
	}
	go func() {
		mainLogger.Infof("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	mainLogger.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown did not complete cleanly")
	}
	if bot != nil {
		bot.Stop()
		cancelBot()
	}
	notifScheduler.Stop()
	commitmentService.Wait() // Pending new-commitment alerts
	// db.Close() is handled by defer
	mainLogger.Info("Application shut down gracefully.")
}
