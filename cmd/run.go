package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wingo/api"
	"wingo/application"
	"wingo/config"
	"wingo/database"
	"wingo/domain/events"
	"wingo/domain/interfaces"
	"wingo/domain/services"
	"wingo/infrastructure"
	"wingo/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting wingo round engine...")

	// Load configuration
	cfg := config.Get()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Initialize metrics
	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	metrics := observability.GetMetrics()

	// Initialize database connection
	log.Info("Connecting to database...")
	databaseURL := cfg.GetDatabaseURL()
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db, err := database.NewConnection(ctx, databaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event publishing
	var eventPublisher interfaces.EventPublisher = infrastructure.NewNoopEventPublisher()
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := natsPublisher.EnsureDomainEventStream(natsClient); err != nil {
			natsClient.Close()
			return fmt.Errorf("failed to ensure domain event stream: %w", err)
		}
		eventPublisher = natsPublisher
		log.Info("NATS event publisher initialized successfully")
	} else {
		log.Warn("NATS_SERVERS not set, domain events will not be published")
	}

	// Initialize round cache
	var roundCache application.RoundCache = infrastructure.NoopRoundCache{}
	if cfg.RedisURL != "" {
		log.Info("Connecting to Redis...")
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		roundCache = infrastructure.NewRedisRoundCache(rdb, cfg.RoundCacheTTL)
		log.Info("Redis round cache initialized successfully")
	}

	// Initialize payment providers
	var payments interfaces.PaymentProvider
	if cfg.PaymentGatewayURL != "" {
		payments = infrastructure.NewHTTPPaymentGateway(cfg.PaymentGatewayURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)
	} else {
		log.Warn("PAYMENT_GATEWAY_URL not set, deposit orders are created locally")
		payments = infrastructure.NewLocalPaymentGateway(cfg.PaymentKeySecret)
	}
	var payouts interfaces.PayoutProvider
	if cfg.PayoutGatewayURL != "" {
		payouts = infrastructure.NewHTTPPayoutGateway(cfg.PayoutGatewayURL, cfg.PayoutAPIKey, cfg.PayoutAccount)
	} else {
		log.Warn("PAYOUT_GATEWAY_URL not set, withdrawals are paid out manually")
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	uowFactory.RegisterLocalHandler(events.EventTypeRoundSettled, logRoundSettled)

	// Initialize services
	log.Info("Initializing services...")
	depositLimits := services.AmountRange{Min: cfg.MinDeposit, Max: cfg.MaxDeposit}
	withdrawalLimits := services.AmountRange{Min: cfg.MinWithdrawal, Max: cfg.MaxWithdrawal}
	window := services.NewBettingWindow(cfg.BetCloseBeforeEnd)

	settler := application.NewRoundSettler(uowFactory, services.NewOutcomeResolver(nil), cfg.RoundDuration, roundCache, metrics)
	gameService := application.NewGameService(uowFactory, settler, window, roundCache, metrics, cfg.HistoryLimit, cfg.MaxHistoryLimit)
	walletService := application.NewWalletService(uowFactory, payments, depositLimits, withdrawalLimits, metrics)
	adminService := application.NewAdminService(uowFactory, payouts, withdrawalLimits, metrics)
	accountService := application.NewAccountService(uowFactory, cfg.ReferralBonus)
	log.Info("Services initialized successfully")

	// Start round scheduler
	log.WithField("schedule", cfg.SchedulerSchedule).Info("Starting round scheduler...")
	stopScheduler, err := application.NewRoundScheduler(settler, cfg.SchedulerSchedule).Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start round scheduler: %w", err)
	}

	// Start HTTP server
	server := api.NewServer(gameService, walletService, adminService, accountService, infrastructure.NewHMACSigner(cfg.PayoutWebhookSecret))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	log.Infof("Round engine is running in %s mode...", cfg.Environment)
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	// Cleanup resources
	log.Info("Shutting down round engine...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	stopScheduler()
	log.Info("Round scheduler stopped")

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return runErr
}

func logRoundSettled(ctx context.Context, event events.Event) error {
	var settled events.RoundSettledEvent
	switch e := event.(type) {
	case events.RoundSettledEvent:
		settled = e
	case *events.RoundSettledEvent:
		settled = *e
	default:
		return nil
	}

	log.WithFields(log.Fields{
		"roundID":         settled.RoundID,
		"winningColor":    settled.WinningColor,
		"winningNumber":   settled.WinningNumber,
		"totalStaked":     settled.TotalStaked.StringFixed(2),
		"adminCommission": settled.AdminCommission.StringFixed(2),
		"nextRoundID":     settled.NextRoundID,
	}).Info("Round settled")
	return nil
}
