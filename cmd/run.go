package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"zhigulbot/api"
	"zhigulbot/bot"
	"zhigulbot/chart"
	"zhigulbot/config"
	"zhigulbot/database"
	"zhigulbot/events"
	"zhigulbot/forecast"
	"zhigulbot/infrastructure"
	"zhigulbot/repository"
	"zhigulbot/scheduler"
	"zhigulbot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting zhigulbot...")

	// Load configuration
	cfg := config.Get()
	ConfigureLogging(cfg.LogLevel, cfg.Environment)

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Optional event forwarding
	if cfg.NATSServers != "" {
		natsClient, err := connectNATS(cfg.NATSServers)
		if err != nil {
			return err
		}
		defer natsClient.Close()
		infrastructure.NewEventForwarder(natsClient).Attach(eventBus)
		log.Info("Forwarding events to NATS")
	}

	// Initialize services
	accountService := service.NewAccountService(uowFactory, cfg)
	wagerService := service.NewWagerService(uowFactory, cfg)
	priceService := service.NewPriceService(uowFactory)

	forecaster := forecast.NewFromURL(cfg.ForecastURL, cfg.ForecastTimeout)
	charts := chart.NewRefresher(priceService, cfg.ChartDir)
	settlementService := service.NewSettlementService(uowFactory, forecaster, charts, cfg)

	if _, err := priceService.GetState(ctx); errors.Is(err, service.ErrPriceStateMissing) {
		log.Warn("Price state is empty, run `zhigulbot seed <state.csv> <history.csv> <future.csv>` before the first cycle")
	} else if err == nil {
		// Charts may be missing after a fresh deploy
		if err := charts.Refresh(ctx); err != nil {
			log.WithError(err).Warn("Initial chart render failed")
		}
	}

	// Optional cross-replica lease
	var lease scheduler.Lease
	if cfg.RedisURL != "" {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		lease = infrastructure.NewRedisLease(rdb, infrastructure.SettlementLeaseKey, cfg.SettlementLeaseTTL)
	}

	sched := scheduler.New(ctx, settlementService, cfg.SettlementInterval, lease)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// HTTP API
	server := api.NewServer(cfg.HTTPAddr, accountService, priceService, sched)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			serverErr <- err
		}
	}()

	// Discord front-end
	var discordBot *bot.Bot
	if cfg.BotEnabled() {
		log.Info("Initializing Discord bot...")
		botConfig := bot.Config{
			Token:             cfg.DiscordToken,
			GuildID:           cfg.DiscordGuildID,
			AnnounceChannelID: cfg.AnnounceChannelID,
			WagerStake:        cfg.WagerStake,
			CycleInterval:     cfg.SettlementInterval,
		}
		discordBot, err = bot.New(botConfig, accountService, wagerService, priceService, charts, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		log.Info("Discord bot initialized successfully")
	} else {
		log.Info("DISCORD_TOKEN not set, running without the Discord bot")
	}

	log.Infof("Running in %s mode...", cfg.Environment)
	runErr := awaitStop(ctx, serverErr)
	if runErr != nil {
		log.WithError(runErr).Error("Stopping after fatal error")
	}

	log.Info("Shutting down...")

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.Errorf("Error closing Discord bot: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down HTTP API: %v", err)
	}

	log.Info("Shutdown completed")
	return runErr
}

// awaitStop blocks until ctx is cancelled or the HTTP API fails
func awaitStop(ctx context.Context, serverErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return fmt.Errorf("HTTP API stopped: %w", err)
	}
}

func connectNATS(servers string) (*infrastructure.NATSClient, error) {
	client := infrastructure.NewNATSClient(servers)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if err := client.EnsureStream(infrastructure.StreamName, infrastructure.AllSubjects()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return client, nil
}
