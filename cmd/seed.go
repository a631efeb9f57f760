package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"zhigulbot/config"
	"zhigulbot/database"
	"zhigulbot/events"
	"zhigulbot/repository"
	"zhigulbot/seed"
	"zhigulbot/service"
)

// Seed loads the seed files and stores them
func Seed(ctx context.Context, files seed.Files) error {
	cfg := config.Get()

	data, err := seed.Load(files)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	uowFactory := repository.NewUnitOfWorkFactory(db, events.NewBus())
	result, err := service.NewSeedService(uowFactory).Seed(ctx, data)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"stateCreated": result.StateCreated,
		"historyRows":  result.HistoryRows,
		"futureRows":   result.FutureRows,
	}).Info("Seed complete")
	return nil
}
