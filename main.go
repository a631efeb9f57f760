package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"zhigulbot/cmd"
	"zhigulbot/database"
	"zhigulbot/seed"
)

func main() {
	cmd.ConfigureLogging(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))

	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Check for seed subcommand
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := handleSeedCommand(); err != nil {
			log.Fatal("Seed error: ", err)
		}
		return
	}

	// Normal operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: zhigulbot migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleSeedCommand() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: zhigulbot seed <state.csv> <history.csv> <future.csv>")
	}
	files := seed.Files{
		State:   os.Args[2],
		History: os.Args[3],
		Future:  os.Args[4],
	}
	return cmd.Seed(context.Background(), files)
}
