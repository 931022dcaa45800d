package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/omarchenko-dev/weather-subscription-service/internal/app"
	"github.com/omarchenko-dev/weather-subscription-service/internal/config"
	"github.com/omarchenko-dev/weather-subscription-service/internal/logging"
)

// @title Weather Subscription Service
// @version 1.0
// @description API for subscribing to periodic weather updates
// @host localhost:8080
// @BasePath /api/
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogsPath, cfg.Debug)
	if err != nil {
		log.Panicf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application := app.New(*cfg, logger)

	container, err := application.Init()
	if err != nil {
		log.Panicf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := application.Stop(container); err != nil {
			log.Printf("failed to shutdown application: %v", err)
		}
	}()

	if err := application.Start(ctx, container); err != nil {
		log.Panicf("application error: %v", err)
	}
}
