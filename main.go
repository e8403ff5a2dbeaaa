// main.go
package main

import (
	"log"
	"strings"

	"explanation-booking/cmd"
	"explanation-booking/internal/data/memstore"
	"explanation-booking/internal/data/repository"
	"explanation-booking/internal/usecase"
	"explanation-booking/internal/wire"
	"explanation-booking/pkg/cache"
	"explanation-booking/pkg/database"
	"explanation-booking/pkg/metrics"
	"explanation-booking/pkg/notify"
	"explanation-booking/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("port", config.App.Port),
		zap.String("driver", config.Database.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	// Initialize repositories for the configured store
	var repos *repository.Repository
	switch config.Database.Driver {
	case utils.DriverMemory:
		repos = memstore.New(logger).Repository()
		logger.Warn("Using in-memory store, data is lost on restart")
	case utils.DriverPostgres:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connected successfully")
		repos = repository.NewRepository(db, config.Database.LockTimeout, logger)
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", config.Database.Driver))
	}

	var deps usecase.Dependencies

	// Schedule cache
	if client := cache.NewRedisClient(config.Redis, logger); client != nil {
		defer client.Close()
		deps.Cache = cache.NewRedisScheduleCache(client, config.Redis.TTL, logger)
		logger.Info("Schedule cache enabled", zap.String("addr", config.Redis.Addr))
	}

	// Reservation notifications
	if config.Notify.AMQPURL != "" {
		publisher, err := notify.NewRabbitPublisher(config.Notify.AMQPURL, config.Notify.Queue, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, notifications are only logged", zap.Error(err))
		} else {
			defer publisher.Close()
			deps.Notifier = publisher
		}
	}

	if config.Metrics.Enabled {
		namespace := strings.ReplaceAll(config.App.Name, "-", "_")
		deps.Metrics = metrics.New(namespace, prometheus.DefaultRegisterer)
	}

	// Wire all dependencies
	app := wire.Wiring(repos, deps, config, logger)

	// Start server
	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
