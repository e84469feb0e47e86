package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeremiapane/periodic-tables/config"
	"github.com/yeremiapane/periodic-tables/database"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/floor"
	"github.com/yeremiapane/periodic-tables/messaging/kafka"
	"github.com/yeremiapane/periodic-tables/metrics"
	"github.com/yeremiapane/periodic-tables/middlewares"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/router"
	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/services"
	"github.com/yeremiapane/periodic-tables/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.ErrorLogger.Fatalf("Invalid LOG_LEVEL: %v", err)
	}
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open store: %v", err)
	}

	hub := floor.NewHub(cfg.CORSOrigin, utils.Component("floor"))
	defer hub.Close()
	publishers := events.Fanout{hub}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, utils.Component("kafka"))
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to kafka: %v", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				utils.ErrorLogger.Printf("Error closing kafka producer: %v", err)
			}
		}()
		publishers = append(publishers, producer)
		utils.InfoLogger.Printf("Publishing floor events to kafka topic %s", cfg.KafkaTopic)
	}

	deps := services.Deps{
		Store:     store,
		Publisher: publishers,
		Metrics:   metrics.NewSeatingMetrics(),
	}
	engine := rules.NewEngine(cfg.Schedule)

	r := router.SetupRouter(router.Deps{
		Reservations: services.NewReservationService(deps, engine),
		Tables:       services.NewTableService(deps),
		Seating:      services.NewSeatingCoordinator(deps),
		Floor:        hub,
		Gatherer:     prometheus.DefaultGatherer,
		RateLimiter:  middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigin:   cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Error during shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (repository.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		utils.InfoLogger.Println("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if cfg.SeedTables {
		if err := database.SeedTables(db); err != nil {
			return nil, err
		}
	}
	return repository.NewGormStore(db), nil
}
