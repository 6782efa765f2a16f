package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/skyplanner/internal/api/http"
	"github.com/i474232898/skyplanner/internal/config"
	"github.com/i474232898/skyplanner/internal/logging"
	"github.com/i474232898/skyplanner/internal/planner"
	"github.com/i474232898/skyplanner/internal/scheduler"
	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/sky"
	"github.com/i474232898/skyplanner/internal/sky/ephemeris"
	"github.com/i474232898/skyplanner/internal/store"
	"github.com/i474232898/skyplanner/internal/weather"
	"github.com/i474232898/skyplanner/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to a default one.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	// Sky model and planner.
	eph := ephemeris.Load()
	plan := planner.New(sky.NewResolver(eph), log, cfg.SearchWorkers)
	log.Info("ephemeris loaded", zap.String("engine", eph.Name()))

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Open-Meteo needs no API key.
	provs := []weather.CloudProvider{
		providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoURL, log),
	}
	clouds := weather.NewService(memStore, provs, cfg.CloudCacheTTL, log)

	// Geocoding is only needed for sites given by city.
	var gc sites.Geocoder
	if cfg.GeocoderAPIKey != "" {
		gc = sites.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}
	siteList, err := sites.Load(cfg.SitesFile, gc, log)
	if err != nil {
		log.Fatal("failed to load sites", zap.String("file", cfg.SitesFile), zap.Error(err))
	}

	// Scheduler that periodically refreshes cloud cover for the sites.
	sched := scheduler.New(siteList, cfg.CloudFetchInterval, clouds, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "skyplanner",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Window searches over a full year take a while.
		WriteTimeout: 60 * time.Second,
		ErrorHandler: httpapi.ErrorHandler(log),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
	}))

	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Planner: plan,
		Clouds:  clouds,
		Sites:   siteList,
	})

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
}
