package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/coast-to-coast/internal/api/http"
	"github.com/i474232898/coast-to-coast/internal/config"
	"github.com/i474232898/coast-to-coast/internal/geo"
	"github.com/i474232898/coast-to-coast/internal/scheduler"
	"github.com/i474232898/coast-to-coast/internal/store"
	"github.com/i474232898/coast-to-coast/internal/weather"
	"github.com/i474232898/coast-to-coast/internal/weather/providers"
)

func main() {
	// Load configuration (also loads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Cities configured by name only need a geocoder.
	var geocoder geo.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = geo.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}
	if cfg.Cities, err = geo.FillCoordinates(geocoder, cfg.Cities); err != nil {
		log.Fatalf("failed to resolve city coordinates: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// Shared HTTP client for outbound NWS calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backoff := providers.BackoffConfig{
		MaxRetries:      cfg.UpstreamMaxRetries,
		InitialInterval: cfg.UpstreamRetryInterval,
		MaxInterval:     5 * time.Second,
	}

	// The proxy path shares no state between requests; only the background
	// city refresh sits behind a circuit breaker.
	proxyProvider := providers.NewNWSProvider(httpClient, cfg.NWSBaseURL, cfg.NWSUserAgent, backoff)
	refreshProvider := providers.NewNWSProvider(httpClient, cfg.NWSBaseURL, cfg.NWSUserAgent, backoff).
		WithCircuitBreaker("nws-refresh")

	// Dashboard city cache; the forecast proxy itself stays stateless.
	memStore := store.NewMemoryStore(cfg.CityCacheMaxAge)

	service := weather.NewService(memStore, proxyProvider, cfg.Cities).
		WithRefreshProvider(refreshProvider)

	// Scheduler that keeps the dashboard cities warm.
	sched := scheduler.New(cfg.RefreshInterval, 30*time.Second, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "coast-to-coast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}?${queryParams}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "coast-to-coast",
			"cached":  memStore.Keys(),
		})
	})

	httpapi.RegisterRoutes(app, service, httpapi.Options{
		RequestTimeout: cfg.RequestTimeout,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
