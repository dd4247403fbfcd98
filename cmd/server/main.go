// Package main is the entry point for the booking backend server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bouncehire/backend/internal/api"
	"github.com/bouncehire/backend/internal/availability"
	"github.com/bouncehire/backend/internal/booking"
	"github.com/bouncehire/backend/internal/calendar"
	"github.com/bouncehire/backend/internal/lifecycle"
	"github.com/bouncehire/backend/internal/payment"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags
	addr := flag.String("addr", ":8080", "HTTP server address")
	dataDir := flag.String("data", "./data", "Data directory for SQLite database")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	syncIntervalMin := flag.Int("sync-interval", 15, "Calendar sync interval in minutes")
	sweepIntervalSec := flag.Int("sweep-interval", 60, "Booking lifecycle sweep interval in seconds")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	// Optional .env for local development; env vars win over file values.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting booking backend (version: %s)...", version)

	// Initialize database
	dbPath := *dataDir + "/bouncehire.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	bookingRepo := storage.NewBookingRepository(db)
	castleRepo := storage.NewCastleRepository(db)
	maintRepo := storage.NewMaintenanceRepository(db)
	conflictRepo := storage.NewConflictRepository(db)

	// Initialize the availability and lifecycle engines
	availEngine := availability.NewEngine(bookingRepo, maintRepo, availability.DefaultGrid(), booking.DefaultBuffer, nil)

	// Calendar sync is optional: without CALENDAR_URL the server runs
	// standalone and the sync endpoints answer 503.
	var (
		calClient         calendar.Client
		syncService       *calendar.Service
		calendarScheduler *calendar.Scheduler
	)
	if baseURL := os.Getenv("CALENDAR_URL"); baseURL != "" {
		restClient := calendar.NewRESTClient(calendar.Config{
			BaseURL:    baseURL,
			Token:      os.Getenv("CALENDAR_TOKEN"),
			CalendarID: os.Getenv("CALENDAR_ID"),
		})
		calClient = restClient

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := restClient.TestConnection(ctx); err != nil {
			log.Printf("Warning: calendar connection test failed: %v", err)
		}
		cancel()

		syncService = calendar.NewService(bookingRepo, conflictRepo, calClient, nil)
		calendarScheduler = calendar.NewScheduler(syncService, hub, *syncIntervalMin)
	} else {
		log.Println("CALENDAR_URL not set, calendar sync disabled")
	}

	pendingTTL := lifecycle.DefaultPendingTTL
	if hours := envInt("PENDING_TTL_HOURS"); hours > 0 {
		pendingTTL = time.Duration(hours) * time.Hour
	}
	lifecycleEngine := lifecycle.NewEngine(bookingRepo, calClient, envInt("FALLBACK_END_HOUR"), pendingTTL, nil)
	lifecycleScheduler := lifecycle.NewScheduler(lifecycleEngine, hub, *sweepIntervalSec)

	// Start schedulers
	if calendarScheduler != nil {
		calendarScheduler.Start()
	}
	lifecycleScheduler.Start()

	// Initialize HTTP router
	router := api.NewRouter(api.Deps{
		DB:                db,
		Bookings:          bookingRepo,
		Castles:           castleRepo,
		Maintenance:       maintRepo,
		Conflicts:         conflictRepo,
		Availability:      availEngine,
		Lifecycle:         lifecycleEngine,
		CalendarSync:      syncService,
		CalendarScheduler: calendarScheduler,
		LifecycleSched:    lifecycleScheduler,
		Payments:          payment.NewDisabled(),
		Hub:               hub,
		StaticDir:         *staticDir,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop schedulers
	if calendarScheduler != nil {
		calendarScheduler.Stop()
	}
	lifecycleScheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// envInt reads an integer environment variable, returning 0 when unset or
// malformed so callers fall back to their defaults.
func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
