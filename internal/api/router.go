// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/handlers"
	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/availability"
	"github.com/bouncehire/backend/internal/calendar"
	"github.com/bouncehire/backend/internal/lifecycle"
	"github.com/bouncehire/backend/internal/payment"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/websocket"
)

// Deps bundles everything the router needs. CalendarSync and
// CalendarScheduler may be nil when no calendar is configured; the sync
// endpoints then answer 503.
type Deps struct {
	DB           *storage.DB
	Bookings     *storage.BookingRepository
	Castles      *storage.CastleRepository
	Maintenance  *storage.MaintenanceRepository
	Conflicts    *storage.ConflictRepository
	Availability *availability.Engine
	Lifecycle    *lifecycle.Engine

	CalendarSync      *calendar.Service
	CalendarScheduler *calendar.Scheduler
	LifecycleSched    *lifecycle.Scheduler

	Payments payment.Gateway

	Hub *websocket.Hub

	StaticDir string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(d.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(d.DB, d.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(d.Hub)).Methods("GET")

	// Castle endpoints
	api.HandleFunc("/castles", handlers.ListCastles(d.Castles)).Methods("GET")
	api.HandleFunc("/castles", handlers.CreateCastle(d.Castles)).Methods("POST")
	api.HandleFunc("/castles/{id}", handlers.GetCastle(d.Castles)).Methods("GET")
	api.HandleFunc("/castles/{id}", handlers.UpdateCastle(d.Castles)).Methods("PUT")
	api.HandleFunc("/castles/{id}", handlers.DeleteCastle(d.Castles)).Methods("DELETE")

	// Booking endpoints
	api.HandleFunc("/bookings", handlers.ListBookings(d.Bookings)).Methods("GET")
	api.HandleFunc("/bookings", handlers.CreateBooking(d.Bookings, d.Castles, d.Maintenance, d.Hub)).Methods("POST")
	api.HandleFunc("/bookings/{id}", handlers.GetBooking(d.Bookings)).Methods("GET")
	api.HandleFunc("/bookings/{id}", handlers.UpdateBooking(d.Bookings, d.Castles, d.Maintenance)).Methods("PATCH")
	api.HandleFunc("/bookings/{id}/confirm", handlers.ConfirmBooking(d.Bookings, d.Hub)).Methods("POST")
	api.HandleFunc("/bookings/{id}/cancel", handlers.CancelBooking(d.Bookings, d.Payments, d.Hub)).Methods("POST")
	api.HandleFunc("/bookings/{id}/complete", handlers.ForceCompleteBooking(d.Lifecycle, d.Hub)).Methods("POST")
	api.HandleFunc("/bookings/{id}/deposit", handlers.CreateDepositIntent(d.Bookings, d.Payments)).Methods("POST")

	// Availability endpoints
	api.HandleFunc("/availability", handlers.GetAvailability(d.Availability)).Methods("GET")
	api.HandleFunc("/availability/check", handlers.CheckAvailability(d.Availability)).Methods("POST")

	// Maintenance endpoints
	api.HandleFunc("/maintenance", handlers.ListMaintenanceWindows(d.Maintenance)).Methods("GET")
	api.HandleFunc("/maintenance", handlers.CreateMaintenanceWindow(d.Maintenance, d.Castles)).Methods("POST")
	api.HandleFunc("/maintenance/{id}", handlers.DeleteMaintenanceWindow(d.Maintenance)).Methods("DELETE")

	// Calendar sync endpoints
	api.HandleFunc("/sync/run", handlers.TriggerSync(d.CalendarScheduler)).Methods("POST")
	api.HandleFunc("/sync/bookings/{id}", handlers.SyncBooking(d.Bookings, d.CalendarSync)).Methods("POST")
	api.HandleFunc("/sync/conflicts", handlers.ListSyncConflicts(d.Conflicts)).Methods("GET")
	api.HandleFunc("/sync/conflicts/{id}/resolve", handlers.ResolveSyncConflict(d.Conflicts, d.CalendarSync)).Methods("POST")

	// Lifecycle endpoints
	api.HandleFunc("/lifecycle/run", handlers.RunLifecycleSweep(d.LifecycleSched)).Methods("POST")

	// Serve static frontend files
	if d.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))
	}

	return r
}
