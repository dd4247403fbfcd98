// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/storage/models"
	"github.com/bouncehire/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	CastlesCount      int `json:"castles_count"`
	PendingBookings   int `json:"pending_bookings"`
	ConfirmedBookings int `json:"confirmed_bookings"`
	OpenSyncConflicts int `json:"open_sync_conflicts"`
	ConnectedClients  int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var response StatusResponse

		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM castles WHERE active = 1").Scan(&response.CastlesCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE status = ?",
			models.BookingStatusPending).Scan(&response.PendingBookings)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE status = ?",
			models.BookingStatusConfirmed).Scan(&response.ConfirmedBookings)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_conflicts WHERE resolved = 0").Scan(&response.OpenSyncConflicts)

		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
