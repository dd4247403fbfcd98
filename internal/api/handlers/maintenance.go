package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/storage/models"
)

// ListMaintenanceWindows returns maintenance windows, optionally filtered by
// castle and date range.
func ListMaintenanceWindows(maintRepo *storage.MaintenanceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		castleID := r.URL.Query().Get("castle_id")
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		var (
			windows []models.MaintenanceWindow
			err     error
		)
		if castleID != "" && from != "" && to != "" {
			windows, err = maintRepo.ListForCastle(ctx, castleID, from, to)
		} else {
			windows, err = maintRepo.List(ctx)
		}
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to list maintenance windows")
			return
		}
		if windows == nil {
			windows = []models.MaintenanceWindow{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(windows)
	}
}

// CreateMaintenanceWindow marks a castle unavailable for a date range.
func CreateMaintenanceWindow(maintRepo *storage.MaintenanceRepository, castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var win models.MaintenanceWindow
		if err := json.NewDecoder(r.Body).Decode(&win); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if win.CastleID == "" || win.StartDate == "" || win.EndDate == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "castle_id, start_date and end_date are required")
			return
		}
		if win.EndDate < win.StartDate {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "end_date must not be before start_date")
			return
		}
		if win.Status == "" {
			win.Status = models.MaintenanceStatusMaintenance
		}
		if win.Status != models.MaintenanceStatusMaintenance && win.Status != models.MaintenanceStatusOutOfService {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "status must be maintenance or out_of_service")
			return
		}

		castle, err := castleRepo.GetByID(ctx, win.CastleID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up castle")
			return
		}
		if castle == nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown castle")
			return
		}

		if err := maintRepo.Create(ctx, &win); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create maintenance window")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(win)
	}
}

// DeleteMaintenanceWindow removes a maintenance window.
func DeleteMaintenanceWindow(maintRepo *storage.MaintenanceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := maintRepo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Maintenance window not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
