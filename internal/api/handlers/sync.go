package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/calendar"
	"github.com/bouncehire/backend/internal/lifecycle"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/storage/models"
)

// TriggerSync kicks off a full reconciliation sweep in the background.
func TriggerSync(scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scheduler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Calendar sync is not configured")
			return
		}

		scheduler.TriggerSync()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}

// SyncBooking reconciles a single booking with its calendar event and
// returns the outcome.
func SyncBooking(bookingRepo *storage.BookingRepository, syncService *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if syncService == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Calendar sync is not configured")
			return
		}

		b, err := bookingRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up booking")
			return
		}
		if b == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}

		outcome, err := syncService.Bidirectional(ctx, b)
		if err != nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, "Sync failed: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"outcome": outcome,
			"booking": b,
		})
	}
}

// ListSyncConflicts returns all unresolved sync conflicts.
func ListSyncConflicts(conflictRepo *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conflicts, err := conflictRepo.ListUnresolved(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to list sync conflicts")
			return
		}
		if conflicts == nil {
			conflicts = []models.SyncConflict{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conflicts)
	}
}

// resolveConflictRequest chooses a side for a diverged booking. Strategy
// manual requires the edited booking in the body.
type resolveConflictRequest struct {
	Strategy string          `json:"strategy"`
	Booking  *models.Booking `json:"booking,omitempty"`
}

// ResolveSyncConflict applies a resolution strategy to a sync conflict.
func ResolveSyncConflict(conflictRepo *storage.ConflictRepository, syncService *calendar.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if syncService == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Calendar sync is not configured")
			return
		}

		var req resolveConflictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		switch req.Strategy {
		case models.ResolutionUseLocal, models.ResolutionUseCalendar:
		case models.ResolutionManual:
			if req.Booking == nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Manual resolution requires a booking body")
				return
			}
		default:
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "strategy must be use_local, use_calendar or manual")
			return
		}

		conflict, err := conflictRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up conflict")
			return
		}
		if conflict == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Sync conflict not found")
			return
		}
		if conflict.Resolved {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Conflict is already resolved")
			return
		}

		if err := syncService.ResolveConflict(ctx, conflict.BookingID, req.Strategy, req.Booking); err != nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, "Resolution failed: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "resolved", "strategy": req.Strategy})
	}
}

// RunLifecycleSweep kicks off a completion sweep in the background.
func RunLifecycleSweep(scheduler *lifecycle.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduler.TriggerSweep()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}
