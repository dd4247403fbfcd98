package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/availability"
)

// AvailabilityResponse wraps the per-day records for a castle over a range.
type AvailabilityResponse struct {
	CastleID string                        `json:"castle_id"`
	From     string                        `json:"from"`
	To       string                        `json:"to"`
	Days     []availability.DayAvailability `json:"days"`
}

// GetAvailability returns day-level availability for a castle over a date range.
func GetAvailability(engine *availability.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		castleID := r.URL.Query().Get("castle_id")
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		if castleID == "" || from == "" || to == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "castle_id, from and to are required")
			return
		}

		days, err := engine.GetAvailability(ctx, castleID, from, to)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AvailabilityResponse{
			CastleID: castleID,
			From:     from,
			To:       to,
			Days:     days,
		})
	}
}

// availabilityCheckRequest is a slot-level availability question.
type availabilityCheckRequest struct {
	CastleID  string `json:"castle_id"`
	EventDate string `json:"event_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CheckAvailability answers whether a specific window is bookable. Unlike the
// range query this is authoritative: store errors become 500s, never a yes.
func CheckAvailability(engine *availability.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req availabilityCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.CastleID == "" || req.EventDate == "" || req.StartTime == "" || req.EndTime == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "castle_id, event_date, start_time and end_time are required")
			return
		}

		result, err := engine.CheckAvailability(ctx, req.CastleID, req.EventDate, req.StartTime, req.EndTime)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Availability check failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
