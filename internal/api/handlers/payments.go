package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/payment"
	"github.com/bouncehire/backend/internal/storage"
)

// CreateDepositIntent asks the payment gateway to collect the deposit for a
// booking. Answers 503 when no provider is configured, in which case deposits
// are settled out of band.
func CreateDepositIntent(bookingRepo *storage.BookingRepository, gateway payment.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if gateway == nil || !gateway.Enabled() {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Payment gateway is not configured")
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
		if b.IsTerminal() {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Booking is "+b.Status)
			return
		}
		if b.DepositPence <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Booking has no deposit to collect")
			return
		}

		intent, err := gateway.CreateDepositIntent(ctx, b.ID, b.DepositPence)
		if err != nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrInternalError, "Deposit intent failed: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(intent)
	}
}
