package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/booking"
	"github.com/bouncehire/backend/internal/lifecycle"
	"github.com/bouncehire/backend/internal/payment"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/storage/models"
	"github.com/bouncehire/backend/internal/websocket"
)

// BookingListResponse wraps a page of bookings with the unfiltered total.
type BookingListResponse struct {
	Bookings []models.Booking `json:"bookings"`
	Total    int              `json:"total"`
}

// BookingResponse is a booking plus any advisory warnings raised on the
// operation that produced it.
type BookingResponse struct {
	Booking  *models.Booking `json:"booking"`
	Warnings []string        `json:"warnings,omitempty"`
}

// bookingRequest is the mutable subset of a booking accepted from clients.
// Pointer fields distinguish "absent" from "zero" on PATCH.
type bookingRequest struct {
	CastleID      *string `json:"castle_id"`
	EventDate     *string `json:"event_date"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	TotalPence    *int64  `json:"total_pence"`
	DepositPence  *int64  `json:"deposit_pence"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`
	PaymentMethod *string `json:"payment_method"`
	Notes         *string `json:"notes"`
}

func (req *bookingRequest) apply(b *models.Booking) {
	if req.CastleID != nil {
		b.CastleID = *req.CastleID
	}
	if req.EventDate != nil {
		b.EventDate = *req.EventDate
	}
	if req.StartTime != nil {
		b.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.EndTime = *req.EndTime
	}
	if req.TotalPence != nil {
		b.TotalPence = *req.TotalPence
	}
	if req.DepositPence != nil {
		b.DepositPence = *req.DepositPence
	}
	if req.CustomerName != nil {
		b.CustomerName = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		b.CustomerPhone = *req.CustomerPhone
	}
	if req.CustomerEmail != nil {
		b.CustomerEmail = *req.CustomerEmail
	}
	if req.PaymentMethod != nil {
		b.PaymentMethod = *req.PaymentMethod
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
}

// ListBookings returns bookings with optional filtering and paging.
func ListBookings(bookingRepo *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := models.BookingQuery{
			Status:   r.URL.Query().Get("status"),
			CastleID: r.URL.Query().Get("castle_id"),
			DateFrom: r.URL.Query().Get("from"),
			DateTo:   r.URL.Query().Get("to"),
		}
		q.Limit = intQuery(r, "limit", 50)
		q.Offset = intQuery(r, "offset", 0)

		bookings, total, err := bookingRepo.Query(ctx, q)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query bookings")
			return
		}

		if bookings == nil {
			bookings = []models.Booking{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(BookingListResponse{Bookings: bookings, Total: total})
	}
}

// CreateBooking validates a new booking, rejects it on any blocking conflict
// or maintenance window, and persists it as pending.
func CreateBooking(
	bookingRepo *storage.BookingRepository,
	castleRepo *storage.CastleRepository,
	maintRepo *storage.MaintenanceRepository,
	hub *websocket.Hub,
) http.HandlerFunc {
	limits := booking.DefaultLimits()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		b := &models.Booking{}
		req.apply(b)

		if fieldErrs := booking.Validate(b, limits); len(fieldErrs) > 0 {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Booking failed validation", fieldErrs)
			return
		}

		castle, err := castleRepo.GetByID(ctx, b.CastleID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up castle")
			return
		}
		if castle == nil || !castle.Active {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown or inactive castle")
			return
		}
		b.CastleName = castle.Name

		warnings, status, errCode, msg, details := checkBookingWindow(r, bookingRepo, maintRepo, b, "", limits.Buffer)
		if status != 0 {
			middleware.WriteErrorWithDetails(w, status, errCode, msg, details)
			return
		}
		warnings = append(warnings, booking.AdvisoryWarnings(b, time.Now())...)

		if err := bookingRepo.Create(ctx, b); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create booking")
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastNotification("info", "New booking",
				b.Reference+" for "+b.CastleName+" on "+b.EventDate)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(BookingResponse{Booking: b, Warnings: warnings})
	}
}

// GetBooking returns a single booking by ID, falling back to reference lookup.
func GetBooking(bookingRepo *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		b, err := bookingRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up booking")
			return
		}
		if b == nil {
			b, err = bookingRepo.GetByReference(ctx, id)
			if err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up booking")
				return
			}
		}
		if b == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(b)
	}
}

// UpdateBooking applies a partial edit to a booking, re-running validation
// and conflict detection with the booking itself excluded. Edits to a
// terminal booking are rejected.
func UpdateBooking(
	bookingRepo *storage.BookingRepository,
	castleRepo *storage.CastleRepository,
	maintRepo *storage.MaintenanceRepository,
) http.HandlerFunc {
	limits := booking.DefaultLimits()

	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
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
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Booking is "+b.Status+" and can no longer be edited")
			return
		}

		req.apply(b)

		if fieldErrs := booking.Validate(b, limits); len(fieldErrs) > 0 {
			middleware.WriteErrorWithDetails(w, http.StatusBadRequest, middleware.ErrValidation, "Booking failed validation", fieldErrs)
			return
		}

		if req.CastleID != nil {
			castle, err := castleRepo.GetByID(ctx, b.CastleID)
			if err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up castle")
				return
			}
			if castle == nil || !castle.Active {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown or inactive castle")
				return
			}
			b.CastleName = castle.Name
		}

		warnings, status, errCode, msg, details := checkBookingWindow(r, bookingRepo, maintRepo, b, b.ID, limits.Buffer)
		if status != 0 {
			middleware.WriteErrorWithDetails(w, status, errCode, msg, details)
			return
		}
		warnings = append(warnings, booking.AdvisoryWarnings(b, time.Now())...)

		if err := bookingRepo.Update(ctx, b); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update booking")
			return
		}

		// The calendar mirror is now stale; the next sweep pushes the edit.
		if b.HasCalendarEvent() {
			if err := bookingRepo.MarkSyncStatus(ctx, b.ID, models.SyncStatusPendingSync); err != nil {
				log.Printf("Failed to flag booking %s for sync: %v", b.ID, err)
			}
			b.SyncStatus = models.SyncStatusPendingSync
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(BookingResponse{Booking: b, Warnings: warnings})
	}
}

// ConfirmBooking moves a pending booking to confirmed.
func ConfirmBooking(bookingRepo *storage.BookingRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		b, err := bookingRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up booking")
			return
		}
		if b == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}
		if b.Status != models.BookingStatusPending {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Only pending bookings can be confirmed")
			return
		}

		if err := bookingRepo.UpdateStatus(ctx, id, models.BookingStatusPending, models.BookingStatusConfirmed); err != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Booking changed status concurrently")
			return
		}
		b.Status = models.BookingStatusConfirmed

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastBookingStatusChanged(
				b.ID, b.Reference, models.BookingStatusPending, models.BookingStatusConfirmed, "confirmed by admin")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(b)
	}
}

// CancelBooking moves an active booking to cancelled. A paid deposit is
// refunded best-effort; a refund failure never blocks the cancellation.
func CancelBooking(bookingRepo *storage.BookingRepository, gateway payment.Gateway, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

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
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Booking is already "+b.Status)
			return
		}

		fromStatus := b.Status
		if err := bookingRepo.UpdateStatus(ctx, id, fromStatus, models.BookingStatusCancelled); err != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Booking changed status concurrently")
			return
		}
		b.Status = models.BookingStatusCancelled

		// The mirror event is removed by the next reconciliation sweep; flag
		// the booking so the sweep picks it up.
		if b.HasCalendarEvent() {
			if err := bookingRepo.MarkSyncStatus(ctx, b.ID, models.SyncStatusPendingSync); err != nil {
				log.Printf("Failed to flag booking %s for sync: %v", b.ID, err)
			}
		}

		if gateway != nil && gateway.Enabled() && b.DepositPence > 0 {
			if err := gateway.RefundDeposit(ctx, b.ID); err != nil {
				log.Printf("Deposit refund failed for booking %s: %v", b.ID, err)
			}
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastBookingStatusChanged(
				b.ID, b.Reference, fromStatus, models.BookingStatusCancelled, "cancelled by admin")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(b)
	}
}

// ForceCompleteBooking marks a booking completed ahead of the automatic sweep.
func ForceCompleteBooking(engine *lifecycle.Engine, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		t, err := engine.ForceComplete(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastBookingStatusChanged(
				t.BookingID, t.Reference, t.FromStatus, t.ToStatus, t.Reason)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// checkBookingWindow runs the maintenance and conflict gates for a candidate
// window. A zero status means the window is clear; warnings carry the
// non-blocking overlaps.
func checkBookingWindow(
	r *http.Request,
	bookingRepo *storage.BookingRepository,
	maintRepo *storage.MaintenanceRepository,
	b *models.Booking,
	excludeID string,
	buffer time.Duration,
) (warnings []string, status int, errCode, msg string, details any) {
	ctx := r.Context()

	windows, err := maintRepo.ListForCastle(ctx, b.CastleID, b.EventDate, b.EventDate)
	if err != nil {
		return nil, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to check maintenance windows", nil
	}
	for i := range windows {
		if windows[i].Covers(b.EventDate) {
			return nil, http.StatusConflict, middleware.ErrConflict,
				"Castle is under " + windows[i].Status + " on " + b.EventDate, nil
		}
	}

	existing, err := bookingRepo.ListActiveOnDate(ctx, b.EventDate)
	if err != nil {
		return nil, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to check existing bookings", nil
	}

	conflicts, err := booking.FindConflicts(b, existing, excludeID, buffer)
	if err != nil {
		return nil, http.StatusBadRequest, middleware.ErrValidation, err.Error(), nil
	}
	if booking.HasBlocking(conflicts) {
		return nil, http.StatusConflict, middleware.ErrConflict, "Requested window conflicts with an existing booking", conflicts
	}

	for _, c := range conflicts {
		warnings = append(warnings, c.Message)
	}
	return warnings, 0, "", "", nil
}

// intQuery parses an integer query parameter with a default.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
