package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bouncehire/backend/internal/storage/models"
)

func newMockRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return NewBookingRepository(&DB{DB: mockDB}), mock
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(
		"id,reference,castle_id,castle_name,event_date,start_time,end_time,"+
			"start_at,end_at,status,total_pence,deposit_pence,"+
			"customer_name,customer_phone,customer_email,payment_method,notes,"+
			"calendar_event_id,sync_status,last_synced_at,created_at,updated_at", ","))
}

func addBookingRow(rows *sqlmock.Rows, id, status string) *sqlmock.Rows {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "BC-"+id, "castle-a", "Princess Palace", "2024-06-15", "10:00", "14:00",
		nil, nil, status, int64(12000), int64(3000),
		"Sarah Jones", "07700 900123", "", "cash", "",
		nil, models.SyncStatusPendingSync, nil, now, now,
	)
}

func TestBookingGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ?").
		WithArgs("missing").
		WillReturnRows(bookingRows())

	b, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b != nil {
		t.Errorf("expected nil for a missing booking, got %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingGetByIDScansRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ?").
		WithArgs("b1").
		WillReturnRows(addBookingRow(bookingRows(), "b1", models.BookingStatusConfirmed))

	b, err := repo.GetByID(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b == nil {
		t.Fatal("expected a booking")
	}
	if b.Reference != "BC-b1" || b.Status != models.BookingStatusConfirmed {
		t.Errorf("scanned booking = %+v", b)
	}
	if b.CalendarEventID != nil {
		t.Errorf("CalendarEventID = %v, want nil", b.CalendarEventID)
	}
}

func TestBookingCreateFillsDefaults(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	b := &models.Booking{
		CastleID:  "castle-a",
		EventDate: "2024-06-15",
		StartTime: "10:00",
		EndTime:   "14:00",
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if b.ID == "" {
		t.Error("Create must assign an ID")
	}
	if !strings.HasPrefix(b.Reference, "BC-20240615-") {
		t.Errorf("Reference = %q, want BC-20240615-XXXX", b.Reference)
	}
	if b.Status != models.BookingStatusPending {
		t.Errorf("Status = %q, want pending", b.Status)
	}
	if b.SyncStatus != models.SyncStatusPendingSync {
		t.Errorf("SyncStatus = %q, want pending_sync", b.SyncStatus)
	}
}

func TestBookingUpdateStatusConditional(t *testing.T) {
	repo, mock := newMockRepo(t)

	// The row is updated only when the current status still matches.
	mock.ExpectExec("UPDATE bookings SET status = (.+) WHERE id = (.+) AND status = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "b1", models.BookingStatusConfirmed, models.BookingStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	// A concurrent writer got there first: zero rows affected is an error.
	mock.ExpectExec("UPDATE bookings SET status = (.+) WHERE id = (.+) AND status = ?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "b1", models.BookingStatusConfirmed, models.BookingStatusCompleted)
	if err == nil {
		t.Error("expected error when the precondition no longer holds")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingQueryAppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bookings WHERE 1=1 AND status = \\? AND castle_id = \\?").
		WithArgs(models.BookingStatusPending, "castle-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE 1=1 AND status = \\? AND castle_id = \\? ORDER BY event_date DESC").
		WithArgs(models.BookingStatusPending, "castle-a", 10, 0).
		WillReturnRows(addBookingRow(bookingRows(), "b1", models.BookingStatusPending))

	bookings, total, err := repo.Query(context.Background(), models.BookingQuery{
		Status:   models.BookingStatusPending,
		CastleID: "castle-a",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if total != 1 || len(bookings) != 1 {
		t.Errorf("got %d bookings, total %d, want 1/1", len(bookings), total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateSyncStateAlignsTimestamps(t *testing.T) {
	repo, mock := newMockRepo(t)

	eventID := "ev-1"
	syncedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// updated_at must carry the same instant as last_synced_at, otherwise a
	// freshly synced booking reads as locally modified on the next sweep and
	// gets re-pushed forever.
	mock.ExpectExec("UPDATE bookings SET calendar_event_id = (.+), sync_status = (.+), last_synced_at = (.+), updated_at = (.+)").
		WithArgs(eventID, models.SyncStatusSynced, syncedAt, syncedAt, "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSyncState(context.Background(), "b1", &eventID, models.SyncStatusSynced, &syncedAt); err != nil {
		t.Fatalf("UpdateSyncState: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListLinkedIncludesTerminalLinkedBookings(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings\s+WHERE status IN \(\?, \?\)\s+OR \(status IN \(\?, \?\) AND calendar_event_id IS NOT NULL\)`).
		WithArgs(models.BookingStatusPending, models.BookingStatusConfirmed,
			models.BookingStatusCancelled, models.BookingStatusExpired).
		WillReturnRows(addBookingRow(bookingRows(), "b1", models.BookingStatusCancelled))

	bookings, err := repo.ListLinked(context.Background())
	if err != nil {
		t.Fatalf("ListLinked: %v", err)
	}
	if len(bookings) != 1 || bookings[0].Status != models.BookingStatusCancelled {
		t.Errorf("bookings = %+v, want the cancelled linked booking", bookings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference("2024-06-15")
	if !strings.HasPrefix(ref, "BC-20240615-") {
		t.Errorf("reference = %q, want BC-20240615-XXXX", ref)
	}
	if len(ref) != len("BC-20240615-")+4 {
		t.Errorf("reference = %q has unexpected length", ref)
	}

	// A malformed date still yields a usable reference.
	if ref := GenerateReference("garbage"); !strings.HasPrefix(ref, "BC-") {
		t.Errorf("reference for bad date = %q", ref)
	}
}
