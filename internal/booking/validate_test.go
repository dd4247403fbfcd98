package booking

import (
	"testing"

	"github.com/bouncehire/backend/internal/storage/models"
)

func validBooking() *models.Booking {
	return &models.Booking{
		CastleID:     "castle-a",
		EventDate:    "2024-06-01",
		StartTime:    "10:00",
		EndTime:      "14:00",
		TotalPence:   12000,
		DepositPence: 3000,
	}
}

func fieldsOf(errs []FieldError) map[string]bool {
	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	return fields
}

func TestValidateAcceptsWellFormedBooking(t *testing.T) {
	if errs := Validate(validBooking(), DefaultLimits()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateDurationBounds(t *testing.T) {
	b := validBooking()
	b.EndTime = "11:00"
	errs := Validate(b, DefaultLimits())
	if !fieldsOf(errs)["end_time"] {
		t.Errorf("1 hour booking should fail the minimum duration, got %v", errs)
	}

	b = validBooking()
	b.StartTime = "08:00"
	b.EndTime = "21:00"
	errs = Validate(b, DefaultLimits())
	if !fieldsOf(errs)["end_time"] {
		t.Errorf("13 hour booking should fail the maximum duration, got %v", errs)
	}
}

func TestValidateMoneyRules(t *testing.T) {
	b := validBooking()
	b.TotalPence = -1
	b.DepositPence = -1
	errs := Validate(b, DefaultLimits())
	fields := fieldsOf(errs)
	if !fields["total_pence"] || !fields["deposit_pence"] {
		t.Errorf("negative amounts should each be reported, got %v", errs)
	}

	b = validBooking()
	b.DepositPence = b.TotalPence + 1
	errs = Validate(b, DefaultLimits())
	if !fieldsOf(errs)["deposit_pence"] {
		t.Errorf("deposit above total should be rejected, got %v", errs)
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	b := &models.Booking{
		EventDate:    "2024-06-01",
		StartTime:    "14:00",
		EndTime:      "10:00",
		TotalPence:   -5,
		DepositPence: 0,
	}
	errs := Validate(b, DefaultLimits())
	fields := fieldsOf(errs)
	for _, want := range []string{"time", "total_pence", "castle_id"} {
		if !fields[want] {
			t.Errorf("missing failure for %q in %v", want, errs)
		}
	}
}
