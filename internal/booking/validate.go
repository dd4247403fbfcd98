package booking

import (
	"fmt"

	"github.com/bouncehire/backend/internal/storage/models"
)

// FieldError is a validation failure tied to a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a booking's interval, duration and monetary fields against
// the supplied limits. It returns every failure, not just the first, so the
// caller can surface them field by field.
func Validate(b *models.Booking, limits Limits) []FieldError {
	var errs []FieldError

	iv, err := IntervalFromClocks(b.EventDate, b.StartTime, b.EndTime)
	if err != nil {
		errs = append(errs, FieldError{Field: "time", Message: err.Error()})
	} else {
		if d := iv.Duration(); d < limits.MinDuration {
			errs = append(errs, FieldError{
				Field:   "end_time",
				Message: fmt.Sprintf("booking must be at least %s", limits.MinDuration),
			})
		} else if d > limits.MaxDuration {
			errs = append(errs, FieldError{
				Field:   "end_time",
				Message: fmt.Sprintf("booking must be at most %s", limits.MaxDuration),
			})
		}
	}

	if b.TotalPence < 0 {
		errs = append(errs, FieldError{Field: "total_pence", Message: "total cannot be negative"})
	}
	if b.DepositPence < 0 {
		errs = append(errs, FieldError{Field: "deposit_pence", Message: "deposit cannot be negative"})
	}
	if b.DepositPence > b.TotalPence {
		errs = append(errs, FieldError{Field: "deposit_pence", Message: "deposit cannot exceed the total price"})
	}

	if b.CastleID == "" {
		errs = append(errs, FieldError{Field: "castle_id", Message: "castle is required"})
	}

	return errs
}
