// Package payment abstracts deposit collection so the booking flow does not
// care which provider (if any) is wired in.
package payment

import (
	"context"
	"fmt"
)

// Intent is a provider-side request to collect a deposit.
type Intent struct {
	ID           string `json:"id"`
	BookingID    string `json:"booking_id"`
	AmountPence  int64  `json:"amount_pence"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
	ProviderName string `json:"provider"`
}

// Gateway is the narrow surface the booking handlers use. Implementations
// must be safe for concurrent use.
type Gateway interface {
	// Enabled reports whether a real provider is configured.
	Enabled() bool

	// CreateDepositIntent asks the provider to collect amountPence for a
	// booking. Returns an error when the gateway is disabled.
	CreateDepositIntent(ctx context.Context, bookingID string, amountPence int64) (*Intent, error)

	// RefundDeposit returns a previously collected deposit, e.g. on
	// cancellation. A disabled gateway refuses.
	RefundDeposit(ctx context.Context, bookingID string) error
}

// Disabled is the no-op gateway used when no provider is configured.
// Deposits are then tracked as plain amounts on the booking record and
// settled out of band (cash or bank transfer on delivery).
type Disabled struct{}

// NewDisabled returns the no-op gateway.
func NewDisabled() *Disabled {
	return &Disabled{}
}

func (*Disabled) Enabled() bool { return false }

func (*Disabled) CreateDepositIntent(ctx context.Context, bookingID string, amountPence int64) (*Intent, error) {
	return nil, fmt.Errorf("payment gateway not configured")
}

func (*Disabled) RefundDeposit(ctx context.Context, bookingID string) error {
	return fmt.Errorf("payment gateway not configured")
}
