package calendar

import (
	"strings"
	"testing"
)

func TestDescriptionRoundTrip(t *testing.T) {
	cost := int64(12550)
	in := Details{
		Reference:     "BC-20240601-A1B2",
		CustomerName:  "Sarah Jones",
		CustomerPhone: "07700 900123",
		CostPence:     &cost,
		PaymentMethod: "bank_transfer",
		Notes:         "Gate code 4412.\nDeliver to the back garden.",
	}

	out := DecodeDescription(EncodeDescription(in))

	if out.Reference != in.Reference {
		t.Errorf("Reference = %q, want %q", out.Reference, in.Reference)
	}
	if out.CustomerName != in.CustomerName {
		t.Errorf("CustomerName = %q, want %q", out.CustomerName, in.CustomerName)
	}
	if out.CustomerPhone != in.CustomerPhone {
		t.Errorf("CustomerPhone = %q, want %q", out.CustomerPhone, in.CustomerPhone)
	}
	if out.CostPence == nil || *out.CostPence != cost {
		t.Errorf("CostPence = %v, want %d", out.CostPence, cost)
	}
	if out.PaymentMethod != in.PaymentMethod {
		t.Errorf("PaymentMethod = %q, want %q", out.PaymentMethod, in.PaymentMethod)
	}
	if out.Notes != in.Notes {
		t.Errorf("Notes = %q, want %q", out.Notes, in.Notes)
	}
}

func TestEncodeDescriptionOmitsEmptyFields(t *testing.T) {
	text := EncodeDescription(Details{Reference: "BC-1"})
	if text != "Booking Ref: BC-1" {
		t.Errorf("EncodeDescription = %q", text)
	}
	if strings.Contains(text, "Customer") || strings.Contains(text, "Cost") {
		t.Errorf("empty fields leaked into %q", text)
	}
}

func TestDecodeDescriptionTolerant(t *testing.T) {
	text := strings.Join([]string{
		"Some free text the admin typed",
		"Booking Ref: BC-2",
		"Cost: not a number",
		"Unknown Label: whatever",
		"Phone: 07700 900456",
	}, "\n")

	d := DecodeDescription(text)
	if d.Reference != "BC-2" {
		t.Errorf("Reference = %q, want BC-2", d.Reference)
	}
	if d.CustomerPhone != "07700 900456" {
		t.Errorf("CustomerPhone = %q", d.CustomerPhone)
	}
	if d.CostPence != nil {
		t.Errorf("garbled cost should decode as nil, got %d", *d.CostPence)
	}
	if d.CustomerName != "" {
		t.Errorf("CustomerName = %q, want empty", d.CustomerName)
	}
}

func TestDecodeDescriptionEmpty(t *testing.T) {
	d := DecodeDescription("")
	if d != (Details{}) {
		t.Errorf("empty text should decode to zero details, got %+v", d)
	}
}

func TestParseCost(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"£125.50", 12550, true},
		{"125.50", 12550, true},
		{"125", 12500, true},
		{"£0.05", 5, true},
		{"£125.5", 12550, true},
		{"", 0, false},
		{"abc", 0, false},
		{"£-1.50", 0, false},
		{"-125", 0, false},
	}

	for _, c := range cases {
		got, ok := parseCost(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("parseCost(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
