package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// The event description is the de-facto wire format between a booking and its
// calendar mirror: one "Label: value" pair per line. EncodeDescription and
// DecodeDescription are the only writer and reader of this format, so the
// field list below cannot drift apart. Decoding is deliberately tolerant:
// a missing or garbled field is simply absent, never an error.

const (
	labelReference     = "Booking Ref"
	labelCustomer      = "Customer"
	labelPhone         = "Phone"
	labelCost          = "Cost"
	labelPaymentMethod = "Payment Method"
	labelNotes         = "Notes"
)

// Details is the booking metadata carried in an event description.
// CostPence is nil when the cost line is missing or unparseable.
type Details struct {
	Reference     string
	CustomerName  string
	CustomerPhone string
	CostPence     *int64
	PaymentMethod string
	Notes         string
}

// EncodeDescription renders booking details as description text. Empty fields
// are omitted; cost is written in pounds for human readers.
func EncodeDescription(d Details) string {
	var b strings.Builder

	writeLine := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	writeLine(labelReference, d.Reference)
	writeLine(labelCustomer, d.CustomerName)
	writeLine(labelPhone, d.CustomerPhone)
	if d.CostPence != nil {
		writeLine(labelCost, fmt.Sprintf("£%d.%02d", *d.CostPence/100, *d.CostPence%100))
	}
	writeLine(labelPaymentMethod, d.PaymentMethod)
	writeLine(labelNotes, d.Notes)

	return strings.TrimRight(b.String(), "\n")
}

// DecodeDescription parses description text back into booking details.
// Unrecognised lines are ignored; everything after the Notes label is
// captured verbatim, including newlines.
func DecodeDescription(text string) Details {
	var d Details

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		label, value, ok := splitLabel(line)
		if !ok {
			continue
		}

		switch label {
		case labelReference:
			d.Reference = value
		case labelCustomer:
			d.CustomerName = value
		case labelPhone:
			d.CustomerPhone = value
		case labelCost:
			if pence, ok := parseCost(value); ok {
				d.CostPence = &pence
			}
		case labelPaymentMethod:
			d.PaymentMethod = value
		case labelNotes:
			rest := append([]string{value}, lines[i+1:]...)
			d.Notes = strings.TrimSpace(strings.Join(rest, "\n"))
			return d
		}
	}

	return d
}

func splitLabel(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// parseCost reads a monetary value like "£123.45", "123.45" or "123" into
// pence. Costs are never negative; a minus sign means a garbled line.
func parseCost(s string) (int64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "£"))
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, false
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	pounds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}

	pence := pounds * 100
	if hasFrac {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		p, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		pence += p
	}

	return pence, true
}
