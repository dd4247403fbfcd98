package models

import "time"

// Castle represents a rentable inventory item. A castle can serve only one
// booking at a time.
type Castle struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	DailyRatePence int64     `json:"daily_rate_pence"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
