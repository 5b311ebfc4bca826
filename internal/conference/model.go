// Package conference holds the conference reference data: the
// conferences themselves, their seat types and prices, and the owner
// access codes.  This data is plain relational state, not event sourced;
// the availability aggregate is told about quota changes through
// commands.
package conference

import "time"

// Conference is one managed conference.  AccessCodeHash is the bcrypt
// hash of the owner access code; the clear code is returned exactly once,
// on creation.
type Conference struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	OwnerName      string    `json:"owner_name"`
	OwnerEmail     string    `json:"owner_email"`
	AccessCodeHash string    `json:"-"`
	Published      bool      `json:"published"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SeatType is one purchasable seat category of a conference.  Quantity is
// the total quota ever offered; the remaining count lives in the seats
// availability aggregate and its read model.
type SeatType struct {
	ConferenceID string    `json:"conference_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Quantity     int       `json:"quantity"`
	PriceCents   int64     `json:"price_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
