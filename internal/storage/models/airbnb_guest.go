package models

import "time"

// AirbnbGuest is a short-term guest registered against an apartment.
type AirbnbGuest struct {
	ID             string      `json:"id"`
	ApartmentID    *string     `json:"apartment_id,omitempty"`
	GuestName      string      `json:"guest_name"`
	GuestCedula    string      `json:"guest_cedula"`
	NumberOfGuests int         `json:"number_of_guests"`
	CheckInDate    time.Time   `json:"check_in_date"`
	CheckOutDate   time.Time   `json:"check_out_date"`
	Status         GuestStatus `json:"status"`
	CheckedInAt    *time.Time  `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time  `json:"checked_out_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GuestStatus is the stay lifecycle of a guest.
type GuestStatus string

// Guest status constants
const (
	GuestPending    GuestStatus = "pending"
	GuestCheckedIn  GuestStatus = "checked_in"
	GuestCheckedOut GuestStatus = "checked_out"
)

// GuestTransitions is the stay lifecycle. Checking out a guest that never
// checked in is allowed; CheckedInAt stays empty for those stays.
var GuestTransitions = Transitions[GuestStatus]{
	GuestPending:    {GuestCheckedIn, GuestCheckedOut},
	GuestCheckedIn:  {GuestCheckedOut},
	GuestCheckedOut: {},
}

// IsActive returns true if the guest is checked in and inside the stay window.
func (g *AirbnbGuest) IsActive(now time.Time) bool {
	return g.Status == GuestCheckedIn && !g.CheckInDate.After(now) && g.CheckOutDate.After(now)
}
