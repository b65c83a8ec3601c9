package models

import "time"

// Apartment is a residential unit in the complex.
// Only one user/role assignment is held at a time; reassigning overwrites it.
type Apartment struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Tower          string          `json:"tower"`
	Floor          int             `json:"floor"`
	OwnerID        *string         `json:"owner_id,omitempty"`
	AssignedUserID *string         `json:"assigned_user_id,omitempty"`
	AssignedRole   *AssignedRole   `json:"assigned_role,omitempty"`
	Status         ApartmentStatus `json:"status"`
	Type           string          `json:"type"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AssignedRole is the capacity in which a user occupies an apartment.
type AssignedRole string

// Assigned role constants
const (
	AssignedOwner       AssignedRole = "owner"
	AssignedTenant      AssignedRole = "tenant"
	AssignedAirbnbGuest AssignedRole = "airbnb_guest"
)

// Valid returns true for known assignment roles.
func (r AssignedRole) Valid() bool {
	switch r {
	case AssignedOwner, AssignedTenant, AssignedAirbnbGuest:
		return true
	}
	return false
}

// ApartmentStatus describes current occupancy.
type ApartmentStatus string

// Apartment status constants
const (
	ApartmentVacant        ApartmentStatus = "vacant"
	ApartmentOccupied      ApartmentStatus = "occupied"
	ApartmentOwnerOccupied ApartmentStatus = "owner_occupied"
	ApartmentRented        ApartmentStatus = "rented"
	ApartmentAirbnb        ApartmentStatus = "airbnb"
)

// Valid returns true for known apartment statuses.
func (s ApartmentStatus) Valid() bool {
	switch s {
	case ApartmentVacant, ApartmentOccupied, ApartmentOwnerOccupied, ApartmentRented, ApartmentAirbnb:
		return true
	}
	return false
}

// StatusForAssignment returns the occupancy status implied by an assignment.
// A nil role means the apartment was released.
func StatusForAssignment(role *AssignedRole) ApartmentStatus {
	if role == nil {
		return ApartmentVacant
	}
	switch *role {
	case AssignedOwner:
		return ApartmentOwnerOccupied
	case AssignedTenant:
		return ApartmentRented
	case AssignedAirbnbGuest:
		return ApartmentAirbnb
	}
	return ApartmentOccupied
}
