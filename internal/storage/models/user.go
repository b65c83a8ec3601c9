package models

import (
	"strings"
	"time"
)

// User is a person with access to the administration system.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Cedula       string     `json:"cedula"`
	Phone        *string    `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Role determines which rows and operations a user can reach.
type Role string

// Role constants
const (
	RoleAdmin       Role = "admin"
	RoleOwner       Role = "owner"
	RoleTenant      Role = "tenant"
	RoleAirbnbGuest Role = "airbnb_guest"
	RoleSecurity    Role = "security"

	// RoleResident is only matched when selecting maintenance recipients;
	// older accounts may still carry it.
	RoleResident Role = "resident"
)

// Valid returns true for roles that can be assigned to a user.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleTenant, RoleAirbnbGuest, RoleSecurity:
		return true
	}
	return false
}

// UserStatus tracks account approval.
type UserStatus string

// User status constants
const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusApproved UserStatus = "approved"
	UserStatusInactive UserStatus = "inactive"
)

// Valid returns true for known account statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusApproved, UserStatusInactive:
		return true
	}
	return false
}

// CanSignIn reports whether the account is approved for use.
func (u *User) CanSignIn() bool {
	return u.Status == UserStatusActive || u.Status == UserStatusApproved
}

// NormalizeEmail lower-cases and trims an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
