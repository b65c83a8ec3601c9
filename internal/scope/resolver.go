// Package scope decides which rows a principal may see or change.
package scope

import (
	"context"
	"fmt"

	"github.com/condo-admin/backend/internal/storage/models"
)

// Principal is the authenticated caller.
type Principal struct {
	ID     string      `json:"id"`
	Role   models.Role `json:"role"`
	Cedula string      `json:"cedula,omitempty"`
}

// IsAdmin returns true for administrators.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Resource identifies a scoped entity type.
type Resource string

// Scoped resources
const (
	ResourceApartment    Resource = "apartment"
	ResourceAirbnbGuest  Resource = "airbnb_guest"
	ResourcePayment      Resource = "payment"
	ResourceDamageReport Resource = "damage_report"
)

// ApartmentLookup finds the apartments held by a user in a given capacity.
type ApartmentLookup interface {
	IDsAssignedTo(ctx context.Context, userID string, role models.AssignedRole) ([]string, error)
}

// Resolver builds row filters for principals.
type Resolver struct {
	apartments ApartmentLookup
}

// NewResolver creates a resolver backed by the given apartment lookup.
func NewResolver(apartments ApartmentLookup) *Resolver {
	return &Resolver{apartments: apartments}
}

// Resolve returns the filter restricting resource rows for p.
// A principal matching no rule gets None, never All. On lookup failure the
// returned filter is None alongside the error.
func (r *Resolver) Resolve(ctx context.Context, p Principal, resource Resource) (Filter, error) {
	if p.ID == "" {
		return None(), nil
	}
	if p.IsAdmin() {
		return All(), nil
	}

	switch resource {
	case ResourceApartment:
		if p.Role == models.RoleOwner {
			return Where(
				Eq(ColAssignedUserID, p.ID),
				Eq(ColAssignedRole, string(models.AssignedOwner)),
			), nil
		}

	case ResourceAirbnbGuest:
		switch p.Role {
		case models.RoleOwner:
			return r.ownedApartments(ctx, p)
		case models.RoleAirbnbGuest:
			return Where(Eq(ColGuestCedula, p.Cedula)), nil
		}

	case ResourcePayment:
		switch p.Role {
		case models.RoleOwner:
			return r.ownedApartments(ctx, p)
		case models.RoleTenant, models.RoleAirbnbGuest:
			return Where(Eq(ColUserID, p.ID)), nil
		}

	case ResourceDamageReport:
		return Where(Eq(ColReportedBy, p.ID)), nil
	}

	return None(), nil
}

// ownedApartments restricts rows to apartments the owner currently holds.
func (r *Resolver) ownedApartments(ctx context.Context, p Principal) (Filter, error) {
	ids, err := r.apartments.IDsAssignedTo(ctx, p.ID, models.AssignedOwner)
	if err != nil {
		return None(), fmt.Errorf("resolving owned apartments: %w", err)
	}
	return Where(In(ColApartmentID, ids)), nil
}

// CanModify reports whether p may edit or delete a row created by ownerID.
func CanModify(p Principal, ownerID string) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == ownerID)
}
