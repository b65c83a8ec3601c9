package service

import (
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// Column accessors let a scope.Filter be checked against a single loaded row.

func optional(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

func apartmentColumns(a *models.Apartment) func(string) (string, bool) {
	return func(column string) (string, bool) {
		switch column {
		case scope.ColAssignedUserID:
			return optional(a.AssignedUserID)
		case scope.ColAssignedRole:
			if a.AssignedRole == nil {
				return "", false
			}
			return string(*a.AssignedRole), true
		}
		return "", false
	}
}

func guestColumns(g *models.AirbnbGuest) func(string) (string, bool) {
	return func(column string) (string, bool) {
		switch column {
		case scope.ColApartmentID:
			return optional(g.ApartmentID)
		case scope.ColGuestCedula:
			return g.GuestCedula, true
		}
		return "", false
	}
}

func paymentColumns(p *models.Payment) func(string) (string, bool) {
	return func(column string) (string, bool) {
		switch column {
		case scope.ColUserID:
			return p.UserID, true
		case scope.ColApartmentID:
			return optional(p.ApartmentID)
		}
		return "", false
	}
}

func reportColumns(d *models.DamageReport) func(string) (string, bool) {
	return func(column string) (string, bool) {
		if column == scope.ColReportedBy {
			return d.ReportedBy, true
		}
		return "", false
	}
}
