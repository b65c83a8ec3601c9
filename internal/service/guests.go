package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// GuestService manages short-term guest registration and stays.
type GuestService struct {
	guests     GuestStore
	apartments ApartmentStore
	resolver   ScopeResolver
	notifier   Notifier

	// Now is the clock used for stay stamps and the active-guest window.
	Now func() time.Time
}

// NewGuestService creates a guest service.
func NewGuestService(guests GuestStore, apartments ApartmentStore, resolver ScopeResolver, notifier Notifier) *GuestService {
	return &GuestService{
		guests:     guests,
		apartments: apartments,
		resolver:   resolver,
		notifier:   notifier,
		Now:        time.Now,
	}
}

// RegisterGuestInput holds the fields of a new guest registration.
type RegisterGuestInput struct {
	ApartmentID    *string     `json:"apartment_id"`
	GuestName      string      `json:"guest_name"`
	GuestCedula    string      `json:"guest_cedula"`
	NumberOfGuests int         `json:"number_of_guests"`
	CheckInDate    models.Date `json:"check_in_date"`
	CheckOutDate   models.Date `json:"check_out_date"`
}

// Register records a pending guest and tells the apartment's assigned user.
// The check-out date is not required to follow the check-in date.
func (s *GuestService) Register(ctx context.Context, in RegisterGuestInput) (*models.AirbnbGuest, error) {
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestCedula = strings.TrimSpace(in.GuestCedula)
	switch {
	case in.GuestName == "":
		return nil, invalid("guest name is required")
	case in.GuestCedula == "":
		return nil, invalid("guest cedula is required")
	case in.NumberOfGuests <= 0:
		return nil, invalid("number of guests must be positive")
	case in.CheckInDate.IsZero() || in.CheckOutDate.IsZero():
		return nil, invalid("check-in and check-out dates are required")
	}

	var apartment *models.Apartment
	if in.ApartmentID != nil && *in.ApartmentID != "" {
		var err error
		apartment, err = s.apartments.GetByID(ctx, *in.ApartmentID)
		if err != nil {
			return nil, err
		}
		if apartment == nil {
			return nil, invalid("apartment %s does not exist", *in.ApartmentID)
		}
	} else {
		in.ApartmentID = nil
	}

	guest := &models.AirbnbGuest{
		ApartmentID:    in.ApartmentID,
		GuestName:      in.GuestName,
		GuestCedula:    in.GuestCedula,
		NumberOfGuests: in.NumberOfGuests,
		CheckInDate:    in.CheckInDate.Time,
		CheckOutDate:   in.CheckOutDate.Time,
		Status:         models.GuestPending,
	}
	if err := s.guests.Create(ctx, guest); err != nil {
		return nil, err
	}

	if apartment != nil && apartment.AssignedUserID != nil {
		s.notifier.Emit(ctx, notify.To(*apartment.AssignedUserID, models.NotificationAirbnbRegistration,
			fmt.Sprintf("Guest %s (ID %s) was registered for apartment %s-%s from %s to %s",
				guest.GuestName, guest.GuestCedula, apartment.Tower, apartment.Number,
				formatDate(guest.CheckInDate), formatDate(guest.CheckOutDate))))
	}

	return guest, nil
}

// CheckIn moves a pending guest to checked_in and tells the apartment's assigned user.
func (s *GuestService) CheckIn(ctx context.Context, id string) (*models.AirbnbGuest, error) {
	guest, err := s.transition(ctx, id, models.GuestCheckedIn)
	if err != nil {
		return nil, err
	}

	if guest.ApartmentID != nil {
		apartment, err := s.apartments.GetByID(ctx, *guest.ApartmentID)
		if err != nil {
			log.Printf("Failed to load apartment %s for check-in notification: %v", *guest.ApartmentID, err)
		} else if apartment != nil && apartment.AssignedUserID != nil {
			s.notifier.Emit(ctx, notify.To(*apartment.AssignedUserID, models.NotificationAirbnbCheckin,
				fmt.Sprintf("Guest %s checked in to apartment %s-%s", guest.GuestName, apartment.Tower, apartment.Number)))
		}
	}

	return guest, nil
}

// CheckOut moves a guest to checked_out. A guest who never checked in may
// still be checked out; CheckedInAt then stays empty.
func (s *GuestService) CheckOut(ctx context.Context, id string) (*models.AirbnbGuest, error) {
	return s.transition(ctx, id, models.GuestCheckedOut)
}

func (s *GuestService) transition(ctx context.Context, id string, to models.GuestStatus) (*models.AirbnbGuest, error) {
	guest, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, notFound("guest", id)
	}

	if err := advance(models.GuestTransitions, "guest", guest.Status, to); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	switch to {
	case models.GuestCheckedIn:
		guest.CheckedInAt = &now
	case models.GuestCheckedOut:
		if guest.Status == models.GuestPending {
			log.Printf("Guest %s checked out without a recorded check-in", guest.ID)
		}
		guest.CheckedOutAt = &now
	}
	guest.Status = to

	if err := s.guests.UpdateStatus(ctx, guest); err != nil {
		return nil, storeErr(err, "guest", id)
	}
	return guest, nil
}

// ActiveGuests returns guests currently checked in and inside their stay window.
func (s *GuestService) ActiveGuests(ctx context.Context) ([]models.AirbnbGuest, error) {
	return s.guests.ListActive(ctx, s.Now())
}

// List returns the guests visible to p.
func (s *GuestService) List(ctx context.Context, p scope.Principal) ([]models.AirbnbGuest, error) {
	f := listFilter(ctx, s.resolver, p, scope.ResourceAirbnbGuest)
	if f.Denies() {
		return []models.AirbnbGuest{}, nil
	}
	return s.guests.ListScoped(ctx, f)
}

// Get returns a guest visible to p. Guests outside p's scope are reported as not found.
func (s *GuestService) Get(ctx context.Context, p scope.Principal, id string) (*models.AirbnbGuest, error) {
	guest, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, notFound("guest", id)
	}

	f, err := s.resolver.Resolve(ctx, p, scope.ResourceAirbnbGuest)
	if err != nil {
		return nil, err
	}
	if !f.Match(guestColumns(guest)) {
		return nil, notFound("guest", id)
	}
	return guest, nil
}

// Delete removes a guest registration.
func (s *GuestService) Delete(ctx context.Context, id string) error {
	guest, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if guest == nil {
		return notFound("guest", id)
	}
	return storeErr(s.guests.Delete(ctx, id), "guest", id)
}
