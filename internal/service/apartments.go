package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// ApartmentService manages the apartment registry.
type ApartmentService struct {
	apartments ApartmentStore
	users      UserStore
	resolver   ScopeResolver
	notifier   Notifier
}

// NewApartmentService creates an apartment service.
func NewApartmentService(apartments ApartmentStore, users UserStore, resolver ScopeResolver, notifier Notifier) *ApartmentService {
	return &ApartmentService{apartments: apartments, users: users, resolver: resolver, notifier: notifier}
}

// CreateApartmentInput holds the fields of a new apartment.
type CreateApartmentInput struct {
	Number  string  `json:"number"`
	Tower   string  `json:"tower"`
	Floor   int     `json:"floor"`
	Type    string  `json:"type"`
	OwnerID *string `json:"owner_id"`
}

// UpdateApartmentInput is a partial apartment update. Assignments go through Assign.
type UpdateApartmentInput struct {
	Number  Optional[string]                 `json:"number"`
	Tower   Optional[string]                 `json:"tower"`
	Floor   Optional[int]                    `json:"floor"`
	Type    Optional[string]                 `json:"type"`
	OwnerID Optional[string]                 `json:"owner_id"`
	Status  Optional[models.ApartmentStatus] `json:"status"`
}

// AssignInput sets or clears the apartment's occupant. A nil UserID releases it.
type AssignInput struct {
	UserID *string              `json:"user_id"`
	Role   *models.AssignedRole `json:"role"`
}

// Create adds a vacant apartment.
func (s *ApartmentService) Create(ctx context.Context, in CreateApartmentInput) (*models.Apartment, error) {
	apartment := &models.Apartment{
		Number:  strings.TrimSpace(in.Number),
		Tower:   strings.TrimSpace(in.Tower),
		Floor:   in.Floor,
		Type:    strings.TrimSpace(in.Type),
		OwnerID: in.OwnerID,
		Status:  models.ApartmentVacant,
	}
	if err := validateApartment(apartment); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, apartment.OwnerID); err != nil {
		return nil, err
	}

	if err := s.apartments.Create(ctx, apartment); err != nil {
		return nil, storeErr(err, "apartment", apartment.Tower+"-"+apartment.Number)
	}
	return apartment, nil
}

// Update applies a partial update.
func (s *ApartmentService) Update(ctx context.Context, id string, in UpdateApartmentInput) (*models.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Number.apply(&apartment.Number)
	in.Tower.apply(&apartment.Tower)
	in.Floor.apply(&apartment.Floor)
	in.Type.apply(&apartment.Type)
	in.OwnerID.applyPtr(&apartment.OwnerID)
	if !in.Status.apply(&apartment.Status) || !apartment.Status.Valid() {
		return nil, invalid("invalid apartment status %q", apartment.Status)
	}
	apartment.Number = strings.TrimSpace(apartment.Number)
	apartment.Tower = strings.TrimSpace(apartment.Tower)

	if err := validateApartment(apartment); err != nil {
		return nil, err
	}
	if in.OwnerID.Set {
		if err := s.checkUser(ctx, apartment.OwnerID); err != nil {
			return nil, err
		}
	}

	if err := s.apartments.Update(ctx, apartment); err != nil {
		return nil, storeErr(err, "apartment", id)
	}
	return apartment, nil
}

// Assign sets the apartment's occupant and derives its status from the role.
// Assigning an owner also records them as the apartment's owner. The previous
// assignment is overwritten without a trace.
func (s *ApartmentService) Assign(ctx context.Context, id string, in AssignInput) (*models.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.UserID != nil && *in.UserID == "" {
		in.UserID = nil
	}
	if in.UserID == nil {
		in.Role = nil
	} else {
		if in.Role == nil || !in.Role.Valid() {
			return nil, invalid("a valid role is required to assign an apartment")
		}
		if err := s.checkUser(ctx, in.UserID); err != nil {
			return nil, err
		}
	}

	apartment.AssignedUserID = in.UserID
	apartment.AssignedRole = in.Role
	apartment.Status = models.StatusForAssignment(in.Role)
	if in.Role != nil && *in.Role == models.AssignedOwner {
		owner := *in.UserID
		apartment.OwnerID = &owner
	}

	if err := s.apartments.Update(ctx, apartment); err != nil {
		return nil, storeErr(err, "apartment", id)
	}

	if in.UserID != nil {
		s.notifier.Emit(ctx, notify.To(*in.UserID, models.NotificationGeneral,
			fmt.Sprintf("You have been assigned to apartment %s-%s as %s",
				apartment.Tower, apartment.Number, strings.ReplaceAll(string(*in.Role), "_", " "))))
	}
	return apartment, nil
}

// Delete removes an apartment.
func (s *ApartmentService) Delete(ctx context.Context, id string) error {
	return storeErr(s.apartments.Delete(ctx, id), "apartment", id)
}

// List returns the apartments visible to p.
func (s *ApartmentService) List(ctx context.Context, p scope.Principal) ([]models.Apartment, error) {
	f := listFilter(ctx, s.resolver, p, scope.ResourceApartment)
	if f.Denies() {
		return []models.Apartment{}, nil
	}
	return s.apartments.ListScoped(ctx, f)
}

// Get returns an apartment visible to p.
func (s *ApartmentService) Get(ctx context.Context, p scope.Principal, id string) (*models.Apartment, error) {
	apartment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := s.resolver.Resolve(ctx, p, scope.ResourceApartment)
	if err != nil {
		return nil, err
	}
	if !f.Match(apartmentColumns(apartment)) {
		return nil, notFound("apartment", id)
	}
	return apartment, nil
}

func (s *ApartmentService) load(ctx context.Context, id string) (*models.Apartment, error) {
	apartment, err := s.apartments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, notFound("apartment", id)
	}
	return apartment, nil
}

func (s *ApartmentService) checkUser(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if user == nil {
		return invalid("user %s does not exist", *id)
	}
	return nil
}

func validateApartment(a *models.Apartment) error {
	switch {
	case a.Number == "":
		return invalid("apartment number is required")
	case a.Tower == "":
		return invalid("tower is required")
	}
	return nil
}
