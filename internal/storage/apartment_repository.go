package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

const apartmentColumns = `id, number, tower, floor, owner_id, assigned_user_id, assigned_role, status, type, created_at, updated_at`

// ApartmentRepository provides data access for apartments.
type ApartmentRepository struct {
	BaseRepository
}

// NewApartmentRepository creates a new apartment repository.
func NewApartmentRepository(db *DB) *ApartmentRepository {
	return &ApartmentRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new apartment. A duplicate tower/number yields ErrDuplicate.
func (r *ApartmentRepository) Create(ctx context.Context, a *models.Apartment) error {
	a.ID = GenerateID()
	a.CreatedAt = r.Now()
	a.UpdatedAt = a.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO apartments (`+apartmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.Number, a.Tower, a.Floor, a.OwnerID, a.AssignedUserID, a.AssignedRole,
		a.Status, a.Type, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("inserting apartment: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting apartment: %w", err)
	}

	return nil
}

// GetByID retrieves an apartment by ID. Returns nil if not found.
func (r *ApartmentRepository) GetByID(ctx context.Context, id string) (*models.Apartment, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+apartmentColumns+` FROM apartments WHERE id = ?`, id)
	a, err := scanApartment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying apartment: %w", err)
	}
	return a, nil
}

// ListScoped retrieves the apartments matched by f.
func (r *ApartmentRepository) ListScoped(ctx context.Context, f scope.Filter) ([]models.Apartment, error) {
	if f.Denies() {
		return []models.Apartment{}, nil
	}

	where, args := f.SQL()
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+apartmentColumns+` FROM apartments
		WHERE `+where+`
		ORDER BY tower, number
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying apartments: %w", err)
	}
	defer rows.Close()

	apartments := []models.Apartment{}
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning apartment: %w", err)
		}
		apartments = append(apartments, *a)
	}
	return apartments, rows.Err()
}

// IDsAssignedTo returns the IDs of apartments currently assigned to userID in the given role.
func (r *ApartmentRepository) IDsAssignedTo(ctx context.Context, userID string, role models.AssignedRole) ([]string, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id FROM apartments WHERE assigned_user_id = ? AND assigned_role = ?
	`, userID, role)
	if err != nil {
		return nil, fmt.Errorf("querying assigned apartments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning apartment id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update saves all mutable apartment fields, including the assignment.
func (r *ApartmentRepository) Update(ctx context.Context, a *models.Apartment) error {
	a.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE apartments SET
			number = ?, tower = ?, floor = ?, owner_id = ?, assigned_user_id = ?,
			assigned_role = ?, status = ?, type = ?, updated_at = ?
		WHERE id = ?
	`,
		a.Number, a.Tower, a.Floor, a.OwnerID, a.AssignedUserID,
		a.AssignedRole, a.Status, a.Type, a.UpdatedAt, a.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("updating apartment: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating apartment: %w", err)
	}

	return expectAffected(result, "apartment", a.ID)
}

// Delete removes an apartment by ID.
func (r *ApartmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM apartments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting apartment: %w", err)
	}

	return expectAffected(result, "apartment", id)
}

func scanApartment(s rowScanner) (*models.Apartment, error) {
	var a models.Apartment
	if err := s.Scan(
		&a.ID, &a.Number, &a.Tower, &a.Floor, &a.OwnerID, &a.AssignedUserID,
		&a.AssignedRole, &a.Status, &a.Type, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
