package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

const guestColumns = `id, apartment_id, guest_name, guest_cedula, number_of_guests, check_in_date,
	check_out_date, status, checked_in_at, checked_out_at, created_at, updated_at`

// GuestRepository provides data access for short-term guests.
type GuestRepository struct {
	BaseRepository
}

// NewGuestRepository creates a new guest repository.
func NewGuestRepository(db *DB) *GuestRepository {
	return &GuestRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new guest registration.
func (r *GuestRepository) Create(ctx context.Context, g *models.AirbnbGuest) error {
	g.ID = GenerateID()
	g.CreatedAt = r.Now()
	g.UpdatedAt = g.CreatedAt
	g.CheckInDate = g.CheckInDate.UTC()
	g.CheckOutDate = g.CheckOutDate.UTC()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO airbnb_guests (`+guestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID, g.ApartmentID, g.GuestName, g.GuestCedula, g.NumberOfGuests, g.CheckInDate,
		g.CheckOutDate, g.Status, utc(g.CheckedInAt), utc(g.CheckedOutAt), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting guest: %w", err)
	}

	return nil
}

// GetByID retrieves a guest by ID. Returns nil if not found.
func (r *GuestRepository) GetByID(ctx context.Context, id string) (*models.AirbnbGuest, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+guestColumns+` FROM airbnb_guests WHERE id = ?`, id)
	g, err := scanGuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying guest: %w", err)
	}
	return g, nil
}

// ListScoped retrieves the guests matched by f, latest check-in first.
func (r *GuestRepository) ListScoped(ctx context.Context, f scope.Filter) ([]models.AirbnbGuest, error) {
	if f.Denies() {
		return []models.AirbnbGuest{}, nil
	}

	where, args := f.SQL()
	return r.query(ctx, `
		SELECT `+guestColumns+` FROM airbnb_guests
		WHERE `+where+`
		ORDER BY check_in_date DESC
	`, args...)
}

// ListActive retrieves checked-in guests whose stay window contains now.
func (r *GuestRepository) ListActive(ctx context.Context, now time.Time) ([]models.AirbnbGuest, error) {
	now = now.UTC()
	return r.query(ctx, `
		SELECT `+guestColumns+` FROM airbnb_guests
		WHERE status = ? AND check_in_date <= ? AND check_out_date > ?
		ORDER BY check_out_date
	`, models.GuestCheckedIn, now, now)
}

// ListOverstaying retrieves checked-in guests whose check-out date has passed.
func (r *GuestRepository) ListOverstaying(ctx context.Context, now time.Time) ([]models.AirbnbGuest, error) {
	return r.query(ctx, `
		SELECT `+guestColumns+` FROM airbnb_guests
		WHERE status = ? AND check_out_date <= ?
		ORDER BY check_out_date
	`, models.GuestCheckedIn, now.UTC())
}

func (r *GuestRepository) query(ctx context.Context, query string, args ...any) ([]models.AirbnbGuest, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying guests: %w", err)
	}
	defer rows.Close()

	guests := []models.AirbnbGuest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning guest: %w", err)
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

// UpdateStatus saves the stay status and its check-in/check-out stamps.
func (r *GuestRepository) UpdateStatus(ctx context.Context, g *models.AirbnbGuest) error {
	g.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE airbnb_guests SET
			status = ?, checked_in_at = ?, checked_out_at = ?, updated_at = ?
		WHERE id = ?
	`, g.Status, utc(g.CheckedInAt), utc(g.CheckedOutAt), g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("updating guest status: %w", err)
	}

	return expectAffected(result, "guest", g.ID)
}

// Delete removes a guest by ID.
func (r *GuestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM airbnb_guests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting guest: %w", err)
	}

	return expectAffected(result, "guest", id)
}

func scanGuest(s rowScanner) (*models.AirbnbGuest, error) {
	var g models.AirbnbGuest
	if err := s.Scan(
		&g.ID, &g.ApartmentID, &g.GuestName, &g.GuestCedula, &g.NumberOfGuests, &g.CheckInDate,
		&g.CheckOutDate, &g.Status, &g.CheckedInAt, &g.CheckedOutAt, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}
