package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/condo-admin/backend/internal/storage/models"
)

const userColumns = `id, name, email, cedula, phone, role, status, password_hash, created_at, updated_at`

// UserRepository provides data access for users.
type UserRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new user. Duplicate email or cedula yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.ID = GenerateID()
	u.Email = models.NormalizeEmail(u.Email)
	u.CreatedAt = r.Now()
	u.UpdatedAt = u.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Name, u.Email, u.Cedula, u.Phone, u.Role, u.Status,
		u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("inserting user: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID. Returns nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email, ignoring case. Returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", models.NormalizeEmail(email))
}

// GetByCedula retrieves a user by national ID. Returns nil if not found.
func (r *UserRepository) GetByCedula(ctx context.Context, cedula string) (*models.User, error) {
	return r.getOne(ctx, "cedula = ?", cedula)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// List retrieves all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListRecipients retrieves users whose status and role are both in the given sets.
func (r *UserRepository) ListRecipients(ctx context.Context, statuses []models.UserStatus, roles []models.Role) ([]models.User, error) {
	if len(statuses) == 0 || len(roles) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(statuses)+len(roles))
	for _, s := range statuses {
		args = append(args, s)
	}
	for _, role := range roles {
		args = append(args, role)
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE status IN (`+placeholders(len(statuses))+`)
		  AND role IN (`+placeholders(len(roles))+`)
		ORDER BY name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notification recipients: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Update saves profile, role and status changes. The password is not touched.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	u.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE users SET
			name = ?, email = ?, cedula = ?, phone = ?, role = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, u.Email, u.Cedula, u.Phone, u.Role, u.Status, u.UpdatedAt, u.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("updating user: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	return expectAffected(result, "user", u.ID)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, hash, r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return expectAffected(result, "user", id)
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return expectAffected(result, "user", id)
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.Cedula, &u.Phone, &u.Role, &u.Status,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
