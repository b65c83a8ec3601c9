package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/condo-admin/backend/internal/storage/models"
)

const maintenanceColumns = `id, title, description, area, status, priority, scheduled_date, completed_date, created_at, updated_at`

// MaintenanceRepository provides data access for maintenance jobs.
type MaintenanceRepository struct {
	BaseRepository
}

// NewMaintenanceRepository creates a new maintenance repository.
func NewMaintenanceRepository(db *DB) *MaintenanceRepository {
	return &MaintenanceRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new maintenance job.
func (r *MaintenanceRepository) Create(ctx context.Context, m *models.Maintenance) error {
	m.ID = GenerateID()
	m.CreatedAt = r.Now()
	m.UpdatedAt = m.CreatedAt

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO maintenance (`+maintenanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.Title, m.Description, m.Area, m.Status, m.Priority,
		utc(m.ScheduledDate), utc(m.CompletedDate), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting maintenance: %w", err)
	}

	return nil
}

// GetByID retrieves a maintenance job by ID. Returns nil if not found.
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*models.Maintenance, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance WHERE id = ?`, id)
	m, err := scanMaintenance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying maintenance: %w", err)
	}
	return m, nil
}

// List retrieves all maintenance jobs, most recently created first.
func (r *MaintenanceRepository) List(ctx context.Context) ([]models.Maintenance, error) {
	rows, err := r.DB().QueryContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying maintenance: %w", err)
	}
	defer rows.Close()

	jobs := []models.Maintenance{}
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance: %w", err)
		}
		jobs = append(jobs, *m)
	}
	return jobs, rows.Err()
}

// Update saves all mutable fields of a maintenance job.
func (r *MaintenanceRepository) Update(ctx context.Context, m *models.Maintenance) error {
	m.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE maintenance SET
			title = ?, description = ?, area = ?, status = ?, priority = ?,
			scheduled_date = ?, completed_date = ?, updated_at = ?
		WHERE id = ?
	`,
		m.Title, m.Description, m.Area, m.Status, m.Priority,
		utc(m.ScheduledDate), utc(m.CompletedDate), m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating maintenance: %w", err)
	}

	return expectAffected(result, "maintenance", m.ID)
}

// Delete removes a maintenance job by ID.
func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM maintenance WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting maintenance: %w", err)
	}

	return expectAffected(result, "maintenance", id)
}

func scanMaintenance(s rowScanner) (*models.Maintenance, error) {
	var m models.Maintenance
	if err := s.Scan(
		&m.ID, &m.Title, &m.Description, &m.Area, &m.Status, &m.Priority,
		&m.ScheduledDate, &m.CompletedDate, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
