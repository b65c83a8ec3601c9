package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

const damageReportColumns = `id, apartment_id, reported_by, title, description, priority, status, images, created_at, updated_at`

// DamageReportRepository provides data access for damage reports.
// Images are kept as a JSON array in a single column to preserve their order.
type DamageReportRepository struct {
	BaseRepository
}

// NewDamageReportRepository creates a new damage report repository.
func NewDamageReportRepository(db *DB) *DamageReportRepository {
	return &DamageReportRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new damage report.
func (r *DamageReportRepository) Create(ctx context.Context, d *models.DamageReport) error {
	d.ID = GenerateID()
	d.CreatedAt = r.Now()
	d.UpdatedAt = d.CreatedAt
	if d.Images == nil {
		d.Images = []string{}
	}

	images, err := json.Marshal(d.Images)
	if err != nil {
		return fmt.Errorf("encoding report images: %w", err)
	}

	_, err = r.DB().ExecContext(ctx, `
		INSERT INTO damage_reports (`+damageReportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.ApartmentID, d.ReportedBy, d.Title, d.Description, d.Priority,
		d.Status, string(images), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting damage report: %w", err)
	}

	return nil
}

// GetByID retrieves a damage report by ID. Returns nil if not found.
func (r *DamageReportRepository) GetByID(ctx context.Context, id string) (*models.DamageReport, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+damageReportColumns+` FROM damage_reports WHERE id = ?`, id)
	d, err := scanDamageReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying damage report: %w", err)
	}
	return d, nil
}

// ListPage retrieves one page of reports, newest first, with the total count.
func (r *DamageReportRepository) ListPage(ctx context.Context, limit, offset int) ([]models.DamageReport, int, error) {
	var total int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM damage_reports").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting damage reports: %w", err)
	}

	reports, err := r.query(ctx, `
		SELECT `+damageReportColumns+` FROM damage_reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// ListScoped retrieves the reports matched by f, newest first.
func (r *DamageReportRepository) ListScoped(ctx context.Context, f scope.Filter) ([]models.DamageReport, error) {
	if f.Denies() {
		return []models.DamageReport{}, nil
	}

	where, args := f.SQL()
	return r.query(ctx, `
		SELECT `+damageReportColumns+` FROM damage_reports
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
}

func (r *DamageReportRepository) query(ctx context.Context, query string, args ...any) ([]models.DamageReport, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying damage reports: %w", err)
	}
	defer rows.Close()

	reports := []models.DamageReport{}
	for rows.Next() {
		d, err := scanDamageReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning damage report: %w", err)
		}
		reports = append(reports, *d)
	}
	return reports, rows.Err()
}

// Update saves all mutable fields of a damage report.
func (r *DamageReportRepository) Update(ctx context.Context, d *models.DamageReport) error {
	d.UpdatedAt = r.Now()
	if d.Images == nil {
		d.Images = []string{}
	}

	images, err := json.Marshal(d.Images)
	if err != nil {
		return fmt.Errorf("encoding report images: %w", err)
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE damage_reports SET
			apartment_id = ?, title = ?, description = ?, priority = ?, status = ?,
			images = ?, updated_at = ?
		WHERE id = ?
	`,
		d.ApartmentID, d.Title, d.Description, d.Priority, d.Status,
		string(images), d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating damage report: %w", err)
	}

	return expectAffected(result, "damage report", d.ID)
}

// Delete removes a damage report by ID.
func (r *DamageReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM damage_reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting damage report: %w", err)
	}

	return expectAffected(result, "damage report", id)
}

func scanDamageReport(s rowScanner) (*models.DamageReport, error) {
	var d models.DamageReport
	var images string
	if err := s.Scan(
		&d.ID, &d.ApartmentID, &d.ReportedBy, &d.Title, &d.Description, &d.Priority,
		&d.Status, &images, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &d.Images); err != nil {
		return nil, fmt.Errorf("decoding report images: %w", err)
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	return &d, nil
}
