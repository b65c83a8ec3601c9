package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

const paymentColumns = `id, user_id, apartment_id, amount, concept, due_date, paid_date, status, created_at, updated_at`

const paymentDetailSelect = `
	SELECT p.id, p.user_id, p.apartment_id, p.amount, p.concept, p.due_date, p.paid_date,
	       p.status, p.created_at, p.updated_at,
	       COALESCE(u.name, ''), COALESCE(u.email, ''), a.number, a.tower
	FROM payments p
	LEFT JOIN users u ON u.id = p.user_id
	LEFT JOIN apartments a ON a.id = p.apartment_id
`

// PaymentRepository provides data access for payments.
type PaymentRepository struct {
	BaseRepository
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new payment. The status must already be derived.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	p.ID = GenerateID()
	p.CreatedAt = r.Now()
	p.UpdatedAt = p.CreatedAt
	p.DueDate = p.DueDate.UTC()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.UserID, p.ApartmentID, p.Amount, p.Concept, p.DueDate,
		utc(p.PaidDate), p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID. Returns nil if not found.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment: %w", err)
	}
	return p, nil
}

// GetDetailed retrieves a payment joined with its payer and apartment. Returns nil if not found.
func (r *PaymentRepository) GetDetailed(ctx context.Context, id string) (*models.PaymentDetail, error) {
	row := r.DB().QueryRowContext(ctx, paymentDetailSelect+` WHERE p.id = ?`, id)
	d, err := scanPaymentDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment detail: %w", err)
	}
	return d, nil
}

// ListScoped retrieves the detailed payments matched by f, latest due date first.
func (r *PaymentRepository) ListScoped(ctx context.Context, f scope.Filter) ([]models.PaymentDetail, error) {
	if f.Denies() {
		return []models.PaymentDetail{}, nil
	}

	where, args := f.QualifiedSQL("p")
	rows, err := r.DB().QueryContext(ctx, paymentDetailSelect+`
		WHERE `+where+`
		ORDER BY p.due_date DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	payments := []models.PaymentDetail{}
	for rows.Next() {
		d, err := scanPaymentDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, *d)
	}
	return payments, rows.Err()
}

// ListPendingDueBefore retrieves unpaid payments due on or before t.
func (r *PaymentRepository) ListPendingDueBefore(ctx context.Context, t time.Time) ([]models.Payment, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = ? AND due_date <= ?
		ORDER BY due_date
	`, models.PaymentPending, t.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying pending payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// Update saves all mutable fields of a payment.
func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	p.UpdatedAt = r.Now()
	p.DueDate = p.DueDate.UTC()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE payments SET
			user_id = ?, apartment_id = ?, amount = ?, concept = ?, due_date = ?,
			paid_date = ?, status = ?, updated_at = ?
		WHERE id = ?
	`,
		p.UserID, p.ApartmentID, p.Amount, p.Concept, p.DueDate,
		utc(p.PaidDate), p.Status, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}

	return expectAffected(result, "payment", p.ID)
}

// Delete removes a payment by ID.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return expectAffected(result, "payment", id)
}

func scanPayment(s rowScanner) (*models.Payment, error) {
	var p models.Payment
	if err := s.Scan(
		&p.ID, &p.UserID, &p.ApartmentID, &p.Amount, &p.Concept, &p.DueDate,
		&p.PaidDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPaymentDetail(s rowScanner) (*models.PaymentDetail, error) {
	var d models.PaymentDetail
	if err := s.Scan(
		&d.ID, &d.UserID, &d.ApartmentID, &d.Amount, &d.Concept, &d.DueDate,
		&d.PaidDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.UserName, &d.UserEmail, &d.ApartmentNumber, &d.ApartmentTower,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
