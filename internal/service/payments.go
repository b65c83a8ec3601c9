package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// PaymentService manages charges owed by residents.
type PaymentService struct {
	payments   PaymentStore
	users      UserStore
	apartments ApartmentStore
	resolver   ScopeResolver
	notifier   Notifier

	Now func() time.Time
}

// NewPaymentService creates a payment service.
func NewPaymentService(payments PaymentStore, users UserStore, apartments ApartmentStore, resolver ScopeResolver, notifier Notifier) *PaymentService {
	return &PaymentService{
		payments:   payments,
		users:      users,
		apartments: apartments,
		resolver:   resolver,
		notifier:   notifier,
		Now:        time.Now,
	}
}

// CreatePaymentInput holds the fields of a new payment. Status is always derived.
type CreatePaymentInput struct {
	UserID      string       `json:"user_id"`
	ApartmentID *string      `json:"apartment_id"`
	Amount      float64      `json:"amount"`
	Concept     *string      `json:"concept"`
	DueDate     models.Date  `json:"due_date"`
	PaidDate    *models.Date `json:"paid_date"`
}

// UpdatePaymentInput is a partial payment update.
type UpdatePaymentInput struct {
	UserID      Optional[string]      `json:"user_id"`
	ApartmentID Optional[string]      `json:"apartment_id"`
	Amount      Optional[float64]     `json:"amount"`
	Concept     Optional[string]      `json:"concept"`
	DueDate     Optional[models.Date] `json:"due_date"`
	PaidDate    Optional[models.Date] `json:"paid_date"`
}

// Create stores a payment and notifies the payer according to its status.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*models.PaymentDetail, error) {
	if in.UserID == "" {
		return nil, invalid("user is required")
	}
	if in.DueDate.IsZero() {
		return nil, invalid("due date is required")
	}
	if in.Amount < 0 {
		return nil, invalid("amount must not be negative")
	}
	if err := s.checkRefs(ctx, in.UserID, in.ApartmentID); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:      in.UserID,
		ApartmentID: in.ApartmentID,
		Amount:      in.Amount,
		Concept:     in.Concept,
		DueDate:     in.DueDate.Time,
		PaidDate:    in.PaidDate.TimePtr(),
		Status:      models.DerivePaymentStatus(in.DueDate.Time, in.PaidDate.TimePtr()),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, storeErr(err, "payment", payment.ID)
	}

	detail, err := s.payments.GetDetailed(ctx, payment.ID)
	if err != nil || detail == nil {
		log.Printf("Failed to reload payment %s after create: %v", payment.ID, err)
		detail = &models.PaymentDetail{Payment: *payment}
	}

	s.notifier.Emit(ctx, paymentNotice(detail))
	return detail, nil
}

func paymentNotice(d *models.PaymentDetail) notify.Notice {
	concept := "payment"
	if d.Concept != nil && *d.Concept != "" {
		concept = *d.Concept
	}
	amount := fmt.Sprintf("%.2f", d.Amount)

	switch d.Status {
	case models.PaymentPaid:
		return notify.To(d.UserID, models.NotificationPayment,
			fmt.Sprintf("Your %s of %s was received on %s", concept, amount, formatDate(*d.PaidDate)))
	case models.PaymentOverdue:
		return notify.To(d.UserID, models.NotificationPaymentOverdue,
			fmt.Sprintf("Your %s of %s was paid after its due date of %s", concept, amount, formatDate(d.DueDate)))
	default:
		return notify.To(d.UserID, models.NotificationPaymentPending,
			fmt.Sprintf("A new %s of %s is due on %s", concept, amount, formatDate(d.DueDate)))
	}
}

func (s *PaymentService) checkRefs(ctx context.Context, userID string, apartmentID *string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return invalid("user %s does not exist", userID)
	}
	if apartmentID != nil {
		apartment, err := s.apartments.GetByID(ctx, *apartmentID)
		if err != nil {
			return err
		}
		if apartment == nil {
			return invalid("apartment %s does not exist", *apartmentID)
		}
	}
	return nil
}

// Update applies a partial update. When either date is supplied the status is
// derived again from the supplied and stored dates combined.
func (s *PaymentService) Update(ctx context.Context, id string, in UpdatePaymentInput) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, notFound("payment", id)
	}

	if !in.UserID.apply(&payment.UserID) {
		return nil, invalid("user cannot be cleared")
	}
	in.ApartmentID.applyPtr(&payment.ApartmentID)
	if !in.Amount.apply(&payment.Amount) {
		return nil, invalid("amount cannot be cleared")
	}
	if payment.Amount < 0 {
		return nil, invalid("amount must not be negative")
	}
	in.Concept.applyPtr(&payment.Concept)
	if !dateOption(in.DueDate).apply(&payment.DueDate) {
		return nil, invalid("due date cannot be cleared")
	}
	dateOption(in.PaidDate).applyPtr(&payment.PaidDate)

	if in.UserID.Set || in.ApartmentID.Set {
		if err := s.checkRefs(ctx, payment.UserID, payment.ApartmentID); err != nil {
			return nil, err
		}
	}
	if in.DueDate.Set || in.PaidDate.Set {
		payment.Status = models.DerivePaymentStatus(payment.DueDate, payment.PaidDate)
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, storeErr(err, "payment", id)
	}
	return payment, nil
}

// MarkPaid sets a payment visible to p as paid now, whatever its due date.
func (s *PaymentService) MarkPaid(ctx context.Context, p scope.Principal, id string) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, notFound("payment", id)
	}

	f, err := s.resolver.Resolve(ctx, p, scope.ResourcePayment)
	if err != nil {
		return nil, err
	}
	if !f.Match(paymentColumns(payment)) {
		return nil, forbidden("payment %s does not belong to you", id)
	}

	now := s.Now().UTC()
	payment.Status = models.PaymentPaid
	payment.PaidDate = &now
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, storeErr(err, "payment", id)
	}
	return payment, nil
}

// List returns the payments visible to p. Paid rows without a paid date show
// their last update time instead.
func (s *PaymentService) List(ctx context.Context, p scope.Principal) ([]models.PaymentDetail, error) {
	f := listFilter(ctx, s.resolver, p, scope.ResourcePayment)
	if f.Denies() {
		return []models.PaymentDetail{}, nil
	}

	payments, err := s.payments.ListScoped(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		payments[i].Payment = payments[i].Payment.WithDisplayPaidDate()
	}
	return payments, nil
}

// Get returns a single payment with its payer and apartment.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.PaymentDetail, error) {
	detail, err := s.payments.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, notFound("payment", id)
	}
	detail.Payment = detail.Payment.WithDisplayPaidDate()
	return detail, nil
}

// Delete removes a payment.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	return storeErr(s.payments.Delete(ctx, id), "payment", id)
}
