package models

import "time"

// Payment is a charge owed by a user, optionally tied to an apartment.
type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ApartmentID *string       `json:"apartment_id,omitempty"`
	Amount      float64       `json:"amount"`
	Concept     *string       `json:"concept,omitempty"`
	DueDate     time.Time     `json:"due_date"`
	PaidDate    *time.Time    `json:"paid_date,omitempty"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PaymentDetail is a payment joined with its payer and apartment.
type PaymentDetail struct {
	Payment
	UserName        string  `json:"user_name"`
	UserEmail       string  `json:"user_email"`
	ApartmentNumber *string `json:"apartment_number,omitempty"`
	ApartmentTower  *string `json:"apartment_tower,omitempty"`
}

// PaymentStatus is derived from the due and paid dates.
type PaymentStatus string

// Payment status constants
const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// DerivePaymentStatus computes the status of a payment from its dates.
// Unpaid is pending; paid on or before the due date is paid; paid after it is overdue.
func DerivePaymentStatus(dueDate time.Time, paidDate *time.Time) PaymentStatus {
	if paidDate == nil {
		return PaymentPending
	}
	if paidDate.After(dueDate) {
		return PaymentOverdue
	}
	return PaymentPaid
}

// WithDisplayPaidDate returns a copy whose PaidDate falls back to UpdatedAt
// for paid rows missing a paid date. The stored row is not changed.
func (p Payment) WithDisplayPaidDate() Payment {
	if p.Status == PaymentPaid && p.PaidDate == nil {
		updated := p.UpdatedAt
		p.PaidDate = &updated
	}
	return p
}
