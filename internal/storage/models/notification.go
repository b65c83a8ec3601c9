package models

import "time"

// Notification is a message addressed to a user, or to everyone when UserID is nil.
type Notification struct {
	ID        string           `json:"id"`
	UserID    *string          `json:"user_id,omitempty"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsBroadcast returns true if the notification has no single recipient.
func (n *Notification) IsBroadcast() bool {
	return n.UserID == nil
}

// NotificationType classifies notifications for filtering and display.
type NotificationType string

// Notification type constants
const (
	NotificationGeneral            NotificationType = "general"
	NotificationMaintenance        NotificationType = "maintenance"
	NotificationPayment            NotificationType = "payment"
	NotificationPaymentPending     NotificationType = "payment_pending"
	NotificationPaymentOverdue     NotificationType = "payment_overdue"
	NotificationPaymentReminder    NotificationType = "payment_reminder"
	NotificationAirbnbRegistration NotificationType = "airbnb_registration"
	NotificationAirbnbCheckin      NotificationType = "airbnb_checkin"
	NotificationAirbnbOverstay     NotificationType = "airbnb_overstay"
	NotificationDamageReport       NotificationType = "damage_report"
)

// Valid returns true for known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationGeneral, NotificationMaintenance, NotificationPayment,
		NotificationPaymentPending, NotificationPaymentOverdue, NotificationPaymentReminder,
		NotificationAirbnbRegistration, NotificationAirbnbCheckin, NotificationAirbnbOverstay,
		NotificationDamageReport:
		return true
	}
	return false
}
