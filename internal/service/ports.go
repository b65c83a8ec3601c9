// Package service implements the administration operations: every write
// goes through here, performs its primary mutation, and then emits
// best-effort notifications.
package service

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// UserStore is the user table.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByCedula(ctx context.Context, cedula string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListRecipients(ctx context.Context, statuses []models.UserStatus, roles []models.Role) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// ApartmentStore is the apartment table.
type ApartmentStore interface {
	Create(ctx context.Context, a *models.Apartment) error
	GetByID(ctx context.Context, id string) (*models.Apartment, error)
	ListScoped(ctx context.Context, f scope.Filter) ([]models.Apartment, error)
	Update(ctx context.Context, a *models.Apartment) error
	Delete(ctx context.Context, id string) error
}

// GuestStore is the short-term guest table.
type GuestStore interface {
	Create(ctx context.Context, g *models.AirbnbGuest) error
	GetByID(ctx context.Context, id string) (*models.AirbnbGuest, error)
	ListScoped(ctx context.Context, f scope.Filter) ([]models.AirbnbGuest, error)
	ListActive(ctx context.Context, now time.Time) ([]models.AirbnbGuest, error)
	UpdateStatus(ctx context.Context, g *models.AirbnbGuest) error
	Delete(ctx context.Context, id string) error
}

// MaintenanceStore is the maintenance table.
type MaintenanceStore interface {
	Create(ctx context.Context, m *models.Maintenance) error
	GetByID(ctx context.Context, id string) (*models.Maintenance, error)
	List(ctx context.Context) ([]models.Maintenance, error)
	Update(ctx context.Context, m *models.Maintenance) error
	Delete(ctx context.Context, id string) error
}

// DamageReportStore is the damage report table.
type DamageReportStore interface {
	Create(ctx context.Context, d *models.DamageReport) error
	GetByID(ctx context.Context, id string) (*models.DamageReport, error)
	ListPage(ctx context.Context, limit, offset int) ([]models.DamageReport, int, error)
	ListScoped(ctx context.Context, f scope.Filter) ([]models.DamageReport, error)
	Update(ctx context.Context, d *models.DamageReport) error
	Delete(ctx context.Context, id string) error
}

// PaymentStore is the payment table.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetDetailed(ctx context.Context, id string) (*models.PaymentDetail, error)
	ListScoped(ctx context.Context, f scope.Filter) ([]models.PaymentDetail, error)
	Update(ctx context.Context, p *models.Payment) error
	Delete(ctx context.Context, id string) error
}

// NotificationStore is the notification table.
type NotificationStore interface {
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context) ([]models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	Update(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// ScopeResolver produces row filters for a principal.
type ScopeResolver interface {
	Resolve(ctx context.Context, p scope.Principal, resource scope.Resource) (scope.Filter, error)
}

// Notifier emits notifications after a write has been committed.
type Notifier interface {
	Notify(ctx context.Context, notice notify.Notice) (*models.Notification, error)
	Emit(ctx context.Context, notice notify.Notice)
	FanOut(ctx context.Context, userIDs []string, typ models.NotificationType, message string) notify.FanOutResult
}

// ImageStore holds damage report images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// dateLayout is how dates appear in notification messages.
const dateLayout = "Jan 2, 2006"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func userIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// listFilter resolves p's filter for a listing. A resolver failure is logged
// and treated as no access, so the caller shows an empty list.
func listFilter(ctx context.Context, r ScopeResolver, p scope.Principal, resource scope.Resource) scope.Filter {
	f, err := r.Resolve(ctx, p, resource)
	if err != nil {
		log.Printf("Failed to resolve %s scope for user %s: %v", resource, p.ID, err)
		return scope.None()
	}
	return f
}

func logFanOutSkipped(typ models.NotificationType, err error) {
	log.Printf("Skipping %s notifications, failed to load recipients: %v", typ, err)
}
