package service

import (
	"context"
	"strings"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// ReadPublisher is told when a user's notifications have been read.
type ReadPublisher interface {
	NotificationsRead(userID string, ids []string)
}

// NotificationService manages notifications created directly by administrators
// and read by their recipients.
type NotificationService struct {
	notifications NotificationStore
	users         UserStore
	notifier      Notifier
	publisher     ReadPublisher
}

// NewNotificationService creates a notification service. publisher may be nil.
func NewNotificationService(notifications NotificationStore, users UserStore, notifier Notifier, publisher ReadPublisher) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		notifier:      notifier,
		publisher:     publisher,
	}
}

// CreateNotificationInput addresses a notification to one user, or to
// everyone when UserID is empty.
type CreateNotificationInput struct {
	UserID  *string                 `json:"user_id"`
	Message string                  `json:"message"`
	Type    models.NotificationType `json:"type"`
}

// UpdateNotificationInput is a partial notification update.
type UpdateNotificationInput struct {
	Message Optional[string]                  `json:"message"`
	Type    Optional[models.NotificationType] `json:"type"`
	Read    Optional[bool]                    `json:"read"`
}

// Create stores a notification. Unlike emitted notifications, a failure here
// is returned since the notification is the whole point of the call.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		return nil, invalid("message is required")
	}
	if in.Type != "" && !in.Type.Valid() {
		return nil, invalid("invalid notification type %q", in.Type)
	}
	if in.UserID != nil && *in.UserID == "" {
		in.UserID = nil
	}
	if in.UserID != nil {
		user, err := s.users.GetByID(ctx, *in.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, invalid("user %s does not exist", *in.UserID)
		}
	}

	return s.notifier.Notify(ctx, notify.Notice{UserID: in.UserID, Message: in.Message, Type: in.Type})
}

// Update edits a notification.
func (s *NotificationService) Update(ctx context.Context, id string, in UpdateNotificationInput) (*models.Notification, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.Message.apply(&n.Message) || strings.TrimSpace(n.Message) == "" {
		return nil, invalid("message is required")
	}
	if !in.Type.apply(&n.Type) || n.Type == "" {
		n.Type = models.NotificationGeneral
	}
	if !n.Type.Valid() {
		return nil, invalid("invalid notification type %q", n.Type)
	}
	if !in.Read.apply(&n.Read) {
		n.Read = false
	}

	if err := s.notifications.Update(ctx, n); err != nil {
		return nil, storeErr(err, "notification", id)
	}
	return n, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return storeErr(s.notifications.Delete(ctx, id), "notification", id)
}

// List returns every notification.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return s.notifications.List(ctx)
}

// ListMine returns the notifications addressed to p, broadcasts included.
func (s *NotificationService) ListMine(ctx context.Context, p scope.Principal) ([]models.Notification, error) {
	if p.ID == "" {
		return []models.Notification{}, nil
	}
	return s.notifications.ListForUser(ctx, p.ID)
}

// MarkRead marks a notification as read. Only its recipient may do this;
// broadcasts share a single read flag and any user may mark them.
func (s *NotificationService) MarkRead(ctx context.Context, p scope.Principal, id string) (*models.Notification, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.IsBroadcast() && *n.UserID != p.ID {
		return nil, forbidden("notification %s is addressed to another user", id)
	}
	if n.Read {
		return n, nil
	}

	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return nil, storeErr(err, "notification", id)
	}
	n.Read = true

	if s.publisher != nil {
		s.publisher.NotificationsRead(p.ID, []string{id})
	}
	return n, nil
}

// MarkAllRead marks every notification addressed to p as read and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, p scope.Principal) (int, error) {
	if p.ID == "" {
		return 0, nil
	}
	count, err := s.notifications.MarkAllRead(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.publisher != nil {
		s.publisher.NotificationsRead(p.ID, nil)
	}
	return count, nil
}

func (s *NotificationService) load(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notFound("notification", id)
	}
	return n, nil
}
