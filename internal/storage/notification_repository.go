package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/condo-admin/backend/internal/storage/models"
)

const notificationColumns = `id, user_id, message, type, is_read, created_at`

// NotificationRepository provides data access for notifications.
type NotificationRepository struct {
	BaseRepository
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.ID = GenerateID()
	n.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Message, n.Type, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID. Returns nil if not found.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification: %w", err)
	}
	return n, nil
}

// List retrieves every notification, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	return r.query(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC`)
}

// ListForUser retrieves the notifications addressed to userID plus broadcasts, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return r.query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? OR user_id IS NULL
		ORDER BY created_at DESC
	`, userID)
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...any) ([]models.Notification, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// Update saves the recipient, message, type and read flag.
func (r *NotificationRepository) Update(ctx context.Context, n *models.Notification) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE notifications SET user_id = ?, message = ?, type = ?, is_read = ? WHERE id = ?
	`, n.UserID, n.Message, n.Type, n.Read, n.ID)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}

	return expectAffected(result, "notification", n.ID)
}

// MarkRead flags a single notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	return expectAffected(result, "notification", id)
}

// MarkAllRead flags every notification addressed to userID as read and
// returns how many changed. Broadcasts are left alone.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}

// Delete removes a notification by ID.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}

	return expectAffected(result, "notification", id)
}

func scanNotification(s rowScanner) (*models.Notification, error) {
	var n models.Notification
	if err := s.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
