// Package notify creates notifications as a side effect of completed writes.
//
// Delivery is best effort: Emit and FanOut log failures and never report them
// to the caller, so a committed write is never undone or failed because a
// notification could not be stored.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/condo-admin/backend/internal/storage/models"
)

// DefaultTimeout bounds a single notification write.
const DefaultTimeout = 10 * time.Second

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Publisher pushes stored notifications to connected clients.
type Publisher interface {
	NotificationCreated(n *models.Notification)
}

// Notice describes a notification to emit. A nil UserID is a broadcast.
type Notice struct {
	UserID  *string
	Message string
	Type    models.NotificationType
}

// To builds a notice addressed to a single user.
func To(userID string, typ models.NotificationType, message string) Notice {
	return Notice{UserID: &userID, Message: message, Type: typ}
}

// FanOutResult counts the outcome of a bulk emission.
type FanOutResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Notifier writes notifications and publishes them once stored.
type Notifier struct {
	store     Store
	publisher Publisher
	metrics   *Metrics
	timeout   time.Duration
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithPublisher pushes each stored notification through p.
func WithPublisher(p Publisher) Option {
	return func(n *Notifier) { n.publisher = p }
}

// WithMetrics records notification outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// New creates a notifier writing to store.
func New(store Store, opts ...Option) *Notifier {
	n := &Notifier{store: store, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify stores a notification and publishes it. Unlike Emit, it returns the
// error, for callers whose primary action is creating the notification.
func (n *Notifier) Notify(ctx context.Context, notice Notice) (*models.Notification, error) {
	if notice.Message == "" {
		return nil, errors.New("notification message is empty")
	}
	if notice.Type == "" {
		notice.Type = models.NotificationGeneral
	}

	row := &models.Notification{
		UserID:  notice.UserID,
		Message: notice.Message,
		Type:    notice.Type,
	}
	if err := n.store.Create(ctx, row); err != nil {
		n.metrics.observe(notice.Type, resultFailed)
		return nil, fmt.Errorf("storing notification: %w", err)
	}
	n.metrics.observe(notice.Type, resultSent)

	if n.publisher != nil {
		n.publisher.NotificationCreated(row)
	}
	return row, nil
}

// Emit stores a notification without affecting the caller: the write is
// detached from the caller's cancellation, and failures are only logged.
func (n *Notifier) Emit(ctx context.Context, notice Notice) {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	if err := n.safeNotify(ctx, notice); err != nil {
		log.Printf("Failed to send %s notification to %s: %v", notice.Type, recipient(notice), err)
	}
}

// FanOut emits one notification per user concurrently and waits for all of
// them. Each failure is logged on its own and never stops the others.
func (n *Notifier) FanOut(ctx context.Context, userIDs []string, typ models.NotificationType, message string) FanOutResult {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var sent, failed atomic.Int64
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if err := n.safeNotify(ctx, To(userID, typ, message)); err != nil {
				log.Printf("Failed to send %s notification to user %s: %v", typ, userID, err)
				failed.Add(1)
				return
			}
			sent.Add(1)
		}(id)
	}
	wg.Wait()

	result := FanOutResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	if result.Failed > 0 {
		log.Printf("Notification fan-out %s: %d sent, %d failed", typ, result.Sent, result.Failed)
	}
	return result
}

// safeNotify converts a panic in the store or publisher into an error.
func (n *Notifier) safeNotify(ctx context.Context, notice Notice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			n.metrics.observe(notice.Type, resultFailed)
			err = fmt.Errorf("panic while notifying: %v", r)
		}
	}()
	_, err = n.Notify(ctx, notice)
	return err
}

func (n *Notifier) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
}

func recipient(notice Notice) string {
	if notice.UserID == nil {
		return "everyone"
	}
	return "user " + *notice.UserID
}
