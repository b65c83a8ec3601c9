// Package scheduler runs periodic reminder jobs.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/storage/models"
)

// Job timing
const (
	ReminderWindow   = 72 * time.Hour
	RepeatAfter      = 24 * time.Hour
	reminderSchedule = "@every 1h"
	overstaySchedule = "@every 15m"
)

// PaymentSource lists unpaid payments.
type PaymentSource interface {
	ListPendingDueBefore(ctx context.Context, t time.Time) ([]models.Payment, error)
}

// GuestSource lists guests still checked in past their check-out date.
type GuestSource interface {
	ListOverstaying(ctx context.Context, now time.Time) ([]models.AirbnbGuest, error)
}

// ApartmentSource loads apartments.
type ApartmentSource interface {
	GetByID(ctx context.Context, id string) (*models.Apartment, error)
}

// Emitter sends best-effort notifications.
type Emitter interface {
	Emit(ctx context.Context, notice notify.Notice)
}

// ReminderScheduler sends payment reminders and overstay alerts.
// Each payment or guest is reminded at most once per RepeatAfter.
type ReminderScheduler struct {
	cron       *cron.Cron
	payments   PaymentSource
	guests     GuestSource
	apartments ApartmentSource
	notifier   Emitter

	mu   sync.Mutex
	sent map[string]time.Time

	Now func() time.Time
}

// NewReminderScheduler creates a scheduler. Overlapping runs of the same job are skipped.
func NewReminderScheduler(payments PaymentSource, guests GuestSource, apartments ApartmentSource, notifier Emitter) *ReminderScheduler {
	logger := cron.PrintfLogger(log.Default())
	return &ReminderScheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		payments:   payments,
		guests:     guests,
		apartments: apartments,
		notifier:   notifier,
		sent:       make(map[string]time.Time),
		Now:        time.Now,
	}
}

// Start schedules the jobs and starts the cron runner.
func (s *ReminderScheduler) Start() error {
	log.Println("Starting reminder scheduler...")

	if _, err := s.cron.AddFunc(reminderSchedule, func() {
		s.SendPaymentReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("scheduling payment reminders: %w", err)
	}
	if _, err := s.cron.AddFunc(overstaySchedule, func() {
		s.CheckOverstays(context.Background())
	}); err != nil {
		return fmt.Errorf("scheduling overstay check: %w", err)
	}

	s.cron.Start()
	log.Println("Reminder scheduler started")
	return nil
}

// Stop waits for running jobs and shuts down the scheduler.
func (s *ReminderScheduler) Stop() {
	log.Println("Stopping reminder scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Reminder scheduler stopped")
}

// SendPaymentReminders reminds payers of pending payments due within
// ReminderWindow or already past due. It returns how many reminders were sent.
func (s *ReminderScheduler) SendPaymentReminders(ctx context.Context) int {
	now := s.Now()
	payments, err := s.payments.ListPendingDueBefore(ctx, now.Add(ReminderWindow))
	if err != nil {
		log.Printf("Failed to list pending payments: %v", err)
		return 0
	}

	count := 0
	for _, p := range payments {
		if !s.due("payment:"+p.ID, now) {
			continue
		}

		var message string
		if p.DueDate.Before(now) {
			message = fmt.Sprintf("Your payment of %.2f was due on %s and is still pending", p.Amount, p.DueDate.Format("Jan 2, 2006"))
		} else {
			message = fmt.Sprintf("Reminder: your payment of %.2f is due on %s", p.Amount, p.DueDate.Format("Jan 2, 2006"))
		}
		s.notifier.Emit(ctx, notify.To(p.UserID, models.NotificationPaymentReminder, message))
		count++
	}

	if count > 0 {
		log.Printf("Sent %d payment reminders", count)
	}
	return count
}

// CheckOverstays alerts the assigned user of each apartment whose guest is
// still checked in after the check-out date. It returns how many alerts were sent.
func (s *ReminderScheduler) CheckOverstays(ctx context.Context) int {
	now := s.Now()
	guests, err := s.guests.ListOverstaying(ctx, now)
	if err != nil {
		log.Printf("Failed to list overstaying guests: %v", err)
		return 0
	}

	count := 0
	for _, g := range guests {
		if g.ApartmentID == nil {
			continue
		}
		apartment, err := s.apartments.GetByID(ctx, *g.ApartmentID)
		if err != nil {
			log.Printf("Failed to load apartment %s for guest %s: %v", *g.ApartmentID, g.ID, err)
			continue
		}
		if apartment == nil || apartment.AssignedUserID == nil {
			continue
		}
		if !s.due("guest:"+g.ID, now) {
			continue
		}

		s.notifier.Emit(ctx, notify.To(*apartment.AssignedUserID, models.NotificationAirbnbOverstay,
			fmt.Sprintf("Guest %s in apartment %s-%s was due to check out on %s",
				g.GuestName, apartment.Tower, apartment.Number, g.CheckOutDate.Format("Jan 2, 2006"))))
		count++
	}

	if count > 0 {
		log.Printf("Sent %d overstay alerts", count)
	}
	return count
}

// due records a reminder for key and reports whether one was allowed now.
func (s *ReminderScheduler) due(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.sent[key]; ok && now.Sub(last) < RepeatAfter {
		return false
	}
	s.sent[key] = now

	for k, t := range s.sent {
		if now.Sub(t) >= 2*RepeatAfter {
			delete(s.sent, k)
		}
	}
	return true
}
