package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/storage/models"
)

// Residents who hear about new maintenance jobs.
var (
	maintenanceStatuses = []models.UserStatus{models.UserStatusActive, models.UserStatusApproved}
	maintenanceRoles    = []models.Role{models.RoleOwner, models.RoleTenant, models.RoleResident}
)

// MaintenanceService manages common-area maintenance jobs.
type MaintenanceService struct {
	jobs     MaintenanceStore
	users    UserStore
	notifier Notifier

	Now func() time.Time
}

// NewMaintenanceService creates a maintenance service.
func NewMaintenanceService(jobs MaintenanceStore, users UserStore, notifier Notifier) *MaintenanceService {
	return &MaintenanceService{jobs: jobs, users: users, notifier: notifier, Now: time.Now}
}

// CreateMaintenanceInput holds the fields of a new maintenance job.
type CreateMaintenanceInput struct {
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	Area          string          `json:"area"`
	Priority      models.Priority `json:"priority"`
	ScheduledDate *models.Date    `json:"scheduled_date"`
}

// UpdateMaintenanceInput is a partial maintenance update.
type UpdateMaintenanceInput struct {
	Title         Optional[string]                   `json:"title"`
	Description   Optional[string]                   `json:"description"`
	Area          Optional[string]                   `json:"area"`
	Status        Optional[models.MaintenanceStatus] `json:"status"`
	Priority      Optional[models.Priority]          `json:"priority"`
	ScheduledDate Optional[models.Date]              `json:"scheduled_date"`
}

// MaintenanceCreated is the result of Create, including how the announcement went.
type MaintenanceCreated struct {
	*models.Maintenance
	Notified notify.FanOutResult `json:"notified"`
}

// Create stores a pending job and announces it to every active resident.
func (s *MaintenanceService) Create(ctx context.Context, in CreateMaintenanceInput) (*MaintenanceCreated, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Area = strings.TrimSpace(in.Area)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	if in.Area == "" {
		return nil, invalid("area is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.ValidForMaintenance() {
		return nil, invalid("invalid maintenance priority %q", in.Priority)
	}

	job := &models.Maintenance{
		Title:         in.Title,
		Description:   in.Description,
		Area:          in.Area,
		Status:        models.MaintenancePending,
		Priority:      in.Priority,
		ScheduledDate: in.ScheduledDate.TimePtr(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	return &MaintenanceCreated{Maintenance: job, Notified: s.announce(ctx, job)}, nil
}

func (s *MaintenanceService) announce(ctx context.Context, job *models.Maintenance) notify.FanOutResult {
	recipients, err := s.users.ListRecipients(ctx, maintenanceStatuses, maintenanceRoles)
	if err != nil {
		logFanOutSkipped(models.NotificationMaintenance, err)
		return notify.FanOutResult{}
	}

	message := fmt.Sprintf("New maintenance in %s: %s", job.Area, job.Title)
	if job.ScheduledDate != nil {
		message += fmt.Sprintf(" (scheduled for %s)", formatDate(*job.ScheduledDate))
	}
	return s.notifier.FanOut(ctx, userIDs(recipients), models.NotificationMaintenance, message)
}

// Update applies a partial update. Status only moves forward, and completing a
// job stamps its completion date.
func (s *MaintenanceService) Update(ctx context.Context, id string, in UpdateMaintenanceInput) (*models.Maintenance, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, notFound("maintenance", id)
	}

	if !in.Title.apply(&job.Title) || strings.TrimSpace(job.Title) == "" {
		return nil, invalid("title is required")
	}
	if !in.Area.apply(&job.Area) || strings.TrimSpace(job.Area) == "" {
		return nil, invalid("area is required")
	}
	in.Description.applyPtr(&job.Description)
	dateOption(in.ScheduledDate).applyPtr(&job.ScheduledDate)
	if !in.Priority.apply(&job.Priority) || !job.Priority.ValidForMaintenance() {
		return nil, invalid("invalid maintenance priority %q", job.Priority)
	}

	if in.Status.Set {
		if in.Status.Value == nil {
			return nil, invalid("status cannot be cleared")
		}
		to := *in.Status.Value
		if to != job.Status {
			if err := advance(models.MaintenanceTransitions, "maintenance", job.Status, to); err != nil {
				return nil, err
			}
			job.Status = to
			if to == models.MaintenanceCompleted {
				now := s.Now().UTC()
				job.CompletedDate = &now
			}
		}
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, storeErr(err, "maintenance", id)
	}
	return job, nil
}

// List returns every maintenance job.
func (s *MaintenanceService) List(ctx context.Context) ([]models.Maintenance, error) {
	return s.jobs.List(ctx)
}

// Get returns a maintenance job.
func (s *MaintenanceService) Get(ctx context.Context, id string) (*models.Maintenance, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, notFound("maintenance", id)
	}
	return job, nil
}

// Delete removes a maintenance job.
func (s *MaintenanceService) Delete(ctx context.Context, id string) error {
	return storeErr(s.jobs.Delete(ctx, id), "maintenance", id)
}
