package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// Paging defaults for the admin report listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// imagePrefix is the media key namespace for report images.
const imagePrefix = "damage-reports/"

// Page is one page of a listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DamageReportService manages damage reports raised by residents.
type DamageReportService struct {
	reports    DamageReportStore
	apartments ApartmentStore
	users      UserStore
	images     ImageStore
	notifier   Notifier
}

// NewDamageReportService creates a damage report service. images may be nil,
// in which case attaching images is rejected.
func NewDamageReportService(reports DamageReportStore, apartments ApartmentStore, users UserStore, images ImageStore, notifier Notifier) *DamageReportService {
	return &DamageReportService{
		reports:    reports,
		apartments: apartments,
		users:      users,
		images:     images,
		notifier:   notifier,
	}
}

// CreateDamageReportInput holds the fields of a new damage report.
// ReportedBy defaults to the caller.
type CreateDamageReportInput struct {
	ApartmentID string          `json:"apartment_id"`
	ReportedBy  string          `json:"reported_by"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    models.Priority `json:"priority"`
	Images      []string        `json:"images"`
}

// UpdateDamageReportInput is a partial edit by the reporter or an admin.
type UpdateDamageReportInput struct {
	Title       Optional[string]          `json:"title"`
	Description Optional[string]          `json:"description"`
	Priority    Optional[models.Priority] `json:"priority"`
	Images      Optional[[]string]        `json:"images"`
}

// Create stores a report and tells the administrators about it.
func (s *DamageReportService) Create(ctx context.Context, p scope.Principal, in CreateDamageReportInput) (*models.DamageReport, error) {
	if in.ReportedBy == "" {
		in.ReportedBy = p.ID
	}
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.ApartmentID == "":
		return nil, invalid("apartment is required")
	case in.ReportedBy == "":
		return nil, invalid("reporter is required")
	case in.Title == "":
		return nil, invalid("title is required")
	}
	if !scope.CanModify(p, in.ReportedBy) {
		return nil, forbidden("cannot report on behalf of another user")
	}

	if in.Priority == "" {
		in.Priority = models.PriorityLow
	}
	if !in.Priority.ValidForDamageReport() {
		return nil, invalid("invalid damage report priority %q", in.Priority)
	}

	apartment, err := s.apartments.GetByID(ctx, in.ApartmentID)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, invalid("apartment %s does not exist", in.ApartmentID)
	}

	report := &models.DamageReport{
		ApartmentID: in.ApartmentID,
		ReportedBy:  in.ReportedBy,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      models.ReportReported,
		Images:      in.Images,
	}
	if report.Images == nil {
		report.Images = []string{}
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, storeErr(err, "damage report", report.ID)
	}

	admins, err := s.users.ListRecipients(ctx,
		[]models.UserStatus{models.UserStatusActive, models.UserStatusApproved},
		[]models.Role{models.RoleAdmin})
	if err != nil {
		logFanOutSkipped(models.NotificationDamageReport, err)
	} else {
		s.notifier.FanOut(ctx, userIDs(admins), models.NotificationDamageReport,
			fmt.Sprintf("New %s priority damage report for apartment %s-%s: %s",
				report.Priority, apartment.Tower, apartment.Number, report.Title))
	}

	return report, nil
}

// UpdateStatus advances a report's status. Only administrators may do this.
func (s *DamageReportService) UpdateStatus(ctx context.Context, p scope.Principal, id string, to models.ReportStatus) (*models.DamageReport, error) {
	if !p.IsAdmin() {
		return nil, forbidden("only administrators can change a report's status")
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := advance(models.ReportTransitions, "damage report", report.Status, to); err != nil {
		return nil, err
	}
	report.Status = to
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, storeErr(err, "damage report", id)
	}

	s.notifier.Emit(ctx, notify.To(report.ReportedBy, models.NotificationDamageReport,
		fmt.Sprintf("Your damage report %q is now %s", report.Title, strings.ReplaceAll(string(to), "_", " "))))
	return report, nil
}

// Update edits a report's details.
func (s *DamageReportService) Update(ctx context.Context, p scope.Principal, id string, in UpdateDamageReportInput) (*models.DamageReport, error) {
	report, err := s.modifiable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if !in.Title.apply(&report.Title) || strings.TrimSpace(report.Title) == "" {
		return nil, invalid("title is required")
	}
	in.Description.applyPtr(&report.Description)
	if !in.Priority.apply(&report.Priority) || !report.Priority.ValidForDamageReport() {
		return nil, invalid("invalid damage report priority %q", report.Priority)
	}
	if !in.Images.apply(&report.Images) {
		report.Images = []string{}
	}

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, storeErr(err, "damage report", id)
	}
	return report, nil
}

// Delete removes a report and, best effort, the images it owns.
func (s *DamageReportService) Delete(ctx context.Context, p scope.Principal, id string) error {
	report, err := s.modifiable(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return storeErr(err, "damage report", id)
	}

	if s.images != nil {
		for _, key := range report.Images {
			if !strings.HasPrefix(key, imagePrefix) {
				continue
			}
			if err := s.images.Delete(ctx, key); err != nil {
				log.Printf("Failed to delete image %s of damage report %s: %v", key, id, err)
			}
		}
	}
	return nil
}

// AttachImage stores an uploaded image and appends its key to the report.
func (s *DamageReportService) AttachImage(ctx context.Context, p scope.Principal, id, filename, contentType string, r io.Reader) (*models.DamageReport, error) {
	if s.images == nil {
		return nil, invalid("image uploads are not configured")
	}
	report, err := s.modifiable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	key := imagePrefix + report.ID + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.images.Put(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	report.Images = append(report.Images, key)
	if err := s.reports.Update(ctx, report); err != nil {
		if derr := s.images.Delete(ctx, key); derr != nil {
			log.Printf("Failed to remove orphaned image %s: %v", key, derr)
		}
		return nil, storeErr(err, "damage report", id)
	}
	return report, nil
}

// ListPage returns one page of all reports. Administrators only.
func (s *DamageReportService) ListPage(ctx context.Context, p scope.Principal, page, limit int) (*Page[models.DamageReport], error) {
	if !p.IsAdmin() {
		return nil, forbidden("only administrators can list all reports")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	items, total, err := s.reports.ListPage(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &Page[models.DamageReport]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// ListMine returns the reports raised by p.
func (s *DamageReportService) ListMine(ctx context.Context, p scope.Principal) ([]models.DamageReport, error) {
	f := scope.Where(scope.Eq(scope.ColReportedBy, p.ID))
	if f.Denies() {
		return []models.DamageReport{}, nil
	}
	return s.reports.ListScoped(ctx, f)
}

// Get returns a report visible to p.
func (s *DamageReportService) Get(ctx context.Context, p scope.Principal, id string) (*models.DamageReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !scope.Where(scope.Eq(scope.ColReportedBy, p.ID)).Match(reportColumns(report)) {
		return nil, notFound("damage report", id)
	}
	return report, nil
}

func (s *DamageReportService) load(ctx context.Context, id string) (*models.DamageReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, notFound("damage report", id)
	}
	return report, nil
}

func (s *DamageReportService) modifiable(ctx context.Context, p scope.Principal, id string) (*models.DamageReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanModify(p, report.ReportedBy) {
		return nil, forbidden("damage report %s belongs to another user", id)
	}
	return report, nil
}
