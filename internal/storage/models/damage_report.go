package models

import "time"

// DamageReport is a problem reported by a resident for an apartment.
type DamageReport struct {
	ID          string       `json:"id"`
	ApartmentID string       `json:"apartment_id"`
	ReportedBy  string       `json:"reported_by"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Priority    Priority     `json:"priority"`
	Status      ReportStatus `json:"status"`
	Images      []string     `json:"images"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ReportStatus is the handling progress of a damage report.
type ReportStatus string

// Report status constants
const (
	ReportReported     ReportStatus = "reported"
	ReportAcknowledged ReportStatus = "acknowledged"
	ReportInProgress   ReportStatus = "in_progress"
	ReportResolved     ReportStatus = "resolved"
)

// ReportTransitions only moves forward; resolved is terminal.
var ReportTransitions = Transitions[ReportStatus]{
	ReportReported:     {ReportAcknowledged, ReportInProgress, ReportResolved},
	ReportAcknowledged: {ReportInProgress, ReportResolved},
	ReportInProgress:   {ReportResolved},
	ReportResolved:     {},
}
