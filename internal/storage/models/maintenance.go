package models

import "time"

// Maintenance is a scheduled or ongoing job in a common area.
type Maintenance struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   *string           `json:"description,omitempty"`
	Area          string            `json:"area"`
	Status        MaintenanceStatus `json:"status"`
	Priority      Priority          `json:"priority"`
	ScheduledDate *time.Time        `json:"scheduled_date,omitempty"`
	CompletedDate *time.Time        `json:"completed_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// MaintenanceStatus is the progress of a maintenance job.
type MaintenanceStatus string

// Maintenance status constants
const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

// MaintenanceTransitions only moves forward.
var MaintenanceTransitions = Transitions[MaintenanceStatus]{
	MaintenancePending:    {MaintenanceInProgress, MaintenanceCompleted},
	MaintenanceInProgress: {MaintenanceCompleted},
	MaintenanceCompleted:  {},
}

// Priority ranks maintenance jobs and damage reports.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidForMaintenance returns true for priorities a maintenance job may carry.
func (p Priority) ValidForMaintenance() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidForDamageReport returns true for priorities a damage report may carry.
func (p Priority) ValidForDamageReport() bool {
	return p.ValidForMaintenance() || p == PriorityUrgent
}
