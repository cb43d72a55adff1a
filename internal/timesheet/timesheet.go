package timesheet

import (
	"math"
	"time"

	"github.com/appworkspm/painai/internal"
	timesheetDatamodel "github.com/appworkspm/painai/internal/core/datamodel/timesheet"
)

// Status is the timesheet lifecycle. Transitions only move forward:
// draft -> submitted -> approved | rejected. Nothing returns to draft.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves this status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type WorkType string

const (
	WorkTypeProject    WorkType = "PROJECT"
	WorkTypeNonProject WorkType = "NON_PROJECT"
)

func (w WorkType) Valid() bool {
	return w == WorkTypeProject || w == WorkTypeNonProject
}

const MaxHoursPerDay = 24

type Timesheet struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	ProjectID       *int64     `json:"project_id,omitempty"`
	WorkType        WorkType   `json:"work_type"`
	SubType         string     `json:"sub_type,omitempty"`
	Activity        string     `json:"activity"`
	Description     string     `json:"description,omitempty"`
	DateWorked      time.Time  `json:"date_worked"`
	HoursWorked     float64    `json:"hours_worked"`
	OvertimeHours   float64    `json:"overtime_hours"`
	Billable        bool       `json:"billable"`
	HourlyRate      float64    `json:"hourly_rate,omitempty"`
	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessedBy     *int64     `json:"processed_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TotalHours is derived at read time. Storing it would require keeping two
// columns synchronized, which is the corruption class the hour bounds guard
// against.
func (t *Timesheet) TotalHours() float64 {
	return roundHours(t.HoursWorked + t.OvertimeHours)
}

func (t *Timesheet) CanModify() bool {
	return t.Status == StatusDraft
}

func (t *Timesheet) CanDelete() bool {
	return t.Status == StatusDraft
}

func (t *Timesheet) CanSubmit() bool {
	return t.Status == StatusDraft
}

func (t *Timesheet) CanApprove() bool {
	return t.Status == StatusSubmitted
}

func (t *Timesheet) CanReject() bool {
	return t.Status == StatusSubmitted
}

// Submit moves draft -> submitted.
func (t *Timesheet) Submit() error {
	if t.Status == StatusSubmitted {
		return internal.ErrAlreadySubmitted
	}
	if !t.CanSubmit() {
		return internal.ErrInvalidTimesheetStatus
	}
	now := time.Now()
	t.Status = StatusSubmitted
	t.SubmittedAt = &now
	t.UpdatedAt = now
	return nil
}

// Approve moves submitted -> approved and clears any rejection reason.
func (t *Timesheet) Approve(approverID int64) error {
	if !t.CanApprove() {
		return internal.ErrInvalidTimesheetStatus
	}
	now := time.Now()
	t.Status = StatusApproved
	t.RejectionReason = nil
	t.ProcessedAt = &now
	t.ProcessedBy = &approverID
	t.UpdatedAt = now
	return nil
}

// Reject moves submitted -> rejected. The reason is mandatory.
func (t *Timesheet) Reject(approverID int64, reason string) error {
	if reason == "" {
		return internal.ErrReasonMissing
	}
	if !t.CanReject() {
		return internal.ErrInvalidTimesheetStatus
	}
	now := time.Now()
	t.Status = StatusRejected
	t.RejectionReason = &reason
	t.ProcessedAt = &now
	t.ProcessedBy = &approverID
	t.UpdatedAt = now
	return nil
}

// ValidateHours enforces the (0,24] bound on worked hours and overtime >= 0.
// Out-of-range values are rejected at write time, never persisted.
func ValidateHours(hoursWorked, overtimeHours float64) error {
	if hoursWorked <= 0 || hoursWorked > MaxHoursPerDay {
		return internal.ErrInvalidHours
	}
	if overtimeHours < 0 {
		return internal.NewValidationError("overtime hours must not be negative", internal.ErrCodeInvalidOvertime)
	}
	return nil
}

// roundHours normalizes to two-decimal precision.
func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func ToDataModel(t *Timesheet) *timesheetDatamodel.Timesheet {
	return &timesheetDatamodel.Timesheet{
		ID:              t.ID,
		UserID:          t.UserID,
		ProjectID:       t.ProjectID,
		WorkType:        string(t.WorkType),
		SubType:         t.SubType,
		Activity:        t.Activity,
		Description:     t.Description,
		DateWorked:      t.DateWorked,
		HoursWorked:     t.HoursWorked,
		OvertimeHours:   t.OvertimeHours,
		Billable:        t.Billable,
		HourlyRate:      t.HourlyRate,
		Status:          string(t.Status),
		RejectionReason: t.RejectionReason,
		SubmittedAt:     t.SubmittedAt,
		ProcessedAt:     t.ProcessedAt,
		ProcessedBy:     t.ProcessedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func FromDataModel(t *timesheetDatamodel.Timesheet) *Timesheet {
	return &Timesheet{
		ID:              t.ID,
		UserID:          t.UserID,
		ProjectID:       t.ProjectID,
		WorkType:        WorkType(t.WorkType),
		SubType:         t.SubType,
		Activity:        t.Activity,
		Description:     t.Description,
		DateWorked:      t.DateWorked,
		HoursWorked:     t.HoursWorked,
		OvertimeHours:   t.OvertimeHours,
		Billable:        t.Billable,
		HourlyRate:      t.HourlyRate,
		Status:          Status(t.Status),
		RejectionReason: t.RejectionReason,
		SubmittedAt:     t.SubmittedAt,
		ProcessedAt:     t.ProcessedAt,
		ProcessedBy:     t.ProcessedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*timesheetDatamodel.Timesheet) []*Timesheet {
	result := make([]*Timesheet, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}

// HistoryAction names a mutating operation recorded in the edit history.
type HistoryAction string

const (
	ActionCreate  HistoryAction = "create"
	ActionUpdate  HistoryAction = "update"
	ActionSubmit  HistoryAction = "submit"
	ActionApprove HistoryAction = "approve"
	ActionReject  HistoryAction = "reject"
	ActionDelete  HistoryAction = "delete"
)

type HistoryEntry struct {
	ID          int64         `json:"id"`
	TimesheetID int64         `json:"timesheet_id"`
	UserID      int64         `json:"user_id"`
	Action      HistoryAction `json:"action"`
	Snapshot    string        `json:"snapshot,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func HistoryFromDataModel(e *timesheetDatamodel.TimesheetEditHistory) *HistoryEntry {
	return &HistoryEntry{
		ID:          e.ID,
		TimesheetID: e.TimesheetID,
		UserID:      e.UserID,
		Action:      HistoryAction(e.Action),
		Snapshot:    e.Snapshot,
		CreatedAt:   e.CreatedAt,
	}
}
