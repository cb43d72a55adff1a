package timesheet

import (
	"time"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/core/common/validation"
)

type CreateTimesheetDTO struct {
	ProjectID     *int64   `json:"project_id,omitempty"`
	WorkType      string   `json:"work_type"`
	SubType       string   `json:"sub_type,omitempty"`
	Activity      string   `json:"activity"`
	Description   string   `json:"description,omitempty"`
	DateWorked    DateOnly `json:"date_worked"`
	HoursWorked   float64  `json:"hours_worked"`
	OvertimeHours float64  `json:"overtime_hours"`
	Billable      *bool    `json:"billable,omitempty"`
	HourlyRate    float64  `json:"hourly_rate,omitempty"`
}

func (dto CreateTimesheetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("work_type", dto.WorkType).Required().OneOf(string(WorkTypeProject), string(WorkTypeNonProject))
	v.Field("activity", dto.Activity).Required().MaxLen(200)
	v.Field("description", dto.Description).MaxLen(1000)
	v.Field("date_worked", dto.DateWorked.Time()).Required().NotFuture()
	v.Field("hours_worked", dto.HoursWorked).HoursRange(MaxHoursPerDay)
	v.Field("overtime_hours", dto.OvertimeHours).NonNegative()
	if err := v.Build(); err != nil {
		return err
	}

	if dto.WorkType == string(WorkTypeProject) && dto.ProjectID == nil {
		return internal.NewValidationFieldError("project_id",
			"project_id is required for project work", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateTimesheetDTO is a sparse patch: nil fields are left untouched.
// Status is deliberately absent; transitions go through submit/approve/reject.
type UpdateTimesheetDTO struct {
	ProjectID     *int64    `json:"project_id,omitempty"`
	WorkType      *string   `json:"work_type,omitempty"`
	SubType       *string   `json:"sub_type,omitempty"`
	Activity      *string   `json:"activity,omitempty"`
	Description   *string   `json:"description,omitempty"`
	DateWorked    *DateOnly `json:"date_worked,omitempty"`
	HoursWorked   *float64  `json:"hours_worked,omitempty"`
	OvertimeHours *float64  `json:"overtime_hours,omitempty"`
	Billable      *bool     `json:"billable,omitempty"`
	HourlyRate    *float64  `json:"hourly_rate,omitempty"`
}

func (dto UpdateTimesheetDTO) Validate() error {
	v := validation.NewValidator()
	if dto.WorkType != nil {
		v.Field("work_type", *dto.WorkType).Required().OneOf(string(WorkTypeProject), string(WorkTypeNonProject))
	}
	if dto.Activity != nil {
		v.Field("activity", *dto.Activity).Required().MaxLen(200)
	}
	if dto.Description != nil {
		v.Field("description", *dto.Description).MaxLen(1000)
	}
	if dto.DateWorked != nil {
		v.Field("date_worked", dto.DateWorked.Time()).Required().NotFuture()
	}
	if dto.HoursWorked != nil {
		v.Field("hours_worked", *dto.HoursWorked).HoursRange(MaxHoursPerDay)
	}
	if dto.OvertimeHours != nil {
		v.Field("overtime_hours", *dto.OvertimeHours).NonNegative()
	}
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}

type RejectTimesheetDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectTimesheetDTO) Validate() error {
	if dto.Reason == "" {
		return internal.ErrReasonMissing
	}
	return nil
}

// ListFilter narrows the timesheet listing. Visibility scoping (own rows for
// USER rank) is applied by the service, not the caller.
type ListFilter struct {
	Status    string
	UserID    int64
	ProjectID int64
	DateFrom  time.Time
	DateTo    time.Time
	Search    string
	Page      int
	Limit     int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Timesheets []*Timesheet `json:"timesheets"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
}

// DateOnly unmarshals "2006-01-02" JSON dates.
type DateOnly time.Time

func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// fall back to RFC3339 for clients sending full timestamps
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	*d = DateOnly(t)
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format("2006-01-02") + `"`), nil
}

func (d DateOnly) Time() time.Time {
	return time.Time(d)
}
