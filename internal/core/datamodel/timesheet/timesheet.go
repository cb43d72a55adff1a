package timesheet

import "time"

type Timesheet struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          int64      `gorm:"column:user_id;not null;index"`
	ProjectID       *int64     `gorm:"column:project_id;index"`
	WorkType        string     `gorm:"column:work_type;not null;default:PROJECT"`
	SubType         string     `gorm:"column:sub_type"`
	Activity        string     `gorm:"column:activity;not null"`
	Description     string     `gorm:"column:description"`
	DateWorked      time.Time  `gorm:"column:date_worked;type:date;not null"`
	HoursWorked     float64    `gorm:"column:hours_worked;type:decimal(5,2);not null"`
	OvertimeHours   float64    `gorm:"column:overtime_hours;type:decimal(5,2);not null;default:0"`
	Billable        bool       `gorm:"column:billable;default:true"`
	HourlyRate      float64    `gorm:"column:hourly_rate;type:decimal(12,2)"`
	Status          string     `gorm:"column:status;not null;default:draft"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
	ProcessedBy     *int64     `gorm:"column:processed_by"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}

// TimesheetEditHistory rows are append-only; one row per mutating action.
type TimesheetEditHistory struct {
	ID          int64     `gorm:"primaryKey"`
	TimesheetID int64     `gorm:"column:timesheet_id;not null;index"`
	UserID      int64     `gorm:"column:user_id;not null"`
	Action      string    `gorm:"column:action;not null"`
	Snapshot    string    `gorm:"column:snapshot;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TimesheetEditHistory) TableName() string {
	return "timesheet_edit_histories"
}
