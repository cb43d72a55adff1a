package activity

import "time"

// ActivityLog is the system-wide, append-only audit table. Timesheet-specific
// history lives in timesheet_edit_histories.
type ActivityLog struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    *int64    `gorm:"column:user_id;index"`
	Type      string    `gorm:"column:type;not null"`
	Message   string    `gorm:"column:message;not null"`
	Severity  string    `gorm:"column:severity;not null;default:info"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
