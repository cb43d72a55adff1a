package activitylog

import (
	"time"

	activitymodel "github.com/appworkspm/painai/internal/core/datamodel/activity"
)

// Severity levels mirror the logging levels used across the service.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Well-known entry types. Services may record additional free-form types.
const (
	TypeUserLogin        = "user.login"
	TypeUserCreated      = "user.created"
	TypeUserRoleChanged  = "user.role_changed"
	TypeUserDeactivated  = "user.deactivated"
	TypeTimesheetDeleted = "timesheet.delete"
	TypeRBACChanged      = "rbac.changed"
	TypeProjectChanged   = "project.changed"
	TypeHolidayChanged   = "holiday.changed"
)

// Entry is one row of the system activity log. Entries are append only and
// never updated after creation.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(dm *activitymodel.ActivityLog) *Entry {
	return &Entry{
		ID:        dm.ID,
		UserID:    dm.UserID,
		Type:      dm.Type,
		Message:   dm.Message,
		Severity:  dm.Severity,
		CreatedAt: dm.CreatedAt,
	}
}

func FromDataModelSlice(dms []*activitymodel.ActivityLog) []*Entry {
	entries := make([]*Entry, 0, len(dms))
	for _, dm := range dms {
		entries = append(entries, FromDataModel(dm))
	}
	return entries
}
