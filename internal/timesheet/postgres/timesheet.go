package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appworkspm/painai/internal"
	activityDatamodel "github.com/appworkspm/painai/internal/core/datamodel/activity"
	timesheetDatamodel "github.com/appworkspm/painai/internal/core/datamodel/timesheet"
	"github.com/appworkspm/painai/internal/timesheet"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimesheetRepository implements timesheet.RepositoryAPI on GORM. All mutating
// methods run inside a transaction with the target row locked, so the guard
// closure always sees current state.
type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) timesheet.RepositoryAPI {
	return &TimesheetRepository{db: db}
}

// conflictingStatuses are the states that block another timesheet on the same
// (user, date). Rejected rows do not conflict: the owner may file a fresh
// timesheet for that date.
var conflictingStatuses = []string{
	string(timesheet.StatusDraft),
	string(timesheet.StatusSubmitted),
	string(timesheet.StatusApproved),
}

func (r *TimesheetRepository) Create(ctx context.Context, ts *timesheet.Timesheet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&timesheetDatamodel.Timesheet{}).
			Where("user_id = ? AND date_worked = ? AND status IN ?",
				ts.UserID, dateOnly(ts.DateWorked), conflictingStatuses).
			Count(&count).Error
		if err != nil {
			return internal.NewStorageError("duplicate-date check failed", err)
		}
		if count > 0 {
			return internal.ErrDuplicateDate
		}

		row := timesheet.ToDataModel(ts)
		row.DateWorked = dateOnly(ts.DateWorked)
		if err := tx.Create(row).Error; err != nil {
			// the partial unique index backs this check: a concurrent insert
			// loses here instead of silently overwriting
			if isUniqueViolation(err) {
				return internal.ErrDuplicateDate
			}
			return internal.NewStorageError("failed to insert timesheet", err)
		}

		ts.ID = row.ID
		ts.DateWorked = row.DateWorked
		ts.CreatedAt = row.CreatedAt
		ts.UpdatedAt = row.UpdatedAt

		entry := &timesheetDatamodel.TimesheetEditHistory{
			TimesheetID: row.ID,
			UserID:      ts.UserID,
			Action:      string(timesheet.ActionCreate),
			Snapshot:    timesheet.Snapshot(ts),
		}
		if err := tx.Create(entry).Error; err != nil {
			return internal.NewStorageError("failed to append history", err)
		}
		return nil
	})
}

func (r *TimesheetRepository) GetByID(ctx context.Context, id int64) (*timesheet.Timesheet, error) {
	var row timesheetDatamodel.Timesheet
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTimesheetNotFound
		}
		return nil, internal.NewStorageError("failed to load timesheet", err)
	}
	return timesheet.FromDataModel(&row), nil
}

// Mutate locks the row, applies fn, persists the result and appends the
// history entry fn names. Everything commits or rolls back together.
func (r *TimesheetRepository) Mutate(ctx context.Context, id, actorID int64, fn timesheet.MutateFunc) (*timesheet.Timesheet, error) {
	var result *timesheet.Timesheet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row timesheetDatamodel.Timesheet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrTimesheetNotFound
			}
			return internal.NewStorageError("failed to lock timesheet", err)
		}

		ts := timesheet.FromDataModel(&row)
		action, err := fn(ts)
		if err != nil {
			return err
		}

		updated := timesheet.ToDataModel(ts)
		updated.DateWorked = dateOnly(ts.DateWorked)
		if err := tx.Save(updated).Error; err != nil {
			if isUniqueViolation(err) {
				return internal.ErrDuplicateDate
			}
			return internal.NewStorageError("failed to update timesheet", err)
		}

		entry := &timesheetDatamodel.TimesheetEditHistory{
			TimesheetID: id,
			UserID:      actorID,
			Action:      string(action),
			Snapshot:    timesheet.Snapshot(ts),
		}
		if err := tx.Create(entry).Error; err != nil {
			return internal.NewStorageError("failed to append history", err)
		}

		result = timesheet.FromDataModel(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a row after the guard passes; history rows cascade with it.
// The activity entry is the only surviving record of the deletion, so it is
// written in the same transaction and a failed append rolls everything back.
func (r *TimesheetRepository) Delete(ctx context.Context, id, actorID int64, guard func(ts *timesheet.Timesheet) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row timesheetDatamodel.Timesheet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrTimesheetNotFound
			}
			return internal.NewStorageError("failed to lock timesheet", err)
		}

		if err := guard(timesheet.FromDataModel(&row)); err != nil {
			return err
		}

		if err := tx.Where("timesheet_id = ?", id).
			Delete(&timesheetDatamodel.TimesheetEditHistory{}).Error; err != nil {
			return internal.NewStorageError("failed to delete history", err)
		}
		if err := tx.Delete(&timesheetDatamodel.Timesheet{}, id).Error; err != nil {
			return internal.NewStorageError("failed to delete timesheet", err)
		}

		audit := &activityDatamodel.ActivityLog{
			UserID:   &actorID,
			Type:     "timesheet.delete",
			Message:  fmt.Sprintf("draft timesheet %d deleted (owner %d, %s)", id, row.UserID, row.DateWorked.Format("2006-01-02")),
			Severity: "info",
		}
		if err := tx.Create(audit).Error; err != nil {
			return internal.NewStorageError("failed to record deletion", err)
		}
		return nil
	})
}

func (r *TimesheetRepository) List(ctx context.Context, filter timesheet.ListFilter) ([]*timesheet.Timesheet, int64, error) {
	q := r.db.WithContext(ctx).Model(&timesheetDatamodel.Timesheet{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ProjectID != 0 {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if !filter.DateFrom.IsZero() {
		q = q.Where("date_worked >= ?", dateOnly(filter.DateFrom))
	}
	if !filter.DateTo.IsZero() {
		q = q.Where("date_worked <= ?", dateOnly(filter.DateTo))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("activity LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewStorageError("failed to count timesheets", err)
	}

	var rows []*timesheetDatamodel.Timesheet
	err := q.Order("date_worked DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, internal.NewStorageError("failed to list timesheets", err)
	}

	return timesheet.FromDataModelSlice(rows), total, nil
}

func (r *TimesheetRepository) History(ctx context.Context, timesheetID int64) ([]*timesheet.HistoryEntry, error) {
	var rows []*timesheetDatamodel.TimesheetEditHistory
	err := r.db.WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to load history", err)
	}

	entries := make([]*timesheet.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = timesheet.HistoryFromDataModel(row)
	}
	return entries, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx wraps unique violations with SQLSTATE 23505
	return err != nil && strings.Contains(err.Error(), "23505")
}
