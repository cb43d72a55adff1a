package postgres

import (
	"context"
	"fmt"

	"github.com/appworkspm/painai/internal/activitylog"
	activitymodel "github.com/appworkspm/painai/internal/core/datamodel/activity"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Insert(ctx context.Context, entry *activitylog.Entry) error {
	dm := &activitymodel.ActivityLog{
		UserID:   entry.UserID,
		Type:     entry.Type,
		Message:  entry.Message,
		Severity: entry.Severity,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	entry.ID = dm.ID
	entry.CreatedAt = dm.CreatedAt
	return nil
}

func (r *ActivityLogRepository) List(ctx context.Context, filter activitylog.ListFilter) (*activitylog.ListResult, error) {
	query := r.db.WithContext(ctx).Model(&activitymodel.ActivityLog{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count activity logs: %w", err)
	}

	var dms []*activitymodel.ActivityLog
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&dms).Error
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	return &activitylog.ListResult{
		Entries: activitylog.FromDataModelSlice(dms),
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}
