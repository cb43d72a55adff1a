package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/appworkspm/painai/internal"
	holidaymodel "github.com/appworkspm/painai/internal/core/datamodel/holiday"
	"github.com/appworkspm/painai/internal/holiday"
	"gorm.io/gorm"
)

type HolidayRepository struct {
	db *gorm.DB
}

func NewHolidayRepository(db *gorm.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

func (r *HolidayRepository) Create(ctx context.Context, h *holiday.Holiday) error {
	dm := &holidaymodel.Holiday{
		Date: h.Date,
		Name: h.Name,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError("a holiday already exists on this date",
				internal.ErrCodeDuplicateDate)
		}
		return internal.NewStorageError("failed to create holiday", err)
	}

	h.ID = dm.ID
	h.CreatedAt = dm.CreatedAt
	return nil
}

func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&holidaymodel.Holiday{}, id)
	if result.Error != nil {
		return internal.NewStorageError("failed to delete holiday", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrHolidayNotFound
	}
	return nil
}

func (r *HolidayRepository) GetByID(ctx context.Context, id int64) (*holiday.Holiday, error) {
	var dm holidaymodel.Holiday
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrHolidayNotFound
		}
		return nil, internal.NewStorageError("failed to get holiday", err)
	}
	return holiday.FromDataModel(&dm), nil
}

func (r *HolidayRepository) ListByYear(ctx context.Context, year int) ([]*holiday.Holiday, error) {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var dms []*holidaymodel.Holiday
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC").
		Find(&dms).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to list holidays", err)
	}
	return holiday.FromDataModelSlice(dms), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
