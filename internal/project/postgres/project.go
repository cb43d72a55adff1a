package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/appworkspm/painai/internal"
	projectmodel "github.com/appworkspm/painai/internal/core/datamodel/project"
	"github.com/appworkspm/painai/internal/project"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	dm := p.ToDataModel()
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateJobCode
		}
		return internal.NewStorageError("failed to create project", err)
	}

	p.ID = dm.ID
	p.CreatedAt = dm.CreatedAt
	p.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	var dm projectmodel.Project
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrProjectNotFound
		}
		return nil, internal.NewStorageError("failed to get project", err)
	}
	return project.FromDataModel(&dm), nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) error {
	dm := p.ToDataModel()
	result := r.db.WithContext(ctx).Model(&projectmodel.Project{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":          dm.Name,
			"customer_name": dm.CustomerName,
			"budget":        dm.Budget,
			"payment_term":  dm.PaymentTerm,
			"status":        dm.Status,
			"manager_id":    dm.ManagerID,
			"start_date":    dm.StartDate,
			"end_date":      dm.EndDate,
			"updated_at":    gorm.Expr("now()"),
		})
	if result.Error != nil {
		return internal.NewStorageError("failed to update project", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrProjectNotFound
	}
	return nil
}

// Delete is a soft delete; timesheets keep referencing the row.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&projectmodel.Project{}, id)
	if result.Error != nil {
		return internal.NewStorageError("failed to delete project", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context, filter project.ListFilter) (*project.ListResult, error) {
	query := r.db.WithContext(ctx).Model(&projectmodel.Project{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ManagerID != 0 {
		query = query.Where("manager_id = ?", filter.ManagerID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR job_code LIKE ? OR customer_name LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internal.NewStorageError("failed to count projects", err)
	}

	var dms []*projectmodel.Project
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&dms).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to list projects", err)
	}

	return &project.ListResult{
		Projects: project.FromDataModelSlice(dms),
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
