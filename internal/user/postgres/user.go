package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	usermodel "github.com/appworkspm/painai/internal/core/datamodel/user"
	"github.com/appworkspm/painai/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, p *user.Profile, passwordHash string) error {
	dm := &usermodel.User{
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: passwordHash,
		Role:         string(p.Role),
		IsActive:     p.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.NewConflictError("email already registered",
				internal.ErrCodeDuplicateName)
		}
		return internal.NewStorageError("failed to create user", err)
	}

	p.ID = dm.ID
	p.CreatedAt = dm.CreatedAt
	p.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.Profile, error) {
	var dm usermodel.User
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageError("failed to get user", err)
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) (*user.ListResult, error) {
	query := r.db.WithContext(ctx).Model(&usermodel.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internal.NewStorageError("failed to count users", err)
	}

	var dms []*usermodel.User
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&dms).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to list users", err)
	}

	return &user.ListResult{
		Users: user.FromDataModelSlice(dms),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	result := r.db.WithContext(ctx).Model(&usermodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       string(role),
			"updated_at": gorm.Expr("now()"),
		})
	if result.Error != nil {
		return internal.NewStorageError("failed to update user role", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// Deactivate flags the account inactive and soft deletes it, which blocks
// future logins without touching the user's history.
func (r *UserRepository) Deactivate(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&usermodel.User{}).
			Where("id = ?", id).
			Update("is_active", false)
		if result.Error != nil {
			return internal.NewStorageError("failed to deactivate user", result.Error)
		}
		if result.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		if err := tx.Delete(&usermodel.User{}, id).Error; err != nil {
			return internal.NewStorageError("failed to delete user", err)
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
