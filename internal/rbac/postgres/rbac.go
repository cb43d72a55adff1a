package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/appworkspm/painai/internal"
	rbacmodel "github.com/appworkspm/painai/internal/core/datamodel/rbac"
	usermodel "github.com/appworkspm/painai/internal/core/datamodel/user"
	"github.com/appworkspm/painai/internal/rbac"
	"gorm.io/gorm"
)

type RBACRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) *RBACRepository {
	return &RBACRepository{db: db}
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *rbac.Role) error {
	dm := &rbacmodel.Role{
		Name:        role.Name,
		Description: role.Description,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateName
		}
		return internal.NewStorageError("failed to create role", err)
	}

	role.ID = dm.ID
	role.CreatedAt = dm.CreatedAt
	role.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *RBACRepository) GetRole(ctx context.Context, id int64) (*rbac.Role, error) {
	var dm rbacmodel.Role
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, internal.NewStorageError("failed to get role", err)
	}
	return rbac.RoleFromDataModel(&dm), nil
}

func (r *RBACRepository) ListRoles(ctx context.Context) ([]*rbac.Role, error) {
	var dms []*rbacmodel.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&dms).Error; err != nil {
		return nil, internal.NewStorageError("failed to list roles", err)
	}
	return rbac.RolesFromDataModel(dms), nil
}

// DeleteRole removes the role and cascades over its join rows in one
// transaction.
func (r *RBACRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&rbacmodel.RolePermission{}).Error; err != nil {
			return internal.NewStorageError("failed to delete role permissions", err)
		}
		if err := tx.Where("role_id = ?", id).Delete(&rbacmodel.UserRole{}).Error; err != nil {
			return internal.NewStorageError("failed to delete role assignments", err)
		}

		result := tx.Delete(&rbacmodel.Role{}, id)
		if result.Error != nil {
			return internal.NewStorageError("failed to delete role", result.Error)
		}
		if result.RowsAffected == 0 {
			return internal.ErrRoleNotFound
		}
		return nil
	})
}

func (r *RBACRepository) CreatePermission(ctx context.Context, perm *rbac.Permission) error {
	dm := &rbacmodel.Permission{
		Name:        perm.Name,
		Description: perm.Description,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateName
		}
		return internal.NewStorageError("failed to create permission", err)
	}

	perm.ID = dm.ID
	perm.CreatedAt = dm.CreatedAt
	return nil
}

func (r *RBACRepository) GetPermission(ctx context.Context, id int64) (*rbac.Permission, error) {
	var dm rbacmodel.Permission
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPermissionNotFound
		}
		return nil, internal.NewStorageError("failed to get permission", err)
	}
	return rbac.PermissionFromDataModel(&dm), nil
}

func (r *RBACRepository) ListPermissions(ctx context.Context) ([]*rbac.Permission, error) {
	var dms []*rbacmodel.Permission
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&dms).Error; err != nil {
		return nil, internal.NewStorageError("failed to list permissions", err)
	}
	return rbac.PermissionsFromDataModel(dms), nil
}

func (r *RBACRepository) AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	dm := &rbacmodel.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateAssignment
		}
		return internal.NewStorageError("failed to assign permission", err)
	}
	return nil
}

func (r *RBACRepository) RevokePermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	result := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&rbacmodel.RolePermission{})
	if result.Error != nil {
		return internal.NewStorageError("failed to revoke permission", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrAssignmentNotFound
	}
	return nil
}

// ListPermissionsForRole returns permissions in grant order.
func (r *RBACRepository) ListPermissionsForRole(ctx context.Context, roleID int64) ([]*rbac.Permission, error) {
	var dms []*rbacmodel.Permission
	err := r.db.WithContext(ctx).
		Table("permissions").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Order("rp.created_at ASC, rp.id ASC").
		Find(&dms).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to list role permissions", err)
	}
	return rbac.PermissionsFromDataModel(dms), nil
}

func (r *RBACRepository) AssignRoleToUser(ctx context.Context, userID, roleID int64, grantedBy *int64) (*rbac.Assignment, error) {
	dm := &rbacmodel.UserRole{
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
	}
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrDuplicateAssignment
		}
		return nil, internal.NewStorageError("failed to assign role", err)
	}
	return rbac.AssignmentFromDataModel(dm), nil
}

func (r *RBACRepository) RevokeRoleFromUser(ctx context.Context, userID, roleID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&rbacmodel.UserRole{})
	if result.Error != nil {
		return internal.NewStorageError("failed to revoke role", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrAssignmentNotFound
	}
	return nil
}

// ListRolesForUser returns roles in grant order.
func (r *RBACRepository) ListRolesForUser(ctx context.Context, userID int64) ([]*rbac.Role, error) {
	var dms []*rbacmodel.Role
	err := r.db.WithContext(ctx).
		Table("roles").
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Order("ur.created_at ASC, ur.id ASC").
		Find(&dms).Error
	if err != nil {
		return nil, internal.NewStorageError("failed to list user roles", err)
	}
	return rbac.RolesFromDataModel(dms), nil
}

func (r *RBACRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&usermodel.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, internal.NewStorageError("failed to check user", err)
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
