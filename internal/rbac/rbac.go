package rbac

import (
	"time"

	rbacmodel "github.com/appworkspm/painai/internal/core/datamodel/rbac"
)

// Role is a named grant bundle in the fine-grained permission graph. It is
// distinct from the coarse hierarchy role stored on the user record.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Assignment links a user to a role, remembering who granted it.
type Assignment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RoleID    int64     `json:"role_id"`
	GrantedBy *int64    `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func RoleFromDataModel(dm *rbacmodel.Role) *Role {
	return &Role{
		ID:          dm.ID,
		Name:        dm.Name,
		Description: dm.Description,
		CreatedAt:   dm.CreatedAt,
		UpdatedAt:   dm.UpdatedAt,
	}
}

func RolesFromDataModel(dms []*rbacmodel.Role) []*Role {
	roles := make([]*Role, 0, len(dms))
	for _, dm := range dms {
		roles = append(roles, RoleFromDataModel(dm))
	}
	return roles
}

func PermissionFromDataModel(dm *rbacmodel.Permission) *Permission {
	return &Permission{
		ID:          dm.ID,
		Name:        dm.Name,
		Description: dm.Description,
		CreatedAt:   dm.CreatedAt,
	}
}

func PermissionsFromDataModel(dms []*rbacmodel.Permission) []*Permission {
	perms := make([]*Permission, 0, len(dms))
	for _, dm := range dms {
		perms = append(perms, PermissionFromDataModel(dm))
	}
	return perms
}

func AssignmentFromDataModel(dm *rbacmodel.UserRole) *Assignment {
	return &Assignment{
		ID:        dm.ID,
		UserID:    dm.UserID,
		RoleID:    dm.RoleID,
		GrantedBy: dm.GrantedBy,
		CreatedAt: dm.CreatedAt,
	}
}
