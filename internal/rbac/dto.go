package rbac

import (
	"github.com/appworkspm/painai/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto CreateRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLen(100)
	v.Field("description", dto.Description).MaxLen(500)
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}

type CreatePermissionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto CreatePermissionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLen(100)
	v.Field("description", dto.Description).MaxLen(500)
	if err := v.Build(); err != nil {
		return err
	}
	return nil
}

type AssignRoleDTO struct {
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}

type AssignPermissionDTO struct {
	RoleID       int64 `json:"role_id"`
	PermissionID int64 `json:"permission_id"`
}
