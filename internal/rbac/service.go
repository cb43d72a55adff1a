package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/pkg/logger"
)

type RepositoryAPI interface {
	CreateRole(ctx context.Context, role *Role) error
	GetRole(ctx context.Context, id int64) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	DeleteRole(ctx context.Context, id int64) error

	CreatePermission(ctx context.Context, perm *Permission) error
	GetPermission(ctx context.Context, id int64) (*Permission, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)

	AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	RevokePermissionFromRole(ctx context.Context, roleID, permissionID int64) error
	ListPermissionsForRole(ctx context.Context, roleID int64) ([]*Permission, error)

	AssignRoleToUser(ctx context.Context, userID, roleID int64, grantedBy *int64) (*Assignment, error)
	RevokeRoleFromUser(ctx context.Context, userID, roleID int64) error
	ListRolesForUser(ctx context.Context, userID int64) ([]*Role, error)

	UserExists(ctx context.Context, userID int64) (bool, error)
}

// ActivityRecorder receives the audit entry for every graph mutation. A failed
// append fails the mutation.
type ActivityRecorder interface {
	Record(ctx context.Context, userID *int64, entryType, message, severity string) error
}

// Service manages the fine-grained role/permission graph. All writes are
// gated on rbac.manage and mirrored into the activity trail.
type Service struct {
	repo     RepositoryAPI
	policy   *auth.Policy
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, activity ActivityRecorder) *Service {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{repo: repo, policy: policy, activity: activity, logger: lg}
}

func (s *Service) CreateRole(ctx context.Context, actor *auth.User, dto CreateRoleDTO) (*Role, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := &Role{
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, actor, "role_created", role.Name); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) GetRole(ctx context.Context, actor *auth.User, id int64) (*Role, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	return s.repo.GetRole(ctx, id)
}

func (s *Service) ListRoles(ctx context.Context, actor *auth.User) ([]*Role, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	return s.repo.ListRoles(ctx)
}

// DeleteRole removes a role together with its permission links and user
// assignments.
func (s *Service) DeleteRole(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return err
	}

	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}

	return s.recordChange(ctx, actor, "role_deleted", role.Name)
}

func (s *Service) CreatePermission(ctx context.Context, actor *auth.User, dto CreatePermissionDTO) (*Permission, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	perm := &Permission{
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.repo.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, actor, "permission_created", perm.Name); err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *Service) ListPermissions(ctx context.Context, actor *auth.User) ([]*Permission, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	return s.repo.ListPermissions(ctx)
}

func (s *Service) AssignPermissionToRole(ctx context.Context, actor *auth.User, dto AssignPermissionDTO) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return err
	}

	role, err := s.repo.GetRole(ctx, dto.RoleID)
	if err != nil {
		return err
	}
	perm, err := s.repo.GetPermission(ctx, dto.PermissionID)
	if err != nil {
		return err
	}

	if err := s.repo.AssignPermissionToRole(ctx, dto.RoleID, dto.PermissionID); err != nil {
		return err
	}

	return s.recordChange(ctx, actor, "permission_assigned", fmt.Sprintf("%s -> %s", perm.Name, role.Name))
}

func (s *Service) RevokePermissionFromRole(ctx context.Context, actor *auth.User, roleID, permissionID int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return err
	}

	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return err
	}

	if err := s.repo.RevokePermissionFromRole(ctx, roleID, permissionID); err != nil {
		return err
	}

	return s.recordChange(ctx, actor, "permission_revoked", fmt.Sprintf("%s -x %s", perm.Name, role.Name))
}

func (s *Service) ListPermissionsForRole(ctx context.Context, actor *auth.User, roleID int64) ([]*Permission, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListPermissionsForRole(ctx, roleID)
}

func (s *Service) AssignRoleToUser(ctx context.Context, actor *auth.User, dto AssignRoleDTO) (*Assignment, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, dto.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	role, err := s.repo.GetRole(ctx, dto.RoleID)
	if err != nil {
		return nil, err
	}

	grantedBy := actor.ID
	assignment, err := s.repo.AssignRoleToUser(ctx, dto.UserID, dto.RoleID, &grantedBy)
	if err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, actor, "role_assigned", fmt.Sprintf("%s -> user %d", role.Name, dto.UserID)); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *Service) RevokeRoleFromUser(ctx context.Context, actor *auth.User, userID, roleID int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return err
	}

	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	if err := s.repo.RevokeRoleFromUser(ctx, userID, roleID); err != nil {
		return err
	}

	return s.recordChange(ctx, actor, "role_revoked", fmt.Sprintf("%s -x user %d", role.Name, userID))
}

func (s *Service) ListRolesForUser(ctx context.Context, actor *auth.User, userID int64) ([]*Role, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageRBAC); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}
	return s.repo.ListRolesForUser(ctx, userID)
}

// recordChange appends the audit entry for a completed graph mutation. The
// entry is the only record of the change, so a failed append fails the call.
func (s *Service) recordChange(ctx context.Context, actor *auth.User, action, target string) error {
	actorID := actor.ID
	msg := fmt.Sprintf("rbac %s: %s", action, target)
	if err := s.activity.Record(ctx, &actorID, "rbac.changed", msg, "warning"); err != nil {
		s.logger.Error("failed to record rbac change", "action", action, "target", target, "error", err)
		return err
	}
	s.logger.Info("rbac change", "action", action, "target", target, "actor_id", actor.ID)
	return nil
}
