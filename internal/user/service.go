package user

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
	Create(ctx context.Context, p *Profile, passwordHash string) error
	GetByID(ctx context.Context, id int64) (*Profile, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	UpdateRole(ctx context.Context, id int64, role auth.Role) error
	Deactivate(ctx context.Context, id int64) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// ActivityRecorder receives the audit entry for administrative account
// changes. A failed append fails the operation.
type ActivityRecorder interface {
	Record(ctx context.Context, userID *int64, entryType, message, severity string) error
}

// Service handles user administration. Listing and role changes are
// ADMIN operations; everyone can read their own profile.
type Service struct {
	repo     RepositoryAPI
	policy   *auth.Policy
	hasher   PasswordHasher
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, hasher PasswordHasher, activity ActivityRecorder) *Service {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{repo: repo, policy: policy, hasher: hasher, activity: activity, logger: lg}
}

func (s *Service) CreateUser(ctx context.Context, actor *auth.User, dto CreateUserDTO) (*Profile, error) {
	if err := s.policy.CanPerform(actor, auth.ActionListUsers); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := auth.RoleUser
	if dto.Role != "" {
		parsed, err := auth.ParseRole(dto.Role)
		if err != nil {
			return nil, internal.NewValidationFieldError("role",
				"unknown role: "+dto.Role, internal.ErrCodeValidationFailed)
		}
		role = parsed
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	p := &Profile{
		Email:    strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:     strings.TrimSpace(dto.Name),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, p, hash); err != nil {
		return nil, err
	}

	actorID := actor.ID
	if err := s.activity.Record(ctx, &actorID, "user.created",
		fmt.Sprintf("user created: %s (%s)", p.Email, p.Role), "info"); err != nil {
		s.logger.Error("failed to record user creation", "user_id", p.ID, "error", err)
		return nil, err
	}

	s.logger.Info("user created", "user_id", p.ID, "role", p.Role, "created_by", actor.ID)
	return p, nil
}

// GetCurrentUser returns the authenticated user's own profile.
func (s *Service) GetCurrentUser(ctx context.Context, actor *auth.User) (*Profile, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.GetByID(ctx, actor.ID)
}

func (s *Service) GetUser(ctx context.Context, actor *auth.User, id int64) (*Profile, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	if actor.ID != id {
		if err := s.policy.CanPerform(actor, auth.ActionListUsers); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error) {
	if err := s.policy.CanPerform(actor, auth.ActionListUsers); err != nil {
		return nil, err
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// ChangeRole moves a user to a different coarse role. The change takes
// effect on the target's next token refresh.
func (s *Service) ChangeRole(ctx context.Context, actor *auth.User, id int64, dto ChangeRoleDTO) (*Profile, error) {
	if err := s.policy.CanPerform(actor, auth.ActionChangeUserRole); err != nil {
		return nil, err
	}

	newRole, err := auth.ParseRole(dto.Role)
	if err != nil {
		return nil, internal.NewValidationFieldError("role",
			"unknown role: "+dto.Role, internal.ErrCodeValidationFailed)
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRole := target.Role

	if oldRole == newRole {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, id, newRole); err != nil {
		return nil, err
	}
	target.Role = newRole

	actorID := actor.ID
	if err := s.activity.Record(ctx, &actorID, "user.role_changed",
		fmt.Sprintf("user %d role changed from %s to %s", id, oldRole, newRole), "warning"); err != nil {
		s.logger.Error("failed to record role change", "user_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("user role changed",
		"user_id", id, "old_role", oldRole, "new_role", newRole, "changed_by", actor.ID)
	return target, nil
}

// DeactivateUser soft deletes the account. Existing timesheets and audit
// entries keep their author reference.
func (s *Service) DeactivateUser(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionChangeUserRole); err != nil {
		return err
	}
	if actor.ID == id {
		return internal.NewValidationError("cannot deactivate your own account",
			internal.ErrCodeValidationFailed)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	actorID := actor.ID
	if err := s.activity.Record(ctx, &actorID, "user.deactivated",
		fmt.Sprintf("user %d deactivated", id), "warning"); err != nil {
		s.logger.Error("failed to record deactivation", "user_id", id, "error", err)
		return err
	}

	s.logger.Info("user deactivated", "user_id", id, "deactivated_by", actor.ID)
	return nil
}
