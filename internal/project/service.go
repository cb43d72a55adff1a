package project

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
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id int64) (*Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID *int64, entryType, message, severity string) error
}

// Service covers the project catalog. Reads are open to any authenticated
// user so timesheet entry can reference projects; writes need MANAGER rank.
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

func (s *Service) CreateProject(ctx context.Context, actor *auth.User, dto CreateProjectDTO) (*Project, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageProjects); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	status := StatusActive
	if dto.Status != "" {
		status = Status(dto.Status)
	}

	p := &Project{
		JobCode:      strings.ToUpper(strings.TrimSpace(dto.JobCode)),
		Name:         strings.TrimSpace(dto.Name),
		CustomerName: strings.TrimSpace(dto.CustomerName),
		Budget:       dto.Budget,
		PaymentTerm:  dto.PaymentTerm,
		Status:       status,
		ManagerID:    dto.ManagerID,
		StartDate:    dto.StartDate,
		EndDate:      dto.EndDate,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, actor, fmt.Sprintf("project created: %s (%s)", p.Name, p.JobCode)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, actor *auth.User, id int64) (*Project, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListProjects(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) UpdateProject(ctx context.Context, actor *auth.User, id int64, dto UpdateProjectDTO) (*Project, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageProjects); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(p, dto)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	if err := s.recordChange(ctx, actor, fmt.Sprintf("project updated: %s (%s)", p.Name, p.JobCode)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageProjects); err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	return s.recordChange(ctx, actor, fmt.Sprintf("project deleted: %s (%s)", p.Name, p.JobCode))
}

// recordChange writes the catalog audit entry. A failed append fails the
// mutation: catalog changes must stay explainable.
func (s *Service) recordChange(ctx context.Context, actor *auth.User, message string) error {
	actorID := actor.ID
	if err := s.activity.Record(ctx, &actorID, "project.changed", message, "info"); err != nil {
		s.logger.Error("failed to record project activity", "error", err)
		return err
	}
	return nil
}

func applyPatch(p *Project, dto UpdateProjectDTO) {
	if dto.Name != nil {
		p.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.CustomerName != nil {
		p.CustomerName = strings.TrimSpace(*dto.CustomerName)
	}
	if dto.Budget != nil {
		p.Budget = *dto.Budget
	}
	if dto.PaymentTerm != nil {
		p.PaymentTerm = *dto.PaymentTerm
	}
	if dto.Status != nil {
		p.Status = Status(*dto.Status)
	}
	if dto.ManagerID != nil {
		p.ManagerID = dto.ManagerID
	}
	if dto.StartDate != nil {
		p.StartDate = dto.StartDate
	}
	if dto.EndDate != nil {
		p.EndDate = dto.EndDate
	}
}
