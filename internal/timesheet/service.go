package timesheet

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
)

// MutateFunc applies a guarded change to a locked timesheet row and names the
// history action to record. Returning an error rolls the transaction back.
type MutateFunc func(ts *Timesheet) (HistoryAction, error)

// RepositoryAPI is the transactional store behind the workflow. Every mutating
// method runs guard re-check, write and history append atomically; a failed
// history append fails the whole operation. Delete removes the row with its
// per-timesheet history and writes the system activity entry in the same
// transaction, so the deletion never goes unrecorded.
type RepositoryAPI interface {
	Create(ctx context.Context, ts *Timesheet) error
	GetByID(ctx context.Context, id int64) (*Timesheet, error)
	Mutate(ctx context.Context, id, actorID int64, fn MutateFunc) (*Timesheet, error)
	Delete(ctx context.Context, id, actorID int64, guard func(ts *Timesheet) error) error
	List(ctx context.Context, filter ListFilter) ([]*Timesheet, int64, error)
	History(ctx context.Context, timesheetID int64) ([]*HistoryEntry, error)
}

// Service orchestrates the approval workflow: policy check, state transition
// and history append, in that order, all inside one repository transaction.
type Service struct {
	repo   RepositoryAPI
	policy *auth.Policy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// CreateTimesheet validates the payload and inserts a draft. The repository
// enforces (owner, date) uniqueness against non-rejected rows; the loser of a
// concurrent race gets ErrDuplicateDate.
func (s *Service) CreateTimesheet(ctx context.Context, actor *auth.User, dto CreateTimesheetDTO) (*Timesheet, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("timesheet validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}
	if err := ValidateHours(dto.HoursWorked, dto.OvertimeHours); err != nil {
		return nil, err
	}

	billable := true
	if dto.Billable != nil {
		billable = *dto.Billable
	}

	ts := &Timesheet{
		UserID:        actor.ID,
		ProjectID:     dto.ProjectID,
		WorkType:      WorkType(dto.WorkType),
		SubType:       dto.SubType,
		Activity:      dto.Activity,
		Description:   dto.Description,
		DateWorked:    dto.DateWorked.Time(),
		HoursWorked:   roundHours(dto.HoursWorked),
		OvertimeHours: roundHours(dto.OvertimeHours),
		Billable:      billable,
		HourlyRate:    dto.HourlyRate,
		Status:        StatusDraft,
	}

	if err := s.repo.Create(ctx, ts); err != nil {
		s.logger.Error("failed to create timesheet", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("timesheet created",
		"timesheet_id", ts.ID,
		"user_id", actor.ID,
		"date_worked", ts.DateWorked.Format("2006-01-02"),
		"hours", ts.HoursWorked)

	return ts, nil
}

// UpdateTimesheet patches a draft. Only the owner may update, and only while
// the status is draft; rank never overrides ownership here.
func (s *Service) UpdateTimesheet(ctx context.Context, id int64, actor *auth.User, dto UpdateTimesheetDTO) (*Timesheet, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Mutate(ctx, id, actor.ID, func(ts *Timesheet) (HistoryAction, error) {
		if err := s.policy.CanActOnOwn(actor, ts.UserID); err != nil {
			return "", err
		}
		if !ts.CanModify() {
			return "", internal.ErrCannotModifyTimesheet
		}

		applyPatch(ts, dto)

		if err := ValidateHours(ts.HoursWorked, ts.OvertimeHours); err != nil {
			return "", err
		}
		return ActionUpdate, nil
	})
}

// SubmitTimesheet moves a draft into review.
func (s *Service) SubmitTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error) {
	ts, err := s.repo.Mutate(ctx, id, actor.ID, func(ts *Timesheet) (HistoryAction, error) {
		if err := s.policy.CanActOnOwn(actor, ts.UserID); err != nil {
			return "", err
		}
		if err := ts.Submit(); err != nil {
			return "", err
		}
		return ActionSubmit, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timesheet submitted", "timesheet_id", id, "user_id", actor.ID)
	return ts, nil
}

// ApproveTimesheet requires MANAGER rank or above.
func (s *Service) ApproveTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error) {
	if err := s.policy.CanPerform(actor, auth.ActionApproveTimesheet); err != nil {
		s.logger.Warn("approve denied", "timesheet_id", id, "actor_id", actor.ID, "role", actor.Role)
		return nil, err
	}

	ts, err := s.repo.Mutate(ctx, id, actor.ID, func(ts *Timesheet) (HistoryAction, error) {
		if err := ts.Approve(actor.ID); err != nil {
			return "", err
		}
		return ActionApprove, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timesheet approved", "timesheet_id", id, "approver_id", actor.ID)
	return ts, nil
}

// RejectTimesheet requires MANAGER rank or above and a non-empty reason.
func (s *Service) RejectTimesheet(ctx context.Context, id int64, actor *auth.User, reason string) (*Timesheet, error) {
	if err := s.policy.CanPerform(actor, auth.ActionRejectTimesheet); err != nil {
		s.logger.Warn("reject denied", "timesheet_id", id, "actor_id", actor.ID, "role", actor.Role)
		return nil, err
	}
	if reason == "" {
		return nil, internal.ErrReasonMissing
	}

	ts, err := s.repo.Mutate(ctx, id, actor.ID, func(ts *Timesheet) (HistoryAction, error) {
		if err := ts.Reject(actor.ID, reason); err != nil {
			return "", err
		}
		return ActionReject, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timesheet rejected", "timesheet_id", id, "approver_id", actor.ID, "reason", reason)
	return ts, nil
}

// DeleteTimesheet hard-deletes a draft. Submitted and processed timesheets are
// never deleted. The per-timesheet history cascades away with the row, so the
// repository writes the activity entry for the deletion inside the same
// transaction; if that append fails, the delete rolls back.
func (s *Service) DeleteTimesheet(ctx context.Context, id int64, actor *auth.User) error {
	err := s.repo.Delete(ctx, id, actor.ID, func(ts *Timesheet) error {
		if err := s.policy.CanActOnOwn(actor, ts.UserID); err != nil {
			return err
		}
		if !ts.CanDelete() {
			return internal.ErrCannotModifyTimesheet
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("timesheet deleted", "timesheet_id", id, "user_id", actor.ID)
	return nil
}

// GetTimesheet returns a single timesheet, visible to its owner and to
// MANAGER rank and above.
func (s *Service) GetTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error) {
	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ts.UserID != actor.ID {
		if err := s.policy.CanPerform(actor, auth.ActionViewAllTimesheets); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// ListTimesheets applies visibility scoping before querying: USER rank only
// ever sees its own rows, regardless of the requested filter.
func (s *Service) ListTimesheets(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error) {
	filter.Normalize()

	if s.policy.CanPerform(actor, auth.ActionViewAllTimesheets) != nil {
		filter.UserID = actor.ID
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list timesheets", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	return &ListResult{
		Timesheets: rows,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// GetHistory returns the ordered audit trail for a timesheet the actor may see.
func (s *Service) GetHistory(ctx context.Context, id int64, actor *auth.User) ([]*HistoryEntry, error) {
	if _, err := s.GetTimesheet(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func applyPatch(ts *Timesheet, dto UpdateTimesheetDTO) {
	if dto.ProjectID != nil {
		ts.ProjectID = dto.ProjectID
	}
	if dto.WorkType != nil {
		ts.WorkType = WorkType(*dto.WorkType)
	}
	if dto.SubType != nil {
		ts.SubType = *dto.SubType
	}
	if dto.Activity != nil {
		ts.Activity = *dto.Activity
	}
	if dto.Description != nil {
		ts.Description = *dto.Description
	}
	if dto.DateWorked != nil {
		ts.DateWorked = dto.DateWorked.Time()
	}
	if dto.HoursWorked != nil {
		ts.HoursWorked = roundHours(*dto.HoursWorked)
	}
	if dto.OvertimeHours != nil {
		ts.OvertimeHours = roundHours(*dto.OvertimeHours)
	}
	if dto.Billable != nil {
		ts.Billable = *dto.Billable
	}
	if dto.HourlyRate != nil {
		ts.HourlyRate = *dto.HourlyRate
	}
}

// Snapshot serializes the current state for a history row.
func Snapshot(ts *Timesheet) string {
	b, err := json.Marshal(ts)
	if err != nil {
		return ""
	}
	return string(b)
}
