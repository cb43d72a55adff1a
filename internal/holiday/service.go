package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/core/cache"
	"github.com/appworkspm/painai/pkg/logger"
)

type RepositoryAPI interface {
	Create(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Holiday, error)
	ListByYear(ctx context.Context, year int) ([]*Holiday, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID *int64, entryType, message, severity string) error
}

// Service serves the holiday calendar. Reads go through the cache keyed
// by year; writes invalidate the affected year.
type Service struct {
	repo     RepositoryAPI
	policy   *auth.Policy
	cache    cache.Cache
	ttl      time.Duration
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, c cache.Cache, ttl time.Duration, activity ActivityRecorder) *Service {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{repo: repo, policy: policy, cache: c, ttl: ttl, activity: activity, logger: lg}
}

func (s *Service) ListHolidays(ctx context.Context, actor *auth.User, year int) ([]*Holiday, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	if year == 0 {
		year = time.Now().Year()
	}

	data, err := s.cache.GetOrCompute(ctx, cacheKey(year), s.ttl, func(ctx context.Context) ([]byte, error) {
		holidays, err := s.repo.ListByYear(ctx, year)
		if err != nil {
			return nil, err
		}
		return json.Marshal(holidays)
	})
	if err != nil {
		return nil, err
	}

	var holidays []*Holiday
	if err := json.Unmarshal(data, &holidays); err != nil {
		return nil, internal.NewInternalError("failed to decode cached holidays", err)
	}
	return holidays, nil
}

func (s *Service) CreateHoliday(ctx context.Context, actor *auth.User, dto CreateHolidayDTO) (*Holiday, error) {
	if err := s.policy.CanPerform(actor, auth.ActionManageHolidays); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	h := &Holiday{
		Date: dto.Date.UTC().Truncate(24 * time.Hour),
		Name: dto.Name,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}
	if err := s.recordChange(ctx, actor, fmt.Sprintf("holiday added: %s (%s)", h.Name, h.Date.Format("2006-01-02"))); err != nil {
		return nil, err
	}

	s.invalidateYear(ctx, h.Date.Year())
	return h, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.CanPerform(actor, auth.ActionManageHolidays); err != nil {
		return err
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.recordChange(ctx, actor, fmt.Sprintf("holiday removed: %s (%s)", h.Name, h.Date.Format("2006-01-02"))); err != nil {
		return err
	}

	s.invalidateYear(ctx, h.Date.Year())
	return nil
}

// recordChange writes the calendar audit entry. A failed append fails the
// mutation so calendar changes stay explainable.
func (s *Service) recordChange(ctx context.Context, actor *auth.User, message string) error {
	actorID := actor.ID
	if err := s.activity.Record(ctx, &actorID, "holiday.changed", message, "info"); err != nil {
		s.logger.Error("failed to record holiday change", "error", err)
		return err
	}
	return nil
}

func (s *Service) invalidateYear(ctx context.Context, year int) {
	if err := s.cache.Invalidate(ctx, cacheKey(year)); err != nil {
		s.logger.Warn("failed to invalidate holiday cache", "year", year, "error", err)
	}
}

func cacheKey(year int) string {
	return fmt.Sprintf("holidays:%d", year)
}
