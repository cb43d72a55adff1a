package activitylog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/core/events"
	"github.com/appworkspm/painai/pkg/logger"
)

type RepositoryAPI interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
}

// ListFilter narrows activity log queries. Zero values mean no filtering.
type ListFilter struct {
	UserID   int64
	Type     string
	Severity string
	Page     int
	Limit    int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Entries []*Entry `json:"entries"`
	Total   int64    `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

type Service struct {
	repo   RepositoryAPI
	policy *auth.Policy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy) *Service {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{repo: repo, policy: policy, logger: lg}
}

// Record appends one entry to the activity log. It satisfies the recorder
// interfaces the workflow services depend on.
func (s *Service) Record(ctx context.Context, userID *int64, entryType, message, severity string) error {
	if severity == "" {
		severity = SeverityInfo
	}
	entry := &Entry{
		UserID:   userID,
		Type:     entryType,
		Message:  message,
		Severity: severity,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record activity", "type", entryType, "error", err)
		return err
	}
	return nil
}

// ListActivities returns activity entries; viewing someone else's trail
// needs admin access.
func (s *Service) ListActivities(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorizedAccess
	}
	if filter.UserID == 0 || filter.UserID != actor.ID {
		if err := s.policy.CanPerform(actor, auth.ActionListUsers); err != nil {
			return nil, err
		}
	}
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// SubscribeTo wires the recorder into the event bus so login events land in
// the activity trail. Administrative changes are recorded synchronously by
// their services, not through the bus: those entries must not be lost.
func (s *Service) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(events.EventUserLoggedIn, func(ctx context.Context, ev events.Event) error {
		data, ok := ev.Payload().(map[string]interface{})
		if !ok {
			return nil
		}
		userID := payloadInt64(data, "user_id")
		email, _ := data["email"].(string)
		return s.Record(ctx, userID, TypeUserLogin, fmt.Sprintf("user logged in: %s", email), SeverityInfo)
	})
}

func payloadInt64(data map[string]interface{}, key string) *int64 {
	if v, ok := data[key].(int64); ok {
		return &v
	}
	return nil
}
