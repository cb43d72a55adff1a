package activitylog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/transport"
)

type ServiceAPI interface {
	ListActivities(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     service,
	}
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Type:     q.Get("type"),
		Severity: q.Get("severity"),
	}
	if v, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil {
		filter.UserID = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}

	result, err := h.Service.ListActivities(r.Context(), user, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
