package timesheet

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateTimesheet(ctx context.Context, actor *auth.User, dto CreateTimesheetDTO) (*Timesheet, error)
	UpdateTimesheet(ctx context.Context, id int64, actor *auth.User, dto UpdateTimesheetDTO) (*Timesheet, error)
	SubmitTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error)
	ApproveTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error)
	RejectTimesheet(ctx context.Context, id int64, actor *auth.User, reason string) (*Timesheet, error)
	DeleteTimesheet(ctx context.Context, id int64, actor *auth.User) error
	GetTimesheet(ctx context.Context, id int64, actor *auth.User) (*Timesheet, error)
	ListTimesheets(ctx context.Context, actor *auth.User, filter ListFilter) (*ListResult, error)
	GetHistory(ctx context.Context, id int64, actor *auth.User) ([]*HistoryEntry, error)
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

func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateTimesheetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts, err := h.Service.CreateTimesheet(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ts)
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	ts, err := h.Service.GetTimesheet(r.Context(), id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := parseListFilter(r)
	result, err := h.Service.ListTimesheets(r.Context(), user, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) UpdateTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	var dto UpdateTimesheetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts, err := h.Service.UpdateTimesheet(r.Context(), id, user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) DeleteTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	if err := h.Service.DeleteTimesheet(r.Context(), id, user); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	ts, err := h.Service.SubmitTimesheet(r.Context(), id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	ts, err := h.Service.ApproveTimesheet(r.Context(), id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("timesheet approved", "timesheet_id", id, "approver_id", user.ID)
	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) RejectTimesheet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	var dto RejectTimesheetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	ts, err := h.Service.RejectTimesheet(r.Context(), id, user, dto.Reason)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("timesheet rejected", "timesheet_id", id, "approver_id", user.ID)
	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.timesheetID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid timesheet ID")
		return
	}

	entries, err := h.Service.GetHistory(r.Context(), id, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (h *Handler) timesheetID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseListFilter(r *http.Request) ListFilter {
	q := r.URL.Query()
	filter := ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}

	if v, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil {
		filter.UserID = v
	}
	if v, err := strconv.ParseInt(q.Get("project_id"), 10, 64); err == nil {
		filter.ProjectID = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("date_from")); err == nil {
		filter.DateFrom = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("date_to")); err == nil {
		filter.DateTo = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}

	return filter
}
