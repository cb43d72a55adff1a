package timesheet_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/timesheet"
)

var _ = Describe("Timesheet Handler Integration", func() {
	var (
		handler *timesheet.Handler
		service *timesheet.Service
		router  *chi.Mux

		owner   *auth.User
		manager *auth.User
	)

	asUser := func(u *auth.User) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), u)))
			})
		}
	}

	newRouter := func(u *auth.User) *chi.Mux {
		r := chi.NewRouter()
		r.Use(asUser(u))
		r.Post("/timesheets", handler.CreateTimesheet)
		r.Get("/timesheets/{id}", handler.GetTimesheet)
		r.Patch("/timesheets/{id}", handler.UpdateTimesheet)
		r.Delete("/timesheets/{id}", handler.DeleteTimesheet)
		r.Post("/timesheets/{id}/submit", handler.SubmitTimesheet)
		r.Post("/timesheets/{id}/approve", handler.ApproveTimesheet)
		r.Post("/timesheets/{id}/reject", handler.RejectTimesheet)
		r.Get("/timesheets/{id}/history", handler.GetHistory)
		return r
	}

	createBody := func(date string) *bytes.Buffer {
		payload := map[string]interface{}{
			"work_type":    "NON_PROJECT",
			"activity":     "sprint planning",
			"date_worked":  date,
			"hours_worked": 8,
		}
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		return bytes.NewBuffer(body)
	}

	yesterdayStr := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	BeforeEach(func() {
		mockRepo := newMockTimesheetRepository()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = timesheet.NewService(mockRepo, auth.NewPolicy(), logger)
		handler = timesheet.NewHandler(service)

		owner = &auth.User{ID: 10, Email: "somchai@painai.dev", Role: auth.RoleUser}
		manager = &auth.User{ID: 20, Email: "nok@painai.dev", Role: auth.RoleManager}
		router = newRouter(owner)
	})

	createDraft := func() int64 {
		ts, err := service.CreateTimesheet(context.Background(), owner, timesheet.CreateTimesheetDTO{
			WorkType:    string(timesheet.WorkTypeNonProject),
			Activity:    "sprint planning",
			DateWorked:  timesheet.DateOnly(time.Now().AddDate(0, 0, -2)),
			HoursWorked: 8,
		})
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return ts.ID
	}

	It("should create a timesheet and return 201 with the draft", func() {
		req := httptest.NewRequest(http.MethodPost, "/timesheets", createBody(yesterdayStr))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var created timesheet.Timesheet
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).To(BeNumerically(">", 0))
		Expect(created.Status).To(Equal(timesheet.StatusDraft))
		Expect(created.UserID).To(Equal(owner.ID))
	})

	It("should return 400 for a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/timesheets", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 401 without an authenticated user", func() {
		req := httptest.NewRequest(http.MethodPost, "/timesheets", createBody(yesterdayStr))
		w := httptest.NewRecorder()

		newRouter(nil).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should return 409 for a duplicate date", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/timesheets", createBody(yesterdayStr)))
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/timesheets", createBody(yesterdayStr)))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("should return 404 for an unknown timesheet", func() {
		req := httptest.NewRequest(http.MethodGet, "/timesheets/999", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should return 400 for a non-numeric id", func() {
		req := httptest.NewRequest(http.MethodGet, "/timesheets/abc", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should walk the submit and approve flow over HTTP", func() {
		id := createDraft()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		newRouter(manager).ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/approve", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var approved timesheet.Timesheet
		Expect(json.NewDecoder(w.Body).Decode(&approved)).To(Succeed())
		Expect(approved.Status).To(Equal(timesheet.StatusApproved))
	})

	It("should return 403 when USER rank tries to approve", func() {
		id := createDraft()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/approve", id), nil))
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should require a reason when rejecting", func() {
		id := createDraft()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		body := bytes.NewBufferString(`{"reason": ""}`)
		w = httptest.NewRecorder()
		newRouter(manager).ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/reject", id), body))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return the history trail", func() {
		id := createDraft()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/timesheets/%d/submit", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/timesheets/%d/history", id), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var response struct {
			History []*timesheet.HistoryEntry `json:"history"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.History).To(HaveLen(2))
	})

	It("should delete a draft and return 204", func() {
		id := createDraft()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/timesheets/%d", id), nil))
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/timesheets/%d", id), nil))
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
