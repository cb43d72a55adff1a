package timesheet_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/timesheet"
)

// Mock repository: Mutate and Delete run their guards against the in-memory
// row the way the real repository does inside a transaction. Delete appends
// its audit record atomically: when auditErr is set the whole delete fails
// and the row survives, mirroring the transactional rollback.
type mockTimesheetRepository struct {
	timesheets map[int64]*timesheet.Timesheet
	history    map[int64][]*timesheet.HistoryEntry
	audits     []deleteAudit
	createErr  error
	auditErr   error
	nextID     int64
}

type deleteAudit struct {
	timesheetID int64
	actorID     int64
}

func newMockTimesheetRepository() *mockTimesheetRepository {
	return &mockTimesheetRepository{
		timesheets: make(map[int64]*timesheet.Timesheet),
		history:    make(map[int64][]*timesheet.HistoryEntry),
		nextID:     1,
	}
}

func (m *mockTimesheetRepository) Create(ctx context.Context, ts *timesheet.Timesheet) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.timesheets {
		if existing.UserID == ts.UserID &&
			existing.DateWorked.Equal(ts.DateWorked) &&
			existing.Status != timesheet.StatusRejected {
			return internal.ErrDuplicateDate
		}
	}
	ts.ID = m.nextID
	m.nextID++
	ts.CreatedAt = time.Now()
	ts.UpdatedAt = ts.CreatedAt
	m.timesheets[ts.ID] = ts
	m.appendHistory(ts.ID, ts.UserID, timesheet.ActionCreate)
	return nil
}

func (m *mockTimesheetRepository) GetByID(ctx context.Context, id int64) (*timesheet.Timesheet, error) {
	ts, ok := m.timesheets[id]
	if !ok {
		return nil, internal.ErrTimesheetNotFound
	}
	copied := *ts
	return &copied, nil
}

func (m *mockTimesheetRepository) Mutate(ctx context.Context, id, actorID int64, fn timesheet.MutateFunc) (*timesheet.Timesheet, error) {
	ts, ok := m.timesheets[id]
	if !ok {
		return nil, internal.ErrTimesheetNotFound
	}
	working := *ts
	action, err := fn(&working)
	if err != nil {
		return nil, err
	}
	m.timesheets[id] = &working
	m.appendHistory(id, actorID, action)
	copied := working
	return &copied, nil
}

func (m *mockTimesheetRepository) Delete(ctx context.Context, id, actorID int64, guard func(ts *timesheet.Timesheet) error) error {
	ts, ok := m.timesheets[id]
	if !ok {
		return internal.ErrTimesheetNotFound
	}
	if err := guard(ts); err != nil {
		return err
	}
	if m.auditErr != nil {
		return m.auditErr
	}
	delete(m.timesheets, id)
	delete(m.history, id)
	m.audits = append(m.audits, deleteAudit{timesheetID: id, actorID: actorID})
	return nil
}

func (m *mockTimesheetRepository) List(ctx context.Context, filter timesheet.ListFilter) ([]*timesheet.Timesheet, int64, error) {
	var rows []*timesheet.Timesheet
	for _, ts := range m.timesheets {
		if filter.UserID != 0 && ts.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(ts.Status) != filter.Status {
			continue
		}
		copied := *ts
		rows = append(rows, &copied)
	}
	return rows, int64(len(rows)), nil
}

func (m *mockTimesheetRepository) History(ctx context.Context, timesheetID int64) ([]*timesheet.HistoryEntry, error) {
	return m.history[timesheetID], nil
}

func (m *mockTimesheetRepository) appendHistory(timesheetID, actorID int64, action timesheet.HistoryAction) {
	m.history[timesheetID] = append(m.history[timesheetID], &timesheet.HistoryEntry{
		ID:          int64(len(m.history[timesheetID]) + 1),
		TimesheetID: timesheetID,
		UserID:      actorID,
		Action:      action,
		CreatedAt:   time.Now(),
	})
}

var _ = Describe("TimesheetService", func() {
	var (
		service  *timesheet.Service
		mockRepo *mockTimesheetRepository
		ctx      context.Context

		owner   *auth.User
		other   *auth.User
		manager *auth.User
	)

	yesterday := timesheet.DateOnly(time.Now().AddDate(0, 0, -1).Truncate(24 * time.Hour))

	validCreateDTO := func() timesheet.CreateTimesheetDTO {
		return timesheet.CreateTimesheetDTO{
			WorkType:    string(timesheet.WorkTypeNonProject),
			Activity:    "sprint planning",
			DateWorked:  yesterday,
			HoursWorked: 8,
		}
	}

	BeforeEach(func() {
		mockRepo = newMockTimesheetRepository()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = timesheet.NewService(mockRepo, auth.NewPolicy(), logger)
		ctx = context.Background()

		owner = &auth.User{ID: 10, Email: "somchai@painai.dev", Role: auth.RoleUser}
		other = &auth.User{ID: 11, Email: "prayut@painai.dev", Role: auth.RoleUser}
		manager = &auth.User{ID: 20, Email: "nok@painai.dev", Role: auth.RoleManager}
	})

	Describe("CreateTimesheet", func() {
		It("should create a draft with billable defaulting to true", func() {
			ts, err := service.CreateTimesheet(ctx, owner, validCreateDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(ts.ID).To(BeNumerically(">", 0))
			Expect(ts.UserID).To(Equal(owner.ID))
			Expect(ts.Status).To(Equal(timesheet.StatusDraft))
			Expect(ts.Billable).To(BeTrue())
		})

		It("should round hours to two decimals", func() {
			dto := validCreateDTO()
			dto.HoursWorked = 7.999
			dto.OvertimeHours = 1.001

			ts, err := service.CreateTimesheet(ctx, owner, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(ts.HoursWorked).To(BeNumerically("~", 8.0, 0.0001))
			Expect(ts.OvertimeHours).To(BeNumerically("~", 1.0, 0.0001))
		})

		It("should record a create entry in the history", func() {
			ts, err := service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			entries, err := mockRepo.History(ctx, ts.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Action).To(Equal(timesheet.ActionCreate))
		})

		It("should reject a missing activity", func() {
			dto := validCreateDTO()
			dto.Activity = ""

			_, err := service.CreateTimesheet(ctx, owner, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should require a project for project work", func() {
			dto := validCreateDTO()
			dto.WorkType = string(timesheet.WorkTypeProject)

			_, err := service.CreateTimesheet(ctx, owner, dto)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("project_id"))
		})

		It("should reject out-of-range hours", func() {
			dto := validCreateDTO()
			dto.HoursWorked = 25

			_, err := service.CreateTimesheet(ctx, owner, dto)
			Expect(err).To(HaveOccurred())
		})

		It("should surface a duplicate date as a conflict", func() {
			_, err := service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).To(MatchError(internal.ErrDuplicateDate))
		})
	})

	Describe("UpdateTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should patch only the provided fields", func() {
			hours := 6.5
			updated, err := service.UpdateTimesheet(ctx, ts.ID, owner, timesheet.UpdateTimesheetDTO{
				HoursWorked: &hours,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.HoursWorked).To(Equal(6.5))
			Expect(updated.Activity).To(Equal("sprint planning"))
		})

		It("should deny non-owners even at higher rank", func() {
			desc := "sneaky edit"
			_, err := service.UpdateTimesheet(ctx, ts.ID, manager, timesheet.UpdateTimesheetDTO{
				Description: &desc,
			})

			Expect(err).To(MatchError(internal.ErrNotOwner))
		})

		It("should refuse updates once submitted", func() {
			_, err := service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())

			hours := 4.0
			_, err = service.UpdateTimesheet(ctx, ts.ID, owner, timesheet.UpdateTimesheetDTO{
				HoursWorked: &hours,
			})

			Expect(err).To(MatchError(internal.ErrCannotModifyTimesheet))
		})

		It("should re-validate hours after applying the patch", func() {
			overtime := -2.0
			_, err := service.UpdateTimesheet(ctx, ts.ID, owner, timesheet.UpdateTimesheetDTO{
				OvertimeHours: &overtime,
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SubmitTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should submit a draft and append history", func() {
			submitted, err := service.SubmitTimesheet(ctx, ts.ID, owner)

			Expect(err).NotTo(HaveOccurred())
			Expect(submitted.Status).To(Equal(timesheet.StatusSubmitted))

			entries, _ := mockRepo.History(ctx, ts.ID)
			Expect(entries[len(entries)-1].Action).To(Equal(timesheet.ActionSubmit))
		})

		It("should return already-submitted on a repeat submit", func() {
			_, err := service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).To(MatchError(internal.ErrAlreadySubmitted))
		})

		It("should deny non-owners", func() {
			_, err := service.SubmitTimesheet(ctx, ts.ID, other)
			Expect(err).To(MatchError(internal.ErrNotOwner))
		})
	})

	Describe("ApproveTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should let a manager approve a submitted timesheet", func() {
			approved, err := service.ApproveTimesheet(ctx, ts.ID, manager)

			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(timesheet.StatusApproved))
			Expect(approved.ProcessedBy).To(HaveValue(Equal(manager.ID)))

			entries, _ := mockRepo.History(ctx, ts.ID)
			Expect(entries[len(entries)-1].Action).To(Equal(timesheet.ActionApprove))
			Expect(entries[len(entries)-1].UserID).To(Equal(manager.ID))
		})

		It("should deny USER rank", func() {
			_, err := service.ApproveTimesheet(ctx, ts.ID, owner)
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})

		It("should refuse to approve twice", func() {
			_, err := service.ApproveTimesheet(ctx, ts.ID, manager)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ApproveTimesheet(ctx, ts.ID, manager)
			Expect(err).To(MatchError(internal.ErrInvalidTimesheetStatus))
		})
	})

	Describe("RejectTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject with a reason", func() {
			rejected, err := service.RejectTimesheet(ctx, ts.ID, manager, "hours do not match the sprint log")

			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(timesheet.StatusRejected))
			Expect(rejected.RejectionReason).To(HaveValue(ContainSubstring("sprint log")))
		})

		It("should require a reason before touching the row", func() {
			_, err := service.RejectTimesheet(ctx, ts.ID, manager, "")

			Expect(err).To(MatchError(internal.ErrReasonMissing))

			current, getErr := service.GetTimesheet(ctx, ts.ID, manager)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(current.Status).To(Equal(timesheet.StatusSubmitted))
		})

		It("should deny USER rank", func() {
			_, err := service.RejectTimesheet(ctx, ts.ID, owner, "self-rejection")
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})

		It("should allow a new entry for the same date after rejection", func() {
			_, err := service.RejectTimesheet(ctx, ts.ID, manager, "wrong project")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("DeleteTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should hard-delete a draft and record it in the activity log", func() {
			Expect(service.DeleteTimesheet(ctx, ts.ID, owner)).To(Succeed())

			_, err := service.GetTimesheet(ctx, ts.ID, owner)
			Expect(err).To(MatchError(internal.ErrTimesheetNotFound))

			Expect(mockRepo.audits).To(HaveLen(1))
			Expect(mockRepo.audits[0].timesheetID).To(Equal(ts.ID))
			Expect(mockRepo.audits[0].actorID).To(Equal(owner.ID))
		})

		It("should fail the delete when the audit append fails", func() {
			mockRepo.auditErr = errors.New("activity_logs table unavailable")

			err := service.DeleteTimesheet(ctx, ts.ID, owner)
			Expect(err).To(MatchError(mockRepo.auditErr))

			kept, err := service.GetTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(kept.ID).To(Equal(ts.ID))
		})

		It("should refuse to delete a submitted timesheet", func() {
			_, err := service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())

			err = service.DeleteTimesheet(ctx, ts.ID, owner)
			Expect(err).To(MatchError(internal.ErrCannotModifyTimesheet))
		})

		It("should deny non-owners", func() {
			err := service.DeleteTimesheet(ctx, ts.ID, manager)
			Expect(err).To(MatchError(internal.ErrNotOwner))
		})
	})

	Describe("GetTimesheet", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be visible to the owner", func() {
			got, err := service.GetTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(ts.ID))
		})

		It("should be visible to MANAGER rank and above", func() {
			_, err := service.GetTimesheet(ctx, ts.ID, manager)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be hidden from other USER rank users", func() {
			_, err := service.GetTimesheet(ctx, ts.ID, other)
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})
	})

	Describe("ListTimesheets", func() {
		BeforeEach(func() {
			_, err := service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := validCreateDTO()
			_, err = service.CreateTimesheet(ctx, other, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should scope USER rank to their own rows regardless of the filter", func() {
			result, err := service.ListTimesheets(ctx, owner, timesheet.ListFilter{UserID: other.ID})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(1)))
			Expect(result.Timesheets[0].UserID).To(Equal(owner.ID))
		})

		It("should let managers see everything", func() {
			result, err := service.ListTimesheets(ctx, manager, timesheet.ListFilter{})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))
		})

		It("should let managers filter to a specific user", func() {
			result, err := service.ListTimesheets(ctx, manager, timesheet.ListFilter{UserID: other.ID})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(1)))
			Expect(result.Timesheets[0].UserID).To(Equal(other.ID))
		})

		It("should normalize page and limit", func() {
			result, err := service.ListTimesheets(ctx, manager, timesheet.ListFilter{Page: 0, Limit: 0})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Page).To(Equal(1))
			Expect(result.Limit).To(Equal(20))
		})
	})

	Describe("GetHistory", func() {
		var ts *timesheet.Timesheet

		BeforeEach(func() {
			var err error
			ts, err = service.CreateTimesheet(ctx, owner, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SubmitTimesheet(ctx, ts.ID, owner)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ApproveTimesheet(ctx, ts.ID, manager)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the full trail in order for the owner", func() {
			entries, err := service.GetHistory(ctx, ts.ID, owner)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Action).To(Equal(timesheet.ActionCreate))
			Expect(entries[1].Action).To(Equal(timesheet.ActionSubmit))
			Expect(entries[2].Action).To(Equal(timesheet.ActionApprove))
		})

		It("should apply the same visibility rules as GetTimesheet", func() {
			_, err := service.GetHistory(ctx, ts.ID, other)
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})
	})
})
