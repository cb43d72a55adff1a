package holiday_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/appworkspm/painai/internal"
	"github.com/appworkspm/painai/internal/auth"
	"github.com/appworkspm/painai/internal/core/cache"
	"github.com/appworkspm/painai/internal/holiday"
)

func TestHoliday(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Holiday Module Suite")
}

type mockHolidayRepository struct {
	holidays  map[int64]*holiday.Holiday
	nextID    int64
	listCalls int
}

func newMockHolidayRepository() *mockHolidayRepository {
	return &mockHolidayRepository{
		holidays: make(map[int64]*holiday.Holiday),
		nextID:   1,
	}
}

func (m *mockHolidayRepository) Create(ctx context.Context, h *holiday.Holiday) error {
	for _, existing := range m.holidays {
		if existing.Date.Equal(h.Date) {
			return internal.NewConflictError("holiday already exists on that date", internal.ErrCodeDuplicateDate)
		}
	}
	h.ID = m.nextID
	m.nextID++
	h.CreatedAt = time.Now()
	m.holidays[h.ID] = h
	return nil
}

func (m *mockHolidayRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.holidays[id]; !ok {
		return internal.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

func (m *mockHolidayRepository) GetByID(ctx context.Context, id int64) (*holiday.Holiday, error) {
	h, ok := m.holidays[id]
	if !ok {
		return nil, internal.ErrHolidayNotFound
	}
	return h, nil
}

func (m *mockHolidayRepository) ListByYear(ctx context.Context, year int) ([]*holiday.Holiday, error) {
	m.listCalls++
	var result []*holiday.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			result = append(result, h)
		}
	}
	return result, nil
}

type mockRecorder struct {
	messages []string
	failErr  error
}

func (m *mockRecorder) Record(ctx context.Context, userID *int64, entryType, message, severity string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.messages = append(m.messages, message)
	return nil
}

var _ = Describe("HolidayService", func() {
	var (
		service  *holiday.Service
		mockRepo *mockHolidayRepository
		recorder *mockRecorder
		ctx      context.Context

		user  *auth.User
		admin *auth.User
	)

	songkran := time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		mockRepo = newMockHolidayRepository()
		recorder = &mockRecorder{}
		service = holiday.NewService(mockRepo, auth.NewPolicy(), cache.NewMemoryCache(), time.Hour, recorder)
		ctx = context.Background()

		user = &auth.User{ID: 10, Email: "somchai@painai.dev", Role: auth.RoleUser}
		admin = &auth.User{ID: 1, Email: "lek@painai.dev", Role: auth.RoleAdmin}
	})

	Describe("CreateHoliday", func() {
		It("should create a holiday, admin-only", func() {
			h, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{
				Date: songkran,
				Name: "Songkran",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(h.ID).To(BeNumerically(">", 0))
			Expect(h.Name).To(Equal("Songkran"))
			Expect(recorder.messages).To(HaveLen(1))
			Expect(recorder.messages[0]).To(ContainSubstring("2026-04-13"))
		})

		It("should fail the mutation when the audit append fails", func() {
			recorder.failErr = errors.New("activity_logs table unavailable")

			_, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{
				Date: songkran,
				Name: "Songkran",
			})
			Expect(err).To(MatchError(recorder.failErr))
		})

		It("should deny USER rank", func() {
			_, err := service.CreateHoliday(ctx, user, holiday.CreateHolidayDTO{
				Date: songkran,
				Name: "Songkran",
			})
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})

		It("should require a name", func() {
			_, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: songkran})
			Expect(err).To(HaveOccurred())
		})

		It("should surface duplicate dates", func() {
			_, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: songkran, Name: "Songkran"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: songkran, Name: "Songkran again"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListHolidays", func() {
		BeforeEach(func() {
			_, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: songkran, Name: "Songkran"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be readable by any authenticated user", func() {
			holidays, err := service.ListHolidays(ctx, user, 2026)

			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(HaveLen(1))
			Expect(holidays[0].Name).To(Equal("Songkran"))
		})

		It("should serve repeat reads from the cache", func() {
			_, err := service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())

			Expect(mockRepo.listCalls).To(Equal(1))
		})

		It("should refresh the year after a write", func() {
			_, err := service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())

			newYear := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err = service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: newYear, Name: "New Year"})
			Expect(err).NotTo(HaveOccurred())

			holidays, err := service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(HaveLen(2))
		})

		It("should deny an unauthenticated caller", func() {
			_, err := service.ListHolidays(ctx, nil, 2026)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})
	})

	Describe("DeleteHoliday", func() {
		It("should delete and invalidate the cached year", func() {
			h, err := service.CreateHoliday(ctx, admin, holiday.CreateHolidayDTO{Date: songkran, Name: "Songkran"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteHoliday(ctx, admin, h.ID)).To(Succeed())

			holidays, err := service.ListHolidays(ctx, user, 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(holidays).To(BeEmpty())
		})

		It("should return not-found for a missing holiday", func() {
			err := service.DeleteHoliday(ctx, admin, 999)
			Expect(err).To(MatchError(internal.ErrHolidayNotFound))
		})

		It("should deny USER rank", func() {
			err := service.DeleteHoliday(ctx, user, 1)
			Expect(err).To(MatchError(internal.ErrInsufficientRank))
		})
	})
})
