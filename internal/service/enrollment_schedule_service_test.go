package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

// confirmedSession drives a fresh session to a Monday 09:00 selection with teacher-a.
func confirmedSession(t *testing.T, f *selectorFixture, req dto.StartScheduleSessionRequest, actorID string, role models.UserRole) string {
	t.Helper()
	ctx := context.Background()
	id := f.startLoaded(t, req, actorID, role)
	view, err := f.svc.Get(ctx, id, actorID, role)
	require.NoError(t, err)
	if view.SelectedTeacherID != "teacher-a" {
		_, err = f.svc.SelectTeacher(ctx, id, dto.SelectTeacherRequest{TeacherID: "teacher-a"}, actorID, role)
		require.NoError(t, err)
	}
	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "MONDAY", Hour: intPtr(9)}, actorID, role)
	require.NoError(t, err)
	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "up"}, actorID, role)
	require.NoError(t, err)
	return id
}

func newEnrollmentFixture(t *testing.T) (*selectorFixture, *EnrollmentScheduleService) {
	f := newSelectorFixture(t)
	svc := NewEnrollmentScheduleService(f.svc, f.enrollments, nil, nil, zap.NewNop(), "")
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) }
	return f, svc
}

func TestEnrollmentScheduleCreateForStudent(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	view, err := svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id, StudentID: "someone-else"}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	require.NotNil(t, f.enrollments.created)
	assert.Equal(t, "student-1", f.enrollments.created.StudentID)
	assert.Equal(t, "course-1", view.Enrollment.CourseID)
	assert.Equal(t, "teacher-a", view.Enrollment.TeacherID)
	assert.Equal(t, models.EnrollmentStatusActive, view.Enrollment.Status)
	assert.True(t, view.Enrollment.IsRecurring)
	assert.Equal(t, "enrollment-new", view.Enrollment.ID)
	assert.Len(t, view.UpcomingClasses, 5)
	assert.Len(t, view.WeeklySchedule, 1)

	assert.Equal(t, 0, f.sessions.Len())
	assert.Contains(t, f.publisher.types(), EventSessionConfirmed)
}

func TestEnrollmentScheduleCreateByStaffRequiresStudent(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "admin-1", models.RoleAdmin)

	_, err := svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id}, "admin-1", models.RoleAdmin)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	view, err := svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id, StudentID: "student-9"}, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "student-9", view.Enrollment.StudentID)
}

func TestEnrollmentScheduleCreateRejections(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	ctx := context.Background()

	_, err := svc.CreateWithSchedule(ctx, dto.CreateEnrollmentScheduleRequest{}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.CreateWithSchedule(ctx, dto.CreateEnrollmentScheduleRequest{SessionID: "x"}, "teacher-1", models.RoleTeacher)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.CreateWithSchedule(ctx, dto.CreateEnrollmentScheduleRequest{SessionID: "missing"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	_, err = svc.CreateWithSchedule(ctx, dto.CreateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
	assert.Nil(t, f.enrollments.created)
}

func TestEnrollmentScheduleCreateKeepsSessionOnPersistFailure(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	f.enrollments.createErr = errors.New("insert enrollment: connection reset")
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
	assert.Equal(t, 1, f.sessions.Len())

	f.enrollments.createErr = nil
	view, err := svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "enrollment-new", view.Enrollment.ID)
	assert.Equal(t, 0, f.sessions.Len())
}

// gatedEnrollmentStore holds the first insert until proceed is closed.
type gatedEnrollmentStore struct {
	*enrollmentStoreStub
	entered chan struct{}
	proceed chan struct{}

	mu      sync.Mutex
	inserts int
}

func (s *gatedEnrollmentStore) CreateWithSchedule(ctx context.Context, enrollment *models.Enrollment, slots []models.EnrollmentWeeklySlot, classes []models.ScheduledClass) error {
	s.mu.Lock()
	s.inserts++
	first := s.inserts == 1
	s.mu.Unlock()
	if first {
		close(s.entered)
		<-s.proceed
	}
	return s.enrollmentStoreStub.CreateWithSchedule(ctx, enrollment, slots, classes)
}

func TestEnrollmentScheduleCreatePersistsSessionOnce(t *testing.T) {
	f := newSelectorFixture(t)
	store := &gatedEnrollmentStore{enrollmentStoreStub: f.enrollments, entered: make(chan struct{}), proceed: make(chan struct{})}
	svc := NewEnrollmentScheduleService(f.svc, store, nil, nil, zap.NewNop(), "")
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	ctx := context.Background()
	req := dto.CreateEnrollmentScheduleRequest{SessionID: id}

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.CreateWithSchedule(ctx, req, "student-1", models.RoleStudent)
	}()
	<-store.entered

	_, err := svc.CreateWithSchedule(ctx, req, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))

	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "MONDAY", Hour: intPtr(10)}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))

	close(store.proceed)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestEnrollmentScheduleUpdateReplacesFromToday(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-b",
		IsRecurring: true, Status: models.EnrollmentStatusActive,
	}
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "enrollment-1"}, "student-1", models.RoleStudent)

	view, err := svc.UpdateWithSchedule(context.Background(), "enrollment-1", dto.UpdateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	require.NotNil(t, f.enrollments.replaced)
	assert.Equal(t, "enrollment-1", f.enrollments.replaced.EnrollmentID)
	assert.Equal(t, "teacher-a", f.enrollments.replaced.TeacherID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), f.enrollments.replaced.From)
	assert.Len(t, f.enrollments.replaced.Classes, 5)
	assert.Equal(t, "teacher-a", view.Enrollment.TeacherID)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestEnrollmentScheduleUpdateRejectsForeignSession(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusActive,
	}
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := svc.UpdateWithSchedule(context.Background(), "enrollment-1", dto.UpdateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.UpdateWithSchedule(context.Background(), "enrollment-1", dto.UpdateEnrollmentScheduleRequest{SessionID: id}, "student-2", models.RoleStudent)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = svc.UpdateWithSchedule(context.Background(), "missing", dto.UpdateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	// the rejected session is still available for a plain enrollment
	_, err = svc.CreateWithSchedule(context.Background(), dto.CreateEnrollmentScheduleRequest{SessionID: id}, "student-1", models.RoleStudent)
	require.NoError(t, err)
}

func TestEnrollmentScheduleUpdateMapsMissingRow(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusActive,
	}
	f.enrollments.replaceErr = sql.ErrNoRows
	id := confirmedSession(t, f, dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "enrollment-1"}, "student-1", models.RoleStudent)

	_, err := svc.UpdateWithSchedule(context.Background(), "enrollment-1", dto.UpdateEnrollmentScheduleRequest{SessionID: id}, "admin-1", models.RoleAdmin)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestEnrollmentScheduleGet(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusActive,
	}
	f.enrollments.slots["enrollment-1"] = []models.EnrollmentWeeklySlot{
		{TeacherID: "teacher-a", DayOfWeek: "MONDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
		{TeacherID: "teacher-a", DayOfWeek: "FUNDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	f.enrollments.classes = []models.ScheduledClass{
		{TeacherID: "teacher-a", ClassDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), DayOfWeek: "MONDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
	}

	view, err := svc.Get(context.Background(), "enrollment-1", dto.EnrollmentScheduleQuery{}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), f.enrollments.from)
	require.Len(t, view.WeeklySchedule, 1)
	assert.Equal(t, "09:00", view.WeeklySchedule[0].StartTime)
	require.Len(t, view.UpcomingClasses, 1)
	assert.Equal(t, dto.ClassInstanceView{Date: "2024-01-15", Weekday: "MONDAY", StartTime: "09:00", EndTime: "10:00", TeacherID: "teacher-a"}, view.UpcomingClasses[0])

	_, err = svc.Get(context.Background(), "enrollment-1", dto.EnrollmentScheduleQuery{}, "student-2", models.RoleStudent)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestEnrollmentScheduleGetUsesStudentTimezone(t *testing.T) {
	f, svc := newEnrollmentFixture(t)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 2, 0, 0, 0, time.UTC) }
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusActive,
	}
	ctx := context.Background()

	_, err := svc.Get(ctx, "enrollment-1", dto.EnrollmentScheduleQuery{Timezone: "America/New_York"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), f.enrollments.from)

	_, err = svc.Get(ctx, "enrollment-1", dto.EnrollmentScheduleQuery{}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), f.enrollments.from)

	_, err = svc.Get(ctx, "enrollment-1", dto.EnrollmentScheduleQuery{Timezone: "Mars/Olympus"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
