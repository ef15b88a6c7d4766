package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/repository"
	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
	"github.com/noah-isme/lingo-schedule-api/pkg/export"
	"github.com/noah-isme/lingo-schedule-api/pkg/jobs"
	"github.com/noah-isme/lingo-schedule-api/pkg/realtime"
)

type courseStub struct {
	courses map[string]*models.Course
	err     error
}

func (s courseStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.err != nil {
		return nil, s.err
	}
	course, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

type periodStub struct {
	period *models.AcademicPeriod
}

func (s periodStub) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	if s.period == nil || s.period.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.period, nil
}

type enrollmentStoreStub struct {
	enrollments map[string]*models.Enrollment
	slots       map[string][]models.EnrollmentWeeklySlot
	classes     []models.ScheduledClass
	createErr   error
	replaceErr  error

	created  *models.Enrollment
	replaced *repository.ScheduleReplacement
	from     time.Time
}

func newEnrollmentStoreStub() *enrollmentStoreStub {
	return &enrollmentStoreStub{
		enrollments: map[string]*models.Enrollment{},
		slots:       map[string][]models.EnrollmentWeeklySlot{},
	}
}

func (s *enrollmentStoreStub) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, ok := s.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *enrollment
	return &copied, nil
}

func (s *enrollmentStoreStub) ListWeeklySlots(ctx context.Context, enrollmentID string) ([]models.EnrollmentWeeklySlot, error) {
	return s.slots[enrollmentID], nil
}

func (s *enrollmentStoreStub) ListClasses(ctx context.Context, enrollmentID string, from time.Time) ([]models.ScheduledClass, error) {
	s.from = from
	return s.classes, nil
}

func (s *enrollmentStoreStub) CreateWithSchedule(ctx context.Context, enrollment *models.Enrollment, slots []models.EnrollmentWeeklySlot, classes []models.ScheduledClass) error {
	if s.createErr != nil {
		return s.createErr
	}
	enrollment.ID = "enrollment-new"
	s.created = enrollment
	return nil
}

func (s *enrollmentStoreStub) ReplaceSchedule(ctx context.Context, params repository.ScheduleReplacement) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = &params
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *publisherStub) Publish(ctx context.Context, event realtime.Event) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return 1, nil
}

func (p *publisherStub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type loaderStub struct {
	teachers []scheduler.Teacher
	err      error
	calls    int
}

func (l *loaderStub) ListByCourse(ctx context.Context, courseID string) ([]scheduler.Teacher, bool, error) {
	l.calls++
	if l.err != nil {
		return nil, false, l.err
	}
	return l.teachers, false, nil
}

func mustWindow(t *testing.T, start, end string) scheduler.TimeRange {
	t.Helper()
	r, err := scheduler.NewTimeRange(start, end)
	require.NoError(t, err)
	return r
}

func fixtureTeachers(t *testing.T) []scheduler.Teacher {
	mornings := scheduler.Availability{}
	for _, day := range []scheduler.Weekday{scheduler.Monday, scheduler.Tuesday, scheduler.Wednesday, scheduler.Thursday, scheduler.Friday} {
		mornings.Add(day, mustWindow(t, "09:00", "12:00"))
	}
	return []scheduler.Teacher{
		{ID: "teacher-a", Name: "Ana", Availability: scheduler.Availability{scheduler.Monday: {mustWindow(t, "09:00", "11:00")}}},
		{ID: "teacher-b", Name: "Ben", Availability: mornings},
	}
}

type selectorFixture struct {
	svc         *ScheduleSelectorService
	worker      *AvailabilityLoadWorker
	sessions    *ScheduleSessionStore
	queue       *queueStub
	publisher   *publisherStub
	loader      *loaderStub
	enrollments *enrollmentStoreStub
}

func newSelectorFixture(t *testing.T) *selectorFixture {
	t.Helper()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f := &selectorFixture{
		sessions:    NewScheduleSessionStore(time.Hour),
		queue:       &queueStub{},
		publisher:   &publisherStub{},
		loader:      &loaderStub{teachers: fixtureTeachers(t)},
		enrollments: newEnrollmentStoreStub(),
	}
	courses := courseStub{courses: map[string]*models.Course{
		"course-1":     {ID: "course-1", Title: "Conversational Spanish", ClassDurationMinutes: 60, AcademicPeriodID: "period-1", IsSynchronous: true},
		"course-async": {ID: "course-async", Title: "Self-paced Grammar", ClassDurationMinutes: 60, AcademicPeriodID: "period-1"},
	}}
	periods := periodStub{period: &models.AcademicPeriod{
		ID:        "period-1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
	}}
	f.worker = NewAvailabilityLoadWorker(f.sessions, f.loader, f.publisher, nil, zap.NewNop())
	f.svc = NewScheduleSelectorService(f.sessions, courses, periods, f.enrollments, f.queue, f.publisher, export.NewExporter(), nil, nil, zap.NewNop(), ScheduleSelectorConfig{
		Now: func() time.Time { return now },
	})
	return f
}

// startLoaded opens a session and runs its queued availability load.
func (f *selectorFixture) startLoaded(t *testing.T, req dto.StartScheduleSessionRequest, actorID string, role models.UserRole) string {
	t.Helper()
	view, err := f.svc.Start(context.Background(), req, actorID, role)
	require.NoError(t, err)
	require.NotEmpty(t, f.queue.jobs)
	job := f.queue.jobs[len(f.queue.jobs)-1]
	require.NoError(t, f.worker.Handle(context.Background(), job))
	return view.ID
}

func errorCode(err error) string {
	return appErrors.FromError(err).Code
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func TestScheduleSelectorStartQueuesLoad(t *testing.T) {
	f := newSelectorFixture(t)
	view, err := f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, "pending", view.LoadState)
	assert.False(t, view.Grid.Interactive)
	assert.True(t, view.Recurring)
	assert.Equal(t, "UTC", view.Timezone)
	assert.Equal(t, "2024-01-01", view.Today)
	assert.Equal(t, 60, view.ClassDurationMinutes)
	assert.Empty(t, view.Teachers)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, view.ID, f.queue.jobs[0].ID)
	assert.Equal(t, JobTypeAvailabilityLoad, f.queue.jobs[0].Type)

	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))
	loaded, err := f.svc.Get(context.Background(), view.ID, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "ready", loaded.LoadState)
	require.Len(t, loaded.Teachers, 2)
	assert.Equal(t, "Ana", loaded.Teachers[0].Name)
	assert.Equal(t, []string{EventSessionLoaded}, f.publisher.types())
}

func TestScheduleSelectorStartRejectsInvalidCourse(t *testing.T) {
	f := newSelectorFixture(t)

	_, err := f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "missing"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-async"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1", Timezone: "Mars/Olympus"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
	assert.Empty(t, f.queue.jobs)
}

func TestScheduleSelectorStartFailsSessionWhenQueueRejects(t *testing.T) {
	f := newSelectorFixture(t)
	f.queue.err = errors.New("queue availability-loader not started")

	view, err := f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "failed", view.LoadState)
	assert.Contains(t, view.LoadError, "failed to load teacher availability")
}

func TestScheduleSelectorRecurringSelectionFlow(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := context.Background()
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	view, err := f.svc.SelectTeacher(ctx, id, dto.SelectTeacherRequest{TeacherID: "teacher-a"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "teacher-a", view.SelectedTeacherID)
	assert.True(t, view.Grid.Interactive)
	assert.True(t, view.Grid.Feasible[0][9])
	assert.True(t, view.Grid.Feasible[0][10])
	assert.False(t, view.Grid.Feasible[0][11])

	down, err := f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "monday", Hour: intPtr(9)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.True(t, down.Accepted)
	assert.Equal(t, "dragging", down.Session.Grid.State)

	up, err := f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "up"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "toggled", up.Outcome)
	require.Len(t, up.Session.Grid.Selected, 1)
	assert.Equal(t, dto.CellView{Weekday: "MONDAY", Hour: 9}, up.Session.Grid.Selected[0])
	assert.Len(t, up.Session.ScheduledClasses, 5)

	conf, err := f.svc.Confirm(ctx, id, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "teacher-a", conf.TeacherID)
	assert.True(t, conf.IsRecurring)
	require.Len(t, conf.ScheduledClasses, 5)
	assert.Equal(t, "2024-01-29", conf.ScheduledClasses[4].Date)
	assert.Equal(t, "10:00", conf.ScheduledClasses[4].EndTime)
	require.Len(t, conf.WeeklySchedule, 1)
	assert.Equal(t, dto.WeeklySlotView{TeacherID: "teacher-a", Weekday: "MONDAY", StartTime: "09:00", EndTime: "10:00"}, conf.WeeklySchedule[0])

	assert.Contains(t, f.publisher.types(), EventSessionUpdated)
}

func TestScheduleSelectorMultiCellDecision(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := context.Background()
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	_, err := f.svc.SelectTeacher(ctx, id, dto.SelectTeacherRequest{TeacherID: "teacher-b"}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "MON", Hour: intPtr(9)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "enter", Weekday: "TUE", Hour: intPtr(10)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	up, err := f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "up", X: 120, Y: 48}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "pending_decision", up.Outcome)
	assert.Equal(t, &dto.AnchorView{X: 120, Y: 48}, up.Session.Grid.Anchor)
	assert.Len(t, up.Session.Grid.Span, 4)

	ignored, err := f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "WED", Hour: intPtr(9)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.False(t, ignored.Accepted)
	assert.Equal(t, "pending_decision", ignored.Session.Grid.State)

	view, err := f.svc.Decide(ctx, id, dto.DecisionRequest{Action: "add"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "idle", view.Grid.State)
	assert.Len(t, view.Grid.Selected, 4)

	_, err = f.svc.Decide(ctx, id, dto.DecisionRequest{Action: "add"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestScheduleSelectorPointerRequiresCell(t *testing.T) {
	f := newSelectorFixture(t)
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := f.svc.Pointer(context.Background(), id, dto.PointerEventRequest{Type: "down", Weekday: "MONDAY"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Pointer(context.Background(), id, dto.PointerEventRequest{Type: "enter", Weekday: "someday", Hour: intPtr(9)}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Pointer(context.Background(), id, dto.PointerEventRequest{Type: "hover"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestScheduleSelectorSelectTeacherBeforeLoad(t *testing.T) {
	f := newSelectorFixture(t)
	view, err := f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	_, err = f.svc.SelectTeacher(context.Background(), view.ID, dto.SelectTeacherRequest{TeacherID: "teacher-a"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, errorCode(err))
}

func TestScheduleSelectorAuthorization(t *testing.T) {
	f := newSelectorFixture(t)
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := f.svc.Get(context.Background(), id, "student-2", models.RoleStudent)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = f.svc.Get(context.Background(), id, "admin-1", models.RoleAdmin)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), "missing", "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestScheduleSelectorSingleWeekNavigation(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := context.Background()
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	moved, err := f.svc.NavigateWeek(ctx, id, dto.NavigateWeekRequest{Delta: 1}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.False(t, moved.Moved)

	view, err := f.svc.SetRecurrence(ctx, id, dto.RecurrenceRequest{Recurring: boolPtr(false)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.False(t, view.Recurring)
	assert.Equal(t, "2024-01-01", view.WeekStart)

	moved, err = f.svc.NavigateWeek(ctx, id, dto.NavigateWeekRequest{Delta: 1}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.True(t, moved.Moved)
	assert.Equal(t, "2024-01-08", moved.Session.WeekStart)

	moved, err = f.svc.NavigateWeek(ctx, id, dto.NavigateWeekRequest{Delta: -5}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.True(t, moved.Moved)
	assert.Equal(t, "2024-01-01", moved.Session.WeekStart)

	_, err = f.svc.NavigateWeek(ctx, id, dto.NavigateWeekRequest{}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestScheduleSelectorConfirmRequiresSelection(t *testing.T) {
	f := newSelectorFixture(t)
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := f.svc.Confirm(context.Background(), id, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.SelectTeacher(context.Background(), id, dto.SelectTeacherRequest{TeacherID: "teacher-a"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), id, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestScheduleSelectorEditFlowSeedsPattern(t *testing.T) {
	f := newSelectorFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-b",
		IsRecurring: false, Status: models.EnrollmentStatusActive,
	}
	f.enrollments.slots["enrollment-1"] = []models.EnrollmentWeeklySlot{
		{TeacherID: "teacher-b", DayOfWeek: "TUESDAY", StartTime: "10:00:00", EndTime: "11:00:00"},
		{TeacherID: "teacher-b", DayOfWeek: "SATURDAY", StartTime: "10:00:00", EndTime: "11:00:00"},
	}

	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "enrollment-1"}, "student-1", models.RoleStudent)
	view, err := f.svc.Get(context.Background(), id, "student-1", models.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, "enrollment-1", view.EnrollmentID)
	assert.Equal(t, "teacher-b", view.SelectedTeacherID)
	assert.False(t, view.Recurring)
	assert.Equal(t, []dto.CellView{{Weekday: "TUESDAY", Hour: 10}}, view.Grid.Selected)
}

func TestScheduleSelectorEditFlowAuthorization(t *testing.T) {
	f := newSelectorFixture(t)
	f.enrollments.enrollments["enrollment-1"] = &models.Enrollment{
		ID: "enrollment-1", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusActive,
	}
	f.enrollments.enrollments["enrollment-cancelled"] = &models.Enrollment{
		ID: "enrollment-cancelled", StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-a", Status: models.EnrollmentStatusCancelled,
	}

	_, err := f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "enrollment-1"}, "student-2", models.RoleStudent)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-async", EnrollmentID: "enrollment-1"}, "admin-1", models.RoleAdmin)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "enrollment-cancelled"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Start(context.Background(), dto.StartScheduleSessionRequest{CourseID: "course-1", EnrollmentID: "missing"}, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestScheduleSelectorExportCSV(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := context.Background()
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	_, err := f.svc.Export(ctx, id, "csv", "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.SelectTeacher(ctx, id, dto.SelectTeacherRequest{TeacherID: "teacher-a"}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "down", Weekday: "MONDAY", Hour: intPtr(10)}, "student-1", models.RoleStudent)
	require.NoError(t, err)
	_, err = f.svc.Pointer(ctx, id, dto.PointerEventRequest{Type: "leave"}, "student-1", models.RoleStudent)
	require.NoError(t, err)

	file, err := f.svc.Export(ctx, id, "", "student-1", models.RoleStudent)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Date,Weekday,Start,End,Teacher", lines[0])
	assert.Equal(t, "2024-01-01,MONDAY,10:00,11:00,Ana", lines[1])

	_, err = f.svc.Export(ctx, id, "xlsx", "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestScheduleSelectorCloseAndRelease(t *testing.T) {
	f := newSelectorFixture(t)
	ctx := context.Background()
	id := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)

	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(f.svc.Close(ctx, id, "student-2", models.RoleStudent)))
	require.NoError(t, f.svc.Close(ctx, id, "student-1", models.RoleStudent))
	_, err := f.svc.Get(ctx, id, "student-1", models.RoleStudent)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	assert.Contains(t, f.publisher.types(), EventSessionClosed)

	other := f.startLoaded(t, dto.StartScheduleSessionRequest{CourseID: "course-1"}, "student-1", models.RoleStudent)
	f.svc.Release(ctx, other)
	assert.Equal(t, 0, f.sessions.Len())
	assert.Contains(t, f.publisher.types(), EventSessionConfirmed)
}
