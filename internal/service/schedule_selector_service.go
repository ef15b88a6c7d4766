package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
	"github.com/noah-isme/lingo-schedule-api/pkg/export"
	"github.com/noah-isme/lingo-schedule-api/pkg/jobs"
	"github.com/noah-isme/lingo-schedule-api/pkg/realtime"
)

// Session flows reported to metrics.
const (
	flowEnroll = "enroll"
	flowEdit   = "edit"
)

var (
	errSessionNotFound = appErrors.Clone(appErrors.ErrNotFound, "schedule session not found or expired")
	errSessionClaimed  = appErrors.Clone(appErrors.ErrConflict, "schedule session is already being enrolled")
)

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type academicPeriodReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
}

type enrollmentPatternReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListWeeklySlots(ctx context.Context, enrollmentID string) ([]models.EnrollmentWeeklySlot, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type scheduleRenderer interface {
	Render(format export.Format, basename string, data export.Dataset) (*export.File, error)
}

// ScheduleSelectorConfig governs session defaults.
type ScheduleSelectorConfig struct {
	DefaultTimezone string
	// Now is the clock handed to every selector; time.Now when nil.
	Now func() time.Time
}

// SessionConfirmation is a confirmed selection together with the session it came from.
type SessionConfirmation struct {
	SessionID    string
	CourseID     string
	EnrollmentID string
	OwnerID      string
	Today        time.Time
	Result       *scheduler.Confirmation
}

// ScheduleSelectorService drives schedule selector sessions over HTTP.
type ScheduleSelectorService struct {
	sessions    *ScheduleSessionStore
	courses     courseReader
	periods     academicPeriodReader
	enrollments enrollmentPatternReader
	queue       jobDispatcher
	publisher   sessionPublisher
	exporter    scheduleRenderer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleSelectorConfig
}

// NewScheduleSelectorService constructs the service. publisher, exporter and metrics may be nil.
func NewScheduleSelectorService(
	sessions *ScheduleSessionStore,
	courses courseReader,
	periods academicPeriodReader,
	enrollments enrollmentPatternReader,
	queue jobDispatcher,
	publisher sessionPublisher,
	exporter scheduleRenderer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleSelectorConfig,
) *ScheduleSelectorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.NewExporter()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ScheduleSelectorService{
		sessions:    sessions,
		courses:     courses,
		periods:     periods,
		enrollments: enrollments,
		queue:       queue,
		publisher:   publisher,
		exporter:    exporter,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Start opens a session for a live course and queues the availability load.
func (s *ScheduleSelectorService) Start(ctx context.Context, req dto.StartScheduleSessionRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule session payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsSynchronous {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no live classes to schedule")
	}

	periodRow, err := s.periods.FindByID(ctx, course.AcademicPeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course has no academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}
	period, err := scheduler.NewAcademicPeriod(periodRow.StartDate, periodRow.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "academic period is invalid")
	}

	tz := req.Timezone
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown timezone")
	}

	recurring := true
	var seed *sessionSeed
	flow := flowEnroll
	if req.EnrollmentID != "" {
		seed, err = s.loadSeed(ctx, req.EnrollmentID, course.ID, actorID, role)
		if err != nil {
			return nil, err
		}
		recurring = seed.recurring
		flow = flowEdit
	}
	if req.Recurring != nil {
		recurring = *req.Recurring
		if seed != nil {
			seed.recurring = recurring
		}
	}

	selector, err := scheduler.NewSelector(scheduler.Config{
		ClassDurationMinutes: course.ClassDurationMinutes,
		Period:               period,
		Location:             loc,
		Now:                  s.cfg.Now,
		Recurring:            recurring,
	})
	if err != nil {
		return nil, err
	}

	sess := &scheduleSession{
		id:           uuid.NewString(),
		courseID:     course.ID,
		courseTitle:  course.Title,
		enrollmentID: req.EnrollmentID,
		ownerID:      actorID,
		timezone:     loc.String(),
		selector:     selector,
		seed:         seed,
	}
	expiresAt := s.sessions.Save(sess)
	s.metrics.SessionStarted(flow)
	s.metrics.SetActiveSessions(s.sessions.Len())

	if err := s.queue.Enqueue(jobs.Job{ID: sess.id, Type: JobTypeAvailabilityLoad}); err != nil {
		s.logger.Error("failed to enqueue availability load", zap.String("session_id", sess.id), zap.Error(err))
		s.metrics.AvailabilityLoadFailed()
		sess.mu.Lock()
		sess.selector.Fail(appErrors.Wrap(err, appErrors.ErrDataLoad.Code, appErrors.ErrDataLoad.Status, appErrors.ErrDataLoad.Message))
		sess.mu.Unlock()
	}

	s.logger.Info("schedule session started",
		zap.String("session_id", sess.id),
		zap.String("course_id", course.ID),
		zap.String("flow", flow),
		zap.String("actor_id", actorID))

	sess.mu.Lock()
	view := buildSessionView(sess, expiresAt)
	sess.mu.Unlock()
	return &view, nil
}

func (s *ScheduleSelectorService) loadSeed(ctx context.Context, enrollmentID, courseID, actorID string, role models.UserRole) (*sessionSeed, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment belongs to another course")
	}
	if !role.IsStaff() && enrollment.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only active enrollments can be rescheduled")
	}

	rows, err := s.enrollments.ListWeeklySlots(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}
	pattern, parseErrs := weeklySlotsFromModels(rows)
	for _, perr := range parseErrs {
		s.logger.Warn("skipping stored weekly slot", zap.String("enrollment_id", enrollmentID), zap.Error(perr))
	}
	return &sessionSeed{teacherID: enrollment.TeacherID, pattern: pattern, recurring: enrollment.IsRecurring}, nil
}

// Get returns the current state of a session.
func (s *ScheduleSelectorService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error) {
	return s.withSession(ctx, id, actorID, role, false, func(*scheduleSession) error { return nil })
}

// SelectTeacher switches the teacher driving the grid; the selection is cleared.
func (s *ScheduleSelectorService) SelectTeacher(ctx context.Context, id string, req dto.SelectTeacherRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher selection payload")
	}
	return s.withSession(ctx, id, actorID, role, true, func(sess *scheduleSession) error {
		return sess.selector.SelectTeacher(req.TeacherID)
	})
}

// Pointer feeds one pointer event into the grid.
func (s *ScheduleSelectorService) Pointer(ctx context.Context, id string, req dto.PointerEventRequest, actorID string, role models.UserRole) (*dto.PointerEventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pointer event payload")
	}
	var cell scheduler.Cell
	if req.Type == "down" || req.Type == "enter" {
		parsed, err := parseCell(req.Weekday, req.Hour)
		if err != nil {
			return nil, err
		}
		cell = parsed
	}
	anchor := scheduler.Anchor{X: req.X, Y: req.Y}

	resp := &dto.PointerEventResponse{}
	view, err := s.withSession(ctx, id, actorID, role, true, func(sess *scheduleSession) error {
		switch req.Type {
		case "down":
			resp.Accepted = sess.selector.PointerDown(cell)
		case "enter":
			resp.Accepted = sess.selector.PointerEnter(cell)
		case "up", "leave":
			var outcome scheduler.PointerOutcome
			if req.Type == "up" {
				outcome = sess.selector.PointerUp(anchor)
			} else {
				outcome = sess.selector.PointerLeave(anchor)
			}
			resp.Accepted = outcome != scheduler.OutcomeNone
			resp.Outcome = outcome.String()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp.Session = *view
	return resp, nil
}

// Decide resolves a pending multi-cell drag.
func (s *ScheduleSelectorService) Decide(ctx context.Context, id string, req dto.DecisionRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	return s.withSession(ctx, id, actorID, role, true, func(sess *scheduleSession) error {
		return sess.selector.Decide(scheduler.Decision(req.Action))
	})
}

// SetRecurrence switches between recurring and single-week expansion.
func (s *ScheduleSelectorService) SetRecurrence(ctx context.Context, id string, req dto.RecurrenceRequest, actorID string, role models.UserRole) (*dto.ScheduleSessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence payload")
	}
	return s.withSession(ctx, id, actorID, role, true, func(sess *scheduleSession) error {
		sess.selector.SetRecurring(*req.Recurring)
		return nil
	})
}

// NavigateWeek moves the viewed week in single-week mode.
func (s *ScheduleSelectorService) NavigateWeek(ctx context.Context, id string, req dto.NavigateWeekRequest, actorID string, role models.UserRole) (*dto.NavigateWeekResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week navigation payload")
	}
	var moved bool
	view, err := s.withSession(ctx, id, actorID, role, true, func(sess *scheduleSession) error {
		moved = sess.selector.NavigateWeek(req.Delta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.NavigateWeekResponse{Moved: moved, Session: *view}, nil
}

// Confirm validates the selection and returns the confirmation without persisting it.
func (s *ScheduleSelectorService) Confirm(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ScheduleConfirmation, error) {
	sess, _, err := s.authorize(id, actorID, role)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	result, err := sess.selector.Confirm()
	sess.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return confirmationView(result), nil
}

// ConfirmSession confirms a session for the enrollment workflow and claims it. A claimed session
// rejects further confirmations and mutations until Release or Unclaim.
func (s *ScheduleSelectorService) ConfirmSession(ctx context.Context, id, actorID string, role models.UserRole) (*SessionConfirmation, error) {
	sess, _, err := s.authorize(id, actorID, role)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.claimed {
		return nil, errSessionClaimed
	}
	result, err := sess.selector.Confirm()
	if err != nil {
		return nil, err
	}
	sess.claimed = true
	return &SessionConfirmation{
		SessionID:    sess.id,
		CourseID:     sess.courseID,
		EnrollmentID: sess.enrollmentID,
		OwnerID:      sess.ownerID,
		Today:        sess.selector.Today(),
		Result:       result,
	}, nil
}

// Export renders the session's current class instances as CSV or PDF.
func (s *ScheduleSelectorService) Export(ctx context.Context, id, format, actorID string, role models.UserRole) (*export.File, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	sess, _, err := s.authorize(id, actorID, role)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	classes := sess.selector.ScheduledClasses()
	names := make(map[string]string)
	for _, t := range sess.selector.Teachers() {
		names[t.ID] = t.Name
	}
	title := sess.courseTitle
	sess.mu.Unlock()

	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to export, select at least one time slot")
	}
	data := export.Dataset{
		Title:   strings.TrimSpace(fmt.Sprintf("%s class schedule", title)),
		Headers: []string{"Date", "Weekday", "Start", "End", "Teacher"},
		Rows:    make([]map[string]string, 0, len(classes)),
	}
	for _, c := range classes {
		teacher := names[c.TeacherID]
		if teacher == "" {
			teacher = c.TeacherID
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":    c.Date.Format(scheduler.DateLayout),
			"Weekday": c.Weekday.String(),
			"Start":   c.StartTime.String(),
			"End":     c.EndTime.String(),
			"Teacher": teacher,
		})
	}
	file, err := s.exporter.Render(parsed, "schedule-"+sess.id, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}
	return file, nil
}

// Close discards a session.
func (s *ScheduleSelectorService) Close(ctx context.Context, id, actorID string, role models.UserRole) error {
	if _, _, err := s.authorize(id, actorID, role); err != nil {
		return err
	}
	s.sessions.Delete(id)
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.publish(ctx, id, EventSessionClosed, nil)
	return nil
}

// Release drops a session after its confirmation has been persisted.
func (s *ScheduleSelectorService) Release(ctx context.Context, id string) {
	s.sessions.Delete(id)
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.publish(ctx, id, EventSessionConfirmed, nil)
}

// Unclaim returns a claimed session to editing after its confirmation failed to persist.
func (s *ScheduleSelectorService) Unclaim(ctx context.Context, id string) {
	sess, _, ok := s.sessions.peek(id)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.claimed = false
	sess.mu.Unlock()
}

// RunJanitor expires idle sessions until ctx is done.
func (s *ScheduleSelectorService) RunJanitor(ctx context.Context, interval time.Duration) {
	s.sessions.RunJanitor(ctx, interval, func(removed, remaining int) {
		s.metrics.SetActiveSessions(remaining)
		if removed > 0 {
			s.logger.Debug("expired schedule sessions", zap.Int("removed", removed), zap.Int("remaining", remaining))
		}
	})
}

func (s *ScheduleSelectorService) authorize(id, actorID string, role models.UserRole) (*scheduleSession, time.Time, error) {
	sess, expiresAt, ok := s.sessions.Get(id)
	if !ok {
		return nil, time.Time{}, errSessionNotFound
	}
	if !role.IsStaff() && sess.ownerID != actorID {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrForbidden, "schedule session belongs to another user")
	}
	return sess, expiresAt, nil
}

// withSession runs fn under the session lock and returns the resulting view. Mutations are
// published to realtime subscribers.
func (s *ScheduleSelectorService) withSession(ctx context.Context, id, actorID string, role models.UserRole, mutate bool, fn func(*scheduleSession) error) (*dto.ScheduleSessionView, error) {
	sess, expiresAt, err := s.authorize(id, actorID, role)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if mutate && sess.claimed {
		sess.mu.Unlock()
		return nil, errSessionClaimed
	}
	if err := fn(sess); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	view := buildSessionView(sess, expiresAt)
	sess.mu.Unlock()

	if mutate {
		s.publish(ctx, id, EventSessionUpdated, view)
	}
	return &view, nil
}

func (s *ScheduleSelectorService) publish(ctx context.Context, sessionID, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	_, _ = s.publisher.Publish(ctx, realtime.Event{Type: eventType, SessionID: sessionID, Payload: payload})
}

func parseCell(weekday string, hour *int) (scheduler.Cell, error) {
	if weekday == "" || hour == nil {
		return scheduler.Cell{}, appErrors.Clone(appErrors.ErrValidation, "weekday and hour are required for down and enter events")
	}
	day, err := scheduler.ParseWeekday(weekday)
	if err != nil {
		return scheduler.Cell{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekday")
	}
	cell := scheduler.Cell{Day: day, Hour: *hour}
	if !cell.Valid() {
		return scheduler.Cell{}, appErrors.Clone(appErrors.ErrValidation, "hour must be between 0 and 23")
	}
	return cell, nil
}
