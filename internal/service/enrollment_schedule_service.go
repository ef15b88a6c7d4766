package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/repository"
	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

type sessionConfirmer interface {
	ConfirmSession(ctx context.Context, id, actorID string, role models.UserRole) (*SessionConfirmation, error)
	Unclaim(ctx context.Context, id string)
	Release(ctx context.Context, id string)
}

type enrollmentScheduleStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListWeeklySlots(ctx context.Context, enrollmentID string) ([]models.EnrollmentWeeklySlot, error)
	ListClasses(ctx context.Context, enrollmentID string, from time.Time) ([]models.ScheduledClass, error)
	CreateWithSchedule(ctx context.Context, enrollment *models.Enrollment, slots []models.EnrollmentWeeklySlot, classes []models.ScheduledClass) error
	ReplaceSchedule(ctx context.Context, params repository.ScheduleReplacement) error
}

// EnrollmentScheduleService persists confirmed selector sessions as enrollments.
type EnrollmentScheduleService struct {
	sessions        sessionConfirmer
	repo            enrollmentScheduleStore
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	defaultTimezone string
	now             func() time.Time
}

// NewEnrollmentScheduleService constructs the service. defaultTimezone decides "today" for reads
// that do not name a zone; UTC applies when it is empty.
func NewEnrollmentScheduleService(sessions sessionConfirmer, repo enrollmentScheduleStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultTimezone string) *EnrollmentScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &EnrollmentScheduleService{
		sessions:        sessions,
		repo:            repo,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// CreateWithSchedule enrolls a student with the schedule confirmed in a selector session.
func (s *EnrollmentScheduleService) CreateWithSchedule(ctx context.Context, req dto.CreateEnrollmentScheduleRequest, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	studentID := req.StudentID
	switch {
	case role == models.RoleStudent:
		studentID = actorID
	case role.IsStaff():
		if studentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students and administrators can enroll")
	}

	conf, err := s.sessions.ConfirmSession(ctx, req.SessionID, actorID, role)
	if err != nil {
		return nil, err
	}
	persisted := false
	defer func() {
		if !persisted {
			s.sessions.Unclaim(ctx, conf.SessionID)
		}
	}()
	if conf.EnrollmentID != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session edits an existing enrollment, update it instead")
	}

	enrollment := &models.Enrollment{
		StudentID:   studentID,
		CourseID:    conf.CourseID,
		TeacherID:   conf.Result.TeacherID,
		IsRecurring: conf.Result.IsRecurring,
		Status:      models.EnrollmentStatusActive,
	}
	slots := weeklySlotModels(conf.Result.WeeklySchedule)
	classes := scheduledClassModels(conf.Result.ScheduledClasses)
	if err := s.repo.CreateWithSchedule(ctx, enrollment, slots, classes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	persisted = true

	s.metrics.ScheduleConfirmed(conf.Result.IsRecurring)
	s.metrics.ClassInstancesPersisted(len(classes))
	s.sessions.Release(ctx, conf.SessionID)
	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("course_id", enrollment.CourseID),
		zap.String("student_id", enrollment.StudentID),
		zap.Int("classes", len(classes)))

	return &dto.EnrollmentScheduleView{
		Enrollment:      *enrollment,
		WeeklySchedule:  weeklySlotViews(conf.Result.WeeklySchedule),
		UpcomingClasses: classInstanceViews(conf.Result.ScheduledClasses),
	}, nil
}

// UpdateWithSchedule replaces an enrollment's upcoming schedule from an edit session. Classes
// dated before the student's today are kept.
func (s *EnrollmentScheduleService) UpdateWithSchedule(ctx context.Context, enrollmentID string, req dto.UpdateEnrollmentScheduleRequest, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule update payload")
	}
	enrollment, err := s.findAuthorized(ctx, enrollmentID, actorID, role)
	if err != nil {
		return nil, err
	}

	conf, err := s.sessions.ConfirmSession(ctx, req.SessionID, actorID, role)
	if err != nil {
		return nil, err
	}
	persisted := false
	defer func() {
		if !persisted {
			s.sessions.Unclaim(ctx, conf.SessionID)
		}
	}()
	if conf.EnrollmentID != enrollment.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session was not opened for this enrollment")
	}

	params := repository.ScheduleReplacement{
		EnrollmentID: enrollment.ID,
		TeacherID:    conf.Result.TeacherID,
		IsRecurring:  conf.Result.IsRecurring,
		From:         conf.Today,
		Slots:        weeklySlotModels(conf.Result.WeeklySchedule),
		Classes:      scheduledClassModels(conf.Result.ScheduledClasses),
	}
	if err := s.repo.ReplaceSchedule(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment schedule")
	}
	persisted = true

	s.metrics.ScheduleConfirmed(conf.Result.IsRecurring)
	s.metrics.ClassInstancesPersisted(len(params.Classes))
	s.sessions.Release(ctx, conf.SessionID)
	s.logger.Info("enrollment schedule replaced",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("from", conf.Today.Format(scheduler.DateLayout)),
		zap.Int("classes", len(params.Classes)))

	enrollment.TeacherID = conf.Result.TeacherID
	enrollment.IsRecurring = conf.Result.IsRecurring
	return &dto.EnrollmentScheduleView{
		Enrollment:      *enrollment,
		WeeklySchedule:  weeklySlotViews(conf.Result.WeeklySchedule),
		UpcomingClasses: classInstanceViews(conf.Result.ScheduledClasses),
	}, nil
}

// Get returns an enrollment with its stored weekly pattern and classes from today on. Today is
// the civil date in query.Timezone, or in the service default zone when none is given.
func (s *EnrollmentScheduleService) Get(ctx context.Context, enrollmentID string, query dto.EnrollmentScheduleQuery, actorID string, role models.UserRole) (*dto.EnrollmentScheduleView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	tz := query.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown timezone")
	}
	enrollment, err := s.findAuthorized(ctx, enrollmentID, actorID, role)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListWeeklySlots(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}
	pattern, parseErrs := weeklySlotsFromModels(rows)
	for _, perr := range parseErrs {
		s.logger.Warn("skipping stored weekly slot", zap.String("enrollment_id", enrollment.ID), zap.Error(perr))
	}
	classes, err := s.repo.ListClasses(ctx, enrollment.ID, scheduler.CivilDate(s.now().In(loc)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduled classes")
	}
	return &dto.EnrollmentScheduleView{
		Enrollment:      *enrollment,
		WeeklySchedule:  weeklySlotViews(pattern),
		UpcomingClasses: classViewsFromModels(classes),
	}, nil
}

func (s *EnrollmentScheduleService) findAuthorized(ctx context.Context, enrollmentID, actorID string, role models.UserRole) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !role.IsStaff() && enrollment.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	return enrollment, nil
}
