package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

const availabilityCachePrefix = "availability:course:"

type teacherAvailabilityReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.TeacherAvailability, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// TeacherAvailabilityService resolves the teachers of a course with their weekly availability.
type TeacherAvailabilityService struct {
	repo   teacherAvailabilityReader
	cache  availabilityCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewTeacherAvailabilityService constructs the service. cache may be nil.
func NewTeacherAvailabilityService(repo teacherAvailabilityReader, cache availabilityCache, ttl time.Duration, logger *zap.Logger) *TeacherAvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAvailabilityService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListByCourse returns the course's teachers in name order and whether the rows came from cache.
func (s *TeacherAvailabilityService) ListByCourse(ctx context.Context, courseID string) ([]scheduler.Teacher, bool, error) {
	key := availabilityCachePrefix + courseID
	var rows []models.TeacherAvailability
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &rows)
		if err == nil && hit {
			return s.buildTeachers(courseID, rows), true, nil
		}
	}

	rows, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrDataLoad.Code, appErrors.ErrDataLoad.Status, appErrors.ErrDataLoad.Message)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rows, s.ttl)
	}
	return s.buildTeachers(courseID, rows), false, nil
}

// ListViews renders ListByCourse for API clients.
func (s *TeacherAvailabilityService) ListViews(ctx context.Context, courseID string) ([]dto.TeacherAvailabilityView, bool, error) {
	teachers, hit, err := s.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	return teacherViews(teachers), hit, nil
}

// Invalidate drops the cached availability of a course.
func (s *TeacherAvailabilityService) Invalidate(ctx context.Context, courseID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, availabilityCachePrefix+courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate availability cache")
	}
	return nil
}

// buildTeachers groups rows per teacher keeping row order. Unparseable rows are skipped and
// overlapping ranges are reported but left untouched.
func (s *TeacherAvailabilityService) buildTeachers(courseID string, rows []models.TeacherAvailability) []scheduler.Teacher {
	teachers := make([]scheduler.Teacher, 0)
	index := make(map[string]int)
	for _, row := range rows {
		pos, seen := index[row.TeacherID]
		if !seen {
			pos = len(teachers)
			index[row.TeacherID] = pos
			teachers = append(teachers, scheduler.Teacher{
				ID:           row.TeacherID,
				Name:         row.TeacherName,
				Availability: scheduler.Availability{},
			})
		}
		if row.DayOfWeek == nil || row.StartTime == nil || row.EndTime == nil {
			continue
		}
		day, err := scheduler.ParseWeekday(*row.DayOfWeek)
		if err != nil {
			s.logger.Warn("skipping availability row", zap.String("course_id", courseID), zap.String("teacher_id", row.TeacherID), zap.Error(err))
			continue
		}
		window, err := scheduler.NewTimeRange(*row.StartTime, *row.EndTime)
		if err != nil {
			s.logger.Warn("skipping availability row", zap.String("course_id", courseID), zap.String("teacher_id", row.TeacherID), zap.Error(err))
			continue
		}
		teachers[pos].Availability.Add(day, window)
	}

	for _, t := range teachers {
		if err := t.Availability.Validate(); err != nil {
			s.logger.Warn("teacher availability is malformed", zap.String("course_id", courseID), zap.String("teacher_id", t.ID), zap.Error(err))
		}
	}
	return teachers
}
