package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
	"github.com/noah-isme/lingo-schedule-api/pkg/jobs"
	"github.com/noah-isme/lingo-schedule-api/pkg/realtime"
)

// JobTypeAvailabilityLoad identifies queue jobs that fetch a session's teachers.
const JobTypeAvailabilityLoad = "availability.load"

// Realtime event types published on a session channel.
const (
	EventSessionLoaded     = "loaded"
	EventSessionLoadFailed = "load_failed"
	EventSessionUpdated    = "updated"
	EventSessionConfirmed  = "confirmed"
	EventSessionClosed     = "closed"
)

type teacherLoader interface {
	ListByCourse(ctx context.Context, courseID string) ([]scheduler.Teacher, bool, error)
}

type sessionPublisher interface {
	Publish(ctx context.Context, event realtime.Event) (int64, error)
}

// AvailabilityLoadWorker resolves teacher availability for queued sessions.
type AvailabilityLoadWorker struct {
	sessions  *ScheduleSessionStore
	loader    teacherLoader
	publisher sessionPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAvailabilityLoadWorker constructs a worker. publisher and metrics may be nil.
func NewAvailabilityLoadWorker(sessions *ScheduleSessionStore, loader teacherLoader, publisher sessionPublisher, metrics *MetricsService, logger *zap.Logger) *AvailabilityLoadWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityLoadWorker{
		sessions:  sessions,
		loader:    loader,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle processes a queue job. Returning an error lets the queue retry.
func (w *AvailabilityLoadWorker) Handle(ctx context.Context, job jobs.Job) error {
	sess, _, ok := w.sessions.peek(job.ID)
	if !ok {
		w.logger.Debug("session gone before availability load", zap.String("session_id", job.ID))
		return nil
	}

	started := time.Now()
	teachers, cacheHit, err := w.loader.ListByCourse(ctx, sess.courseID)
	if err != nil {
		return err
	}
	w.metrics.ObserveAvailabilityLoad(time.Since(started))

	sess.mu.Lock()
	sess.selector.Load(teachers)
	if seed := sess.seed; seed != nil {
		kept, seedErr := sess.selector.Seed(seed.teacherID, seed.pattern, seed.recurring)
		if seedErr != nil {
			w.logger.Warn("could not seed session from enrollment",
				zap.String("session_id", sess.id),
				zap.String("enrollment_id", sess.enrollmentID),
				zap.Error(seedErr))
		} else if kept < len(seed.pattern) {
			w.logger.Info("dropped infeasible slots while seeding",
				zap.String("session_id", sess.id),
				zap.Int("kept", kept),
				zap.Int("stored", len(seed.pattern)))
		}
		sess.seed = nil
	}
	sess.mu.Unlock()

	w.logger.Info("availability loaded",
		zap.String("session_id", sess.id),
		zap.String("course_id", sess.courseID),
		zap.Int("teachers", len(teachers)),
		zap.Bool("cache_hit", cacheHit))
	w.publish(ctx, sess.id, EventSessionLoaded)
	return nil
}

// GiveUp marks the session's load as failed once retries are exhausted.
func (w *AvailabilityLoadWorker) GiveUp(job jobs.Job, err error) {
	w.metrics.AvailabilityLoadFailed()
	sess, _, ok := w.sessions.peek(job.ID)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.selector.Fail(appErrors.Wrap(err, appErrors.ErrDataLoad.Code, appErrors.ErrDataLoad.Status, appErrors.ErrDataLoad.Message))
	sess.mu.Unlock()

	w.logger.Error("availability load failed",
		zap.String("session_id", sess.id),
		zap.String("course_id", sess.courseID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
	w.publish(context.Background(), sess.id, EventSessionLoadFailed)
}

func (w *AvailabilityLoadWorker) publish(ctx context.Context, sessionID, eventType string) {
	if w.publisher == nil {
		return
	}
	_, _ = w.publisher.Publish(ctx, realtime.Event{Type: eventType, SessionID: sessionID})
}
