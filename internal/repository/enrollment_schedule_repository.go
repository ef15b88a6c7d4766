package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingo-schedule-api/internal/models"
)

// EnrollmentScheduleRepository persists enrollments with their weekly pattern and class instances.
type EnrollmentScheduleRepository struct {
	db *sqlx.DB
}

// NewEnrollmentScheduleRepository constructs the repository.
func NewEnrollmentScheduleRepository(db *sqlx.DB) *EnrollmentScheduleRepository {
	return &EnrollmentScheduleRepository{db: db}
}

// FindByID returns an enrollment.
func (r *EnrollmentScheduleRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, teacher_id, is_recurring, status, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListWeeklySlots returns the stored weekly pattern of an enrollment.
func (r *EnrollmentScheduleRepository) ListWeeklySlots(ctx context.Context, enrollmentID string) ([]models.EnrollmentWeeklySlot, error) {
	const query = `SELECT id, enrollment_id, teacher_id, day_of_week, start_time, end_time
FROM enrollment_weekly_slots WHERE enrollment_id = $1 ORDER BY start_time ASC`
	var slots []models.EnrollmentWeeklySlot
	if err := r.db.SelectContext(ctx, &slots, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment weekly slots: %w", err)
	}
	return slots, nil
}

// ListClasses returns class instances dated on or after from, ordered chronologically.
func (r *EnrollmentScheduleRepository) ListClasses(ctx context.Context, enrollmentID string, from time.Time) ([]models.ScheduledClass, error) {
	const query = `SELECT id, enrollment_id, teacher_id, class_date, day_of_week, start_time, end_time, created_at
FROM scheduled_classes WHERE enrollment_id = $1 AND class_date >= $2 ORDER BY class_date ASC, start_time ASC`
	var classes []models.ScheduledClass
	if err := r.db.SelectContext(ctx, &classes, query, enrollmentID, from); err != nil {
		return nil, fmt.Errorf("list scheduled classes: %w", err)
	}
	return classes, nil
}

// CreateWithSchedule inserts the enrollment, its weekly slots and class instances atomically.
func (r *EnrollmentScheduleRepository) CreateWithSchedule(ctx context.Context, enrollment *models.Enrollment, slots []models.EnrollmentWeeklySlot, classes []models.ScheduledClass) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const insertEnrollment = `INSERT INTO enrollments (id, student_id, course_id, teacher_id, is_recurring, status, created_at, updated_at)
VALUES (:id, :student_id, :course_id, :teacher_id, :is_recurring, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	if err = insertWeeklySlots(ctx, tx, enrollment.ID, slots); err != nil {
		return err
	}
	if err = insertClasses(ctx, tx, enrollment.ID, classes, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// ScheduleReplacement describes a new schedule for an existing enrollment.
type ScheduleReplacement struct {
	EnrollmentID string
	TeacherID    string
	IsRecurring  bool
	// From is the first date whose classes are replaced; earlier classes are kept.
	From    time.Time
	Slots   []models.EnrollmentWeeklySlot
	Classes []models.ScheduledClass
}

// ReplaceSchedule swaps the weekly pattern and the classes dated on or after From atomically.
// sql.ErrNoRows is returned when the enrollment does not exist.
func (r *EnrollmentScheduleRepository) ReplaceSchedule(ctx context.Context, params ScheduleReplacement) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateEnrollment = `UPDATE enrollments SET teacher_id = $1, is_recurring = $2, updated_at = $3 WHERE id = $4`
	res, err := tx.ExecContext(ctx, updateEnrollment, params.TeacherID, params.IsRecurring, now, params.EnrollmentID)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollment_weekly_slots WHERE enrollment_id = $1`, params.EnrollmentID); err != nil {
		return fmt.Errorf("delete weekly slots: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_classes WHERE enrollment_id = $1 AND class_date >= $2`, params.EnrollmentID, params.From); err != nil {
		return fmt.Errorf("delete upcoming classes: %w", err)
	}
	if err = insertWeeklySlots(ctx, tx, params.EnrollmentID, params.Slots); err != nil {
		return err
	}
	if err = insertClasses(ctx, tx, params.EnrollmentID, params.Classes, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	return nil
}

func insertWeeklySlots(ctx context.Context, tx *sqlx.Tx, enrollmentID string, slots []models.EnrollmentWeeklySlot) error {
	const query = `INSERT INTO enrollment_weekly_slots (id, enrollment_id, teacher_id, day_of_week, start_time, end_time)
VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.EnrollmentID = enrollmentID
		if _, err := tx.ExecContext(ctx, query, slot.ID, slot.EnrollmentID, slot.TeacherID, slot.DayOfWeek, slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("insert weekly slot: %w", err)
		}
	}
	return nil
}

func insertClasses(ctx context.Context, tx *sqlx.Tx, enrollmentID string, classes []models.ScheduledClass, now time.Time) error {
	const query = `INSERT INTO scheduled_classes (id, enrollment_id, teacher_id, class_date, day_of_week, start_time, end_time, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range classes {
		class := &classes[i]
		if class.ID == "" {
			class.ID = uuid.NewString()
		}
		class.EnrollmentID = enrollmentID
		class.CreatedAt = now
		if _, err := tx.ExecContext(ctx, query, class.ID, class.EnrollmentID, class.TeacherID, class.ClassDate, class.DayOfWeek, class.StartTime, class.EndTime, class.CreatedAt); err != nil {
			return fmt.Errorf("insert scheduled class: %w", err)
		}
	}
	return nil
}
