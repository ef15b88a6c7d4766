package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingo-schedule-api/internal/models"
)

// TeacherAvailabilityRepository reads per-course teacher availability.
type TeacherAvailabilityRepository struct {
	db *sqlx.DB
}

// NewTeacherAvailabilityRepository constructs the repository.
func NewTeacherAvailabilityRepository(db *sqlx.DB) *TeacherAvailabilityRepository {
	return &TeacherAvailabilityRepository{db: db}
}

// ListByCourse returns every teacher assigned to the course with their availability windows,
// ordered by teacher name. Teachers without availability are included with nil windows.
func (r *TeacherAvailabilityRepository) ListByCourse(ctx context.Context, courseID string) ([]models.TeacherAvailability, error) {
	const query = `
SELECT t.id AS teacher_id, t.full_name AS teacher_name, ta.day_of_week, ta.start_time, ta.end_time
FROM course_teachers ct
JOIN teachers t ON t.id = ct.teacher_id
LEFT JOIN teacher_availabilities ta ON ta.teacher_id = ct.teacher_id AND ta.course_id = ct.course_id
WHERE ct.course_id = $1
ORDER BY t.full_name ASC, t.id ASC, ta.start_time ASC`
	var rows []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return rows, nil
}
