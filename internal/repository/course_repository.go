package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingo-schedule-api/internal/models"
)

// CourseRepository reads course scheduling parameters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by id. sql.ErrNoRows is returned untouched.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, class_duration_minutes, academic_period_id, is_synchronous FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
