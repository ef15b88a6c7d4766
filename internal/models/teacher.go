package models

// Teacher represents an instructor record.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}

// TeacherAvailability is one row of a course teacher's weekly availability. Teachers assigned to
// the course without any availability produce a single row with nil window fields.
type TeacherAvailability struct {
	TeacherID   string  `db:"teacher_id" json:"teacher_id"`
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	DayOfWeek   *string `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime   *string `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string `db:"end_time" json:"end_time,omitempty"`
}
