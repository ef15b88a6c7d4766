package models

import "time"

// Course is a catalogue entry students enroll in.
type Course struct {
	ID                   string `db:"id" json:"id"`
	Title                string `db:"title" json:"title"`
	ClassDurationMinutes int    `db:"class_duration_minutes" json:"class_duration_minutes"`
	AcademicPeriodID     string `db:"academic_period_id" json:"academic_period_id"`
	IsSynchronous        bool   `db:"is_synchronous" json:"is_synchronous"`
}

// AcademicPeriod bounds the dates classes may be scheduled on.
type AcademicPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}
