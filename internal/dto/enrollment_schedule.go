package dto

import "github.com/noah-isme/lingo-schedule-api/internal/models"

// CreateEnrollmentScheduleRequest enrolls a student using a confirmed selector session.
type CreateEnrollmentScheduleRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	// StudentID is required for staff; students always enroll themselves.
	StudentID string `json:"studentId"`
}

// UpdateEnrollmentScheduleRequest replaces an enrollment's schedule from an edit session.
type UpdateEnrollmentScheduleRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// EnrollmentScheduleQuery narrows an enrollment schedule read.
type EnrollmentScheduleQuery struct {
	// Timezone is the student's IANA zone used to decide which classes are upcoming.
	Timezone string `form:"timezone" validate:"omitempty,timezone"`
}

// EnrollmentScheduleView returns an enrollment with its stored pattern and upcoming classes.
type EnrollmentScheduleView struct {
	Enrollment      models.Enrollment   `json:"enrollment"`
	WeeklySchedule  []WeeklySlotView    `json:"weeklySchedule"`
	UpcomingClasses []ClassInstanceView `json:"upcomingClasses"`
}
