package dto

import "time"

// StartScheduleSessionRequest opens a schedule selector session for a live course.
type StartScheduleSessionRequest struct {
	CourseID string `json:"courseId" validate:"required"`
	// Timezone is the student's IANA zone; the server default applies when empty.
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
	Recurring *bool  `json:"recurring"`
	// EnrollmentID seeds the session with an existing enrollment's weekly pattern.
	EnrollmentID string `json:"enrollmentId"`
}

// SelectTeacherRequest switches the teacher whose availability drives the grid.
type SelectTeacherRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
}

// PointerEventRequest forwards one grid pointer event. Down and enter events carry a cell.
type PointerEventRequest struct {
	Type    string  `json:"type" validate:"required,oneof=down enter up leave"`
	Weekday string  `json:"weekday"`
	Hour    *int    `json:"hour" validate:"omitempty,min=0,max=23"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// DecisionRequest resolves a pending multi-cell drag.
type DecisionRequest struct {
	Action string `json:"action" validate:"required,oneof=add remove cancel"`
}

// RecurrenceRequest toggles recurring expansion.
type RecurrenceRequest struct {
	Recurring *bool `json:"recurring" validate:"required"`
}

// NavigateWeekRequest moves the viewed week in single-week mode.
type NavigateWeekRequest struct {
	Delta int `json:"delta" validate:"required,min=-104,max=104"`
}

// TimeWindowView is one availability range.
type TimeWindowView struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// TeacherAvailabilityView lists a teacher with their availability for a course.
type TeacherAvailabilityView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Availability []TimeWindowView `json:"availability"`
}

// CellView addresses one grid cell.
type CellView struct {
	Weekday string `json:"weekday"`
	Hour    int    `json:"hour"`
}

// AnchorView is the screen position a pending decision prompt is shown at.
type AnchorView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GridView renders the selection grid. Columns follow display order, Monday first.
type GridView struct {
	Interactive     bool        `json:"interactive"`
	State           string      `json:"state"`
	Columns         []string    `json:"columns"`
	Feasible        [][]bool    `json:"feasible,omitempty"`
	DisabledColumns []bool      `json:"disabledColumns"`
	Selected        []CellView  `json:"selected"`
	Span            []CellView  `json:"span,omitempty"`
	Anchor          *AnchorView `json:"anchor,omitempty"`
}

// WeeklySlotView is one slot of the recurring weekly pattern.
type WeeklySlotView struct {
	TeacherID string `json:"teacherId"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ClassInstanceView is one concrete class meeting.
type ClassInstanceView struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	TeacherID string `json:"teacherId"`
}

// PeriodView is the bounding academic period.
type PeriodView struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ScheduleSessionView is the full client-facing state of a selector session.
type ScheduleSessionView struct {
	ID                   string                    `json:"id"`
	CourseID             string                    `json:"courseId"`
	EnrollmentID         string                    `json:"enrollmentId,omitempty"`
	LoadState            string                    `json:"loadState"`
	LoadError            string                    `json:"loadError,omitempty"`
	Timezone             string                    `json:"timezone"`
	Today                string                    `json:"today"`
	ClassDurationMinutes int                       `json:"classDurationMinutes"`
	Period               PeriodView                `json:"period"`
	Teachers             []TeacherAvailabilityView `json:"teachers"`
	SelectedTeacherID    string                    `json:"selectedTeacherId,omitempty"`
	Recurring            bool                      `json:"recurring"`
	WeekStart            string                    `json:"weekStart"`
	Grid                 GridView                  `json:"grid"`
	WeeklySchedule       []WeeklySlotView          `json:"weeklySchedule"`
	ScheduledClasses     []ClassInstanceView       `json:"scheduledClasses"`
	ExpiresAt            time.Time                 `json:"expiresAt"`
}

// PointerEventResponse reports how the grid consumed a pointer event.
type PointerEventResponse struct {
	Accepted bool                `json:"accepted"`
	Outcome  string              `json:"outcome,omitempty"`
	Session  ScheduleSessionView `json:"session"`
}

// NavigateWeekResponse reports whether the viewed week moved.
type NavigateWeekResponse struct {
	Moved   bool                `json:"moved"`
	Session ScheduleSessionView `json:"session"`
}

// ScheduleConfirmation is the result handed to the enrollment workflow.
type ScheduleConfirmation struct {
	TeacherID        string              `json:"teacherId"`
	ScheduledClasses []ClassInstanceView `json:"scheduledClasses"`
	IsRecurring      bool                `json:"isRecurring"`
	WeeklySchedule   []WeeklySlotView    `json:"weeklySchedule"`
}
