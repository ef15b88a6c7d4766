package service

import (
	"time"

	"github.com/noah-isme/lingo-schedule-api/internal/dto"
	"github.com/noah-isme/lingo-schedule-api/internal/models"
	"github.com/noah-isme/lingo-schedule-api/internal/scheduler"
)

// buildSessionView snapshots a session. Callers must hold sess.mu.
func buildSessionView(sess *scheduleSession, expiresAt time.Time) dto.ScheduleSessionView {
	sel := sess.selector
	grid := sel.Grid()
	period := sel.Period()

	view := dto.ScheduleSessionView{
		ID:                   sess.id,
		CourseID:             sess.courseID,
		EnrollmentID:         sess.enrollmentID,
		LoadState:            sel.LoadState().String(),
		Timezone:             sess.timezone,
		Today:                sel.Today().Format(scheduler.DateLayout),
		ClassDurationMinutes: sel.ClassDurationMinutes(),
		Period: dto.PeriodView{
			StartDate: period.StartDate.Format(scheduler.DateLayout),
			EndDate:   period.EndDate.Format(scheduler.DateLayout),
		},
		Teachers:         teacherViews(sel.Teachers()),
		Recurring:        sel.Recurring(),
		WeekStart:        sel.WeekStart().Format(scheduler.DateLayout),
		Grid:             gridView(grid),
		WeeklySchedule:   weeklySlotViews(sel.WeeklySchedule()),
		ScheduledClasses: classInstanceViews(sel.ScheduledClasses()),
		ExpiresAt:        expiresAt,
	}
	if err := sel.LoadError(); err != nil {
		view.LoadError = err.Error()
	}
	if teacher, ok := sel.Teacher(); ok {
		view.SelectedTeacherID = teacher.ID
	}
	return view
}

func gridView(grid *scheduler.Grid) dto.GridView {
	disabled := grid.DisabledColumns()
	view := dto.GridView{
		Interactive:     grid.Interactive(),
		State:           grid.State().String(),
		Columns:         make([]string, 0, scheduler.DaysPerWeek),
		Feasible:        grid.Surface().Rows(),
		DisabledColumns: disabled[:],
		Selected:        cellViews(grid.Selected().Cells()),
		Span:            cellViews(grid.Span()),
	}
	for _, day := range scheduler.DisplayOrder {
		view.Columns = append(view.Columns, day.String())
	}
	if anchor, ok := grid.Anchor(); ok {
		view.Anchor = &dto.AnchorView{X: anchor.X, Y: anchor.Y}
	}
	return view
}

func teacherViews(teachers []scheduler.Teacher) []dto.TeacherAvailabilityView {
	out := make([]dto.TeacherAvailabilityView, 0, len(teachers))
	for _, t := range teachers {
		view := dto.TeacherAvailabilityView{ID: t.ID, Name: t.Name, Availability: []dto.TimeWindowView{}}
		for _, day := range scheduler.DisplayOrder {
			for _, r := range t.Availability.Ranges(day) {
				view.Availability = append(view.Availability, dto.TimeWindowView{
					Weekday: day.String(),
					Start:   r.Start.String(),
					End:     r.End.String(),
				})
			}
		}
		out = append(out, view)
	}
	return out
}

func cellViews(cells []scheduler.Cell) []dto.CellView {
	out := make([]dto.CellView, 0, len(cells))
	for _, c := range cells {
		out = append(out, dto.CellView{Weekday: c.Day.String(), Hour: c.Hour})
	}
	return out
}

func weeklySlotViews(slots []scheduler.WeeklySlot) []dto.WeeklySlotView {
	out := make([]dto.WeeklySlotView, 0, len(slots))
	for _, slot := range slots {
		out = append(out, dto.WeeklySlotView{
			TeacherID: slot.TeacherID,
			Weekday:   slot.Weekday.String(),
			StartTime: slot.StartTime.String(),
			EndTime:   slot.EndTime.String(),
		})
	}
	return out
}

func classInstanceViews(classes []scheduler.ClassInstance) []dto.ClassInstanceView {
	out := make([]dto.ClassInstanceView, 0, len(classes))
	for _, c := range classes {
		out = append(out, dto.ClassInstanceView{
			Date:      c.Date.Format(scheduler.DateLayout),
			Weekday:   c.Weekday.String(),
			StartTime: c.StartTime.String(),
			EndTime:   c.EndTime.String(),
			TeacherID: c.TeacherID,
		})
	}
	return out
}

func confirmationView(c *scheduler.Confirmation) *dto.ScheduleConfirmation {
	return &dto.ScheduleConfirmation{
		TeacherID:        c.TeacherID,
		ScheduledClasses: classInstanceViews(c.ScheduledClasses),
		IsRecurring:      c.IsRecurring,
		WeeklySchedule:   weeklySlotViews(c.WeeklySchedule),
	}
}

func weeklySlotModels(slots []scheduler.WeeklySlot) []models.EnrollmentWeeklySlot {
	out := make([]models.EnrollmentWeeklySlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, models.EnrollmentWeeklySlot{
			TeacherID: slot.TeacherID,
			DayOfWeek: slot.Weekday.String(),
			StartTime: slot.StartTime.String(),
			EndTime:   slot.EndTime.String(),
		})
	}
	return out
}

func scheduledClassModels(classes []scheduler.ClassInstance) []models.ScheduledClass {
	out := make([]models.ScheduledClass, 0, len(classes))
	for _, c := range classes {
		out = append(out, models.ScheduledClass{
			TeacherID: c.TeacherID,
			ClassDate: c.Date,
			DayOfWeek: c.Weekday.String(),
			StartTime: c.StartTime.String(),
			EndTime:   c.EndTime.String(),
		})
	}
	return out
}

// weeklySlotsFromModels converts stored rows back into a pattern, skipping rows that no longer parse.
func weeklySlotsFromModels(rows []models.EnrollmentWeeklySlot) ([]scheduler.WeeklySlot, []error) {
	var (
		out  = make([]scheduler.WeeklySlot, 0, len(rows))
		errs []error
	)
	for _, row := range rows {
		day, err := scheduler.ParseWeekday(row.DayOfWeek)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		window, err := scheduler.NewTimeRange(row.StartTime, row.EndTime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, scheduler.WeeklySlot{
			TeacherID: row.TeacherID,
			Weekday:   day,
			StartTime: window.Start,
			EndTime:   window.End,
		})
	}
	return out, errs
}

// classViewsFromModels renders stored classes, normalising Postgres TIME values to HH:MM.
func classViewsFromModels(rows []models.ScheduledClass) []dto.ClassInstanceView {
	out := make([]dto.ClassInstanceView, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ClassInstanceView{
			Date:      row.ClassDate.Format(scheduler.DateLayout),
			Weekday:   row.DayOfWeek,
			StartTime: normaliseClock(row.StartTime),
			EndTime:   normaliseClock(row.EndTime),
			TeacherID: row.TeacherID,
		})
	}
	return out
}

func normaliseClock(raw string) string {
	t, err := scheduler.ParseTimeOfDay(raw)
	if err != nil {
		return raw
	}
	return t.String()
}
