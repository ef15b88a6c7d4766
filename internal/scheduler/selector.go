package scheduler

import (
	"time"

	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

// Teacher is a scheduling candidate with their weekly availability for one course.
type Teacher struct {
	ID           string
	Name         string
	Availability Availability
}

// LoadState tracks the teacher/availability fetch.
type LoadState int

const (
	LoadPending LoadState = iota
	LoadReady
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Config carries the host-supplied inputs of one selection session.
type Config struct {
	ClassDurationMinutes int
	Period               AcademicPeriod
	// Location is the student's zone; it only decides which dates are in the past.
	Location  *time.Location
	Now       func() time.Time
	Recurring bool
}

// Confirmation is handed to the enrollment workflow for persistence.
type Confirmation struct {
	TeacherID        string
	ScheduledClasses []ClassInstance
	IsRecurring      bool
	WeeklySchedule   []WeeklySlot
}

// Selector composes availability, feasibility, drag selection and expansion for one session.
// It is not safe for concurrent use.
type Selector struct {
	cfg Config

	state    LoadState
	loadErr  error
	teachers []Teacher
	teacher  *Teacher

	grid      *Grid
	recurring bool
	weekStart time.Time
}

// NewSelector validates cfg and returns a selector waiting for teacher data.
func NewSelector(cfg Config) (*Selector, error) {
	if cfg.ClassDurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class duration must be positive")
	}
	if cfg.Period.StartDate.IsZero() || cfg.Period.EndDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic period is required")
	}
	if cfg.Period.EndDate.Before(cfg.Period.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic period ends before it starts")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Selector{
		cfg:       cfg,
		grid:      NewGrid(),
		recurring: cfg.Recurring,
	}
	s.weekStart = s.firstWeek()
	s.refreshColumns()
	return s, nil
}

// Load installs the fetched teachers and makes the selector interactive.
func (s *Selector) Load(teachers []Teacher) {
	s.teachers = make([]Teacher, len(teachers))
	copy(s.teachers, teachers)
	s.state = LoadReady
	s.loadErr = nil
	s.teacher = nil
	s.grid.SetSurface(nil)
}

// Fail records a terminal load failure: no teachers, inert grid, no internal retry.
func (s *Selector) Fail(err error) {
	s.state = LoadFailed
	s.loadErr = err
	s.teachers = nil
	s.teacher = nil
	s.grid.SetSurface(nil)
}

// LoadState returns the fetch state.
func (s *Selector) LoadState() LoadState {
	return s.state
}

// LoadError returns the failure recorded by Fail.
func (s *Selector) LoadError() error {
	return s.loadErr
}

// Teachers returns the loaded candidates (nil while pending or failed).
func (s *Selector) Teachers() []Teacher {
	return s.teachers
}

// Teacher returns the selected teacher.
func (s *Selector) Teacher() (Teacher, bool) {
	if s.teacher == nil {
		return Teacher{}, false
	}
	return *s.teacher, true
}

// Grid exposes the selection state machine for rendering.
func (s *Selector) Grid() *Grid {
	return s.grid
}

// ClassDurationMinutes returns the configured duration.
func (s *Selector) ClassDurationMinutes() int {
	return s.cfg.ClassDurationMinutes
}

// Period returns the bounding academic period.
func (s *Selector) Period() AcademicPeriod {
	return s.cfg.Period
}

// Today is the current civil date in the student's zone.
func (s *Selector) Today() time.Time {
	return CivilDate(s.cfg.Now().In(s.cfg.Location))
}

// SelectTeacher switches availability, clears the selection and rebuilds the feasibility surface.
func (s *Selector) SelectTeacher(teacherID string) error {
	if s.state != LoadReady {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher availability is not loaded")
	}
	for i := range s.teachers {
		if s.teachers[i].ID == teacherID {
			t := s.teachers[i]
			s.teacher = &t
			s.grid.SetSurface(BuildSurface(t.Availability, s.cfg.ClassDurationMinutes))
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "teacher is not available for this course")
}

// Seed preselects an existing weekly pattern (edit flow). Slots that are no longer feasible, or
// that do not start on the hour, are dropped. It returns the number of cells kept.
func (s *Selector) Seed(teacherID string, pattern []WeeklySlot, recurring bool) (int, error) {
	if err := s.SelectTeacher(teacherID); err != nil {
		return 0, err
	}
	cells := make([]Cell, 0, len(pattern))
	for _, slot := range pattern {
		if slot.StartTime.Minute() != 0 {
			continue
		}
		cells = append(cells, slot.Cell())
	}
	s.SetRecurring(recurring)
	return s.grid.Seed(cells), nil
}

// Recurring reports the recurrence mode.
func (s *Selector) Recurring() bool {
	return s.recurring
}

// SetRecurring changes how the selection expands; the selection itself is kept.
func (s *Selector) SetRecurring(recurring bool) {
	s.recurring = recurring
	s.refreshColumns()
}

// WeekStart returns the Monday of the navigated week.
func (s *Selector) WeekStart() time.Time {
	return s.weekStart
}

// NavigateWeek shifts the viewed week in single-week mode, clamped to weeks that still contain
// schedulable dates. It reports whether the week changed.
func (s *Selector) NavigateWeek(delta int) bool {
	if s.recurring || delta == 0 {
		return false
	}
	target := s.weekStart.AddDate(0, 0, 7*delta)
	first, last := s.firstWeek(), WeekStart(s.cfg.Period.EndDate)
	if target.Before(first) {
		target = first
	}
	if target.After(last) {
		target = last
	}
	if target.Equal(s.weekStart) {
		return false
	}
	s.weekStart = target
	s.refreshColumns()
	return true
}

// PointerDown starts a drag; ignored while data is pending or the cell is not selectable.
func (s *Selector) PointerDown(c Cell) bool {
	if s.state != LoadReady {
		return false
	}
	return s.grid.PointerDown(c)
}

// PointerEnter extends the drag rectangle.
func (s *Selector) PointerEnter(c Cell) bool {
	if s.state != LoadReady {
		return false
	}
	return s.grid.PointerEnter(c)
}

// PointerUp ends the drag.
func (s *Selector) PointerUp(anchor Anchor) PointerOutcome {
	return s.grid.PointerUp(anchor)
}

// PointerLeave resolves a drag that lost pointer tracking.
func (s *Selector) PointerLeave(anchor Anchor) PointerOutcome {
	return s.grid.PointerLeave(anchor)
}

// Decide resolves a pending multi-cell drag.
func (s *Selector) Decide(d Decision) error {
	return s.grid.Decide(d)
}

// Selected returns the committed cells.
func (s *Selector) Selected() []Cell {
	return s.grid.Selected().Cells()
}

// WeeklySchedule projects the selection into recurring slots.
func (s *Selector) WeeklySchedule() []WeeklySlot {
	if s.teacher == nil {
		return nil
	}
	return ToWeeklyPattern(s.teacher.ID, s.Selected(), s.cfg.ClassDurationMinutes)
}

// ScheduledClasses regenerates the concrete class instances for the current state. In
// single-week mode, slots falling on disabled columns of the viewed week are not materialised.
func (s *Selector) ScheduledClasses() []ClassInstance {
	pattern := s.WeeklySchedule()
	if !s.recurring {
		disabled := s.grid.DisabledColumns()
		kept := pattern[:0:0]
		for _, slot := range pattern {
			if !disabled[slot.Weekday.DisplayIndex()] {
				kept = append(kept, slot)
			}
		}
		pattern = kept
	}
	return Expand(pattern, s.recurring, s.cfg.Period, s.Today(), s.weekStart)
}

// Confirm finalises the session. Nothing is mutated on failure.
func (s *Selector) Confirm() (*Confirmation, error) {
	if s.teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a teacher must be selected")
	}
	if s.grid.Selected().Len() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one time slot")
	}
	classes := s.ScheduledClasses()
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no classes fall within the schedulable dates")
	}
	return &Confirmation{
		TeacherID:        s.teacher.ID,
		ScheduledClasses: classes,
		IsRecurring:      s.recurring,
		WeeklySchedule:   s.WeeklySchedule(),
	}, nil
}

// earliestDate is the first date a class may be placed on.
func (s *Selector) earliestDate() time.Time {
	today := s.Today()
	if today.After(s.cfg.Period.StartDate) {
		return today
	}
	return s.cfg.Period.StartDate
}

func (s *Selector) firstWeek() time.Time {
	first := WeekStart(s.earliestDate())
	last := WeekStart(s.cfg.Period.EndDate)
	if first.After(last) {
		return last
	}
	return first
}

// refreshColumns disables past or out-of-period columns of the viewed week in single-week mode.
func (s *Selector) refreshColumns() {
	var mask [DaysPerWeek]bool
	if !s.recurring {
		today := s.Today()
		for col := range mask {
			date := s.weekStart.AddDate(0, 0, col)
			mask[col] = date.Before(today) || !s.cfg.Period.Contains(date)
		}
	}
	s.grid.SetDisabledColumns(mask)
}
