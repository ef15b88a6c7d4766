package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for civil dates.
const DateLayout = "2006-01-02"

// CivilDate strips the clock and zone from t, keeping its calendar date in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// WeekStart returns the Monday of the week containing date.
func WeekStart(date time.Time) time.Time {
	date = CivilDate(date)
	return date.AddDate(0, 0, -FromTime(date.Weekday()).DisplayIndex())
}

// AcademicPeriod bounds every generated class instance (inclusive on both ends).
type AcademicPeriod struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewAcademicPeriod normalises both bounds to civil dates.
func NewAcademicPeriod(start, end time.Time) (AcademicPeriod, error) {
	p := AcademicPeriod{StartDate: CivilDate(start), EndDate: CivilDate(end)}
	if p.EndDate.Before(p.StartDate) {
		return AcademicPeriod{}, fmt.Errorf("academic period ends (%s) before it starts (%s)",
			p.EndDate.Format(DateLayout), p.StartDate.Format(DateLayout))
	}
	return p, nil
}

// Contains reports whether date falls inside the period.
func (p AcademicPeriod) Contains(date time.Time) bool {
	date = CivilDate(date)
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// WeeklySlot is the recurring projection of a selected cell.
type WeeklySlot struct {
	TeacherID string
	Weekday   Weekday
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// Cell returns the grid cell the slot starts in.
func (w WeeklySlot) Cell() Cell {
	return Cell{Day: w.Weekday, Hour: w.StartTime.Hour()}
}

// ClassInstance is one concrete class meeting.
type ClassInstance struct {
	Date      time.Time
	Weekday   Weekday
	StartTime TimeOfDay
	EndTime   TimeOfDay
	TeacherID string
}

// ToWeeklyPattern projects selected cells into weekly slots, dropping concrete dates.
func ToWeeklyPattern(teacherID string, cells []Cell, classDurationMinutes int) []WeeklySlot {
	sorted := make([]Cell, len(cells))
	copy(sorted, cells)
	sortCells(sorted)

	out := make([]WeeklySlot, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, WeeklySlot{
			TeacherID: teacherID,
			Weekday:   c.Day,
			StartTime: c.StartTime(),
			EndTime:   c.EndTime(classDurationMinutes),
		})
	}
	return out
}

// ExpandRecurring emits one instance per matching slot for every date in
// [max(today, period.StartDate), period.EndDate].
func ExpandRecurring(pattern []WeeklySlot, period AcademicPeriod, today time.Time) []ClassInstance {
	byDay := make(map[Weekday][]WeeklySlot, DaysPerWeek)
	for _, slot := range pattern {
		byDay[slot.Weekday] = append(byDay[slot.Weekday], slot)
	}

	start := period.StartDate
	if t := CivilDate(today); t.After(start) {
		start = t
	}

	var out []ClassInstance
	for date := start; !date.After(period.EndDate); date = date.AddDate(0, 0, 1) {
		for _, slot := range byDay[FromTime(date.Weekday())] {
			out = append(out, instanceOf(slot, date))
		}
	}
	sortInstances(out)
	return out
}

// ExpandSingleWeek dates every slot inside the week starting at weekStart.
func ExpandSingleWeek(pattern []WeeklySlot, weekStart time.Time) []ClassInstance {
	monday := WeekStart(weekStart)
	out := make([]ClassInstance, 0, len(pattern))
	for _, slot := range pattern {
		out = append(out, instanceOf(slot, monday.AddDate(0, 0, slot.Weekday.DisplayIndex())))
	}
	sortInstances(out)
	return out
}

// Expand dispatches on the recurrence mode. Inputs are trusted: bounds are enforced upstream by
// disabling grid columns.
func Expand(pattern []WeeklySlot, recurring bool, period AcademicPeriod, today, weekStart time.Time) []ClassInstance {
	if recurring {
		return ExpandRecurring(pattern, period, today)
	}
	return ExpandSingleWeek(pattern, weekStart)
}

func instanceOf(slot WeeklySlot, date time.Time) ClassInstance {
	return ClassInstance{
		Date:      date,
		Weekday:   slot.Weekday,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		TeacherID: slot.TeacherID,
	}
}

func sortInstances(items []ClassInstance) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].Date.Before(items[j].Date)
	})
}
