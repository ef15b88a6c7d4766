package scheduler

// RequiredHours rounds a class duration up to whole hours. Only the feasibility check uses it;
// stored end times keep exact minutes (see Cell.EndTime).
func RequiredHours(classDurationMinutes int) int {
	if classDurationMinutes <= 0 {
		return 0
	}
	return (classDurationMinutes + 59) / 60
}

// IsFeasible reports whether a class of the given duration can start at hourStart on day.
// The hour-aligned window [hourStart, hourStart+RequiredHours) must fit entirely inside a single
// availability range; ranges are compared at hour granularity and never merged.
func IsFeasible(availability Availability, day Weekday, hourStart, classDurationMinutes int) bool {
	if classDurationMinutes <= 0 || hourStart < 0 || hourStart >= HoursPerDay {
		return false
	}
	requiredEnd := hourStart + RequiredHours(classDurationMinutes)
	for _, r := range availability[day] {
		if r.Start.Hour() <= hourStart && requiredEnd <= r.End.Hour() {
			return true
		}
	}
	return false
}

// Surface is the precomputed feasibility of every grid cell for one teacher and duration.
// A nil *Surface means availability has not been loaded and the grid is inert.
type Surface struct {
	cells [DaysPerWeek][HoursPerDay]bool
}

// BuildSurface evaluates IsFeasible for all 7x24 cells.
func BuildSurface(availability Availability, classDurationMinutes int) *Surface {
	s := &Surface{}
	for col, day := range DisplayOrder {
		for hour := 0; hour < HoursPerDay; hour++ {
			s.cells[col][hour] = IsFeasible(availability, day, hour, classDurationMinutes)
		}
	}
	return s
}

// Feasible reports the cached judgement for c. A nil surface is never feasible.
func (s *Surface) Feasible(c Cell) bool {
	if s == nil || !c.Valid() {
		return false
	}
	return s.cells[c.Day.DisplayIndex()][c.Hour]
}

// Rows returns feasibility as [displayIndex][hour] for rendering.
func (s *Surface) Rows() [][]bool {
	if s == nil {
		return nil
	}
	out := make([][]bool, DaysPerWeek)
	for col := range s.cells {
		row := make([]bool, HoursPerDay)
		copy(row, s.cells[col][:])
		out[col] = row
	}
	return out
}

// Count returns the number of feasible cells.
func (s *Surface) Count() int {
	if s == nil {
		return 0
	}
	n := 0
	for col := range s.cells {
		for _, ok := range s.cells[col] {
			if ok {
				n++
			}
		}
	}
	return n
}
