package scheduler

import (
	"fmt"
	"sort"
)

// Availability maps each weekday to the teacher's open time ranges.
// An empty list means the teacher is unavailable that day.
type Availability map[Weekday][]TimeRange

// Ranges returns a start-ordered copy of the ranges for day.
func (a Availability) Ranges(day Weekday) []TimeRange {
	src := a[day]
	if len(src) == 0 {
		return nil
	}
	out := make([]TimeRange, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// Add appends a range to day. No overlap check is made; see Validate.
func (a Availability) Add(day Weekday, r TimeRange) {
	a[day] = append(a[day], r)
}

// Validate reports invalid or overlapping ranges. Callers decide what to do with malformed data;
// the feasibility evaluator never repairs it.
func (a Availability) Validate() error {
	for day := range a {
		if !day.Valid() {
			return fmt.Errorf("invalid weekday %d in availability", int(day))
		}
		sorted := a.Ranges(day)
		for i, r := range sorted {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			if i > 0 && sorted[i-1].Overlaps(r) {
				return fmt.Errorf("%s: ranges %s and %s overlap", day, sorted[i-1], r)
			}
		}
	}
	return nil
}
