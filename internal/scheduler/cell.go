package scheduler

import "sort"

// Cell is one selectable (weekday, hour) grid position. Classes always start on the hour.
type Cell struct {
	Day  Weekday `json:"weekday"`
	Hour int     `json:"hour"`
}

// Valid reports whether the cell lies on the 7x24 grid.
func (c Cell) Valid() bool {
	return c.Day.Valid() && c.Hour >= 0 && c.Hour < HoursPerDay
}

// StartTime returns the cell's start on the hour.
func (c Cell) StartTime() TimeOfDay {
	return AtHour(c.Hour)
}

// EndTime uses exact minute arithmetic, independent of the rounded feasibility window.
func (c Cell) EndTime(classDurationMinutes int) TimeOfDay {
	return TimeOfDay(c.Hour*60 + classDurationMinutes)
}

func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		di, dj := cells[i].Day.DisplayIndex(), cells[j].Day.DisplayIndex()
		if di == dj {
			return cells[i].Hour < cells[j].Hour
		}
		return di < dj
	})
}

// SlotSet is the set of cells chosen by the user.
type SlotSet struct {
	items map[Cell]struct{}
}

// NewSlotSet builds a set from the provided cells.
func NewSlotSet(cells ...Cell) *SlotSet {
	s := &SlotSet{items: make(map[Cell]struct{}, len(cells))}
	for _, c := range cells {
		s.items[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s *SlotSet) Has(c Cell) bool {
	_, ok := s.items[c]
	return ok
}

// Len returns the number of cells.
func (s *SlotSet) Len() int {
	return len(s.items)
}

// Toggle adds c when absent and removes it when present.
func (s *SlotSet) Toggle(c Cell) {
	if s.Has(c) {
		delete(s.items, c)
		return
	}
	s.items[c] = struct{}{}
}

// Union adds every cell.
func (s *SlotSet) Union(cells []Cell) {
	for _, c := range cells {
		s.items[c] = struct{}{}
	}
}

// Subtract removes every cell that is present.
func (s *SlotSet) Subtract(cells []Cell) {
	for _, c := range cells {
		delete(s.items, c)
	}
}

// Clear empties the set.
func (s *SlotSet) Clear() {
	s.items = make(map[Cell]struct{})
}

// Cells returns members sorted by display column then hour.
func (s *SlotSet) Cells() []Cell {
	out := make([]Cell, 0, len(s.items))
	for c := range s.items {
		out = append(out, c)
	}
	sortCells(out)
	return out
}
