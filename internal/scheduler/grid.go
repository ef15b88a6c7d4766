package scheduler

import (
	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

// GridState tags the drag-selection phase.
type GridState int

const (
	GridIdle GridState = iota
	GridDragging
	GridPendingDecision
)

func (s GridState) String() string {
	switch s {
	case GridDragging:
		return "dragging"
	case GridPendingDecision:
		return "pending_decision"
	default:
		return "idle"
	}
}

// Decision resolves a pending multi-cell drag.
type Decision string

const (
	DecisionAdd    Decision = "add"
	DecisionRemove Decision = "remove"
	DecisionCancel Decision = "cancel"
)

// Anchor is the pointer release position used to place the add/remove prompt.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerOutcome reports what a pointer release did.
type PointerOutcome int

const (
	OutcomeNone PointerOutcome = iota
	OutcomeToggled
	OutcomePending
)

func (o PointerOutcome) String() string {
	switch o {
	case OutcomeToggled:
		return "toggled"
	case OutcomePending:
		return "pending_decision"
	default:
		return "none"
	}
}

// Grid is the drag-to-select state machine over the 7x24 cell grid.
//
// Idle --down(feasible)--> Dragging --up(1 cell)--> Idle (toggle)
//
//	Dragging --up(>1 cells)--> PendingDecision --decide--> Idle
type Grid struct {
	surface  *Surface
	disabled [DaysPerWeek]bool
	selected *SlotSet

	state  GridState
	origin Cell
	span   []Cell
	anchor Anchor
}

// NewGrid returns an inert grid with an empty selection.
func NewGrid() *Grid {
	return &Grid{selected: NewSlotSet()}
}

// SetSurface installs a new feasibility surface. The selection and any in-flight drag are
// discarded because they were judged against the previous surface.
func (g *Grid) SetSurface(s *Surface) {
	g.surface = s
	g.selected.Clear()
	g.resetDrag()
}

// SetDisabledColumns marks display columns as unselectable. In-flight drags are dropped; the
// selection is kept.
func (g *Grid) SetDisabledColumns(disabled [DaysPerWeek]bool) {
	g.disabled = disabled
	g.resetDrag()
}

// DisabledColumns returns the current column mask.
func (g *Grid) DisabledColumns() [DaysPerWeek]bool {
	return g.disabled
}

// Interactive reports whether a surface has been loaded.
func (g *Grid) Interactive() bool {
	return g.surface != nil
}

// Surface returns the active feasibility surface (nil while inert).
func (g *Grid) Surface() *Surface {
	return g.surface
}

// Selectable reports whether c may start or join a drag.
func (g *Grid) Selectable(c Cell) bool {
	if !g.surface.Feasible(c) {
		return false
	}
	return !g.disabled[c.Day.DisplayIndex()]
}

// State returns the current phase.
func (g *Grid) State() GridState {
	return g.state
}

// Span returns the cells covered by the current drag or pending decision.
func (g *Grid) Span() []Cell {
	out := make([]Cell, len(g.span))
	copy(out, g.span)
	return out
}

// Anchor returns where the pending prompt should be placed.
func (g *Grid) Anchor() (Anchor, bool) {
	if g.state != GridPendingDecision {
		return Anchor{}, false
	}
	return g.anchor, true
}

// Selected returns the committed selection.
func (g *Grid) Selected() *SlotSet {
	return g.selected
}

// Seed replaces the selection with the selectable subset of cells.
func (g *Grid) Seed(cells []Cell) int {
	g.selected.Clear()
	g.resetDrag()
	kept := 0
	for _, c := range cells {
		if g.surface.Feasible(c) {
			g.selected.Union([]Cell{c})
			kept++
		}
	}
	return kept
}

// PointerDown starts a drag on a selectable cell. It returns false when ignored.
func (g *Grid) PointerDown(c Cell) bool {
	if g.state != GridIdle || !g.Selectable(c) {
		return false
	}
	g.state = GridDragging
	g.origin = c
	g.span = []Cell{c}
	return true
}

// PointerEnter extends the drag rectangle to c.
func (g *Grid) PointerEnter(c Cell) bool {
	if g.state != GridDragging || !c.Valid() {
		return false
	}
	g.span = g.rectangle(g.origin, c)
	return true
}

// PointerUp ends the drag. One cell toggles immediately; several cells wait for Decide.
func (g *Grid) PointerUp(anchor Anchor) PointerOutcome {
	if g.state != GridDragging {
		return OutcomeNone
	}
	switch len(g.span) {
	case 0:
		g.resetDrag()
		return OutcomeNone
	case 1:
		g.selected.Toggle(g.span[0])
		g.resetDrag()
		return OutcomeToggled
	default:
		g.state = GridPendingDecision
		g.anchor = anchor
		return OutcomePending
	}
}

// PointerLeave resolves a drag whose pointer left the grid without a release.
func (g *Grid) PointerLeave(anchor Anchor) PointerOutcome {
	return g.PointerUp(anchor)
}

// Decide applies the user's choice for a pending span.
func (g *Grid) Decide(decision Decision) error {
	if g.state != GridPendingDecision {
		return appErrors.Clone(appErrors.ErrValidation, "no pending selection to resolve")
	}
	switch decision {
	case DecisionAdd:
		g.selected.Union(g.span)
	case DecisionRemove:
		g.selected.Subtract(g.span)
	case DecisionCancel:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "decision must be add, remove or cancel")
	}
	g.resetDrag()
	return nil
}

// Reset clears selection and drag state but keeps the surface.
func (g *Grid) Reset() {
	g.selected.Clear()
	g.resetDrag()
}

func (g *Grid) resetDrag() {
	g.state = GridIdle
	g.origin = Cell{}
	g.span = nil
	g.anchor = Anchor{}
}

// rectangle returns the selectable cells between a and b over (display column x hour).
func (g *Grid) rectangle(a, b Cell) []Cell {
	colLo, colHi := minMax(a.Day.DisplayIndex(), b.Day.DisplayIndex())
	hourLo, hourHi := minMax(a.Hour, b.Hour)
	var out []Cell
	for col := colLo; col <= colHi; col++ {
		day := DisplayOrder[col]
		for hour := hourLo; hour <= hourHi; hour++ {
			c := Cell{Day: day, Hour: hour}
			if g.Selectable(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
