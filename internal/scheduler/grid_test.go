package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lingo-schedule-api/pkg/errors"
)

func weekdayMornings(t *testing.T) Availability {
	a := Availability{}
	for _, day := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday} {
		a.Add(day, mustRange(t, "08:00", "12:00"))
	}
	return a
}

func newTestGrid(t *testing.T) *Grid {
	g := NewGrid()
	g.SetSurface(BuildSurface(weekdayMornings(t), 60))
	return g
}

func TestGridInertWithoutSurface(t *testing.T) {
	g := NewGrid()
	assert.False(t, g.Interactive())
	assert.False(t, g.PointerDown(Cell{Day: Monday, Hour: 9}))
	assert.Equal(t, GridIdle, g.State())
}

func TestGridPointerDownOnInfeasibleCellIsNoop(t *testing.T) {
	g := newTestGrid(t)
	assert.False(t, g.PointerDown(Cell{Day: Saturday, Hour: 9}))
	assert.Equal(t, GridIdle, g.State())
	assert.Equal(t, 0, g.Selected().Len())
}

func TestGridSingleCellToggle(t *testing.T) {
	g := newTestGrid(t)
	cell := Cell{Day: Tuesday, Hour: 10}

	require.True(t, g.PointerDown(cell))
	assert.Equal(t, GridDragging, g.State())
	assert.Equal(t, OutcomeToggled, g.PointerUp(Anchor{}))
	assert.True(t, g.Selected().Has(cell))
	assert.Equal(t, GridIdle, g.State())

	require.True(t, g.PointerDown(cell))
	assert.Equal(t, OutcomeToggled, g.PointerUp(Anchor{}))
	assert.False(t, g.Selected().Has(cell))
	assert.Equal(t, 0, g.Selected().Len())
}

func TestGridToggleIdempotenceKeepsOtherCells(t *testing.T) {
	g := newTestGrid(t)
	g.Seed([]Cell{{Day: Monday, Hour: 8}, {Day: Friday, Hour: 11}})
	before := g.Selected().Cells()

	cell := Cell{Day: Wednesday, Hour: 9}
	for i := 0; i < 2; i++ {
		require.True(t, g.PointerDown(cell))
		g.PointerUp(Anchor{})
	}
	assert.Equal(t, before, g.Selected().Cells())
}

func TestGridDragRectangleClipsToFeasibleCells(t *testing.T) {
	g := newTestGrid(t)

	require.True(t, g.PointerDown(Cell{Day: Thursday, Hour: 10}))
	require.True(t, g.PointerEnter(Cell{Day: Sunday, Hour: 13}))

	span := g.Span()
	// Thursday..Sunday x 10..13; only Thu/Fri at 10 and 11 are feasible.
	assert.ElementsMatch(t, []Cell{
		{Day: Thursday, Hour: 10}, {Day: Thursday, Hour: 11},
		{Day: Friday, Hour: 10}, {Day: Friday, Hour: 11},
	}, span)
}

func TestGridDragRectangleContainment(t *testing.T) {
	g := newTestGrid(t)
	cells := []Cell{}
	for _, day := range DisplayOrder {
		for hour := 6; hour < 14; hour++ {
			cells = append(cells, Cell{Day: day, Hour: hour})
		}
	}
	for _, origin := range cells {
		if !g.Selectable(origin) {
			continue
		}
		for _, end := range cells {
			require.True(t, g.PointerDown(origin))
			g.PointerEnter(end)
			colLo, colHi := minMax(origin.Day.DisplayIndex(), end.Day.DisplayIndex())
			hourLo, hourHi := minMax(origin.Hour, end.Hour)

			expected := 0
			for col := colLo; col <= colHi; col++ {
				for hour := hourLo; hour <= hourHi; hour++ {
					if g.Selectable(Cell{Day: DisplayOrder[col], Hour: hour}) {
						expected++
					}
				}
			}
			span := g.Span()
			require.Len(t, span, expected)
			for _, c := range span {
				col := c.Day.DisplayIndex()
				require.True(t, col >= colLo && col <= colHi && c.Hour >= hourLo && c.Hour <= hourHi)
				require.True(t, g.Selectable(c))
			}
			g.PointerUp(Anchor{})
			if g.State() == GridPendingDecision {
				require.NoError(t, g.Decide(DecisionCancel))
			}
			g.Reset()
		}
	}
}

func TestGridMultiCellAdd(t *testing.T) {
	g := newTestGrid(t)
	g.Seed([]Cell{{Day: Friday, Hour: 8}})

	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 9}))
	g.PointerEnter(Cell{Day: Wednesday, Hour: 9})
	assert.Equal(t, OutcomePending, g.PointerUp(Anchor{X: 120, Y: 48}))
	assert.Equal(t, GridPendingDecision, g.State())
	anchor, ok := g.Anchor()
	require.True(t, ok)
	assert.Equal(t, Anchor{X: 120, Y: 48}, anchor)
	assert.Equal(t, 1, g.Selected().Len(), "nothing merges before the decision")

	require.NoError(t, g.Decide(DecisionAdd))
	assert.Equal(t, 4, g.Selected().Len())
	assert.True(t, g.Selected().Has(Cell{Day: Tuesday, Hour: 9}))
	assert.Equal(t, GridIdle, g.State())
	assert.Empty(t, g.Span())
}

func TestGridMultiCellRemove(t *testing.T) {
	g := newTestGrid(t)
	g.Seed([]Cell{{Day: Monday, Hour: 9}, {Day: Friday, Hour: 8}})

	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 9}))
	g.PointerEnter(Cell{Day: Wednesday, Hour: 9})
	g.PointerUp(Anchor{})
	require.NoError(t, g.Decide(DecisionRemove))

	assert.Equal(t, []Cell{{Day: Friday, Hour: 8}}, g.Selected().Cells())
}

func TestGridMultiCellCancel(t *testing.T) {
	g := newTestGrid(t)
	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 8}))
	g.PointerEnter(Cell{Day: Monday, Hour: 11})
	g.PointerUp(Anchor{})
	require.NoError(t, g.Decide(DecisionCancel))
	assert.Equal(t, 0, g.Selected().Len())
	assert.Equal(t, GridIdle, g.State())
}

func TestGridPendingIgnoresNewDrag(t *testing.T) {
	g := newTestGrid(t)
	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 8}))
	g.PointerEnter(Cell{Day: Monday, Hour: 9})
	g.PointerUp(Anchor{})

	assert.False(t, g.PointerDown(Cell{Day: Tuesday, Hour: 8}))
	assert.Equal(t, GridPendingDecision, g.State())
}

func TestGridDecideWithoutPendingFails(t *testing.T) {
	g := newTestGrid(t)
	err := g.Decide(DecisionAdd)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGridPointerLeaveResolvesDrag(t *testing.T) {
	g := newTestGrid(t)
	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 8}))
	assert.Equal(t, OutcomeToggled, g.PointerLeave(Anchor{}))
	assert.Equal(t, GridIdle, g.State())
	assert.True(t, g.Selected().Has(Cell{Day: Monday, Hour: 8}))

	require.True(t, g.PointerDown(Cell{Day: Monday, Hour: 9}))
	g.PointerEnter(Cell{Day: Tuesday, Hour: 9})
	assert.Equal(t, OutcomePending, g.PointerLeave(Anchor{}))
}

func TestGridSurfaceSwitchClearsEverything(t *testing.T) {
	g := newTestGrid(t)
	g.Seed([]Cell{{Day: Monday, Hour: 9}})
	require.True(t, g.PointerDown(Cell{Day: Tuesday, Hour: 9}))

	g.SetSurface(BuildSurface(weekdayMornings(t), 60))
	assert.Equal(t, 0, g.Selected().Len())
	assert.Equal(t, GridIdle, g.State())
}

func TestGridDisabledColumns(t *testing.T) {
	g := newTestGrid(t)
	var mask [DaysPerWeek]bool
	mask[Monday.DisplayIndex()] = true
	g.SetDisabledColumns(mask)

	assert.False(t, g.PointerDown(Cell{Day: Monday, Hour: 9}))
	require.True(t, g.PointerDown(Cell{Day: Tuesday, Hour: 9}))
	g.PointerEnter(Cell{Day: Monday, Hour: 9})
	assert.Equal(t, []Cell{{Day: Tuesday, Hour: 9}}, g.Span())
}
