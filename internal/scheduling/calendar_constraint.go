package scheduling

import (
	"fmt"

	mk "github.com/lineforge/shopsched/pkg/minikanren"
)

// calendarWindowValues is one resource's calendar windows translated into
// the shifted minute-value space shared by every time variable in the
// model (value = minute + 1, so domains stay within the engine's 1-based
// range).
type calendarWindowValues struct {
	open  int
	close int
}

// CalendarWindow enforces that an operation's interval fits entirely
// within one calendar window of whichever resource it ends up assigned
// to. It generalizes the no-native-optional-interval idiom: a_{i,r}
// activation is represented here by resourceVar's domain rather than by a
// separate boolean, since resourceVar already carries exactly the
// candidate-resource information a_{i,r} would.
//
// Propagation only prunes start and resourceVar; end is left to the
// model's Arithmetic(start, end, duration) constraint to re-derive on the
// next fixed-point pass. This mirrors Inequality's bounds-only philosophy
// in propagation.go: sound, cheap, and intentionally incomplete.
type CalendarWindow struct {
	start       *mk.FDVariable
	end         *mk.FDVariable
	resourceVar *mk.FDVariable
	duration    int
	// windows[r] holds resource value r's calendar windows in value space,
	// sorted by open.
	windows map[int][]calendarWindowValues
}

// NewCalendarWindow constructs a CalendarWindow constraint. windows maps a
// resource's 1-based domain value to its calendar windows in value space.
func NewCalendarWindow(start, end, resourceVar *mk.FDVariable, duration int, windows map[int][]calendarWindowValues) (*CalendarWindow, error) {
	if start == nil || end == nil || resourceVar == nil {
		return nil, fmt.Errorf("CalendarWindow: start, end, and resourceVar must be non-nil")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("CalendarWindow: duration must be > 0")
	}
	return &CalendarWindow{
		start:       start,
		end:         end,
		resourceVar: resourceVar,
		duration:    duration,
		windows:     windows,
	}, nil
}

// Variables implements mk.ModelConstraint.
func (c *CalendarWindow) Variables() []*mk.FDVariable {
	return []*mk.FDVariable{c.start, c.end, c.resourceVar}
}

// Type implements mk.ModelConstraint.
func (c *CalendarWindow) Type() string { return "CalendarWindow" }

// String implements mk.ModelConstraint.
func (c *CalendarWindow) String() string {
	return fmt.Sprintf("CalendarWindow(start=v%d, resource=v%d, dur=%d)", c.start.ID(), c.resourceVar.ID(), c.duration)
}

// fitsSomeWindow reports whether a task of this duration starting at s can
// fit entirely inside one of the given windows.
func (c *CalendarWindow) fitsSomeWindow(s int, windows []calendarWindowValues) bool {
	for _, w := range windows {
		if s >= w.open && s+c.duration <= w.close {
			return true
		}
	}
	return false
}

// Propagate applies CalendarWindow's filtering.
// Implements mk.PropagationConstraint.
func (c *CalendarWindow) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("CalendarWindow.Propagate: nil solver")
	}

	startDom := solver.GetDomain(state, c.start.ID())
	resDom := solver.GetDomain(state, c.resourceVar.ID())
	if startDom == nil || resDom == nil {
		return nil, fmt.Errorf("CalendarWindow: nil domain")
	}

	var candidates []int
	resDom.IterateValues(func(v int) { candidates = append(candidates, v) })

	// Prune start: keep only values that fit some window of some candidate
	// resource.
	var allowedStarts []int
	startDom.IterateValues(func(s int) {
		for _, r := range candidates {
			if c.fitsSomeWindow(s, c.windows[r]) {
				allowedStarts = append(allowedStarts, s)
				return
			}
		}
	})
	if len(allowedStarts) == 0 {
		return nil, fmt.Errorf("CalendarWindow: operation on v%d has no feasible start in any candidate resource's calendar", c.start.ID())
	}

	newState := state
	if len(allowedStarts) < startDom.Count() {
		newStartDom := mk.NewBitSetDomainFromValues(startDom.MaxValue(), allowedStarts)
		newState, _ = solver.SetDomain(newState, c.start.ID(), newStartDom)
		startDom = newStartDom
	}

	// Prune resourceVar: drop candidates that can no longer admit any
	// remaining start value.
	var allowedResources []int
	for _, r := range candidates {
		admits := false
		startDom.IterateValues(func(s int) {
			if !admits && c.fitsSomeWindow(s, c.windows[r]) {
				admits = true
			}
		})
		if admits {
			allowedResources = append(allowedResources, r)
		}
	}
	if len(allowedResources) == 0 {
		return nil, fmt.Errorf("CalendarWindow: no candidate resource on v%d admits any remaining start", c.resourceVar.ID())
	}
	if len(allowedResources) < resDom.Count() {
		newResDom := mk.NewBitSetDomainFromValues(resDom.MaxValue(), allowedResources)
		newState, _ = solver.SetDomain(newState, c.resourceVar.ID(), newResDom)
	}

	return newState, nil
}
