package scheduling

import (
	"fmt"

	mk "github.com/lineforge/shopsched/pkg/minikanren"
)

// OptionalCapacity is a per-resource disjunctive/cumulative constraint over
// operations that merely *might* run on that resource. It is grounded in the
// time-table filtering algorithm the teacher engine uses for its own mandatory
// cumulative constraint (compulsory parts, a per-instant load profile,
// over-capacity failure), generalized to the optional-interval idiom this
// domain needs: an operation only contributes load once its resourceVar is
// confirmed (singleton) equal to this resource's value; until then it is a
// candidate whose presence is checked but never assumed.
//
// Unit demand is used throughout (each operation occupies exactly one unit
// of the resource's capacity for its duration); Resource.Capacity > 1
// models resources that can run several operations side by side, e.g. a
// batch oven.
type OptionalCapacity struct {
	starts        []*mk.FDVariable
	resourceVars  []*mk.FDVariable
	resourceValue int
	durations     []int
	capacity      int
}

// NewOptionalCapacity constructs the constraint for one resource. starts[i]
// and resourceVars[i] describe the same operation i, one of possibly
// several candidates for this resource.
func NewOptionalCapacity(starts, resourceVars []*mk.FDVariable, durations []int, resourceValue, capacity int) (*OptionalCapacity, error) {
	n := len(starts)
	if n == 0 {
		return nil, fmt.Errorf("OptionalCapacity: requires at least one candidate operation")
	}
	if len(resourceVars) != n || len(durations) != n {
		return nil, fmt.Errorf("OptionalCapacity: mismatched slice lengths")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("OptionalCapacity: capacity must be > 0")
	}
	sc := make([]*mk.FDVariable, n)
	copy(sc, starts)
	rc := make([]*mk.FDVariable, n)
	copy(rc, resourceVars)
	dc := make([]int, n)
	copy(dc, durations)
	return &OptionalCapacity{starts: sc, resourceVars: rc, resourceValue: resourceValue, durations: dc, capacity: capacity}, nil
}

// Variables implements mk.ModelConstraint.
func (c *OptionalCapacity) Variables() []*mk.FDVariable {
	out := make([]*mk.FDVariable, 0, len(c.starts)+len(c.resourceVars))
	out = append(out, c.starts...)
	out = append(out, c.resourceVars...)
	return out
}

// Type implements mk.ModelConstraint.
func (c *OptionalCapacity) Type() string { return "OptionalCapacity" }

// String implements mk.ModelConstraint.
func (c *OptionalCapacity) String() string {
	return fmt.Sprintf("OptionalCapacity(resource=%d, candidates=%d, capacity=%d)", c.resourceValue, len(c.starts), c.capacity)
}

// Propagate runs time-table filtering over the mandatory subset (operations
// whose resourceVar is already bound to this resource) and uses the
// resulting profile to both prune mandatory starts and, where an optional
// candidate cannot fit anywhere, remove this resource from its
// resourceVar's domain.
func (c *OptionalCapacity) Propagate(solver *mk.Solver, state *mk.SolverState) (*mk.SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("OptionalCapacity.Propagate: nil solver")
	}
	n := len(c.starts)

	type task struct {
		idx       int
		startDom  mk.Domain
		mandatory bool
	}
	tasks := make([]task, 0, n)
	maxEnd := 0
	for i := 0; i < n; i++ {
		resDom := solver.GetDomain(state, c.resourceVars[i].ID())
		if resDom == nil || resDom.Count() == 0 {
			return nil, fmt.Errorf("OptionalCapacity: nil/empty resource domain")
		}
		if !resDom.Has(c.resourceValue) {
			continue // this operation can never run here; not a candidate
		}
		startDom := solver.GetDomain(state, c.starts[i].ID())
		if startDom == nil || startDom.Count() == 0 {
			return nil, fmt.Errorf("OptionalCapacity: nil/empty start domain")
		}
		t := task{idx: i, startDom: startDom, mandatory: resDom.IsSingleton()}
		tasks = append(tasks, t)
		if end := startDom.Max() + c.durations[i] - 1; end > maxEnd {
			maxEnd = end
		}
	}
	if len(tasks) == 0 || maxEnd < 1 {
		return state, nil
	}

	// Compulsory-part profile from mandatory tasks only: an optional task
	// might never materialize here, so it must never shrink anyone else's
	// domain.
	profile := make([]int, maxEnd+1)
	cpStart := make([]int, n)
	cpEnd := make([]int, n)
	for _, t := range tasks {
		if !t.mandatory {
			continue
		}
		est := t.startDom.Min()
		lst := t.startDom.Max()
		cpStart[t.idx] = lst
		cpEnd[t.idx] = est + c.durations[t.idx] - 1
		if cpStart[t.idx] > cpEnd[t.idx] {
			continue
		}
		s, e := cpStart[t.idx], cpEnd[t.idx]
		if s < 1 {
			s = 1
		}
		if e > maxEnd {
			e = maxEnd
		}
		for at := s; at <= e; at++ {
			profile[at]++
			if profile[at] > c.capacity {
				return nil, fmt.Errorf("OptionalCapacity: resource %d over capacity at t=%d", c.resourceValue, at)
			}
		}
	}

	newState := state
	for _, t := range tasks {
		dur := c.durations[t.idx]
		var values []int
		t.startDom.IterateValues(func(v int) { values = append(values, v) })
		allowed := make([]int, 0, len(values))
		for _, sVal := range values {
			startT, endT := sVal, sVal+dur-1
			tStart, tEnd := startT, endT
			if tStart < 1 {
				tStart = 1
			}
			if tEnd > maxEnd {
				tEnd = maxEnd
			}
			ok := true
			for at := tStart; at <= tEnd; at++ {
				load := profile[at]
				if t.mandatory && cpStart[t.idx] <= at && at <= cpEnd[t.idx] {
					load-- // don't double-count this task's own compulsory load
				}
				if load+1 > c.capacity {
					ok = false
					break
				}
			}
			if ok {
				allowed = append(allowed, sVal)
			}
		}

		if t.mandatory {
			if len(allowed) == 0 {
				return nil, fmt.Errorf("OptionalCapacity: mandatory operation on v%d has no feasible start on resource %d", c.starts[t.idx].ID(), c.resourceValue)
			}
			if len(allowed) < t.startDom.Count() {
				newDom := mk.NewBitSetDomainFromValues(t.startDom.MaxValue(), allowed)
				newState, _ = solver.SetDomain(newState, c.starts[t.idx].ID(), newDom)
			}
			continue
		}

		// Optional candidate: if nothing fits here, this resource cannot be
		// the eventual assignment - remove it from the candidate set rather
		// than touching the start domain (the operation may yet land on a
		// different resource entirely).
		if len(allowed) == 0 {
			resDom := solver.GetDomain(newState, c.resourceVars[t.idx].ID())
			newResDom := resDom.Remove(c.resourceValue)
			if newResDom.Count() == 0 {
				return nil, fmt.Errorf("OptionalCapacity: operation on v%d has no remaining eligible resource", c.starts[t.idx].ID())
			}
			newState, _ = solver.SetDomain(newState, c.resourceVars[t.idx].ID(), newResDom)
		}
	}

	return newState, nil
}
