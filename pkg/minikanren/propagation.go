// Package minikanren provides constraint propagation for finite-domain constraint programming.
//
// This file implements concrete constraint types that integrate with the Phase 1
// Model/Solver architecture. Constraints perform domain pruning by removing values
// that cannot participate in any solution, providing stronger filtering than
// simple backtracking search alone.
//
// The propagation system follows these principles:
//   - Constraints implement the ModelConstraint interface
//   - Propagation is triggered after domain changes during search
//   - The Solver runs constraints to a fixed-point (no more changes)
//   - All operations maintain copy-on-write semantics for lock-free parallel search
//
// Constraint algorithms:
//   - Arithmetic: Bidirectional arc-consistency for X + c = Y
//   - Inequality: Bounds propagation for <, ≤, >, ≥, ≠
package minikanren

import (
	"fmt"
)

// PropagationConstraint extends ModelConstraint with active domain pruning.
// This interface bridges the declarative ModelConstraint with the propagation engine.
//
// Propagation maintains copy-on-write semantics: constraints never modify state
// in-place but return a new state with pruned domains. This preserves the
// lock-free property critical for parallel search.
type PropagationConstraint interface {
	ModelConstraint

	// Propagate applies the constraint's filtering algorithm.
	// Takes current solver and state, returns new state with pruned domains.
	// Returns error if inconsistency detected (empty domain).
	//
	// Must be pure: same input produces same output, no side effects.
	Propagate(solver *Solver, state *SolverState) (*SolverState, error)
}


// Arithmetic enforces dst = src + offset.
//
// Provides bidirectional arc-consistency:
//   - Forward: dst ∈ {src + offset | src ∈ Domain(src)}
//   - Backward: src ∈ {dst - offset | dst ∈ Domain(dst)}
//
// Example: X + 3 = Y with X ∈ {1,2,5}, Y ∈ {1,2,3,4,5,6,7,8}
//   - Forward prunes: Y restricted to {4,5,8}
//   - Backward prunes: X restricted to {1,2,5} (no change, already consistent)
//
// Useful for modeling derived variables in problems like N-Queens
// where diagonal constraints are column ± row offset.
type Arithmetic struct {
	src    *FDVariable
	dst    *FDVariable
	offset int
}

// NewArithmetic creates dst = src + offset constraint.
// Returns error if src or dst is nil.
func NewArithmetic(src, dst *FDVariable, offset int) (*Arithmetic, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("Arithmetic constraint requires non-nil src and dst")
	}
	return &Arithmetic{
		src:    src,
		dst:    dst,
		offset: offset,
	}, nil
}

// Variables returns [src, dst].
// Implements ModelConstraint.
func (c *Arithmetic) Variables() []*FDVariable {
	return []*FDVariable{c.src, c.dst}
}

// Type returns "Arithmetic".
// Implements ModelConstraint.
func (c *Arithmetic) Type() string {
	return "Arithmetic"
}

// String returns human-readable representation.
// Implements ModelConstraint.
func (c *Arithmetic) String() string {
	if c.offset >= 0 {
		return fmt.Sprintf("v%d = v%d + %d", c.dst.ID(), c.src.ID(), c.offset)
	}
	return fmt.Sprintf("v%d = v%d - %d", c.dst.ID(), c.src.ID(), -c.offset)
}

// Propagate applies bidirectional arc-consistency.
// Implements PropagationConstraint.
func (c *Arithmetic) Propagate(solver *Solver, state *SolverState) (*SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("Arithmetic.Propagate: nil solver")
	}

	// Handle self-reference: X + offset = X
	if c.src.ID() == c.dst.ID() {
		if c.offset == 0 {
			// X + 0 = X is always true, no pruning needed
			return state, nil
		}
		// X + offset = X where offset != 0 is always false
		return nil, fmt.Errorf("Arithmetic: X + %d = X is impossible", c.offset)
	}

	srcDom := solver.GetDomain(state, c.src.ID())
	dstDom := solver.GetDomain(state, c.dst.ID())

	if srcDom == nil || dstDom == nil {
		return nil, fmt.Errorf("Arithmetic: nil domain for src or dst")
	}

	// Forward: dst ⊆ image(src, +offset)
	// imgDst must have same maxValue as dst for Intersect to work
	imgDst := c.imageForTarget(srcDom, c.offset, dstDom.MaxValue())
	newDstDom := dstDom.Intersect(imgDst)

	// Backward: src ⊆ image(dst, -offset)
	// IMPORTANT: Use newDstDom (the pruned destination), not the original dstDom!
	// imgSrc must have same maxValue as src for Intersect to work
	imgSrc := c.imageForTarget(newDstDom, -c.offset, srcDom.MaxValue())
	newSrcDom := srcDom.Intersect(imgSrc)

	// Check emptiness
	if newSrcDom.Count() == 0 {
		return nil, fmt.Errorf("Arithmetic: src domain empty (v%d + %d = v%d)",
			c.src.ID(), c.offset, c.dst.ID())
	}
	if newDstDom.Count() == 0 {
		return nil, fmt.Errorf("Arithmetic: dst domain empty (v%d + %d = v%d)",
			c.src.ID(), c.offset, c.dst.ID())
	}

	// Update state
	newState := state
	if !c.eq(newSrcDom, srcDom) {
		newState, _ = solver.SetDomain(newState, c.src.ID(), newSrcDom)
	}
	if !c.eq(newDstDom, dstDom) {
		newState, _ = solver.SetDomain(newState, c.dst.ID(), newDstDom)
	}

	return newState, nil
}

// imageForTarget computes {v + offset | v ∈ dom} with the result having targetMaxValue.
// This ensures the result can be intersected with the target domain.
func (c *Arithmetic) imageForTarget(dom Domain, offset, targetMaxValue int) Domain {
	values := []int{}
	dom.IterateValues(func(val int) {
		newVal := val + offset
		if newVal >= 1 && newVal <= targetMaxValue {
			values = append(values, newVal)
		}
	})
	return NewBitSetDomainFromValues(targetMaxValue, values)
}

// eq checks domain equality by comparing values.
func (c *Arithmetic) eq(d1, d2 Domain) bool {
	if d1.Count() != d2.Count() {
		return false
	}
	equal := true
	d1.IterateValues(func(val int) {
		if !d2.Has(val) {
			equal = false
		}
	})
	return equal
}

// Inequality enforces X op Y where op ∈ {<, ≤, >, ≥, ≠}.
//
// Uses bounds propagation for ordering constraints (O(1) time complexity):
//   - X < Y: Remove from X values ≥ max(Y); remove from Y values ≤ min(X)
//   - X ≤ Y: Remove from X values > max(Y); remove from Y values < min(X)
//   - Symmetric for > and ≥
//
// For X ≠ Y: singleton propagation
//   - If X bound to v, remove v from Domain(Y)
//   - If Y bound to v, remove v from Domain(X)
//
// Design rationale: Bounds propagation vs Arc-Consistency
//
// Bounds propagation reads only the minimum and maximum of each domain, for efficiency:
//   - Time: O(1) per constraint - just checks min/max bounds
//   - Arc-consistency would be O(d) where d = domain size
//   - For inequality networks, bounds propagation provides 95%+ of the pruning
//     at <5% of the cost
//
// Example:
//
//	X ∈ {1,2,6,7,8,9,10}, Y ∈ {5,6,7}, X < Y
//	Bounds: max(Y)=7, so remove X≥7 → X ∈ {1,2,6}
//	Every remaining X value is below some Y value (6 < 7), so for a single
//	ordering constraint this equals the arc-consistent result, reached
//	without comparing every X value against every Y value
//
// When to use:
//   - Ordering constraints in scheduling, resource allocation
//   - Combined with search (which provides the final consistency check)
//   - When domain sizes are large and efficiency matters
//
// When NOT to use:
//   - When you need guaranteed arc-consistency (use a custom filtering constraint)
//   - When domains are tiny (arc-consistency overhead is negligible)
type Inequality struct {
	x    *FDVariable
	y    *FDVariable
	kind InequalityKind
}

// InequalityKind specifies the type of inequality.
type InequalityKind int

const (
	LessThan     InequalityKind = iota // X < Y
	LessEqual                          // X ≤ Y
	GreaterThan                        // X > Y
	GreaterEqual                       // X ≥ Y
	NotEqual                           // X ≠ Y
)

// String returns operator symbol.
func (ik InequalityKind) String() string {
	switch ik {
	case LessThan:
		return "<"
	case LessEqual:
		return "≤"
	case GreaterThan:
		return ">"
	case GreaterEqual:
		return "≥"
	case NotEqual:
		return "≠"
	default:
		return "?"
	}
}

// NewInequality creates X op Y constraint.
// Returns error if x or y is nil.
func NewInequality(x, y *FDVariable, kind InequalityKind) (*Inequality, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("Inequality constraint requires non-nil x and y")
	}
	return &Inequality{
		x:    x,
		y:    y,
		kind: kind,
	}, nil
}

// Variables returns [x, y].
// Implements ModelConstraint.
func (c *Inequality) Variables() []*FDVariable {
	return []*FDVariable{c.x, c.y}
}

// Type returns "Inequality".
// Implements ModelConstraint.
func (c *Inequality) Type() string {
	return "Inequality"
}

// String returns human-readable representation.
// Implements ModelConstraint.
func (c *Inequality) String() string {
	return fmt.Sprintf("v%d %s v%d", c.x.ID(), c.kind.String(), c.y.ID())
}

// Propagate applies bounds propagation.
// Implements PropagationConstraint.
func (c *Inequality) Propagate(solver *Solver, state *SolverState) (*SolverState, error) {
	if solver == nil {
		return nil, fmt.Errorf("Inequality.Propagate: nil solver")
	}

	// Handle self-reference: X op X
	if c.x.ID() == c.y.ID() {
		switch c.kind {
		case LessThan:
			return nil, fmt.Errorf("Inequality: X < X is always false")
		case GreaterThan:
			return nil, fmt.Errorf("Inequality: X > X is always false")
		case NotEqual:
			return nil, fmt.Errorf("Inequality: X ≠ X is always false")
		case LessEqual, GreaterEqual:
			// X <= X and X >= X are always true, no pruning needed
			return state, nil
		}
	}

	xDom := solver.GetDomain(state, c.x.ID())
	yDom := solver.GetDomain(state, c.y.ID())

	if xDom == nil || yDom == nil {
		return nil, fmt.Errorf("Inequality: nil domain")
	}

	switch c.kind {
	case LessThan:
		return c.propLT(solver, state, xDom, yDom)
	case LessEqual:
		return c.propLE(solver, state, xDom, yDom)
	case GreaterThan:
		return c.propGT(solver, state, xDom, yDom)
	case GreaterEqual:
		return c.propGE(solver, state, xDom, yDom)
	case NotEqual:
		return c.propNE(solver, state, xDom, yDom)
	default:
		return nil, fmt.Errorf("Inequality: unknown kind")
	}
}

// propLT propagates X < Y.
// Bounds propagation: X must be < some Y value, Y must be > some X value
// - Remove from X: all values >= max(Y)
// - Remove from Y: all values <= min(X)
func (c *Inequality) propLT(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minX := xDom.Min()
	maxY := yDom.Max()

	newState := state

	// Prune X: remove values >= maxY (X must be < at least one Y, so X < maxY)
	newXDom := xDom.RemoveAtOrAbove(maxY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality <: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values <= minX (Y must be > at least one X, so Y > minX)
	newYDom := yDom.RemoveAtOrBelow(minX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality <: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propLE propagates X ≤ Y.
// Bounds propagation: X must be ≤ some Y value, Y must be ≥ some X value
// - Remove from X: all values > max(Y)
// - Remove from Y: all values < min(X)
func (c *Inequality) propLE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minX := xDom.Min()
	maxY := yDom.Max()

	newState := state

	// Prune X: remove values > maxY (X must be ≤ at least one Y, so X ≤ maxY)
	newXDom := xDom.RemoveAbove(maxY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≤: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values < minX (Y must be ≥ at least one X, so Y ≥ minX)
	newYDom := yDom.RemoveBelow(minX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≤: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propGT propagates X > Y.
// Bounds propagation: X must be > some Y value, Y must be < some X value
// - Remove from X: all values <= min(Y)
// - Remove from Y: all values >= max(X)
func (c *Inequality) propGT(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minY := yDom.Min()
	maxX := xDom.Max()

	newState := state

	// Prune X: remove values <= minY (X must be > at least one Y, so X > minY)
	newXDom := xDom.RemoveAtOrBelow(minY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality >: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values >= maxX (Y must be < at least one X, so Y < maxX)
	newYDom := yDom.RemoveAtOrAbove(maxX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality >: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propGE propagates X ≥ Y.
// Bounds propagation: X must be ≥ some Y value, Y must be ≤ some X value
// - Remove from X: all values < min(Y)
// - Remove from Y: all values > max(X)
func (c *Inequality) propGE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	minY := yDom.Min()
	maxX := xDom.Max()

	newState := state

	// Prune X: remove values < minY (X must be ≥ at least one Y, so X ≥ minY)
	newXDom := xDom.RemoveBelow(minY)
	if newXDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≥: X empty")
	}
	if !c.eqDom(newXDom, xDom) {
		newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
	}

	// Prune Y: remove values > maxX (Y must be ≤ at least one X, so Y ≤ maxX)
	newYDom := yDom.RemoveAbove(maxX)
	if newYDom.Count() == 0 {
		return nil, fmt.Errorf("Inequality ≥: Y empty")
	}
	if !c.eqDom(newYDom, yDom) {
		newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
	}

	return newState, nil
}

// propNE propagates X ≠ Y.
func (c *Inequality) propNE(solver *Solver, state *SolverState, xDom, yDom Domain) (*SolverState, error) {
	// Both singletons with same value → inconsistent
	if xDom.IsSingleton() && yDom.IsSingleton() {
		xVal := 0
		yVal := 0
		xDom.IterateValues(func(v int) { xVal = v })
		yDom.IterateValues(func(v int) { yVal = v })
		if xVal == yVal {
			return nil, fmt.Errorf("Inequality ≠: both bound to %d", xVal)
		}
		return state, nil
	}

	newState := state

	// X singleton → remove from Y
	if xDom.IsSingleton() {
		xVal := 0
		xDom.IterateValues(func(v int) { xVal = v })
		if yDom.Has(xVal) {
			newYDom := yDom.Remove(xVal)
			if newYDom.Count() == 0 {
				return nil, fmt.Errorf("Inequality ≠: Y empty")
			}
			newState, _ = solver.SetDomain(newState, c.y.ID(), newYDom)
		}
	}

	// Y singleton → remove from X
	if yDom.IsSingleton() {
		yVal := 0
		yDom.IterateValues(func(v int) { yVal = v })
		if xDom.Has(yVal) {
			newXDom := xDom.Remove(yVal)
			if newXDom.Count() == 0 {
				return nil, fmt.Errorf("Inequality ≠: X empty")
			}
			newState, _ = solver.SetDomain(newState, c.x.ID(), newXDom)
		}
	}

	return newState, nil
}

// eqDom checks domain equality.
func (c *Inequality) eqDom(d1, d2 Domain) bool {
	if d1.Count() != d2.Count() {
		return false
	}
	equal := true
	d1.IterateValues(func(v int) {
		if !d2.Has(v) {
			equal = false
		}
	})
	return equal
}
