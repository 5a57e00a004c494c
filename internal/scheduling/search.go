package scheduling

import (
	"context"
	"runtime"
	"time"

	mk "github.com/lineforge/shopsched/pkg/minikanren"
)

// OutcomeKind classifies the four possible results of a search.
type OutcomeKind int

const (
	// Optimal: search completed and proved the objective minimal.
	Optimal OutcomeKind = iota
	// Feasible: the time limit expired after a feasible solution was found.
	Feasible
	// Infeasible: the engine proved no assignment satisfies the constraints.
	Infeasible
	// Unknown: the time limit expired before any feasible solution was found.
	Unknown
)

func (k OutcomeKind) String() string {
	switch k {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Outcome is the Search Engine's result: an assignment and objective value
// for Optimal/Feasible, or a classification only for Infeasible/Unknown.
type Outcome struct {
	Kind            OutcomeKind
	Assignments     []Assignment
	TardinessMin    int
	Nodes           int
	Backtracks      int
	SearchElapsedMs int64
}

// nodeLimitForModel bounds branch-and-bound node expansions defensively so
// a pathological model cannot wedge past its wall-clock budget inside a
// single propagation step; scaled by model size since bigger models need
// more nodes to explore the same relative fraction of the search space.
func nodeLimitForModel(m *mk.Model) int {
	n := m.VariableCount()
	limit := n * n * 200
	if limit < 50_000 {
		limit = 50_000
	}
	return limit
}

// parallelWorkerThreshold is the variable-count above which the Search
// Engine hands branch-and-bound to the solver's own internal work-queue
// parallelism rather than running it on a single goroutine. Small models
// don't have enough search tree to amortize the coordination overhead.
const parallelWorkerThreshold = 60

// parallelWorkersForModel returns 0 (disabled) below parallelWorkerThreshold,
// otherwise the number of available CPUs.
func parallelWorkersForModel(m *mk.Model) int {
	if m.VariableCount() < parallelWorkerThreshold {
		return 0
	}
	return runtime.NumCPU()
}

// Solve runs the Search Engine over a built model under the given wall-
// clock budget and translates the raw finite-domain result into an
// Outcome, including reconstructing Assignments from the solved variable
// values.
func Solve(ctx context.Context, bm *BuiltModel, timeLimit time.Duration) Outcome {
	if len(bm.Ops) == 0 {
		return Outcome{Kind: Optimal}
	}
	if timeLimit <= 0 {
		// A zero (or negative, already rejected at build time) budget means
		// no search time was ever allotted: never report a schedule, per
		// §8's time_limit_seconds=0 boundary behavior.
		return Outcome{Kind: Unknown}
	}

	monitor := mk.NewSolverMonitor()
	solver := mk.NewSolverWithConfig(bm.Model, bm.Model.Config())
	solver.SetMonitor(monitor)

	started := time.Now()
	opts := []mk.OptimizeOption{
		mk.WithNodeLimit(nodeLimitForModel(bm.Model)),
		mk.WithTimeLimit(timeLimit),
	}
	if workers := parallelWorkersForModel(bm.Model); workers > 1 {
		opts = append(opts, mk.WithParallelWorkers(workers))
	}

	values, objVal, err := solver.SolveOptimalWithOptions(ctx, bm.Objective, true, opts...)
	elapsed := time.Since(started).Milliseconds()
	stats := monitor.GetStats()

	haveIncumbent := values != nil
	switch {
	case !haveIncumbent && err == nil:
		return Outcome{Kind: Infeasible, SearchElapsedMs: elapsed, Nodes: int(stats.NodesExplored), Backtracks: int(stats.Backtracks)}
	case !haveIncumbent:
		return Outcome{Kind: Unknown, SearchElapsedMs: elapsed, Nodes: int(stats.NodesExplored), Backtracks: int(stats.Backtracks)}
	case err != nil:
		return Outcome{
			Kind:            Feasible,
			Assignments:     extractAssignments(bm, values),
			TardinessMin:    objVal - 1,
			Nodes:           int(stats.NodesExplored),
			Backtracks:      int(stats.Backtracks),
			SearchElapsedMs: elapsed,
		}
	default:
		return Outcome{
			Kind:            Optimal,
			Assignments:     extractAssignments(bm, values),
			TardinessMin:    objVal - 1,
			Nodes:           int(stats.NodesExplored),
			Backtracks:      int(stats.Backtracks),
			SearchElapsedMs: elapsed,
		}
	}
}

// extractAssignments reads start/resource values (indexed by variable ID,
// per solver.Solve's contract) back into domain-level Assignments.
func extractAssignments(bm *BuiltModel, values []int) []Assignment {
	out := make([]Assignment, len(bm.Ops))
	for i, o := range bm.Ops {
		startVal := values[bm.Starts[i].ID()]
		resVal := values[bm.ResourceVars[i].ID()]
		startMin := startVal - 1
		endMin := startMin + o.duration
		out[i] = Assignment{
			ProductID:  o.productID,
			OpIndex:    o.opIndex,
			ResourceID: bm.Resources[resVal-1].ID,
			Start:      bm.Quantizer.ToInstant(startMin),
			End:        bm.Quantizer.ToInstant(endMin),
		}
	}
	return out
}
