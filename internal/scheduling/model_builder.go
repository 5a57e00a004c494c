package scheduling

import (
	"fmt"
	"sort"
	"time"

	mk "github.com/lineforge/shopsched/pkg/minikanren"
)

// opRef identifies one operation of one product's route after flattening.
type opRef struct {
	productIdx int
	opIndex    int
	productID  string
	capability string
	duration   int // minutes
}

// BuiltModel bundles the constraint model with the index structures the
// Search Engine and Validator need to translate raw variable assignments
// back into domain terms.
type BuiltModel struct {
	Model        *mk.Model
	Quantizer    Quantizer
	HorizonMin   int
	Ops          []opRef
	Starts       []*mk.FDVariable
	Ends         []*mk.FDVariable
	ResourceVars []*mk.FDVariable
	Objective    *mk.FDVariable
	Resources    []Resource // index i -> resource value i+1
}

// resourceValue returns the 1-based domain value for resource index i.
func resourceValue(i int) int { return i + 1 }

// Build validates the request and translates it into a Constraint Model.
// Returns an *SchedulingError with Code ErrInvalidRequest on any structural
// or semantic problem; the model is never partially usable on error.
func Build(req ScheduleRequest) (*BuiltModel, *SchedulingError) {
	rc := &reasonCollector{}
	validateStructure(req, rc)
	if !rc.ok() {
		return nil, rc.asSchedulingError()
	}

	q := NewQuantizer(req.Horizon.Start)
	horizonMin, err := q.ToMinutes(req.Horizon.End)
	if err != nil {
		return nil, newError(ErrInvalidRequest, err.Error())
	}

	// Flatten routes and check per-operation capability eligibility.
	var ops []opRef
	eligible := make([][]int, 0) // eligible[i] = resource indices (0-based) for ops[i]
	for pi, p := range req.Products {
		if len(p.Route) == 0 {
			rc.add("product %s has an empty route", p.ID)
			continue
		}
		for oi, op := range p.Route {
			durMin := int(op.Duration / time.Minute)
			if op.Duration%time.Minute != 0 || durMin <= 0 {
				rc.add("product %s operation %d has a non-positive or non-minute duration", p.ID, oi)
				continue
			}
			var elig []int
			for ri, r := range req.Resources {
				if r.HasCapability(op.Capability) {
					elig = append(elig, ri)
				}
			}
			if len(elig) == 0 {
				rc.add("product %s requires capability %q not provided by any resource", p.ID, op.Capability)
				continue
			}
			ops = append(ops, opRef{productIdx: pi, opIndex: oi, productID: p.ID, capability: op.Capability, duration: durMin})
			eligible = append(eligible, elig)
		}
	}
	if !rc.ok() {
		return nil, rc.asSchedulingError()
	}
	if len(ops) == 0 {
		// No products at all (or none with valid routes) is not an error;
		// callers get the empty-schedule boundary behavior from Solve.
		model := mk.NewModel()
		return &BuiltModel{Model: model, Quantizer: q, HorizonMin: horizonMin, Resources: req.Resources}, nil
	}

	// Pre-compute each resource's calendar windows in value space.
	windowsByResource := make(map[int][]calendarWindowValues, len(req.Resources))
	for ri, r := range req.Resources {
		var ws []calendarWindowValues
		for _, w := range r.Calendar {
			openMin, err := q.ToMinutes(w.Open)
			if err != nil {
				return nil, newError(ErrInvalidRequest, fmt.Sprintf("resource %s has a non-minute-aligned calendar window", r.ID))
			}
			closeMin, err := q.ToMinutes(w.Close)
			if err != nil {
				return nil, newError(ErrInvalidRequest, fmt.Sprintf("resource %s has a non-minute-aligned calendar window", r.ID))
			}
			ws = append(ws, calendarWindowValues{open: openMin + 1, close: closeMin + 1})
		}
		windowsByResource[resourceValue(ri)] = ws
	}

	model := mk.NewModel()
	starts := make([]*mk.FDVariable, len(ops))
	ends := make([]*mk.FDVariable, len(ops))
	resourceVars := make([]*mk.FDVariable, len(ops))

	for i, o := range ops {
		starts[i] = model.NewVariableWithName(mk.NewMinuteDomain(horizonMin), fmt.Sprintf("start_%s_%d", o.productID, o.opIndex))
		ends[i] = model.NewVariableWithName(mk.NewMinuteDomain(horizonMin), fmt.Sprintf("end_%s_%d", o.productID, o.opIndex))

		resourceVars[i] = model.NewVariableWithName(mk.NewResourceDomain(len(req.Resources), eligible[i]), fmt.Sprintf("resource_%s_%d", o.productID, o.opIndex))

		// Duration: end = start + duration.
		durCon, _ := mk.NewArithmetic(starts[i], ends[i], o.duration)
		model.AddConstraint(durCon)

		// Calendar compliance.
		windows := make(map[int][]calendarWindowValues, len(eligible[i]))
		for _, ri := range eligible[i] {
			windows[resourceValue(ri)] = windowsByResource[resourceValue(ri)]
		}
		calCon, err := NewCalendarWindow(starts[i], ends[i], resourceVars[i], o.duration, windows)
		if err != nil {
			return nil, newError(ErrInvalidRequest, err.Error())
		}
		model.AddConstraint(calCon)
	}

	// Precedence within each product's route.
	for i := 1; i < len(ops); i++ {
		if ops[i].productIdx == ops[i-1].productIdx && ops[i].opIndex == ops[i-1].opIndex+1 {
			prec, _ := mk.NewInequality(starts[i], ends[i-1], mk.GreaterEqual)
			model.AddConstraint(prec)
		}
	}

	// No-overlap / capacity, one OptionalCapacity per resource, over every
	// operation that could land on it.
	for ri, r := range req.Resources {
		var candStarts, candResVars []*mk.FDVariable
		var candDurations []int
		for i := range ops {
			for _, e := range eligible[i] {
				if e == ri {
					candStarts = append(candStarts, starts[i])
					candResVars = append(candResVars, resourceVars[i])
					candDurations = append(candDurations, ops[i].duration)
					break
				}
			}
		}
		if len(candStarts) == 0 {
			continue
		}
		capacity := r.Capacity
		if capacity <= 0 {
			capacity = 1
		}
		capCon, err := NewOptionalCapacity(candStarts, candResVars, candDurations, resourceValue(ri), capacity)
		if err != nil {
			return nil, newError(ErrInvalidRequest, err.Error())
		}
		model.AddConstraint(capCon)
	}

	// Tardiness objective: per product, t_p = max(0, completion(p) - due_m(p));
	// objective = sum of t_p. See minute-shift derivation in objective.go.
	objective, err := buildObjective(model, req, ops, ends, horizonMin, q)
	if err != nil {
		return nil, newError(ErrInvalidRequest, err.Error())
	}

	return &BuiltModel{
		Model:        model,
		Quantizer:    q,
		HorizonMin:   horizonMin,
		Ops:          ops,
		Starts:       starts,
		Ends:         ends,
		ResourceVars: resourceVars,
		Objective:    objective,
		Resources:    req.Resources,
	}, nil
}

// validateStructure performs the request-level checks that belong to the
// Model Builder per the invalid_request taxonomy: horizon shape, calendar
// shape, and due-date containment. Per-operation capability eligibility is
// checked later in Build, once routes are flattened.
func validateStructure(req ScheduleRequest, rc *reasonCollector) {
	if !req.Horizon.Start.Before(req.Horizon.End) {
		rc.add("horizon end must be after horizon start")
	}
	if req.Settings.TimeLimit < 0 {
		rc.add("settings.time_limit_seconds must be non-negative")
	}

	for _, r := range req.Resources {
		if len(r.Capabilities) == 0 {
			rc.add("resource %s declares no capabilities", r.ID)
		}
		sorted := make([]Window, len(r.Calendar))
		copy(sorted, r.Calendar)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Open.Before(sorted[j].Open) })
		for i, w := range sorted {
			if !w.Close.After(w.Open) {
				rc.add("resource %s has a calendar window with close <= open", r.ID)
			}
			if w.Open.Before(req.Horizon.Start) || w.Close.After(req.Horizon.End) {
				rc.add("resource %s has a calendar window outside the horizon", r.ID)
			}
			if i > 0 && w.Open.Before(sorted[i-1].Close) {
				rc.add("resource %s has overlapping or non-monotonic calendar windows", r.ID)
			}
		}
	}

	for _, p := range req.Products {
		if p.Due.Before(req.Horizon.Start) || p.Due.After(req.Horizon.End) {
			rc.add("product %s due date falls outside the horizon", p.ID)
		}
	}
}
