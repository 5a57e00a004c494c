package scheduling

import (
	"sort"
	"time"
)

// Validate independently re-checks every hard constraint on a returned
// assignment list, using only the original request and the assignments
// themselves - never the model or solver state the Search Engine used.
// Any failure here is a fatal engine bug.
func Validate(req ScheduleRequest, assignments []Assignment) *SchedulingError {
	rc := &reasonCollector{}

	resourceByID := make(map[string]Resource, len(req.Resources))
	for _, r := range req.Resources {
		resourceByID[r.ID] = r
	}

	type key struct {
		product string
		op      int
	}
	seen := make(map[key]Assignment)
	for _, a := range assignments {
		k := key{a.ProductID, a.OpIndex}
		if _, dup := seen[k]; dup {
			rc.add("product %s op %d has more than one assignment", a.ProductID, a.OpIndex)
			continue
		}
		seen[k] = a
	}

	for _, p := range req.Products {
		for oi, op := range p.Route {
			a, ok := seen[key{p.ID, oi}]
			if !ok {
				rc.add("product %s op %d is missing an assignment", p.ID, oi)
				continue
			}
			if a.End.Sub(a.Start) != op.Duration {
				rc.add("product %s op %d duration mismatch: got %s, want %s", p.ID, oi, a.End.Sub(a.Start), op.Duration)
			}
			r, ok := resourceByID[a.ResourceID]
			if !ok {
				rc.add("product %s op %d assigned to unknown resource %s", p.ID, oi, a.ResourceID)
				continue
			}
			if !r.HasCapability(op.Capability) {
				rc.add("resource %s lacks required capability %q for product %s op %d", a.ResourceID, op.Capability, p.ID, oi)
			}
			if a.Start.Before(req.Horizon.Start) || a.End.After(req.Horizon.End) {
				rc.add("product %s op %d falls outside the horizon", p.ID, oi)
			}
			if !inSomeWindow(a.Start, a.End, r.Calendar) {
				rc.add("product %s op %d does not fit within one calendar window of resource %s", p.ID, oi, a.ResourceID)
			}
			if oi > 0 {
				if prev, ok := seen[key{p.ID, oi - 1}]; ok && a.Start.Before(prev.End) {
					rc.add("product %s op %d starts before op %d ends", p.ID, oi, oi-1)
				}
			}
		}
	}

	// No-overlap (capacity-aware) per resource: at most Capacity assignments
	// may be concurrently active at any instant, not just pairwise disjoint.
	byResource := make(map[string][]Assignment)
	for _, a := range assignments {
		byResource[a.ResourceID] = append(byResource[a.ResourceID], a)
	}
	for resID, as := range byResource {
		capacity := resourceByID[resID].Capacity
		if capacity <= 0 {
			capacity = 1
		}
		if over := maxConcurrent(as); over > capacity {
			rc.add("resource %s exceeds its capacity of %d (%d assignments concurrently active)", resID, capacity, over)
		}
	}

	if !rc.ok() {
		return rc.asSchedulingErrorWithCode(ErrInternalValidationFailed)
	}
	return nil
}

// inSomeWindow reports whether [start, end] fits entirely inside one
// calendar window.
func inSomeWindow(start, end time.Time, calendar []Window) bool {
	for _, w := range calendar {
		if !start.Before(w.Open) && !end.After(w.Close) {
			return true
		}
	}
	return false
}

// maxConcurrent sweeps a resource's assignments by time and returns the
// largest number simultaneously active, using the half-open [start, end)
// convention so a back-to-back pair never counts as overlapping.
func maxConcurrent(as []Assignment) int {
	type event struct {
		at   time.Time
		delt int
	}
	events := make([]event, 0, len(as)*2)
	for _, a := range as {
		events = append(events, event{a.Start, 1}, event{a.End, -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].delt < events[j].delt // process ends before starts at the same instant
		}
		return events[i].at.Before(events[j].at)
	})
	cur, max := 0, 0
	for _, e := range events {
		cur += e.delt
		if cur > max {
			max = cur
		}
	}
	return max
}
