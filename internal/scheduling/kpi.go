package scheduling

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// ComputeKPIs derives the reported metrics from a validated assignment
// list. Changeovers are counted as adjacent product-family transitions per
// resource; changeover minutes from the matrix are not read, never
// subtracted from busy time, and never enforced as a separation constraint
// (Open Question in DESIGN.md: changeovers are KPI-only).
func ComputeKPIs(req ScheduleRequest, assignments []Assignment) KPIs {
	if len(assignments) == 0 {
		util := make(map[string]int, len(req.Resources))
		for _, r := range req.Resources {
			util[r.ID] = 0
		}
		return KPIs{Utilization: util}
	}

	familyByProduct := lo.SliceToMap(req.Products, func(p Product) (string, string) { return p.ID, p.Family })
	dueByProduct := lo.SliceToMap(req.Products, func(p Product) (string, time.Time) { return p.ID, p.Due })

	completion := make(map[string]time.Time, len(req.Products))
	for _, a := range assignments {
		if cur, ok := completion[a.ProductID]; !ok || a.End.After(cur) {
			completion[a.ProductID] = a.End
		}
	}

	tardiness := 0
	for pid, c := range completion {
		due, ok := dueByProduct[pid]
		if !ok {
			continue
		}
		if d := int(c.Sub(due).Minutes()); d > 0 {
			tardiness += d
		}
	}

	minStart, maxEnd := assignments[0].Start, assignments[0].End
	for _, a := range assignments {
		if a.Start.Before(minStart) {
			minStart = a.Start
		}
		if a.End.After(maxEnd) {
			maxEnd = a.End
		}
	}
	makespan := int(maxEnd.Sub(minStart).Minutes())

	byResource := make(map[string][]Assignment, len(req.Resources))
	for _, a := range assignments {
		byResource[a.ResourceID] = append(byResource[a.ResourceID], a)
	}

	util := make(map[string]int, len(req.Resources))
	changeovers := 0
	for _, r := range req.Resources {
		available := availableMinutes(r, req.Horizon)
		busy := 0
		for _, a := range byResource[r.ID] {
			busy += int(a.End.Sub(a.Start).Minutes())
		}
		if available == 0 {
			util[r.ID] = 0
			continue
		}
		util[r.ID] = int(round(float64(busy) / float64(available) * 100))

		ordered := byResource[r.ID]
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start.Before(ordered[j].Start) })
		for i := 1; i < len(ordered); i++ {
			if familyByProduct[ordered[i].ProductID] != familyByProduct[ordered[i-1].ProductID] {
				changeovers++
			}
		}
	}

	return KPIs{
		TardinessMinutes: tardiness,
		MakespanMinutes:  makespan,
		Utilization:      util,
		Changeovers:      changeovers,
	}
}

// availableMinutes sums a resource's calendar windows intersected with the
// horizon.
func availableMinutes(r Resource, h Horizon) int {
	total := 0
	for _, w := range r.Calendar {
		open, close := w.Open, w.Close
		if open.Before(h.Start) {
			open = h.Start
		}
		if close.After(h.End) {
			close = h.End
		}
		if close.After(open) {
			total += int(close.Sub(open).Minutes())
		}
	}
	return total
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}
