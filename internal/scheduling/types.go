// Package scheduling implements the deterministic production scheduling
// core: time quantization, constraint model construction, search, and
// independent validation/KPI computation.
package scheduling

import "time"

// Horizon bounds the scheduling window. All times referenced elsewhere in
// the request must fall within [Start, End].
type Horizon struct {
	Start time.Time
	End   time.Time
}

// Window is a half-open interval [Open, Close) during which a resource is
// available.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Resource is a machine or work center gated by a set of capabilities and a
// working calendar. Capacity bounds how many operations may run on it
// concurrently; a capacity of 1 is the common disjunctive (no-overlap) case.
type Resource struct {
	ID           string
	Capabilities []string
	Calendar     []Window
	Capacity     int
}

// HasCapability reports whether the resource declares the given capability.
func (r Resource) HasCapability(capability string) bool {
	for _, c := range r.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Operation is one step of a product's route: a required capability and a
// fixed processing duration.
type Operation struct {
	Capability string
	Duration   time.Duration
}

// Product is a unit of work with an ordered route of operations and a due
// date used to compute tardiness.
type Product struct {
	ID     string
	Family string
	Due    time.Time
	Route  []Operation
}

// ChangeoverMatrix maps an ordered pair of families to a changeover
// duration. A missing entry is treated as zero. The matrix is accepted and
// carried on the request for forward compatibility with a future hard
// separation constraint (see DESIGN.md's changeover Open Question); today
// no component reads the minutes themselves, only kpi.go's family-adjacency
// count.
type ChangeoverMatrix struct {
	Minutes map[string]int // key: "fromFamily->toFamily"
}

// Settings carries the solver's wall-clock budget and related knobs.
type Settings struct {
	TimeLimit time.Duration
}

// ScheduleRequest is the canonical, immutable input to the scheduling core.
type ScheduleRequest struct {
	Horizon          Horizon
	Resources        []Resource
	Products         []Product
	ChangeoverMatrix ChangeoverMatrix
	Settings         Settings
}

// Assignment places one operation of one product's route on a resource at
// an absolute time interval.
type Assignment struct {
	ProductID  string
	OpIndex    int
	ResourceID string
	Start      time.Time
	End        time.Time
}

// KPIs summarizes the solved schedule's reported metrics.
type KPIs struct {
	TardinessMinutes int
	MakespanMinutes  int
	Utilization      map[string]int // resource ID -> percentage [0,100]
	Changeovers      int
}

// ScheduleResponse is the canonical output of a successful solve.
type ScheduleResponse struct {
	Assignments []Assignment
	KPIs        KPIs
}
