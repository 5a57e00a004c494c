package api

import (
	"fmt"
	"time"

	sched "github.com/lineforge/shopsched/internal/scheduling"
)

// parseTime parses an ISO-8601 / RFC3339 UTC timestamp, the wire format
// named throughout the external interface.
func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid ISO-8601 timestamp %q: %w", field, s, err)
	}
	return t, nil
}

// toDomainRequest converts the decoded wire request into the scheduling
// core's canonical ScheduleRequest. Conversion errors (bad timestamps,
// malformed calendar pairs) are reported as invalid_request, matching the
// Model Builder's own error code for structurally bad input.
func toDomainRequest(w scheduleRequestWire) (sched.ScheduleRequest, *sched.SchedulingError) {
	var reasons []string
	add := func(format string, args ...interface{}) {
		reasons = append(reasons, fmt.Sprintf(format, args...))
	}

	horizonStart, err := parseTime("horizon.start", w.Horizon.Start)
	if err != nil {
		add("%v", err)
	}
	horizonEnd, err := parseTime("horizon.end", w.Horizon.End)
	if err != nil {
		add("%v", err)
	}

	resources := make([]sched.Resource, len(w.Resources))
	for i, wr := range w.Resources {
		cal := make([]sched.Window, len(wr.Calendar))
		for j, pair := range wr.Calendar {
			if len(pair) != 2 {
				add("resources[%d].calendar[%d]: expected [open, close] pair, got %d elements", i, j, len(pair))
				continue
			}
			open, err := parseTime(fmt.Sprintf("resources[%d].calendar[%d].open", i, j), pair[0])
			if err != nil {
				add("%v", err)
			}
			closeT, err := parseTime(fmt.Sprintf("resources[%d].calendar[%d].close", i, j), pair[1])
			if err != nil {
				add("%v", err)
			}
			cal[j] = sched.Window{Open: open, Close: closeT}
		}
		capacity := wr.Capacity
		if capacity == 0 {
			capacity = 1
		}
		resources[i] = sched.Resource{
			ID:           wr.ID,
			Capabilities: wr.Capabilities,
			Calendar:     cal,
			Capacity:     capacity,
		}
	}

	products := make([]sched.Product, len(w.Products))
	for i, wp := range w.Products {
		due, err := parseTime(fmt.Sprintf("products[%d].due", i), wp.Due)
		if err != nil {
			add("%v", err)
		}
		route := make([]sched.Operation, len(wp.Route))
		for j, wo := range wp.Route {
			route[j] = sched.Operation{
				Capability: wo.Capability,
				Duration:   time.Duration(wo.DurationMinutes) * time.Minute,
			}
		}
		products[i] = sched.Product{
			ID:     wp.ID,
			Family: wp.Family,
			Due:    due,
			Route:  route,
		}
	}

	if len(reasons) > 0 {
		return sched.ScheduleRequest{}, &sched.SchedulingError{Code: sched.ErrInvalidRequest, Reasons: reasons}
	}

	return sched.ScheduleRequest{
		Horizon:          sched.Horizon{Start: horizonStart, End: horizonEnd},
		Resources:        resources,
		Products:         products,
		ChangeoverMatrix: toDomainChangeoverMatrix(w.ChangeoverMatrix),
		Settings:         sched.Settings{TimeLimit: time.Duration(w.Settings.TimeLimitSeconds) * time.Second},
	}, nil
}

// toDomainChangeoverMatrix copies the wire "A->B": minutes map directly;
// the key format (spec.md's changeover-matrix key format) is identical on
// both sides of the boundary, so no reformatting happens here.
func toDomainChangeoverMatrix(w wireChangeoverMatrix) sched.ChangeoverMatrix {
	if len(w.Values) == 0 {
		return sched.ChangeoverMatrix{}
	}
	minutes := make(map[string]int, len(w.Values))
	for k, v := range w.Values {
		minutes[k] = v
	}
	return sched.ChangeoverMatrix{Minutes: minutes}
}

// capabilityIndex maps (productID, opIndex) to the capability string, so
// the response's "op" field can report the capability the way the
// external interface names it rather than a bare integer.
type capabilityIndex map[string]map[int]string

func newCapabilityIndex(req sched.ScheduleRequest) capabilityIndex {
	idx := make(capabilityIndex, len(req.Products))
	for _, p := range req.Products {
		ops := make(map[int]string, len(p.Route))
		for i, op := range p.Route {
			ops[i] = op.Capability
		}
		idx[p.ID] = ops
	}
	return idx
}

func (idx capabilityIndex) lookup(productID string, opIndex int) string {
	if ops, ok := idx[productID]; ok {
		if capability, ok := ops[opIndex]; ok {
			return capability
		}
	}
	return ""
}

// toWireResponse converts a domain ScheduleResponse into the canonical
// success wire shape. req is the originating request, used only to map
// each assignment's OpIndex back to its capability string.
func toWireResponse(req sched.ScheduleRequest, resp *sched.ScheduleResponse) scheduleResponseWire {
	idx := newCapabilityIndex(req)

	assignments := make([]wireAssignment, len(resp.Assignments))
	for i, a := range resp.Assignments {
		assignments[i] = wireAssignment{
			Product:  a.ProductID,
			Op:       idx.lookup(a.ProductID, a.OpIndex),
			Resource: a.ResourceID,
			Start:    a.Start.UTC().Format(time.RFC3339),
			End:      a.End.UTC().Format(time.RFC3339),
		}
	}

	return scheduleResponseWire{
		Assignments: assignments,
		KPIs: wireKPIs{
			TardinessMinutes: resp.KPIs.TardinessMinutes,
			Changeovers:      resp.KPIs.Changeovers,
			MakespanMinutes:  resp.KPIs.MakespanMinutes,
			Utilization:      resp.KPIs.Utilization,
		},
	}
}

// toWireError maps a SchedulingError's internal ErrorCode onto the wire's
// ShortCode taxonomy - the two are deliberately kept in lockstep, but the
// mapping is explicit so a renamed internal code fails to compile here
// instead of silently changing the wire contract.
func toWireError(err *sched.SchedulingError) errorResponseWire {
	var code ShortCode
	switch err.Code {
	case sched.ErrInvalidRequest:
		code = ShortCodeInvalidRequest
	case sched.ErrInfeasible:
		code = ShortCodeInfeasible
	case sched.ErrTimeoutUnknown:
		code = ShortCodeTimeoutUnknown
	case sched.ErrInternalValidationFailed:
		code = ShortCodeInternalValidationFailed
	default:
		code = ShortCodeInvalidRequest
	}
	return errorResponseWire{Error: code, Why: err.Reasons}
}
