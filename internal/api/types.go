// Package api is the HTTP adapter over internal/scheduling: it decodes the
// canonical JSON request shape, invokes the scheduling core, and encodes
// the canonical JSON response or error shape. No scheduling semantics
// live here - only wire<->domain conversion and transport plumbing.
package api

// wireHorizon mirrors the request's "horizon" object.
type wireHorizon struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// wireResource mirrors one entry of the request's "resources" array.
// Calendar is a list of [open, close] ISO-8601 pairs.
type wireResource struct {
	ID           string     `json:"id"`
	Capabilities []string   `json:"capabilities"`
	Calendar     [][]string `json:"calendar"`
	Capacity     int        `json:"capacity,omitempty"`
}

// wireOperation mirrors one entry of a product's "route" array.
type wireOperation struct {
	Capability      string `json:"capability"`
	DurationMinutes int    `json:"duration_minutes"`
}

// wireProduct mirrors one entry of the request's "products" array.
type wireProduct struct {
	ID     string          `json:"id"`
	Family string          `json:"family"`
	Due    string          `json:"due"`
	Route  []wireOperation `json:"route"`
}

// wireChangeoverMatrix mirrors "changeover_matrix_minutes". Values is keyed
// "fromFamily->toFamily"; a missing pair is 0 minutes.
type wireChangeoverMatrix struct {
	Values map[string]int `json:"values"`
}

// wireSettings mirrors the request's "settings" object.
type wireSettings struct {
	TimeLimitSeconds int `json:"time_limit_seconds"`
}

// scheduleRequestWire is the canonical request shape.
type scheduleRequestWire struct {
	Horizon          wireHorizon          `json:"horizon"`
	Resources        []wireResource       `json:"resources"`
	Products         []wireProduct        `json:"products"`
	ChangeoverMatrix wireChangeoverMatrix `json:"changeover_matrix_minutes"`
	Settings         wireSettings         `json:"settings"`
}

// wireAssignment mirrors one entry of the response's "assignments" array.
type wireAssignment struct {
	Product  string `json:"product"`
	Op       string `json:"op"`
	Resource string `json:"resource"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// wireKPIs mirrors the response's "kpis" object.
type wireKPIs struct {
	TardinessMinutes int            `json:"tardiness_minutes"`
	Changeovers      int            `json:"changeovers"`
	MakespanMinutes  int            `json:"makespan_minutes"`
	Utilization      map[string]int `json:"utilization"`
}

// scheduleResponseWire is the canonical success response shape.
type scheduleResponseWire struct {
	Assignments []wireAssignment `json:"assignments"`
	KPIs        wireKPIs         `json:"kpis"`
}

// errorResponseWire is the canonical failure response shape.
type errorResponseWire struct {
	Error ShortCode `json:"error"`
	Why   []string  `json:"why"`
}

// ShortCode is one of the four wire error codes named in the external
// interface.
type ShortCode string

const (
	ShortCodeInvalidRequest           ShortCode = "invalid_request"
	ShortCodeInfeasible               ShortCode = "infeasible"
	ShortCodeTimeoutUnknown           ShortCode = "timeout_unknown"
	ShortCodeInternalValidationFailed ShortCode = "internal_validation_failed"
)
