package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	sched "github.com/lineforge/shopsched/internal/scheduling"
)

// Handler exposes the scheduling core over HTTP. It deliberately uses only
// net/http and encoding/json: none of the example repos this module drew
// on use a router or web framework in application source, only in
// manifest-only go.mod files, so there is nothing in the corpus to learn
// an idiom from here.
type Handler struct {
	svc *sched.Service
	log *zap.SugaredLogger
}

// NewHandler builds a Handler serving requests through svc. A nil log
// disables request logging.
func NewHandler(svc *sched.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ServeHTTP implements the single POST /schedule endpoint: decode, solve,
// encode. Any other method is rejected before decoding runs.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var wire scheduleRequestWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		h.writeError(w, http.StatusBadRequest, &sched.SchedulingError{
			Code:    sched.ErrInvalidRequest,
			Reasons: []string{err.Error()},
		})
		return
	}

	req, convErr := toDomainRequest(wire)
	if convErr != nil {
		h.writeError(w, http.StatusBadRequest, convErr)
		return
	}

	resp, solveErr := h.svc.Solve(r.Context(), req)
	if solveErr != nil {
		h.writeError(w, statusForCode(solveErr.Code), solveErr)
		return
	}

	h.writeJSON(w, http.StatusOK, toWireResponse(req, resp))
}

// statusForCode maps a SchedulingError's code to the HTTP status a client
// should see it as.
func statusForCode(code sched.ErrorCode) int {
	switch code {
	case sched.ErrInvalidRequest:
		return http.StatusBadRequest
	case sched.ErrInfeasible:
		return http.StatusUnprocessableEntity
	case sched.ErrTimeoutUnknown:
		return http.StatusGatewayTimeout
	case sched.ErrInternalValidationFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err *sched.SchedulingError) {
	if h.log != nil {
		h.log.Warnw("solve request failed", "code", err.Code, "reasons", err.Reasons)
	}
	h.writeJSON(w, status, toWireError(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.log != nil {
		h.log.Errorw("failed to encode response", "error", err)
	}
}
