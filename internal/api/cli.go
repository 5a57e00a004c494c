package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	sched "github.com/lineforge/shopsched/internal/scheduling"
)

// RunFile decodes one canonical request from r, solves it through svc, and
// encodes the canonical response (or error) to w. It is the file-mode
// counterpart to Handler.ServeHTTP: same decode/solve/encode shape, no
// HTTP status codes or access log, exit status communicated to the caller
// via the returned bool (true on a schedule, false on an error response -
// both are valid, well-formed JSON on the wire).
func RunFile(ctx context.Context, svc *sched.Service, r io.Reader, w io.Writer) (ok bool, err error) {
	var wire scheduleRequestWire
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if decErr := dec.Decode(&wire); decErr != nil {
		return false, encodeCLIError(w, &sched.SchedulingError{
			Code:    sched.ErrInvalidRequest,
			Reasons: []string{fmt.Sprintf("decoding request: %v", decErr)},
		})
	}

	req, convErr := toDomainRequest(wire)
	if convErr != nil {
		return false, encodeCLIError(w, convErr)
	}

	resp, solveErr := svc.Solve(ctx, req)
	if solveErr != nil {
		return false, encodeCLIError(w, solveErr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(toWireResponse(req, resp)); encErr != nil {
		return false, fmt.Errorf("encoding response: %w", encErr)
	}
	return true, nil
}

// encodeCLIError writes the canonical error shape to w and returns it as
// the function's error so the caller can set a non-zero exit status; the
// write itself only fails on an I/O error, which is reported separately.
func encodeCLIError(w io.Writer, schedErr *sched.SchedulingError) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWireError(schedErr)); err != nil {
		return fmt.Errorf("encoding error response: %w", err)
	}
	return fmt.Errorf("%s", schedErr.Error())
}
