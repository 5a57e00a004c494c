package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lineforge/shopsched/internal/parallel"
)

// Metrics holds the Prometheus collectors a Service reports against. Use
// NewMetrics to register them against a registry once per process.
type Metrics struct {
	solveDuration *prometheus.HistogramVec
	solveOutcomes *prometheus.CounterVec
	solveNodes    prometheus.Histogram
}

// NewMetrics constructs and registers the scheduling core's Prometheus
// collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopsched_solve_duration_seconds",
			Help:    "Wall-clock time spent in the Search Engine per solve call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		solveOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsched_solve_outcomes_total",
			Help: "Count of solve() calls by outcome.",
		}, []string{"outcome"}),
		solveNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopsched_solve_search_nodes",
			Help:    "Branch-and-bound nodes explored per solve call.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
	reg.MustRegister(m.solveDuration, m.solveOutcomes, m.solveNodes)
	return m
}

// Service is the top-level entry point for the four-stage pipeline: Time
// Quantizer (implicit in Build), Model Builder, Search Engine, Validator &
// KPI Pass. It holds no mutable state of its own and is safe to share
// across concurrent Solve calls.
type Service struct {
	log     *zap.SugaredLogger
	metrics *Metrics
	pool    *parallel.WorkerPool
}

// NewService constructs a Service that runs every Solve call inline on the
// caller's goroutine. log and metrics may be nil, in which case Solve
// skips logging/metrics (useful for tests).
func NewService(log *zap.SugaredLogger, metrics *Metrics) *Service {
	return &Service{log: log, metrics: metrics}
}

// NewServiceWithPool constructs a Service that bounds concurrent searches
// to pool's worker count, so a burst of solve() calls cannot each spin up
// their own unbounded branch-and-bound search at once. §5's single-
// threaded-per-call contract is unaffected: pool only bounds how many
// calls run concurrently, never reorders or splits one call's work.
func NewServiceWithPool(log *zap.SugaredLogger, metrics *Metrics, pool *parallel.WorkerPool) *Service {
	return &Service{log: log, metrics: metrics, pool: pool}
}

// Solve runs the full pipeline for one request: build the constraint
// model, search it under the request's time budget, and independently
// validate and compute KPIs for the result. If the Service was built with
// a worker pool, the call queues behind pool's concurrency cap instead of
// running immediately on the caller's goroutine.
func (s *Service) Solve(ctx context.Context, req ScheduleRequest) (*ScheduleResponse, *SchedulingError) {
	if s.pool == nil {
		return s.solveOnce(ctx, req)
	}

	type result struct {
		resp *ScheduleResponse
		err  *SchedulingError
	}
	done := make(chan result, 1)
	submitErr := s.pool.Submit(ctx, func() {
		resp, err := s.solveOnce(ctx, req)
		done <- result{resp, err}
	})
	if submitErr != nil {
		return nil, newError(ErrTimeoutUnknown, fmt.Sprintf("solve could not be scheduled: %v", submitErr))
	}

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, newError(ErrTimeoutUnknown, "context cancelled while queued for a worker")
	}
}

// solveOnce is the pipeline body Solve runs either inline or inside a
// pooled worker goroutine.
func (s *Service) solveOnce(ctx context.Context, req ScheduleRequest) (*ScheduleResponse, *SchedulingError) {
	correlationID := uuid.New().String()
	logger := s.log
	if logger != nil {
		logger = logger.With("correlation_id", correlationID)
	}

	built, buildErr := Build(req)
	if buildErr != nil {
		s.record("invalid_request", 0, 0)
		if logger != nil {
			logger.Infow("schedule request rejected", "code", buildErr.Code, "reasons", buildErr.Reasons)
		}
		return nil, buildErr
	}

	timeLimit := req.Settings.TimeLimit
	outcome := Solve(ctx, built, timeLimit)
	s.record(outcome.Kind.String(), outcome.SearchElapsedMs, outcome.Nodes)

	if logger != nil {
		logger.Infow("solve completed",
			"outcome", outcome.Kind.String(),
			"nodes", outcome.Nodes,
			"backtracks", outcome.Backtracks,
			"elapsed_ms", outcome.SearchElapsedMs,
		)
	}

	switch outcome.Kind {
	case Infeasible:
		return nil, newError(ErrInfeasible, "the engine proved no assignment satisfies the constraints")
	case Unknown:
		return nil, newError(ErrTimeoutUnknown, "the search budget expired before any feasible solution was found")
	}

	if err := Validate(req, outcome.Assignments); err != nil {
		if logger != nil {
			logger.Errorw("validator rejected engine output", "reasons", err.Reasons)
		}
		return nil, err
	}

	return &ScheduleResponse{
		Assignments: outcome.Assignments,
		KPIs:        ComputeKPIs(req, outcome.Assignments),
	}, nil
}

func (s *Service) record(outcome string, elapsedMs int64, nodes int) {
	if s.metrics == nil {
		return
	}
	s.metrics.solveOutcomes.WithLabelValues(outcome).Inc()
	s.metrics.solveDuration.WithLabelValues(outcome).Observe(time.Duration(elapsedMs * int64(time.Millisecond)).Seconds())
	s.metrics.solveNodes.Observe(float64(nodes))
}
