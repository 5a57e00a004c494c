package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sched "github.com/lineforge/shopsched/internal/scheduling"
)

var kpiHorizon = sched.Horizon{
	Start: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 11, 3, 16, 0, 0, 0, time.UTC),
}

func at(hours, minutes int) time.Time {
	return kpiHorizon.Start.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
}

// TestComputeKPIsEmptyAssignments verifies the boundary case of no
// assignments reports zero KPIs and zero utilization per resource, rather
// than dividing by zero or panicking.
func TestComputeKPIsEmptyAssignments(t *testing.T) {
	req := sched.ScheduleRequest{
		Horizon:   kpiHorizon,
		Resources: []sched.Resource{{ID: "Fill-1", Capabilities: []string{"fill"}}},
	}
	kpis := sched.ComputeKPIs(req, nil)
	require.Equal(t, 0, kpis.TardinessMinutes)
	require.Equal(t, 0, kpis.MakespanMinutes)
	require.Equal(t, 0, kpis.Changeovers)
	require.Equal(t, 0, kpis.Utilization["Fill-1"])
}

// TestComputeKPIsTardinessSumsOnlyLateProducts verifies early completion
// contributes zero tardiness while a late product contributes exactly its
// overrun in minutes.
func TestComputeKPIsTardinessSumsOnlyLateProducts(t *testing.T) {
	req := sched.ScheduleRequest{
		Horizon: kpiHorizon,
		Resources: []sched.Resource{
			{ID: "Fill-1", Capabilities: []string{"fill"}, Calendar: []sched.Window{{Open: kpiHorizon.Start, Close: kpiHorizon.End}}},
		},
		Products: []sched.Product{
			{ID: "P1", Family: "standard", Due: at(1, 0)},
			{ID: "P2", Family: "standard", Due: at(1, 0)},
		},
	}
	assignments := []sched.Assignment{
		{ProductID: "P1", OpIndex: 0, ResourceID: "Fill-1", Start: at(0, 0), End: at(0, 30)},
		{ProductID: "P2", OpIndex: 0, ResourceID: "Fill-1", Start: at(0, 30), End: at(1, 20)},
	}
	kpis := sched.ComputeKPIs(req, assignments)
	require.Equal(t, 20, kpis.TardinessMinutes)
}

// TestComputeKPIsUtilizationRounding verifies utilization is the rounded
// percentage of busy over available minutes on the resource's calendar.
func TestComputeKPIsUtilizationRounding(t *testing.T) {
	req := sched.ScheduleRequest{
		Horizon: kpiHorizon,
		Resources: []sched.Resource{
			{ID: "Fill-1", Capabilities: []string{"fill"}, Calendar: []sched.Window{{Open: kpiHorizon.Start, Close: kpiHorizon.End}}},
		},
		Products: []sched.Product{{ID: "P1", Family: "standard", Due: kpiHorizon.End}},
	}
	assignments := []sched.Assignment{
		{ProductID: "P1", OpIndex: 0, ResourceID: "Fill-1", Start: at(0, 0), End: at(0, 30)},
	}
	kpis := sched.ComputeKPIs(req, assignments)
	require.Equal(t, 6, kpis.Utilization["Fill-1"]) // 30/480 * 100 = 6.25 -> 6
}

// TestComputeKPIsChangeoversCountsFamilyTransitionsOnly verifies
// changeovers counts only adjacent pairs on the same resource whose
// families differ, ordered by start time.
func TestComputeKPIsChangeoversCountsFamilyTransitionsOnly(t *testing.T) {
	req := sched.ScheduleRequest{
		Horizon: kpiHorizon,
		Resources: []sched.Resource{
			{ID: "Fill-1", Capabilities: []string{"fill"}, Calendar: []sched.Window{{Open: kpiHorizon.Start, Close: kpiHorizon.End}}},
		},
		Products: []sched.Product{
			{ID: "P1", Family: "standard", Due: kpiHorizon.End},
			{ID: "P2", Family: "standard", Due: kpiHorizon.End},
			{ID: "P3", Family: "premium", Due: kpiHorizon.End},
		},
	}
	assignments := []sched.Assignment{
		{ProductID: "P1", OpIndex: 0, ResourceID: "Fill-1", Start: at(0, 0), End: at(0, 30)},
		{ProductID: "P2", OpIndex: 0, ResourceID: "Fill-1", Start: at(0, 30), End: at(1, 0)},
		{ProductID: "P3", OpIndex: 0, ResourceID: "Fill-1", Start: at(1, 0), End: at(1, 30)},
	}
	kpis := sched.ComputeKPIs(req, assignments)
	require.Equal(t, 1, kpis.Changeovers)
}
