package metrics

import "time"

// Phase tells whether a utilization sample comes from the logged schedule
// or from the reassigned one.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// RunEvent summarises one assignment pass.
type RunEvent struct {
	RunID    string
	Cars     int
	Input    int
	Assigned int
	Dropped  int
	Filtered int
	Opened   int
	Elapsed  time.Duration
	Time     time.Time
}

// MetricsSink records assignment runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// UtilizationSample is the ratio of one car, or of the whole fleet when
// CarID is empty.
type UtilizationSample struct {
	RunID    string
	CarID    string
	Phase    Phase
	Ratio    float64
	Occupied time.Duration
	Trips    int
	Time     time.Time
}

// UtilizationRecorder records utilization samples.
type UtilizationRecorder interface {
	RecordUtilization(samples []UtilizationSample) error
}

// TripOutcome is the fate of a single trip during a run.
type TripOutcome string

const (
	OutcomeAssigned TripOutcome = "assigned"
	OutcomeDropped  TripOutcome = "dropped"
	OutcomeFiltered TripOutcome = "filtered"
)

// TripOutcomeEvent captures one trip decision.
type TripOutcomeEvent struct {
	RunID   string
	CarID   string
	Outcome TripOutcome
	Trip    time.Duration
	Time    time.Time
}

// TripOutcomeRecorder records per trip decisions.
type TripOutcomeRecorder interface {
	RecordTripOutcome(ev TripOutcomeEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error                    { return nil }
func (NopSink) RecordUtilization([]UtilizationSample) error { return nil }
func (NopSink) RecordTripOutcome(TripOutcomeEvent) error    { return nil }
