package metrics

import (
	"errors"
	"io"
)

// MultiSink fans out records to multiple sinks. Optional recorder
// interfaces are forwarded only to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the run to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordUtilization forwards utilization samples.
func (m *MultiSink) RecordUtilization(samples []UtilizationSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(UtilizationRecorder); ok {
			if err := rec.RecordUtilization(samples); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTripOutcome forwards trip decisions.
func (m *MultiSink) RecordTripOutcome(ev TripOutcomeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripOutcomeRecorder); ok {
			if err := rec.RecordTripOutcome(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
