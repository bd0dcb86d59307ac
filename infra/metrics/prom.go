package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/tripshift/core/metrics"
)

// PromSink records assignment runs in Prometheus metrics.
type PromSink struct {
	trips       *prometheus.CounterVec
	runs        prometheus.Counter
	runDuration prometheus.Histogram
	utilization *prometheus.GaugeVec
	fleet       *prometheus.GaugeVec
	lastDropped prometheus.Gauge
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripshift_trips_total",
			Help: "Trips processed by the assignment engine by outcome",
		}, []string{"outcome"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripshift_runs_total",
			Help: "Number of completed assignment runs",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripshift_run_duration_seconds",
			Help:    "Duration of an assignment pass",
			Buckets: prometheus.DefBuckets,
		}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tripshift_car_utilization_ratio",
			Help: "Share of the observation window a car is occupied",
		}, []string{"car_id", "phase"}),
		fleet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tripshift_fleet_utilization_ratio",
			Help: "Share of the fleet capacity occupied over the observation window",
		}, []string{"phase"}),
		lastDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tripshift_last_run_dropped_trips",
			Help: "Trips no car could take during the last run",
		}),
	}
	var err error
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.runDuration, err = register(reg, s.runDuration); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, s.utilization); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, s.fleet); err != nil {
		return nil, err
	}
	if s.lastDropped, err = register(reg, s.lastDropped); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates run counters and the duration histogram.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.Inc()
	s.runDuration.Observe(ev.Elapsed.Seconds())
	s.lastDropped.Set(float64(ev.Dropped))
	return nil
}

// RecordTripOutcome counts trips by outcome.
func (s *PromSink) RecordTripOutcome(ev coremetrics.TripOutcomeEvent) error {
	s.trips.WithLabelValues(string(ev.Outcome)).Inc()
	return nil
}

// RecordUtilization sets the per car and fleet gauges.
func (s *PromSink) RecordUtilization(samples []coremetrics.UtilizationSample) error {
	for _, smp := range samples {
		if smp.CarID == "" {
			s.fleet.WithLabelValues(string(smp.Phase)).Set(smp.Ratio)
			continue
		}
		s.utilization.WithLabelValues(smp.CarID, string(smp.Phase)).Set(smp.Ratio)
	}
	return nil
}
