// Package app wires the loader, the assignment engine and the reporting
// backends into a single reassignment run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/tripshift/api/runs"
	"github.com/kilianp07/tripshift/config"
	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/fleet"
	coremetrics "github.com/kilianp07/tripshift/core/metrics"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/core/runlog"
	"github.com/kilianp07/tripshift/infra/loader"
	"github.com/kilianp07/tripshift/infra/logger"
	"github.com/kilianp07/tripshift/infra/metrics"
	"github.com/kilianp07/tripshift/infra/mqtt"
	"github.com/kilianp07/tripshift/internal/eventbus"
	"github.com/kilianp07/tripshift/pkg/export"
)

// eventBuffer bounds the per trip events queued for the metrics collector.
const eventBuffer = 4096

// Option overrides a backend built from configuration.
type Option func(*Service)

// WithStore replaces the configured run log.
func WithStore(s runlog.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the configured MQTT publisher.
func WithPublisher(p mqtt.Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithLogger replaces the zerolog logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// Service runs reassignments for one configured fleet.
type Service struct {
	cfg    *config.Config
	loc    *time.Location
	log    logger.Logger
	loader *loader.Loader
	engine *assign.Engine
	bus    *eventbus.Bus
	sink   coremetrics.MetricsSink
	store  runlog.Store
	pub    mqtt.Publisher

	cancel    context.CancelFunc
	collector <-chan struct{}
}

// Outcome is the result of one Run.
type Outcome struct {
	Comparison *fleet.Comparison
	Stats      loader.Stats
	Record     runlog.Record
}

// New builds a service from cfg. Backends not given as options are created
// from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{cfg: cfg}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	if err := cfg.Fleet.Validate(); err != nil {
		return nil, fmt.Errorf("fleet: %w", err)
	}
	loc, err := cfg.Fleet.Location()
	if err != nil {
		return nil, err
	}
	svc.loc = loc
	if svc.loader, err = loader.New(cfg.Loader, loc, svc.log); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	svc.bus = eventbus.NewWithBuffer(eventBuffer)
	if svc.engine, err = assign.NewEngine(cfg.Assign, svc.log, svc.bus); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if svc.store == nil {
		if svc.store, err = runlog.New(cfg.Runlog); err != nil {
			return nil, fmt.Errorf("runlog: %w", err)
		}
	}
	if svc.pub == nil {
		if svc.pub, err = mqtt.New(cfg.MQTT, logger.New("mqtt")); err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt: %w", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel
	svc.collector = metrics.StartEventCollector(ctx, svc.bus, svc.sink)
	return svc, nil
}

// Run loads the trips at path (the configured path when empty), compares
// logged and reassigned utilization, then records, stores and publishes
// the comparison. Failures of the reporting backends are logged and do not
// fail the run.
func (s *Service) Run(ctx context.Context, path string) (*Outcome, error) {
	sel := loader.Selection{Cars: s.cfg.Fleet.CarIDs}
	var window model.Window
	derive := s.cfg.Fleet.Window.Derive
	if !derive {
		if !s.cfg.Fleet.HasWindow() {
			return nil, config.ErrWindowRequired
		}
		w, err := s.cfg.Fleet.ModelWindow(s.loc)
		if err != nil {
			return nil, err
		}
		window = w
		if s.cfg.Loader.FilterWindow {
			sel.Window = &window
		}
	}
	trips, stats, err := s.loader.LoadFile(ctx, path, sel)
	if err != nil {
		return nil, err
	}
	if derive {
		if window, err = model.Span(trips); err != nil {
			return nil, fmt.Errorf("derive window from trips: %w", err)
		}
		s.log.Infof("observation window derived from trips: %s", window)
	}
	return s.Compare(ctx, trips, window, stats)
}

// Compare runs the comparison on already loaded trips.
func (s *Service) Compare(ctx context.Context, trips []model.Trip, window model.Window, stats loader.Stats) (*Outcome, error) {
	f, err := fleet.New(s.cfg.Fleet.CarIDs, window)
	if err != nil {
		return nil, err
	}
	cmp, err := f.Compare(s.engine, trips)
	if err != nil {
		return nil, err
	}
	if cmp.Foreign > 0 {
		s.log.Warnf("%d trips logged on cars outside the fleet are left out of the before report", cmp.Foreign)
	}
	out := &Outcome{Comparison: cmp, Stats: stats, Record: s.record(cmp)}
	s.report(ctx, out)
	return out, nil
}

// History queries the run log.
func (s *Service) History(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return s.store.Query(ctx, q)
}

// ServeMetrics exposes Prometheus metrics and the run history API until
// ctx is done. It returns immediately when no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, nil, runs.Routes(s.store, s.cfg.Metrics.APIToken))
}

// Close drains pending metrics events and releases every backend.
func (s *Service) Close() error {
	s.bus.Close()
	<-s.collector
	s.cancel()
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d events were not recorded by the metrics collector", n)
	}
	s.pub.Close()
	var errs []error
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

func (s *Service) record(c *fleet.Comparison) runlog.Record {
	return runlog.Record{
		ID:          c.Result.RunID,
		Timestamp:   time.Now().UTC(),
		Cars:        append([]string(nil), s.cfg.Fleet.CarIDs...),
		Window:      c.After.Report.Window,
		MinDuration: s.engine.Config().MinDuration.String(),
		PoolGrowth:  string(s.engine.Config().PoolGrowth),
		Input:       c.Result.Input,
		Assigned:    c.Result.Assigned(),
		Dropped:     len(c.Result.Dropped),
		Filtered:    len(c.Result.Filtered),
		Opened:      c.Result.Opened,
		Before:      c.Before.Report.Float64s(),
		After:       c.After.Report.Float64s(),
		FleetBefore: c.Before.Report.Fleet.InexactFloat64(),
		FleetAfter:  c.After.Report.Fleet.InexactFloat64(),
	}
}

func (s *Service) report(ctx context.Context, out *Outcome) {
	cmp := out.Comparison
	if err := s.sink.RecordRun(runEvent(cmp.Result, out.Record.Timestamp)); err != nil {
		s.log.Warnf("record run %s: %v", out.Record.ID, err)
	}
	if r, ok := s.sink.(coremetrics.UtilizationRecorder); ok {
		now := out.Record.Timestamp
		batch := append(
			samples(cmp.Result.RunID, coremetrics.PhaseBefore, cmp.Before, now),
			samples(cmp.Result.RunID, coremetrics.PhaseAfter, cmp.After, now)...)
		if err := r.RecordUtilization(batch); err != nil {
			s.log.Warnf("record utilization: %v", err)
		}
	}
	if err := s.store.Append(ctx, out.Record); err != nil {
		s.log.Errorf("append run %s: %v", out.Record.ID, err)
	}
	if err := s.pub.Publish(ctx, cmp.Result.RunID, export.NewReportDoc(cmp)); err != nil {
		s.log.Errorf("publish run %s: %v", out.Record.ID, err)
	}
}

func runEvent(res *assign.Result, at time.Time) coremetrics.RunEvent {
	return coremetrics.RunEvent{
		RunID:    res.RunID,
		Cars:     len(res.Ledgers),
		Input:    res.Input,
		Assigned: res.Assigned(),
		Dropped:  len(res.Dropped),
		Filtered: len(res.Filtered),
		Opened:   len(res.Opened),
		Elapsed:  res.Elapsed,
		Time:     at,
	}
}

func samples(runID string, phase coremetrics.Phase, snap *fleet.Snapshot, at time.Time) []coremetrics.UtilizationSample {
	rep := snap.Report
	out := make([]coremetrics.UtilizationSample, 0, len(snap.Cars)+1)
	total := 0
	for _, c := range snap.Cars {
		ratio, _ := rep.Ratio(c.ID())
		out = append(out, coremetrics.UtilizationSample{
			RunID:    runID,
			CarID:    c.ID(),
			Phase:    phase,
			Ratio:    ratio.InexactFloat64(),
			Occupied: rep.Occupied[c.ID()],
			Trips:    c.Len(),
			Time:     at,
		})
		total += c.Len()
	}
	var occupied time.Duration
	for _, d := range rep.Occupied {
		occupied += d
	}
	return append(out, coremetrics.UtilizationSample{
		RunID:    runID,
		Phase:    phase,
		Ratio:    rep.Fleet.InexactFloat64(),
		Occupied: occupied,
		Trips:    total,
		Time:     at,
	})
}
