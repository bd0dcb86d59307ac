package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/tripshift/core/events"
	coremetrics "github.com/kilianp07/tripshift/core/metrics"
	"github.com/kilianp07/tripshift/infra/logger"
	"github.com/kilianp07/tripshift/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records the outcome
// of every trip decision. Run summaries are not taken from the bus: the bus
// drops events when full, so callers record them from the result. It stops when the context is canceled or the bus is
// closed; the returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(ev, sink); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func collect(ev eventbus.Event, sink coremetrics.MetricsSink) error {
	now := time.Now()
	outcome := func(e coremetrics.TripOutcomeEvent) error {
		if r, ok := sink.(coremetrics.TripOutcomeRecorder); ok {
			return r.RecordTripOutcome(e)
		}
		return nil
	}
	switch e := ev.(type) {
	case events.TripAssigned:
		return outcome(coremetrics.TripOutcomeEvent{RunID: e.RunID, CarID: e.CarID,
			Outcome: coremetrics.OutcomeAssigned, Trip: e.Trip.Duration(), Time: now})
	case events.TripDropped:
		return outcome(coremetrics.TripOutcomeEvent{RunID: e.RunID,
			Outcome: coremetrics.OutcomeDropped, Trip: e.Trip.Duration(), Time: now})
	case events.TripFiltered:
		return outcome(coremetrics.TripOutcomeEvent{RunID: e.RunID,
			Outcome: coremetrics.OutcomeFiltered, Trip: e.Trip.Duration(), Time: now})
	}
	return nil
}
