package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/tripshift/core/events"
	coremetrics "github.com/kilianp07/tripshift/core/metrics"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/internal/eventbus"
)

type captureSink struct {
	mu       sync.Mutex
	runs     []coremetrics.RunEvent
	outcomes []coremetrics.TripOutcomeEvent
}

func (c *captureSink) RecordRun(ev coremetrics.RunEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, ev)
	return nil
}

func (c *captureSink) RecordTripOutcome(ev coremetrics.TripOutcomeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, ev)
	return nil
}

func TestEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &captureSink{}
	done := StartEventCollector(context.Background(), bus, sink)

	start := time.Date(2019, 3, 1, 9, 0, 0, 0, time.UTC)
	trip := model.Trip{Interval: model.Interval{Start: start, End: start.Add(time.Hour)}}
	bus.Publish(events.TripAssigned{RunID: "r", CarID: "6", Trip: trip})
	bus.Publish(events.TripDropped{RunID: "r", Trip: trip})
	bus.Publish(events.RunCompleted{RunID: "r", Cars: 1, Assigned: 1, Dropped: 1})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if assert.Len(t, sink.outcomes, 2) {
		assert.Equal(t, coremetrics.OutcomeAssigned, sink.outcomes[0].Outcome)
		assert.Equal(t, "6", sink.outcomes[0].CarID)
		assert.Equal(t, time.Hour, sink.outcomes[0].Trip)
		assert.Equal(t, coremetrics.OutcomeDropped, sink.outcomes[1].Outcome)
	}
	assert.Empty(t, sink.runs, "run summaries are recorded by the caller")
}

func TestEventCollector_NilInputs(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, nil)
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel")
	}
}
