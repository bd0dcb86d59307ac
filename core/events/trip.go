package events

import (
	"time"

	"github.com/kilianp07/tripshift/core/model"
)

// TripAssigned is published when a trip is placed on a car.
type TripAssigned struct {
	RunID string
	CarID string
	Trip  model.Trip
}

// TripDropped is published when no car could take the trip.
type TripDropped struct {
	RunID string
	Trip  model.Trip
}

// TripFiltered is published for trips shorter than the minimum duration.
type TripFiltered struct {
	RunID string
	Trip  model.Trip
}

// RunCompleted summarises an assignment pass.
type RunCompleted struct {
	RunID    string
	Cars     int
	Assigned int
	Dropped  int
	Filtered int
	Opened   int
	Elapsed  time.Duration
}
