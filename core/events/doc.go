// Package events defines the events emitted on the event bus while a run
// reassigns trips.
//
// Available event types:
//   - TripAssigned: a trip was placed on a car
//   - TripDropped: no car of the pool could take the trip
//   - TripFiltered: the trip was shorter than the minimum duration
//   - RunCompleted: summary of a finished assignment pass
package events
