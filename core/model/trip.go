package model

import "fmt"

// Trip is a booking of one car. OriginCarID records the car the trip was
// logged against and is only used to rebuild the schedule as it was
// observed. Seq is the position of the trip in the input and breaks ties
// between trips sharing the same start.
type Trip struct {
	Interval
	OriginCarID string `json:"origin_car_id"`
	Seq         int    `json:"seq"`
}

// NewTrip builds a trip and validates its interval.
func NewTrip(origin string, iv Interval) (Trip, error) {
	t := Trip{Interval: iv, OriginCarID: origin}
	if err := t.Validate(); err != nil {
		return Trip{}, err
	}
	return t, nil
}

// Validate checks the trip interval.
func (t Trip) Validate() error {
	if err := t.Interval.Validate(); err != nil {
		return fmt.Errorf("trip %d (car %s): %w", t.Seq, t.OriginCarID, err)
	}
	return nil
}
