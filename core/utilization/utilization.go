package utilization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/tripshift/core/model"
)

// Idle is the ratio reported for a car that was never occupied.
var Idle = decimal.NewFromInt(1)

// Ratio returns occupied / period. The period must be strictly positive.
// A zero occupied time yields Idle. The ratio may exceed 1 when the caller
// passes a period shorter than the occupied time.
func Ratio(occupied, period time.Duration) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("%w: got %s", model.ErrInvalidPeriod, period)
	}
	if occupied == 0 {
		return Idle, nil
	}
	return decimal.NewFromInt(int64(occupied)).Div(decimal.NewFromInt(int64(period))), nil
}

// Occupied sums the duration of the trips.
func Occupied(trips []model.Trip) time.Duration {
	var total time.Duration
	for _, t := range trips {
		total += t.Duration()
	}
	return total
}
