package assign

import (
	"fmt"
	"time"

	"github.com/kilianp07/tripshift/core/ledger"
	"github.com/kilianp07/tripshift/core/model"
)

// Result is the outcome of one assignment pass.
type Result struct {
	RunID   string
	Ledgers []*ledger.Ledger
	// Dropped holds trips no car could take, in processing order.
	Dropped []model.Trip
	// Filtered holds trips shorter than the minimum duration.
	Filtered []model.Trip
	// Opened lists overflow cars created with PoolDynamic.
	Opened []string
	// Input is the number of trips handed to the engine.
	Input int
	// Elapsed is the duration of the pass.
	Elapsed time.Duration
}

// Assigned returns how many trips were placed on a car.
func (r *Result) Assigned() int {
	n := 0
	for _, l := range r.Ledgers {
		n += l.Len()
	}
	return n
}

// Ledger returns the ledger of the given car or nil.
func (r *Result) Ledger(id string) *ledger.Ledger {
	for _, l := range r.Ledgers {
		if l.ID() == id {
			return l
		}
	}
	return nil
}

// CheckConservation verifies every input trip was assigned, dropped or
// filtered exactly once.
func (r *Result) CheckConservation() error {
	got := r.Assigned() + len(r.Dropped) + len(r.Filtered)
	if got != r.Input {
		return fmt.Errorf("conservation: %d assigned + %d dropped + %d filtered != %d input",
			r.Assigned(), len(r.Dropped), len(r.Filtered), r.Input)
	}
	return nil
}

// CheckNoOverlap verifies no ledger holds overlapping trips.
func (r *Result) CheckNoOverlap() error {
	for _, l := range r.Ledgers {
		if err := l.CheckNoOverlap(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	cp := *r
	cp.Ledgers = ledger.CloneAll(r.Ledgers)
	cp.Dropped = append([]model.Trip(nil), r.Dropped...)
	cp.Filtered = append([]model.Trip(nil), r.Filtered...)
	cp.Opened = append([]string(nil), r.Opened...)
	return &cp
}
