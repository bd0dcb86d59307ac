package assign

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/tripshift/core/events"
	"github.com/kilianp07/tripshift/core/ledger"
	"github.com/kilianp07/tripshift/core/logger"
	"github.com/kilianp07/tripshift/core/model"
	"github.com/kilianp07/tripshift/internal/eventbus"
)

var (
	// ErrEmptyPool is returned when trips are given to an empty pool.
	ErrEmptyPool = errors.New("car pool is empty")
	// ErrDuplicateCar is returned when a car id appears twice in the pool.
	ErrDuplicateCar = errors.New("duplicate car id")
	// ErrEmptyCarID is returned for a blank car id.
	ErrEmptyCarID = errors.New("empty car id")
)

// Engine runs assignment passes. Each pass rebuilds every ledger from the
// full trip set; nothing is carried over from a previous call.
type Engine struct {
	cfg Config
	log logger.Logger
	bus eventbus.EventBus

	mu   sync.RWMutex
	last *Result
}

// NewEngine validates cfg and returns an engine. log and bus may be nil.
func NewEngine(cfg Config, log logger.Logger, bus eventbus.EventBus) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, log: logger.OrNop(log), bus: bus}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Last returns a copy of the most recent result, or nil before the first
// successful pass.
func (e *Engine) Last() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return nil
	}
	return e.last.Clone()
}

// ValidatePool checks car ids for blanks and duplicates.
func ValidatePool(carIDs []string) error {
	seen := make(map[string]struct{}, len(carIDs))
	for i, id := range carIDs {
		if id == "" {
			return fmt.Errorf("car %d: %w", i, ErrEmptyCarID)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCar, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Assign places trips on the cars of the pool. The returned result is owned
// by the caller. An error leaves the previous result of the engine intact.
func (e *Engine) Assign(trips []model.Trip, carIDs []string) (*Result, error) {
	started := time.Now()
	if err := ValidatePool(carIDs); err != nil {
		return nil, err
	}
	if len(carIDs) == 0 && len(trips) > 0 {
		return nil, ErrEmptyPool
	}
	for _, t := range trips {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("assign: %w", err)
		}
	}

	res := &Result{RunID: uuid.NewString(), Input: len(trips)}

	kept := make([]model.Trip, 0, len(trips))
	for _, t := range trips {
		if t.Duration() < e.cfg.MinDuration {
			res.Filtered = append(res.Filtered, t)
			e.publish(events.TripFiltered{RunID: res.RunID, Trip: t})
			continue
		}
		kept = append(kept, t)
	}

	res.Ledgers = make([]*ledger.Ledger, len(carIDs))
	for i, id := range carIDs {
		res.Ledgers[i] = ledger.New(id)
	}

	// Stable: trips sharing a start keep their input order.
	slices.SortStableFunc(kept, func(a, b model.Trip) int {
		return a.Start.Compare(b.Start)
	})

	for _, t := range kept {
		if err := e.place(res, t); err != nil {
			return nil, err
		}
	}

	if err := res.CheckNoOverlap(); err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	if err := res.CheckConservation(); err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}

	res.Elapsed = time.Since(started)
	e.mu.Lock()
	e.last = res.Clone()
	e.mu.Unlock()

	e.log.Infof("run %s: %d trips, %d assigned, %d dropped, %d filtered on %d cars in %s",
		res.RunID, res.Input, res.Assigned(), len(res.Dropped), len(res.Filtered), len(res.Ledgers), res.Elapsed)
	e.publish(events.RunCompleted{
		RunID:    res.RunID,
		Cars:     len(res.Ledgers),
		Assigned: res.Assigned(),
		Dropped:  len(res.Dropped),
		Filtered: len(res.Filtered),
		Opened:   len(res.Opened),
		Elapsed:  res.Elapsed,
	})
	return res, nil
}

func (e *Engine) place(res *Result, t model.Trip) error {
	for _, l := range res.Ledgers {
		if !l.CanAccept(t) {
			continue
		}
		if err := l.Append(t); err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		e.publish(events.TripAssigned{RunID: res.RunID, CarID: l.ID(), Trip: t})
		return nil
	}

	if e.cfg.PoolGrowth == PoolDynamic {
		l := ledger.New(e.overflowID(res))
		if err := l.Append(t); err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		res.Ledgers = append(res.Ledgers, l)
		res.Opened = append(res.Opened, l.ID())
		e.log.Debugw("overflow car opened", map[string]any{"run": res.RunID, "car": l.ID()})
		e.publish(events.TripAssigned{RunID: res.RunID, CarID: l.ID(), Trip: t})
		return nil
	}

	res.Dropped = append(res.Dropped, t)
	e.log.Debugw("trip dropped", map[string]any{
		"run":    res.RunID,
		"origin": t.OriginCarID,
		"start":  t.Start,
		"end":    t.End,
	})
	e.publish(events.TripDropped{RunID: res.RunID, Trip: t})
	return nil
}

func (e *Engine) overflowID(res *Result) string {
	for n := len(res.Opened) + 1; ; n++ {
		id := fmt.Sprintf("%s-%d", e.cfg.OverflowPrefix, n)
		if res.Ledger(id) == nil {
			return id
		}
	}
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
