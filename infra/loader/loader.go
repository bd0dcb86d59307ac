// Package loader reads trip logs from delimited files.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kilianp07/tripshift/core/logger"
	"github.com/kilianp07/tripshift/core/model"
)

// ErrMissingColumn is returned when the header lacks a configured column.
var ErrMissingColumn = errors.New("missing column")

// Selection restricts which rows are loaded. Zero values select everything.
type Selection struct {
	Cars   []string
	Window *model.Window
}

// Stats counts rows by outcome.
type Stats struct {
	Rows          int `json:"rows"`
	Loaded        int `json:"loaded"`
	Rejected      int `json:"rejected"`
	ForeignCar    int `json:"foreign_car"`
	OutsideWindow int `json:"outside_window"`
}

// Loader turns trip files into model trips.
type Loader struct {
	cfg Config
	loc *time.Location
	log logger.Logger
}

// New returns a loader converting timestamps to loc.
func New(cfg Config, loc *time.Location, log logger.Logger) (*Loader, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{cfg: cfg, loc: loc, log: logger.OrNop(log)}, nil
}

// LoadFile reads the file at path, or the configured path when empty.
func (l *Loader) LoadFile(ctx context.Context, path string, sel Selection) ([]model.Trip, Stats, error) {
	if path == "" {
		path = l.cfg.Path
	}
	if path == "" {
		return nil, Stats{}, errors.New("no trip file configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer func() { _ = f.Close() }()
	trips, st, err := l.Load(ctx, f, sel)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", path, err)
	}
	l.log.Infof("loaded %d trips from %s (%d rows, %d rejected)", st.Loaded, path, st.Rows, st.Rejected)
	return trips, st, nil
}

// Load parses r. Rows whose end precedes their start are rejected and
// counted. The result is sorted by car then start, and each trip's Seq is
// its position in that order.
func (l *Loader) Load(ctx context.Context, r io.Reader, sel Selection) ([]model.Trip, Stats, error) {
	var st Stats
	cr := csv.NewReader(r)
	cr.Comma = l.cfg.comma()
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	// Ragged rows are rejected one by one below.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, st, nil
		}
		return nil, st, fmt.Errorf("read header: %w", err)
	}
	carIdx, startIdx, endIdx, err := l.indexes(header)
	if err != nil {
		return nil, st, err
	}
	width := max(carIdx, startIdx, endIdx) + 1
	cars := make(map[string]struct{}, len(sel.Cars))
	for _, c := range sel.Cars {
		cars[c] = struct{}{}
	}

	var trips []model.Trip
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("row %d: %w", row, err)
		}
		st.Rows++
		if len(rec) < width {
			st.Rejected++
			l.log.Warnf("row %d: %d fields, want at least %d", row, len(rec), width)
			continue
		}
		car := strings.TrimSpace(rec[carIdx])
		if len(cars) > 0 {
			if _, ok := cars[car]; !ok {
				st.ForeignCar++
				continue
			}
		}
		start, err := ParseTimestamp(rec[startIdx], l.loc)
		if err != nil {
			st.Rejected++
			l.log.Warnf("row %d: start: %v", row, err)
			continue
		}
		end, err := ParseTimestamp(rec[endIdx], l.loc)
		if err != nil {
			st.Rejected++
			l.log.Warnf("row %d: end: %v", row, err)
			continue
		}
		iv, err := model.NewInterval(start, end)
		if err != nil {
			st.Rejected++
			l.log.Warnf("row %d: %v", row, err)
			continue
		}
		if sel.Window != nil && !sel.Window.Contains(iv) {
			st.OutsideWindow++
			continue
		}
		trips = append(trips, model.Trip{Interval: iv, OriginCarID: car})
	}

	slices.SortStableFunc(trips, func(a, b model.Trip) int {
		if c := strings.Compare(a.OriginCarID, b.OriginCarID); c != 0 {
			return c
		}
		return a.Start.Compare(b.Start)
	})
	for i := range trips {
		trips[i].Seq = i
	}
	st.Loaded = len(trips)
	return trips, st, nil
}

func (l *Loader) indexes(header []string) (car, start, end int, err error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	if car, err = find(l.cfg.Columns.Car); err != nil {
		return
	}
	if start, err = find(l.cfg.Columns.Start); err != nil {
		return
	}
	end, err = find(l.cfg.Columns.End)
	return
}
