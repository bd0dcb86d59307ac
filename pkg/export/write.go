package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tripshift/core/fleet"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCSV, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// WriteReport renders c in the requested format.
func WriteReport(w io.Writer, c *fleet.Comparison, f Format) error {
	switch f {
	case FormatJSON:
		return WriteReportJSON(w, c)
	case FormatCSV:
		return WriteReportCSV(w, c)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(NewReportDoc(c))
	default:
		return FormatComparison(w, c)
	}
}

// WriteReportJSON writes the comparison as indented JSON.
func WriteReportJSON(w io.Writer, c *fleet.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReportDoc(c))
}

// WriteReportCSV writes one row per car followed by a fleet row.
func WriteReportCSV(w io.Writer, c *fleet.Comparison) error {
	doc := NewReportDoc(c)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"car_id", "before", "after", "delta", "trips_before", "trips_after"}); err != nil {
		return err
	}
	for _, r := range doc.Cars {
		rec := []string{
			r.CarID,
			ratio(r.Before),
			ratio(r.After),
			ratio(r.Delta),
			strconv.Itoa(r.TripsBefore),
			strconv.Itoa(r.TripsAfter),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	fleetRow := []string{
		"fleet",
		ratio(doc.FleetBefore),
		ratio(doc.FleetAfter),
		ratio(doc.FleetAfter - doc.FleetBefore),
		strconv.Itoa(doc.Input - doc.Foreign),
		strconv.Itoa(doc.Assigned),
	}
	if err := cw.Write(fleetRow); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// FormatComparison prints a human readable table of the comparison.
func FormatComparison(w io.Writer, c *fleet.Comparison) error {
	doc := NewReportDoc(c)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\t%s\n", doc.Window)
	fmt.Fprintf(tw, "Run\t%s\n\n", doc.RunID)
	fmt.Fprintln(tw, "CAR\tBEFORE\tAFTER\tDELTA\tTRIPS\tOCCUPIED")
	for _, r := range doc.Cars {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%+.4f\t%d -> %d\t%s -> %s\n",
			r.CarID, percent(r.Before), percent(r.After), r.Delta,
			r.TripsBefore, r.TripsAfter, r.OccupiedBefore, r.OccupiedAfter)
	}
	fmt.Fprintf(tw, "fleet\t%s\t%s\t%+.4f\t\t\n", percent(doc.FleetBefore), percent(doc.FleetAfter), doc.FleetAfter-doc.FleetBefore)
	fmt.Fprintf(tw, "\nassigned %d, dropped %d, filtered %d, foreign %d\n", doc.Assigned, doc.Dropped, doc.Filtered, doc.Foreign)
	if len(doc.Opened) > 0 {
		fmt.Fprintf(tw, "opened %v\n", doc.Opened)
	}
	return tw.Flush()
}

// WriteItineraryCSV writes every trip of every car in schedule order.
func WriteItineraryCSV(w io.Writer, cars []fleet.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"car_id", "seq", "origin_car_id", "start", "end", "minutes"}); err != nil {
		return err
	}
	for _, c := range cars {
		for _, t := range c.Trips() {
			rec := []string{
				c.ID(),
				strconv.Itoa(t.Seq),
				t.OriginCarID,
				t.Start.Format(time.RFC3339),
				t.End.Format(time.RFC3339),
				strconv.FormatFloat(t.Duration().Minutes(), 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type itineraryTrip struct {
	Seq    int       `json:"seq"`
	Origin string    `json:"origin_car_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type itinerary struct {
	CarID string          `json:"car_id"`
	Trips []itineraryTrip `json:"trips"`
}

// WriteItineraryJSON writes one object per car with its trips.
func WriteItineraryJSON(w io.Writer, cars []fleet.Schedule) error {
	out := make([]itinerary, 0, len(cars))
	for _, c := range cars {
		it := itinerary{CarID: c.ID(), Trips: []itineraryTrip{}}
		for _, t := range c.Trips() {
			it.Trips = append(it.Trips, itineraryTrip{Seq: t.Seq, Origin: t.OriginCarID, Start: t.Start, End: t.End})
		}
		out = append(out, it)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}
