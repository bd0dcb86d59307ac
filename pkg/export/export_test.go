package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/fleet"
	"github.com/kilianp07/tripshift/core/model"
)

var day = time.Date(2019, 3, 1, 6, 0, 0, 0, time.UTC)

func trip(origin string, seq int, startH, endH int) model.Trip {
	return model.Trip{
		Interval: model.Interval{
			Start: day.Add(time.Duration(startH) * time.Hour),
			End:   day.Add(time.Duration(endH) * time.Hour),
		},
		OriginCarID: origin,
		Seq:         seq,
	}
}

// A logs two overlapping trips, B none, Z is outside the fleet.
func comparison(t *testing.T) *fleet.Comparison {
	t.Helper()
	f, err := fleet.New([]string{"A", "B"}, model.Window{Start: day, End: day.Add(10 * time.Hour)})
	require.NoError(t, err)
	e, err := assign.NewEngine(assign.Config{}, nil, nil)
	require.NoError(t, err)
	c, err := f.Compare(e, []model.Trip{trip("A", 0, 0, 2), trip("A", 1, 1, 3), trip("Z", 2, 4, 5)})
	require.NoError(t, err)
	return c
}

func TestNewReportDoc(t *testing.T) {
	doc := NewReportDoc(comparison(t))
	require.Len(t, doc.Cars, 2)
	assert.Equal(t, CarRow{
		CarID: "A", Before: 0.4, After: 0.3, Delta: -0.1,
		TripsBefore: 2, TripsAfter: 2,
		OccupiedBefore: "4h0m0s", OccupiedAfter: "3h0m0s",
	}, doc.Cars[0])
	assert.Equal(t, 1.0, doc.Cars[1].Before)
	assert.Equal(t, 0.2, doc.Cars[1].After)
	assert.Equal(t, 0.2, doc.FleetBefore)
	assert.Equal(t, 0.25, doc.FleetAfter)
	assert.Equal(t, 3, doc.Assigned)
	assert.Equal(t, 1, doc.Foreign)
	assert.Zero(t, doc.Dropped)
	assert.NotEmpty(t, doc.RunID)
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportCSV(&buf, comparison(t)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"car_id,before,after,delta,trips_before,trips_after",
		"A,0.400000,0.300000,-0.100000,2,2",
		"B,1.000000,0.200000,-0.800000,0,1",
		"fleet,0.200000,0.250000,0.050000,2,3",
	}, lines)
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportJSON(&buf, comparison(t)))
	var doc ReportDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 0.25, doc.FleetAfter)
	assert.Len(t, doc.Cars, 2)
	assert.NotContains(t, buf.String(), "opened")
}

func TestWriteReport_Formats(t *testing.T) {
	c := comparison(t)

	var text bytes.Buffer
	require.NoError(t, WriteReport(&text, c, FormatText))
	assert.Contains(t, text.String(), "40.00%")
	assert.Contains(t, text.String(), "assigned 3, dropped 0, filtered 0, foreign 1")

	var y bytes.Buffer
	require.NoError(t, WriteReport(&y, c, FormatYAML))
	var m map[string]any
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &m))
	assert.Equal(t, 0.25, m["fleet_after"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteItinerary(t *testing.T) {
	c := comparison(t)

	var buf bytes.Buffer
	require.NoError(t, WriteItineraryCSV(&buf, c.After.Cars))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A,0,A,2019-03-01T06:00:00Z,2019-03-01T08:00:00Z,120", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "A,2,Z,"))
	assert.True(t, strings.HasPrefix(lines[3], "B,1,A,"))

	buf.Reset()
	require.NoError(t, WriteItineraryJSON(&buf, c.Before.Cars))
	var out []struct {
		CarID string            `json:"car_id"`
		Trips []json.RawMessage `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Len(t, out[0].Trips, 2)
	assert.Empty(t, out[1].Trips)
}
