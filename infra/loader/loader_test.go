package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripshift/core/model"
)

const sample = `car_id;start_ts;last_logout_ts;km
7;2019-03-02 10:00:00+00:00;2019-03-02 12:00:00+00:00;12
6;2019-03-01 09:00:00+00:00;2019-03-01 10:30:00+00:00;4
6;2019-03-01 08:00:00+00:00;2019-03-01 08:45:00+00:00;3
11;2019-03-01 08:00:00+00:00;2019-03-01 09:00:00+00:00;1
6;2019-03-05 10:00:00+00:00;2019-03-05 09:00:00+00:00;0
8;2019-02-28 23:00:00+00:00;2019-03-01 01:00:00+00:00;9
8;2019-03-03T10:00:00Z;2019-03-03T11:00:00Z;5
`

func newLoader(t *testing.T, cfg Config) *Loader {
	t.Helper()
	l, err := New(cfg, time.UTC, nil)
	require.NoError(t, err)
	return l
}

func TestLoad_FiltersAndSorts(t *testing.T) {
	l := newLoader(t, Config{})
	w := model.Window{
		Start: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	trips, st, err := l.Load(context.Background(), strings.NewReader(sample), Selection{
		Cars:   []string{"6", "7", "8", "9", "10"},
		Window: &w,
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Rows: 7, Loaded: 4, Rejected: 1, ForeignCar: 1, OutsideWindow: 1}, st)
	require.Len(t, trips, 4)
	var got []string
	for i, tr := range trips {
		assert.Equal(t, i, tr.Seq)
		got = append(got, tr.OriginCarID+"@"+tr.Start.Format("01-02T15"))
	}
	assert.Equal(t, []string{"6@03-01T08", "6@03-01T09", "7@03-02T10", "8@03-03T10"}, got)
	assert.Equal(t, 45*time.Minute, trips[0].Duration())
}

func TestLoad_NoSelection(t *testing.T) {
	l := newLoader(t, Config{})
	trips, st, err := l.Load(context.Background(), strings.NewReader(sample), Selection{})
	require.NoError(t, err)
	assert.Equal(t, 6, st.Loaded)
	assert.Len(t, trips, 6)
}

func TestLoad_RaggedRowsAreRejectedPerRow(t *testing.T) {
	data := "car_id;start_ts;last_logout_ts\n" +
		"6;2019-03-01 08:00:00+00:00;2019-03-01 09:00:00+00:00\n" +
		"6;2019-03-01 10:00:00+00:00\n" +
		"7;2019-03-01 11:00:00+00:00;2019-03-01 12:00:00+00:00;extra\n"
	l := newLoader(t, Config{})
	trips, st, err := l.Load(context.Background(), strings.NewReader(data), Selection{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 3, Loaded: 2, Rejected: 1}, st)
	require.Len(t, trips, 2)
	assert.Equal(t, "7", trips[1].OriginCarID)
}

func TestLoad_CustomColumns(t *testing.T) {
	data := "vehicle,from,to\nA,2019-03-01 08:00:00,2019-03-01 09:00:00\n"
	l := newLoader(t, Config{Delimiter: ",", Columns: Columns{Car: "vehicle", Start: "from", End: "to"}})
	trips, _, err := l.Load(context.Background(), strings.NewReader(data), Selection{})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "A", trips[0].OriginCarID)
	assert.Equal(t, time.Hour, trips[0].Duration())
}

func TestLoad_MissingColumn(t *testing.T) {
	l := newLoader(t, Config{})
	_, _, err := l.Load(context.Background(), strings.NewReader("car_id;start_ts\n"), Selection{})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoad_EmptyInput(t *testing.T) {
	l := newLoader(t, Config{})
	trips, st, err := l.Load(context.Background(), strings.NewReader(""), Selection{})
	require.NoError(t, err)
	assert.Empty(t, trips)
	assert.Zero(t, st.Rows)
}

func TestLoad_Cancelled(t *testing.T) {
	l := newLoader(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := l.Load(ctx, strings.NewReader(sample), Selection{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	l := newLoader(t, Config{Path: path})
	trips, st, err := l.LoadFile(context.Background(), "", Selection{Cars: []string{"7"}})
	require.NoError(t, err)
	assert.Len(t, trips, 1)
	assert.Equal(t, 6, st.ForeignCar)

	_, _, err = l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Selection{})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	c := Config{Delimiter: ";;"}
	c.SetDefaults()
	assert.Error(t, c.Validate())
	_, err := New(Config{Delimiter: "ab"}, nil, nil)
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	want := time.Date(2019, 3, 1, 7, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2019-03-01 08:00:00+01:00",
		"2019-03-01T08:00:00+01:00",
		"2019-03-01 07:00:00",
		"2019-03-01T07:00:00.000",
		" 2019-03-01 07:00:00+00 ",
	} {
		got, err := ParseTimestamp(in, oslo)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), in)
		assert.Equal(t, oslo, got.Location(), in)
	}

	_, err = ParseTimestamp("", nil)
	assert.Error(t, err)
	_, err = ParseTimestamp("yesterday", nil)
	assert.Error(t, err)
}
