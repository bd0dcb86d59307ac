package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripshift/core/events"
	"github.com/kilianp07/tripshift/internal/eventbus"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			out, err := Run(sc, nil, nil)
			require.NoError(t, err)
			assert.NoError(t, out.Err())
		})
	}
}

func TestRunReportsMismatches(t *testing.T) {
	sc, err := Load("saturated.yaml")
	require.NoError(t, err)
	zero := 0
	sc.Expected.Dropped = &zero
	sc.Expected.PerCar = map[string]int{"A": 2, "Z": 1}
	sc.Expected.Utilization = map[string]float64{"B": 0.5}

	out, err := Run(sc, nil, nil)
	require.NoError(t, err)
	assert.Len(t, out.Mismatches, 4)
	assert.ErrorIs(t, out.Err(), ErrMismatch)
}

func TestRunPublishesEvents(t *testing.T) {
	sc, err := Load("back_to_back.yaml")
	require.NoError(t, err)
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	_, err = Run(sc, nil, bus)
	require.NoError(t, err)

	assigned := 0
	for done := false; !done; {
		switch ev := (<-sub).(type) {
		case events.TripAssigned:
			assigned++
		case events.RunCompleted:
			assert.Equal(t, 3, ev.Assigned)
			done = true
		}
	}
	assert.Equal(t, 3, assigned)
}

func TestRunSetupErrors(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Cars:   []string{"A"},
			Window: WindowDef{Start: "2019-03-01T00:00:00Z", End: "2019-03-02T00:00:00Z"},
			Trips:  []TripDef{{Car: "A", Start: "2019-03-01T08:00:00Z", End: "2019-03-01T09:00:00Z"}},
		}
	}
	cases := map[string]func(*Scenario){
		"bad window":     func(s *Scenario) { s.Window.End = s.Window.Start },
		"bad timestamp":  func(s *Scenario) { s.Trips[0].Start = "soon" },
		"reversed trip":  func(s *Scenario) { s.Trips[0].End = "2019-03-01T07:00:00Z" },
		"bad duration":   func(s *Scenario) { s.MinDuration = "half an hour" },
		"negative min":   func(s *Scenario) { s.MinDuration = "-1m" },
		"duplicate cars": func(s *Scenario) { s.Cars = []string{"A", "A"} },
		"unknown growth": func(s *Scenario) { s.PoolGrowth = "elastic" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sc := base()
			mutate(sc)
			_, err := Run(sc, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
