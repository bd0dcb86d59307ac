package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripshift/core/model"
)

var base = time.Date(2019, 3, 1, 9, 0, 0, 0, time.UTC)

func trip(startMin, endMin int) model.Trip {
	return model.Trip{Interval: model.Interval{
		Start: base.Add(time.Duration(startMin) * time.Minute),
		End:   base.Add(time.Duration(endMin) * time.Minute),
	}}
}

func TestLedgerEmpty(t *testing.T) {
	l := New("A")
	assert.True(t, l.Empty())
	_, ok := l.LastEnd()
	assert.False(t, ok)
	assert.True(t, l.CanAccept(trip(-600, -500)), "empty ledger accepts any trip")
	assert.Zero(t, l.Occupied())
}

func TestLedgerAppend(t *testing.T) {
	l := New("A")
	require.NoError(t, l.Append(trip(0, 60)))
	require.NoError(t, l.Append(trip(60, 120)), "back to back allowed")

	end, ok := l.LastEnd()
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Hour), end)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2*time.Hour, l.Occupied())

	err := l.Append(trip(90, 150))
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Equal(t, 2, l.Len())
	assert.NoError(t, l.CheckNoOverlap())
}

func TestLedgerClone(t *testing.T) {
	l := New("A")
	require.NoError(t, l.Append(trip(0, 30)))
	c := l.Clone()
	require.NoError(t, l.Append(trip(30, 60)))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, l.Len())

	trips := l.Trips()
	trips[0].OriginCarID = "mutated"
	assert.Empty(t, l.Trips()[0].OriginCarID)
}
