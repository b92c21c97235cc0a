package propagation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreyysyy/orbit/internal/tle"
)

// TestSGP4_AgreesWithClosedForm compares both models near the epoch, where
// the perturbations SGP4 adds are still small.
func TestSGP4_AgreesWithClosedForm(t *testing.T) {
	rec, err := tle.Parse(landsatTLE)
	require.NoError(t, err)

	sgp4, err := NewSGP4Propagator(rec)
	require.NoError(t, err)
	prop := NewPropagator(Config{}, testLogger())

	start := rec.EpochInstant().Truncate(time.Second)
	for _, offset := range []time.Duration{0, 5 * time.Minute, 10 * time.Minute} {
		at := start.Add(offset)
		a, err := prop.Propagate(rec.Elements(), at)
		require.NoError(t, err)
		b, err := sgp4.Propagate(at)
		require.NoError(t, err)

		sep := AngularSeparation(a, b)
		assert.Less(t, sep, 1.0, "separation at +%s: %v vs %v", offset, a, b)
	}
}

func TestSGP4_Inertial(t *testing.T) {
	rec, err := tle.Parse(landsatTLE)
	require.NoError(t, err)
	sgp4, err := NewSGP4Propagator(rec)
	require.NoError(t, err)

	r, err := sgp4.Inertial(time.Date(2020, 2, 15, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// Landsat 8 flies roughly 705 km above the equatorial radius.
	assert.InDelta(t, 7080, r.Norm(), 30)
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		a, b GeodeticPosition
		want float64
	}{
		{GeodeticPosition{10, 20}, GeodeticPosition{10, 20}, 0},
		{GeodeticPosition{0, 0}, GeodeticPosition{0, 90}, 90},
		{GeodeticPosition{90, 0}, GeodeticPosition{-90, 0}, 180},
		{GeodeticPosition{0, 179}, GeodeticPosition{0, -179}, 2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, AngularSeparation(tt.a, tt.b), 1e-9, "%v → %v", tt.a, tt.b)
	}
}
