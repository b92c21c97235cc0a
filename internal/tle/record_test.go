package tle

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestRecord_RoundTrip(t *testing.T) {
	blocks := []string{
		block(landsatName, landsatLine1, landsatLine2),
		block(issName, issLine1, issLine2),
		block("STARLINK-1007",
			"1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995",
			"2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"),
	}
	for _, b := range blocks {
		r1, err := Parse(b)
		require.NoError(t, err)

		text := r1.String()
		r2, err := Parse(text, WithChecksumVerification())
		require.NoError(t, err, "re-parsing %q", text)
		assert.True(t, r1.Equal(r2), "round trip changed the record:\n%s\n%s", b, text)
	}
}

func TestRecord_CanonicalText(t *testing.T) {
	r, err := Parse(block(landsatName, landsatLine1, landsatLine2))
	require.NoError(t, err)

	tests := []struct {
		field Field
		want  string
	}{
		{FieldName, "LANDSAT 8"},
		{FieldCatalogNumber, "39084"},
		{FieldClassification, "U"},
		{FieldLaunchYear, "13"},
		{FieldLaunchNumber, "008"},
		{FieldLaunchPiece, "A  "},
		{FieldEpochYear, "20"},
		{FieldEpochDay, "046.06823367"},
		{FieldMeanMotionDot, " .00000004"},
		{FieldMeanMotionDDot, " 00000-0"},
		{FieldBStar, " 10818-4"},
		{FieldEphemerisType, "0"},
		{FieldElementSetNumber, "0999"},
		{FieldInclination, "098.1977"},
		{FieldRAAN, "117.6514"},
		{FieldEccentricity, "0001223"},
		{FieldArgPerigee, "088.0107"},
		{FieldMeanAnomaly, "272.1236"},
		{FieldMeanMotion, "14.57115290"},
		{FieldRevolutionNumber, "37273"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Text(tt.field), tt.field.String())
	}
}

func TestRecord_Lines(t *testing.T) {
	r, err := Parse(block(landsatName, landsatLine1, landsatLine2))
	require.NoError(t, err)

	name, l1, l2 := r.Lines()
	assert.Equal(t, landsatName, name)
	assert.Equal(t, "1 39084U 13008A   20046.06823367  .00000004  00000-0  10818-4 0 09999", l1)
	assert.Equal(t, "2 39084 098.1977 117.6514 0001223 088.0107 272.1236 14.57115290372734", l2)
}

func TestRecord_CompressedExponent(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, " 00000-0"},
		{1.0818e-5, " 10818-4"},
		{-1.1606e-4, "-11606-3"},
		{0.5, " 50000+0"},
		{12345, " 12345+5"},
		{1e-10, " 10000-9"},
		{9.99996e-5, " 10000-3"},
	}
	for _, tt := range tests {
		r := NewRecord()
		require.NoError(t, r.SetValue(FieldBStar, tt.v))
		assert.Equal(t, tt.want, r.Text(FieldBStar), "encode %g", tt.v)

		back := NewRecord()
		require.NoError(t, back.SetText(FieldBStar, r.Text(FieldBStar)))
		assert.Equal(t, r.BStar(), back.BStar(), "decode %q", tt.want)
	}

	for _, v := range []float64{1e-11, 1e9, -2e12} {
		err := NewRecord().SetValue(FieldBStar, v)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "SetValue(%g) should fail, got %v", v, err)
	}
}

func TestRecord_DecodeCompressedExponent(t *testing.T) {
	tests := []struct {
		token string
		want  float64
	}{
		{"12345-3", 0.12345e-3},
		{" 12345-3", 0.12345e-3},
		{"-5-1", -0.05},
		{"+1+1", 1},
		{"00000+0", 0},
	}
	for _, tt := range tests {
		r := NewRecord()
		require.NoError(t, r.SetText(FieldMeanMotionDDot, tt.token))
		assert.True(t, scalar.EqualWithinRel(tt.want, r.MeanMotionDDot(), 1e-15),
			"%q decoded to %g, want %g", tt.token, r.MeanMotionDDot(), tt.want)
	}
}

func TestRecord_SetValueTextSetTextRecoversValue(t *testing.T) {
	tests := []struct {
		field Field
		v     float64
		tol   float64
	}{
		{FieldCatalogNumber, 5, 0},
		{FieldLaunchYear, 98, 0},
		{FieldLaunchNumber, 67, 0},
		{FieldEpochYear, 6, 0},
		{FieldEpochDay, 120.72277529, 5e-9},
		{FieldMeanMotionDot, -0.00002182, 5e-9},
		{FieldMeanMotionDDot, 1.2345e-7, 1e-12},
		{FieldBStar, -3.4567e-4, 1e-9},
		{FieldEphemerisType, 0, 0},
		{FieldElementSetNumber, 292, 0},
		{FieldInclination, 98.21044, 5e-5},
		{FieldRAAN, 195.127, 5e-5},
		{FieldEccentricity, 0.00016794, 5e-8},
		{FieldArgPerigee, 14.7699, 5e-5},
		{FieldMeanAnomaly, 345.3549, 5e-5},
		{FieldMeanMotion, 14.59544429, 5e-9},
		{FieldRevolutionNumber, 1234, 0},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			r := NewRecord()
			require.NoError(t, r.SetValue(tt.field, tt.v))
			v, ok := r.Value(tt.field)
			require.True(t, ok)
			assert.InDelta(t, tt.v, v, tt.tol)

			back := NewRecord()
			require.NoError(t, back.SetText(tt.field, r.Text(tt.field)))
			got, _ := back.Value(tt.field)
			assert.Equal(t, v, got)
		})
	}
}

func TestRecord_SetValueRejects(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		v     float64
	}{
		{"catalog zero", FieldCatalogNumber, 0},
		{"catalog too large", FieldCatalogNumber, 100000},
		{"catalog fraction", FieldCatalogNumber, 1.5},
		{"launch year", FieldLaunchYear, 100},
		{"epoch day", FieldEpochDay, 367},
		{"epoch day rounds up", FieldEpochDay, 366.999999999},
		{"first derivative", FieldMeanMotionDot, 1},
		{"first derivative rounds up", FieldMeanMotionDot, -0.999999999},
		{"inclination", FieldInclination, 180.5},
		{"raan", FieldRAAN, 360},
		{"eccentricity", FieldEccentricity, 1},
		{"negative eccentricity", FieldEccentricity, -0.1},
		{"mean motion zero", FieldMeanMotion, 0},
		{"mean motion", FieldMeanMotion, 100},
		{"nan", FieldInclination, math.NaN()},
		{"inf", FieldMeanMotion, math.Inf(1)},
		{"text field", FieldName, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord()
			err := r.SetValue(tt.field, tt.v)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
			assert.Equal(t, tt.field.String(), ve.Field)
			assert.False(t, r.IsSet(tt.field), "failed setter must not assign")
		})
	}
}

func TestRecord_SetTextRejects(t *testing.T) {
	tests := []struct {
		field Field
		token string
	}{
		{FieldName, "THIS NAME IS FAR TOO LONG FOR A TLE"},
		{FieldClassification, "X"},
		{FieldClassification, "UU"},
		{FieldLaunchPiece, "ABCD"},
		{FieldLaunchPiece, "1  "},
		{FieldCatalogNumber, "3908A"},
		{FieldCatalogNumber, "00000"},
		{FieldEpochDay, "46"},
		{FieldMeanMotionDDot, "12345"},
		{FieldEccentricity, ".0001223"},
	}
	for _, tt := range tests {
		r := NewRecord()
		err := r.SetText(tt.field, tt.token)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "SetText(%s, %q) = %v", tt.field, tt.token, err)
	}
}

func TestRecord_LastSetterWins(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.SetText(FieldInclination, "98.2104"))
	require.NoError(t, r.SetValue(FieldInclination, 51.6416))
	assert.Equal(t, "051.6416", r.Text(FieldInclination))
	assert.Equal(t, 51.6416, r.Inclination())

	require.NoError(t, r.SetText(FieldInclination, " 97.5"))
	assert.Equal(t, "097.5000", r.Text(FieldInclination))
	assert.Equal(t, 97.5, r.Inclination())
}

func TestRecord_FieldByField(t *testing.T) {
	parsed, err := Parse(block(landsatName, landsatLine1, landsatLine2))
	require.NoError(t, err)

	built := NewRecord()
	for _, f := range Fields() {
		if f.IsText() {
			require.NoError(t, built.SetText(f, parsed.Text(f)))
			continue
		}
		v, ok := parsed.Value(f)
		require.True(t, ok, f.String())
		require.NoError(t, built.SetValue(f, v), f.String())
	}
	assert.True(t, parsed.Equal(built))
	assert.Equal(t, parsed.String(), built.String())
}

func TestRecord_EmptyLines(t *testing.T) {
	name, l1, l2 := NewRecord().Lines()
	assert.Empty(t, name)
	assert.Len(t, l1, 69)
	assert.Len(t, l2, 69)
	assert.Equal(t, byte('1'), l1[0])
	assert.Equal(t, byte('2'), l2[0])
}

func TestParseField(t *testing.T) {
	f, err := ParseField("inclination")
	require.NoError(t, err)
	assert.Equal(t, FieldInclination, f)

	_, err = ParseField("perigee_height")
	assert.Error(t, err)

	for _, f := range Fields() {
		got, err := ParseField(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestRecord_BlankInternationalDesignator(t *testing.T) {
	line1 := withColumn(landsatLine1, 9, "        ")
	r, err := Parse(block(landsatName, line1, landsatLine2))
	require.NoError(t, err)

	for _, f := range []Field{FieldLaunchYear, FieldLaunchNumber, FieldLaunchPiece} {
		assert.True(t, r.IsSet(f), "%s should be set", f)
		assert.Equal(t, strings.Repeat(" ", descriptors[f].width()), r.Text(f), f.String())
		_, ok := r.Value(f)
		assert.False(t, ok, "%s has no numeric value when blank", f)
	}

	_, l1, _ := r.Lines()
	assert.Equal(t, "        ", l1[9:17])

	back, err := Parse(r.String(), WithChecksumVerification())
	require.NoError(t, err)
	assert.True(t, r.Equal(back))

	// A blank designator differs from launch 00-000.
	zero, err := Parse(block(landsatName, withColumn(landsatLine1, 9, "00000A  "), landsatLine2))
	require.NoError(t, err)
	assert.False(t, r.Equal(zero))
}

func TestRecord_SpaceSignedExponent(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.SetText(FieldBStar, " 10818 4"))
	assert.True(t, scalar.EqualWithinRel(1081.8, r.BStar(), 1e-15), "got %g", r.BStar())

	back := NewRecord()
	require.NoError(t, back.SetText(FieldBStar, r.Text(FieldBStar)))
	assert.Equal(t, r.BStar(), back.BStar())

	line1 := withColumn(landsatLine1, 59, " ")
	parsed, err := Parse(block(landsatName, line1, landsatLine2))
	require.NoError(t, err)
	assert.True(t, scalar.EqualWithinRel(0.10818e4, parsed.BStar(), 1e-15))

	var ve *ValidationError
	assert.True(t, errors.As(NewRecord().SetText(FieldBStar, "10818*4"), &ve))
}
