package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// JulianDay returns the continuous Julian Day for a Gregorian calendar instant.
//
// Uses the floor-based polynomial form from Vallado et al., "Revisiting
// Spacetrack Report #3" (AIAA 2006-6753):
//
//	JD = 367y - floor(7(y + floor((m+9)/12))/4) + floor(275m/9) + d + 1721013.5 + ((s/60 + min)/60 + h)/24
//
// The form ignores the century leap-year rule, so it is exact only for
// March 1900 through February 2100. Outside that window the result is well
// defined but not astronomically meaningful; no range check is made.
func JulianDay(y, m, d, h, min int, s float64) float64 {
	yf := float64(y)
	mf := float64(m)
	return 367.0*yf -
		math.Floor(7*(yf+math.Floor((mf+9)/12.0))/4) +
		math.Floor(275*mf/9.0) + float64(d) + 1721013.5 +
		((s/60.0+float64(min))/60.0+float64(h))/24.0
}

// JulianDate converts a time.Time to Julian Date. The time is taken in UTC
// and sub-second precision is kept.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return JulianDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), s)
}

// JulianCenturies returns Julian centuries elapsed since J2000.0 for jd.
func JulianCenturies(jd float64) float64 {
	return (jd - j2000) / 36525.0
}
