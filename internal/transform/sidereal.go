package transform

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/sidereal"
)

// SiderealModel selects the formulation used for Greenwich sidereal time.
type SiderealModel string

const (
	// SiderealCurtis is the polynomial in Julian centuries at 0h UT plus the
	// intraday rotation, as given by Curtis, "Orbital Mechanics for
	// Engineering Students". This is the default.
	SiderealCurtis SiderealModel = "curtis"
	// SiderealIAU82 is the IAU-82 GMST model (Vallado Eq 3-47).
	SiderealIAU82 SiderealModel = "iau82"
	// SiderealMeeus is apparent sidereal time (mean plus equation of the
	// equinoxes) from Meeus, "Astronomical Algorithms", ch. 12.
	SiderealMeeus SiderealModel = "meeus"
)

// ParseSiderealModel maps a configuration string to a SiderealModel.
// The empty string selects SiderealCurtis.
func ParseSiderealModel(s string) (SiderealModel, error) {
	switch m := SiderealModel(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SiderealCurtis, nil
	case SiderealCurtis, SiderealIAU82, SiderealMeeus:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sidereal model %q", s)
	}
}

// Degrees returns the Greenwich sidereal time at t in degrees, [0, 360),
// using the receiver's formulation.
func (m SiderealModel) Degrees(t time.Time) float64 {
	switch m {
	case SiderealIAU82:
		return NormalizeDegrees(GMST(t) * 180.0 / math.Pi)
	case SiderealMeeus:
		// unit.Time is seconds of time; 86400 s of rotation = 360 degrees.
		return NormalizeDegrees(float64(sidereal.Apparent(JulianDate(t))) / 240.0)
	default:
		return SiderealTime(t)
	}
}

// NormalizeDegrees reduces x into [0, 360).
func NormalizeDegrees(x float64) float64 {
	x -= 360.0 * math.Floor(x/360.0)
	if x < 0 {
		x += 360.0
	}
	// Floating point can round x/360 just below an integer.
	if x >= 360.0 {
		x -= 360.0
	}
	return x
}

// SiderealTime returns the Greenwich sidereal time in degrees, [0, 360), at
// the UTC instant t.
//
//	T0   = (J0 - 2451545) / 36525                     J0 at 0h UT
//	θG0  = 100.4606184 + 36000.77004 T0 + 0.000387933 T0² - 2.58310e-8 T0³
//	θG   = θG0 + 360.98564724 UT/24
func SiderealTime(t time.Time) float64 {
	t = t.UTC()
	j0 := JulianDay(t.Year(), int(t.Month()), t.Day(), 0, 0, 0)
	t0 := JulianCenturies(j0)

	thetaG0 := 100.4606184 +
		36000.77004*t0 +
		0.000387933*t0*t0 -
		2.58310e-8*t0*t0*t0
	thetaG0 = NormalizeDegrees(thetaG0)

	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	ut := float64(t.Hour()) + float64(t.Minute())/60.0 + sec/3600.0

	return NormalizeDegrees(thetaG0 + 360.98564724*ut/24.0)
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC time.
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST(t time.Time) float64 {
	tUT1 := JulianCenturies(JulianDate(t))

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
