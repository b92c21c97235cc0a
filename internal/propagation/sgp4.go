package propagation

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

// SGP4Propagator runs the same element set through the full SGP4 model of
// github.com/joshuaferrara/go-satellite. It exists to cross-check the
// closed-form propagator and is not used on the request path.
//
// go-satellite calls log.Fatal on malformed input, so it is only ever fed
// lines rendered from a validated tle.Record. Propagate() takes Satellite by
// value so SGP4 error codes are not visible to the caller; failures are
// detected from NaN/Inf output and unreasonable position magnitudes.
type SGP4Propagator struct {
	sat     satellite.Satellite
	catalog int
}

// NewSGP4Propagator initializes SGP4 for rec.
func NewSGP4Propagator(rec *tle.Record) (*SGP4Propagator, error) {
	_, line1, line2 := rec.Lines()
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for catalog number %d: code=%d %s",
			rec.CatalogNumber(), sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, catalog: rec.CatalogNumber()}, nil
}

// Inertial returns the TEME position in km at t (whole seconds).
func (p *SGP4Propagator) Inertial(t time.Time) (transform.Vector3, error) {
	t = t.UTC()
	pos, _ := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.Vector3{}, fmt.Errorf("sgp4 propagation failed for catalog number %d: output is NaN/Inf", p.catalog)
	}

	// Position magnitude should be between ~6200km and ~50000km.
	v := transform.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}
	if mag := v.Norm(); mag < 6200.0 || mag > 50000.0 {
		return transform.Vector3{}, fmt.Errorf("sgp4 propagation failed for catalog number %d: unreasonable position magnitude %.1f km", p.catalog, mag)
	}
	return v, nil
}

// EarthFixed returns the Earth-fixed position in km at t, rotated by
// go-satellite's own Greenwich sidereal angle.
func (p *SGP4Propagator) EarthFixed(t time.Time) (transform.Vector3, error) {
	eci, err := p.Inertial(t)
	if err != nil {
		return transform.Vector3{}, err
	}
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	gmst := satellite.ThetaG_JD(jd)
	ecef := satellite.ECIToECEF(satellite.Vector3{X: eci.X, Y: eci.Y, Z: eci.Z}, gmst)
	return transform.Vector3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}, nil
}

// Propagate returns the geocentric latitude and longitude at t, comparable
// with Propagator.Propagate.
func (p *SGP4Propagator) Propagate(t time.Time) (GeodeticPosition, error) {
	r, err := p.EarthFixed(t)
	if err != nil {
		return GeodeticPosition{}, err
	}
	lat, lon := transform.Geocentric(r)
	return GeodeticPosition{Latitude: lat, Longitude: lon}, nil
}

// AngularSeparation returns the great-circle angle in degrees between two
// sub-satellite points.
func AngularSeparation(a, b GeodeticPosition) float64 {
	s1, c1 := math.Sincos(a.Latitude * deg)
	s2, c2 := math.Sincos(b.Latitude * deg)
	dl := (b.Longitude - a.Longitude) * deg
	cos := s1*s2 + c1*c2*math.Cos(dl)
	return math.Acos(math.Max(-1, math.Min(1, cos))) / deg
}
