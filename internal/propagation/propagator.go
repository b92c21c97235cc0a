package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kreyysyy/orbit/internal/metrics"
	"github.com/kreyysyy/orbit/internal/rootfind"
	"github.com/kreyysyy/orbit/internal/tle"
	"github.com/kreyysyy/orbit/internal/transform"
)

const (
	// EarthRadius is the equatorial radius in km.
	EarthRadius = 6378.137
	// GM is Earth's gravitational parameter in km³/day².
	GM = 2.975537e15

	// Secular perigee and node drift coefficient, degrees per day at a = r.
	oblatenessRate = 180 * 0.174 / math.Pi
)

// Propagator turns a classical element set into a sub-satellite point with
// a closed-form two-body solution plus secular node and perigee drift.
// It is read-only after construction and safe for concurrent use.
type Propagator struct {
	config Config
	opts   rootfind.Options
	logger *slog.Logger
}

// NewPropagator creates a Propagator. Zero config fields take their defaults
// and a nil logger discards output.
func NewPropagator(config Config, logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	config = config.withDefaults()
	return &Propagator{
		config: config,
		opts: rootfind.Options{
			Tolerance:     config.Tolerance,
			MaxIterations: config.MaxIterations,
		},
		logger: logger,
	}
}

// Config returns the effective configuration.
func (p *Propagator) Config() Config {
	return p.config
}

// Propagate returns the geocentric latitude and longitude of the satellite
// at t.
func (p *Propagator) Propagate(el tle.ElementSet, t time.Time) (GeodeticPosition, error) {
	sol, err := p.Solve(el, t)
	if err != nil {
		return GeodeticPosition{}, err
	}
	return sol.Geocentric, nil
}

// Solve propagates el to t and returns every intermediate quantity.
// Elements with e outside [0, 1) or a non-positive current mean motion fail
// with *DomainError; a Kepler solve that does not converge fails with an
// error wrapping *rootfind.ConvergenceError.
func (p *Propagator) Solve(el tle.ElementSet, t time.Time) (*Solution, error) {
	start := time.Now()
	sol, err := p.solve(el, t)

	result := metrics.ResultOK
	var (
		de *DomainError
		ce *rootfind.ConvergenceError
	)
	switch {
	case errors.As(err, &de):
		result = metrics.ResultDomainError
	case errors.As(err, &ce):
		result = metrics.ResultConvergenceError
	case err != nil:
		result = metrics.ResultError
	}
	iterations := 0
	if sol != nil {
		iterations = sol.KeplerIterations
	}
	metrics.RecordPropagation(result, time.Since(start), iterations)

	if err != nil {
		return nil, err
	}
	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("propagated",
			"target_time", t.UTC().Format(time.RFC3339Nano),
			"dt_days", sol.Elapsed,
			"mean_motion", sol.MeanMotion,
			"semi_major_axis_km", sol.SemiMajorAxis,
			"mean_anomaly", sol.MeanAnomaly,
			"eccentric_anomaly", sol.EccentricAnomaly,
			"kepler_iterations", sol.KeplerIterations,
			"u_km", sol.U,
			"v_km", sol.V,
			"arg_perigee", sol.ArgPerigee,
			"raan", sol.RAAN,
			"sidereal", sol.Sidereal,
			"lat", sol.Geocentric.Latitude,
			"lon", sol.Geocentric.Longitude,
		)
	}
	return sol, nil
}

func (p *Propagator) solve(el tle.ElementSet, t time.Time) (*Solution, error) {
	e := el.Eccentricity
	if math.IsNaN(e) || e < 0 || e >= 1 {
		return nil, &DomainError{Quantity: "eccentricity", Value: e}
	}

	sol := &Solution{}

	// 1–2. Elapsed days and current mean motion.
	dt := t.Sub(el.Epoch).Seconds() / 86400
	sol.Elapsed = dt
	mm := el.MeanMotion + el.MeanMotionDrift*dt
	if math.IsNaN(mm) || mm <= 0 {
		return nil, &DomainError{Quantity: "mean motion", Value: mm}
	}
	sol.MeanMotion = mm

	// 3. Kepler's third law.
	a := math.Cbrt(GM / (4 * math.Pi * math.Pi * mm * mm))
	sol.SemiMajorAxis = a

	// 4. Mean anomaly, keeping only the fraction of the current revolution.
	// Truncation is toward zero, so M is negative before the epoch.
	rev := el.MeanAnomaly/360 + el.MeanMotion*dt + 0.5*el.MeanMotionDrift*dt*dt
	sol.MeanAnomaly = (rev - math.Trunc(rev)) * 360

	// 5. Eccentric anomaly.
	kep, err := SolveKepler(sol.MeanAnomaly, e, p.opts)
	if err != nil {
		return nil, fmt.Errorf("solving Kepler's equation (M=%g, e=%g): %w", sol.MeanAnomaly, e, err)
	}
	sol.EccentricAnomaly = kep.Root
	sol.KeplerIterations = kep.Iterations

	// 6. Orbital-plane coordinates, perigee along +U.
	sinE, cosE := math.Sincos(kep.Root * deg)
	sol.U = a*cosE - a*e
	sol.V = a * math.Sqrt(1-e*e) * sinE

	// 7. Secular drift of perigee and node.
	scale := math.Pow(a/EarthRadius, 3.5)
	sinI, cosI := math.Sincos(el.Inclination * deg)
	sol.ArgPerigee = el.ArgPerigee + oblatenessRate*(2-2.5*sinI*sinI)/scale*dt
	sol.RAAN = el.RAAN - oblatenessRate*cosI/scale*dt

	// 8–10. Orbital plane → inertial → Earth-fixed.
	sol.Inertial = transform.OrbitalToInertial(sol.U, sol.V, sol.RAAN, el.Inclination, sol.ArgPerigee)
	sol.Sidereal = p.config.Sidereal.Degrees(t)
	sol.EarthFixed = transform.InertialToEarthFixed(sol.Inertial, sol.Sidereal)

	// 11–12. Latitude and longitude.
	lat, lon := transform.Geocentric(sol.EarthFixed)
	sol.Geocentric = GeodeticPosition{Latitude: lat, Longitude: lon}
	sol.Geodetic = GeodeticPosition{Latitude: transform.GeodeticLatitude(lat), Longitude: lon}

	return sol, nil
}
