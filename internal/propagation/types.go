package propagation

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kreyysyy/orbit/internal/rootfind"
	"github.com/kreyysyy/orbit/internal/transform"
)

// Config holds propagation settings.
type Config struct {
	Workers       int                     // ground-track worker pool size (default: runtime.NumCPU())
	Step          time.Duration           // ground-track sample interval (default: 60s)
	Horizon       time.Duration           // ground-track span (default: 90m)
	MaxIterations int                     // Kepler iteration cap (default: 100)
	Tolerance     float64                 // Kepler residual bound in degrees (default: 1e-10)
	Sidereal      transform.SiderealModel // default: curtis
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		Step:          60 * time.Second,
		Horizon:       90 * time.Minute,
		MaxIterations: rootfind.DefaultMaxIterations,
		Tolerance:     rootfind.DefaultTolerance,
		Sidereal:      transform.SiderealCurtis,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.Horizon <= 0 {
		c.Horizon = d.Horizon
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.Sidereal == "" {
		c.Sidereal = d.Sidereal
	}
	return c
}

// GeodeticPosition is a sub-satellite point in degrees.
type GeodeticPosition struct {
	Latitude  float64 `json:"lat"` // −90..90
	Longitude float64 `json:"lon"` // −180..180
}

// Solution carries every intermediate quantity of one propagation: Δt in
// days, Mm in rev/day, angles in degrees and distances in km. U and V are the
// orbital-plane coordinates with perigee along U. Geodetic holds the WGS-84
// latitude with the same longitude as Geocentric.
type Solution struct {
	Elapsed          float64           `json:"dt_days"`
	MeanMotion       float64           `json:"mean_motion"`
	SemiMajorAxis    float64           `json:"semi_major_axis_km"`
	MeanAnomaly      float64           `json:"mean_anomaly"`
	EccentricAnomaly float64           `json:"eccentric_anomaly"`
	KeplerIterations int               `json:"kepler_iterations"`
	U                float64           `json:"u_km"`
	V                float64           `json:"v_km"`
	ArgPerigee       float64           `json:"arg_perigee"`
	RAAN             float64           `json:"raan"`
	Inertial         transform.Vector3 `json:"inertial_km"`
	Sidereal         float64           `json:"sidereal"`
	EarthFixed       transform.Vector3 `json:"earth_fixed_km"`
	Geocentric       GeodeticPosition  `json:"geocentric"`
	Geodetic         GeodeticPosition  `json:"geodetic"`
}

// DomainError reports orbital elements that have no physical solution.
type DomainError struct {
	Quantity string
	Value    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("propagation: %s = %g is outside its physical domain", e.Quantity, e.Value)
}
