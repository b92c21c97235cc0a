package tle

import "time"

// ElementSet is the classical orbital state consumed by the propagator.
// It is a value type; build one directly or take it from Record.Elements.
type ElementSet struct {
	Epoch           time.Time `json:"epoch"`             // UTC
	ArgPerigee      float64   `json:"arg_perigee"`       // ω₀, degrees
	Inclination     float64   `json:"inclination"`       // i, degrees
	RAAN            float64   `json:"raan"`              // Ω₀, degrees
	Eccentricity    float64   `json:"eccentricity"`      // 0 ≤ e < 1
	MeanAnomaly     float64   `json:"mean_anomaly"`      // M₀, degrees
	MeanMotion      float64   `json:"mean_motion"`       // M₁, rev/day
	MeanMotionDrift float64   `json:"mean_motion_drift"` // M₂, rev/day²
}
