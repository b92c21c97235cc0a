package transform

import "math"

// ObserverPosition is a ground station. The Earth-fixed position is
// precomputed once so it can be reused across many satellite lookups.
type ObserverPosition struct {
	LatRad, LonRad float64 // geodetic
	AltKm          float64 // above the WGS-84 ellipsoid
	ECEF           Vector3 // kilometres
}

// LookAngles holds azimuth, elevation, and range from observer to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// NewObserverPosition creates an ObserverPosition from geodetic latitude and
// longitude in degrees and altitude in kilometres.
func NewObserverPosition(latDeg, lonDeg, altKm float64) ObserverPosition {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// Radius of curvature in the prime vertical, km.
	N := wgs84A / 1000.0 / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverPosition{
		LatRad: lat,
		LonRad: lon,
		AltKm:  altKm,
		ECEF: Vector3{
			X: (N + altKm) * cosLat * cosLon,
			Y: (N + altKm) * cosLat * sinLon,
			Z: (N*(1-wgs84E2) + altKm) * sinLat,
		},
	}
}

// ECEFToLookAngles computes azimuth, elevation, and range from an observer
// to a satellite at the Earth-fixed position sat (km).
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
func ECEFToLookAngles(obs ObserverPosition, sat Vector3) LookAngles {
	rho := sat.Sub(obs.ECEF)

	sinLat, cosLat := math.Sincos(obs.LatRad)
	sinLon, cosLon := math.Sincos(obs.LonRad)

	south := sinLat*cosLon*rho.X + sinLat*sinLon*rho.Y - cosLat*rho.Z
	east := -sinLon*rho.X + cosLon*rho.Y
	zenith := cosLat*cosLon*rho.X + cosLat*sinLon*rho.Y + sinLat*rho.Z

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)
	if rangeKm == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	el := math.Asin(zenith / rangeKm)

	// North is -South in SEZ.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}
