package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	// (b/a)², with b the polar radius.
	wgs84AxisRatio2 = (1 - wgs84F) * (1 - wgs84F)
)

// Geocentric returns the spherical latitude and longitude of an Earth-fixed
// position in degrees. Latitude is asin(Z/|R|) in [-90, 90], longitude is
// atan2(Y, X) in (-180, 180]. A zero vector has no direction; NaN is returned
// for the latitude and the caller is expected to reject it.
func Geocentric(r Vector3) (latDeg, lonDeg float64) {
	n := r.Norm()
	if n == 0 {
		return math.NaN(), 0
	}
	latDeg = math.Asin(r.Z/n) * 180.0 / math.Pi
	lonDeg = math.Atan2(r.Y, r.X) * 180.0 / math.Pi
	return latDeg, lonDeg
}

// GeodeticLatitude converts a geocentric latitude to geodetic latitude on
// the WGS-84 ellipsoid, both in degrees: φd = atan2(tan φc, (b/a)²).
func GeodeticLatitude(geocentricDeg float64) float64 {
	s, c := sincosDeg(geocentricDeg)
	return math.Atan2(s, c*wgs84AxisRatio2) * 180.0 / math.Pi
}

// GeodeticPoint holds a geodetic position (latitude/longitude in degrees,
// altitude in kilometres above the ellipsoid).
type GeodeticPoint struct {
	LatDeg, LonDeg, AltKm float64
}

// ECEFToGeodetic converts an Earth-fixed position in kilometres to geodetic
// coordinates using the iterative Bowring method. Converges in 2-3
// iterations for Earth orbits.
func ECEFToGeodetic(r Vector3) GeodeticPoint {
	x, y, z := r.X*1000, r.Y*1000, r.Z*1000
	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat, cosLat := math.Sincos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt / 1000.0,
	}
}
