package domain

import (
	"math"
	"time"
)

// WGS-84 ellipsoid constants, kilometers.
const (
	equatorialRadiusKm = 6378.137
	flattening         = 1.0 / 298.257223563
	polarRadiusKm      = equatorialRadiusKm * (1 - flattening)
)

// Speed returns the magnitude of a velocity vector: sqrt(vx² + vy² + vz²).
// Units follow the input (km/s for feed records).
func Speed(v Vector3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Geodetic converts an inertial-frame position at the given instant into
// WGS-84 geodetic coordinates. The inertial vector is rotated into the
// Earth-fixed frame using Greenwich Mean Sidereal Time, then converted to
// latitude/longitude/altitude with Bowring's closed-form method.
//
// The GMST rotation ignores polar motion and nutation, which shift the
// sub-satellite point by well under the 0.5 degree tolerance the reverse
// geocoder needs.
func Geodetic(pos Vector3, at time.Time) GeodeticPoint {
	theta := gmst(at)
	sinT, cosT := math.Sin(theta), math.Cos(theta)

	// Rotate about the z-axis: inertial -> Earth-fixed.
	ex := pos.X*cosT + pos.Y*sinT
	ey := -pos.X*sinT + pos.Y*cosT
	ez := pos.Z

	lat, alt := bowring(ex, ey, ez)
	lon := normalizeLongitude(math.Atan2(ey, ex) * 180 / math.Pi)

	return GeodeticPoint{
		Latitude:  lat * 180 / math.Pi,
		Longitude: lon,
		Altitude:  alt,
	}
}

// gmst returns Greenwich Mean Sidereal Time in radians for the given UTC
// instant, using the IAU 1982 polynomial.
func gmst(at time.Time) float64 {
	jd := julianDate(at.UTC())
	d := jd - 2451545.0 // days since J2000.0
	t := d / 36525.0    // Julian centuries

	deg := 280.46061837 + 360.98564736629*d + 0.000387933*t*t - t*t*t/38710000.0
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg * math.Pi / 180
}

func julianDate(t time.Time) float64 {
	// Unix epoch 1970-01-01T00:00:00Z is JD 2440587.5.
	return float64(t.UnixNano())/1e9/86400.0 + 2440587.5
}

// bowring converts Earth-fixed Cartesian coordinates (km) to geodetic
// latitude (radians) and altitude above the ellipsoid (km).
func bowring(x, y, z float64) (lat, alt float64) {
	a, b := equatorialRadiusKm, polarRadiusKm
	e2 := flattening * (2 - flattening) // first eccentricity squared
	ep2 := (a*a - b*b) / (b * b)        // second eccentricity squared

	p := math.Hypot(x, y)
	if p < 1e-9 {
		// On the polar axis the longitude is undefined and the closed form
		// degenerates; altitude is distance along the axis above the pole.
		lat = math.Copysign(math.Pi/2, z)
		return lat, math.Abs(z) - b
	}

	beta := math.Atan2(z*a, p*b)
	sinB, cosB := math.Sin(beta), math.Cos(beta)
	lat = math.Atan2(z+ep2*b*sinB*sinB*sinB, p-e2*a*cosB*cosB*cosB)

	sinLat := math.Sin(lat)
	n := a / math.Sqrt(1-e2*sinLat*sinLat) // prime vertical radius
	alt = p/math.Cos(lat) - n
	return lat, alt
}

// normalizeLongitude wraps degrees into (-180, 180].
func normalizeLongitude(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
