// Package geo converts between geographic coordinates and points on the
// surface of the globe's sphere.
//
// The scene uses a Y-up frame. The globe mesh's equirectangular texture puts
// longitude -180° at u=0, so longitudes are shifted by LongitudeOffsetDeg
// before being turned into an azimuth. The offset is tied to the texture
// asset; a map whose seam sits elsewhere needs a different value.
package geo

import (
	"math"

	"github.com/echoflaresat/globeview/vectors"
)

// LongitudeOffsetDeg aligns longitude 0 with the prime meridian of the
// globe texture.
const LongitudeOffsetDeg = 180.0

const deg = math.Pi / 180.0

// Project returns the point at latitude/longitude (degrees) on a sphere of the
// given radius centred on the origin.
//
// Latitudes outside [-90, 90] are clamped and longitudes are wrapped into
// [-180, 180). Non-finite angles are read as 0. At the poles the result is
// exactly (0, ±radius, 0) whatever the longitude.
func Project(latDeg, lonDeg, radius float64) vectors.Vec3 {
	latDeg = ClampLatitude(latDeg)
	lonDeg = WrapLongitude(lonDeg)

	phi := (90 - latDeg) * deg
	theta := (lonDeg + LongitudeOffsetDeg) * deg

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	switch latDeg {
	case 90:
		sinPhi, cosPhi = 0, 1
	case -90:
		sinPhi, cosPhi = 0, -1
	}

	return vectors.Vec3{
		X: -radius * sinPhi * math.Cos(theta),
		Y: radius * cosPhi,
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// Unproject is the inverse of Project: it returns the latitude and longitude
// (degrees) of the direction p, longitude in [-180, 180). The zero vector maps
// to (0, 0).
func Unproject(p vectors.Vec3) (latDeg, lonDeg float64) {
	r := p.Norm()
	if r == 0 {
		return 0, 0
	}
	y := math.Max(-1, math.Min(1, p.Y/r))
	latDeg = 90 - math.Acos(y)/deg

	// x = -sinφ·cosθ, z = sinφ·sinθ
	theta := math.Atan2(p.Z, -p.X) / deg
	lonDeg = WrapLongitude(theta - LongitudeOffsetDeg)
	return latDeg, lonDeg
}

// UV maps a direction on the sphere to equirectangular texture coordinates in
// [0, 1): u grows eastwards from the -180° meridian, v grows southwards from
// the north pole.
func UV(p vectors.Vec3) (u, v float64) {
	lat, lon := Unproject(p)
	return (lon + 180) / 360, (90 - lat) / 180
}

// ClampLatitude limits lat to [-90, 90]. NaN maps to 0.
func ClampLatitude(lat float64) float64 {
	if math.IsNaN(lat) {
		return 0
	}
	return math.Max(-90, math.Min(90, lat))
}

// WrapLongitude wraps lon into [-180, 180). NaN and ±Inf have no meridian
// and map to 0.
func WrapLongitude(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
