package earth

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/echoflaresat/globeview/vectors"
)

// Scene dimensions, in scene units.
const (
	Radius      = 15.0
	CloudRadius = 15.1
	MoonRadius  = 4.08
	MoonOrbit   = 20.0
)

// SunDirection returns the unit vector from the Earth's centre towards the Sun
// at time t, in the globe's unrotated scene frame (Y towards the north pole,
// +X through the prime meridian, -Z through 90°E).
func SunDirection(t time.Time) vectors.Vec3 {
	e := SunDirectionECEF(t)
	return vectors.Vec3{X: e.X, Y: e.Z, Z: -e.Y}
}

// SunDirectionECEF returns the Sun direction in Earth-centred, Earth-fixed
// coordinates (Z north, X through the prime meridian).
func SunDirectionECEF(t time.Time) vectors.Vec3 {
	t = t.UTC()
	jd := julian.TimeToJD(t)

	// Step 1: Apparent RA/Dec of the Sun (in radians)
	ra, dec := solar.ApparentEquatorial(jd)

	// Step 2: Unit vector in ECI (Earth-centered inertial)
	x := dec.Cos() * ra.Cos()
	y := dec.Cos() * ra.Sin()
	z := dec.Sin()

	// Step 3: Rotate ECI → ECEF using apparent sidereal time at t
	gmst := sidereal.Apparent(jd)
	cosGMST := gmst.Angle().Cos()
	sinGMST := gmst.Angle().Sin()

	xe := x*cosGMST + y*sinGMST
	ye := -x*sinGMST + y*cosGMST
	ze := z

	return vectors.Vec3{X: xe, Y: ye, Z: ze}
}
