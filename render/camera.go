package render

import (
	"math"

	"github.com/echoflaresat/globeview/vectors"
)

// Camera is a perspective camera looking at Target, steered like an orbit
// control: drags change azimuth and polar angle around Target, the wheel
// changes the distance.
type Camera struct {
	FOVDeg   float64 // vertical field of view
	Aspect   float64 // width / height
	Near     float64
	Far      float64
	Position vectors.Vec3
	Target   vectors.Vec3
	Up       vectors.Vec3

	MinDistance float64
	MaxDistance float64
	// Damping is the fraction of a pending orbit/zoom applied per Update;
	// 1 applies it all at once.
	Damping float64

	pendingAzimuth float64
	pendingPolar   float64
	pendingScale   float64
}

// NewCamera places a camera at position looking at target with +Y up.
func NewCamera(position, target vectors.Vec3, fovDeg, aspect float64) *Camera {
	return &Camera{
		FOVDeg:       fovDeg,
		Aspect:       aspect,
		Near:         1,
		Far:          1000,
		Position:     position,
		Target:       target,
		Up:           vectors.Vec3{Y: 1},
		MinDistance:  0,
		MaxDistance:  math.Inf(1),
		Damping:      1,
		pendingScale: 1,
	}
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 {
	return vectors.Distance(c.Position, c.Target)
}

// SetAspect updates the aspect ratio for a width×height viewport.
func (c *Camera) SetAspect(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float64(width) / float64(height)
	}
}

// Orbit queues a rotation around the target: dAzimuth turns around the up
// axis, dPolar tilts towards (negative) or away from (positive) the pole.
// Radians.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	c.pendingAzimuth += dAzimuth
	c.pendingPolar += dPolar
}

// Zoom queues a change of distance by factor scale (<1 moves closer).
func (c *Camera) Zoom(scale float64) {
	if scale > 0 {
		c.pendingScale *= scale
	}
}

// Update applies queued orbit and zoom input. It is called once per frame.
func (c *Camera) Update() {
	k := c.Damping
	if k <= 0 || k > 1 {
		k = 1
	}

	offset := c.Position.Sub(c.Target)
	radius := offset.Norm()
	if radius == 0 {
		return
	}
	// polar angle from +Y, azimuth around Y measured from +Z towards +X
	polar := math.Acos(clip(offset.Y/radius, -1, 1))
	azimuth := math.Atan2(offset.X, offset.Z)

	dAz := c.pendingAzimuth * k
	dPol := c.pendingPolar * k
	scale := math.Pow(c.pendingScale, k)
	c.pendingAzimuth -= dAz
	c.pendingPolar -= dPol
	c.pendingScale /= scale

	const eps = 1e-6
	azimuth += dAz
	polar = clip(polar+dPol, eps, math.Pi-eps)
	radius = clip(radius*scale, c.MinDistance, c.MaxDistance)

	sinPolar := math.Sin(polar)
	c.Position = c.Target.Add(vectors.Vec3{
		X: radius * sinPolar * math.Sin(azimuth),
		Y: radius * math.Cos(polar),
		Z: radius * sinPolar * math.Cos(azimuth),
	})
}

// basis returns the camera's forward, right and up unit vectors.
func (c *Camera) basis() (fwd, right, up vectors.Vec3) {
	fwd = c.Target.Sub(c.Position).Normalize()
	right = fwd.Cross(c.Up)
	if right.Norm() < 1e-9 {
		right = vectors.Vec3{X: 1} // fallback when looking along Up
	}
	right = right.Normalize()
	up = right.Cross(fwd).Normalize()
	return fwd, right, up
}

// Ray returns the origin and normalized direction of the ray through a point
// in normalized device coordinates.
func (c *Camera) Ray(ndc vectors.Vec2) (origin, dir vectors.Vec3) {
	fwd, right, up := c.basis()
	tanHalf := math.Tan(c.FOVDeg * math.Pi / 360)

	dir = fwd.
		Add(right.Scale(ndc.X * tanHalf * c.Aspect)).
		Add(up.Scale(ndc.Y * tanHalf))
	return c.Position, dir.Normalize()
}

// ComputeRay returns the normalized viewing direction for pixel (i,j) of a
// width×height image. i,j can be fractional (for supersampling).
func (c *Camera) ComputeRay(i, j float64, width, height int) vectors.Vec3 {
	_, dir := c.Ray(vectors.NDC(i+0.5, j+0.5, width, height))
	return dir
}

// Project maps a world point to pixel coordinates in a width×height image.
// ok is false for points behind the camera.
func (c *Camera) Project(p vectors.Vec3, width, height int) (x, y float64, ok bool) {
	fwd, right, up := c.basis()
	rel := p.Sub(c.Position)
	depth := rel.Dot(fwd)
	if depth <= 0 {
		return 0, 0, false
	}
	tanHalf := math.Tan(c.FOVDeg * math.Pi / 360)
	nx := rel.Dot(right) / (depth * tanHalf * c.Aspect)
	ny := rel.Dot(up) / (depth * tanHalf)
	x = (nx + 1) / 2 * float64(width)
	y = (1 - ny) / 2 * float64(height)
	return x, y, true
}
