package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/echoflaresat/globeview/vectors"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got vectors.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestProjectPoles(t *testing.T) {
	for lon := -180.0; lon <= 180; lon += 15 {
		assert.Equal(t, vectors.Vec3{X: 0, Y: 15, Z: 0}, absZero(Project(90, lon, 15)), "north lon=%v", lon)
		assert.Equal(t, vectors.Vec3{X: 0, Y: -15, Z: 0}, absZero(Project(-90, lon, 15)), "south lon=%v", lon)
	}
}

// absZero turns -0 into +0 so exact comparisons do not trip on signed zeros.
func absZero(v vectors.Vec3) vectors.Vec3 {
	return vectors.Vec3{X: v.X + 0, Y: v.Y + 0, Z: v.Z + 0}
}

func TestProjectOnSphere(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for lon := -180.0; lon <= 180; lon += 11.25 {
			p := Project(lat, lon, 15)
			assert.InDelta(t, 15, p.Norm(), eps, "lat=%v lon=%v", lat, lon)
		}
	}
}

func TestProjectLandmarks(t *testing.T) {
	// Prime meridian on the equator sits in the middle of the texture, on +X.
	assertVec(t, vectors.Vec3{X: 1}, Project(0, 0, 1))
	// The texture seam (lon ±180) is on -X.
	assertVec(t, vectors.Vec3{X: -1}, Project(0, 180, 1))
	assertVec(t, vectors.Vec3{X: -1}, Project(0, -180, 1))
	// 90°E is a quarter turn towards -Z.
	assertVec(t, vectors.Vec3{Z: -1}, Project(0, 90, 1))
	assertVec(t, vectors.Vec3{Z: 1}, Project(0, -90, 1))
}

func TestProjectOutOfRange(t *testing.T) {
	assertVec(t, Project(90, 0, 2), Project(120, 0, 2))
	assertVec(t, Project(-90, 0, 2), Project(-400, 0, 2))
	assertVec(t, Project(10, -170, 2), Project(10, 190, 2))
	assertVec(t, Project(10, 20, 2), Project(10, 20+720, 2))
}

func TestUnprojectInvertsProject(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 10 {
		for lon := -180.0; lon < 180; lon += 12.5 {
			gotLat, gotLon := Unproject(Project(lat, lon, 15))
			assert.InDelta(t, lat, gotLat, 1e-9)
			assert.InDelta(t, lon, gotLon, 1e-9)
		}
	}

	lat, lon := Unproject(vectors.Zero())
	assert.Equal(t, 0.0, lat)
	assert.Equal(t, 0.0, lon)
}

func TestUV(t *testing.T) {
	u, v := UV(Project(0, 0, 3))
	assert.InDelta(t, 0.5, u, eps)
	assert.InDelta(t, 0.5, v, eps)

	u, v = UV(Project(45, -90, 3))
	assert.InDelta(t, 0.25, u, eps)
	assert.InDelta(t, 0.25, v, eps)

	_, v = UV(Project(90, 0, 3))
	assert.InDelta(t, 0, v, eps)
}

func TestWrapLongitude(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		179:  179,
		180:  -180,
		-180: -180,
		190:  -170,
		-190: 170,
		540:  -180,
		725:  5,
	}
	for in, want := range tests {
		assert.InDelta(t, want, WrapLongitude(in), eps, "in=%v", in)
	}
	assert.False(t, math.IsNaN(WrapLongitude(1e9)))
}

func TestProjectNonFiniteAngles(t *testing.T) {
	for _, lon := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		assert.Equal(t, 0.0, WrapLongitude(lon), "lon=%v", lon)
		assertVec(t, Project(30, 0, 15), Project(30, lon, 15))
	}
	assert.Equal(t, 0.0, ClampLatitude(math.NaN()))
	assert.Equal(t, 90.0, ClampLatitude(math.Inf(1)))
	assertVec(t, Project(0, 0, 15), Project(math.NaN(), math.NaN(), 15))
}
