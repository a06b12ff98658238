package render

import (
	"github.com/echoflaresat/globeview/catalog"
	"github.com/echoflaresat/globeview/vectors"
)

// Picker finds markers under a screen point. Only markers are tested; the
// globe itself does not block a pick.
type Picker struct {
	Scene  *Scene
	Camera *Camera
}

// Pick returns the marker nearest to the camera along the ray through ndc.
func (p Picker) Pick(ndc vectors.Vec2) (*catalog.Marker, bool) {
	origin, dir := p.Camera.Ray(ndc)
	m, _, ok := p.Scene.pickMarker(origin, dir)
	return m, ok
}
