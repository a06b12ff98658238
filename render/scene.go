package render

import (
	"github.com/echoflaresat/globeview/catalog"
	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/earth"
	"github.com/echoflaresat/globeview/panel"
	"github.com/echoflaresat/globeview/texture"
	"github.com/echoflaresat/globeview/vectors"
)

// Material is a Phong surface. A nil SpecularMap derives specular strength
// from the colour map, treating blue-dominant texels as water. NormalMap, if
// set, holds tangent-space normals: red east, green north, blue outwards.
type Material struct {
	Map         texture.Texture
	SpecularMap *texture.Texture
	NormalMap   *texture.Texture
	Specular    colors.Color4
	Shininess   float64
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Position  vectors.Vec3
	Color     colors.Color4
	Intensity float64
}

// Direction is the unit vector from the origin towards the light.
func (l DirectionalLight) Direction() vectors.Vec3 {
	if l.Position.Norm() == 0 {
		return vectors.Vec3{Y: 1}
	}
	return l.Position.Normalize()
}

// Scene is everything the renderer draws. Markers are children of the Earth:
// their catalog positions are in the Earth's local frame and turn with it.
type Scene struct {
	Earth  Material
	Clouds Material
	Moon   Material

	EarthRotation     float64 // radians about +Y
	CloudRotation     float64
	MoonPivotRotation float64
	MoonVisible       bool

	Markers []*catalog.Marker
	shell   float64

	Ambient colors.Color4
	Light   DirectionalLight

	// Background is stretched over the whole frame; nil means black.
	Background *texture.Texture
}

// NewScene returns a scene with the default lighting and materials built
// from the given textures.
func NewScene(earthMap texture.Texture, specular *texture.Texture, clouds, moon texture.Texture) *Scene {
	p := panel.DefaultParams()
	s := &Scene{
		Earth: Material{
			Map:         earthMap,
			SpecularMap: specular,
			Specular:    colors.FromHex(0x555555),
			Shininess:   30,
		},
		Clouds: Material{Map: clouds},
		Moon: Material{
			Map:       moon,
			Specular:  colors.FromHex(0x111111),
			Shininess: 30,
		},
		MoonVisible: p.Moon,
		Light: DirectionalLight{
			Color:     colors.White(),
			Intensity: 1,
		},
	}
	s.ApplyParams(&p)
	return s
}

// ApplyParams copies the panel-controlled lighting and visibility into the
// scene.
func (s *Scene) ApplyParams(p *panel.Params) {
	s.Ambient = p.AmbientLightColor
	s.Light.Position = vectors.Vec3{
		X: p.DirectionalLightX,
		Y: p.DirectionalLightY,
		Z: p.DirectionalLightZ,
	}
	s.MoonVisible = p.Moon
}

// Animate advances the ambient rotation by one frame: the Earth and its
// clouds turn westward by earthStep, the Moon's pivot eastward by moonStep.
func (s *Scene) Animate(earthStep, moonStep float64) {
	s.EarthRotation -= earthStep
	s.CloudRotation -= earthStep
	s.MoonPivotRotation += moonStep
}

// SetMarkers replaces the markers on the globe.
func (s *Scene) SetMarkers(markers []*catalog.Marker) {
	s.Markers = markers
	s.shell = shellRadius(markers)
}

// MarkerPosition returns a marker's position in world space.
func (s *Scene) MarkerPosition(m *catalog.Marker) vectors.Vec3 {
	return m.Position.RotateY(s.EarthRotation)
}

// MoonCenter returns the Moon's centre in world space.
func (s *Scene) MoonCenter() vectors.Vec3 {
	return vectors.Vec3{X: earth.MoonOrbit}.RotateY(s.MoonPivotRotation)
}
