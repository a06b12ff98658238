package panel

import "github.com/echoflaresat/globeview/colors"

// Params are the values the debug panel edits.
type Params struct {
	RotationSpeed     float64
	RotationSpeedMoon float64
	AmbientLightColor colors.Color4
	DirectionalLightX float64
	DirectionalLightY float64
	DirectionalLightZ float64
	Animation         bool
	Moon              bool
	// EarthMap indexes the configured colour maps. It only gets a control
	// when there is more than one map.
	EarthMap float64
}

// DefaultParams are the start-up values of the viewer.
func DefaultParams() Params {
	return Params{
		RotationSpeed:     0.001,
		RotationSpeedMoon: 0.01,
		AmbientLightColor: colors.FromHex(0x3f3f3f),
		DirectionalLightX: 200,
		DirectionalLightY: 10,
		DirectionalLightZ: 100,
		Animation:         true,
		Moon:              true,
	}
}

// Bind builds the standard panel over p. Callers attach OnChange hooks to
// the returned controllers as needed, looking them up with Lookup.
func Bind(p *Params) *Panel {
	pn := New()
	pn.Number("rotationSpeed", &p.RotationSpeed, 0, 0.01, 0.0001).Name("Rotation speed Earth")
	pn.Number("rotationSpeedMoon", &p.RotationSpeedMoon, 0, 0.08, 0.001).Name("Rotation speed Moon")
	pn.Color("ambientLightColor", &p.AmbientLightColor).Name("Ambient color")
	pn.Number("directionalLightX", &p.DirectionalLightX, -200, 200, 0).Name("Light X")
	pn.Number("directionalLightY", &p.DirectionalLightY, -200, 200, 0).Name("Light Y")
	pn.Number("directionalLightZ", &p.DirectionalLightZ, -200, 200, 0).Name("Light Z")
	pn.Bool("animation", &p.Animation).Name("Animation")
	pn.Bool("moon", &p.Moon).Name("Show moon")
	return pn
}

// Lookup returns the controller registered under name.
func (p *Panel) Lookup(name string) (*Controller, bool) {
	c, ok := p.byName[name]
	return c, ok
}
