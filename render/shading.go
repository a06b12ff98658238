package render

import (
	"math"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/vectors"
)

// Smoothstep performs a Hermite interpolation between 0 and 1 across [edge0, edge1].
// Returns 0 if x < edge0, 1 if x > edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0.0
		}
		return 1.0
	}

	t := clip((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3.0 - 2.0*t)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// WaterFactor estimates how much a texel is open water from how strongly blue
// dominates red and green. It stands in for a specular map.
func WaterFactor(c colors.Color4) float64 {
	return clip((c.B-0.5*(c.R+c.G))*10.0, 0.0, 1.0)
}

// terminatorWidth is the span of n·l over which specular highlights fade in.
const terminatorWidth = 0.1

// surface is what the shader needs at a hit point.
type surface struct {
	normal vectors.Vec3 // world space, unit
	view   vectors.Vec3 // from the hit point towards the eye, unit
	albedo colors.Color4
	// specularMask scales Material.Specular; 0 disables highlights.
	specularMask float64
}

// normalAt returns the unit normal at q, a point on a sphere centred on the
// origin in the body's own frame, tilted by the normal map if there is one.
func (m Material) normalAt(q vectors.Vec3) vectors.Vec3 {
	n := q.Normalize()
	if m.NormalMap == nil {
		return n
	}
	east := vectors.Vec3{X: q.Z, Z: -q.X}
	if east.Norm() == 0 {
		return n
	}
	east = east.Normalize()
	north := n.Cross(east)

	texel := m.NormalMap.Sample(q)
	tilted := east.Scale(2*texel.R - 1).
		Add(north.Scale(2*texel.G - 1)).
		Add(n.Scale(2*texel.B - 1)).
		Normalize()
	if tilted.Dot(n) <= 0 {
		return n
	}
	return tilted
}

// Phong lights a surface with the scene's ambient and directional light.
// Alpha is taken from the albedo.
func Phong(s *Scene, m Material, sf surface) colors.Color4 {
	l := s.Light.Direction()
	light := s.Light.Color.ScaleRGB(s.Light.Intensity)

	diffuse := math.Max(0, sf.normal.Dot(l))
	lit := s.Ambient.Add(light.ScaleRGB(diffuse))
	out := sf.albedo.Mul(lit.WithAlpha(1))

	if diffuse <= 0 || m.Shininess <= 0 || sf.specularMask <= 0 {
		return out
	}
	half := sf.view.Add(l).Normalize()
	spec := math.Pow(clip(sf.normal.Dot(half), 0, 1), m.Shininess) * sf.specularMask
	// highlights fade out towards the terminator instead of cutting off
	spec *= Smoothstep(0, terminatorWidth, diffuse)
	return colors.Color4{
		R: out.R + m.Specular.R*light.R*spec,
		G: out.G + m.Specular.G*light.G*spec,
		B: out.B + m.Specular.B*light.B*spec,
		A: out.A,
	}
}

// CloudAlpha is the coverage of a cloud texel. Maps with an alpha channel
// use it; opaque maps infer coverage from brightness.
func CloudAlpha(c colors.Color4) float64 {
	return clip(c.A*(c.R+c.G+c.B)/3.0, 0, 1)
}
