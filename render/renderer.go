package render

import (
	"context"
	"image"
	"math"
	"runtime"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/echoflaresat/globeview/catalog"
	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/earth"
	"github.com/echoflaresat/globeview/vectors"
)

// Renderer ray traces a Scene into an image. It is safe for use by one frame
// loop at a time; rows are rendered in parallel.
type Renderer struct {
	// Workers bounds the number of rows traced at once. Zero means GOMAXPROCS.
	Workers int
	// Supersample is the number of rays per pixel along each axis.
	Supersample int

	mu sync.Mutex
	bg scaledBackground
}

type scaledBackground struct {
	src  image.Image
	w, h int
	img  *image.NRGBA
}

// NewRenderer returns a renderer using up to workers goroutines.
func NewRenderer(workers, supersample int) *Renderer {
	return &Renderer{Workers: workers, Supersample: supersample}
}

// GenerateSupersamplingOffsets returns n×n offsets in [-0.5, +0.5] for
// supersampling, as pairs (dx, dy) with pixel-center spacing.
func GenerateSupersamplingOffsets(n int) [][2]float64 {
	if n <= 0 {
		return nil
	}
	step := 1.0 / float64(n)
	out := make([][2]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx := (float64(i)+0.5)*step - 0.5
			dy := (float64(j)+0.5)*step - 0.5
			out = append(out, [2]float64{dx, dy})
		}
	}
	return out
}

// Render traces one width×height frame. It returns ctx's error if the
// context is cancelled before all rows are done.
func (r *Renderer) Render(ctx context.Context, s *Scene, cam *Camera, width, height int) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img, nil
	}
	bg := r.background(s, width, height)

	offsets := GenerateSupersamplingOffsets(max(1, r.Supersample))
	n := float64(len(offsets))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < height; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < width; x++ {
				base := colors.Black()
				if bg != nil {
					base = colors.FromStandardColor(bg.NRGBAAt(x, y))
				}
				acc := colors.Color4{}
				for _, off := range offsets {
					ndc := vectors.NDC(float64(x)+0.5+off[0], float64(y)+0.5+off[1], width, height)
					origin, dir := cam.Ray(ndc)
					acc = acc.Add(s.Trace(origin, dir, base))
				}
				img.SetNRGBA(x, y, acc.Scale(1.0/n).WithAlpha(1).ToNRGBA())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// background returns the scene background scaled to the frame, reusing the
// last scaled copy while the source and size are unchanged.
func (r *Renderer) background(s *Scene, width, height int) *image.NRGBA {
	if s.Background == nil || s.Background.Image() == nil {
		return nil
	}
	src := s.Background.Image()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bg.img != nil && r.bg.src == src && r.bg.w == width && r.bg.h == height {
		return r.bg.img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	r.bg = scaledBackground{src: src, w: width, h: height, img: dst}
	return dst
}

type hitKind int

const (
	hitNone hitKind = iota
	hitEarth
	hitMoon
	hitMarker
)

type hit struct {
	kind   hitKind
	t      float64
	marker *catalog.Marker
}

// Trace returns the colour seen along the ray O + t*D, with base showing
// where nothing is hit.
func (s *Scene) Trace(O, D vectors.Vec3, base colors.Color4) colors.Color4 {
	h := s.nearest(O, D)

	c := base
	if h.kind != hitNone {
		c = s.shade(O, D, h)
	}
	return s.overlayClouds(O, D, h, c)
}

// nearest finds the closest opaque hit: the globe, the Moon or a marker.
func (s *Scene) nearest(O, D vectors.Vec3) hit {
	best := hit{t: math.Inf(1)}

	if t, ok := firstHit(O, D, vectors.Zero(), earth.Radius); ok && t < best.t {
		best = hit{kind: hitEarth, t: t}
	}
	if s.MoonVisible {
		if t, ok := firstHit(O, D, s.MoonCenter(), earth.MoonRadius); ok && t < best.t {
			best = hit{kind: hitMoon, t: t}
		}
	}
	if m, t, ok := s.pickMarker(O, D); ok && t < best.t {
		best = hit{kind: hitMarker, t: t, marker: m}
	}
	return best
}

// pickMarker returns the marker nearest to O along D.
func (s *Scene) pickMarker(O, D vectors.Vec3) (*catalog.Marker, float64, bool) {
	if len(s.Markers) == 0 {
		return nil, 0, false
	}
	// every marker lies inside this shell; skip the list for rays that miss it
	shell := s.shell
	if shell == 0 {
		shell = shellRadius(s.Markers)
	}
	if _, ok := firstHit(O, D, vectors.Zero(), shell); !ok {
		return nil, 0, false
	}

	var (
		best  *catalog.Marker
		bestT = math.Inf(1)
	)
	for _, m := range s.Markers {
		if t, ok := firstHit(O, D, s.MarkerPosition(m), catalog.MarkerRadius); ok && t < bestT {
			best, bestT = m, t
		}
	}
	return best, bestT, best != nil
}

func shellRadius(markers []*catalog.Marker) float64 {
	r := 0.0
	for _, m := range markers {
		r = math.Max(r, m.Position.Norm())
	}
	return r + catalog.MarkerRadius
}

func (s *Scene) shade(O, D vectors.Vec3, h hit) colors.Color4 {
	P := O.Add(D.Scale(h.t))
	view := D.Scale(-1)

	switch h.kind {
	case hitMarker:
		// markers are unlit
		return h.marker.Color.WithAlpha(1)

	case hitMoon:
		rel := P.Sub(s.MoonCenter())
		local := rel.RotateY(-s.MoonPivotRotation)
		albedo := s.Moon.Map.Sample(local)
		return Phong(s, s.Moon, surface{
			normal:       s.Moon.normalAt(local).RotateY(s.MoonPivotRotation),
			view:         view,
			albedo:       albedo.WithAlpha(1),
			specularMask: 1,
		})

	default:
		local := P.RotateY(-s.EarthRotation)
		albedo := s.Earth.Map.Sample(local)
		mask := WaterFactor(albedo)
		if s.Earth.SpecularMap != nil {
			mask = s.Earth.SpecularMap.Sample(local).Luminance()
		}
		return Phong(s, s.Earth, surface{
			normal:       s.Earth.normalAt(local).RotateY(s.EarthRotation),
			view:         view,
			albedo:       albedo.WithAlpha(1),
			specularMask: mask,
		})
	}
}

// overlayClouds blends both faces of the cloud shell that lie in front of
// the opaque hit, far face first.
func (s *Scene) overlayClouds(O, D vectors.Vec3, h hit, c colors.Color4) colors.Color4 {
	t0, t1, ok := intersectSphere(O, D, vectors.Zero(), earth.CloudRadius)
	if !ok {
		return c
	}
	limit := math.Inf(1)
	if h.kind != hitNone {
		limit = h.t
	}
	for _, face := range []struct {
		t    float64
		back bool
	}{{t1, true}, {t0, false}} {
		if face.t <= 0 || face.t >= limit {
			continue
		}
		P := O.Add(D.Scale(face.t))
		texel := s.Clouds.Map.Sample(P.RotateY(-s.CloudRotation))
		alpha := CloudAlpha(texel)
		if alpha <= 0 {
			continue
		}
		normal := P.Normalize()
		if face.back {
			normal = normal.Scale(-1)
		}
		lit := Phong(s, s.Clouds, surface{normal: normal, view: D.Scale(-1), albedo: texel})
		c = c.Mix(lit.WithAlpha(1), alpha)
	}
	return c
}

// intersectSphere solves |O + t*D - C|² = r² for a unit D and returns both
// roots in increasing order.
func intersectSphere(O, D, C vectors.Vec3, r float64) (t0, t1 float64, ok bool) {
	oc := O.Sub(C)
	// b = 2*OC·D, c = OC·OC - r^2, solve t^2 + b t + c = 0
	b := 2.0 * oc.Dot(D)
	c := oc.Dot(oc) - r*r

	discriminant := b*b - 4.0*c
	if discriminant < 0 {
		return 0, 0, false
	}
	sqrtDisc := math.Sqrt(discriminant)
	return (-b - sqrtDisc) / 2.0, (-b + sqrtDisc) / 2.0, true
}

// firstHit returns the closest positive t where the ray meets the sphere.
func firstHit(O, D, C vectors.Vec3, r float64) (float64, bool) {
	t0, t1, ok := intersectSphere(O, D, C, r)
	if !ok {
		return 0, false
	}
	if t0 > 0 {
		return t0, true
	}
	if t1 > 0 {
		return t1, true
	}
	return 0, false
}
