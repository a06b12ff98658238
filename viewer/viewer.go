// Package viewer runs the globe: it owns the scene, the camera, the render
// session and the hover machine, and steps them once per frame on a single
// goroutine. Browser input is queued and applied at the start of the next
// frame.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/echoflaresat/globeview/catalog"
	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/earth"
	"github.com/echoflaresat/globeview/hover"
	"github.com/echoflaresat/globeview/observability"
	"github.com/echoflaresat/globeview/panel"
	"github.com/echoflaresat/globeview/render"
	"github.com/echoflaresat/globeview/session"
	"github.com/echoflaresat/globeview/texture"
	"github.com/echoflaresat/globeview/vectors"
)

// ErrNotReady is reported by CheckReadiness until the first frame is out.
var ErrNotReady = errors.New("no frame rendered yet")

const inputQueueSize = 256

// Camera start-up placement.
var (
	CameraPosition = vectors.Vec3{X: 30, Y: 2, Z: 60}
	CameraFOV      = 45.0
)

// EarthFallback colours the globe when its map cannot be loaded.
var EarthFallback = colors.FromHex(0x1f4e8c)

// TextureSource resolves texture paths. texture.Cache is the usual one.
type TextureSource interface {
	Get(path string, fallback colors.Color4) texture.Texture
}

// Frame is one rendered image.
type Frame struct {
	Seq   uint64
	At    time.Time
	Image *image.NRGBA
}

// Sink receives everything the viewer produces. Calls come from the frame
// goroutine and must not block for long.
type Sink interface {
	Frame(f Frame)
	Tooltip(label hover.Label, at vectors.Vec2)
	TooltipHidden()
	// Panel is called after a frame's input changed the panel.
	Panel(controls []panel.Control)
}

// Options configure a Viewer.
type Options struct {
	Width, Height    int
	FrameInterval    time.Duration
	HoverMaxDistance float64
	Workers          int
	Supersample      int
	// DrawTooltip paints the tooltip into the frame instead of leaving it
	// to the client. Used for still images.
	DrawTooltip bool

	// EarthMaps are the colour maps the panel's earthMap control picks
	// from, loaded through Textures. The scene starts on the first one.
	EarthMaps []string
	Textures  TextureSource
}

// Viewer is the frame loop.
type Viewer struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	params   panel.Params
	panel    *panel.Panel
	session  *session.Session
	scene    *render.Scene
	camera   *render.Camera
	renderer *render.Renderer
	hover    *hover.Machine
	tooltip  *tooltip
	sink     Sink

	inputs chan Input
	seq    uint64
	ready  atomic.Bool

	mu       sync.Mutex
	controls []panel.Control
	stats    frameStats
}

// New builds a viewer around scene. sink may be nil.
func New(opts Options, scene *render.Scene, sink Sink, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Viewer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}

	v := &Viewer{
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		params:   panel.DefaultParams(),
		scene:    scene,
		camera:   render.NewCamera(CameraPosition, vectors.Zero(), CameraFOV, 1),
		renderer: render.NewRenderer(opts.Workers, opts.Supersample),
		tooltip:  &tooltip{sink: sink},
		sink:     sink,
		inputs:   make(chan Input, inputQueueSize),
	}
	v.camera.SetAspect(opts.Width, opts.Height)
	v.camera.MinDistance = earth.CloudRadius + 1
	v.camera.MaxDistance = v.camera.Far / 2

	v.session = session.New(&v.params, opts.Width, opts.Height)
	v.panel = panel.Bind(&v.params)
	v.bindPanel()
	v.scene.ApplyParams(&v.params)
	v.hover = hover.New(render.Picker{Scene: scene, Camera: v.camera}, v.tooltip, opts.HoverMaxDistance, metrics)
	v.controls = v.panel.Controls()
	return v
}

func (v *Viewer) bindPanel() {
	apply := func(any) { v.scene.ApplyParams(&v.params) }
	for _, name := range []string{"ambientLightColor", "directionalLightX", "directionalLightY", "directionalLightZ", "moon"} {
		if c, ok := v.panel.Lookup(name); ok {
			c.OnChange(apply)
		}
	}
	if c, ok := v.panel.Lookup("animation"); ok {
		c.OnChange(func(value any) {
			v.logger.Info("animation toggled", "enabled", value)
		})
	}
	if len(v.opts.EarthMaps) > 1 && v.opts.Textures != nil {
		v.panel.Number("earthMap", &v.params.EarthMap, 0, float64(len(v.opts.EarthMaps)-1), 1).
			Name("Earth map").
			OnChange(func(any) { v.selectEarthMap() })
	}
}

// selectEarthMap swaps the globe's colour map for the one the panel points
// at. Maps come from the texture source, so flipping back is a cache hit.
func (v *Viewer) selectEarthMap() {
	i := int(v.params.EarthMap)
	if i < 0 || i >= len(v.opts.EarthMaps) {
		return
	}
	path := v.opts.EarthMaps[i]
	v.scene.Earth.Map = v.opts.Textures.Get(path, EarthFallback)
	v.logger.Info("earth map selected", "index", i, "path", path)
}

// LoadRecords parses a dataset and puts its markers on the globe, replacing
// any previous ones. Rows with unusable coordinates are skipped and logged.
func (v *Viewer) LoadRecords(csvText string) ([]*catalog.Marker, error) {
	markers, skipped, err := catalog.Load(csvText, earth.Radius)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	v.place(markers, skipped)
	return markers, nil
}

// LoadFile is LoadRecords for a dataset on disk.
func (v *Viewer) LoadFile(path string) ([]*catalog.Marker, error) {
	markers, skipped, err := catalog.LoadFile(path, earth.Radius)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	v.place(markers, skipped)
	return markers, nil
}

func (v *Viewer) place(markers []*catalog.Marker, skipped []catalog.SkippedRecord) {
	for _, s := range skipped {
		v.logger.Warn("skipping record", "line", s.Line, "country", s.Country, "capital", s.Capital, "field", s.Field, "raw", s.Raw)
	}
	v.scene.SetMarkers(markers)
	if v.metrics != nil {
		v.metrics.MarkersLoaded.Set(float64(len(markers)))
		v.metrics.RecordsSkipped.Add(float64(len(skipped)))
	}
	v.logger.Info("markers placed", "markers", len(markers), "skipped", len(skipped))
}

// Send queues browser input for the next frame. It never blocks; input is
// dropped when the queue is full.
func (v *Viewer) Send(in Input) bool {
	select {
	case v.inputs <- in:
		return true
	default:
		v.logger.Debug("input queue full, dropping", "type", in.Type)
		return false
	}
}

// Session exposes the render session. Only touch it from the frame goroutine
// or before Run.
func (v *Viewer) Session() *session.Session { return v.session }

// Camera exposes the camera, with the same rule as Session.
func (v *Viewer) Camera() *render.Camera { return v.camera }

// Hover exposes the hover machine, with the same rule as Session.
func (v *Viewer) Hover() *hover.Machine { return v.hover }

// Controls returns the panel state as of the last frame. Safe to call from
// any goroutine.
func (v *Viewer) Controls() []panel.Control {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]panel.Control, len(v.controls))
	copy(out, v.controls)
	return out
}

// CheckReadiness reports ready once a frame has been rendered.
func (v *Viewer) CheckReadiness(_ context.Context) error {
	if !v.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// OnFrame advances the viewer by one frame: queued input, camera controls,
// ambient rotation, hover, then render and publish.
func (v *Viewer) OnFrame(ctx context.Context) (Frame, error) {
	start := v.clock.Now()

	v.drainInputs()
	v.camera.Update()
	if v.session.Animating() {
		v.scene.Animate(v.params.RotationSpeed, v.params.RotationSpeedMoon)
	}
	v.hover.Step(v.session, hover.Frame{ObserverDistance: v.camera.Distance()})

	img, err := v.renderer.Render(ctx, v.scene, v.camera, v.session.Width, v.session.Height)
	if err != nil {
		return Frame{}, fmt.Errorf("render frame: %w", err)
	}
	if v.opts.DrawTooltip && v.tooltip.visible {
		render.DrawLabel(img, v.tooltip.label.Lines(), int(v.tooltip.at.X), int(v.tooltip.at.Y))
	}

	v.seq++
	f := Frame{Seq: v.seq, At: start, Image: img}
	if v.sink != nil {
		v.sink.Frame(f)
	}
	v.ready.Store(true)

	elapsed := v.clock.Since(start)
	if v.metrics != nil {
		v.metrics.FramesRendered.Inc()
		v.metrics.FrameDuration.Observe(elapsed.Seconds())
	}
	v.recordStats(elapsed)
	return f, nil
}

func (v *Viewer) drainInputs() {
	changed := false
	for {
		select {
		case in := <-v.inputs:
			if err := v.apply(in); err != nil {
				v.logger.Warn("ignoring input", "type", in.Type, "error", err)
			}
			changed = changed || in.Type == InputParam
		default:
			if changed {
				controls := v.panel.Controls()
				v.mu.Lock()
				v.controls = controls
				v.mu.Unlock()
				if v.sink != nil {
					v.sink.Panel(controls)
				}
			}
			return
		}
	}
}

// Run renders a frame every FrameInterval until ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := v.clock.NewTicker(v.opts.FrameInterval)
	defer ticker.Stop()

	v.logger.Info("frame loop starting", "interval", v.opts.FrameInterval, "width", v.session.Width, "height", v.session.Height)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if _, err := v.OnFrame(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				v.logger.Error("frame failed", "error", err)
			}
		}
	}
}

// statsEvery is the number of frames between frame-time debug logs.
const statsEvery = 300

type frameStats struct {
	frames int
	total  time.Duration
	worst  time.Duration
}

func (v *Viewer) recordStats(d time.Duration) {
	v.mu.Lock()
	v.stats.frames++
	v.stats.total += d
	v.stats.worst = max(v.stats.worst, d)
	s := v.stats
	if s.frames >= statsEvery {
		v.stats = frameStats{}
	}
	v.mu.Unlock()

	if s.frames >= statsEvery {
		v.logger.Debug("frame stats",
			"frames", s.frames,
			"avg", s.total/time.Duration(s.frames),
			"worst", s.worst,
			"hover", v.hover.State().String())
	}
}

// tooltip is the single info box. It remembers what is shown so still
// frames can paint it and forwards changes to the sink.
type tooltip struct {
	sink    Sink
	visible bool
	label   hover.Label
	at      vectors.Vec2
}

func (t *tooltip) Show(label hover.Label, at vectors.Vec2) {
	t.visible, t.label, t.at = true, label, at
	if t.sink != nil {
		t.sink.Tooltip(label, at)
	}
}

func (t *tooltip) Hide() {
	t.visible = false
	if t.sink != nil {
		t.sink.TooltipHidden()
	}
}
