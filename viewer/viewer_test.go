package viewer

import (
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/hover"
	"github.com/echoflaresat/globeview/observability"
	"github.com/echoflaresat/globeview/panel"
	"github.com/echoflaresat/globeview/render"
	"github.com/echoflaresat/globeview/texture"
	"github.com/echoflaresat/globeview/vectors"
)

const dataset = "country;capital;latitude;longitude;population\n" +
	"Nowhere;Null Island;0;0;12\n" +
	"France;Paris;48.85;2.35;10843\n" +
	"Broken;Town;north;10;1\n"

type recordingSink struct {
	mu       sync.Mutex
	frames   chan Frame
	tooltips []hover.Label
	hides    int
	panels   [][]panel.Control
}

func newRecordingSink() *recordingSink {
	return &recordingSink{frames: make(chan Frame, 64)}
}

func (s *recordingSink) Frame(f Frame) { s.frames <- f }

func (s *recordingSink) Tooltip(l hover.Label, _ vectors.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tooltips = append(s.tooltips, l)
}

func (s *recordingSink) TooltipHidden() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
}

func (s *recordingSink) Panel(controls []panel.Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = append(s.panels, controls)
}

func controlValue(controls []panel.Control, name string) any {
	for _, c := range controls {
		if c.Name == name {
			return c.Value
		}
	}
	return nil
}

type fixture struct {
	v       *Viewer
	sink    *recordingSink
	metrics *observability.Metrics
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	scene := render.NewScene(
		texture.Solid(colors.FromHex(0x1f4e8c)),
		nil,
		texture.Solid(colors.New(1, 1, 1, 0)),
		texture.Solid(colors.FromHex(0x888888)),
	)
	sink := newRecordingSink()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	v := New(Options{
		Width:         32,
		Height:        24,
		FrameInterval: 40 * time.Millisecond,
		Workers:       2,
		Supersample:   1,
	}, scene, sink, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics, clock)

	_, err := v.LoadRecords(dataset)
	require.NoError(t, err)
	return &fixture{v: v, sink: sink, metrics: metrics, clock: clock}
}

func (f *fixture) frame(t *testing.T) Frame {
	t.Helper()
	fr, err := f.v.OnFrame(context.Background())
	require.NoError(t, err)
	return fr
}

func TestLoadRecordsPlacesMarkers(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.v.scene.Markers, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.MarkersLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsSkipped))

	_, err := f.v.LoadRecords("a;b\n\"open")
	assert.Error(t, err)
	assert.Len(t, f.v.scene.Markers, 2, "a failed load keeps the old markers")
}

func TestReadyAfterFirstFrame(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.v.CheckReadiness(context.Background()), ErrNotReady)

	fr := f.frame(t)
	assert.Equal(t, uint64(1), fr.Seq)
	assert.Equal(t, f.clock.Now(), fr.At)
	assert.Equal(t, 32, fr.Image.Bounds().Dx())
	assert.NoError(t, f.v.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FramesRendered))
	assert.Len(t, f.sink.frames, 1)
}

func TestRotationAdvancesEachFrame(t *testing.T) {
	f := newFixture(t)
	f.frame(t)
	f.frame(t)
	assert.InDelta(t, -0.002, f.v.scene.EarthRotation, 1e-12)
	assert.InDelta(t, 0.02, f.v.scene.MoonPivotRotation, 1e-12)

	f.v.Send(Input{Type: InputParam, Name: "animation", Value: false})
	f.frame(t)
	assert.InDelta(t, -0.002, f.v.scene.EarthRotation, 1e-12)
}

func TestHoverPausesRotationAndResumes(t *testing.T) {
	f := newFixture(t)
	// look straight down at Null Island from inside the hover range
	f.v.Camera().Position = vectors.Vec3{X: 40}
	f.v.Send(Input{Type: InputPointer, X: 16, Y: 12})

	f.frame(t)
	require.Equal(t, hover.Hovering, f.v.Hover().State())
	assert.Equal(t, "Null Island", f.v.Hover().Current().Record.Capital)
	assert.True(t, f.v.Session().Paused)
	rot := f.v.scene.EarthRotation

	for i := 0; i < 10; i++ {
		f.frame(t)
	}
	assert.Equal(t, rot, f.v.scene.EarthRotation, "rotation is paused while hovering")
	assert.Len(t, f.sink.tooltips, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TooltipShows))

	f.v.Send(Input{Type: InputLeave})
	f.frame(t)
	assert.Equal(t, hover.Idle, f.v.Hover().State())
	assert.False(t, f.v.Session().Paused)
	assert.Equal(t, 1, f.sink.hides)

	f.frame(t)
	assert.Less(t, f.v.scene.EarthRotation, rot, "rotation resumes")
	assert.True(t, f.v.params.Animation, "the user's switch is untouched")
}

func TestHoverGatedAtStartDistance(t *testing.T) {
	f := newFixture(t)
	f.v.Send(Input{Type: InputPointer, X: 16, Y: 12})
	f.frame(t)
	assert.Greater(t, f.v.Camera().Distance(), 50.0)
	assert.Equal(t, hover.Idle, f.v.Hover().State())
}

func TestInputs(t *testing.T) {
	f := newFixture(t)

	f.v.Send(Input{Type: InputResize, Width: 40, Height: 20})
	f.v.Send(Input{Type: InputResize, Width: 0, Height: 20})
	f.v.Send(Input{Type: "bogus"})
	f.v.Send(Input{Type: InputParam, Name: "rotationSpeed", Value: 0.5})
	f.v.Send(Input{Type: InputParam, Name: "ambientLightColor", Value: "#102030"})
	before := f.v.Camera().Distance()
	f.v.Send(Input{Type: InputZoom, Delta: -1})

	fr := f.frame(t)
	assert.Equal(t, 40, fr.Image.Bounds().Dx())
	assert.Equal(t, 20, fr.Image.Bounds().Dy())
	assert.Equal(t, 0.01, f.v.params.RotationSpeed, "clamped to the slider range")
	assert.Equal(t, uint32(0x102030), f.v.scene.Ambient.Hex())
	assert.InDelta(t, before*zoomStep, f.v.Camera().Distance(), 1e-9)

	assert.Equal(t, 0.01, controlValue(f.v.Controls(), "rotationSpeed"))
}

func TestParamChangesArePublished(t *testing.T) {
	f := newFixture(t)

	f.v.Send(Input{Type: InputPointer, X: 3, Y: 4})
	f.frame(t)
	assert.Empty(t, f.sink.panels, "no param input, no panel update")

	f.v.Send(Input{Type: InputParam, Name: "moon", Value: false})
	f.v.Send(Input{Type: InputParam, Name: "directionalLightX", Value: -50.0})
	f.frame(t)
	require.Len(t, f.sink.panels, 1, "one update per frame")
	assert.Equal(t, false, controlValue(f.sink.panels[0], "moon"))
	assert.Equal(t, -50.0, controlValue(f.sink.panels[0], "directionalLightX"))
	assert.False(t, f.v.scene.MoonVisible)

	f.frame(t)
	assert.Len(t, f.sink.panels, 1)
}

func writeSolidPNG(t *testing.T, path string, c colors.Color4) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c.ToNRGBA())
		}
	}
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, img))
	require.NoError(t, out.Close())
}

func TestEarthMapSwitchReusesCachedTextures(t *testing.T) {
	dir := t.TempDir()
	day, night := filepath.Join(dir, "day.png"), filepath.Join(dir, "night.png")
	writeSolidPNG(t, day, colors.FromHex(0x2060a0))
	writeSolidPNG(t, night, colors.FromHex(0x101020))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	cache, err := texture.NewCache(4, logger, metrics)
	require.NoError(t, err)

	maps := []string{day, night}
	scene := render.NewScene(cache.Get(maps[0], EarthFallback), nil, texture.Solid(colors.New(0, 0, 0, 0)), texture.Solid(colors.Black()))
	v := New(Options{Width: 8, Height: 6, EarthMaps: maps, Textures: cache}, scene, nil, logger, metrics, clockwork.NewFakeClock())

	var earthMap *panel.Control
	for _, c := range v.Controls() {
		if c.Name == "earthMap" {
			earthMap = &c
		}
	}
	require.NotNil(t, earthMap)
	assert.Equal(t, 1.0, earthMap.Max)
	assert.Equal(t, 1.0, earthMap.Step)

	sample := func() uint32 { return scene.Earth.Map.Sample(vectors.Vec3{X: 1}).Hex() }
	step := func(index float64) {
		v.Send(Input{Type: InputParam, Name: "earthMap", Value: index})
		_, err := v.OnFrame(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, uint32(0x2060a0), sample())
	step(1)
	assert.Equal(t, uint32(0x101020), sample())
	step(0)
	assert.Equal(t, uint32(0x2060a0), sample())
	step(1)

	loads := metrics.TextureCache
	assert.Equal(t, 2.0, testutil.ToFloat64(loads.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(loads.WithLabelValues("hit")))
	assert.Equal(t, 2, cache.Len())
}

func TestNoEarthMapControlForSingleMap(t *testing.T) {
	f := newFixture(t)
	_, ok := f.v.panel.Lookup("earthMap")
	assert.False(t, ok)
	assert.Nil(t, controlValue(f.v.Controls(), "earthMap"))
}

func TestOrbitInputKeepsDistance(t *testing.T) {
	f := newFixture(t)
	before := f.v.Camera().Position
	f.v.Send(Input{Type: InputOrbit, DX: 6, DY: 0})
	f.frame(t)
	assert.InDelta(t, vectors.Distance(before, vectors.Zero()), f.v.Camera().Distance(), 1e-9)
	assert.NotEqual(t, before, f.v.Camera().Position)
}

func TestSendDropsWhenFull(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < inputQueueSize; i++ {
		require.True(t, f.v.Send(Input{Type: InputPointer}))
	}
	assert.False(t, f.v.Send(Input{Type: InputPointer}))
}

func TestRunTicksWithClock(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.v.Run(ctx) }()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(40 * time.Millisecond)

	select {
	case fr := <-f.sink.frames:
		assert.Equal(t, uint64(1), fr.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("no frame after one tick")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestTooltipDrawnIntoStills(t *testing.T) {
	scene := render.NewScene(texture.Solid(colors.Black()), nil, texture.Solid(colors.New(0, 0, 0, 0)), texture.Solid(colors.Black()))
	v := New(Options{Width: 200, Height: 120, DrawTooltip: true}, scene, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, clockwork.NewFakeClock())
	v.tooltip.Show(hover.Label{Country: "France", Capital: "Paris", Population: "10843"}, vectors.Vec2{X: 5, Y: 5})

	fr, err := v.OnFrame(context.Background())
	require.NoError(t, err)
	// white glyph pixels appear somewhere inside the box
	white := 0
	for y := 5; y < 60; y++ {
		for x := 5; x < 200; x++ {
			if fr.Image.NRGBAAt(x, y).R > 200 {
				white++
			}
		}
	}
	assert.Greater(t, white, 0)
}
