package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/config"
	"github.com/echoflaresat/globeview/earth"
	"github.com/echoflaresat/globeview/observability"
	"github.com/echoflaresat/globeview/render"
	"github.com/echoflaresat/globeview/server"
	"github.com/echoflaresat/globeview/texture"
	"github.com/echoflaresat/globeview/viewer"
)

// sunDistance places the directional light when it follows the real Sun.
const sunDistance = 200.0

type flags struct {
	configPath *string
	addr       *string
	snapshot   *string
	hover      *string
	size       *string
	distance   *float64
	sunTime    *string
	showHelp   *bool
}

func defineFlags() flags {
	return flags{
		configPath: flag.String("config", "", "Config file (JSON, YAML or TOML)"),
		addr:       flag.String("addr", "", "HTTP listen address; overrides the config"),

		snapshot: flag.String("snapshot", "", "Render one frame to this PNG file and exit"),
		hover:    flag.String("hover", "", "Pointer position x,y in pixels for the snapshot"),
		size:     flag.String("size", "", "Frame size WxH; overrides the config"),
		distance: flag.Float64("distance", 0, "Camera distance from the globe centre for the snapshot"),
		sunTime:  flag.String("sun-time", "", "Light the globe from the Sun's direction at this RFC3339 time"),

		showHelp: flag.Bool("h", false, "Show this help message"),
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `globeview - interactive capital cities globe

Usage:
  %[1]s [options]           serve the viewer over HTTP
  %[1]s -snapshot out.png   render a single frame

`, os.Args[0])

	printGroup("Server Options", []string{"config", "addr"})
	printGroup("Rendering Options", []string{"size", "sun-time"})
	printGroup("Snapshot Options", []string{"snapshot", "hover", "distance"})
	printGroup("Misc", []string{"h"})
}

func printGroup(title string, keys []string) {
	fmt.Fprintf(os.Stderr, "%s:\n", title)
	for _, name := range keys {
		if f := flag.Lookup(name); f != nil {
			fmt.Fprintf(os.Stderr, "  -%-9s %s (default %q)\n", f.Name, f.Usage, f.DefValue)
		}
	}
	fmt.Fprintln(os.Stderr)
}

func main() {
	fl := defineFlags()
	flag.Usage = printHelp
	flag.Parse()

	if *fl.showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load(*fl.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := applyOverrides(cfg, *fl.addr, *fl.size); err != nil {
		slog.Error("invalid options", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cache, err := texture.NewCache(cfg.TextureCacheSize, logger, metrics)
	if err != nil {
		logger.Error("failed to create texture cache", "error", err)
		os.Exit(1)
	}
	scene := buildScene(cache, cfg.Textures)

	opts := viewer.Options{
		Width:            cfg.Width,
		Height:           cfg.Height,
		FrameInterval:    cfg.FrameInterval(),
		HoverMaxDistance: cfg.HoverMaxDistance,
		Workers:          cfg.Workers,
		Supersample:      cfg.Supersample,
		EarthMaps:        cfg.Textures.EarthChoices(),
		Textures:         cache,
	}

	if *fl.snapshot != "" {
		opts.DrawTooltip = true
		if err := snapshot(fl, opts, scene, cfg.Dataset, logger, metrics); err != nil {
			logger.Error("snapshot failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(fl, cfg, opts, scene, logger, metrics); err != nil {
		logger.Error("viewer failed", "error", err)
		os.Exit(1)
	}
}

// applyOverrides puts the command-line settings over the loaded config and
// checks the result again.
func applyOverrides(cfg *config.Config, addr, size string) error {
	if addr != "" {
		cfg.Addr = addr
	}
	if size != "" {
		w, h, err := parsePair[int](size, "x")
		if err != nil {
			return fmt.Errorf("invalid -size: %w", err)
		}
		cfg.Width, cfg.Height = w, h
	}
	return cfg.Validate()
}

// buildScene loads the textures. Missing files fall back to plain colors so
// the viewer always starts.
func buildScene(cache *texture.Cache, paths config.Textures) *render.Scene {
	var specular *texture.Texture
	if t, ok := cache.Lookup(paths.Specular); ok {
		specular = &t
	}
	scene := render.NewScene(
		cache.Get(paths.Earth, viewer.EarthFallback),
		specular,
		cache.Get(paths.Clouds, colors.New(1, 1, 1, 0)),
		cache.Get(paths.Moon, colors.FromHex(0x888888)),
	)
	if t, ok := cache.Lookup(paths.Normal); ok {
		scene.Earth.NormalMap = &t
	}
	if t, ok := cache.Lookup(paths.Background); ok {
		scene.Background = &t
	}
	return scene
}

func newViewer(fl flags, opts viewer.Options, scene *render.Scene, sink viewer.Sink, dataset string, logger *slog.Logger, metrics *observability.Metrics) (*viewer.Viewer, error) {
	v := viewer.New(opts, scene, sink, logger, metrics, clockwork.NewRealClock())

	if _, err := v.LoadFile(dataset); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logger.Warn("dataset not found, starting without markers", "path", dataset)
	}

	if *fl.sunTime != "" {
		t, err := time.Parse(time.RFC3339, *fl.sunTime)
		if err != nil {
			return nil, fmt.Errorf("invalid -sun-time: %w", err)
		}
		sun := earth.SunDirection(t).Scale(sunDistance)
		v.Send(viewer.Input{Type: viewer.InputParam, Name: "directionalLightX", Value: sun.X})
		v.Send(viewer.Input{Type: viewer.InputParam, Name: "directionalLightY", Value: sun.Y})
		v.Send(viewer.Input{Type: viewer.InputParam, Name: "directionalLightZ", Value: sun.Z})
		logger.Info("light follows the sun", "time", t.UTC(), "direction", sun)
	}
	return v, nil
}

func snapshot(fl flags, opts viewer.Options, scene *render.Scene, dataset string, logger *slog.Logger, metrics *observability.Metrics) error {
	v, err := newViewer(fl, opts, scene, nil, dataset, logger, metrics)
	if err != nil {
		return err
	}
	if *fl.distance > 0 {
		cam := v.Camera()
		cam.Position = cam.Position.Normalize().Scale(*fl.distance)
	}
	if *fl.hover != "" {
		x, y, err := parsePair[float64](*fl.hover, ",")
		if err != nil {
			return fmt.Errorf("invalid -hover: %w", err)
		}
		v.Send(viewer.Input{Type: viewer.InputPointer, X: x, Y: y})
	}

	logger.Info("rendering snapshot", "out", *fl.snapshot, "width", opts.Width, "height", opts.Height)
	f, err := v.OnFrame(context.Background())
	if err != nil {
		return err
	}
	if m := v.Hover().Current(); m != nil {
		logger.Info("hovering", "country", m.Record.Country, "capital", m.Record.Capital)
	}
	return writePNG(*fl.snapshot, f.Image)
}

func serve(fl flags, cfg *config.Config, opts viewer.Options, scene *render.Scene, logger *slog.Logger, metrics *observability.Metrics) error {
	hub := server.NewHub(nil, logger, metrics)
	v, err := newViewer(fl, opts, scene, hub, cfg.Dataset, logger, metrics)
	if err != nil {
		return err
	}
	hub.SetViewer(v)

	srv := server.NewServer(cfg.Addr, v, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start frame loop.
	go func() {
		if err := v.Run(ctx); err != nil {
			logger.Error("frame loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// parsePair splits "a<sep>b" into two numbers.
func parsePair[T int | float64](s, sep string) (T, T, error) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: expected two values separated by %q", s, sep)
	}
	var out [2]T
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = T(f)
	}
	return out[0], out[1], nil
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(f, img)
}
