package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/df07/go-bvh-tracer/pkg/bvh"
	"github.com/df07/go-bvh-tracer/pkg/config"
	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/geometry"
	"github.com/df07/go-bvh-tracer/pkg/imageio"
	"github.com/df07/go-bvh-tracer/pkg/logging"
	"github.com/df07/go-bvh-tracer/pkg/renderer"
	"github.com/df07/go-bvh-tracer/pkg/scene"
	"github.com/df07/go-bvh-tracer/web/server"
)

const (
	flagDebug      = "debug"
	flagQuiet      = "quiet"
	flagLogFile    = "log-file"
	flagConfig     = "config"
	flagScene      = "scene"
	flagOutput     = "output"
	flagWidth      = "width"
	flagHeight     = "height"
	flagSamples    = "samples"
	flagBounces    = "bounces"
	flagWorkers    = "workers"
	flagSeed       = "seed"
	flagStrategy   = "bvh"
	flagGamma      = "gamma"
	flagEpsilon    = "epsilon"
	flagAperture   = "aperture"
	flagNoProgress = "no-progress"
	flagRays       = "rays"
	flagKind       = "kind"
	flagPort       = "port"
)

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "tracer",
		Usage:           "render scenes with a BVH accelerated path tracer",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagDebug, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: flagQuiet, Aliases: []string{"q"}, Usage: "only log warnings and errors"},
			&cli.StringFlag{Name: flagLogFile, Usage: "also write JSON logs to `FILE`"},
		},
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "render a scene to an image file",
				Flags:  renderFlags(),
				Action: renderAction,
			},
			{
				Name:   "scenes",
				Usage:  "list the built-in scenes",
				Action: scenesAction,
			},
			{
				Name:  "bvh",
				Usage: "build the BVH of a scene with every strategy and compare them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagScene, Aliases: []string{"s"}, Value: "default", Usage: "built-in scene `NAME` or scene file"},
					&cli.IntFlag{Name: flagRays, Value: 10000, Usage: "random rays to check against brute force"},
					&cli.Int64Flag{Name: flagSeed, Value: 1, Usage: "seed for the random rays"},
				},
				Action: bvhAction,
			},
			{
				Name:  "serve",
				Usage: "serve renders and pixel inspection over HTTP",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagPort, Value: 8080, Usage: "port to serve on"},
				},
				Action: serveAction,
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of scene or config files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagKind, Value: "scene", Usage: "`scene` or `config`"},
				},
				Action: schemaAction,
			},
		},
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Aliases: []string{"c"}, Usage: "load render configuration from `FILE`"},
		&cli.StringFlag{Name: flagScene, Aliases: []string{"s"}, Value: "default", Usage: "built-in scene `NAME` or path to a scene file"},
		&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "output image `PATH` (default output/<scene>/render_<timestamp>.png)"},
		&cli.IntFlag{Name: flagWidth, Usage: "image width in pixels"},
		&cli.IntFlag{Name: flagHeight, Usage: "image height in pixels"},
		&cli.IntFlag{Name: flagSamples, Usage: "samples per pixel"},
		&cli.IntFlag{Name: flagBounces, Usage: "bounce budget per sample"},
		&cli.IntFlag{Name: flagWorkers, Usage: "worker goroutines (0 for one per CPU)"},
		&cli.Int64Flag{Name: flagSeed, Usage: "random seed"},
		&cli.StringFlag{Name: flagStrategy, Usage: "BVH strategy: sah, median or agglomerative"},
		&cli.Float64Flag{Name: flagGamma, Usage: "output gamma"},
		&cli.Float64Flag{Name: flagEpsilon, Usage: "intersection epsilon"},
		&cli.Float64Flag{Name: flagAperture, Usage: "lens aperture for depth of field"},
		&cli.BoolFlag{Name: flagNoProgress, Usage: "do not show a progress bar"},
	}
}

func newLogger(c *cli.Context) *zap.SugaredLogger {
	return logging.NewLogger("tracer", logging.Options{
		Debug:   c.Bool(flagDebug),
		Quiet:   c.Bool(flagQuiet),
		LogFile: c.String(flagLogFile),
	})
}

// loadScene resolves a scene argument: paths ending in .json are scene
// files, anything else names a built-in scene
func loadScene(name string) (*scene.Scene, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return scene.Load(name)
	}
	return scene.NewBuiltin(name)
}

// resolveConfig layers the config file and command line flags over the defaults
func resolveConfig(c *cli.Context, s *scene.Scene) (config.Config, error) {
	cfg := config.Default()
	source := "flags"
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg, source = loaded, path
	}

	if c.IsSet(flagWidth) {
		cfg.Width = c.Int(flagWidth)
	}
	if c.IsSet(flagHeight) {
		cfg.Height = c.Int(flagHeight)
	}
	if c.IsSet(flagSamples) {
		cfg.SamplesPerPixel = c.Int(flagSamples)
	}
	if c.IsSet(flagBounces) {
		cfg.Bounces = c.Int(flagBounces)
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagSeed) {
		cfg.Seed = c.Int64(flagSeed)
	}
	if c.IsSet(flagStrategy) {
		cfg.Strategy = bvh.Strategy(c.String(flagStrategy))
	}
	if c.IsSet(flagGamma) {
		cfg.Gamma = c.Float64(flagGamma)
	}
	if c.IsSet(flagEpsilon) {
		cfg.Epsilon = c.Float64(flagEpsilon)
	}

	if cfg.Camera == nil {
		camera := s.Camera
		cfg.Camera = &camera
	}
	if c.IsSet(flagAperture) {
		cfg.Camera.Aperture = c.Float64(flagAperture)
	}

	return cfg, cfg.Validate(source)
}

func renderAction(c *cli.Context) error {
	logger := newLogger(c)
	defer func() { _ = logger.Sync() }()

	s, err := loadScene(c.String(flagScene))
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(c, s)
	if err != nil {
		return err
	}

	renderID := uuid.New()
	output := c.String(flagOutput)
	if output == "" {
		name := lo.Ternary(s.Name != "", s.Name, "scene")
		output = filepath.Join("output", name,
			fmt.Sprintf("render_%s_%s.png", time.Now().Format("20060102_150405"), renderID.String()[:8]))
	}
	if !imageio.Supported(output) {
		return errors.Errorf("unsupported output format %q (want one of %v)", filepath.Ext(output), imageio.Extensions)
	}
	logger = logger.With("render", renderID.String())

	buildStart := time.Now()
	tree := s.BuildBVH(cfg.Strategy, cfg.Epsilon, logger)
	buildTime := time.Since(buildStart)

	camera := renderer.NewPinholeCamera(*cfg.Camera, cfg.Width, cfg.Height)
	opts := []renderer.Option{renderer.WithLogger(logger)}

	var bar *pterm.ProgressbarPrinter
	if !c.Bool(flagNoProgress) {
		bar, err = pterm.DefaultProgressbar.
			WithTotal(cfg.Width).
			WithTitle("Rendering " + s.Name).
			WithWriter(c.App.ErrWriter).
			Start()
		if err != nil {
			return errors.Wrap(err, "starting progress bar")
		}
		opts = append(opts, renderer.WithProgress(func(int, int) { bar.Increment() }))
	}

	img, stats := renderer.New(cfg, camera, tree, opts...).Render()
	if bar != nil {
		_, _ = bar.Stop()
	}

	if err := imageio.Save(output, imageio.ToImage(img, cfg.Gamma)); err != nil {
		return err
	}
	info, err := os.Stat(output)
	if err != nil {
		return errors.Wrap(err, "inspecting output")
	}

	treeStats := tree.Stats()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Render", renderID.String()})
	t.AppendRows([]table.Row{
		{"Scene", s.Name},
		{"Resolution", fmt.Sprintf("%dx%d", stats.Width, stats.Height)},
		{"Samples per pixel", cfg.SamplesPerPixel},
		{"Bounces", cfg.Bounces},
		{"Workers", stats.Workers},
		{"Primitives", treeStats.TotalPrimitives},
		{"BVH", fmt.Sprintf("%s, %d nodes, depth %d, built in %v", cfg.Strategy, treeStats.TotalNodes, treeStats.MaxDepth, buildTime.Round(time.Microsecond))},
		{"Rays", fmt.Sprintf("%d (%.0f/s)", stats.Rays, stats.RaysPerSecond)},
		{"Luminance", fmt.Sprintf("%.4f ± %.4f", stats.MeanLuminance, stats.LuminanceStdDev)},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond)},
		{"Output", fmt.Sprintf("%s (%s)", output, units.HumanSize(float64(info.Size())))},
	})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func scenesAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Spheres", "Triangles", "Lights", "Description"})
	for _, b := range scene.Builtins() {
		s, err := scene.NewBuiltin(b.Name)
		if err != nil {
			return err
		}
		counts := s.Counts()
		t.AppendRow(table.Row{b.Name, counts[geometry.KindSphere], counts[geometry.KindTriangle], len(s.Emissive()), b.Description})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func bvhAction(c *cli.Context) error {
	logger := newLogger(c)
	defer func() { _ = logger.Sync() }()

	s, err := loadScene(c.String(flagScene))
	if err != nil {
		return err
	}
	epsilon := config.Default().Epsilon
	rays := randomRays(s, c.Int(flagRays), c.Int64(flagSeed))
	brute := bvh.BruteForce{Primitives: s.Primitives, Epsilon: epsilon}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Strategy", "Nodes", "Leaves", "Max depth", "Avg depth", "Root area", "Build", "Per ray", "Mismatches"})
	var errs []error
	for _, strategy := range bvh.Strategies {
		start := time.Now()
		tree := s.BuildBVH(strategy, epsilon, logger)
		buildTime := time.Since(start)
		if err := tree.Verify(); err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", strategy))
		}

		mismatches := 0
		start = time.Now()
		for _, ray := range rays {
			got, gotOK := tree.Collide(ray, math.Inf(1))
			want, wantOK := brute.Collide(ray, math.Inf(1))
			if gotOK != wantOK || (gotOK && got.Distance != want.Distance) {
				mismatches++
			}
		}
		perRay := time.Duration(0)
		if len(rays) > 0 {
			perRay = time.Since(start) / time.Duration(len(rays))
		}

		stats := tree.Stats()
		t.AppendRow(table.Row{
			strategy, stats.TotalNodes, stats.LeafNodes, stats.MaxDepth,
			fmt.Sprintf("%.2f", stats.AvgDepth), fmt.Sprintf("%.4g", stats.RootArea),
			buildTime.Round(time.Microsecond), perRay, mismatches,
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	if len(errs) > 0 {
		return errors.Errorf("BVH verification failed: %v", errs)
	}
	return nil
}

// randomRays aims rays from random points around the scene at random targets
// inside it
func randomRays(s *scene.Scene, n int, seed int64) []core.Ray {
	if len(s.Primitives) == 0 || n <= 0 {
		return nil
	}
	bounds := s.Primitives[0].BoundingBox()
	for i := range s.Primitives[1:] {
		bounds = bounds.Merge(s.Primitives[i+1].BoundingBox())
	}
	center, size := bounds.Center(), bounds.Size()

	sampler := core.NewSeededSampler(seed)
	point := func(scale float64) core.Vec3 {
		return center.Add(core.NewVec3(
			(sampler.Get1D()-0.5)*size.X*scale,
			(sampler.Get1D()-0.5)*size.Y*scale,
			(sampler.Get1D()-0.5)*size.Z*scale,
		))
	}

	rays := make([]core.Ray, n)
	for i := range rays {
		origin := point(2)
		rays[i] = core.NewRay(origin, point(1).Subtract(origin))
	}
	return rays
}

func serveAction(c *cli.Context) error {
	logger := newLogger(c)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.NewServer(c.Int(flagPort), logger).Start(ctx)
}

func schemaAction(c *cli.Context) error {
	var schema *jsonschema.Schema
	switch kind := c.String(flagKind); kind {
	case "scene":
		schema = scene.Schema()
	case "config":
		schema = jsonschema.Reflect(&config.Config{})
	default:
		return errors.Errorf("unknown schema kind %q (want scene or config)", kind)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding schema")
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
