package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/kwv/hyper2nerf/nerf"
)

// App encapsulates one conversion run and its dependencies
type App struct {
	Config  *nerf.Config
	Options AppOptions

	// connectNotifier is replaced in tests
	connectNotifier func(nerf.NotifyConfig) (*nerf.Notifier, func(), error)
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{connectNotifier: nerf.ConnectNotifier}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.Options = opts
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then MQTT_* environment, then explicitly given flags
func (a *App) loadConfig() (*nerf.Config, error) {
	cfg := nerf.DefaultConfig()
	if a.Options.ConfigFile != "" {
		loaded, err := nerf.LoadConfig(a.Options.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	o := a.Options
	if o.IsSet("downscale") || a.Options.ConfigFile == "" {
		cfg.Downscale = o.Downscale
	}
	if o.IsSet("output") {
		cfg.Output = o.Output
	}
	if o.IsSet("refine") {
		cfg.Refine.Enabled = o.Refine
	}
	if o.IsSet("render-svg") {
		cfg.Render.SVG = o.RenderSVG
	}
	if o.IsSet("render-png") {
		cfg.Render.PNG = o.RenderPNG
	}
	if o.IsSet("view") {
		cfg.Render.View = o.View
	}
	if o.IsSet("plot") {
		cfg.Render.Plot = o.Plot
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	return cfg, nil
}

// OutputPath returns where the manifest is written
func (a *App) OutputPath() string {
	if a.Config != nil && a.Config.Output != "" {
		return a.Config.Output
	}
	return filepath.Join(a.Options.DatasetRoot, "transforms.json")
}

// Run converts the dataset, writes the manifest and then produces the
// optional diagnostics and notification. Diagnostics and notification
// failures are logged but do not fail the run.
func (a *App) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.Config = cfg

	log.Printf("[INFO] process %s", a.Options.DatasetRoot)

	res, err := nerf.Convert(cfg, a.Options.DatasetRoot)
	if err != nil {
		return err
	}

	if n := len(res.IntrinsicsMismatches); n > 0 {
		log.Printf("[WARN] intrinsics differ across %d frame(s): %v", n, res.IntrinsicsMismatches)
	}

	output := a.OutputPath()
	log.Printf("[INFO] write to %s", output)
	if err := nerf.WriteManifest(output, res.Manifest); err != nil {
		return err
	}

	a.writeDiagnostics(res)
	a.notify(res, output)
	printSummary(res)
	return nil
}

func (a *App) writeDiagnostics(res *nerf.Result) {
	render := a.Config.Render
	if render.SVG == "" && render.PNG == "" && render.Plot == "" {
		return
	}

	view, _ := nerf.ParseView(render.View) // validated in loadConfig
	r := nerf.NewFrustumRenderer(res.Manifest.Poses(), view)
	if render.FrustumSize > 0 {
		r.FrustumSize = render.FrustumSize
	}

	if render.SVG != "" {
		if err := r.SaveSVG(render.SVG); err != nil {
			log.Printf("[WARN] SVG render failed: %v", err)
		} else {
			log.Printf("[INFO] wrote %s", render.SVG)
		}
	}

	if render.PNG != "" {
		if render.DPI > 0 {
			r.SetDPI(render.DPI)
		}
		if err := r.SavePNG(render.PNG); err != nil {
			log.Printf("[WARN] PNG render failed: %v", err)
		} else {
			log.Printf("[INFO] wrote %s", render.PNG)
		}
	}

	if render.Plot != "" {
		if err := nerf.SaveTimelinePlot(res.Manifest, render.Plot); err != nil {
			log.Printf("[WARN] timeline plot failed: %v", err)
		} else {
			log.Printf("[INFO] wrote %s", render.Plot)
		}
	}
}

func (a *App) notify(res *nerf.Result, output string) {
	if a.Config.Notify.Broker == "" {
		return
	}

	notifier, closeFn, err := a.connectNotifier(a.Config.Notify)
	if err != nil {
		log.Printf("[WARN] notify disabled: %v", err)
		return
	}
	defer closeFn()

	if notifier == nil {
		return
	}
	if err := notifier.PublishConversion(res.Event(a.Options.DatasetRoot, output)); err != nil {
		log.Printf("[WARN] notify failed: %v", err)
	}
}

func printSummary(res *nerf.Result) {
	m := res.Manifest
	s := res.Summary

	fmt.Printf("Frames: %d\n", len(m.Frames))
	fmt.Printf("Image: %dx%d  fl=%.3f  cx=%.3f  cy=%.3f\n", m.W, m.H, m.FlX, m.Cx, m.Cy)
	fmt.Printf("Average center: (%.4f, %.4f, %.4f)  mean radius: %.4f\n",
		s.Center.X, s.Center.Y, s.Center.Z, s.MeanRadius)
	fmt.Printf("Height range: [%.4f, %.4f]\n", s.MinHeight, s.MaxHeight)
	fmt.Printf("Footprint: x [%.4f, %.4f]  y [%.4f, %.4f]  path length %.4f (%d keyframes)\n",
		s.Footprint.Min[0], s.Footprint.Max[0], s.Footprint.Min[1], s.Footprint.Max[1],
		s.PathLength, s.Keyframes)
	if res.Centroid != nil {
		fmt.Printf("Ray centroid: (%.4f, %.4f, %.4f)\n", res.Centroid.X, res.Centroid.Y, res.Centroid.Z)
	}
}
