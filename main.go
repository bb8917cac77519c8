package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kwv/hyper2nerf/nerf"
)

// Version is set at build time via -ldflags
var Version = "dev"

// errUsage marks command line mistakes, reported with exit code 2
var errUsage = errors.New("usage error")

// AppOptions holds the parsed command line
type AppOptions struct {
	DatasetRoot string
	ConfigFile  string
	Downscale   int
	Output      string
	Refine      bool
	RenderSVG   string
	RenderPNG   string
	View        string
	Plot        string
	ShowVersion bool

	// set records which flags were given explicitly so they can override
	// values from the config file
	set map[string]bool
}

// IsSet reports whether a flag was given on the command line
func (o AppOptions) IsSet(name string) bool {
	return o.set[name]
}

// Runner is implemented by App; tests substitute a mock
type Runner interface {
	ApplyOptions(opts AppOptions)
	Run() error
}

func newFlagSet(opts *AppOptions, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("hyper2nerf", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to YAML configuration file (optional)")
	fs.IntVar(&opts.Downscale, "downscale", nerf.DefaultDownscale, "Image downscale factor, one of "+joinInts(nerf.AllowedDownscales))
	fs.StringVar(&opts.Output, "output", "", "Output manifest path (default <dataset>/transforms.json)")
	fs.BoolVar(&opts.Refine, "refine", false, "Recenter cameras on the ray-intersection centroid")
	fs.StringVar(&opts.RenderSVG, "render-svg", "", "Write a frustum wireframe SVG to this path")
	fs.StringVar(&opts.RenderPNG, "render-png", "", "Write a frustum wireframe PNG to this path")
	fs.StringVar(&opts.View, "view", string(nerf.ViewTop), "Projection for renders: top, front or side")
	fs.StringVar(&opts.Plot, "plot", "", "Write a height/radius over time plot to this path")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: hyper2nerf [flags] <dataset-root>\n\n")
		fmt.Fprintf(output, "Converts a HyperNeRF dataset (camera/, rgb/, dataset.json, scene.json, metadata.json)\n")
		fmt.Fprintf(output, "into a NeRF transforms.json manifest.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// parseOptions parses flags and the single positional dataset root. Flags
// may appear before or after the positional argument.
func parseOptions(args []string, output io.Writer) (AppOptions, error) {
	opts := AppOptions{set: make(map[string]bool)}
	fs := newFlagSet(&opts, output)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, fmt.Errorf("%w: %w", errUsage, err)
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.ShowVersion {
		return opts, nil
	}
	if len(positional) != 1 {
		fs.Usage()
		return opts, fmt.Errorf("%w: expected exactly one dataset root, got %d", errUsage, len(positional))
	}
	opts.DatasetRoot = positional[0]
	return opts, nil
}

func run(args []string, app Runner, output io.Writer) int {
	opts, err := parseOptions(args, output)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(output, err)
		return 2
	}

	if opts.ShowVersion {
		fmt.Fprintf(output, "hyper2nerf version: %s\n", Version)
		return 0
	}

	app.ApplyOptions(opts)
	if err := app.Run(); err != nil {
		log.Printf("[ERROR] %v", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], NewApp(), os.Stderr))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
