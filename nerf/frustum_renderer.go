package nerf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultRenderDPI is the PNG resolution when none is configured
	DefaultRenderDPI = 150.0
	// referenceAxisLength is the drawn length of each world axis
	referenceAxisLength = 4.0
)

// Segment is a line between two world points
type Segment [2]r3.Vector

// FrustumSegments returns the eight wireframe edges of a camera: four from
// the optical center to the corners of a square at one frustum size along the
// back axis, and the four edges of that square.
func FrustumSegments(p Pose, size float64) [8]Segment {
	pos := p.Position()
	right := p.Column(0).Mul(size)
	up := p.Column(1).Mul(size)
	back := p.Column(2).Mul(size)

	a := pos.Add(right).Add(up).Add(back)
	b := pos.Sub(right).Add(up).Add(back)
	c := pos.Sub(right).Sub(up).Add(back)
	d := pos.Add(right).Sub(up).Add(back)

	return [8]Segment{
		{pos, a}, {pos, b}, {pos, c}, {pos, d},
		{a, b}, {b, c}, {c, d}, {d, a},
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// FrustumRenderer draws camera frustums, the reference unit sphere outline
// and the world axes projected onto one plane
type FrustumRenderer struct {
	Poses             []Pose
	View              View
	FrustumSize       float64 // half-extent of a camera in world units
	Scale             float64 // canvas millimeters per world unit
	Padding           float64 // millimeters
	Resolution        canvas.Resolution
	ShowPath          bool
	SimplifyTolerance float64 // world units, applied to the drawn path
}

// NewFrustumRenderer creates a renderer with default settings
func NewFrustumRenderer(poses []Pose, view View) *FrustumRenderer {
	return &FrustumRenderer{
		Poses:       poses,
		View:        view,
		FrustumSize: DefaultFrustumSize,
		Scale:       100.0,
		Padding:     20.0,
		Resolution:  canvas.DPI(DefaultRenderDPI),
		ShowPath:    true,
	}
}

// SetDPI sets the PNG output resolution
func (r *FrustumRenderer) SetDPI(dpi float64) {
	r.Resolution = canvas.DPI(dpi)
}

// RenderToSVG writes the scene as an SVG to the provided writer
func (r *FrustumRenderer) RenderToSVG(w io.Writer) error {
	b := r.bounds()
	width, height := r.canvasSize(b)

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, b, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the scene as a PNG with a frame count label
func (r *FrustumRenderer) RenderToPNG(w io.Writer) error {
	b := r.bounds()
	width, height := r.canvasSize(b)

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, b, width, height)

	label := fmt.Sprintf("%d cameras, %s view", len(r.Poses), r.View)
	drawLabel(rast, 8, 18, label, color.RGBA{R: 0, G: 0, B: 0, A: 255})

	return png.Encode(w, rast)
}

// SaveSVG renders to an SVG file
func (r *FrustumRenderer) SaveSVG(path string) error {
	return r.save(path, r.RenderToSVG)
}

// SavePNG renders to a PNG file
func (r *FrustumRenderer) SavePNG(path string) error {
	return r.save(path, r.RenderToPNG)
}

func (r *FrustumRenderer) save(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

func (r *FrustumRenderer) canvasSize(b orb.Bound) (float64, float64) {
	width := (b.Max[0]-b.Min[0])*r.Scale + 2*r.Padding
	height := (b.Max[1]-b.Min[1])*r.Scale + 2*r.Padding
	return width, height
}

// bounds covers every frustum vertex, the unit circle and the axes
func (r *FrustumRenderer) bounds() orb.Bound {
	b := orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 1}}
	for _, axis := range worldAxes() {
		b = b.Extend(r.View.Project(axis.dir.Mul(referenceAxisLength)))
	}
	for _, p := range r.Poses {
		for _, seg := range FrustumSegments(p, r.FrustumSize) {
			b = b.Extend(r.View.Project(seg[0]))
			b = b.Extend(r.View.Project(seg[1]))
		}
	}
	return b
}

type worldAxis struct {
	dir   r3.Vector
	color color.RGBA
}

func worldAxes() []worldAxis {
	return []worldAxis{
		{r3.Vector{X: 1}, color.RGBA{R: 220, G: 40, B: 40, A: 255}},
		{r3.Vector{Y: 1}, color.RGBA{R: 40, G: 170, B: 40, A: 255}},
		{r3.Vector{Z: 1}, color.RGBA{R: 40, G: 80, B: 220, A: 255}},
	}
}

func (r *FrustumRenderer) renderToCanvas(renderer canvasRenderer, b orb.Bound, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p orb.Point) (float64, float64) {
		return (p[0]-b.Min[0])*r.Scale + r.Padding, (p[1]-b.Min[1])*r.Scale + r.Padding
	}

	// Unit sphere outline
	sphereStyle := canvas.DefaultStyle
	sphereStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	sphereStyle.Stroke = canvas.Paint{Color: canvas.Lightgray}
	sphereStyle.StrokeWidth = 0.5
	ox, oy := toCanvas(orb.Point{0, 0})
	renderer.RenderPath(canvas.Circle(r.Scale).Translate(ox, oy), sphereStyle, canvas.Identity)

	for _, axis := range worldAxes() {
		end := r.View.Project(axis.dir.Mul(referenceAxisLength))
		if end == (orb.Point{0, 0}) {
			continue // the axis we are looking along
		}
		axisStyle := canvas.DefaultStyle
		axisStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		axisStyle.Stroke = canvas.Paint{Color: axis.color}
		axisStyle.StrokeWidth = 0.8

		ex, ey := toCanvas(end)
		axisPath := &canvas.Path{}
		axisPath.MoveTo(ox, oy)
		axisPath.LineTo(ex, ey)
		renderer.RenderPath(axisPath, axisStyle, canvas.Identity)
	}

	if r.ShowPath && len(r.Poses) > 1 {
		pathStyle := canvas.DefaultStyle
		pathStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		pathStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		pathStyle.StrokeWidth = 0.3
		pathStyle.Dashes = []float64{1.0, 1.0}

		ls := SimplifyTrajectory(Trajectory(r.Poses, r.View), r.SimplifyTolerance)
		cp := &canvas.Path{}
		for i, pt := range ls {
			x, y := toCanvas(pt)
			if i == 0 {
				cp.MoveTo(x, y)
			} else {
				cp.LineTo(x, y)
			}
		}
		renderer.RenderPath(cp, pathStyle, canvas.Identity)
	}

	frustumStyle := canvas.DefaultStyle
	frustumStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	frustumStyle.StrokeWidth = 0.3

	for i, p := range r.Poses {
		frustumStyle.Stroke = canvas.Paint{Color: timeColor(i, len(r.Poses))}
		cp := &canvas.Path{}
		for _, seg := range FrustumSegments(p, r.FrustumSize) {
			x1, y1 := toCanvas(r.View.Project(seg[0]))
			x2, y2 := toCanvas(r.View.Project(seg[1]))
			cp.MoveTo(x1, y1)
			cp.LineTo(x2, y2)
		}
		renderer.RenderPath(cp, frustumStyle, canvas.Identity)
	}
}

// timeColor fades from blue for the first frame to orange for the last
func timeColor(i, n int) color.RGBA {
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
	}
	return color.RGBA{R: lerp(30, 230), G: lerp(90, 120), B: lerp(200, 20), A: 255}
}

// drawLabel renders text onto an image at the specified pixel position
func drawLabel(img draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
