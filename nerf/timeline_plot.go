package nerf

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TimelineSeries returns camera height and distance from the origin against
// normalized time, one point per frame in manifest order
func TimelineSeries(m *Manifest) (height, radius plotter.XYs) {
	height = make(plotter.XYs, 0, len(m.Frames))
	radius = make(plotter.XYs, 0, len(m.Frames))
	for _, f := range m.Frames {
		pos := f.TransformMatrix.Position()
		height = append(height, plotter.XY{X: f.Time, Y: pos.Z})
		radius = append(radius, plotter.XY{X: f.Time, Y: pos.Norm()})
	}
	return height, radius
}

// SaveTimelinePlot writes a PNG (or any extension plot.Save supports) of
// camera height and radius over normalized time
func SaveTimelinePlot(m *Manifest, path string) error {
	if len(m.Frames) == 0 {
		return fmt.Errorf("no frames to plot")
	}

	height, radius := TimelineSeries(m)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Camera trajectory (%d frames)", len(m.Frames))
	p.X.Label.Text = "normalized time"
	p.Y.Label.Text = "world units"
	p.Add(plotter.NewGrid())

	heightLine, err := plotter.NewLine(height)
	if err != nil {
		return fmt.Errorf("height line: %w", err)
	}
	heightLine.Width = vg.Points(1)
	heightLine.Color = color.RGBA{R: 40, G: 80, B: 220, A: 255}

	radiusLine, err := plotter.NewLine(radius)
	if err != nil {
		return fmt.Errorf("radius line: %w", err)
	}
	radiusLine.Width = vg.Points(1)
	radiusLine.Color = color.RGBA{R: 230, G: 120, B: 20, A: 255}

	p.Add(heightLine, radiusLine)
	p.Legend.Add("height (z)", heightLine)
	p.Legend.Add("radius", radiusLine)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
