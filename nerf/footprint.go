package nerf

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// View selects the world plane a trajectory is projected onto
type View string

const (
	ViewTop   View = "top"   // looking down -Z, plane XY
	ViewFront View = "front" // looking along +Y, plane XZ
	ViewSide  View = "side"  // looking along -X, plane YZ
)

// ParseView validates a view name. Empty selects ViewTop.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewTop:
		return ViewTop, nil
	case ViewFront, ViewSide:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q (want top, front or side)", s)
}

// Project drops the axis the view looks along
func (v View) Project(p r3.Vector) orb.Point {
	switch v {
	case ViewFront:
		return orb.Point{p.X, p.Z}
	case ViewSide:
		return orb.Point{p.Y, p.Z}
	default:
		return orb.Point{p.X, p.Y}
	}
}

// Trajectory projects camera positions onto the view plane in frame order
func Trajectory(poses []Pose, view View) orb.LineString {
	ls := make(orb.LineString, len(poses))
	for i, p := range poses {
		ls[i] = view.Project(p.Position())
	}
	return ls
}

// TrajectorySummary describes where the cameras ended up after conversion
type TrajectorySummary struct {
	Frames     int       `json:"frames"`
	Center     r3.Vector `json:"center"`
	MeanRadius float64   `json:"meanRadius"`
	MinHeight  float64   `json:"minHeight"`
	MaxHeight  float64   `json:"maxHeight"`
	Footprint  orb.Bound `json:"footprint"`  // XY bounds of camera positions
	PathLength float64   `json:"pathLength"` // XY length of the trajectory in frame order
	Keyframes  int       `json:"keyframes"`  // vertices left after path simplification
}

// SummarizeTrajectory computes a TrajectorySummary. simplifyTolerance is in
// world units; 0 keeps every vertex.
func SummarizeTrajectory(poses []Pose, simplifyTolerance float64) TrajectorySummary {
	s := TrajectorySummary{Frames: len(poses)}
	if len(poses) == 0 {
		return s
	}

	s.MinHeight, s.MaxHeight = math.Inf(1), math.Inf(-1)
	var sum r3.Vector
	for _, p := range poses {
		pos := p.Position()
		sum = sum.Add(pos)
		s.MeanRadius += pos.Norm()
		s.MinHeight = math.Min(s.MinHeight, pos.Z)
		s.MaxHeight = math.Max(s.MaxHeight, pos.Z)
	}
	n := float64(len(poses))
	s.Center = sum.Mul(1 / n)
	s.MeanRadius /= n

	ls := Trajectory(poses, ViewTop)
	s.Footprint = ls.Bound()
	s.PathLength = planar.Length(ls)
	s.Keyframes = len(SimplifyTrajectory(ls, simplifyTolerance))

	return s
}

// SimplifyTrajectory reduces a projected path with Douglas-Peucker
func SimplifyTrajectory(ls orb.LineString, tolerance float64) orb.LineString {
	if tolerance <= 0 || len(ls) < 3 {
		return ls
	}
	simplified, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
	if !ok {
		return ls
	}
	return simplified
}
