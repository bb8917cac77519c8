package nerf

import (
	"errors"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrNoRayIntersections is returned when no pair of camera rays is
// well-conditioned enough to estimate a centroid.
var ErrNoRayIntersections = errors.New("no usable camera ray intersections")

const (
	// DefaultMinRayWeight drops ray pairs that are close to parallel
	DefaultMinRayWeight = 0.01
	// DefaultTargetRadius is the mean camera distance after recentering
	DefaultTargetRadius = 4.0
)

// ClosestPointTwoRays returns the point midway between the closest points of
// the rays oa+ta*da and ob+tb*db, with both parameters clamped to <= 0, and a
// weight |da x db|^2 (directions normalized) that goes to zero as the rays
// become parallel.
func ClosestPointTwoRays(oa, da, ob, db r3.Vector) (r3.Vector, float64) {
	da = da.Normalize()
	db = db.Normalize()
	c := da.Cross(db)
	denom := c.Norm2()
	t := ob.Sub(oa)

	ta := det3(t, db, c) / (denom + 1e-10)
	tb := det3(t, da, c) / (denom + 1e-10)
	if ta > 0 {
		ta = 0
	}
	if tb > 0 {
		tb = 0
	}

	pa := oa.Add(da.Mul(ta))
	pb := ob.Add(db.Mul(tb))
	return pa.Add(pb).Mul(0.5), denom
}

// det3 is the determinant of the matrix whose rows are a, b and c
func det3(a, b, c r3.Vector) float64 {
	return mat.Det(mat.NewDense(3, 3, []float64{
		a.X, a.Y, a.Z,
		b.X, b.Y, b.Z,
		c.X, c.Y, c.Z,
	}))
}

// EstimateCentroid intersects the viewing ray (position, back axis) of every
// pair of cameras and returns the weight-averaged intersection point. Pairs
// with weight <= minWeight are skipped.
func EstimateCentroid(poses []Pose, minWeight float64) (r3.Vector, error) {
	var total r3.Vector
	var totalWeight float64

	for i := range poses {
		oa, da := poses[i].Position(), poses[i].Column(2)
		for j := i + 1; j < len(poses); j++ {
			p, w := ClosestPointTwoRays(oa, da, poses[j].Position(), poses[j].Column(2))
			if w > minWeight {
				total = total.Add(p.Mul(w))
				totalWeight += w
			}
		}
	}

	if totalWeight == 0 {
		return r3.Vector{}, ErrNoRayIntersections
	}
	return total.Mul(1 / totalWeight), nil
}

// Recenter translates every position by -centroid and then scales positions
// so their mean distance from the origin equals targetRadius. When every
// camera sits on the centroid the scale step is skipped.
func Recenter(poses []Pose, centroid r3.Vector, targetRadius float64) []Pose {
	out := make([]Pose, len(poses))
	var sumLen float64
	for i, p := range poses {
		p.SetPosition(p.Position().Sub(centroid))
		out[i] = p
		sumLen += p.Position().Norm()
	}
	if len(out) == 0 || sumLen == 0 {
		return out
	}

	scale := targetRadius / (sumLen / float64(len(out)))
	for i := range out {
		out[i].SetPosition(out[i].Position().Mul(scale))
	}
	return out
}

// RefinePoses runs EstimateCentroid followed by Recenter
func RefinePoses(poses []Pose, minWeight, targetRadius float64) ([]Pose, r3.Vector, error) {
	centroid, err := EstimateCentroid(poses, minWeight)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	return Recenter(poses, centroid, targetRadius), centroid, nil
}
