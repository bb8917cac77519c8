package nerf

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// antiparallelTolerance is the smallest 1+cos(angle) for which the direct
// Rodrigues construction is used. Below it the vectors are treated as
// opposed and the half-turn fallback takes over.
const antiparallelTolerance = 1e-6

// WorldUp is the canonical up axis of the target convention
var WorldUp = r3.Vector{X: 0, Y: 0, Z: 1}

// UpVector returns the normalized sum of every pose's up column.
// A zero sum (or an empty set) returns the zero vector.
func UpVector(poses []Pose) r3.Vector {
	var sum r3.Vector
	for _, p := range poses {
		sum = sum.Add(p.Column(1))
	}
	return sum.Normalize()
}

// RotationBetween returns the rotation R such that R*a/|a| = b/|b|.
// Opposed inputs are handled with a half turn about an axis orthogonal to a,
// so the result is always a proper rotation and identical across runs.
// A zero-length input yields the identity.
func RotationBetween(a, b r3.Vector) Rotation3 {
	if a.Norm2() == 0 || b.Norm2() == 0 {
		return IdentityRotation()
	}
	a, b = a.Normalize(), b.Normalize()

	if 1+a.Dot(b) < antiparallelTolerance {
		flip := halfTurn(a.Ortho())
		return rodrigues(a.Mul(-1), b).Mul(flip)
	}
	return rodrigues(a, b)
}

// rodrigues expects unit vectors that are not opposed:
// R = I + [v]x + [v]x^2 / (1 + c) with v = a x b and c = a . b
func rodrigues(a, b r3.Vector) Rotation3 {
	v := a.Cross(b)
	c := a.Dot(b)

	k := Rotation3{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
	k2 := k.Mul(k)
	f := 1 / (1 + c)

	r := IdentityRotation()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] += k[i][j] + k2[i][j]*f
		}
	}
	return r
}

// halfTurn is the 180 degree rotation about unit axis n: 2nn^T - I
func halfTurn(n r3.Vector) Rotation3 {
	c := [3]float64{n.X, n.Y, n.Z}
	var r Rotation3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = 2 * c[i] * c[j]
		}
		r[i][i] -= 1
	}
	return r
}

// ApplyRotation left-multiplies every pose by r embedded in a 4x4 block.
// Orientation and position are both rotated about the origin.
func ApplyRotation(poses []Pose, r Rotation3) []Pose {
	h := r.Homogeneous().Dense()
	out := make([]Pose, len(poses))
	var prod mat.Dense
	for i, p := range poses {
		prod.Mul(h, p.Dense())
		out[i] = PoseFromDense(&prod)
	}
	return out
}

// AlignUp rotates the whole set so that its aggregate up direction points
// along target. It returns the rotated poses and the rotation used.
func AlignUp(poses []Pose, target r3.Vector) ([]Pose, Rotation3) {
	r := RotationBetween(UpVector(poses), target)
	return ApplyRotation(poses, r), r
}
