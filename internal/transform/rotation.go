package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vector3 is a Cartesian position. The propagation code keeps every frame
// in kilometres.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

func (v Vector3) vec() *mat.VecDense {
	return mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
}

func sincosDeg(deg float64) (float64, float64) {
	return math.Sincos(deg * math.Pi / 180.0)
}

// RotZ returns the active rotation by deg degrees about the Z axis:
//
//	| cos -sin 0 |
//	| sin  cos 0 |
//	|  0    0  1 |
func RotZ(deg float64) *mat.Dense {
	s, c := sincosDeg(deg)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// RotX returns the active rotation by deg degrees about the X axis:
//
//	| 1  0    0   |
//	| 0 cos -sin  |
//	| 0 sin  cos  |
func RotX(deg float64) *mat.Dense {
	s, c := sincosDeg(deg)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// Apply returns m·v. m must be 3×3.
func Apply(m mat.Matrix, v Vector3) Vector3 {
	var out mat.VecDense
	out.MulVec(m, v.vec())
	return Vector3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// OrbitalToInertial rotates an in-plane position (u, v, 0), with u toward
// perigee, into the Earth-centred inertial frame:
//
//	xyz = Rz(Ω) · Rx(i) · Rz(ω) · (u, v, 0)
//
// All angles are in degrees.
func OrbitalToInertial(u, v, raan, incl, argPerigee float64) Vector3 {
	var ri, rio mat.Dense
	ri.Mul(RotZ(raan), RotX(incl))
	rio.Mul(&ri, RotZ(argPerigee))
	return Apply(&rio, Vector3{X: u, Y: v})
}

// InertialToEarthFixed rotates an inertial position into the Earth-fixed
// frame given the Greenwich sidereal angle in degrees: XYZ = Rz(-θG) · xyz.
// The Z component is unchanged.
func InertialToEarthFixed(r Vector3, siderealDeg float64) Vector3 {
	return Apply(RotZ(-siderealDeg), r)
}
