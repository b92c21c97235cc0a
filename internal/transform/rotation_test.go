package transform

import (
	"math"
	"testing"
)

func vecClose(a, b Vector3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestRotZ_QuarterTurn(t *testing.T) {
	got := Apply(RotZ(90), Vector3{X: 1})
	if !vecClose(got, Vector3{Y: 1}, 1e-12) {
		t.Errorf("Rz(90)·x = %+v, want +y", got)
	}
}

func TestRotX_QuarterTurn(t *testing.T) {
	got := Apply(RotX(90), Vector3{Y: 1})
	if !vecClose(got, Vector3{Z: 1}, 1e-12) {
		t.Errorf("Rx(90)·y = %+v, want +z", got)
	}
}

func TestOrbitalToInertial_ALOS(t *testing.T) {
	got := OrbitalToInertial(
		-6604.988543171416, -2532.5712758950845,
		209.36543153224508, 98.2104, -29.998127611534052,
	)
	want := Vector3{X: 6011.061655653171, Y: 3564.006359677208, Z: 1097.628062246536}
	if !vecClose(got, want, 1e-6) {
		t.Errorf("OrbitalToInertial = %+v, want %+v", got, want)
	}
}

func TestOrbitalToInertial_ZeroAnglesIsIdentity(t *testing.T) {
	got := OrbitalToInertial(7000, 10, 0, 0, 0)
	if !vecClose(got, Vector3{X: 7000, Y: 10}, 1e-9) {
		t.Errorf("identity rotation moved the vector: %+v", got)
	}
}

func TestInertialToEarthFixed(t *testing.T) {
	xyz := Vector3{X: 6011.061655653171, Y: 3564.006359677208, Z: 1097.628062246536}
	got := InertialToEarthFixed(xyz, 262.6657066750033)
	want := Vector3{X: -4302.208124560378, Y: 5506.905556921247, Z: 1097.628062246536}
	if !vecClose(got, want, 1e-6) {
		t.Errorf("InertialToEarthFixed = %+v, want %+v", got, want)
	}
	if got.Z != xyz.Z {
		t.Errorf("Z changed: %v -> %v", xyz.Z, got.Z)
	}
	if math.Abs(got.Norm()-xyz.Norm()) > 1e-9 {
		t.Errorf("rotation changed the norm: %v -> %v", xyz.Norm(), got.Norm())
	}
}
