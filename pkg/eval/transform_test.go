package eval

import (
	"math"
	"testing"
)

func vecNear(a, b Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestTranslationApply(t *testing.T) {
	m := Translation(Vec3{X: 1, Y: 2, Z: 3})
	got := m.Apply(Vec3{X: 10, Y: 0, Z: -3})
	if !vecNear(got, Vec3{X: 11, Y: 2, Z: 0}) {
		t.Errorf("got %v", got)
	}
}

func TestRotationQuarterTurnZ(t *testing.T) {
	m := EulerRotation(0, 0, math.Pi/2)
	got := m.Apply(Vec3{X: 1})
	if !vecNear(got, Vec3{Y: 1}) {
		t.Errorf("rotating +X a quarter turn about Z gave %v, want +Y", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translation(Vec3{X: 3, Y: -1, Z: 2}).Mul(EulerRotation(0.3, -0.7, 1.1))
	inv := m.Inverse()
	for _, p := range []Vec3{{}, {X: 1}, {X: -2, Y: 4, Z: 0.5}} {
		back := inv.Apply(m.Apply(p))
		if !vecNear(back, p) {
			t.Errorf("inverse round trip of %v gave %v", p, back)
		}
	}
}

func TestMulComposesRightToLeft(t *testing.T) {
	rot := EulerRotation(0, 0, math.Pi/2)
	shift := Translation(Vec3{X: 1})
	// shift∘rot rotates first, then translates.
	got := shift.Mul(rot).Apply(Vec3{X: 1})
	if !vecNear(got, Vec3{X: 1, Y: 1}) {
		t.Errorf("got %v, want (1, 1, 0)", got)
	}
}

func TestBoxUnionIntersect(t *testing.T) {
	a := Box3{Min: Vec3{}, Max: Vec3{X: 2, Y: 2, Z: 2}}
	b := Box3{Min: Vec3{X: 1, Y: 1, Z: 1}, Max: Vec3{X: 3, Y: 3, Z: 3}}

	u := a.Union(b)
	if !vecNear(u.Min, Vec3{}) || !vecNear(u.Max, Vec3{X: 3, Y: 3, Z: 3}) {
		t.Errorf("union = %+v", u)
	}
	i := a.Intersect(b)
	if !vecNear(i.Min, Vec3{X: 1, Y: 1, Z: 1}) || !vecNear(i.Max, Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("intersect = %+v", i)
	}

	far := Box3{Min: Vec3{X: 10, Y: 10, Z: 10}, Max: Vec3{X: 11, Y: 11, Z: 11}}
	if disjoint := a.Intersect(far); !disjoint.IsEmpty() {
		t.Errorf("disjoint intersection = %+v, want empty", disjoint)
	}
}

func TestEmptyBoxUnionIsIdentity(t *testing.T) {
	a := Box3{Min: Vec3{X: -1, Y: -1, Z: -1}, Max: Vec3{X: 1, Y: 1, Z: 1}}
	got := EmptyBox().Union(a)
	if !vecNear(got.Min, a.Min) || !vecNear(got.Max, a.Max) {
		t.Errorf("empty union = %+v", got)
	}
	if !EmptyBox().IsEmpty() {
		t.Error("EmptyBox is not empty")
	}
}

func TestBoxTransformedContainsRotatedCorners(t *testing.T) {
	box := Box3{Min: Vec3{X: -1, Y: -1, Z: -1}, Max: Vec3{X: 1, Y: 1, Z: 1}}
	m := Translation(Vec3{X: 5}).Mul(EulerRotation(0, 0, math.Pi/4))
	moved := box.Transformed(m)

	// A rotated unit cube's axis-aligned bounds widen to sqrt(2).
	wantHalf := math.Sqrt2
	if math.Abs(moved.Max.X-(5+wantHalf)) > 1e-9 || math.Abs(moved.Min.X-(5-wantHalf)) > 1e-9 {
		t.Errorf("transformed bounds = %+v", moved)
	}
	if math.Abs(moved.Max.Z-1) > 1e-9 {
		t.Errorf("z extent changed under z-rotation: %+v", moved)
	}
}

func TestHalfDiagonal(t *testing.T) {
	box := Box3{Min: Vec3{}, Max: Vec3{X: 2, Y: 2, Z: 2}}
	want := math.Sqrt(3)
	if got := box.HalfDiagonal(); math.Abs(got-want) > 1e-9 {
		t.Errorf("half diagonal = %v, want %v", got, want)
	}
}
