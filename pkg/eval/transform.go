package eval

import "math"

// Transform is a rigid frame: a rotation matrix plus a translation. Geometry
// values carry their accumulated frame so gadgets and the implicit pass can
// map between node-local and world space.
type Transform struct {
	// R is row-major.
	R [9]float64
	T Vec3
}

// IdentityTransform returns the identity frame.
func IdentityTransform() Transform {
	return Transform{R: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Translation returns a pure translation frame.
func Translation(t Vec3) Transform {
	tr := IdentityTransform()
	tr.T = t
	return tr
}

// EulerRotation builds a rotation from Euler angles in radians, applied in
// X, Y, Z order.
func EulerRotation(x, y, z float64) Transform {
	cx, sx := math.Cos(x), math.Sin(x)
	cy, sy := math.Cos(y), math.Sin(y)
	cz, sz := math.Cos(z), math.Sin(z)
	rx := Transform{R: [9]float64{1, 0, 0, 0, cx, -sx, 0, sx, cx}}
	ry := Transform{R: [9]float64{cy, 0, sy, 0, 1, 0, -sy, 0, cy}}
	rz := Transform{R: [9]float64{cz, -sz, 0, sz, cz, 0, 0, 0, 1}}
	return rz.Mul(ry).Mul(rx)
}

// Mul composes frames: (a.Mul(b)).Apply(p) == a.Apply(b.Apply(p)).
func (a Transform) Mul(b Transform) Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += a.R[i*3+k] * b.R[k*3+j]
			}
			out.R[i*3+j] = s
		}
	}
	out.T = a.Apply(b.T)
	return out
}

// Apply maps a point through the frame.
func (a Transform) Apply(p Vec3) Vec3 {
	return Vec3{
		X: a.R[0]*p.X + a.R[1]*p.Y + a.R[2]*p.Z + a.T.X,
		Y: a.R[3]*p.X + a.R[4]*p.Y + a.R[5]*p.Z + a.T.Y,
		Z: a.R[6]*p.X + a.R[7]*p.Y + a.R[8]*p.Z + a.T.Z,
	}
}

// Inverse returns the inverse frame. Rigid transforms invert by transposing
// the rotation.
func (a Transform) Inverse() Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i*3+j] = a.R[j*3+i]
		}
	}
	nt := out.applyRotation(a.T)
	out.T = Vec3{-nt.X, -nt.Y, -nt.Z}
	return out
}

func (a Transform) applyRotation(p Vec3) Vec3 {
	return Vec3{
		X: a.R[0]*p.X + a.R[1]*p.Y + a.R[2]*p.Z,
		Y: a.R[3]*p.X + a.R[4]*p.Y + a.R[5]*p.Z,
		Z: a.R[6]*p.X + a.R[7]*p.Y + a.R[8]*p.Z,
	}
}

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox returns an inverted box that unions correctly with anything.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

// IsEmpty reports whether the box encloses no volume.
func (b Box3) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both.
func (b Box3) Union(o Box3) Box3 {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return Box3{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Intersect returns the overlap of both boxes, possibly empty.
func (b Box3) Intersect(o Box3) Box3 {
	return Box3{
		Min: Vec3{math.Max(b.Min.X, o.Min.X), math.Max(b.Min.Y, o.Min.Y), math.Max(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Min(b.Max.X, o.Max.X), math.Min(b.Max.Y, o.Max.Y), math.Min(b.Max.Z, o.Max.Z)},
	}
}

// Center returns the box midpoint.
func (b Box3) Center() Vec3 {
	return Vec3{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2, (b.Min.Z + b.Max.Z) / 2}
}

// Size returns the box extents.
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfDiagonal returns half the length of the box diagonal.
func (b Box3) HalfDiagonal() float64 {
	return b.Size().Length() / 2
}

// Grow expands the box by m on every side.
func (b Box3) Grow(m float64) Box3 {
	d := Vec3{m, m, m}
	return Box3{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Transformed returns the AABB of the box mapped through the frame.
func (b Box3) Transformed(t Transform) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				p := t.Apply(Vec3{x, y, z})
				out = out.Union(Box3{Min: p, Max: p})
			}
		}
	}
	return out
}

// Geometry is the direct-evaluation value of a geometry-typed node: the
// accumulated frame and a conservative world-space bound. The distance field
// itself is queried through the implicit pass, never stored here.
type Geometry struct {
	Frame  Transform
	Bounds Box3
	Empty  bool
}

// NewGeometry builds a geometry summary with an identity frame.
func NewGeometry(bounds Box3) *Geometry {
	return &Geometry{Frame: IdentityTransform(), Bounds: bounds}
}
