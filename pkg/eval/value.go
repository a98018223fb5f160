package eval

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/facet/pkg/dtype"
)

// Vec2 is a 2D float vector.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D float vector.
type Vec3 struct {
	X, Y, Z float64
}

// IVec2 is a 2D integer vector.
type IVec2 struct {
	X, Y int64
}

// IVec3 is a 3D integer vector.
type IVec3 struct {
	X, Y, Z int64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Length returns |v|.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Value is the tagged union of everything that can flow along a wire. The
// Type field is authoritative; exactly one payload field is meaningful for a
// given kind.
type Value struct {
	Type  dtype.Type
	Bool  bool
	Str   string
	Int   int64
	Float float64
	V2    Vec2
	V3    Vec3
	I2    IVec2
	I3    IVec3
	Geom  *Geometry
	Atoms *AtomSet
	Arr   []Value
	Fn    *Closure
}

// Atom is one placed atom of an atomic structure.
type Atom struct {
	Element string `json:"element"`
	Pos     Vec3   `json:"pos"`
}

// AtomSet is the payload of an atomic-typed value.
type AtomSet struct {
	Atoms []Atom
}

// Constructors.

func NoneVal() Value           { return Value{Type: dtype.None} }
func BoolVal(b bool) Value     { return Value{Type: dtype.Bool, Bool: b} }
func StrVal(s string) Value    { return Value{Type: dtype.String, Str: s} }
func IntVal(i int64) Value     { return Value{Type: dtype.Int, Int: i} }
func FloatVal(f float64) Value { return Value{Type: dtype.Float, Float: f} }
func Vec2Val(v Vec2) Value     { return Value{Type: dtype.Vec2, V2: v} }
func Vec3Val(v Vec3) Value     { return Value{Type: dtype.Vec3, V3: v} }
func IVec2Val(v IVec2) Value   { return Value{Type: dtype.IVec2, I2: v} }
func IVec3Val(v IVec3) Value   { return Value{Type: dtype.IVec3, I3: v} }

// GeomVal wraps a geometry summary.
func GeomVal(g *Geometry) Value { return Value{Type: dtype.Geometry, Geom: g} }

// AtomsVal wraps an atom set.
func AtomsVal(a *AtomSet) Value { return Value{Type: dtype.Atomic, Atoms: a} }

// ArrVal builds an array value of the given element type.
func ArrVal(elem dtype.Type, items []Value) Value {
	return Value{Type: dtype.Array(elem), Arr: items}
}

// FnVal wraps a closure.
func FnVal(c *Closure) Value {
	return Value{Type: dtype.Function(c.Params, c.Output), Fn: c}
}

// IsNone reports whether the value carries nothing.
func (v Value) IsNone() bool { return v.Type.IsNone() }

// String renders the value for logs and CLI output.
func (v Value) String() string {
	switch v.Type.Kind {
	case dtype.KindBool:
		return strconv.FormatBool(v.Bool)
	case dtype.KindString:
		return strconv.Quote(v.Str)
	case dtype.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case dtype.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case dtype.KindVec2:
		return fmt.Sprintf("(%g, %g)", v.V2.X, v.V2.Y)
	case dtype.KindVec3:
		return fmt.Sprintf("(%g, %g, %g)", v.V3.X, v.V3.Y, v.V3.Z)
	case dtype.KindIVec2:
		return fmt.Sprintf("(%d, %d)", v.I2.X, v.I2.Y)
	case dtype.KindIVec3:
		return fmt.Sprintf("(%d, %d, %d)", v.I3.X, v.I3.Y, v.I3.Z)
	case dtype.KindGeometry, dtype.KindGeometry2D:
		if v.Geom == nil || v.Geom.Empty {
			return "geometry (empty)"
		}
		size := v.Geom.Bounds.Size()
		return fmt.Sprintf("geometry %gx%gx%g", size.X, size.Y, size.Z)
	case dtype.KindAtomic:
		if v.Atoms == nil {
			return "atoms (empty)"
		}
		return fmt.Sprintf("atoms (%d)", len(v.Atoms.Atoms))
	case dtype.KindArray:
		parts := make([]string, len(v.Arr))
		for i, item := range v.Arr {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case dtype.KindFunction:
		return v.Type.String()
	default:
		return "none"
	}
}

// AsFloat reads the value as a float, accepting the int coercion.
func (v Value) AsFloat() (float64, error) {
	switch v.Type.Kind {
	case dtype.KindFloat:
		return v.Float, nil
	case dtype.KindInt:
		return float64(v.Int), nil
	}
	return 0, fmt.Errorf("eval: expected float, got %s", v.Type)
}

// AsInt reads the value as an int, accepting the float coercion (truncated).
func (v Value) AsInt() (int64, error) {
	switch v.Type.Kind {
	case dtype.KindInt:
		return v.Int, nil
	case dtype.KindFloat:
		return int64(v.Float), nil
	}
	return 0, fmt.Errorf("eval: expected int, got %s", v.Type)
}

// AsVec3 reads the value as a vec3, accepting the ivec3 coercion.
func (v Value) AsVec3() (Vec3, error) {
	switch v.Type.Kind {
	case dtype.KindVec3:
		return v.V3, nil
	case dtype.KindIVec3:
		return Vec3{float64(v.I3.X), float64(v.I3.Y), float64(v.I3.Z)}, nil
	}
	return Vec3{}, fmt.Errorf("eval: expected vec3, got %s", v.Type)
}

// AsVec2 reads the value as a vec2, accepting the ivec2 coercion.
func (v Value) AsVec2() (Vec2, error) {
	switch v.Type.Kind {
	case dtype.KindVec2:
		return v.V2, nil
	case dtype.KindIVec2:
		return Vec2{float64(v.I2.X), float64(v.I2.Y)}, nil
	}
	return Vec2{}, fmt.Errorf("eval: expected vec2, got %s", v.Type)
}

// AsBool reads the value as a bool.
func (v Value) AsBool() (bool, error) {
	if v.Type.Kind == dtype.KindBool {
		return v.Bool, nil
	}
	return false, fmt.Errorf("eval: expected bool, got %s", v.Type)
}

// AsString reads the value as a string.
func (v Value) AsString() (string, error) {
	if v.Type.Kind == dtype.KindString {
		return v.Str, nil
	}
	return "", fmt.Errorf("eval: expected string, got %s", v.Type)
}

// Convert coerces the value to dest following the one compatibility rule:
// identity, the declared numeric widenings, or wrapping into a one-element
// array. It fails for any other pair.
func (v Value) Convert(dest dtype.Type) (Value, error) {
	if v.Type.Equal(dest) {
		return v, nil
	}
	switch {
	case dest.Kind == dtype.KindFloat && v.Type.Kind == dtype.KindInt:
		return FloatVal(float64(v.Int)), nil
	case dest.Kind == dtype.KindInt && v.Type.Kind == dtype.KindFloat:
		return IntVal(int64(v.Float)), nil
	case dest.Kind == dtype.KindVec2 && v.Type.Kind == dtype.KindIVec2:
		return Vec2Val(Vec2{float64(v.I2.X), float64(v.I2.Y)}), nil
	case dest.Kind == dtype.KindIVec2 && v.Type.Kind == dtype.KindVec2:
		return IVec2Val(IVec2{int64(v.V2.X), int64(v.V2.Y)}), nil
	case dest.Kind == dtype.KindVec3 && v.Type.Kind == dtype.KindIVec3:
		return Vec3Val(Vec3{float64(v.I3.X), float64(v.I3.Y), float64(v.I3.Z)}), nil
	case dest.Kind == dtype.KindIVec3 && v.Type.Kind == dtype.KindVec3:
		return IVec3Val(IVec3{int64(v.V3.X), int64(v.V3.Y), int64(v.V3.Z)}), nil
	case dest.Kind == dtype.KindArray:
		elem, err := v.Convert(*dest.Elem)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: dest, Arr: []Value{elem}}, nil
	}
	return Value{}, fmt.Errorf("eval: cannot convert %s to %s", v.Type, dest)
}

// Neutral returns the well-defined empty value of a type, handed to
// dependents of a failed node so the pass can continue.
func Neutral(t dtype.Type) Value {
	switch t.Kind {
	case dtype.KindArray:
		return Value{Type: t}
	case dtype.KindGeometry, dtype.KindGeometry2D:
		return Value{Type: t, Geom: &Geometry{Empty: true}}
	case dtype.KindAtomic:
		return Value{Type: t, Atoms: &AtomSet{}}
	default:
		return Value{Type: t}
	}
}

// valueJSON is the persisted form of literal values (node configuration,
// subnetwork call-site literals). Geometry, atomic and function values are
// evaluation artifacts and have no persisted form.
type valueJSON struct {
	Type  dtype.Type      `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes scalar, vector and array values.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Type.Kind {
	case dtype.KindNone:
		payload = nil
	case dtype.KindBool:
		payload = v.Bool
	case dtype.KindString:
		payload = v.Str
	case dtype.KindInt:
		payload = v.Int
	case dtype.KindFloat:
		payload = v.Float
	case dtype.KindVec2:
		payload = []float64{v.V2.X, v.V2.Y}
	case dtype.KindVec3:
		payload = []float64{v.V3.X, v.V3.Y, v.V3.Z}
	case dtype.KindIVec2:
		payload = []int64{v.I2.X, v.I2.Y}
	case dtype.KindIVec3:
		payload = []int64{v.I3.X, v.I3.Y, v.I3.Z}
	case dtype.KindArray:
		payload = v.Arr
	default:
		return nil, fmt.Errorf("eval: %s values cannot be serialized", v.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.Type, Value: raw})
}

// UnmarshalJSON decodes the persisted literal form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Value{Type: in.Type}
	switch in.Type.Kind {
	case dtype.KindNone:
	case dtype.KindBool:
		if err := json.Unmarshal(in.Value, &out.Bool); err != nil {
			return err
		}
	case dtype.KindString:
		if err := json.Unmarshal(in.Value, &out.Str); err != nil {
			return err
		}
	case dtype.KindInt:
		if err := json.Unmarshal(in.Value, &out.Int); err != nil {
			return err
		}
	case dtype.KindFloat:
		if err := json.Unmarshal(in.Value, &out.Float); err != nil {
			return err
		}
	case dtype.KindVec2:
		var xs [2]float64
		if err := json.Unmarshal(in.Value, &xs); err != nil {
			return err
		}
		out.V2 = Vec2{xs[0], xs[1]}
	case dtype.KindVec3:
		var xs [3]float64
		if err := json.Unmarshal(in.Value, &xs); err != nil {
			return err
		}
		out.V3 = Vec3{xs[0], xs[1], xs[2]}
	case dtype.KindIVec2:
		var xs [2]int64
		if err := json.Unmarshal(in.Value, &xs); err != nil {
			return err
		}
		out.I2 = IVec2{xs[0], xs[1]}
	case dtype.KindIVec3:
		var xs [3]int64
		if err := json.Unmarshal(in.Value, &xs); err != nil {
			return err
		}
		out.I3 = IVec3{xs[0], xs[1], xs[2]}
	case dtype.KindArray:
		if err := json.Unmarshal(in.Value, &out.Arr); err != nil {
			return err
		}
	default:
		return fmt.Errorf("eval: %s values cannot be deserialized", in.Type)
	}
	*v = out
	return nil
}
