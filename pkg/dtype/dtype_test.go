package dtype_test

import (
	"encoding/json"
	"testing"

	"github.com/chazu/facet/pkg/dtype"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  dtype.Type
		want string
	}{
		{"None", dtype.None, "none"},
		{"Float", dtype.Float, "float"},
		{"IVec3", dtype.IVec3, "ivec3"},
		{"Geometry", dtype.Geometry, "geometry"},
		{"ArrayFloat", dtype.Array(dtype.Float), "array<float>"},
		{"NestedArray", dtype.Array(dtype.Array(dtype.Int)), "array<array<int>>"},
		{"Function", dtype.Function([]dtype.Type{dtype.Float, dtype.Int}, dtype.Geometry), "fn(float, int) -> geometry"},
		{"NullaryFunction", dtype.Function(nil, dtype.Bool), "fn() -> bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	types := []dtype.Type{
		dtype.None,
		dtype.Bool,
		dtype.String,
		dtype.Int,
		dtype.Float,
		dtype.Vec2,
		dtype.Vec3,
		dtype.IVec2,
		dtype.IVec3,
		dtype.Geometry2D,
		dtype.Geometry,
		dtype.Atomic,
		dtype.Array(dtype.Vec3),
		dtype.Array(dtype.Array(dtype.Float)),
		dtype.Function([]dtype.Type{dtype.Float}, dtype.Float),
		dtype.Function([]dtype.Type{dtype.Array(dtype.Int), dtype.Function([]dtype.Type{dtype.Int}, dtype.Float)}, dtype.Array(dtype.Float)),
		dtype.Function([]dtype.Type{dtype.Float}, dtype.Function([]dtype.Type{dtype.Int}, dtype.Float)),
		dtype.Function(nil, dtype.Function(nil, dtype.Bool)),
		dtype.Array(dtype.Function([]dtype.Type{dtype.Int}, dtype.Function(nil, dtype.Float))),
	}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			parsed, err := dtype.Parse(typ.String())
			if err != nil {
				t.Fatalf("Parse(%q): %v", typ.String(), err)
			}
			if !parsed.Equal(typ) {
				t.Errorf("Parse(%q) = %v, not structurally equal", typ.String(), parsed)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "floop", "array<floop>", "fn(float", "fn(float) - int"} {
		if _, err := dtype.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error, got none", s)
		}
	}
}

func TestEqualIsStructural(t *testing.T) {
	a := dtype.Array(dtype.Float)
	b := dtype.Array(dtype.Float)
	if !a.Equal(b) {
		t.Error("two independently built array<float> values must be equal")
	}
	if a.Equal(dtype.Array(dtype.Int)) {
		t.Error("array<float> must not equal array<int>")
	}
	f1 := dtype.Function([]dtype.Type{dtype.Float}, dtype.Int)
	f2 := dtype.Function([]dtype.Type{dtype.Float}, dtype.Int)
	f3 := dtype.Function([]dtype.Type{dtype.Float, dtype.Float}, dtype.Int)
	if !f1.Equal(f2) {
		t.Error("identical function types must be equal")
	}
	if f1.Equal(f3) {
		t.Error("function types with different arity must not be equal")
	}
}

func TestConvertibleTo(t *testing.T) {
	tests := []struct {
		name string
		from dtype.Type
		to   dtype.Type
		want bool
	}{
		{"Identity", dtype.Float, dtype.Float, true},
		{"IntToFloat", dtype.Int, dtype.Float, true},
		{"FloatToInt", dtype.Float, dtype.Int, true},
		{"IVec2ToVec2", dtype.IVec2, dtype.Vec2, true},
		{"Vec3ToIVec3", dtype.Vec3, dtype.IVec3, true},
		{"BoolToInt", dtype.Bool, dtype.Int, false},
		{"StringToFloat", dtype.String, dtype.Float, false},
		{"WidenToArray", dtype.Float, dtype.Array(dtype.Float), true},
		{"WidenWithCoercion", dtype.Int, dtype.Array(dtype.Float), true},
		{"WidenNested", dtype.Float, dtype.Array(dtype.Array(dtype.Float)), true},
		{"ArrayToScalar", dtype.Array(dtype.Float), dtype.Float, false},
		{"ArrayElemMismatch", dtype.Array(dtype.Int), dtype.Array(dtype.String), false},
		{"ArrayIdentity", dtype.Array(dtype.Geometry), dtype.Array(dtype.Geometry), true},
		{"GeometryToGeometry2D", dtype.Geometry, dtype.Geometry2D, false},
		{"FunctionIdentity", dtype.Function([]dtype.Type{dtype.Float}, dtype.Int), dtype.Function([]dtype.Type{dtype.Float}, dtype.Int), true},
		{"FunctionMismatch", dtype.Function([]dtype.Type{dtype.Float}, dtype.Int), dtype.Function([]dtype.Type{dtype.Int}, dtype.Int), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.ConvertibleTo(tt.to); got != tt.want {
				t.Errorf("%s.ConvertibleTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	typ := dtype.Function([]dtype.Type{dtype.Array(dtype.Vec3)}, dtype.Geometry)
	data, err := json.Marshal(typ)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back dtype.Type
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(typ) {
		t.Errorf("round trip changed type: %s -> %s", typ, back)
	}

	var empty dtype.Type
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if !empty.IsNone() {
		t.Errorf("empty string should decode to none, got %s", empty)
	}
}
