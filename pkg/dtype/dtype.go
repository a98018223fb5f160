// Package dtype defines the closed set of value types flowing through a
// node network and the single compatibility rule used by every wire check.
package dtype

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind enumerates the built-in type constructors.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindString
	KindInt
	KindFloat
	KindVec2
	KindVec3
	KindIVec2
	KindIVec3
	KindGeometry2D
	KindGeometry
	KindAtomic
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindIVec2:
		return "ivec2"
	case KindIVec3:
		return "ivec3"
	case KindGeometry2D:
		return "geometry2d"
	case KindGeometry:
		return "geometry"
	case KindAtomic:
		return "atomic"
	case KindArray:
		return "array"
	case KindFunction:
		return "fn"
	default:
		return "unknown"
	}
}

// Type is a structural description of a value type. Scalar and domain types
// carry only a Kind; arrays carry an element type; functions carry parameter
// types and an output type.
type Type struct {
	Kind   Kind
	Elem   *Type  // array element type, or function output type
	Params []Type // function parameter types
}

// Scalar constructors.
var (
	None       = Type{Kind: KindNone}
	Bool       = Type{Kind: KindBool}
	String     = Type{Kind: KindString}
	Int        = Type{Kind: KindInt}
	Float      = Type{Kind: KindFloat}
	Vec2       = Type{Kind: KindVec2}
	Vec3       = Type{Kind: KindVec3}
	IVec2      = Type{Kind: KindIVec2}
	IVec3      = Type{Kind: KindIVec3}
	Geometry2D = Type{Kind: KindGeometry2D}
	Geometry   = Type{Kind: KindGeometry}
	Atomic     = Type{Kind: KindAtomic}
)

// Array returns the array type with the given element type.
func Array(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// Function returns the function type with the given parameter and output types.
func Function(params []Type, output Type) Type {
	o := output
	return Type{Kind: KindFunction, Elem: &o, Params: params}
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool { return t.Kind == KindArray }

// IsNone reports whether t is the none type.
func (t Type) IsNone() bool { return t.Kind == KindNone }

// Equal reports structural equality.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if (t.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if t.Elem != nil && !t.Elem.Equal(*other.Elem) {
		return false
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	return true
}

// numericWidening holds the explicitly allowed scalar conversions. Nothing
// beyond these pairs is coercible; further rules are a design decision, not
// an inferred requirement.
var numericWidening = map[[2]Kind]bool{
	{KindInt, KindFloat}:   true,
	{KindFloat, KindInt}:   true,
	{KindIVec2, KindVec2}:  true,
	{KindVec2, KindIVec2}:  true,
	{KindIVec3, KindVec3}:  true,
	{KindVec3, KindIVec3}:  true,
}

// ConvertibleTo reports whether a value of type t may feed an input of type
// dest. This is the one compatibility rule in the system: exact structural
// equality, the declared numeric widenings, or widening a bare value into a
// one-element array when dest is Array(T) and t converts to T.
func (t Type) ConvertibleTo(dest Type) bool {
	if t.Equal(dest) {
		return true
	}
	if numericWidening[[2]Kind{t.Kind, dest.Kind}] {
		return true
	}
	if dest.Kind == KindArray && t.ConvertibleTo(*dest.Elem) {
		return true
	}
	return false
}

// String renders the type in the text-format syntax, e.g. "float",
// "array<vec3>", "fn(float, int) -> geometry".
func (t Type) String() string {
	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("array<%s>", t.Elem)
	case KindFunction:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), t.Elem)
	default:
		return t.Kind.String()
	}
}

// Parse converts the textual form produced by String back into a Type.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "array<") && strings.HasSuffix(s, ">") {
		elem, err := Parse(s[len("array<") : len(s)-1])
		if err != nil {
			return None, err
		}
		return Array(elem), nil
	}
	if strings.HasPrefix(s, "fn(") {
		// The parameter list ends at the matching top-level ")"; the output
		// type after the arrow may itself be a function.
		depth := 0
		end := -1
		for i := len("fn(") - 1; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			return None, fmt.Errorf("dtype: malformed function type %q", s)
		}
		rest := strings.TrimSpace(s[end+1:])
		if !strings.HasPrefix(rest, "->") {
			return None, fmt.Errorf("dtype: malformed function type %q", s)
		}
		var params []Type
		inner := strings.TrimSpace(s[len("fn("):end])
		if inner != "" {
			for _, part := range splitTopLevel(inner) {
				p, err := Parse(part)
				if err != nil {
					return None, err
				}
				params = append(params, p)
			}
		}
		out, err := Parse(rest[2:])
		if err != nil {
			return None, err
		}
		return Function(params, out), nil
	}
	for k := KindNone; k <= KindAtomic; k++ {
		if k.String() == s {
			return Type{Kind: k}, nil
		}
	}
	return None, fmt.Errorf("dtype: unknown type %q", s)
}

// splitTopLevel splits a comma-separated list without breaking inside
// angle brackets or parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// MarshalJSON encodes the type as its textual form.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the textual form. An empty string decodes to None so
// that older persisted files lacking type fields load cleanly.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = None
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
