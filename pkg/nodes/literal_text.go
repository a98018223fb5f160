package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
)

// formatLiteral renders a scalar or vector value in the text-format literal
// syntax. It is the inverse of parseLiteral.
func formatLiteral(v eval.Value) string {
	switch v.Type.Kind {
	case dtype.KindBool:
		return strconv.FormatBool(v.Bool)
	case dtype.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case dtype.KindFloat:
		return formatFloat(v.Float)
	case dtype.KindString:
		return strconv.Quote(v.Str)
	case dtype.KindVec2:
		return fmt.Sprintf("(%s, %s)", formatFloat(v.V2.X), formatFloat(v.V2.Y))
	case dtype.KindVec3:
		return formatVec3(v.V3)
	case dtype.KindIVec2:
		return fmt.Sprintf("(%d, %d)", v.I2.X, v.I2.Y)
	case dtype.KindIVec3:
		return fmt.Sprintf("(%d, %d, %d)", v.I3.X, v.I3.Y, v.I3.Z)
	default:
		return ""
	}
}

// parseLiteral reads a literal in text-format syntax: booleans, ints,
// floats, quoted strings, and parenthesized 2- or 3-component vectors
// (integer components make an ivec, any float component a vec).
func parseLiteral(s string) (eval.Value, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return eval.NoneVal(), fmt.Errorf("empty literal")
	case "true":
		return eval.BoolVal(true), nil
	case "false":
		return eval.BoolVal(false), nil
	}
	if strings.HasPrefix(s, "\"") {
		str, err := strconv.Unquote(s)
		if err != nil {
			return eval.NoneVal(), fmt.Errorf("bad string literal %s", s)
		}
		return eval.StrVal(str), nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[1:len(s)-1], ",")
		if len(parts) != 2 && len(parts) != 3 {
			return eval.NoneVal(), fmt.Errorf("vector literal needs 2 or 3 components, got %d", len(parts))
		}
		ints := make([]int64, 0, len(parts))
		floats := make([]float64, 0, len(parts))
		allInts := true
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if n, err := strconv.ParseInt(part, 10, 64); err == nil && allInts {
				ints = append(ints, n)
				floats = append(floats, float64(n))
				continue
			}
			allInts = false
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return eval.NoneVal(), fmt.Errorf("bad vector component %q", part)
			}
			floats = append(floats, f)
		}
		switch {
		case allInts && len(parts) == 2:
			return eval.IVec2Val(eval.IVec2{X: ints[0], Y: ints[1]}), nil
		case allInts && len(parts) == 3:
			return eval.IVec3Val(eval.IVec3{X: ints[0], Y: ints[1], Z: ints[2]}), nil
		case len(parts) == 2:
			return eval.Vec2Val(eval.Vec2{X: floats[0], Y: floats[1]}), nil
		default:
			return eval.Vec3Val(eval.Vec3{X: floats[0], Y: floats[1], Z: floats[2]}), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return eval.IntVal(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return eval.FloatVal(f), nil
	}
	return eval.NoneVal(), fmt.Errorf("unrecognized literal %q", s)
}

// FormatLiteral is the exported text-boundary entry point.
func FormatLiteral(v eval.Value) string { return formatLiteral(v) }

// ParseLiteral is the exported text-boundary entry point.
func ParseLiteral(s string) (eval.Value, error) { return parseLiteral(s) }
