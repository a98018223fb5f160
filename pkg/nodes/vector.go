package nodes

import (
	"fmt"
	"strconv"

	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// Vec2Data is the body of a vec2 node: component pins with stored defaults.
type Vec2Data struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (d *Vec2Data) CloneData() graph.NodeData { c := *d; return &c }

func (d *Vec2Data) Eval(call *eval.Call) (eval.Value, error) {
	return eval.Vec2Val(eval.Vec2{
		X: call.FloatOr(0, d.X),
		Y: call.FloatOr(1, d.Y),
	}), nil
}

func (d *Vec2Data) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "x", Value: formatFloat(d.X)},
		{Name: "y", Value: formatFloat(d.Y)},
	}
}

func (d *Vec2Data) SetTextProperty(name, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("nodes: vec2 %s: %w", name, err)
	}
	switch name {
	case "x":
		d.X = f
	case "y":
		d.Y = f
	default:
		return fmt.Errorf("nodes: vec2 has no property %q", name)
	}
	return nil
}

// Vec3Data is the body of a vec3 node.
type Vec3Data struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (d *Vec3Data) CloneData() graph.NodeData { c := *d; return &c }

func (d *Vec3Data) Eval(call *eval.Call) (eval.Value, error) {
	return eval.Vec3Val(eval.Vec3{
		X: call.FloatOr(0, d.X),
		Y: call.FloatOr(1, d.Y),
		Z: call.FloatOr(2, d.Z),
	}), nil
}

func (d *Vec3Data) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "x", Value: formatFloat(d.X)},
		{Name: "y", Value: formatFloat(d.Y)},
		{Name: "z", Value: formatFloat(d.Z)},
	}
}

func (d *Vec3Data) SetTextProperty(name, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("nodes: vec3 %s: %w", name, err)
	}
	switch name {
	case "x":
		d.X = f
	case "y":
		d.Y = f
	case "z":
		d.Z = f
	default:
		return fmt.Errorf("nodes: vec3 has no property %q", name)
	}
	return nil
}

// IVec2Data is the body of an ivec2 node.
type IVec2Data struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

func (d *IVec2Data) CloneData() graph.NodeData { c := *d; return &c }

func (d *IVec2Data) Eval(call *eval.Call) (eval.Value, error) {
	return eval.IVec2Val(eval.IVec2{
		X: call.IntOr(0, d.X),
		Y: call.IntOr(1, d.Y),
	}), nil
}

func (d *IVec2Data) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "x", Value: strconv.FormatInt(d.X, 10)},
		{Name: "y", Value: strconv.FormatInt(d.Y, 10)},
	}
}

func (d *IVec2Data) SetTextProperty(name, value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("nodes: ivec2 %s: %w", name, err)
	}
	switch name {
	case "x":
		d.X = n
	case "y":
		d.Y = n
	default:
		return fmt.Errorf("nodes: ivec2 has no property %q", name)
	}
	return nil
}

// IVec3Data is the body of an ivec3 node.
type IVec3Data struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

func (d *IVec3Data) CloneData() graph.NodeData { c := *d; return &c }

func (d *IVec3Data) Eval(call *eval.Call) (eval.Value, error) {
	return eval.IVec3Val(eval.IVec3{
		X: call.IntOr(0, d.X),
		Y: call.IntOr(1, d.Y),
		Z: call.IntOr(2, d.Z),
	}), nil
}

func (d *IVec3Data) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "x", Value: strconv.FormatInt(d.X, 10)},
		{Name: "y", Value: strconv.FormatInt(d.Y, 10)},
		{Name: "z", Value: strconv.FormatInt(d.Z, 10)},
	}
}

func (d *IVec3Data) SetTextProperty(name, value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("nodes: ivec3 %s: %w", name, err)
	}
	switch name {
	case "x":
		d.X = n
	case "y":
		d.Y = n
	case "z":
		d.Z = n
	default:
		return fmt.Errorf("nodes: ivec3 has no property %q", name)
	}
	return nil
}
