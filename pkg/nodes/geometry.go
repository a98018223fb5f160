package nodes

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// SphereData is the body of a sphere node. Radius and center are pins with
// stored fallbacks.
type SphereData struct {
	Radius float64   `json:"radius"`
	Center eval.Vec3 `json:"center"`
}

var (
	_ eval.Body    = (*SphereData)(nil)
	_ eval.SDFBody = (*SphereData)(nil)
)

func (d *SphereData) CloneData() graph.NodeData { c := *d; return &c }

func (d *SphereData) radius(call *eval.Call) (float64, error) {
	r := call.FloatOr(0, d.Radius)
	if r <= 0 {
		return 0, fmt.Errorf("nodes: sphere radius must be positive, got %v", r)
	}
	return r, nil
}

func (d *SphereData) Eval(call *eval.Call) (eval.Value, error) {
	r, err := d.radius(call)
	if err != nil {
		return eval.NoneVal(), err
	}
	c := call.Vec3Or(1, d.Center)
	g := eval.NewGeometry(eval.Box3{
		Min: c.Sub(eval.Vec3{X: r, Y: r, Z: r}),
		Max: c.Add(eval.Vec3{X: r, Y: r, Z: r}),
	})
	g.Frame = eval.Translation(c)
	return eval.GeomVal(g), nil
}

func (d *SphereData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	r := d.Radius
	if v, ok := call.DirectArg(0); ok {
		if f, err := v.AsFloat(); err == nil {
			r = f
		}
	}
	c := d.Center
	if v, ok := call.DirectArg(1); ok {
		if vec, err := v.AsVec3(); err == nil {
			c = vec
		}
	}
	return p.Sub(c).Length() - r, nil
}

func (d *SphereData) ProvideGadget(call *eval.Call, result eval.Value) any {
	if result.Geom == nil {
		return nil
	}
	return &SphereGadget{Center: result.Geom.Frame.T, Radius: d.Radius}
}

// SphereGadget is the selection-cache payload interactive tooling reads to
// drive a radius handle.
type SphereGadget struct {
	Center eval.Vec3
	Radius float64
}

func (d *SphereData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "radius", Value: formatFloat(d.Radius)},
		{Name: "center", Value: formatVec3(d.Center)},
	}
}

func (d *SphereData) SetTextProperty(name, value string) error {
	switch name {
	case "radius":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("nodes: sphere radius: %w", err)
		}
		d.Radius = f
	case "center":
		v, err := parseVec3(value)
		if err != nil {
			return fmt.Errorf("nodes: sphere center: %w", err)
		}
		d.Center = v
	default:
		return fmt.Errorf("nodes: sphere has no property %q", name)
	}
	return nil
}

// CuboidData is the body of an axis-aligned cuboid node.
type CuboidData struct {
	Size   eval.Vec3 `json:"size"`
	Center eval.Vec3 `json:"center"`
}

var (
	_ eval.Body    = (*CuboidData)(nil)
	_ eval.SDFBody = (*CuboidData)(nil)
)

func (d *CuboidData) CloneData() graph.NodeData { c := *d; return &c }

func (d *CuboidData) Eval(call *eval.Call) (eval.Value, error) {
	size := call.Vec3Or(0, d.Size)
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return eval.NoneVal(), fmt.Errorf("nodes: cuboid size must be positive, got %v", size)
	}
	c := call.Vec3Or(1, d.Center)
	half := size.Scale(0.5)
	g := eval.NewGeometry(eval.Box3{Min: c.Sub(half), Max: c.Add(half)})
	g.Frame = eval.Translation(c)
	return eval.GeomVal(g), nil
}

func (d *CuboidData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	size := d.Size
	if v, ok := call.DirectArg(0); ok {
		if vec, err := v.AsVec3(); err == nil {
			size = vec
		}
	}
	c := d.Center
	if v, ok := call.DirectArg(1); ok {
		if vec, err := v.AsVec3(); err == nil {
			c = vec
		}
	}
	q := eval.Vec3{
		X: math.Abs(p.X-c.X) - size.X/2,
		Y: math.Abs(p.Y-c.Y) - size.Y/2,
		Z: math.Abs(p.Z-c.Z) - size.Z/2,
	}
	outside := eval.Vec3{X: math.Max(q.X, 0), Y: math.Max(q.Y, 0), Z: math.Max(q.Z, 0)}
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside.Length() + inside, nil
}

func (d *CuboidData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "size", Value: formatVec3(d.Size)},
		{Name: "center", Value: formatVec3(d.Center)},
	}
}

func (d *CuboidData) SetTextProperty(name, value string) error {
	v, err := parseVec3(value)
	if err != nil {
		return fmt.Errorf("nodes: cuboid %s: %w", name, err)
	}
	switch name {
	case "size":
		d.Size = v
	case "center":
		d.Center = v
	default:
		return fmt.Errorf("nodes: cuboid has no property %q", name)
	}
	return nil
}

// HalfSpaceData is the body of a half-space node: all points p with
// dot(p, normal) <= offset. Unbounded, so its summary bound is a large box.
type HalfSpaceData struct {
	Normal eval.Vec3 `json:"normal"`
	Offset float64   `json:"offset"`
}

var (
	_ eval.Body    = (*HalfSpaceData)(nil)
	_ eval.SDFBody = (*HalfSpaceData)(nil)
)

// halfSpaceExtent bounds the renderable portion of an unbounded half space.
const halfSpaceExtent = 100.0

func (d *HalfSpaceData) CloneData() graph.NodeData { c := *d; return &c }

func (d *HalfSpaceData) Eval(call *eval.Call) (eval.Value, error) {
	n := call.Vec3Or(0, d.Normal)
	if n.Length() < 1e-12 {
		n = eval.Vec3{Z: 1}
	}
	e := halfSpaceExtent
	g := eval.NewGeometry(eval.Box3{
		Min: eval.Vec3{X: -e, Y: -e, Z: -e},
		Max: eval.Vec3{X: e, Y: e, Z: e},
	})
	return eval.GeomVal(g), nil
}

func (d *HalfSpaceData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	n := d.Normal
	if v, ok := call.DirectArg(0); ok {
		if vec, err := v.AsVec3(); err == nil {
			n = vec
		}
	}
	if n.Length() < 1e-12 {
		n = eval.Vec3{Z: 1}
	}
	n = n.Scale(1 / n.Length())
	off := d.Offset
	if v, ok := call.DirectArg(1); ok {
		if f, err := v.AsFloat(); err == nil {
			off = f
		}
	}
	return p.X*n.X + p.Y*n.Y + p.Z*n.Z - off, nil
}

func (d *HalfSpaceData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "normal", Value: formatVec3(d.Normal)},
		{Name: "offset", Value: formatFloat(d.Offset)},
	}
}

func (d *HalfSpaceData) SetTextProperty(name, value string) error {
	switch name {
	case "normal":
		v, err := parseVec3(value)
		if err != nil {
			return fmt.Errorf("nodes: halfspace normal: %w", err)
		}
		d.Normal = v
	case "offset":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("nodes: halfspace offset: %w", err)
		}
		d.Offset = f
	default:
		return fmt.Errorf("nodes: halfspace has no property %q", name)
	}
	return nil
}

func formatVec3(v eval.Vec3) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
}

func parseVec3(s string) (eval.Vec3, error) {
	var v eval.Vec3
	if _, err := fmt.Sscanf(s, "(%g, %g, %g)", &v.X, &v.Y, &v.Z); err != nil {
		return eval.Vec3{}, fmt.Errorf("expected (x, y, z), got %q", s)
	}
	return v, nil
}
