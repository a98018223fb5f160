package nodes

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// UnionData is the body of a union node: any number of geometry inputs
// merged into one.
type UnionData struct{}

var (
	_ eval.Body    = (*UnionData)(nil)
	_ eval.SDFBody = (*UnionData)(nil)
)

func (d *UnionData) CloneData() graph.NodeData { return &UnionData{} }

func (d *UnionData) Eval(call *eval.Call) (eval.Value, error) {
	geoms := call.Geometries(0)
	bounds := eval.EmptyBox()
	for _, g := range geoms {
		if !g.Empty {
			bounds = bounds.Union(g.Bounds)
		}
	}
	out := eval.NewGeometry(bounds)
	out.Empty = bounds.IsEmpty()
	return eval.GeomVal(out), nil
}

func (d *UnionData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	return call.SampleArg(0, p)
}

// IntersectData is the body of an intersect node.
type IntersectData struct{}

var (
	_ eval.Body    = (*IntersectData)(nil)
	_ eval.SDFBody = (*IntersectData)(nil)
)

func (d *IntersectData) CloneData() graph.NodeData { return &IntersectData{} }

func (d *IntersectData) Eval(call *eval.Call) (eval.Value, error) {
	geoms := call.Geometries(0)
	if len(geoms) == 0 {
		out := eval.NewGeometry(eval.EmptyBox())
		out.Empty = true
		return eval.GeomVal(out), nil
	}
	bounds := geoms[0].Bounds
	for _, g := range geoms[1:] {
		bounds = bounds.Intersect(g.Bounds)
	}
	out := eval.NewGeometry(bounds)
	out.Empty = bounds.IsEmpty()
	return eval.GeomVal(out), nil
}

func (d *IntersectData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	if len(call.Node.Args) == 0 || len(call.Node.Args[0].Wires) == 0 {
		return 0, fmt.Errorf("nodes: intersect has no inputs")
	}
	dist := math.Inf(-1)
	for _, w := range call.Node.Args[0].Wires {
		wd, err := call.SampleSource(w.Source, p)
		if err != nil {
			return 0, err
		}
		dist = math.Max(dist, wd)
	}
	return dist, nil
}

// DiffData is the body of a difference node: the base geometry minus every
// geometry wired into the second slot.
type DiffData struct{}

var (
	_ eval.Body    = (*DiffData)(nil)
	_ eval.SDFBody = (*DiffData)(nil)
)

func (d *DiffData) CloneData() graph.NodeData { return &DiffData{} }

func (d *DiffData) Eval(call *eval.Call) (eval.Value, error) {
	base := call.Arg(0)
	if base.Geom == nil {
		return eval.NoneVal(), fmt.Errorf("nodes: diff requires a base geometry")
	}
	out := eval.NewGeometry(base.Geom.Bounds)
	out.Frame = base.Geom.Frame
	out.Empty = base.Geom.Empty
	return eval.GeomVal(out), nil
}

func (d *DiffData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	base, err := call.SampleArg(0, p)
	if err != nil {
		return 0, err
	}
	if len(call.Node.Args) < 2 || len(call.Node.Args[1].Wires) == 0 {
		return base, nil
	}
	cut := math.Inf(1)
	for _, w := range call.Node.Args[1].Wires {
		wd, err := call.SampleSource(w.Source, p)
		if err != nil {
			return 0, err
		}
		cut = math.Min(cut, wd)
	}
	return math.Max(base, -cut), nil
}

// TranslateData is the body of a rigid-transform node: a wired translation
// plus a stored rotation in degrees, applied to the input geometry.
type TranslateData struct {
	Offset   eval.Vec3 `json:"offset"`
	Rotation eval.Vec3 `json:"rotation"` // Euler degrees, XYZ order
}

var (
	_ eval.Body    = (*TranslateData)(nil)
	_ eval.SDFBody = (*TranslateData)(nil)
)

func (d *TranslateData) CloneData() graph.NodeData { c := *d; return &c }

func (d *TranslateData) transform(offset eval.Vec3) eval.Transform {
	rad := math.Pi / 180
	rot := eval.EulerRotation(d.Rotation.X*rad, d.Rotation.Y*rad, d.Rotation.Z*rad)
	return eval.Translation(offset).Mul(rot)
}

func (d *TranslateData) Eval(call *eval.Call) (eval.Value, error) {
	in := call.Arg(0)
	if in.Geom == nil {
		return eval.NoneVal(), fmt.Errorf("nodes: translate requires a geometry input")
	}
	m := d.transform(call.Vec3Or(1, d.Offset))
	out := &eval.Geometry{
		Frame:  m.Mul(in.Geom.Frame),
		Bounds: in.Geom.Bounds.Transformed(m),
		Empty:  in.Geom.Empty,
	}
	return eval.GeomVal(out), nil
}

func (d *TranslateData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	offset := d.Offset
	if v, ok := call.DirectArg(1); ok {
		if vec, err := v.AsVec3(); err == nil {
			offset = vec
		}
	}
	local := d.transform(offset).Inverse().Apply(p)
	return call.SampleArg(0, local)
}

func (d *TranslateData) ProvideGadget(call *eval.Call, result eval.Value) any {
	if result.Geom == nil {
		return nil
	}
	return &TranslateGadget{Frame: result.Geom.Frame}
}

// TranslateGadget is the selection-cache payload for a move/rotate handle.
type TranslateGadget struct {
	Frame eval.Transform
}

func (d *TranslateData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "offset", Value: formatVec3(d.Offset)},
		{Name: "rotation", Value: formatVec3(d.Rotation)},
	}
}

func (d *TranslateData) SetTextProperty(name, value string) error {
	v, err := parseVec3(value)
	if err != nil {
		return fmt.Errorf("nodes: translate %s: %w", name, err)
	}
	switch name {
	case "offset":
		d.Offset = v
	case "rotation":
		d.Rotation = v
	default:
		return fmt.Errorf("nodes: translate has no property %q", name)
	}
	return nil
}
