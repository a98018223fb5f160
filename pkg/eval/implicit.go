package eval

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// SamplesPerUnit is the default point-cloud sampling density.
const SamplesPerUnit = 4.0

// gradientEps is the step for one-sided difference gradients.
const gradientEps = 1e-4

// SDFBody is the per-sample behavior of geometry node types: the signed
// distance from p (node-local space) to the node's surface, negative inside.
// Scalar inputs come from the direct pass's results through the ImplicitCall
// helpers; a body must never trigger direct evaluation from inside Distance.
type SDFBody interface {
	Distance(call *ImplicitCall, p Vec3) (float64, error)
}

// Implicit runs per-sample signed-distance queries over a network that has
// already been through the direct pass. It walks the same frames, so scalar
// arguments and subnetwork structure are read, not recomputed.
type Implicit struct {
	Reg *registry.Registry
}

// ImplicitCall gives an SDFBody access to its node, frame and the evaluator
// for sampling upstream geometry.
type ImplicitCall struct {
	Node  *graph.Node
	Frame *Frame
	im    *Implicit
}

// Distance samples the signed distance of node id's geometry at p.
func (im *Implicit) Distance(frame *Frame, id graph.NodeID, p Vec3) (float64, error) {
	node := frame.Net.Nodes[id]
	if node == nil {
		return 0, fmt.Errorf("eval: implicit sample of missing node %d", id)
	}

	// Subnetwork call site: descend into the child frame built by the
	// direct pass and sample its return node.
	if sub := im.Reg.Network(node.TypeName); sub != nil {
		child := frame.Children[id]
		if child == nil {
			return 0, fmt.Errorf("eval: network %q was not direct-evaluated", sub.Name)
		}
		if sub.ReturnNode == 0 {
			return 0, fmt.Errorf("eval: network %q has no return node", sub.Name)
		}
		return im.Distance(child, sub.ReturnNode, p)
	}

	body, ok := node.Data.(SDFBody)
	if !ok {
		return 0, fmt.Errorf("eval: node type %q has no distance field", node.TypeName)
	}
	return body.Distance(&ImplicitCall{Node: node, Frame: frame, im: im}, p)
}

// Gradient estimates the distance-field gradient at p with one-sided
// differences, normalized. Degenerate gradients fall back to +Z.
func (im *Implicit) Gradient(frame *Frame, id graph.NodeID, p Vec3) (Vec3, error) {
	d0, err := im.Distance(frame, id, p)
	if err != nil {
		return Vec3{}, err
	}
	dx, err := im.Distance(frame, id, Vec3{p.X + gradientEps, p.Y, p.Z})
	if err != nil {
		return Vec3{}, err
	}
	dy, err := im.Distance(frame, id, Vec3{p.X, p.Y + gradientEps, p.Z})
	if err != nil {
		return Vec3{}, err
	}
	dz, err := im.Distance(frame, id, Vec3{p.X, p.Y, p.Z + gradientEps})
	if err != nil {
		return Vec3{}, err
	}
	g := Vec3{(dx - d0) / gradientEps, (dy - d0) / gradientEps, (dz - d0) / gradientEps}
	l := g.Length()
	if l < 1e-12 {
		return Vec3{0, 0, 1}, nil
	}
	return g.Scale(1 / l), nil
}

// SampleArg samples the signed distance of the geometry feeding slot i,
// taking the union (minimum) over every connected source.
func (c *ImplicitCall) SampleArg(i int, p Vec3) (float64, error) {
	if i < 0 || i >= len(c.Node.Args) {
		return 0, fmt.Errorf("eval: no geometry wired into slot %d of %q", i, c.Node.DisplayName())
	}
	wires := c.Node.Args[i].Wires
	if len(wires) == 0 {
		return 0, fmt.Errorf("eval: no geometry wired into slot %d of %q", i, c.Node.DisplayName())
	}
	d := math.Inf(1)
	for _, w := range wires {
		wd, err := c.im.Distance(c.Frame, w.Source, p)
		if err != nil {
			return 0, err
		}
		d = math.Min(d, wd)
	}
	return d, nil
}

// SampleSource samples one specific wire source.
func (c *ImplicitCall) SampleSource(id graph.NodeID, p Vec3) (float64, error) {
	return c.im.Distance(c.Frame, id, p)
}

// DirectArg reads the direct-pass value of slot i's first wire. This is how
// scalar inputs (radii, sizes, offsets) reach the per-sample inner loop
// without re-evaluating anything.
func (c *ImplicitCall) DirectArg(i int) (Value, bool) {
	if i < 0 || i >= len(c.Node.Args) {
		return NoneVal(), false
	}
	wires := c.Node.Args[i].Wires
	if len(wires) == 0 {
		return NoneVal(), false
	}
	v, ok := c.Frame.Results[wires[0].Source]
	return v, ok
}

// ParentParamDistance samples a geometry-typed parameter from the enclosing
// call site: union over the wires feeding the parameter's slot there. The
// bool result is false when unwired, so the parameter body can fall back to
// its default pin.
func (c *ImplicitCall) ParentParamDistance(id graph.ParamID, p Vec3) (float64, bool, error) {
	frame := c.Frame
	if frame.Caller == nil || frame.CallSite == nil {
		return 0, false, nil
	}
	idx := -1
	for i, param := range frame.Net.Type.Parameters {
		if param.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(frame.CallSite.Args) {
		return 0, false, nil
	}
	wires := frame.CallSite.Args[idx].Wires
	if len(wires) == 0 {
		return 0, false, nil
	}
	d := math.Inf(1)
	for _, w := range wires {
		wd, err := c.im.Distance(frame.Caller, w.Source, p)
		if err != nil {
			return 0, true, err
		}
		d = math.Min(d, wd)
	}
	return d, true, nil
}

// PointCloud is a sampled surface: one point and outward normal per sample.
type PointCloud struct {
	Points  []Vec3
	Normals []Vec3
}

// ExtractPointCloud samples node id's surface by recursive box subdivision:
// boxes whose center distance exceeds the half diagonal cannot contain
// surface and are pruned; boxes at the target resolution project their
// center onto the surface along the gradient.
func (im *Implicit) ExtractPointCloud(frame *Frame, id graph.NodeID, bounds Box3, samplesPerUnit float64) (*PointCloud, error) {
	if samplesPerUnit <= 0 {
		samplesPerUnit = SamplesPerUnit
	}
	if bounds.IsEmpty() {
		return &PointCloud{}, nil
	}
	cloud := &PointCloud{}
	minSize := 1.0 / samplesPerUnit
	if err := im.subdivide(frame, id, bounds.Grow(minSize), minSize, cloud); err != nil {
		return nil, err
	}
	return cloud, nil
}

func (im *Implicit) subdivide(frame *Frame, id graph.NodeID, box Box3, minSize float64, cloud *PointCloud) error {
	center := box.Center()
	d, err := im.Distance(frame, id, center)
	if err != nil {
		return err
	}
	if math.Abs(d) > box.HalfDiagonal() {
		return nil
	}
	size := box.Size()
	if size.X <= minSize && size.Y <= minSize && size.Z <= minSize {
		n, err := im.Gradient(frame, id, center)
		if err != nil {
			return err
		}
		cloud.Points = append(cloud.Points, center.Sub(n.Scale(d)))
		cloud.Normals = append(cloud.Normals, n)
		return nil
	}
	half := size.Scale(0.5)
	for ix := 0; ix < 2; ix++ {
		for iy := 0; iy < 2; iy++ {
			for iz := 0; iz < 2; iz++ {
				min := Vec3{
					X: box.Min.X + float64(ix)*half.X,
					Y: box.Min.Y + float64(iy)*half.Y,
					Z: box.Min.Z + float64(iz)*half.Z,
				}
				sub := Box3{Min: min, Max: min.Add(half)}
				if err := im.subdivide(frame, id, sub, minSize, cloud); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
