package eval

import (
	"context"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// Body is the evaluation behavior of a node type. Built-in node bodies
// implement it; subnetwork call sites are handled by the evaluator itself.
type Body interface {
	Eval(call *Call) (Value, error)
}

// GadgetProvider is implemented by bodies that can describe an interactive
// edit gadget for the node. The evaluator queries it only for the selected
// node; the result lands in the scene's selection cache.
type GadgetProvider interface {
	ProvideGadget(call *Call, result Value) any
}

// LiteralProvider is implemented by call-site bodies that carry literal
// values for subnetwork parameters. Parameter nodes consult it when no wire
// feeds their slot.
type LiteralProvider interface {
	ParamLiteral(id graph.ParamID) (Value, bool)
}

// Frame is one level of the network stack during a pass: the network being
// evaluated, the call site that entered it, and the per-node results and
// errors produced so far. Child frames are retained so the implicit pass can
// reuse direct results.
type Frame struct {
	Net      *graph.NodeNetwork
	Caller   *Frame
	CallSite *graph.Node
	Results  map[graph.NodeID]Value
	Errors   map[graph.NodeID]string
	Children map[graph.NodeID]*Frame
}

func newFrame(net *graph.NodeNetwork, caller *Frame, callSite *graph.Node) *Frame {
	return &Frame{
		Net:      net,
		Caller:   caller,
		CallSite: callSite,
		Results:  make(map[graph.NodeID]Value),
		Errors:   make(map[graph.NodeID]string),
		Children: make(map[graph.NodeID]*Frame),
	}
}

// Context is the mutable bag of state threaded through one evaluation pass.
type Context struct {
	Ctx context.Context
	Reg *registry.Registry

	// Selected is the currently selected node of the root network; its body
	// may deposit a gadget descriptor in SelectionCache.
	Selected       graph.NodeID
	SelectionCache any

	// Cancelled is set when Ctx was cancelled mid-pass; results computed so
	// far stay valid.
	Cancelled bool

	evaluator *Evaluator
}

// NewContext builds a pass context over the given registry.
func NewContext(ctx context.Context, reg *registry.Registry) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Ctx: ctx, Reg: reg}
}

// Implicit returns an implicit evaluator sharing this pass's registry, for
// bodies that sample geometry (atom fill and friends).
func (c *Context) Implicit() *Implicit {
	return &Implicit{Reg: c.Reg}
}

// Call carries everything a node body sees during evaluation: the node, its
// frame, and its resolved argument values (one per parameter slot,
// array-typed slots already concatenated; unwired slots hold None).
type Call struct {
	Node  *graph.Node
	Frame *Frame
	Args  []Value
	Ctx   *Context
}

// Arg returns the resolved value of slot i, or None when out of range.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return NoneVal()
	}
	return c.Args[i]
}

// Float reads slot i as a float.
func (c *Call) Float(i int) (float64, bool) {
	f, err := c.Arg(i).AsFloat()
	return f, err == nil
}

// FloatOr reads slot i as a float, with a default for unwired slots.
func (c *Call) FloatOr(i int, def float64) float64 {
	if f, ok := c.Float(i); ok {
		return f
	}
	return def
}

// Int reads slot i as an int.
func (c *Call) Int(i int) (int64, bool) {
	n, err := c.Arg(i).AsInt()
	return n, err == nil
}

// IntOr reads slot i as an int, with a default for unwired slots.
func (c *Call) IntOr(i int, def int64) int64 {
	if n, ok := c.Int(i); ok {
		return n
	}
	return def
}

// Vec3Or reads slot i as a vec3, with a default for unwired slots.
func (c *Call) Vec3Or(i int, def Vec3) Vec3 {
	if v, err := c.Arg(i).AsVec3(); err == nil {
		return v
	}
	return def
}

// Geometries returns every geometry payload of an array-typed geometry slot.
func (c *Call) Geometries(i int) []*Geometry {
	v := c.Arg(i)
	var out []*Geometry
	switch {
	case v.Type.IsArray():
		for _, item := range v.Arr {
			if item.Geom != nil {
				out = append(out, item.Geom)
			}
		}
	case v.Geom != nil:
		out = append(out, v.Geom)
	}
	return out
}

// ParentParamValue resolves a parameter's value from the enclosing call
// site: the concatenation of every wire feeding the parameter's slot there.
// The second result is false when the frame has no caller or the slot is
// unwired, in which case the parameter body falls back to a call-site
// literal or its own default pin.
func (c *Call) ParentParamValue(id graph.ParamID, paramType dtype.Type) (Value, bool) {
	frame := c.Frame
	if frame.Caller == nil || frame.CallSite == nil {
		return NoneVal(), false
	}
	idx := -1
	for i, p := range frame.Net.Type.Parameters {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(frame.CallSite.Args) {
		return NoneVal(), false
	}
	wires := frame.CallSite.Args[idx].Wires
	if len(wires) == 0 {
		return NoneVal(), false
	}
	return gatherWires(frame.Caller, wires, paramType), true
}

// CallSiteLiteral looks up a stored literal for the parameter on the
// enclosing call site.
func (c *Call) CallSiteLiteral(id graph.ParamID) (Value, bool) {
	frame := c.Frame
	if frame.CallSite == nil || frame.CallSite.Data == nil {
		return NoneVal(), false
	}
	lp, ok := frame.CallSite.Data.(LiteralProvider)
	if !ok {
		return NoneVal(), false
	}
	return lp.ParamLiteral(id)
}
