package eval

import (
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// Evaluator runs the direct pass: a single deterministic topological
// evaluation of every node contributing to a requested root. It holds no
// state between passes; all per-pass state lives in the Context and Frame.
type Evaluator struct {
	Reg *registry.Registry
}

// New returns an evaluator over the given registry.
func New(reg *registry.Registry) *Evaluator {
	return &Evaluator{Reg: reg}
}

// Evaluate runs the direct pass for root within nw and returns the root's
// value together with the root frame. Node failures never abort the pass;
// they are recorded in the frame's error map and replaced by neutral values.
// The only hard error is a missing root node.
func (e *Evaluator) Evaluate(ctx *Context, nw *graph.NodeNetwork, root graph.NodeID) (Value, *Frame, error) {
	if nw.Nodes[root] == nil {
		return NoneVal(), nil, fmt.Errorf("eval: network %q has no node %d", nw.Name, root)
	}
	ctx.evaluator = e
	frame := newFrame(nw, nil, nil)
	v := e.evalNode(ctx, frame, root)
	return v, frame, nil
}

// EvaluateInto behaves like Evaluate but reuses an existing root frame, so
// several displayed roots of one network share memoized results within a
// single pass.
func (e *Evaluator) EvaluateInto(ctx *Context, frame *Frame, root graph.NodeID) (Value, error) {
	if frame.Net.Nodes[root] == nil {
		return NoneVal(), fmt.Errorf("eval: network %q has no node %d", frame.Net.Name, root)
	}
	ctx.evaluator = e
	return e.evalNode(ctx, frame, root), nil
}

// NewRootFrame creates an empty frame for nw, for use with EvaluateInto.
func (e *Evaluator) NewRootFrame(nw *graph.NodeNetwork) *Frame {
	return newFrame(nw, nil, nil)
}

// evalNode computes one node's value, memoized per frame. Argument sources
// are evaluated first, in slot then wire order, which fixes the topological
// order deterministically; the graph invariant guarantees no cycles.
func (e *Evaluator) evalNode(ctx *Context, frame *Frame, id graph.NodeID) Value {
	if v, done := frame.Results[id]; done {
		return v
	}
	if ctx.Ctx.Err() != nil {
		ctx.Cancelled = true
		return NoneVal()
	}

	node := frame.Net.Nodes[id]
	if node == nil {
		return NoneVal()
	}

	base := e.Reg.Lookup(node.TypeName)
	if base == nil {
		return e.fail(frame, node, dtype.None, fmt.Errorf("unknown node type %q", node.TypeName))
	}
	eff := node.EffectiveType(base)

	for _, arg := range node.Args {
		for _, w := range arg.Wires {
			e.evalNode(ctx, frame, w.Source)
			if ctx.Cancelled {
				return NoneVal()
			}
		}
	}

	call := &Call{
		Node:  node,
		Frame: frame,
		Args:  resolveArgs(frame, node, eff),
		Ctx:   ctx,
	}

	var v Value
	var err error
	switch {
	case e.Reg.Network(node.TypeName) != nil:
		v, err = e.evalSubnetwork(ctx, frame, node)
	case node.Data != nil:
		body, ok := node.Data.(Body)
		if !ok {
			err = fmt.Errorf("node type %q has no evaluation body", node.TypeName)
		} else {
			v, err = body.Eval(call)
		}
	default:
		err = fmt.Errorf("node type %q has no evaluation body", node.TypeName)
	}
	if err != nil {
		return e.fail(frame, node, eff.OutputType, err)
	}

	if frame.Caller == nil && id == ctx.Selected {
		if gp, ok := node.Data.(GadgetProvider); ok {
			ctx.SelectionCache = gp.ProvideGadget(call, v)
		}
	}

	frame.Results[id] = v
	return v
}

// evalSubnetwork enters a child frame for a call-site node and evaluates the
// subnetwork's return node. Failures inside the subnetwork surface as one
// error on the call site.
func (e *Evaluator) evalSubnetwork(ctx *Context, frame *Frame, node *graph.Node) (Value, error) {
	sub := e.Reg.Network(node.TypeName)
	if sub.Invalid {
		return NoneVal(), fmt.Errorf("network %q is invalid", sub.Name)
	}
	if sub.ReturnNode == 0 {
		return NoneVal(), fmt.Errorf("network %q has no return node", sub.Name)
	}
	child := newFrame(sub, frame, node)
	frame.Children[node.ID] = child
	v := e.evalNode(ctx, child, sub.ReturnNode)
	if msgs := child.SortedErrors(); len(msgs) > 0 {
		return NoneVal(), fmt.Errorf("in network %q: %s", sub.Name, msgs[0])
	}
	return v, nil
}

// fail records exactly one error for the node and yields the neutral value
// of its output type so dependents can degrade instead of aborting.
func (e *Evaluator) fail(frame *Frame, node *graph.Node, out dtype.Type, err error) Value {
	if _, dup := frame.Errors[node.ID]; !dup {
		frame.Errors[node.ID] = err.Error()
	}
	v := Neutral(out)
	frame.Results[node.ID] = v
	return v
}

// SortedErrors returns the frame's error messages in node id order.
func (f *Frame) SortedErrors() []string {
	ids := make([]graph.NodeID, 0, len(f.Errors))
	for id := range f.Errors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.Errors[id])
	}
	return out
}

// resolveArgs turns a node's wire sets into one value per parameter slot.
// Array-typed slots concatenate every connected source, in wire order, with
// scalar sources widened to one-element arrays; scalar slots take their
// first wire, coerced to the parameter type. Unwired scalar slots resolve to
// None.
// Sources that resolved to None are dropped from arrays; a failed source
// still contributes its neutral value, so the slot keeps one entry per
// connected wire.
func resolveArgs(frame *Frame, node *graph.Node, eff *graph.NodeType) []Value {
	n := len(eff.Parameters)
	if len(node.Args) < n {
		n = len(node.Args)
	}
	out := make([]Value, len(eff.Parameters))
	for i := range out {
		out[i] = NoneVal()
	}
	for i := 0; i < n; i++ {
		out[i] = gatherWires(frame, node.Args[i].Wires, eff.Parameters[i].Type)
	}
	return out
}

// An array slot with no wires is an empty array, not None: the slot's value
// always reflects exactly the connected sources.
func gatherWires(frame *Frame, wires []graph.Wire, paramType dtype.Type) Value {
	if paramType.IsArray() {
		items := []Value{}
		for _, w := range wires {
			v, ok := frame.Results[w.Source]
			if !ok || v.IsNone() {
				continue
			}
			if v.Type.Equal(paramType) {
				items = append(items, v.Arr...)
				continue
			}
			elem, err := v.Convert(*paramType.Elem)
			if err != nil {
				continue
			}
			items = append(items, elem)
		}
		return Value{Type: paramType, Arr: items}
	}
	if len(wires) == 0 {
		return NoneVal()
	}
	v, ok := frame.Results[wires[0].Source]
	if !ok || v.IsNone() {
		return NoneVal()
	}
	converted, err := v.Convert(paramType)
	if err != nil {
		return NoneVal()
	}
	return converted
}
