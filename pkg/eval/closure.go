package eval

import (
	"fmt"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// Closure is a function-typed value: a callable with a declared signature.
// Higher-order bodies (map and friends) invoke it once per element.
type Closure struct {
	Params []dtype.Type
	Output dtype.Type
	Invoke func(ctx *Context, args []Value) (Value, error)
}

// Call invokes the closure, coercing each argument to the declared
// parameter type first.
func (c *Closure) Call(ctx *Context, args []Value) (Value, error) {
	if len(args) != len(c.Params) {
		return NoneVal(), fmt.Errorf("eval: closure takes %d arguments, got %d", len(c.Params), len(args))
	}
	coerced := make([]Value, len(args))
	for i, a := range args {
		v, err := a.Convert(c.Params[i])
		if err != nil {
			return NoneVal(), fmt.Errorf("eval: closure argument %d: %w", i, err)
		}
		coerced[i] = v
	}
	return c.Invoke(ctx, coerced)
}

// ValueData is the body of a value node: it carries a precomputed Value and
// evaluates to it. Closure invocation plants value nodes in a scratch
// network to bind arguments; the text boundary has no use for them, so they
// carry no text properties.
type ValueData struct {
	V Value
}

// CloneData implements graph.NodeData.
func (d *ValueData) CloneData() graph.NodeData {
	c := *d
	return &c
}

// Eval implements Body.
func (d *ValueData) Eval(call *Call) (Value, error) {
	return d.V, nil
}

// CustomNodeType pins the node's output type to the carried value's type.
func (d *ValueData) CustomNodeType(base *graph.NodeType) *graph.NodeType {
	return &graph.NodeType{Name: base.Name, OutputType: d.V.Type}
}

// NetworkClosure builds a closure over a registered network: calling it
// evaluates the network with the arguments bound to its parameters. Each
// invocation plants a scratch network holding one value node per argument,
// wired into a call site of the target network, and runs the direct pass on
// it.
func NetworkClosure(reg *registry.Registry, name string) (*Closure, error) {
	nt := reg.Lookup(name)
	if nt == nil {
		return nil, fmt.Errorf("eval: unknown network %q", name)
	}
	if !nt.Subnetwork {
		return nil, fmt.Errorf("eval: %q is not a network", name)
	}
	params := make([]dtype.Type, len(nt.Parameters))
	for i, p := range nt.Parameters {
		params[i] = p.Type
	}
	return &Closure{
		Params: params,
		Output: nt.OutputType,
		Invoke: func(ctx *Context, args []Value) (Value, error) {
			scratch := graph.NewNetwork("call of " + name)
			var data graph.NodeData
			if reg.SubnetData != nil {
				data = reg.SubnetData()
			}
			site := scratch.AddNode(name, len(params), data, graph.Position{})
			for i, a := range args {
				vn := scratch.AddNode("value", 0, &ValueData{V: a}, graph.Position{})
				if err := scratch.Connect(vn.ID, 0, site.ID, i); err != nil {
					return NoneVal(), err
				}
			}
			e := New(reg)
			v, frame, err := e.Evaluate(ctx, scratch, site.ID)
			if err != nil {
				return NoneVal(), err
			}
			if msgs := frame.SortedErrors(); len(msgs) > 0 {
				return NoneVal(), fmt.Errorf("eval: calling %q: %s", name, msgs[0])
			}
			return v, nil
		},
	}, nil
}
