package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// RangeData is the body of a range node: an int array from start, stepping
// step, count elements long. Pins override the stored values.
type RangeData struct {
	Start int64 `json:"start"`
	Count int64 `json:"count"`
	Step  int64 `json:"step"`
}

var _ eval.Body = (*RangeData)(nil)

func (d *RangeData) CloneData() graph.NodeData { c := *d; return &c }

func (d *RangeData) Eval(call *eval.Call) (eval.Value, error) {
	start := call.IntOr(0, d.Start)
	count := call.IntOr(1, d.Count)
	step := call.IntOr(2, d.Step)
	if count < 0 {
		return eval.NoneVal(), fmt.Errorf("nodes: range count must be non-negative, got %d", count)
	}
	if step == 0 {
		step = 1
	}
	items := make([]eval.Value, 0, count)
	for i := int64(0); i < count; i++ {
		items = append(items, eval.IntVal(start+i*step))
	}
	return eval.ArrVal(dtype.Int, items), nil
}

func (d *RangeData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "start", Value: strconv.FormatInt(d.Start, 10)},
		{Name: "count", Value: strconv.FormatInt(d.Count, 10)},
		{Name: "step", Value: strconv.FormatInt(d.Step, 10)},
	}
}

func (d *RangeData) SetTextProperty(name, value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("nodes: range %s: %w", name, err)
	}
	switch name {
	case "start":
		d.Start = n
	case "count":
		d.Count = n
	case "step":
		d.Step = n
	default:
		return fmt.Errorf("nodes: range has no property %q", name)
	}
	return nil
}

// MapData is the body of a map node: applies a function to every element of
// an array. The declared element and output types shape the node's pins, so
// a map over floats and a map over geometries are different pin shapes of
// the same node type.
type MapData struct {
	In  dtype.Type `json:"in"`
	Out dtype.Type `json:"out"`
}

var (
	_ eval.Body         = (*MapData)(nil)
	_ graph.CustomTyper = (*MapData)(nil)
)

func (d *MapData) CloneData() graph.NodeData { c := *d; return &c }

func (d *MapData) elemTypes() (dtype.Type, dtype.Type) {
	in, out := d.In, d.Out
	if in.IsNone() {
		in = dtype.Float
	}
	if out.IsNone() {
		out = in
	}
	return in, out
}

// CustomNodeType shapes the pins from the declared element types:
// (array<in>, fn(in) -> out) -> array<out>.
func (d *MapData) CustomNodeType(base *graph.NodeType) *graph.NodeType {
	in, out := d.elemTypes()
	return &graph.NodeType{
		Name: base.Name,
		Parameters: []graph.Parameter{
			{Name: "items", Type: dtype.Array(in)},
			{Name: "fn", Type: dtype.Function([]dtype.Type{in}, out)},
		},
		OutputType: dtype.Array(out),
	}
}

func (d *MapData) Eval(call *eval.Call) (eval.Value, error) {
	_, out := d.elemTypes()
	items := call.Arg(0)
	fn := call.Arg(1)
	if fn.Fn == nil {
		return eval.NoneVal(), fmt.Errorf("nodes: map requires a function input")
	}
	results := make([]eval.Value, 0, len(items.Arr))
	for i, item := range items.Arr {
		r, err := fn.Fn.Call(call.Ctx, []eval.Value{item})
		if err != nil {
			return eval.NoneVal(), fmt.Errorf("nodes: map element %d: %w", i, err)
		}
		converted, err := r.Convert(out)
		if err != nil {
			return eval.NoneVal(), fmt.Errorf("nodes: map element %d: %w", i, err)
		}
		results = append(results, converted)
	}
	return eval.ArrVal(out, results), nil
}

func (d *MapData) TextProperties() []graph.TextProperty {
	in, out := d.elemTypes()
	return []graph.TextProperty{
		{Name: "in", Value: in.String()},
		{Name: "out", Value: out.String()},
	}
}

func (d *MapData) SetTextProperty(name, value string) error {
	t, err := dtype.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("nodes: map %s: %w", name, err)
	}
	switch name {
	case "in":
		d.In = t
	case "out":
		d.Out = t
	default:
		return fmt.Errorf("nodes: map has no property %q", name)
	}
	return nil
}

// FnData is the body of a function-reference node: its output is a closure
// over a registered network. The signature is cached on the node so pin
// types resolve without registry access; evaluation always resolves the
// network's current interface.
type FnData struct {
	Network string       `json:"network"`
	Params  []dtype.Type `json:"params,omitempty"`
	Output  dtype.Type   `json:"output,omitempty"`
}

var (
	_ eval.Body         = (*FnData)(nil)
	_ graph.CustomTyper = (*FnData)(nil)
)

func (d *FnData) CloneData() graph.NodeData {
	c := *d
	c.Params = make([]dtype.Type, len(d.Params))
	copy(c.Params, d.Params)
	return &c
}

// Refresh re-caches the signature from the network's current interface.
func (d *FnData) Refresh(nt *graph.NodeType) {
	d.Params = d.Params[:0]
	for _, p := range nt.Parameters {
		d.Params = append(d.Params, p.Type)
	}
	d.Output = nt.OutputType
}

func (d *FnData) CustomNodeType(base *graph.NodeType) *graph.NodeType {
	return &graph.NodeType{
		Name:       base.Name,
		OutputType: dtype.Function(d.Params, d.Output),
	}
}

func (d *FnData) Eval(call *eval.Call) (eval.Value, error) {
	if d.Network == "" {
		return eval.NoneVal(), fmt.Errorf("nodes: fn has no target network")
	}
	closure, err := eval.NetworkClosure(call.Ctx.Reg, d.Network)
	if err != nil {
		return eval.NoneVal(), err
	}
	return eval.FnVal(closure), nil
}

func (d *FnData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{{Name: "network", Value: strconv.Quote(d.Network)}}
}

func (d *FnData) SetTextProperty(name, value string) error {
	if name != "network" {
		return fmt.Errorf("nodes: fn has no property %q", name)
	}
	if unquoted, err := strconv.Unquote(value); err == nil {
		d.Network = unquoted
	} else {
		d.Network = value
	}
	return nil
}
