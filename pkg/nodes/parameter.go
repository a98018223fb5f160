package nodes

import (
	"fmt"
	"strconv"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// ParameterData is the body of a parameter-declaration node. Each one adds
// an entry to its network's externally visible interface; the validator
// reads the declarations, mints ids, and keeps every call site consistent.
//
// At evaluation time the parameter resolves, in order: the wires feeding its
// slot at the enclosing call site, a literal stored on the call site, and
// finally its own default pin.
type ParameterData struct {
	ID        graph.ParamID `json:"id"`
	ParamName string        `json:"name"`
	Type      dtype.Type    `json:"type"`
	SortOrder int           `json:"sort_order"`
}

// Compile-time checks: the validator and evaluator talk to parameters
// through these.
var (
	_ graph.ParameterDecl = (*ParameterData)(nil)
	_ eval.Body           = (*ParameterData)(nil)
	_ eval.SDFBody        = (*ParameterData)(nil)
)

func (d *ParameterData) CloneData() graph.NodeData { c := *d; return &c }

// ParamDecl implements graph.ParameterDecl.
func (d *ParameterData) ParamDecl() (graph.ParamID, string, dtype.Type, int) {
	return d.ID, d.ParamName, d.Type, d.SortOrder
}

// SetParamID implements graph.ParameterDecl.
func (d *ParameterData) SetParamID(id graph.ParamID) { d.ID = id }

// CustomNodeType shapes the node after its declared type: one default pin
// and a matching output.
func (d *ParameterData) CustomNodeType(base *graph.NodeType) *graph.NodeType {
	return &graph.NodeType{
		Name:       base.Name,
		Parameters: []graph.Parameter{{ID: 0, Name: "default", Type: d.Type}},
		OutputType: d.Type,
	}
}

func (d *ParameterData) Eval(call *eval.Call) (eval.Value, error) {
	if v, ok := call.ParentParamValue(d.ID, d.Type); ok {
		return v, nil
	}
	if v, ok := call.CallSiteLiteral(d.ID); ok {
		converted, err := v.Convert(d.Type)
		if err != nil {
			return eval.NoneVal(), fmt.Errorf("nodes: parameter %q literal: %w", d.ParamName, err)
		}
		return converted, nil
	}
	if def := call.Arg(0); !def.IsNone() {
		return def, nil
	}
	return eval.NoneVal(), fmt.Errorf("nodes: parameter %q has no value", d.ParamName)
}

// Distance samples a geometry-typed parameter: the union of the call-site
// wires, falling back to the default pin.
func (d *ParameterData) Distance(call *eval.ImplicitCall, p eval.Vec3) (float64, error) {
	dist, wired, err := call.ParentParamDistance(d.ID, p)
	if err != nil {
		return 0, err
	}
	if wired {
		return dist, nil
	}
	return call.SampleArg(0, p)
}

func (d *ParameterData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{
		{Name: "name", Value: strconv.Quote(d.ParamName)},
		{Name: "type", Value: d.Type.String()},
		{Name: "sort_order", Value: strconv.Itoa(d.SortOrder)},
	}
}

func (d *ParameterData) SetTextProperty(name, value string) error {
	switch name {
	case "name":
		if unquoted, err := strconv.Unquote(value); err == nil {
			d.ParamName = unquoted
		} else {
			d.ParamName = value
		}
	case "type":
		t, err := dtype.Parse(value)
		if err != nil {
			return fmt.Errorf("nodes: parameter type: %w", err)
		}
		d.Type = t
	case "sort_order":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("nodes: parameter sort_order: %w", err)
		}
		d.SortOrder = n
	default:
		return fmt.Errorf("nodes: parameter has no property %q", name)
	}
	return nil
}
