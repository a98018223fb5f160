package nodes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// ExprParam declares one input pin of an expression node.
type ExprParam struct {
	Name string     `json:"name"`
	Type dtype.Type `json:"type"`
}

// ExprData is the body of an expression node: a zygomys expression over the
// node's declared parameters. The node's pin shape follows the declaration,
// so the parameter list is part of the node's own configuration rather than
// its registered type.
type ExprData struct {
	Expression string      `json:"expression"`
	Params     []ExprParam `json:"params"`
	Output     dtype.Type  `json:"output"`
}

var (
	_ eval.Body         = (*ExprData)(nil)
	_ graph.CustomTyper = (*ExprData)(nil)
)

func (d *ExprData) CloneData() graph.NodeData {
	c := *d
	c.Params = make([]ExprParam, len(d.Params))
	copy(c.Params, d.Params)
	return &c
}

// CustomNodeType derives the pin shape from the declared parameter list.
func (d *ExprData) CustomNodeType(base *graph.NodeType) *graph.NodeType {
	params := make([]graph.Parameter, len(d.Params))
	for i, p := range d.Params {
		params[i] = graph.Parameter{Name: p.Name, Type: p.Type}
	}
	out := d.Output
	if out.IsNone() {
		out = dtype.Float
	}
	return &graph.NodeType{Name: base.Name, Parameters: params, OutputType: out}
}

// Eval runs the expression in a fresh sandboxed zygomys environment with
// each declared parameter bound to its resolved argument. A fresh sandbox
// per evaluation keeps results deterministic and keeps user expressions away
// from the filesystem.
func (d *ExprData) Eval(call *eval.Call) (v eval.Value, err error) {
	if strings.TrimSpace(d.Expression) == "" {
		return eval.NoneVal(), fmt.Errorf("nodes: expr has no expression")
	}

	defer func() {
		if r := recover(); r != nil {
			v = eval.NoneVal()
			err = fmt.Errorf("nodes: expr panicked: %v", r)
		}
	}()

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var src strings.Builder
	for i, p := range d.Params {
		lit, bindErr := bindLiteral(call.Arg(i), p.Type)
		if bindErr != nil {
			return eval.NoneVal(), fmt.Errorf("nodes: expr parameter %q: %w", p.Name, bindErr)
		}
		fmt.Fprintf(&src, "(def %s %s)\n", p.Name, lit)
	}
	src.WriteString(d.Expression)

	if loadErr := env.LoadString(src.String()); loadErr != nil {
		return eval.NoneVal(), fmt.Errorf("nodes: expr: %s", exprErrorMessage(loadErr))
	}
	res, runErr := env.Run()
	if runErr != nil {
		return eval.NoneVal(), fmt.Errorf("nodes: expr: %s", exprErrorMessage(runErr))
	}
	return sexpToValue(res, d.Output)
}

// bindLiteral renders an argument value as zygomys source.
func bindLiteral(v eval.Value, t dtype.Type) (string, error) {
	converted, err := v.Convert(t)
	if err != nil {
		return "", fmt.Errorf("no value of type %s", t)
	}
	switch t.Kind {
	case dtype.KindBool:
		return strconv.FormatBool(converted.Bool), nil
	case dtype.KindInt:
		return strconv.FormatInt(converted.Int, 10), nil
	case dtype.KindFloat:
		return strconv.FormatFloat(converted.Float, 'g', -1, 64), nil
	case dtype.KindString:
		return strconv.Quote(converted.Str), nil
	}
	return "", fmt.Errorf("type %s cannot cross into an expression", t)
}

// sexpToValue converts the interpreter result to the declared output type.
func sexpToValue(s zygo.Sexp, out dtype.Type) (eval.Value, error) {
	if out.IsNone() {
		out = dtype.Float
	}
	var v eval.Value
	switch r := s.(type) {
	case *zygo.SexpInt:
		v = eval.IntVal(r.Val)
	case *zygo.SexpFloat:
		v = eval.FloatVal(r.Val)
	case *zygo.SexpBool:
		v = eval.BoolVal(r.Val)
	case *zygo.SexpStr:
		v = eval.StrVal(r.S)
	default:
		return eval.NoneVal(), fmt.Errorf("nodes: expression produced %T, not a scalar", s)
	}
	converted, err := v.Convert(out)
	if err != nil {
		return eval.NoneVal(), fmt.Errorf("nodes: expression produced %s, declared %s", v.Type, out)
	}
	return converted, nil
}

// exprLinePattern pulls line information out of zygomys error text.
var exprLinePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

func exprErrorMessage(err error) string {
	msg := err.Error()
	if m := exprLinePattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("line %s: %s", m[1], strings.TrimSpace(m[2]))
	}
	return strings.TrimSpace(msg)
}

func (d *ExprData) TextProperties() []graph.TextProperty {
	props := []graph.TextProperty{
		{Name: "expression", Value: strconv.Quote(d.Expression)},
		{Name: "output", Value: d.Output.String()},
	}
	for _, p := range d.Params {
		props = append(props, graph.TextProperty{Name: "param", Value: fmt.Sprintf("%s: %s", p.Name, p.Type)})
	}
	return props
}

func (d *ExprData) SetTextProperty(name, value string) error {
	switch name {
	case "expression":
		if unquoted, err := strconv.Unquote(value); err == nil {
			d.Expression = unquoted
		} else {
			d.Expression = value
		}
	case "output":
		t, err := dtype.Parse(value)
		if err != nil {
			return fmt.Errorf("nodes: expr output: %w", err)
		}
		d.Output = t
	case "param":
		name, typeStr, ok := strings.Cut(value, ":")
		if !ok {
			return fmt.Errorf("nodes: expr param must be \"name: type\", got %q", value)
		}
		t, err := dtype.Parse(strings.TrimSpace(typeStr))
		if err != nil {
			return fmt.Errorf("nodes: expr param type: %w", err)
		}
		d.Params = append(d.Params, ExprParam{Name: strings.TrimSpace(name), Type: t})
	default:
		return fmt.Errorf("nodes: expr has no property %q", name)
	}
	return nil
}
