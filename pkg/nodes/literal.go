package nodes

import (
	"fmt"
	"strconv"

	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
)

// BoolData is the body of a bool literal node.
type BoolData struct {
	Value bool `json:"value"`
}

func (d *BoolData) CloneData() graph.NodeData { c := *d; return &c }

func (d *BoolData) Eval(call *eval.Call) (eval.Value, error) {
	return eval.BoolVal(d.Value), nil
}

func (d *BoolData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{{Name: "value", Value: strconv.FormatBool(d.Value)}}
}

func (d *BoolData) SetTextProperty(name, value string) error {
	if name != "value" {
		return fmt.Errorf("nodes: bool has no property %q", name)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("nodes: bool value: %w", err)
	}
	d.Value = b
	return nil
}

// IntData is the body of an int literal node.
type IntData struct {
	Value int64 `json:"value"`
}

func (d *IntData) CloneData() graph.NodeData { c := *d; return &c }

func (d *IntData) Eval(call *eval.Call) (eval.Value, error) {
	return eval.IntVal(d.Value), nil
}

func (d *IntData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{{Name: "value", Value: strconv.FormatInt(d.Value, 10)}}
}

func (d *IntData) SetTextProperty(name, value string) error {
	if name != "value" {
		return fmt.Errorf("nodes: int has no property %q", name)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("nodes: int value: %w", err)
	}
	d.Value = n
	return nil
}

// FloatData is the body of a float literal node.
type FloatData struct {
	Value float64 `json:"value"`
}

func (d *FloatData) CloneData() graph.NodeData { c := *d; return &c }

func (d *FloatData) Eval(call *eval.Call) (eval.Value, error) {
	return eval.FloatVal(d.Value), nil
}

func (d *FloatData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{{Name: "value", Value: formatFloat(d.Value)}}
}

func (d *FloatData) SetTextProperty(name, value string) error {
	if name != "value" {
		return fmt.Errorf("nodes: float has no property %q", name)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("nodes: float value: %w", err)
	}
	d.Value = f
	return nil
}

// StringData is the body of a string literal node.
type StringData struct {
	Value string `json:"value"`
}

func (d *StringData) CloneData() graph.NodeData { c := *d; return &c }

func (d *StringData) Eval(call *eval.Call) (eval.Value, error) {
	return eval.StrVal(d.Value), nil
}

func (d *StringData) TextProperties() []graph.TextProperty {
	return []graph.TextProperty{{Name: "value", Value: strconv.Quote(d.Value)}}
}

func (d *StringData) SetTextProperty(name, value string) error {
	if name != "value" {
		return fmt.Errorf("nodes: string has no property %q", name)
	}
	if unquoted, err := strconv.Unquote(value); err == nil {
		d.Value = unquoted
	} else {
		d.Value = value
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
