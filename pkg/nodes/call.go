package nodes

import (
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/graph"

	"github.com/chazu/facet/pkg/eval"
)

// CallData is the body of a subnetwork call-site node. It carries literal
// values keyed by parameter id; a parameter node inside the subnetwork reads
// its literal when no wire feeds its slot at this call site. Keying by id
// keeps literals attached to their parameter across renames and reorders.
type CallData struct {
	Literals map[graph.ParamID]eval.Value `json:"literals,omitempty"`
}

var _ eval.LiteralProvider = (*CallData)(nil)

// NewCallData returns an empty call-site body.
func NewCallData() *CallData {
	return &CallData{}
}

func (d *CallData) CloneData() graph.NodeData {
	c := &CallData{}
	if d.Literals != nil {
		c.Literals = make(map[graph.ParamID]eval.Value, len(d.Literals))
		for id, v := range d.Literals {
			c.Literals[id] = v
		}
	}
	return c
}

// ParamLiteral implements eval.LiteralProvider.
func (d *CallData) ParamLiteral(id graph.ParamID) (eval.Value, bool) {
	v, ok := d.Literals[id]
	return v, ok
}

// SetLiteral stores a literal for the given parameter id.
func (d *CallData) SetLiteral(id graph.ParamID, v eval.Value) {
	if d.Literals == nil {
		d.Literals = make(map[graph.ParamID]eval.Value)
	}
	d.Literals[id] = v
}

// ClearLiteral drops the literal for the given parameter id.
func (d *CallData) ClearLiteral(id graph.ParamID) {
	delete(d.Literals, id)
}

// Prune removes literals whose parameter no longer exists in the interface.
// The validator calls it during call-site repair.
func (d *CallData) Prune(params []graph.Parameter) {
	if len(d.Literals) == 0 {
		return
	}
	live := make(map[graph.ParamID]bool, len(params))
	for _, p := range params {
		live[p.ID] = true
	}
	for id := range d.Literals {
		if !live[id] {
			delete(d.Literals, id)
		}
	}
}

func (d *CallData) TextProperties() []graph.TextProperty {
	ids := make([]graph.ParamID, 0, len(d.Literals))
	for id := range d.Literals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	props := make([]graph.TextProperty, 0, len(ids))
	for _, id := range ids {
		props = append(props, graph.TextProperty{
			Name:  fmt.Sprintf("literal_%d", id),
			Value: formatLiteral(d.Literals[id]),
		})
	}
	return props
}

func (d *CallData) SetTextProperty(name, value string) error {
	var id graph.ParamID
	if _, err := fmt.Sscanf(name, "literal_%d", &id); err != nil {
		return fmt.Errorf("nodes: call site has no property %q", name)
	}
	v, err := parseLiteral(value)
	if err != nil {
		return fmt.Errorf("nodes: call site literal: %w", err)
	}
	d.SetLiteral(id, v)
	return nil
}
