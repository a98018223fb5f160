package graph

import (
	"encoding/json"

	"github.com/chazu/facet/pkg/dtype"
)

// NodeData is the polymorphic per-node payload. Built-in node bodies and the
// subnetwork body both implement it; the graph itself only needs to clone it
// when duplicating a node and serialize it when persisting.
type NodeData interface {
	CloneData() NodeData
}

// CustomTyper is implemented by node data whose pin shape depends on its own
// configuration (expression nodes, map nodes). The returned type overrides
// the registered base type; returning nil keeps the base.
type CustomTyper interface {
	CustomNodeType(base *NodeType) *NodeType
}

// ParameterDecl is implemented by the node data of parameter-declaration
// nodes. The validator reads declarations through this interface and writes
// back freshly minted ids; it never touches concrete body types.
type ParameterDecl interface {
	ParamDecl() (id ParamID, name string, typ dtype.Type, sortOrder int)
	SetParamID(ParamID)
}

// TextProperty is one (name, literal) pair of a node's own configuration,
// distinct from its wired arguments.
type TextProperty struct {
	Name  string
	Value string
}

// TextConfigurable is implemented by node data that exposes its configuration
// to the text-format boundary.
type TextConfigurable interface {
	TextProperties() []TextProperty
	SetTextProperty(name, value string) error
}

// Wire is a directed connection from a source node's output pin into an
// argument slot.
type Wire struct {
	Source NodeID `json:"source"`
	Pin    int    `json:"pin"`
}

// Argument is the set of wires feeding one parameter slot. It holds a slice
// rather than a single wire because an array-typed input accepts any number
// of sources, concatenated at evaluation time. Order is insertion order so
// evaluation is deterministic.
type Argument struct {
	Wires []Wire `json:"wires,omitempty"`
}

// Has reports whether the argument already carries the given wire.
func (a *Argument) Has(w Wire) bool {
	for _, existing := range a.Wires {
		if existing == w {
			return true
		}
	}
	return false
}

// Remove drops every wire from the given source node. It reports whether
// anything was removed.
func (a *Argument) Remove(source NodeID) bool {
	kept := a.Wires[:0]
	removed := false
	for _, w := range a.Wires {
		if w.Source == source {
			removed = true
			continue
		}
		kept = append(kept, w)
	}
	a.Wires = kept
	if len(a.Wires) == 0 {
		a.Wires = nil
	}
	return removed
}

// Clone returns a deep copy of the argument.
func (a Argument) Clone() Argument {
	if a.Wires == nil {
		return Argument{}
	}
	wires := make([]Wire, len(a.Wires))
	copy(wires, a.Wires)
	return Argument{Wires: wires}
}

// Node is one vertex of a network's wire graph.
type Node struct {
	ID       NodeID     `json:"id"`
	TypeName string     `json:"type"`
	Name     string     `json:"name"`                  // generated, never reused
	Custom   string     `json:"custom_name,omitempty"` // user-assigned label
	Position Position   `json:"position"`
	Display  bool       `json:"display,omitempty"`
	Args     []Argument `json:"args"`
	Data     NodeData   `json:"-"`

	// RawData carries the persisted form of Data between load and decode.
	RawData json.RawMessage `json:"data,omitempty"`
}

// DisplayName returns the user-assigned name if set, the generated one
// otherwise.
func (n *Node) DisplayName() string {
	if n.Custom != "" {
		return n.Custom
	}
	return n.Name
}

// EffectiveType resolves the node's active interface: its self-described
// custom type when the body provides one, the registered base type otherwise.
func (n *Node) EffectiveType(base *NodeType) *NodeType {
	if ct, ok := n.Data.(CustomTyper); ok {
		if t := ct.CustomNodeType(base); t != nil {
			return t
		}
	}
	return base
}

// ArgSources returns the source node ids wired into any argument slot,
// in slot then insertion order, without duplicates.
func (n *Node) ArgSources() []NodeID {
	var out []NodeID
	seen := make(map[NodeID]bool)
	for _, arg := range n.Args {
		for _, w := range arg.Wires {
			if !seen[w.Source] {
				seen[w.Source] = true
				out = append(out, w.Source)
			}
		}
	}
	return out
}
