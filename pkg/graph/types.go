package graph

import "github.com/chazu/facet/pkg/dtype"

// NodeID identifies a node within one network. IDs are assigned
// monotonically and never reused, even after deletion.
type NodeID uint64

// ParamID identifies a parameter of a subnetwork's interface. IDs are minted
// once, when the parameter node is created, and never reused; they are the
// authoritative identity for matching parameters across interface changes.
// Names are user-facing only.
type ParamID uint64

// Position is a node's location on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Parameter is one entry of a node type's interface.
type Parameter struct {
	ID   ParamID    `json:"id"`
	Name string     `json:"name"`
	Type dtype.Type `json:"type"`
}

// NodeType describes the externally visible interface of a node: its
// parameter list and output type. Built-in node types are immutable;
// a subnetwork's NodeType is regenerated by the validator whenever the
// network's parameter nodes change.
type NodeType struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
	OutputType dtype.Type  `json:"output_type"`
	// Subnetwork is true for node types backed by a user-defined network
	// rather than a built-in body.
	Subnetwork bool `json:"subnetwork,omitempty"`
}

// ParamIndex returns the index of the parameter with the given name, or -1.
func (t *NodeType) ParamIndex(name string) int {
	for i, p := range t.Parameters {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// InterfaceChanged reports whether the parameter list or output type differs
// from prev in a way that requires call-site repair: count, order, id, or
// data type. A pure name change is not an interface change, so renaming a
// parameter never disturbs wiring.
func (t *NodeType) InterfaceChanged(prev *NodeType) bool {
	if prev == nil {
		return true
	}
	if len(t.Parameters) != len(prev.Parameters) {
		return true
	}
	for i, p := range t.Parameters {
		q := prev.Parameters[i]
		if p.ID != q.ID || !p.Type.Equal(q.Type) {
			return true
		}
	}
	return !t.OutputType.Equal(prev.OutputType)
}
