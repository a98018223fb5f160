package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/dtype"
)

// Structural rejection sentinels. Mutations that would break a graph
// invariant return one of these (possibly wrapped) and leave the network
// untouched.
var (
	ErrUnknownNode = errors.New("graph: unknown node id")
	ErrArgIndex    = errors.New("graph: argument index out of range")
	ErrCycle       = errors.New("graph: connection would create a cycle")
)

// NodeNetwork is a mutable directed graph of nodes and wires for one named
// network. It owns node identities, wiring, display and selection state, and
// the network's externally visible interface.
type NodeNetwork struct {
	Name  string           `json:"name"`
	Type  NodeType         `json:"node_type"`
	Nodes map[NodeID]*Node `json:"-"`

	NextNodeID   NodeID            `json:"next_node_id"`
	NextParamID  ParamID           `json:"next_param_id"`
	NameCounters map[string]uint64 `json:"name_counters,omitempty"`

	ReturnNode NodeID          `json:"return_node,omitempty"` // 0 = none
	Displayed  map[NodeID]bool `json:"-"`
	Selected   NodeID          `json:"-"` // transient, not persisted

	// Validated is cleared whenever a mutation may have changed the
	// network's interface; it returns to true only after a successful
	// validator pass.
	Validated bool `json:"-"`

	// Invalid is set by a validator pass that found failures and cleared by
	// a clean one. An invalid network cannot be used as a subnetwork: its
	// call sites fail evaluation until the network is fixed.
	Invalid bool `json:"-"`
}

// NewNetwork creates an empty network with the given name.
func NewNetwork(name string) *NodeNetwork {
	return &NodeNetwork{
		Name:         name,
		Type:         NodeType{Name: name, OutputType: dtype.None, Subnetwork: true},
		Nodes:        make(map[NodeID]*Node),
		NextNodeID:   1,
		NextParamID:  1,
		NameCounters: make(map[string]uint64),
	}
}

// AddNode creates a node of the given type with a fresh id, a generated
// never-reused name, and an argument list sized to paramCount.
func (nw *NodeNetwork) AddNode(typeName string, paramCount int, data NodeData, pos Position) *Node {
	n := &Node{
		ID:       nw.NextNodeID,
		TypeName: typeName,
		Name:     nw.generateName(typeName),
		Position: pos,
		Args:     make([]Argument, paramCount),
		Data:     data,
	}
	nw.NextNodeID++
	nw.Nodes[n.ID] = n
	nw.Validated = false
	return n
}

// generateName mints "{type}{counter}". Counters only ever grow, so a name is
// never reused within a session even after the node is deleted.
func (nw *NodeNetwork) generateName(typeName string) string {
	if nw.NameCounters == nil {
		nw.NameCounters = make(map[string]uint64)
	}
	nw.NameCounters[typeName]++
	return fmt.Sprintf("%s%d", typeName, nw.NameCounters[typeName])
}

// MintParamID returns a fresh parameter id. Minted ids are never reused.
func (nw *NodeNetwork) MintParamID() ParamID {
	id := nw.NextParamID
	nw.NextParamID++
	return id
}

// Node returns the node with the given id, or nil.
func (nw *NodeNetwork) Node(id NodeID) *Node {
	return nw.Nodes[id]
}

// NodeByName returns the node whose display or generated name matches, or nil.
func (nw *NodeNetwork) NodeByName(name string) *Node {
	for _, n := range nw.SortedNodes() {
		if n.Custom == name || n.Name == name {
			return n
		}
	}
	return nil
}

// SortedNodes returns every node ordered by id. Iteration over the node map
// must never leak into results, so anything order-sensitive goes through
// this.
func (nw *NodeNetwork) SortedNodes() []*Node {
	out := make([]*Node, 0, len(nw.Nodes))
	for _, n := range nw.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteNode removes the node and every reference to it: wires from other
// nodes' argument sets, the displayed set, the selection, and the return
// node designation.
func (nw *NodeNetwork) DeleteNode(id NodeID) error {
	if nw.Nodes[id] == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	delete(nw.Nodes, id)
	for _, n := range nw.Nodes {
		for i := range n.Args {
			n.Args[i].Remove(id)
		}
	}
	delete(nw.Displayed, id)
	if nw.ReturnNode == id {
		nw.ReturnNode = 0
	}
	if nw.Selected == id {
		nw.Selected = 0
	}
	nw.Validated = false
	return nil
}

// Connect wires source's output pin into dest's argIdx slot. The connection
// is refused, with the graph unchanged, if either node is missing, the slot
// is out of range, or the wire would create a cycle. Type compatibility is
// checked by the caller, which knows both pins' types; the graph enforces
// structure only.
func (nw *NodeNetwork) Connect(source NodeID, pin int, dest NodeID, argIdx int) error {
	src := nw.Nodes[source]
	dst := nw.Nodes[dest]
	if src == nil {
		return fmt.Errorf("%w: source %d", ErrUnknownNode, source)
	}
	if dst == nil {
		return fmt.Errorf("%w: dest %d", ErrUnknownNode, dest)
	}
	if argIdx < 0 || argIdx >= len(dst.Args) {
		return fmt.Errorf("%w: %d of %d on node %d", ErrArgIndex, argIdx, len(dst.Args), dest)
	}
	if nw.wouldCycle(source, dest) {
		return fmt.Errorf("%w: %d -> %d", ErrCycle, source, dest)
	}
	w := Wire{Source: source, Pin: pin}
	if dst.Args[argIdx].Has(w) {
		return nil
	}
	dst.Args[argIdx].Wires = append(dst.Args[argIdx].Wires, w)
	return nil
}

// Disconnect removes every wire from source in dest's argIdx slot.
func (nw *NodeNetwork) Disconnect(source, dest NodeID, argIdx int) error {
	dst := nw.Nodes[dest]
	if dst == nil {
		return fmt.Errorf("%w: dest %d", ErrUnknownNode, dest)
	}
	if argIdx < 0 || argIdx >= len(dst.Args) {
		return fmt.Errorf("%w: %d of %d on node %d", ErrArgIndex, argIdx, len(dst.Args), dest)
	}
	dst.Args[argIdx].Remove(source)
	return nil
}

// DuplicateNode clones the node under a fresh id and generated name, with a
// deep-cloned body and the same incoming wiring.
func (nw *NodeNetwork) DuplicateNode(id NodeID) (*Node, error) {
	orig := nw.Nodes[id]
	if orig == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	var data NodeData
	if orig.Data != nil {
		data = orig.Data.CloneData()
	}
	dup := nw.AddNode(orig.TypeName, len(orig.Args), data, Position{X: orig.Position.X + 20, Y: orig.Position.Y + 20})
	for i, arg := range orig.Args {
		dup.Args[i] = arg.Clone()
	}
	return dup, nil
}

// SetReturnNode designates the node whose output defines the network's
// output type. Passing 0 clears it.
func (nw *NodeNetwork) SetReturnNode(id NodeID) error {
	if id != 0 && nw.Nodes[id] == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	nw.ReturnNode = id
	nw.Validated = false
	return nil
}

// SetDisplay adds or removes the node from the displayed set.
func (nw *NodeNetwork) SetDisplay(id NodeID, on bool) error {
	n := nw.Nodes[id]
	if n == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	n.Display = on
	if nw.Displayed == nil {
		nw.Displayed = make(map[NodeID]bool)
	}
	if on {
		nw.Displayed[id] = true
	} else {
		delete(nw.Displayed, id)
	}
	return nil
}

// DisplayedNodes returns the displayed node ids in ascending order.
func (nw *NodeNetwork) DisplayedNodes() []NodeID {
	out := make([]NodeID, 0, len(nw.Displayed))
	for id := range nw.Displayed {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnsureArgCount resizes a node's argument list to count, preserving the
// leading slots. Used when a node's effective type changes shape.
func EnsureArgCount(n *Node, count int) {
	for len(n.Args) < count {
		n.Args = append(n.Args, Argument{})
	}
	if len(n.Args) > count {
		n.Args = n.Args[:count]
	}
}
