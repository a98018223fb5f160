// Package registry holds the catalog of node types: built-in descriptors
// registered once at startup, plus one entry per user-defined subnetwork.
// A Registry is an explicitly owned value passed into graph, validator and
// evaluator operations, so tests and multiple open designs can hold
// independent catalogs.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/graph"
)

// Builtin describes one built-in node type: its interface, a factory for a
// fresh body, and a decoder for the body's persisted form.
type Builtin struct {
	Type    graph.NodeType
	NewData func() graph.NodeData
	Decode  func(raw json.RawMessage) (graph.NodeData, error)
}

// Registry is the process catalog of node types and networks.
type Registry struct {
	builtins map[string]*Builtin
	networks map[string]*graph.NodeNetwork

	// SubnetDecode reconstructs the body of a subnetwork call-site node.
	// Installed once, alongside the built-ins.
	SubnetDecode func(raw json.RawMessage) (graph.NodeData, error)
	// SubnetData creates a fresh body for a new subnetwork call site.
	SubnetData func() graph.NodeData
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		builtins: make(map[string]*Builtin),
		networks: make(map[string]*graph.NodeNetwork),
	}
}

// RegisterBuiltin installs a built-in node type. Built-ins are immutable:
// registering the same name twice is an error.
func (r *Registry) RegisterBuiltin(b *Builtin) error {
	name := b.Type.Name
	if name == "" {
		return fmt.Errorf("registry: builtin with empty name")
	}
	if _, exists := r.builtins[name]; exists {
		return fmt.Errorf("registry: builtin %q already registered", name)
	}
	if _, exists := r.networks[name]; exists {
		return fmt.Errorf("registry: %q already names a network", name)
	}
	r.builtins[name] = b
	return nil
}

// Builtin returns the built-in descriptor for name, or nil.
func (r *Registry) Builtin(name string) *Builtin {
	return r.builtins[name]
}

// Lookup resolves a type name to its NodeType: a built-in descriptor, or a
// subnetwork's current interface. Returns nil when the name is unknown —
// callers treat that as a structural error at the referencing node.
func (r *Registry) Lookup(name string) *graph.NodeType {
	if b, ok := r.builtins[name]; ok {
		t := b.Type
		return &t
	}
	if nw, ok := r.networks[name]; ok {
		t := nw.Type
		return &t
	}
	return nil
}

// All returns every registered type name, built-ins then networks, each
// group sorted.
func (r *Registry) All() []string {
	names := make([]string, 0, len(r.builtins)+len(r.networks))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names[:len(names)])
	n := len(names)
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names[n:])
	return names
}

// AddNetwork registers a subnetwork. Its NodeType becomes visible to Lookup
// immediately; the validator keeps it accurate afterwards.
func (r *Registry) AddNetwork(nw *graph.NodeNetwork) error {
	if nw.Name == "" {
		return fmt.Errorf("registry: network with empty name")
	}
	if _, exists := r.builtins[nw.Name]; exists {
		return fmt.Errorf("registry: %q already names a builtin", nw.Name)
	}
	if _, exists := r.networks[nw.Name]; exists {
		return fmt.Errorf("registry: network %q already registered", nw.Name)
	}
	r.networks[nw.Name] = nw
	return nil
}

// Network returns the network registered under name, or nil.
func (r *Registry) Network(name string) *graph.NodeNetwork {
	return r.networks[name]
}

// NetworkNames returns every registered network name, sorted.
func (r *Registry) NetworkNames() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveNetwork deletes a subnetwork's entry and returns the names of the
// networks that still contain call sites of it. The caller cascades
// invalidation to those networks; their call-site nodes become structurally
// invalid until retargeted.
func (r *Registry) RemoveNetwork(name string) []string {
	if _, ok := r.networks[name]; !ok {
		return nil
	}
	delete(r.networks, name)
	return r.ParentNetworks(name)
}

// ParentNetworks returns, sorted, the names of networks containing at least
// one call site of the named type.
func (r *Registry) ParentNetworks(name string) []string {
	var parents []string
	for parentName, nw := range r.networks {
		for _, n := range nw.Nodes {
			if n.TypeName == name {
				parents = append(parents, parentName)
				break
			}
		}
	}
	sort.Strings(parents)
	return parents
}

// UsageCycle reports whether the named network reaches itself through
// subnetwork call sites, directly or transitively. Such networks are marked
// invalid by the validator; the cascade relies on the usage graph being
// acyclic to terminate.
func (r *Registry) UsageCycle(name string) bool {
	return r.reaches(name, name, make(map[string]bool))
}

func (r *Registry) reaches(from, target string, visited map[string]bool) bool {
	nw := r.networks[from]
	if nw == nil || visited[from] {
		return false
	}
	visited[from] = true
	for _, n := range nw.SortedNodes() {
		if _, isSub := r.networks[n.TypeName]; !isSub {
			continue
		}
		if n.TypeName == target || r.reaches(n.TypeName, target, visited) {
			return true
		}
	}
	return false
}

// DecodeNodeData implements graph.DataDecoder over the catalog: built-in
// bodies decode through their registered decoder, call sites of known or
// unknown subnetworks through the subnetwork decoder. Unknown built-ins with
// no subnetwork decoder are an error.
func (r *Registry) DecodeNodeData(typeName string, raw json.RawMessage) (graph.NodeData, error) {
	if b, ok := r.builtins[typeName]; ok {
		if b.Decode == nil {
			return nil, nil
		}
		return b.Decode(raw)
	}
	if r.SubnetDecode != nil {
		return r.SubnetDecode(raw)
	}
	return nil, fmt.Errorf("registry: no decoder for node type %q", typeName)
}

var _ graph.DataDecoder = (*Registry)(nil)
