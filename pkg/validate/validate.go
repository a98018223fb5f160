// Package validate keeps a subnetwork's externally visible interface
// consistent with its internal parameter nodes, repairs every call site when
// that interface changes, and cascades the repair through networks that
// depend on it.
package validate

import (
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/registry"
)

// Validator recomputes network interfaces against a registry.
type Validator struct {
	Reg *registry.Registry
}

// New returns a validator over the given registry.
func New(reg *registry.Registry) *Validator {
	return &Validator{Reg: reg}
}

// Result reports one validation pass over a network and its dependents.
type Result struct {
	// Valid is false when the network has a validation failure; the
	// network is marked invalid and excluded from further cascading.
	Valid bool
	// Errors holds the validation failure messages.
	Errors []string
	// InterfaceChanged reports whether the externally visible interface
	// differs from the previously published one.
	InterfaceChanged bool
	// Cascaded lists every dependent network revisited by this pass, in
	// visit order.
	Cascaded []string
}

// literalPruner is implemented by call-site bodies that store per-parameter
// literals; repair drops literals of removed parameters.
type literalPruner interface {
	Prune(params []graph.Parameter)
}

// ValidateNetwork runs the full pass for one network: recompute its
// interface from its parameter nodes, normalize argument arity everywhere,
// repair call sites if the interface changed, and cascade to dependents
// until a pass produces no further interface changes.
func (v *Validator) ValidateNetwork(name string) (*Result, error) {
	res := &Result{Valid: true}
	visited := make(map[string]bool)
	if err := v.validate(name, res, visited, true); err != nil {
		return nil, err
	}
	return res, nil
}

func (v *Validator) validate(name string, res *Result, visited map[string]bool, root bool) error {
	if visited[name] {
		return nil
	}
	visited[name] = true

	nw := v.Reg.Network(name)
	if nw == nil {
		return fmt.Errorf("validate: unknown network %q", name)
	}

	// Hard failures make the interface itself untrustworthy, so they block
	// call-site repair and cascading. Wire mismatches are local: they mark
	// the network invalid but its interface is still well defined, and call
	// sites are still kept consistent with it.
	var hard []string
	if v.Reg.UsageCycle(name) {
		hard = append(hard, fmt.Sprintf("network %q uses itself, directly or transitively", name))
	}

	oldParams := nw.Type.Parameters
	newParams, dupFailures := v.scanParameters(nw)
	hard = append(hard, dupFailures...)

	newType := graph.NodeType{
		Name:       nw.Name,
		Parameters: newParams,
		OutputType: v.outputType(nw),
		Subnetwork: true,
	}
	changed := newType.InterfaceChanged(&nw.Type)
	nw.Type = newType
	v.normalizeArity(nw)
	failures := append(append([]string(nil), hard...), v.checkWires(nw)...)

	if root {
		res.InterfaceChanged = changed
	}

	if len(failures) > 0 {
		nw.Validated = false
		nw.Invalid = true
		res.Valid = false
		res.Errors = append(res.Errors, failures...)
	} else {
		nw.Validated = true
		nw.Invalid = false
	}

	if len(hard) > 0 || !changed {
		return nil
	}
	for _, parentName := range v.Reg.ParentNetworks(name) {
		parent := v.Reg.Network(parentName)
		if parent == nil {
			continue
		}
		v.repairCallSites(parent, name, oldParams, newParams)
		parent.Validated = false
		res.Cascaded = append(res.Cascaded, parentName)
		if err := v.validate(parentName, res, visited, false); err != nil {
			return err
		}
	}
	return nil
}

// scanParameters rebuilds the parameter list from the network's parameter
// nodes, sorted by declared sort order with node id breaking ties. Nodes
// without an id get a freshly minted one; duplicate ids are a validation
// failure, never silently rewritten.
func (v *Validator) scanParameters(nw *graph.NodeNetwork) ([]graph.Parameter, []string) {
	type decl struct {
		node *graph.Node
		d    graph.ParameterDecl
		sort int
	}
	var decls []decl
	for _, n := range nw.SortedNodes() {
		pd, ok := n.Data.(graph.ParameterDecl)
		if !ok {
			continue
		}
		_, _, _, order := pd.ParamDecl()
		decls = append(decls, decl{node: n, d: pd, sort: order})
	}
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].sort != decls[j].sort {
			return decls[i].sort < decls[j].sort
		}
		return decls[i].node.ID < decls[j].node.ID
	})

	var failures []string
	seen := make(map[graph.ParamID]graph.NodeID)
	params := make([]graph.Parameter, 0, len(decls))
	for _, dc := range decls {
		id, pname, ptype, _ := dc.d.ParamDecl()
		if id == 0 {
			id = nw.MintParamID()
			dc.d.SetParamID(id)
		}
		if other, dup := seen[id]; dup {
			failures = append(failures, fmt.Sprintf(
				"duplicate parameter id %d on nodes %d and %d", id, other, dc.node.ID))
			continue
		}
		seen[id] = dc.node.ID
		params = append(params, graph.Parameter{ID: id, Name: pname, Type: ptype})
	}
	return params, failures
}

// outputType derives the network's output type from its return node.
func (v *Validator) outputType(nw *graph.NodeNetwork) dtype.Type {
	if nw.ReturnNode == 0 {
		return dtype.None
	}
	ret := nw.Nodes[nw.ReturnNode]
	if ret == nil {
		return dtype.None
	}
	base := v.Reg.Lookup(ret.TypeName)
	if base == nil {
		return dtype.None
	}
	return ret.EffectiveType(base).OutputType
}

// normalizeArity resizes every node's argument list to its effective
// parameter count. This is the load-bearing invariant: len(arguments) ==
// len(effective parameters) after any mutation.
func (v *Validator) normalizeArity(nw *graph.NodeNetwork) {
	for _, n := range nw.SortedNodes() {
		base := v.Reg.Lookup(n.TypeName)
		if base == nil {
			continue
		}
		graph.EnsureArgCount(n, len(n.EffectiveType(base).Parameters))
	}
}

// checkWires reports type-incompatible wires. They are reported rather than
// silently dropped; the editing surface re-offers validation after a fix.
func (v *Validator) checkWires(nw *graph.NodeNetwork) []string {
	var failures []string
	for _, n := range nw.SortedNodes() {
		base := v.Reg.Lookup(n.TypeName)
		if base == nil {
			failures = append(failures, fmt.Sprintf("node %d references unknown type %q", n.ID, n.TypeName))
			continue
		}
		eff := n.EffectiveType(base)
		for i := range n.Args {
			if i >= len(eff.Parameters) {
				break
			}
			want := eff.Parameters[i].Type
			for _, w := range n.Args[i].Wires {
				src := nw.Nodes[w.Source]
				if src == nil {
					failures = append(failures, fmt.Sprintf("node %d references missing node %d", n.ID, w.Source))
					continue
				}
				srcBase := v.Reg.Lookup(src.TypeName)
				if srcBase == nil {
					continue
				}
				got := src.EffectiveType(srcBase).OutputType
				if !got.ConvertibleTo(want) {
					failures = append(failures, fmt.Sprintf(
						"wire %s -> %s slot %d: %s is not compatible with %s",
						src.DisplayName(), n.DisplayName(), i, got, want))
				}
			}
		}
	}
	return failures
}

// repairCallSites rebuilds the argument list of every call site of subName
// inside parent to match the new parameter order. Matching is by parameter
// id, so wires follow their parameter across renames and reorders; matching
// by name is a fallback for legacy data whose parameters predate ids. A
// carried wire set whose types became incompatible is replaced by an empty
// argument.
func (v *Validator) repairCallSites(parent *graph.NodeNetwork, subName string, oldParams, newParams []graph.Parameter) {
	for _, n := range parent.SortedNodes() {
		if n.TypeName != subName {
			continue
		}
		newArgs := make([]graph.Argument, len(newParams))
		for i, p := range newParams {
			oldIdx := findParam(oldParams, p)
			if oldIdx < 0 || oldIdx >= len(n.Args) {
				continue
			}
			carried := n.Args[oldIdx].Clone()
			if !oldParams[oldIdx].Type.Equal(p.Type) {
				carried = v.filterCompatible(parent, carried, p.Type)
			}
			newArgs[i] = carried
		}
		n.Args = newArgs
		if pruner, ok := n.Data.(literalPruner); ok {
			pruner.Prune(newParams)
		}
	}
}

// findParam locates p in old by id, falling back to name for id-less
// legacy entries.
func findParam(old []graph.Parameter, p graph.Parameter) int {
	for i, o := range old {
		if o.ID != 0 && o.ID == p.ID {
			return i
		}
	}
	for i, o := range old {
		if o.ID == 0 && o.Name == p.Name {
			return i
		}
	}
	return -1
}

// filterCompatible keeps only the wires whose source output type satisfies
// the new parameter type.
func (v *Validator) filterCompatible(nw *graph.NodeNetwork, arg graph.Argument, want dtype.Type) graph.Argument {
	var kept graph.Argument
	for _, w := range arg.Wires {
		src := nw.Nodes[w.Source]
		if src == nil {
			continue
		}
		base := v.Reg.Lookup(src.TypeName)
		if base == nil {
			continue
		}
		if src.EffectiveType(base).OutputType.ConvertibleTo(want) {
			kept.Wires = append(kept.Wires, w)
		}
	}
	return kept
}

// ValidateAll revalidates every registered network. Used after loading a
// design file, where interfaces may predate the current built-ins.
func (v *Validator) ValidateAll() map[string]*Result {
	out := make(map[string]*Result)
	for _, name := range v.Reg.NetworkNames() {
		res, err := v.ValidateNetwork(name)
		if err != nil {
			out[name] = &Result{Valid: false, Errors: []string{err.Error()}}
			continue
		}
		out[name] = res
	}
	return out
}
