// Package designer is the orchestration facade over the graph, registry,
// validator, and evaluator: every mutation goes through here, under a
// single-writer/multiple-reader lock, with validation and call-site cascade
// triggered where a change can alter a network's interface.
package designer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/eval"
	"github.com/chazu/facet/pkg/graph"
	"github.com/chazu/facet/pkg/nodes"
	"github.com/chazu/facet/pkg/registry"
	"github.com/chazu/facet/pkg/textfmt"
	"github.com/chazu/facet/pkg/validate"
)

// ErrTypeMismatch rejects a connection whose pin types are incompatible.
var ErrTypeMismatch = errors.New("designer: incompatible wire types")

// Designer owns one registry and its networks. Mutations take the write
// lock; evaluation and queries take the read lock, so a slow pass never
// blocks other readers.
type Designer struct {
	mu  sync.RWMutex
	reg *registry.Registry
	val *validate.Validator
	ev  *eval.Evaluator
	log *log.Logger
}

// New builds a designer with every built-in node type registered. A nil
// logger discards output.
func New(logger *log.Logger) (*Designer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	reg := registry.New()
	if err := nodes.Register(reg); err != nil {
		return nil, err
	}
	return &Designer{
		reg: reg,
		val: validate.New(reg),
		ev:  eval.New(reg),
		log: logger,
	}, nil
}

// NewNetwork creates and registers an empty network.
func (d *Designer) NewNetwork(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := graph.NewNetwork(name)
	if err := d.reg.AddNetwork(nw); err != nil {
		return err
	}
	_, err := d.val.ValidateNetwork(name)
	return err
}

// DeleteNetwork removes a network from the registry. Call sites in the
// returned networks become structurally invalid: their type no longer
// resolves, evaluation records an error per such node, and each affected
// network is marked for revalidation.
func (d *Designer) DeleteNetwork(name string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reg.Network(name) == nil {
		return nil, fmt.Errorf("designer: unknown network %q", name)
	}
	affected := d.reg.RemoveNetwork(name)
	for _, parent := range affected {
		if nw := d.reg.Network(parent); nw != nil {
			nw.Validated = false
		}
	}
	d.log.Info("deleted network", "name", name, "affected", len(affected))
	return affected, nil
}

// NetworkNames lists registered networks.
func (d *Designer) NetworkNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reg.NetworkNames()
}

// Network returns the live network. Callers must treat it as read-only;
// mutations go through designer methods.
func (d *Designer) Network(name string) *graph.NodeNetwork {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reg.Network(name)
}

// AddNode creates a node of typeName in the network, with a fresh body from
// the type's factory. Adding a parameter node changes the network's
// interface, so validation (and its cascade) runs before returning.
func (d *Designer) AddNode(network, typeName string, pos graph.Position) (*graph.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return nil, fmt.Errorf("designer: unknown network %q", network)
	}
	base := d.reg.Lookup(typeName)
	if base == nil {
		return nil, fmt.Errorf("designer: unknown node type %q", typeName)
	}
	var data graph.NodeData
	if b := d.reg.Builtin(typeName); b != nil && b.NewData != nil {
		data = b.NewData()
	} else if base.Subnetwork && d.reg.SubnetData != nil {
		data = d.reg.SubnetData()
	}
	n := nw.AddNode(typeName, len(base.Parameters), data, pos)
	graph.EnsureArgCount(n, len(n.EffectiveType(base).Parameters))
	if _, isParam := n.Data.(graph.ParameterDecl); isParam {
		if _, err := d.val.ValidateNetwork(network); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// DeleteNode removes a node. Deleting a parameter node or the return node
// changes the interface and triggers validation.
func (d *Designer) DeleteNode(network string, id graph.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	n := nw.Node(id)
	if n == nil {
		return fmt.Errorf("%w: %d", graph.ErrUnknownNode, id)
	}
	_, wasParam := n.Data.(graph.ParameterDecl)
	wasReturn := nw.ReturnNode == id
	if err := nw.DeleteNode(id); err != nil {
		return err
	}
	if wasParam || wasReturn {
		if _, err := d.val.ValidateNetwork(network); err != nil {
			return err
		}
	}
	return nil
}

// Connect wires source's output into dest's argIdx slot. Rejected, with the
// graph unchanged, on structural grounds (missing node, bad slot, cycle) or
// when the pin types are incompatible.
func (d *Designer) Connect(network string, source graph.NodeID, pin int, dest graph.NodeID, argIdx int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	got, err := d.outputType(nw, source)
	if err != nil {
		return err
	}
	want, err := d.paramType(nw, dest, argIdx)
	if err != nil {
		return err
	}
	if !got.ConvertibleTo(want) {
		return fmt.Errorf("%w: %s into %s", ErrTypeMismatch, got, want)
	}
	return nw.Connect(source, pin, dest, argIdx)
}

// Disconnect removes every wire from source in dest's argIdx slot.
func (d *Designer) Disconnect(network string, source, dest graph.NodeID, argIdx int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	return nw.Disconnect(source, dest, argIdx)
}

// DuplicateNode clones a node. A duplicated parameter node gets a fresh
// parameter id through validation, so the copy never collides with the
// original's identity.
func (d *Designer) DuplicateNode(network string, id graph.NodeID) (*graph.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return nil, fmt.Errorf("designer: unknown network %q", network)
	}
	dup, err := nw.DuplicateNode(id)
	if err != nil {
		return nil, err
	}
	if pd, ok := dup.Data.(graph.ParameterDecl); ok {
		pd.SetParamID(0)
		if _, err := d.val.ValidateNetwork(network); err != nil {
			return nil, err
		}
	}
	return dup, nil
}

// SetReturnNode designates the network's output node and revalidates, since
// the output type is part of the interface.
func (d *Designer) SetReturnNode(network string, id graph.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	if err := nw.SetReturnNode(id); err != nil {
		return err
	}
	_, err := d.val.ValidateNetwork(network)
	return err
}

// SetDisplay toggles a node's display flag.
func (d *Designer) SetDisplay(network string, id graph.NodeID, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	return nw.SetDisplay(id, on)
}

// Select marks a node as selected; its body may deposit a gadget descriptor
// during the next evaluation.
func (d *Designer) Select(network string, id graph.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return fmt.Errorf("designer: unknown network %q", network)
	}
	if id != 0 && nw.Node(id) == nil {
		return fmt.Errorf("%w: %d", graph.ErrUnknownNode, id)
	}
	nw.Selected = id
	return nil
}

// Validate runs the validator pass for one network.
func (d *Designer) Validate(network string) (*validate.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.val.ValidateNetwork(network)
}

// ValidateAll revalidates every network.
func (d *Designer) ValidateAll() map[string]*validate.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.val.ValidateAll()
}

// Query renders a network in text format. Pure: repeated calls on an
// unchanged graph return identical text.
func (d *Designer) Query(network string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return "", fmt.Errorf("designer: unknown network %q", network)
	}
	return textfmt.Serialize(nw, d.reg), nil
}

// Edit applies text-format statements to a network, then revalidates it so
// any interface change cascades.
func (d *Designer) Edit(network, text string, replace bool) (*textfmt.EditResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return nil, fmt.Errorf("designer: unknown network %q", network)
	}
	res := textfmt.Apply(nw, d.reg, text, replace)
	if _, err := d.val.ValidateNetwork(network); err != nil {
		return res, err
	}
	return res, nil
}

// GenerateScene evaluates the network's displayed nodes (or its return node)
// and assembles the renderable scene. Evaluation holds only the read lock.
func (d *Designer) GenerateScene(ctx context.Context, network string, opts eval.DisplayOptions, lightweight bool) (*eval.Scene, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nw := d.reg.Network(network)
	if nw == nil {
		return nil, fmt.Errorf("designer: unknown network %q", network)
	}
	start := time.Now()
	ectx := eval.NewContext(ctx, d.reg)
	ectx.Selected = nw.Selected
	scene := eval.GenerateScene(ectx, d.ev, nw, opts, lightweight)
	d.log.Debug("generated scene",
		"network", network,
		"lightweight", lightweight,
		"errors", len(scene.Errors),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return scene, nil
}

// EvaluateAsync runs scene generation on a background goroutine. The
// returned channel yields exactly one scene; cancel the context to get a
// best-effort partial scene instead of waiting for completion.
func (d *Designer) EvaluateAsync(ctx context.Context, network string, opts eval.DisplayOptions) (<-chan *eval.Scene, error) {
	d.mu.RLock()
	nw := d.reg.Network(network)
	d.mu.RUnlock()
	if nw == nil {
		return nil, fmt.Errorf("designer: unknown network %q", network)
	}
	out := make(chan *eval.Scene, 1)
	go func() {
		defer close(out)
		scene, err := d.GenerateScene(ctx, network, opts, false)
		if err != nil {
			scene = &eval.Scene{Partial: true}
		}
		out <- scene
	}()
	return out, nil
}

func (d *Designer) outputType(nw *graph.NodeNetwork, id graph.NodeID) (dtype.Type, error) {
	n := nw.Node(id)
	if n == nil {
		return dtype.None, fmt.Errorf("%w: %d", graph.ErrUnknownNode, id)
	}
	base := d.reg.Lookup(n.TypeName)
	if base == nil {
		return dtype.None, fmt.Errorf("designer: node %d has unknown type %q", id, n.TypeName)
	}
	return n.EffectiveType(base).OutputType, nil
}

func (d *Designer) paramType(nw *graph.NodeNetwork, id graph.NodeID, argIdx int) (dtype.Type, error) {
	n := nw.Node(id)
	if n == nil {
		return dtype.None, fmt.Errorf("%w: %d", graph.ErrUnknownNode, id)
	}
	base := d.reg.Lookup(n.TypeName)
	if base == nil {
		return dtype.None, fmt.Errorf("designer: node %d has unknown type %q", id, n.TypeName)
	}
	eff := n.EffectiveType(base)
	if argIdx < 0 || argIdx >= len(eff.Parameters) {
		return dtype.None, fmt.Errorf("%w: %d of %d on node %d", graph.ErrArgIndex, argIdx, len(eff.Parameters), id)
	}
	return eff.Parameters[argIdx].Type, nil
}
