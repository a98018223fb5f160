package eval

import (
	"fmt"

	"github.com/chazu/facet/pkg/dtype"
	"github.com/chazu/facet/pkg/graph"
)

// DisplayMode selects the renderable form of geometry outputs.
type DisplayMode int

const (
	// ModeMesh tessellates geometry with marching cubes.
	ModeMesh DisplayMode = iota
	// ModePointCloud samples geometry into surface points.
	ModePointCloud
)

// DisplayOptions tune the implicit half of scene generation.
type DisplayOptions struct {
	Mode           DisplayMode
	SamplesPerUnit float64
	MeshCells      int
	// SkipImplicit keeps the pass direct-only, for cheap interactive
	// refresh.
	SkipImplicit bool
}

// Scene is the output of one evaluation pass: per-node values and errors,
// plus renderable artifacts for displayed geometry.
type Scene struct {
	Values map[graph.NodeID]Value
	Meshes map[graph.NodeID]*Mesh
	Clouds map[graph.NodeID]*PointCloud
	Atoms  map[graph.NodeID]*AtomSet
	Errors map[graph.NodeID]string

	// SelectionCache is the opaque gadget payload deposited by the selected
	// node's body, if any.
	SelectionCache any

	// Partial marks a cancelled pass: present results are valid, absent
	// ones were never computed.
	Partial bool

	// Lightweight marks a shell scene from a pass that skipped evaluation
	// entirely.
	Lightweight bool
}

func newScene() *Scene {
	return &Scene{
		Values: make(map[graph.NodeID]Value),
		Meshes: make(map[graph.NodeID]*Mesh),
		Clouds: make(map[graph.NodeID]*PointCloud),
		Atoms:  make(map[graph.NodeID]*AtomSet),
		Errors: make(map[graph.NodeID]string),
	}
}

// GenerateScene evaluates every displayed node of the network (falling back
// to the return node when nothing is displayed) and assembles the scene. A
// lightweight request returns an empty shell without evaluating anything.
// The pass always completes and always returns a scene; failures are data in
// the error map.
func GenerateScene(ctx *Context, e *Evaluator, nw *graph.NodeNetwork, opts DisplayOptions, lightweight bool) *Scene {
	scene := newScene()
	if lightweight {
		scene.Lightweight = true
		return scene
	}

	roots := nw.DisplayedNodes()
	if len(roots) == 0 && nw.ReturnNode != 0 {
		roots = []graph.NodeID{nw.ReturnNode}
	}

	frame := e.NewRootFrame(nw)
	for _, id := range roots {
		v, err := e.EvaluateInto(ctx, frame, id)
		if err != nil {
			scene.Errors[id] = err.Error()
			continue
		}
		// A root interrupted mid-pass yields a placeholder, not a result;
		// roots finished before the cancellation keep their values.
		if ctx.Cancelled {
			scene.Errors[id] = "evaluation cancelled"
			break
		}
		scene.Values[id] = v
	}

	for id, msg := range frame.Errors {
		scene.Errors[id] = msg
	}
	scene.SelectionCache = ctx.SelectionCache
	scene.Partial = ctx.Cancelled

	if opts.SkipImplicit || ctx.Cancelled {
		return scene
	}

	im := &Implicit{Reg: e.Reg}
	for _, id := range roots {
		v, ok := scene.Values[id]
		if !ok || scene.Errors[id] != "" {
			continue
		}
		switch v.Type.Kind {
		case dtype.KindGeometry:
			if v.Geom == nil || v.Geom.Empty {
				continue
			}
			renderGeometry(scene, im, frame, id, v.Geom.Bounds, opts)
		case dtype.KindAtomic:
			if v.Atoms != nil {
				scene.Atoms[id] = v.Atoms
			}
		}
	}
	return scene
}

func renderGeometry(scene *Scene, im *Implicit, frame *Frame, id graph.NodeID, bounds Box3, opts DisplayOptions) {
	switch opts.Mode {
	case ModePointCloud:
		cloud, err := im.ExtractPointCloud(frame, id, bounds, opts.SamplesPerUnit)
		if err != nil {
			scene.Errors[id] = fmt.Sprintf("point cloud: %v", err)
			return
		}
		scene.Clouds[id] = cloud
	default:
		mesh, err := im.Mesh(frame, id, bounds, opts.MeshCells)
		if err != nil {
			scene.Errors[id] = fmt.Sprintf("mesh: %v", err)
			return
		}
		scene.Meshes[id] = mesh
	}
}
