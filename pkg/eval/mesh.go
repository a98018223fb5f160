package eval

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/graph"
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// outsideDistance stands in for samples that error mid-render; marching
// cubes treats them as far outside the surface.
const outsideDistance = 1e9

// networkSDF3 adapts one geometry node's distance field to sdf.SDF3 so the
// sdfx renderer can tessellate it.
type networkSDF3 struct {
	im     *Implicit
	frame  *Frame
	id     graph.NodeID
	bounds sdf.Box3
}

// Compile-time interface check.
var _ sdf.SDF3 = (*networkSDF3)(nil)

func (s *networkSDF3) Evaluate(p v3.Vec) float64 {
	d, err := s.im.Distance(s.frame, s.id, Vec3{X: p.X, Y: p.Y, Z: p.Z})
	if err != nil {
		return outsideDistance
	}
	return d
}

func (s *networkSDF3) BoundingBox() sdf.Box3 {
	return s.bounds
}

// NewSDF3 exposes node id's distance field as an sdf.SDF3 over the given
// world-space bounds.
func NewSDF3(im *Implicit, frame *Frame, id graph.NodeID, bounds Box3) sdf.SDF3 {
	padded := bounds.Grow(1)
	return &networkSDF3{
		im:    im,
		frame: frame,
		id:    id,
		bounds: sdf.Box3{
			Min: v3.Vec{X: padded.Min.X, Y: padded.Min.Y, Z: padded.Min.Z},
			Max: v3.Vec{X: padded.Max.X, Y: padded.Max.Y, Z: padded.Max.Z},
		},
	}
}

// Mesh is a renderable triangle soup with per-face normals.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// Mesh tessellates node id's surface with marching cubes.
func (im *Implicit) Mesh(frame *Frame, id graph.NodeID, bounds Box3, cells int) (*Mesh, error) {
	if bounds.IsEmpty() {
		return &Mesh{}, nil
	}
	if cells <= 0 {
		cells = DefaultMeshCells
	}

	// Probe once so distance-field errors surface as errors instead of an
	// empty mesh.
	if _, err := im.Distance(frame, id, bounds.Center()); err != nil {
		return nil, fmt.Errorf("eval: meshing node %d: %w", id, err)
	}

	s := NewSDF3(im, frame, id, bounds)
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	mesh := &Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			mesh.Normals = append(mesh.Normals, nx, ny, nz)
			mesh.Indices = append(mesh.Indices, uint32(i*3+j))
		}
	}
	return mesh, nil
}
